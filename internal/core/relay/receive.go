package relay

import (
	"context"
	"fmt"

	"github.com/dep2p/go-segrelay/pkg/interfaces"
	"github.com/dep2p/go-segrelay/pkg/segment"
)

// Receive 向 out 追加待接收的段
//
// 数据段以代理段交出，文件段以复制了描述符的文件段交出。
// maxBytes > 0 时追加的数据不超过 maxBytes 字节，超出部分暂存到下次接收。
// 生产者关闭后先交出一个流结束标记，之后返回 ErrEOF。
func (r *Relay) Receive(ctx context.Context, out *segment.Brigade, mode interfaces.ReadMode, maxBytes int64) error {
	sec := r.enter()
	defer sec.leave()

	deadline := r.deadline()
	for {
		if r.aborted {
			return ErrAborted
		}

		n, err := r.transfer(out, maxBytes)
		if n > 0 {
			sec.broadcast()
			return nil
		}
		if err != nil {
			return err
		}

		if r.producerDone && r.pending.Empty() && r.leftover.Empty() {
			if r.closeAcked {
				return ErrEOF
			}
			out.PushBack(segment.NewEOS())
			r.closeAcked = true
			return nil
		}

		if mode != interfaces.Blocking || !sec.locked() {
			return ErrWouldBlock
		}
		if err := r.wait(ctx, sec, "receive", deadline); err != nil {
			return err
		}
	}
}

// transfer 把暂存段和待接收段移到 out，返回追加的段数
//
// 暂存段未取完时不取待接收段，保证顺序。
func (r *Relay) transfer(out *segment.Brigade, maxBytes int64) (int, error) {
	start := out.Len()
	remain := maxBytes
	full := func(s segment.Segment) bool {
		return maxBytes > 0 && s.Len() > 0 && remain <= 0
	}

	for !r.leftover.Empty() {
		s, _ := r.leftover.Front()
		if full(s) {
			break
		}
		r.leftover.PopFront()
		out.PushBack(s)
		if s.Len() > 0 {
			remain -= s.Len()
		}
	}

	var err error
	if r.leftover.Empty() {
		for !r.pending.Empty() {
			v, _ := r.pending.Get(0)
			s := v.(segment.Segment)
			if full(s) {
				break
			}
			r.popPending()
			o, cerr := r.convert(s)
			if cerr != nil {
				r.pushFrontPending(s)
				err = cerr
				break
			}
			if o == nil {
				continue
			}
			out.PushBack(o)
			if o.Len() > 0 {
				remain -= o.Len()
			}
		}
	}

	if maxBytes > 0 && remain < 0 {
		r.stashExcess(out, start, maxBytes)
	}

	var n int64
	segs := out.Segments()
	for _, s := range segs[start:] {
		if l := s.Len(); l > 0 {
			n += l
		}
	}
	if n > 0 {
		r.received += n
		r.metrics.BytesReceived(r.tag, n)
	}
	return len(segs) - start, err
}

// convert 把待接收段转换成交给消费者的段，元数据被吸收时返回 nil
func (r *Relay) convert(s segment.Segment) (segment.Segment, error) {
	switch s.Kind() {
	case segment.KindEOS:
		r.closeAcked = true
		r.purge.Add(s)
		return segment.NewEOS(), nil
	case segment.KindFlush:
		r.purge.Add(s)
		return segment.NewFlush(), nil
	case segment.KindMeta:
		r.purge.Add(s)
		return nil, nil
	}

	if f, ok := s.(*segment.File); ok {
		h, err := f.Handoff()
		if err != nil {
			return nil, fmt.Errorf("relay %d: %w", r.id, err)
		}
		r.filesHandedOff++
		r.metrics.FileHandedOff(r.tag)
		r.purge.Add(f)
		return h, nil
	}

	p := r.newProxy(s)
	r.held.Add(s)
	r.liveProxies++
	r.metrics.LiveProxies(r.tag, 1)
	return p, nil
}

// stashExcess 把 out 中超出 maxBytes 的部分移到暂存区
func (r *Relay) stashExcess(out *segment.Brigade, start int, maxBytes int64) {
	var total int64
	for i := start; i < out.Len(); i++ {
		s, _ := out.Get(i)
		l := s.Len()
		if l <= 0 {
			continue
		}
		if total+l <= maxBytes {
			total += l
			continue
		}

		var stash []segment.Segment
		if keep := maxBytes - total; keep > 0 {
			tail, err := s.Split(keep)
			if err == nil {
				stash = append(stash, tail)
				stash = append(stash, out.Splice(i+1)...)
			} else {
				// 无法分割时整段交出，避免暂存区首段永远取不出
				logger.Debug("split over limit failed", "relay", r.id, "seg", segment.Describe(s), "err", err)
				if i == start {
					stash = out.Splice(i + 1)
				} else {
					stash = out.Splice(i)
				}
			}
		} else {
			stash = out.Splice(i)
		}

		stash = append(stash, r.leftover.Segments()...)
		r.leftover = segment.NewBrigade(stash...)
		return
	}
}
