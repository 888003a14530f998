package relay

import (
	"context"
	"fmt"
	"time"

	"github.com/dep2p/go-segrelay/pkg/interfaces"
	"github.com/dep2p/go-segrelay/pkg/segment"
)

// Send 按顺序接纳 in 中的段
//
// 成功接纳的段从 in 中移除，in 中剩下的是未接纳的部分。
// 缓冲满时阻塞模式等待消费者腾出空间，非阻塞模式返回 ErrWouldBlock。
// 调用开始和结束时销毁消费者已释放的段。
func (r *Relay) Send(ctx context.Context, in *segment.Brigade, mode interfaces.ReadMode) error {
	sec := r.enter()
	err := r.send(ctx, sec, in, mode)
	cb, delta := r.takeConsumption()
	sec.leave()

	r.report(cb, delta)
	return err
}

func (r *Relay) send(ctx context.Context, sec section, in *segment.Brigade, mode interfaces.ReadMode) error {
	r.purgeSegments()
	if r.aborted {
		return ErrAborted
	}

	deadline := r.deadline()
	var err error
	for !in.Empty() {
		if err = r.append(ctx, sec, in, mode, deadline); err != nil {
			break
		}
	}

	sec.broadcast()
	r.purgeSegments()
	return err
}

// append 接纳 in 的第一个段（或其能放下的前缀）
func (r *Relay) append(ctx context.Context, sec section, in *segment.Brigade, mode interfaces.ReadMode, deadline time.Time) error {
	s, _ := in.Front()

	if s.Kind().IsMetadata() {
		in.PopFront()
		if s.Kind() == segment.KindEOS {
			r.producerDone = true
		}
		r.pushPending(s)
		return nil
	}
	if s.Kind() != segment.KindData && s.Kind() != segment.KindFile {
		return fmt.Errorf("relay %d: %s: %w", r.id, segment.Describe(s), ErrUnsupported)
	}
	if r.producerDone && s.Len() != 0 {
		return fmt.Errorf("relay %d: %w", r.id, ErrClosedStream)
	}

	if f, ok := s.(*segment.File); ok && r.veto.allow(r, f.Origin()) {
		if err := f.Detach(); err != nil {
			return fmt.Errorf("relay %d: %w", r.id, err)
		}
		in.PopFront()
		r.pushPending(f)
		r.sent += f.Len()
		r.metrics.BytesSent(r.tag, f.Len())
		return nil
	}

	n := s.Len()
	minChunk := int64(1)
	if opaque(s) {
		minChunk = r.minSplit
		if r.maxBufferSize > 0 && r.maxBufferSize < minChunk {
			minChunk = r.maxBufferSize
		}
	}
	need := minChunk
	if n != segment.Indeterminate && n < need {
		need = n
	}

	space, err := r.waitSpace(ctx, sec, mode, need, deadline)
	if err != nil {
		return err
	}

	if n == segment.Indeterminate {
		if _, err := s.Read(); err != nil {
			return fmt.Errorf("relay %d: read %s: %w", r.id, segment.Describe(s), err)
		}
		if c, ok := s.(segment.Continuer); ok {
			if rest := c.Rest(); rest != nil {
				in.InsertAt(1, rest)
			}
		}
		n = s.Len()
		if n == 0 {
			in.PopFront()
			return s.Destroy()
		}
	}

	if n > space {
		tail, err := s.Split(space)
		if err != nil {
			return fmt.Errorf("relay %d: split %s at %d: %w", r.id, segment.Describe(s), space, err)
		}
		in.InsertAt(1, tail)
		n = space
	}

	out, err := r.materialize(s)
	if err != nil {
		return err
	}
	in.PopFront()
	r.pushPending(out)
	r.sent += n
	r.metrics.BytesSent(r.tag, n)
	return nil
}

// waitSpace 等待缓冲至少有 need 字节空闲，返回当前空闲字节数
func (r *Relay) waitSpace(ctx context.Context, sec section, mode interfaces.ReadMode, need int64, deadline time.Time) (int64, error) {
	for {
		if r.aborted {
			return 0, ErrAborted
		}
		if space := r.spaceLeft(); space >= need && (space > 0 || need == 0) {
			return space, nil
		}
		if mode != interfaces.Blocking || !sec.locked() {
			return 0, ErrWouldBlock
		}
		// 已接纳的前缀要先唤醒消费者
		sec.broadcast()
		if err := r.wait(ctx, sec, "send", deadline); err != nil {
			return 0, err
		}
		r.purgeSegments()
	}
}

// opaque 内容只能在生产者侧读取的段，读取量不小于最小分割大小
func opaque(s segment.Segment) bool {
	switch s.Storage() {
	case segment.StorageOpaque, segment.StorageFile:
		return true
	}
	return s.Len() == segment.Indeterminate
}

// materialize 把段变成可以在消费者侧读取的形式
func (r *Relay) materialize(s segment.Segment) (segment.Segment, error) {
	switch s.Storage() {
	case segment.StorageHeap:
		if _, ok := s.(*segment.Stream); ok {
			if err := r.reserve(s); err != nil {
				return nil, err
			}
		}
		return s, nil

	case segment.StorageTransient:
		rl, ok := s.(segment.Relocator)
		if !ok {
			return r.readOpaque(s)
		}
		if err := r.reserve(s); err != nil {
			return nil, err
		}
		if err := rl.Relocate(); err != nil {
			r.release(s)
			return nil, fmt.Errorf("relay %d: relocate %s: %w", r.id, segment.Describe(s), err)
		}
		return s, nil

	case segment.StorageOpaque, segment.StorageFile:
		return r.readOpaque(s)

	default:
		return nil, fmt.Errorf("relay %d: %s: %w", r.id, segment.Describe(s), ErrUnsupported)
	}
}

// readOpaque 在生产者侧读取段并以内存段替换
func (r *Relay) readOpaque(s segment.Segment) (segment.Segment, error) {
	n := s.Len()
	if err := r.reserveBytes(n); err != nil {
		return nil, err
	}
	buf, err := s.Read()
	if err != nil {
		r.releaseBytes(n)
		return nil, fmt.Errorf("relay %d: read %s: %w", r.id, segment.Describe(s), err)
	}
	h := segment.NewHeap(buf)
	r.track(h, n)
	if err := r.destroySegment(s); err != nil {
		logger.Debug("destroy read segment failed", "relay", r.id, "err", err)
	}
	return h, nil
}
