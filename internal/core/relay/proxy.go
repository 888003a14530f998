package relay

import (
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/dep2p/go-segrelay/pkg/segment"
)

// proxyShared 同一源段的所有代理段共享的状态
type proxyShared struct {
	reg  *Registry
	key  uuid.UUID
	src  segment.Segment
	refs atomic.Int32
}

// Proxy 交给消费者的代理段
//
// 引用生产者的源段而不复制数据。分割出的代理段共享引用计数，
// 最后一个销毁时源段交回中继，由生产者侧销毁。
type Proxy struct {
	shared *proxyShared
	off    int64
	n      int64

	destroyed bool
}

var _ segment.Segment = (*Proxy)(nil)

func (r *Relay) newProxy(src segment.Segment) *Proxy {
	sh := &proxyShared{reg: r.reg, key: r.key, src: src}
	sh.refs.Store(1)
	return &Proxy{shared: sh, n: src.Len()}
}

// Kind 返回 KindData
func (p *Proxy) Kind() segment.Kind { return segment.KindData }

// Storage 返回 StorageHeap
func (p *Proxy) Storage() segment.Storage { return segment.StorageHeap }

// Len 返回字节长度
func (p *Proxy) Len() int64 { return p.n }

// Read 读取源段对应区间的内容
//
// 源段已释放时返回空内容。
func (p *Proxy) Read() ([]byte, error) {
	if p.destroyed {
		return nil, segment.ErrDestroyed
	}
	src := p.shared.src
	if src == nil {
		return nil, nil
	}
	buf, err := src.Read()
	if err != nil {
		return nil, err
	}
	end := p.off + p.n
	if end > int64(len(buf)) {
		end = int64(len(buf))
	}
	if p.off >= end {
		return nil, nil
	}
	return buf[p.off:end], nil
}

// Split 在 n 处分割，两段共享源段
func (p *Proxy) Split(n int64) (segment.Segment, error) {
	if p.destroyed {
		return nil, segment.ErrDestroyed
	}
	if n < 0 || n > p.n {
		return nil, segment.ErrOutOfRange
	}
	p.shared.refs.Add(1)
	tail := &Proxy{shared: p.shared, off: p.off + n, n: p.n - n}
	p.n = n
	return tail, nil
}

// Destroy 释放对源段的引用
func (p *Proxy) Destroy() error {
	if p.destroyed {
		return nil
	}
	p.destroyed = true
	p.shared.release(nil)
	return nil
}

// releaseLocked 在中继的临界区内释放
func (p *Proxy) releaseLocked(r *Relay) {
	if p.destroyed {
		return
	}
	p.destroyed = true
	p.shared.release(r)
}

// release 最后一个引用释放时把源段交回中继
func (sh *proxyShared) release(locked *Relay) {
	if sh.refs.Add(-1) != 0 {
		return
	}
	src := sh.src
	sh.src = nil

	if locked != nil {
		locked.emittedLocked(src)
		return
	}
	r, ok := sh.reg.Lookup(sh.key)
	if !ok {
		logger.Warn("proxy released after relay destroyed", "key", sh.key, "src", segment.Describe(src))
		if err := src.Destroy(); err != nil {
			logger.Debug("destroy orphaned source failed", "err", err)
		}
		return
	}
	r.emitted(src)
}
