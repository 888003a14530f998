package locking

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-segrelay/pkg/interfaces"
)

// Option Mutex 选项
type Option func(*Mutex)

// WithClock 指定计时使用的时钟
func WithClock(c clock.Clock) Option {
	return func(m *Mutex) {
		if c != nil {
			m.clock = c
		}
	}
}

// Mutex 互斥锁加广播条件
type Mutex struct {
	mu    sync.Mutex
	cond  chan struct{}
	clock clock.Clock
}

var _ interfaces.LockStrategy = (*Mutex)(nil)

// NewMutex 创建互斥锁策略
func NewMutex(opts ...Option) *Mutex {
	m := &Mutex{
		cond:  make(chan struct{}),
		clock: clock.New(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Enter 获取锁
func (m *Mutex) Enter() interfaces.Token {
	m.mu.Lock()
	return held
}

// Leave 释放锁
func (m *Mutex) Leave(tok interfaces.Token) {
	if tok != nil && tok.Held() {
		m.mu.Unlock()
	}
}

// Broadcast 唤醒所有等待者，调用方必须持有锁
func (m *Mutex) Broadcast() {
	close(m.cond)
	m.cond = make(chan struct{})
}

// Wait 释放锁等待广播、超时或 ctx 结束，返回前重新获取锁
func (m *Mutex) Wait(ctx context.Context, tok interfaces.Token, timeout time.Duration) error {
	if tok == nil || !tok.Held() {
		return interfaces.ErrWaitUnsupported
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	ch := m.cond
	m.mu.Unlock()

	var expired <-chan time.Time
	if timeout > 0 {
		t := m.clock.Timer(timeout)
		defer t.Stop()
		expired = t.C
	}

	var err error
	select {
	case <-ch:
	case <-expired:
		err = interfaces.ErrWaitTimeout
	case <-ctx.Done():
		err = ctx.Err()
	}

	m.mu.Lock()
	return err
}

// Clock 返回计时使用的时钟
func (m *Mutex) Clock() clock.Clock {
	return m.clock
}
