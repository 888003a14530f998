package scope

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"

	"github.com/dep2p/go-segrelay/pkg/interfaces"
	"github.com/dep2p/go-segrelay/pkg/lib/log"
)

var logger = log.Logger("core/scope")

// TeardownFunc 销毁钩子
type TeardownFunc func() error

type hook struct {
	key any
	fn  TeardownFunc
}

// Scope 分配作用域
type Scope struct {
	name  string
	limit int64

	memory atomic.Int64
	closed atomic.Bool

	mu    sync.Mutex
	hooks []hook

	closeOnce sync.Once
	closeErr  error
}

var _ interfaces.MemoryManager = (*Scope)(nil)

// New 创建作用域，limit 为 0 时内存不受限
func New(name string, limit int64) *Scope {
	return &Scope{name: name, limit: limit}
}

// Name 返回作用域名
func (s *Scope) Name() string {
	return s.name
}

// OnTeardown 注册销毁钩子，key 用于之后撤销
//
// 作用域已关闭时立即返回 ErrScopeClosed，钩子不会执行。
func (s *Scope) OnTeardown(key any, fn TeardownFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return ErrScopeClosed
	}
	s.hooks = append(s.hooks, hook{key: key, fn: fn})
	return nil
}

// Kill 撤销 key 对应的钩子，返回是否找到
func (s *Scope) Kill(key any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.hooks) - 1; i >= 0; i-- {
		if s.hooks[i].key == key {
			s.hooks = append(s.hooks[:i], s.hooks[i+1:]...)
			return true
		}
	}
	return false
}

// Close 按注册的逆序执行所有钩子，只执行一次
func (s *Scope) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed.Store(true)
		hooks := s.hooks
		s.hooks = nil
		s.mu.Unlock()

		var err error
		for i := len(hooks) - 1; i >= 0; i-- {
			if herr := hooks[i].fn(); herr != nil {
				err = multierr.Append(err, fmt.Errorf("teardown %v: %w", hooks[i].key, herr))
			}
		}
		if err != nil {
			logger.Warn("scope teardown finished with errors",
				"scope", s.name,
				"errors", len(multierr.Errors(err)))
		} else {
			logger.Debug("scope closed", "scope", s.name, "hooks", len(hooks))
		}
		s.closeErr = err
	})
	return s.closeErr
}

// Closed 是否已关闭
func (s *Scope) Closed() bool {
	return s.closed.Load()
}

// ReserveMemory 预留内存
func (s *Scope) ReserveMemory(size int, prio uint8) error {
	if s.closed.Load() {
		return ErrScopeClosed
	}
	if size <= 0 {
		return nil
	}

	for {
		current := s.memory.Load()
		if err := checkMemoryLimit(current, int64(size), s.limit, prio); err != nil {
			return fmt.Errorf("reserve %d bytes in %s (used %d, limit %d): %w",
				size, s.name, current, s.limit, err)
		}
		if s.memory.CompareAndSwap(current, current+int64(size)) {
			return nil
		}
	}
}

// ReleaseMemory 释放内存，计数不会低于 0
func (s *Scope) ReleaseMemory(size int) {
	if size <= 0 {
		return
	}
	for {
		current := s.memory.Load()
		newVal := current - int64(size)
		if newVal < 0 {
			newVal = 0
		}
		if s.memory.CompareAndSwap(current, newVal) {
			return
		}
	}
}

// Stat 返回当前统计
func (s *Scope) Stat() interfaces.ScopeStat {
	s.mu.Lock()
	n := len(s.hooks)
	s.mu.Unlock()
	return interfaces.ScopeStat{
		Memory: s.memory.Load(),
		Hooks:  n,
	}
}
