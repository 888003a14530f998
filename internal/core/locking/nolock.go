package locking

import (
	"context"
	"time"

	"github.com/dep2p/go-segrelay/pkg/interfaces"
)

// token 锁凭证
type token bool

// Held 是否持有锁
func (t token) Held() bool { return bool(t) }

const (
	held   token = true
	unheld token = false
)

// noLock 不加锁的策略
type noLock struct{}

// NoLock 返回不加锁的策略
//
// 调用方负责生产者与消费者调用之间的串行化，中继在此策略下从不阻塞。
func NoLock() interfaces.LockStrategy {
	return noLock{}
}

func (noLock) Enter() interfaces.Token { return unheld }

func (noLock) Leave(interfaces.Token) {}

func (noLock) Broadcast() {}

func (noLock) Wait(context.Context, interfaces.Token, time.Duration) error {
	return interfaces.ErrWaitUnsupported
}
