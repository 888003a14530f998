// Package interfaces 定义 go-segrelay 公共接口
//
// 本文件定义 LockStrategy 接口：临界区加一个条件变量。
package interfaces

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrWaitTimeout 等待超过了给定时长
	ErrWaitTimeout = errors.New("lock: wait timed out")

	// ErrWaitUnsupported 锁策略不支持等待（未持有锁或未配置锁）
	ErrWaitUnsupported = errors.New("lock: wait not supported")
)

// Token 进入临界区后得到的凭证
type Token interface {
	// Held 是否真正持有锁，未配置锁时为 false
	Held() bool
}

// LockStrategy 定义中继使用的锁策略
//
// 一个 LockStrategy 可以被同一连接下的多个中继共享，
// 任何一个中继上的 Broadcast 会唤醒所有等待者。
// 实现不要求可重入。
type LockStrategy interface {
	// Enter 进入临界区
	Enter() Token

	// Leave 离开临界区
	Leave(Token)

	// Broadcast 唤醒所有等待者，调用方必须处于临界区内
	Broadcast()

	// Wait 释放锁并等待唤醒，返回前重新获得锁
	//
	// timeout <= 0 表示不限时。超时返回 ErrWaitTimeout，
	// ctx 结束返回 ctx.Err()，无法等待时返回 ErrWaitUnsupported。
	Wait(ctx context.Context, tok Token, timeout time.Duration) error
}
