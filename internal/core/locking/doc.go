// Package locking 提供中继使用的锁策略实现
//
// # 策略
//
//   - NoLock：单 goroutine 使用，不加锁，不支持等待
//   - Mutex：互斥锁加广播条件，支持限时与 ctx 取消的等待
//
// 一个 Mutex 可以被同一连接下的多个中继共享，任一中继的广播会唤醒
// 所有等待者，等待者被唤醒后需要重新检查自己的条件。
//
// # 条件变量
//
// 条件用一个 channel 表示：Broadcast 关闭当前 channel 并换上新的，
// Wait 在释放锁之前取得当前 channel，因此不会丢失唤醒。
// 计时由 benbjohnson/clock 驱动，测试中可以使用 Mock 时钟。
package locking
