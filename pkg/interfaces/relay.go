package interfaces

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dep2p/go-segrelay/pkg/segment"
)

// ReadMode 阻塞模式
type ReadMode int

const (
	// NonBlocking 无法继续时立即返回 WouldBlock
	NonBlocking ReadMode = iota

	// Blocking 等待直到可以继续
	//
	// 中继配置了超时或 ctx 带截止时间时为限时等待。
	Blocking
)

// String 返回模式名
func (m ReadMode) String() string {
	switch m {
	case NonBlocking:
		return "nonblocking"
	case Blocking:
		return "blocking"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ConsumedFunc 消费量回调
//
// 在生产者侧的调用结束时被调用，delta 为自上次回调以来
// 交给消费者的字节数。回调在临界区外执行。
type ConsumedFunc func(r Relay, delta int64)

// FileVetoFunc 文件交接否决回调
//
// 返回 false 时该句柄的文件段会在生产者侧读取并以内存段交接。
// 回调在临界区内执行，不能调用中继的方法。
type FileVetoFunc func(r Relay, f *os.File) bool

// RelayProducer 生产者侧视图
type RelayProducer interface {
	// Send 按顺序接纳 in 中的段，成功接纳的段从 in 中移除
	Send(ctx context.Context, in *segment.Brigade, mode ReadMode) error

	// Close 声明不再发送数据
	Close() error

	// Abort 终止中继，丢弃未读数据并唤醒所有等待者
	Abort()

	// Shutdown 丢弃未读数据并关闭，消费者仍可读到流结束
	Shutdown()

	// BufferSize 返回最大缓冲字节数（0 为不限）
	BufferSize() int64

	// SetBufferSize 设置最大缓冲字节数
	SetBufferSize(n int64)

	// Timeout 返回阻塞等待的超时
	Timeout() time.Duration

	// SetTimeout 设置阻塞等待的超时（0 为不限）
	SetTimeout(d time.Duration)

	// OnFileHandoff 注册文件交接否决回调，nil 表示全部允许
	OnFileHandoff(fn FileVetoFunc)
}

// RelayConsumer 消费者侧视图
type RelayConsumer interface {
	// Receive 向 out 追加段，maxBytes > 0 时限制数据字节数
	Receive(ctx context.Context, out *segment.Brigade, mode ReadMode, maxBytes int64) error

	// OnConsumed 注册消费量回调
	OnConsumed(fn ConsumedFunc)

	// BufferedLength 返回待接收数据字节数（不含文件段）
	BufferedLength() int64

	// MemoryUsed 返回待接收数据占用的内存（不含文件段）
	MemoryUsed() int64

	// IsEmpty 是否没有待接收的段
	IsEmpty() bool

	// WasReceived 是否已有数据交给消费者
	WasReceived() bool

	// FilesHandedOff 返回交接的文件段数
	FilesHandedOff() int
}

// Relay 跨 goroutine 的段中继
//
// 一个中继只有一个生产者和一个消费者。
type Relay interface {
	RelayProducer
	RelayConsumer

	// ID 返回中继编号
	ID() int

	// Tag 返回中继标签
	Tag() string

	// IsClosed 生产者是否已声明结束
	IsClosed() bool

	// LiveProxies 返回存活的代理段数
	LiveProxies() int

	// Reset 恢复为空的打开状态，要求没有存活的代理段
	Reset() error

	// Destroy 立即销毁中继持有的所有段
	Destroy() error

	// SetLockStrategy 替换锁策略，nil 表示不加锁
	SetLockStrategy(s LockStrategy)
}
