package segrelay

import (
	"github.com/dep2p/go-segrelay/internal/core/relay"
	"github.com/dep2p/go-segrelay/internal/core/scope"
)

// 公共错误定义
var (
	// ────────────────────────────────────────────────────────────────────────
	// 中继错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrAborted 中继已终止
	ErrAborted = relay.ErrAborted

	// ErrClosedStream 生产者声明结束后仍发送数据
	ErrClosedStream = relay.ErrClosedStream

	// ErrTimeout 阻塞等待超时
	ErrTimeout = relay.ErrTimeout

	// ErrWouldBlock 非阻塞调用无法继续
	ErrWouldBlock = relay.ErrWouldBlock

	// ErrEOF 所有数据已消费且流结束已确认
	ErrEOF = relay.ErrEOF

	// ErrUnsupported 无法处理的段
	ErrUnsupported = relay.ErrUnsupported

	// ErrResourceExhausted 内存预算不足
	ErrResourceExhausted = relay.ErrResourceExhausted

	// ErrProxiesOutstanding 仍有存活的代理段
	ErrProxiesOutstanding = relay.ErrProxiesOutstanding

	// ────────────────────────────────────────────────────────────────────────
	// 连接错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrConnClosed 连接已关闭
	ErrConnClosed = scope.ErrScopeClosed
)
