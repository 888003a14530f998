package relay

import "errors"

// Sentinel errors
var (
	// ErrAborted 中继已终止
	ErrAborted = errors.New("relay: aborted")

	// ErrClosedStream 生产者声明结束后仍发送数据
	ErrClosedStream = errors.New("relay: data sent after close")

	// ErrTimeout 阻塞等待超时
	ErrTimeout = errors.New("relay: timeout")

	// ErrWouldBlock 非阻塞调用无法继续
	ErrWouldBlock = errors.New("relay: would block")

	// ErrEOF 所有数据已消费且流结束已确认
	ErrEOF = errors.New("relay: end of stream")

	// ErrUnsupported 无法处理的段
	ErrUnsupported = errors.New("relay: unsupported segment")

	// ErrResourceExhausted 复制或读取数据时内存预算不足
	ErrResourceExhausted = errors.New("relay: resource exhausted")

	// ErrProxiesOutstanding 仍有存活的代理段
	ErrProxiesOutstanding = errors.New("relay: proxies outstanding")
)
