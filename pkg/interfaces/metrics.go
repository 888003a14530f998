package interfaces

// RelayMetrics 中继指标上报接口
//
// 所有方法都可能在中继的临界区内被调用，实现必须快速返回且不能回调中继。
type RelayMetrics interface {
	// BytesSent 记录被接纳的字节数
	BytesSent(tag string, n int64)

	// BytesReceived 记录交给消费者的字节数
	BytesReceived(tag string, n int64)

	// FileHandedOff 记录一次文件交接
	FileHandedOff(tag string)

	// SegmentsPurged 记录在生产者侧销毁的段数
	SegmentsPurged(tag string, n int)

	// LiveProxies 调整存活代理段数
	LiveProxies(tag string, delta int)

	// Buffered 调整缓冲字节数
	Buffered(tag string, delta int64)

	// Wait 记录一次等待及其结果
	Wait(op, result string)
}
