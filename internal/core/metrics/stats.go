package metrics

// Stats 中继指标快照
type Stats struct {
	Sent           int64   // 累计接纳字节
	Received       int64   // 累计交给消费者的字节
	FilesHandedOff int64   // 累计文件交接数
	Purged         int64   // 累计在生产者侧销毁的段数
	LiveProxies    int64   // 当前存活代理段数
	Buffered       int64   // 当前缓冲字节
	SendRate       float64 // 接纳速率（字节/秒）
	RecvRate       float64 // 交付速率（字节/秒）
}
