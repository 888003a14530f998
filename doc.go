// Package segrelay 提供跨 goroutine 的段中继
//
// 一个 Conn 代表一个连接：其上的所有中继共享同一个锁策略、
// 同一个内存预算和同一个生命周期作用域。每个中继连接一个生产者
// goroutine 和一个消费者 goroutine，按顺序传递段，数据段以零复制的
// 代理段交给消费者。
//
// # 快速开始
//
//	conn, err := segrelay.New(
//	    segrelay.WithMaxBufferSize(32 * 1024),
//	    segrelay.WithTimeout(5 * time.Second),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conn.Close()
//
//	r, err := conn.NewRelay(1, "stream-1")
//
//	// 生产者
//	in := segment.NewBrigade(segment.NewHeapString("hello"))
//	err = r.Send(ctx, in, segrelay.Blocking)
//	r.Close()
//
//	// 消费者
//	out := segment.NewBrigade()
//	err = r.Receive(ctx, out, segrelay.Blocking, 0)
//	data, _ := out.Bytes()
//	out.Destroy()
//
// # 段的生命周期
//
// 消费者必须销毁收到的段：代理段销毁后源段才会回到生产者侧释放。
// 连接关闭时仍存活的中继被销毁。
//
// # 日志
//
// 各组件通过 log/slog 输出日志。WithEnvLogging 按
// SEGRELAY_LOG_LEVEL / SEGRELAY_LOG_FORMAT 安装默认 handler。
package segrelay
