// Package metrics 提供中继指标收集
//
// RelayCollector 把中继事件同时记录到 Prometheus 收集器与进程内计数器：
//   - segrelay_bytes_sent_total / segrelay_bytes_received_total（按 tag）
//   - segrelay_files_handed_off_total、segrelay_purged_segments_total（按 tag）
//   - segrelay_live_proxies、segrelay_buffered_bytes（按 tag 的 Gauge）
//   - segrelay_waits_total（按 op 与 result）
//
// 进程内计数器通过 Snapshot 读取，收发速率由 RateMeter 按 60 秒窗口计算。
//
// # 快速开始
//
//	reg := prometheus.NewRegistry()
//	c := metrics.NewRelayCollector(reg, "segrelay", clock.New())
//	c.BytesSent("h2", 1024)
//	fmt.Println(c.Snapshot().Sent)
//
// 关闭指标时 Fx 模块提供 Noop，所有方法为空操作。
//
// # 并发安全
//
// 所有方法都是并发安全的，且不会阻塞，可以在中继的临界区内调用。
package metrics
