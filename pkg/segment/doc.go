// Package segment 定义中继传输的原子单元：段（Segment）
//
// 段是以下变体之一：
//   - 已知长度的数据（Heap 持久内存 / Transient 临时内存）
//   - 长度未知、读取后才确定的数据（Stream）
//   - 流结束标记（EOS）、刷新标记（Flush）、其他元数据（Meta）
//   - 文件区间（File：句柄、偏移、长度）
//
// 每个段都支持读取、分割与销毁；可选能力通过 Relocator（迁移到持久存储）
// 与 Continuer（不定长读取后产生的剩余段）接口暴露。
//
// # 线程亲和
//
// 段的读取与销毁默认只能在创建它的生产者 goroutine 上进行。
// Heap 数据可以安全地被其他 goroutine 读取；Transient 必须先 Relocate；
// File 必须先 Detach，把句柄与生产者的作用域解绑。
//
// # 有序序列
//
// Brigade 是段的有序序列，用作发送输入与接收输出：
//
//	in := segment.NewBrigade(segment.NewHeap([]byte("hello")), segment.NewEOS())
//	for !in.Empty() {
//	    s, _ := in.PopFront()
//	    _ = s.Destroy()
//	}
package segment
