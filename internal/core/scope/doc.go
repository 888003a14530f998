// Package scope 提供中继的分配作用域
//
// 作用域是中继的生命周期所有者：
//
//   - 中继创建时在作用域上注册销毁钩子，作用域关闭时钩子按注册的逆序执行
//   - 中继显式销毁时撤销自己的钩子（Kill）
//   - 作用域同时提供内存预算，中继复制或读取数据时从中预留
//
// 一个连接对应一个作用域，Fx 停止时关闭。
//
// # 内存预算
//
// 预留按优先级计算阈值：limit * (prio+1) / 256，
// ReservationPriorityAlways 直接与 limit 比较。limit 为 0 表示不限制。
package scope
