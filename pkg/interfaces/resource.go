package interfaces

// MemoryManager 内存预算
//
// 中继复制或读取数据（迁移临时内存、读取不透明数据）时预留内存，
// 对应的段销毁时释放。
type MemoryManager interface {
	// ReserveMemory 预留内存
	ReserveMemory(size int, prio uint8) error

	// ReleaseMemory 释放内存
	ReleaseMemory(size int)
}

// ScopeStat 作用域资源统计
type ScopeStat struct {
	// Memory 当前预留的内存
	Memory int64

	// Hooks 已注册的销毁钩子数
	Hooks int
}

// 预留优先级常量
const (
	// ReservationPriorityLow 低优先级预留（可用内存 <= 40% 时失败）
	ReservationPriorityLow uint8 = 101

	// ReservationPriorityMedium 中优先级预留（可用内存 <= 60% 时失败）
	ReservationPriorityMedium uint8 = 152

	// ReservationPriorityHigh 高优先级预留（可用内存 <= 80% 时失败）
	ReservationPriorityHigh uint8 = 203

	// ReservationPriorityAlways 始终预留（只要有资源就成功）
	ReservationPriorityAlways uint8 = 255
)
