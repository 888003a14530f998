package segment

import "fmt"

// Indeterminate 表示长度未知，需要读取后才能确定
const Indeterminate int64 = -1

// Kind 段类型
type Kind int

const (
	// KindData 字节数据
	KindData Kind = iota
	// KindEOS 流结束标记
	KindEOS
	// KindFlush 刷新标记
	KindFlush
	// KindMeta 其他元数据
	KindMeta
	// KindFile 文件区间
	KindFile
)

// String 返回类型名
func (k Kind) String() string {
	switch k {
	case KindData:
		return "data"
	case KindEOS:
		return "eos"
	case KindFlush:
		return "flush"
	case KindMeta:
		return "meta"
	case KindFile:
		return "file"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// IsMetadata 元数据不占缓冲空间
func (k Kind) IsMetadata() bool {
	return k == KindEOS || k == KindFlush || k == KindMeta
}

// Storage 段的底层存储类别，决定跨 goroutine 交接前需要做什么
type Storage int

const (
	// StorageNone 无数据（元数据）
	StorageNone Storage = iota
	// StorageHeap 持久内存，可直接跨 goroutine 读取
	StorageHeap
	// StorageTransient 仅在当前调用期间有效的内存，必须复制
	StorageTransient
	// StorageOpaque 未知来源，必须在生产者侧读取
	StorageOpaque
	// StorageFile 文件句柄，必须解绑
	StorageFile
)

// String 返回存储类别名
func (s Storage) String() string {
	switch s {
	case StorageNone:
		return "none"
	case StorageHeap:
		return "heap"
	case StorageTransient:
		return "transient"
	case StorageOpaque:
		return "opaque"
	case StorageFile:
		return "file"
	default:
		return fmt.Sprintf("storage(%d)", int(s))
	}
}

// Segment 传输的原子单元
//
// 实现必须是可比较的指针类型：中继按身份在集合中跟踪段。
type Segment interface {
	// Kind 返回段类型
	Kind() Kind

	// Storage 返回底层存储类别
	Storage() Storage

	// Len 返回字节长度，未知时返回 Indeterminate
	Len() int64

	// Read 读取段内容
	//
	// 对长度未知的段，Read 会确定长度；可能产生剩余段（见 Continuer）。
	Read() ([]byte, error)

	// Split 保留前 n 字节，返回剩余部分组成的新段
	Split(n int64) (Segment, error)

	// Destroy 释放段持有的资源
	Destroy() error
}

// Relocator 由可以迁移到持久存储的段实现
type Relocator interface {
	Relocate() error
}

// Continuer 由读取后可能产生剩余段的段实现
//
// Rest 只返回一次剩余段，之后返回 nil。
type Continuer interface {
	Rest() Segment
}

// Describe 返回用于日志的简短描述
func Describe(s Segment) string {
	if s == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s/%s(%d)", s.Kind(), s.Storage(), s.Len())
}
