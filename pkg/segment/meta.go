package segment

// marker 元数据段的公共实现
//
// 带一个字段保证每个实例地址唯一，段在集合中按指针区分。
type marker struct {
	destroyed bool
}

func (m *marker) Storage() Storage { return StorageNone }

func (m *marker) Len() int64 { return 0 }

func (m *marker) Read() ([]byte, error) { return nil, nil }

func (m *marker) Split(int64) (Segment, error) { return nil, ErrUnsupported }

func (m *marker) Destroy() error {
	m.destroyed = true
	return nil
}

// EOS 流结束标记
type EOS struct{ marker }

// NewEOS 创建流结束标记
func NewEOS() *EOS { return &EOS{} }

// Kind 返回 KindEOS
func (*EOS) Kind() Kind { return KindEOS }

// Flush 刷新标记
type Flush struct{ marker }

// NewFlush 创建刷新标记
func NewFlush() *Flush { return &Flush{} }

// Kind 返回 KindFlush
func (*Flush) Kind() Kind { return KindFlush }

// Meta 其他元数据，中继不向消费者转发
type Meta struct {
	marker
	Value any
}

// NewMeta 创建元数据段
func NewMeta(v any) *Meta { return &Meta{Value: v} }

// Kind 返回 KindMeta
func (*Meta) Kind() Kind { return KindMeta }
