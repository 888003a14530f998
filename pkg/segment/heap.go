package segment

// Heap 持久内存中的数据段
//
// 构造后 Heap 拥有缓冲区，调用方不得再修改它。
type Heap struct {
	buf       []byte
	destroyed bool
}

// NewHeap 创建持久数据段
func NewHeap(b []byte) *Heap {
	return &Heap{buf: b}
}

// NewHeapString 用字符串内容创建持久数据段
func NewHeapString(s string) *Heap {
	return &Heap{buf: []byte(s)}
}

// Kind 返回 KindData
func (h *Heap) Kind() Kind { return KindData }

// Storage 返回 StorageHeap
func (h *Heap) Storage() Storage { return StorageHeap }

// Len 返回长度
func (h *Heap) Len() int64 { return int64(len(h.buf)) }

// Read 返回缓冲区（不复制）
func (h *Heap) Read() ([]byte, error) {
	if h.destroyed {
		return nil, ErrDestroyed
	}
	return h.buf, nil
}

// Split 在 n 处分割，两段共享底层数组
func (h *Heap) Split(n int64) (Segment, error) {
	if n < 0 || n > int64(len(h.buf)) {
		return nil, ErrOutOfRange
	}
	tail := &Heap{buf: h.buf[n:]}
	h.buf = h.buf[:n:n]
	return tail, nil
}

// Destroy 释放缓冲区引用
func (h *Heap) Destroy() error {
	h.buf = nil
	h.destroyed = true
	return nil
}
