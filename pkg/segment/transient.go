package segment

// Transient 借用调用方内存的数据段
//
// 调用返回后缓冲区可能被复用，跨 goroutine 交接前必须 Relocate。
type Transient struct {
	buf       []byte
	relocated bool
	destroyed bool
}

// NewTransient 创建借用内存的数据段
func NewTransient(b []byte) *Transient {
	return &Transient{buf: b}
}

// Kind 返回 KindData
func (t *Transient) Kind() Kind { return KindData }

// Storage 迁移前为 StorageTransient，迁移后为 StorageHeap
func (t *Transient) Storage() Storage {
	if t.relocated {
		return StorageHeap
	}
	return StorageTransient
}

// Len 返回长度
func (t *Transient) Len() int64 { return int64(len(t.buf)) }

// Read 返回缓冲区
func (t *Transient) Read() ([]byte, error) {
	if t.destroyed {
		return nil, ErrDestroyed
	}
	return t.buf, nil
}

// Relocate 把内容复制到自有内存
func (t *Transient) Relocate() error {
	if t.destroyed {
		return ErrDestroyed
	}
	if t.relocated {
		return nil
	}
	cp := make([]byte, len(t.buf))
	copy(cp, t.buf)
	t.buf = cp
	t.relocated = true
	return nil
}

// Split 在 n 处分割，剩余段继承迁移状态
func (t *Transient) Split(n int64) (Segment, error) {
	if n < 0 || n > int64(len(t.buf)) {
		return nil, ErrOutOfRange
	}
	tail := &Transient{buf: t.buf[n:], relocated: t.relocated}
	t.buf = t.buf[:n:n]
	return tail, nil
}

// Destroy 释放缓冲区引用
func (t *Transient) Destroy() error {
	t.buf = nil
	t.destroyed = true
	return nil
}
