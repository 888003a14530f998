package segment

import (
	"bytes"

	"github.com/emirpasic/gods/lists/doublylinkedlist"
	"go.uber.org/multierr"
)

// Brigade 段的有序序列
//
// 零值可直接使用。Brigade 不是并发安全的，只由一个 goroutine 使用。
type Brigade struct {
	list *doublylinkedlist.List
}

// NewBrigade 创建包含给定段的序列
func NewBrigade(segs ...Segment) *Brigade {
	b := &Brigade{}
	b.PushBack(segs...)
	return b
}

func (b *Brigade) l() *doublylinkedlist.List {
	if b.list == nil {
		b.list = doublylinkedlist.New()
	}
	return b.list
}

// PushBack 追加到末尾
func (b *Brigade) PushBack(segs ...Segment) {
	for _, s := range segs {
		b.l().Add(s)
	}
}

// PushFront 插入到开头
func (b *Brigade) PushFront(s Segment) {
	b.l().Prepend(s)
}

// InsertAt 插入到位置 i，i 超出长度时追加到末尾
func (b *Brigade) InsertAt(i int, s Segment) {
	l := b.l()
	switch {
	case i <= 0:
		l.Prepend(s)
	case i >= l.Size():
		l.Add(s)
	default:
		vals := l.Values()
		l.Clear()
		l.Add(vals[:i]...)
		l.Add(s)
		l.Add(vals[i:]...)
	}
}

// Front 返回第一个段
func (b *Brigade) Front() (Segment, bool) {
	return b.Get(0)
}

// Get 返回位置 i 的段
func (b *Brigade) Get(i int) (Segment, bool) {
	v, ok := b.l().Get(i)
	if !ok {
		return nil, false
	}
	return v.(Segment), true
}

// PopFront 移除并返回第一个段
func (b *Brigade) PopFront() (Segment, bool) {
	s, ok := b.Front()
	if ok {
		b.list.Remove(0)
	}
	return s, ok
}

// Splice 移除并返回从位置 from 开始的所有段
func (b *Brigade) Splice(from int) []Segment {
	l := b.l()
	if from < 0 {
		from = 0
	}
	if from >= l.Size() {
		return nil
	}
	vals := l.Values()
	l.Clear()
	l.Add(vals[:from]...)
	out := make([]Segment, 0, len(vals)-from)
	for _, v := range vals[from:] {
		out = append(out, v.(Segment))
	}
	return out
}

// Len 返回段数
func (b *Brigade) Len() int {
	return b.l().Size()
}

// Empty 是否为空
func (b *Brigade) Empty() bool {
	return b.l().Empty()
}

// Segments 按顺序返回所有段
func (b *Brigade) Segments() []Segment {
	vals := b.l().Values()
	out := make([]Segment, len(vals))
	for i, v := range vals {
		out[i] = v.(Segment)
	}
	return out
}

// Length 返回所有定长段的字节总数
func (b *Brigade) Length() int64 {
	var n int64
	for _, s := range b.Segments() {
		if l := s.Len(); l > 0 {
			n += l
		}
	}
	return n
}

// HasEOS 是否包含流结束标记
func (b *Brigade) HasEOS() bool {
	for _, s := range b.Segments() {
		if s.Kind() == KindEOS {
			return true
		}
	}
	return false
}

// Bytes 读取并拼接所有数据段与文件段
func (b *Brigade) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	for _, s := range b.Segments() {
		if s.Kind().IsMetadata() {
			continue
		}
		p, err := s.Read()
		if err != nil {
			return nil, err
		}
		buf.Write(p)
	}
	return buf.Bytes(), nil
}

// Destroy 销毁所有段并清空序列
func (b *Brigade) Destroy() error {
	var err error
	for _, s := range b.Segments() {
		err = multierr.Append(err, s.Destroy())
	}
	b.l().Clear()
	return err
}
