package segment

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
)

// fileRef 文件句柄的引用计数，由同一文件分割出的段共享
type fileRef struct {
	f    *os.File
	refs atomic.Int32
}

func newFileRef(f *os.File) *fileRef {
	r := &fileRef{f: f}
	r.refs.Store(1)
	return r
}

func (r *fileRef) retain() *fileRef {
	r.refs.Add(1)
	return r
}

func (r *fileRef) release() error {
	if r.refs.Add(-1) == 0 {
		return r.f.Close()
	}
	return nil
}

// File 文件区间段：句柄、偏移、长度
//
// 构造时借用生产者的句柄，销毁时不关闭它。Detach 复制描述符，
// 之后段拥有自己的句柄，最后一个共享该句柄的段销毁时关闭。
type File struct {
	origin *os.File
	ref    *fileRef
	off    int64
	n      int64

	destroyed bool
}

// NewFile 创建文件区间段
func NewFile(f *os.File, off, n int64) *File {
	return &File{origin: f, off: off, n: n}
}

// Kind 返回 KindFile
func (f *File) Kind() Kind { return KindFile }

// Storage 返回 StorageFile
func (f *File) Storage() Storage { return StorageFile }

// Len 返回区间长度
func (f *File) Len() int64 { return f.n }

// Offset 返回区间起始偏移
func (f *File) Offset() int64 { return f.off }

// Origin 返回构造时传入的句柄
func (f *File) Origin() *os.File { return f.origin }

// Handle 返回当前使用的句柄
func (f *File) Handle() *os.File {
	if f.ref != nil {
		return f.ref.f
	}
	return f.origin
}

// Detached 是否已与生产者的句柄解绑
func (f *File) Detached() bool { return f.ref != nil }

// Detach 复制描述符，使段不再依赖生产者的句柄
func (f *File) Detach() error {
	if f.destroyed {
		return ErrDestroyed
	}
	if f.ref != nil {
		return nil
	}
	nf, err := dupFile(f.origin)
	if err != nil {
		return fmt.Errorf("detach file %s: %w", f.origin.Name(), err)
	}
	f.ref = newFileRef(nf)
	return nil
}

// Handoff 为消费者复制一份独立的文件区间段
//
// 返回的段拥有自己的描述符，与源段的生命周期无关。
func (f *File) Handoff() (*File, error) {
	if f.destroyed {
		return nil, ErrDestroyed
	}
	nf, err := dupFile(f.Handle())
	if err != nil {
		return nil, fmt.Errorf("handoff file %s: %w", f.Handle().Name(), err)
	}
	return &File{origin: nf, ref: newFileRef(nf), off: f.off, n: f.n}, nil
}

// Read 读取区间内容
func (f *File) Read() ([]byte, error) {
	if f.destroyed {
		return nil, ErrDestroyed
	}
	buf := make([]byte, f.n)
	m, err := f.Handle().ReadAt(buf, f.off)
	if err == io.EOF && int64(m) == f.n {
		err = nil
	}
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return buf, nil
}

// Split 在 n 处分割，两段共享句柄
func (f *File) Split(n int64) (Segment, error) {
	if f.destroyed {
		return nil, ErrDestroyed
	}
	if n < 0 || n > f.n {
		return nil, ErrOutOfRange
	}
	tail := &File{origin: f.origin, off: f.off + n, n: f.n - n}
	if f.ref != nil {
		tail.ref = f.ref.retain()
	}
	f.n = n
	return tail, nil
}

// Destroy 释放句柄引用，借用的句柄不关闭
func (f *File) Destroy() error {
	if f.destroyed {
		return nil
	}
	f.destroyed = true
	if f.ref != nil {
		return f.ref.release()
	}
	return nil
}
