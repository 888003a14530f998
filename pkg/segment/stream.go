package segment

import (
	"errors"
	"io"
)

// ChunkSize 不定长流每次读取的默认字节数
const ChunkSize = 8000

// Stream 由 io.Reader 支撑的数据段
//
// 长度已知时 Read 一次读满；长度未知时每次最多读取 chunk 字节，
// 如果流未结束，剩余部分通过 Rest 以新的 Stream 返回。
// 读取前存储类别为 StorageOpaque，只能在生产者侧读取。
//
// 同一个 reader 分割出的多个段必须按分割顺序读取：
// 后段读取前会先读取前段。
type Stream struct {
	r     io.Reader
	n     int64
	chunk int

	prev *Stream
	rest *Stream

	buf       []byte
	read      bool
	destroyed bool
}

// NewStream 创建流数据段，n 为 Indeterminate 时长度未知
func NewStream(r io.Reader, n int64) *Stream {
	return NewStreamChunked(r, n, ChunkSize)
}

// NewStreamChunked 使用指定块大小创建流数据段
func NewStreamChunked(r io.Reader, n int64, chunk int) *Stream {
	if chunk <= 0 {
		chunk = ChunkSize
	}
	return &Stream{r: r, n: n, chunk: chunk}
}

// Kind 返回 KindData
func (s *Stream) Kind() Kind { return KindData }

// Storage 读取前为 StorageOpaque，读取后为 StorageHeap
func (s *Stream) Storage() Storage {
	if s.read {
		return StorageHeap
	}
	return StorageOpaque
}

// Len 返回长度，未读取且长度未知时返回 Indeterminate
func (s *Stream) Len() int64 {
	if s.read {
		return int64(len(s.buf))
	}
	return s.n
}

// Read 从底层 reader 读取内容
func (s *Stream) Read() ([]byte, error) {
	if s.destroyed {
		return nil, ErrDestroyed
	}
	if s.read {
		return s.buf, nil
	}
	if p := s.prev; p != nil {
		if !p.read {
			if _, err := p.Read(); err != nil {
				return nil, err
			}
		}
		s.prev = nil
	}

	if s.n >= 0 {
		buf := make([]byte, s.n)
		if _, err := io.ReadFull(s.r, buf); err != nil {
			return nil, err
		}
		s.buf, s.read = buf, true
		return s.buf, nil
	}

	buf := make([]byte, s.chunk)
	m, err := io.ReadFull(s.r, buf)
	switch {
	case err == nil:
		s.rest = &Stream{r: s.r, n: Indeterminate, chunk: s.chunk}
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		// 流已结束，无剩余段
	default:
		return nil, err
	}
	s.buf, s.read = buf[:m], true
	return s.buf, nil
}

// Rest 返回读取后产生的剩余段（只返回一次）
func (s *Stream) Rest() Segment {
	if s.rest == nil {
		return nil
	}
	rest := s.rest
	s.rest = nil
	return rest
}

// Split 在 n 处分割
//
// 未读取的定长流不读取内容，剩余段从 reader 的后续位置开始。
// 未读取的不定长流先读取再分割。
func (s *Stream) Split(n int64) (Segment, error) {
	if s.destroyed {
		return nil, ErrDestroyed
	}
	if !s.read && s.n < 0 {
		if _, err := s.Read(); err != nil {
			return nil, err
		}
	}
	if n < 0 || n > s.Len() {
		return nil, ErrOutOfRange
	}
	if s.read {
		tail := &Stream{buf: s.buf[n:], read: true, chunk: s.chunk}
		s.buf = s.buf[:n:n]
		return tail, nil
	}
	tail := &Stream{r: s.r, n: s.n - n, chunk: s.chunk, prev: s}
	s.n = n
	return tail, nil
}

// Destroy 释放缓冲区，不关闭底层 reader
func (s *Stream) Destroy() error {
	s.buf = nil
	s.prev = nil
	s.rest = nil
	s.destroyed = true
	return nil
}
