// Package relay 实现跨 goroutine 的段中继
//
// 测试辅助实现
package relay

import (
	"errors"
	"sync"

	"github.com/dep2p/go-segrelay/pkg/interfaces"
	"github.com/dep2p/go-segrelay/pkg/segment"
)

// ============================================================================
//                              Mock Metrics
// ============================================================================

// MockMetrics 记录上报的指标（用于测试）
type MockMetrics struct {
	mu sync.Mutex

	Sent          int64
	Received      int64
	Files         int
	Purged        int
	Live          int
	BufferedBytes int64

	// Waits 按 "op/result" 记录等待次数
	Waits map[string]int
}

var _ interfaces.RelayMetrics = (*MockMetrics)(nil)

// NewMockMetrics 创建模拟指标
func NewMockMetrics() *MockMetrics {
	return &MockMetrics{Waits: make(map[string]int)}
}

// BytesSent 记录接纳字节
func (m *MockMetrics) BytesSent(_ string, n int64) {
	m.mu.Lock()
	m.Sent += n
	m.mu.Unlock()
}

// BytesReceived 记录交付字节
func (m *MockMetrics) BytesReceived(_ string, n int64) {
	m.mu.Lock()
	m.Received += n
	m.mu.Unlock()
}

// FileHandedOff 记录文件交接
func (m *MockMetrics) FileHandedOff(string) {
	m.mu.Lock()
	m.Files++
	m.mu.Unlock()
}

// SegmentsPurged 记录销毁段数
func (m *MockMetrics) SegmentsPurged(_ string, n int) {
	m.mu.Lock()
	m.Purged += n
	m.mu.Unlock()
}

// LiveProxies 调整存活代理段数
func (m *MockMetrics) LiveProxies(_ string, delta int) {
	m.mu.Lock()
	m.Live += delta
	m.mu.Unlock()
}

// Buffered 调整缓冲字节数
func (m *MockMetrics) Buffered(_ string, delta int64) {
	m.mu.Lock()
	m.BufferedBytes += delta
	m.mu.Unlock()
}

// Wait 记录等待
func (m *MockMetrics) Wait(op, result string) {
	m.mu.Lock()
	m.Waits[op+"/"+result]++
	m.mu.Unlock()
}

// WaitCount 返回某种等待结果的次数
func (m *MockMetrics) WaitCount(op, result string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Waits[op+"/"+result]
}

// Snapshot 返回 Sent、Received、Live、BufferedBytes 的当前值
func (m *MockMetrics) Snapshot() (sent, received int64, live int, buffered int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Sent, m.Received, m.Live, m.BufferedBytes
}

// ============================================================================
//                              Mock Segment
// ============================================================================

// ErrMockSegment 模拟段读取失败
var ErrMockSegment = errors.New("mock segment failure")

// MockSegment 可配置存储类别的数据段（用于测试）
//
// 不实现 Relocator，StorageTransient 的 MockSegment 会在生产者侧读取。
type MockSegment struct {
	Data     []byte
	Store    segment.Storage
	FailOn   bool
	Reads    int
	Destroys int
}

var _ segment.Segment = (*MockSegment)(nil)

// NewMockSegment 创建模拟段
func NewMockSegment(data string, store segment.Storage) *MockSegment {
	return &MockSegment{Data: []byte(data), Store: store}
}

// Kind 返回 KindData
func (m *MockSegment) Kind() segment.Kind { return segment.KindData }

// Storage 返回配置的存储类别
func (m *MockSegment) Storage() segment.Storage { return m.Store }

// Len 返回长度
func (m *MockSegment) Len() int64 { return int64(len(m.Data)) }

// Read 返回内容，FailOn 时返回 ErrMockSegment
func (m *MockSegment) Read() ([]byte, error) {
	m.Reads++
	if m.FailOn {
		return nil, ErrMockSegment
	}
	return m.Data, nil
}

// Split 在 n 处分割
func (m *MockSegment) Split(n int64) (segment.Segment, error) {
	if n < 0 || n > m.Len() {
		return nil, segment.ErrOutOfRange
	}
	tail := &MockSegment{Data: m.Data[n:], Store: m.Store, FailOn: m.FailOn}
	m.Data = m.Data[:n:n]
	return tail, nil
}

// Destroy 记录销毁次数
func (m *MockSegment) Destroy() error {
	m.Destroys++
	return nil
}
