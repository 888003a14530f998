package metrics

import (
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dep2p/go-segrelay/pkg/interfaces"
)

// RelayCollector 中继指标收集器
type RelayCollector struct {
	bytesSent     *prometheus.CounterVec
	bytesReceived *prometheus.CounterVec
	filesHanded   *prometheus.CounterVec
	purged        *prometheus.CounterVec
	liveProxies   *prometheus.GaugeVec
	buffered      *prometheus.GaugeVec
	waits         *prometheus.CounterVec

	// 进程内计数器
	totalSent     atomic.Int64
	totalReceived atomic.Int64
	totalFiles    atomic.Int64
	totalPurged   atomic.Int64
	curProxies    atomic.Int64
	curBuffered   atomic.Int64

	sendRate *RateMeter
	recvRate *RateMeter
}

var _ interfaces.RelayMetrics = (*RelayCollector)(nil)

// NewRelayCollector 创建收集器并注册到 reg
//
// reg 为 nil 时收集器不注册，只维护进程内计数器。
func NewRelayCollector(reg prometheus.Registerer, namespace string, c clock.Clock) *RelayCollector {
	f := promauto.With(reg)
	tag := []string{"tag"}
	return &RelayCollector{
		bytesSent: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_sent_total",
			Help:      "Bytes admitted into relays by producers.",
		}, tag),
		bytesReceived: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_received_total",
			Help:      "Bytes handed from relays to consumers.",
		}, tag),
		filesHanded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_handed_off_total",
			Help:      "File regions handed to consumers without copying.",
		}, tag),
		purged: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "purged_segments_total",
			Help:      "Segments destroyed on the producer side after release.",
		}, tag),
		liveProxies: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_proxies",
			Help:      "Proxy segments currently referenced by consumers.",
		}, tag),
		buffered: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "buffered_bytes",
			Help:      "Bytes admitted but not yet received.",
		}, tag),
		waits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "waits_total",
			Help:      "Blocking waits by operation and outcome.",
		}, []string{"op", "result"}),
		sendRate: NewRateMeter(c),
		recvRate: NewRateMeter(c),
	}
}

// BytesSent 记录被接纳的字节数
func (c *RelayCollector) BytesSent(tag string, n int64) {
	if n <= 0 {
		return
	}
	c.bytesSent.WithLabelValues(tag).Add(float64(n))
	c.totalSent.Add(n)
	c.sendRate.Add(n)
}

// BytesReceived 记录交给消费者的字节数
func (c *RelayCollector) BytesReceived(tag string, n int64) {
	if n <= 0 {
		return
	}
	c.bytesReceived.WithLabelValues(tag).Add(float64(n))
	c.totalReceived.Add(n)
	c.recvRate.Add(n)
}

// FileHandedOff 记录一次文件交接
func (c *RelayCollector) FileHandedOff(tag string) {
	c.filesHanded.WithLabelValues(tag).Inc()
	c.totalFiles.Add(1)
}

// SegmentsPurged 记录在生产者侧销毁的段数
func (c *RelayCollector) SegmentsPurged(tag string, n int) {
	if n <= 0 {
		return
	}
	c.purged.WithLabelValues(tag).Add(float64(n))
	c.totalPurged.Add(int64(n))
}

// LiveProxies 调整存活代理段数
func (c *RelayCollector) LiveProxies(tag string, delta int) {
	c.liveProxies.WithLabelValues(tag).Add(float64(delta))
	c.curProxies.Add(int64(delta))
}

// Buffered 调整缓冲字节数
func (c *RelayCollector) Buffered(tag string, delta int64) {
	c.buffered.WithLabelValues(tag).Add(float64(delta))
	c.curBuffered.Add(delta)
}

// Wait 记录一次等待及其结果
func (c *RelayCollector) Wait(op, result string) {
	c.waits.WithLabelValues(op, result).Inc()
}

// Snapshot 返回进程内计数器快照
func (c *RelayCollector) Snapshot() Stats {
	return Stats{
		Sent:           c.totalSent.Load(),
		Received:       c.totalReceived.Load(),
		FilesHandedOff: c.totalFiles.Load(),
		Purged:         c.totalPurged.Load(),
		LiveProxies:    c.curProxies.Load(),
		Buffered:       c.curBuffered.Load(),
		SendRate:       c.sendRate.Rate(),
		RecvRate:       c.recvRate.Rate(),
	}
}

// ============================================================================
// Noop
// ============================================================================

// Noop 空指标实现
type Noop struct{}

var _ interfaces.RelayMetrics = Noop{}

func (Noop) BytesSent(string, int64)     {}
func (Noop) BytesReceived(string, int64) {}
func (Noop) FileHandedOff(string)        {}
func (Noop) SegmentsPurged(string, int)  {}
func (Noop) LiveProxies(string, int)     {}
func (Noop) Buffered(string, int64)      {}
func (Noop) Wait(string, string)         {}
