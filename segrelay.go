package segrelay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/fx"

	"github.com/dep2p/go-segrelay/internal/core/metrics"
	"github.com/dep2p/go-segrelay/internal/core/relay"
	"github.com/dep2p/go-segrelay/internal/core/scope"
	"github.com/dep2p/go-segrelay/internal/util/logger"
	"github.com/dep2p/go-segrelay/pkg/interfaces"
	"github.com/dep2p/go-segrelay/pkg/lib/log"
)

var connLogger = log.Logger("segrelay")

const (
	// startTimeout Fx App 启动超时
	startTimeout = 10 * time.Second

	// stopTimeout Fx App 停止超时
	stopTimeout = 10 * time.Second
)

// Relay 跨 goroutine 的段中继
type Relay = interfaces.Relay

// ReadMode 阻塞模式
type ReadMode = interfaces.ReadMode

// 阻塞模式
const (
	NonBlocking = interfaces.NonBlocking
	Blocking    = interfaces.Blocking
)

// Stats 连接上所有中继的指标快照
type Stats = metrics.Stats

// Conn 连接
//
// 连接上的中继共享锁策略、内存预算和生命周期。Close 销毁仍存活的中继。
type Conn struct {
	app *fx.App

	factory *relay.Factory
	scope   *scope.Scope
	metrics interfaces.RelayMetrics
	lock    interfaces.LockStrategy

	mu     sync.Mutex
	closed bool
}

// New 创建连接
func New(opts ...Option) (*Conn, error) {
	o := newOptions()
	if err := o.apply(opts...); err != nil {
		return nil, fmt.Errorf("apply options: %w", err)
	}
	if o.envLogging {
		logger.Install()
	}

	c := &Conn{}
	app, err := buildFxApp(o, c)
	if err != nil {
		return nil, err
	}
	if !c.populated() {
		return nil, errors.New("segrelay: incomplete dependency graph")
	}

	ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
	defer cancel()
	if err := app.Start(ctx); err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	c.app = app

	connLogger.Debug("conn started",
		"maxBuffer", o.config.Relay.MaxBufferSize,
		"locking", o.config.Locking.Enabled,
		"memoryLimit", o.config.Memory.Limit)
	return c, nil
}

// NewRelay 在连接上创建中继
func (c *Conn) NewRelay(id int, tag string) (Relay, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil, ErrConnClosed
	}

	r, err := c.factory.New(id, tag)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Relays 返回连接上仍存活的中继
func (c *Conn) Relays() []Relay {
	rs := c.factory.Registry().Relays()
	out := make([]Relay, 0, len(rs))
	for _, r := range rs {
		out = append(out, r)
	}
	return out
}

// Registry 返回连接的中继登记表
func (c *Conn) Registry() *relay.Registry {
	return c.factory.Registry()
}

// LockStrategy 返回连接共享的锁策略
func (c *Conn) LockStrategy() interfaces.LockStrategy {
	return c.lock
}

// Metrics 返回指标快照，关闭指标时返回零值
func (c *Conn) Metrics() Stats {
	if rc, ok := c.metrics.(*metrics.RelayCollector); ok {
		return rc.Snapshot()
	}
	return Stats{}
}

// MemoryUsed 返回中继为复制和读取数据预留的内存
func (c *Conn) MemoryUsed() int64 {
	return c.scope.Stat().Memory
}

// Close 关闭连接，销毁仍存活的中继
//
// 仍有存活代理段的中继会返回 ErrProxiesOutstanding。
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := c.app.Stop(ctx); err != nil {
		connLogger.Warn("conn stop failed", "err", err)
		return err
	}
	connLogger.Debug("conn closed")
	return nil
}
