package relay

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-segrelay/config"
	"github.com/dep2p/go-segrelay/internal/core/scope"
	"github.com/dep2p/go-segrelay/pkg/interfaces"
)

// Config 中继配置
type Config struct {
	// MaxBufferSize 每个中继的最大缓冲字节数，0 表示不限制
	MaxBufferSize int64

	// Timeout 阻塞等待超时，0 表示一直等待
	Timeout time.Duration

	// MinSplitSize 不透明数据的最小分割大小
	MinSplitSize int64

	// VetoCacheSize 文件交接否决结果缓存大小
	VetoCacheSize int

	// MemoryPriority 复制数据时的内存预留优先级
	MemoryPriority uint8
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		MaxBufferSize:  64 * 1024,
		MinSplitSize:   DefaultMinSplitSize,
		VetoCacheSize:  DefaultVetoCacheSize,
		MemoryPriority: interfaces.ReservationPriorityAlways,
	}
}

// ConfigFromUnified 从统一配置创建中继配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return Config{
		MaxBufferSize:  cfg.Relay.MaxBufferSize,
		Timeout:        cfg.Relay.Timeout.Duration(),
		MinSplitSize:   cfg.Relay.MinSplitSize,
		VetoCacheSize:  cfg.Relay.FileVetoCacheSize,
		MemoryPriority: cfg.Memory.Priority,
	}
}

// Params 中继工厂依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
	Lock       interfaces.LockStrategy
	Scope      *scope.Scope
	Registry   *Registry
	Memory     interfaces.MemoryManager `optional:"true"`
	Metrics    interfaces.RelayMetrics  `optional:"true"`
	Clock      clock.Clock              `optional:"true"`
}

// Factory 创建共享同一连接资源的中继
//
// 同一工厂创建的中继共享锁策略、作用域、内存预算和登记表。
type Factory struct {
	cfg     Config
	lock    interfaces.LockStrategy
	scope   *scope.Scope
	reg     *Registry
	mem     interfaces.MemoryManager
	metrics interfaces.RelayMetrics
	clock   clock.Clock
}

// NewFactory 创建中继工厂
func NewFactory(p Params) *Factory {
	return &Factory{
		cfg:     ConfigFromUnified(p.UnifiedCfg),
		lock:    p.Lock,
		scope:   p.Scope,
		reg:     p.Registry,
		mem:     p.Memory,
		metrics: p.Metrics,
		clock:   p.Clock,
	}
}

// New 创建中继，opts 覆盖工厂的默认设置
func (f *Factory) New(id int, tag string, opts ...Option) (*Relay, error) {
	base := []Option{
		WithLockStrategy(f.lock),
		WithClock(f.clock),
		WithRegistry(f.reg),
		WithMetrics(f.metrics),
		WithTimeout(f.cfg.Timeout),
		WithMinSplitSize(f.cfg.MinSplitSize),
		WithVetoCacheSize(f.cfg.VetoCacheSize),
	}
	if f.scope != nil {
		base = append(base, WithOwner(f.scope))
	}
	if f.mem != nil {
		base = append(base, WithMemory(f.mem, f.cfg.MemoryPriority))
	}
	return New(id, tag, f.cfg.MaxBufferSize, append(base, opts...)...)
}

// Registry 返回工厂使用的登记表
func (f *Factory) Registry() *Registry {
	return f.reg
}

// Module 是 relay 的 Fx 模块
//
// 依赖 locking、scope 和 metrics 模块提供的连接级资源。
var Module = fx.Module("relay",
	fx.Provide(NewRegistry, NewFactory),
	fx.Invoke(registerLifecycle),
)

// registerLifecycle 注册生命周期钩子
func registerLifecycle(lc fx.Lifecycle, reg *Registry) {
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			if n := reg.Len(); n > 0 {
				logger.Debug("relays still registered at stop", "count", n)
			}
			return nil
		},
	})
}
