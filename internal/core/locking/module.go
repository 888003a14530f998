package locking

import (
	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-segrelay/config"
	"github.com/dep2p/go-segrelay/pkg/interfaces"
	"github.com/dep2p/go-segrelay/pkg/lib/log"
)

var logger = log.Logger("core/locking")

// Config 锁策略配置
type Config struct {
	// Enabled 是否加锁，关闭后中继只能在单个 goroutine 中使用
	Enabled bool
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Enabled: true,
	}
}

// ConfigFromUnified 从统一配置创建锁策略配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return Config{
		Enabled: cfg.Locking.Enabled,
	}
}

// Params 锁策略依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
	Clock      clock.Clock    `optional:"true"`
}

// Module 是 locking 的 Fx 模块
//
// 提供连接级共享的 LockStrategy。
var Module = fx.Module("locking",
	fx.Provide(ProvideLockStrategy),
)

// ProvideLockStrategy 提供 LockStrategy 实例
func ProvideLockStrategy(p Params) interfaces.LockStrategy {
	cfg := ConfigFromUnified(p.UnifiedCfg)
	if !cfg.Enabled {
		logger.Debug("locking disabled, relays must be used from one goroutine")
		return NoLock()
	}
	return NewMutex(WithClock(p.Clock))
}
