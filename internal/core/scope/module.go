package scope

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-segrelay/config"
	"github.com/dep2p/go-segrelay/pkg/interfaces"
)

// Config 作用域配置
type Config struct {
	// Name 作用域名，用于日志
	Name string

	// MemoryLimit 内存上限，0 表示不限制
	MemoryLimit int64
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Name: "conn",
	}
}

// ConfigFromUnified 从统一配置创建作用域配置
func ConfigFromUnified(cfg *config.Config) Config {
	c := DefaultConfig()
	if cfg != nil {
		c.MemoryLimit = cfg.Memory.Limit
	}
	return c
}

// Params 作用域依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
}

// Result 作用域提供的依赖
type Result struct {
	fx.Out

	Scope  *Scope
	Memory interfaces.MemoryManager
}

// Module 是 scope 的 Fx 模块
var Module = fx.Module("scope",
	fx.Provide(ProvideScope),
	fx.Invoke(registerLifecycle),
)

// ProvideScope 提供连接级作用域
func ProvideScope(p Params) Result {
	cfg := ConfigFromUnified(p.UnifiedCfg)
	s := New(cfg.Name, cfg.MemoryLimit)
	return Result{Scope: s, Memory: s}
}

// registerLifecycle 注册生命周期钩子
func registerLifecycle(lc fx.Lifecycle, s *Scope) {
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			// 关闭作用域，销毁所有仍存活的中继
			return s.Close()
		},
	})
}
