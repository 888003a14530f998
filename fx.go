package segrelay

import (
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/dep2p/go-segrelay/internal/core/locking"
	"github.com/dep2p/go-segrelay/internal/core/metrics"
	"github.com/dep2p/go-segrelay/internal/core/relay"
	"github.com/dep2p/go-segrelay/internal/core/scope"
	"github.com/dep2p/go-segrelay/pkg/lib/log"
)

var fxLogger = log.Logger("segrelay/fx")

// buildFxApp 构建 Fx 应用
//
// 加载顺序（按依赖）：locking → scope → metrics → relay。
// 连接级资源（锁策略、作用域、登记表、指标）由 Fx 创建一次，
// 通过 conn 的字段取回。
func buildFxApp(o *options, c *Conn) (*fx.App, error) {
	if err := o.config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	modules := []fx.Option{
		fx.Supply(o.config),
	}
	if o.clock != nil {
		modules = append(modules, fx.Provide(func() clock.Clock { return o.clock }))
	}
	if o.registerer != nil {
		modules = append(modules, fx.Provide(func() prometheus.Registerer { return o.registerer }))
	}

	modules = append(modules,
		locking.Module,
		scope.Module,
		metrics.Module,
		relay.Module,
		fx.Populate(&c.factory, &c.scope, &c.metrics, &c.lock),
	)

	// 禁用 Fx 日志输出（避免干扰用户日志）
	modules = append(modules,
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}),
	)

	app := fx.New(modules...)
	if err := app.Err(); err != nil {
		fxLogger.Error("fx app build failed", "err", err)
		return nil, err
	}
	return app, nil
}

// populated 检查 Fx 是否填充了连接需要的依赖
func (c *Conn) populated() bool {
	return c.factory != nil && c.scope != nil && c.metrics != nil && c.lock != nil
}
