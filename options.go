package segrelay

import (
	"errors"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dep2p/go-segrelay/config"
)

// Option 用户配置选项函数
type Option func(*options) error

// options 内部选项结构
type options struct {
	config     *config.Config
	clock      clock.Clock
	registerer prometheus.Registerer
	envLogging bool
}

func newOptions() *options {
	return &options{
		config: config.NewConfig(),
	}
}

func (o *options) apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return err
		}
	}
	return nil
}

// WithConfig 使用完整配置替换默认配置
//
// 之后的选项在此配置上继续修改。
func WithConfig(cfg *config.Config) Option {
	return func(o *options) error {
		if cfg == nil {
			return errors.New("nil config")
		}
		o.config = config.CloneConfig(cfg)
		return nil
	}
}

// WithMaxBufferSize 设置每个中继的最大缓冲字节数，0 表示不限制
func WithMaxBufferSize(n int64) Option {
	return func(o *options) error {
		if n < 0 {
			return errors.New("max buffer size must not be negative")
		}
		o.config.Relay = o.config.Relay.WithMaxBufferSize(n)
		return nil
	}
}

// WithTimeout 设置阻塞等待超时，0 表示一直等待
func WithTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d < 0 {
			return errors.New("timeout must not be negative")
		}
		o.config.Relay = o.config.Relay.WithTimeout(d)
		return nil
	}
}

// WithoutLocking 不加锁
//
// 中继的所有调用必须来自同一个 goroutine，阻塞模式退化为非阻塞。
func WithoutLocking() Option {
	return func(o *options) error {
		o.config.Locking.Enabled = false
		return nil
	}
}

// WithMemoryLimit 设置连接的内存预算，0 表示不限制
func WithMemoryLimit(n int64) Option {
	return func(o *options) error {
		if n < 0 {
			return errors.New("memory limit must not be negative")
		}
		o.config.Memory.Limit = n
		return nil
	}
}

// WithClock 指定计时使用的时钟，测试中可传入 clock.NewMock()
func WithClock(c clock.Clock) Option {
	return func(o *options) error {
		o.clock = c
		return nil
	}
}

// WithPrometheusRegisterer 把中继指标注册到指定的 Registerer
func WithPrometheusRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) error {
		o.registerer = reg
		return nil
	}
}

// WithoutMetrics 关闭指标收集
func WithoutMetrics() Option {
	return func(o *options) error {
		o.config.Metrics.Enabled = false
		return nil
	}
}

// WithEnvLogging 按环境变量安装默认日志 handler
func WithEnvLogging() Option {
	return func(o *options) error {
		o.envLogging = true
		return nil
	}
}
