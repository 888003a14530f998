// Package config 提供统一的配置管理
//
// 本包采用混合配置模式：
//   - 主 Config 结构体嵌入所有子配置
//   - 每个子配置在独立文件中定义
//   - 支持从 JSON 加载和保存配置
//
// 使用示例：
//
//	// 创建默认配置
//	cfg := config.NewConfig()
//	cfg.Relay.MaxBufferSize = 32 * 1024
//	cfg.Relay.Timeout = config.Duration(5 * time.Second)
//
//	// 从 JSON 加载
//	cfg, err := config.FromJSON(data)
package config

// Config 是 go-segrelay 的完整配置结构
//
// 配置按照功能模块组织：
//   - Relay: 中继缓冲、超时与分割
//   - Locking: 锁策略
//   - Memory: 复制与读取数据的内存预算
//   - Metrics: Prometheus 指标
type Config struct {
	// Relay 中继配置
	Relay RelayConfig `json:"relay"`

	// Locking 锁策略配置
	Locking LockingConfig `json:"locking"`

	// Memory 内存预算配置
	Memory MemoryConfig `json:"memory"`

	// Metrics 指标配置
	Metrics MetricsConfig `json:"metrics"`
}

// NewConfig 创建默认配置
//
// 返回的配置使用所有组件的默认值，适用于大多数场景。
func NewConfig() *Config {
	return &Config{
		Relay:   DefaultRelayConfig(),
		Locking: DefaultLockingConfig(),
		Memory:  DefaultMemoryConfig(),
		Metrics: DefaultMetricsConfig(),
	}
}

// Validate 验证配置的有效性
//
// 检查所有子配置是否有效，如果发现无效配置则返回错误。
func (c *Config) Validate() error {
	if err := c.Relay.Validate(); err != nil {
		return err
	}
	if err := c.Memory.Validate(); err != nil {
		return err
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	return nil
}
