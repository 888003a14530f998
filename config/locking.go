package config

// LockingConfig 锁策略配置
type LockingConfig struct {
	// Enabled 是否加锁
	// 关闭后中继不阻塞，调用方负责生产者与消费者之间的串行化
	Enabled bool `json:"enabled"`
}

// DefaultLockingConfig 返回默认锁策略配置
func DefaultLockingConfig() LockingConfig {
	return LockingConfig{
		Enabled: true,
	}
}
