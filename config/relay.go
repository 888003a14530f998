package config

import (
	"errors"
	"time"
)

// RelayConfig 中继配置
type RelayConfig struct {
	// MaxBufferSize 待接收数据的最大字节数
	// 0 表示不限制
	MaxBufferSize int64 `json:"max_buffer_size"`

	// Timeout 阻塞收发的等待超时
	// 0 表示一直等待
	Timeout Duration `json:"timeout,omitempty"`

	// MinSplitSize 在生产者侧读取不透明数据时的最小分割大小
	MinSplitSize int64 `json:"min_split_size"`

	// FileVetoCacheSize 文件交接否决结果的缓存条目数
	FileVetoCacheSize int `json:"file_veto_cache_size"`
}

// DefaultRelayConfig 返回默认中继配置
func DefaultRelayConfig() RelayConfig {
	return RelayConfig{
		MaxBufferSize:     64 * 1024,
		Timeout:           0,
		MinSplitSize:      8000,
		FileVetoCacheSize: 16,
	}
}

// Validate 验证中继配置
func (c RelayConfig) Validate() error {
	if c.MaxBufferSize < 0 {
		return errors.New("relay max buffer size must not be negative")
	}
	if time.Duration(c.Timeout) < 0 {
		return errors.New("relay timeout must not be negative")
	}
	if c.MinSplitSize <= 0 {
		return errors.New("relay min split size must be positive")
	}
	if c.FileVetoCacheSize <= 0 {
		return errors.New("relay file veto cache size must be positive")
	}
	return nil
}

// WithMaxBufferSize 设置最大缓冲
func (c RelayConfig) WithMaxBufferSize(n int64) RelayConfig {
	c.MaxBufferSize = n
	return c
}

// WithTimeout 设置等待超时
func (c RelayConfig) WithTimeout(d time.Duration) RelayConfig {
	c.Timeout = Duration(d)
	return c
}
