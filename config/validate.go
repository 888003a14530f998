package config

import (
	"errors"
)

// ValidateAll 验证整个配置的有效性
//
// 这是 Config.Validate() 的别名，提供更明确的语义。
func ValidateAll(c *Config) error {
	if c == nil {
		return errors.New("config is nil")
	}
	return c.Validate()
}

// ValidateAndFix 验证配置并尝试自动修复常见问题
//
// 可修复的问题：
//   - 负的缓冲上限、超时或内存上限 -> 使用默认值
//   - 非正的分割大小或缓存大小 -> 使用默认值
//   - 启用指标但命名空间为空 -> 使用默认命名空间
func ValidateAndFix(c *Config) (*Config, error) {
	if c == nil {
		return NewConfig(), nil
	}

	def := NewConfig()
	if c.Relay.MaxBufferSize < 0 {
		c.Relay.MaxBufferSize = def.Relay.MaxBufferSize
	}
	if c.Relay.Timeout < 0 {
		c.Relay.Timeout = def.Relay.Timeout
	}
	if c.Relay.MinSplitSize <= 0 {
		c.Relay.MinSplitSize = def.Relay.MinSplitSize
	}
	if c.Relay.FileVetoCacheSize <= 0 {
		c.Relay.FileVetoCacheSize = def.Relay.FileVetoCacheSize
	}
	if c.Memory.Limit < 0 {
		c.Memory.Limit = def.Memory.Limit
	}
	if c.Memory.Priority == 0 {
		c.Memory.Priority = def.Memory.Priority
	}
	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		c.Metrics.Namespace = def.Metrics.Namespace
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
