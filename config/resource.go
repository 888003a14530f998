package config

import (
	"errors"
)

// MemoryConfig 内存预算配置
//
// 中继在迁移临时内存、读取不透明数据或被否决的文件时从预算中预留内存，
// 对应的段在生产者侧销毁时释放。
type MemoryConfig struct {
	// Limit 内存上限（字节）
	// 0 表示不限制
	Limit int64 `json:"limit,omitempty"`

	// Priority 预留优先级，取值同 interfaces.ReservationPriority*
	Priority uint8 `json:"priority"`
}

// DefaultMemoryConfig 返回默认内存预算配置
func DefaultMemoryConfig() MemoryConfig {
	return MemoryConfig{
		Limit:    0,
		Priority: 255,
	}
}

// Validate 验证内存预算配置
func (c MemoryConfig) Validate() error {
	if c.Limit < 0 {
		return errors.New("memory limit must not be negative")
	}
	if c.Priority == 0 {
		return errors.New("memory reservation priority must be positive")
	}
	return nil
}
