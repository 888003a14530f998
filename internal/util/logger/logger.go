// Package logger 提供 go-segrelay 的日志装配
//
// pkg/lib/log 的 LazyLogger 总是从 slog.Default() 取 handler，
// 本包负责构造这个默认 handler，支持：
//   - 按组件配置日志级别
//   - 环境变量配置（SEGRELAY_LOG_LEVEL, SEGRELAY_LOG_FORMAT）
//
// 环境变量配置:
//
//	# 默认 info，中继核心 debug
//	SEGRELAY_LOG_LEVEL=core/relay=debug,info
//
//	# 使用 JSON 格式输出
//	SEGRELAY_LOG_FORMAT=json
package logger

import (
	"io"
	"log/slog"
	"os"
)

// New 按配置创建 Logger，cfg 为 nil 时读取环境变量
func New(w io.Writer, cfg *Config) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	return slog.New(NewHandler(w, cfg))
}

// Install 按环境变量构造 Logger 并设为 slog 默认 Logger
func Install() *slog.Logger {
	l := New(os.Stderr, ConfigFromEnv())
	slog.SetDefault(l)
	return l
}

// Discard 返回一个丢弃所有日志的 Logger
func Discard() *slog.Logger {
	return slog.New(DiscardHandler())
}
