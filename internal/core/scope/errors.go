package scope

import "errors"

var (
	// ErrMemoryLimitExceeded 内存预算不足
	ErrMemoryLimitExceeded = errors.New("scope: memory limit exceeded")

	// ErrScopeClosed 作用域已关闭
	ErrScopeClosed = errors.New("scope: closed")
)
