package segment

import "errors"

var (
	// ErrUnsupported 段不支持该操作
	ErrUnsupported = errors.New("segment: operation not supported")

	// ErrOutOfRange 分割位置越界
	ErrOutOfRange = errors.New("segment: split offset out of range")

	// ErrDestroyed 段已销毁
	ErrDestroyed = errors.New("segment: destroyed")
)
