package scope

import (
	"github.com/dep2p/go-segrelay/pkg/interfaces"
)

// checkMemoryLimit 检查内存预留是否超过按优先级计算的阈值
func checkMemoryLimit(current, toReserve, limit int64, prio uint8) error {
	if limit <= 0 {
		return nil
	}

	newUsage := current + toReserve
	if newUsage < 0 {
		// 溢出
		return ErrMemoryLimitExceeded
	}

	var threshold int64
	if prio == interfaces.ReservationPriorityAlways {
		threshold = limit
	} else {
		threshold = (limit * (int64(prio) + 1)) / 256
	}

	if newUsage > threshold {
		return ErrMemoryLimitExceeded
	}
	return nil
}
