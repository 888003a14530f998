package scope

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/dep2p/go-segrelay/pkg/interfaces"
)

// ============================================================================
// 销毁钩子测试
// ============================================================================

// TestScope_TeardownOrder 测试钩子按逆序执行一次
func TestScope_TeardownOrder(t *testing.T) {
	s := New("test", 0)
	var order []int
	for i := 0; i < 3; i++ {
		i := i
		require.NoError(t, s.OnTeardown(i, func() error {
			order = append(order, i)
			return nil
		}))
	}
	assert.Equal(t, 3, s.Stat().Hooks)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, []int{2, 1, 0}, order)
	assert.True(t, s.Closed())

	err := s.OnTeardown("late", func() error { return nil })
	assert.ErrorIs(t, err, ErrScopeClosed)
}

// TestScope_Kill 测试撤销钩子
func TestScope_Kill(t *testing.T) {
	s := New("test", 0)
	ran := false
	require.NoError(t, s.OnTeardown("a", func() error { ran = true; return nil }))

	assert.True(t, s.Kill("a"))
	assert.False(t, s.Kill("a"))
	require.NoError(t, s.Close())
	assert.False(t, ran)
}

// TestScope_TeardownErrors 测试钩子错误被合并
func TestScope_TeardownErrors(t *testing.T) {
	s := New("test", 0)
	e1 := errors.New("first")
	e2 := errors.New("second")
	require.NoError(t, s.OnTeardown(1, func() error { return e1 }))
	require.NoError(t, s.OnTeardown(2, func() error { return nil }))
	require.NoError(t, s.OnTeardown(3, func() error { return e2 }))

	err := s.Close()
	require.Error(t, err)
	assert.ErrorIs(t, err, e1)
	assert.ErrorIs(t, err, e2)
	assert.Len(t, multierr.Errors(err), 2)
}

// ============================================================================
// 内存预算测试
// ============================================================================

// TestScope_ReserveMemory 测试内存预留与释放
func TestScope_ReserveMemory(t *testing.T) {
	s := New("test", 1024)

	require.NoError(t, s.ReserveMemory(1000, interfaces.ReservationPriorityAlways))
	assert.Equal(t, int64(1000), s.Stat().Memory)

	err := s.ReserveMemory(100, interfaces.ReservationPriorityAlways)
	assert.ErrorIs(t, err, ErrMemoryLimitExceeded)

	s.ReleaseMemory(600)
	assert.Equal(t, int64(400), s.Stat().Memory)

	// 低优先级阈值为 limit*102/256 = 408
	assert.NoError(t, s.ReserveMemory(8, interfaces.ReservationPriorityLow))
	assert.ErrorIs(t, s.ReserveMemory(1, interfaces.ReservationPriorityLow), ErrMemoryLimitExceeded)

	s.ReleaseMemory(10000)
	assert.Equal(t, int64(0), s.Stat().Memory)
}

// TestScope_Unlimited 测试不限制时总能预留
func TestScope_Unlimited(t *testing.T) {
	s := New("test", 0)
	assert.NoError(t, s.ReserveMemory(1<<30, interfaces.ReservationPriorityLow))
	assert.NoError(t, s.ReserveMemory(0, interfaces.ReservationPriorityLow))
}

// TestScope_ReserveAfterClose 测试关闭后拒绝预留
func TestScope_ReserveAfterClose(t *testing.T) {
	s := New("test", 0)
	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.ReserveMemory(1, interfaces.ReservationPriorityAlways), ErrScopeClosed)
}

// TestScope_ConcurrentReserve 测试并发预留不超过上限
func TestScope_ConcurrentReserve(t *testing.T) {
	s := New("test", 1000)
	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.ReserveMemory(100, interfaces.ReservationPriorityAlways) == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, ok)
	assert.Equal(t, int64(1000), s.Stat().Memory)
}
