package relay

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-segrelay/config"
	"github.com/dep2p/go-segrelay/internal/core/locking"
	"github.com/dep2p/go-segrelay/internal/core/metrics"
	"github.com/dep2p/go-segrelay/internal/core/scope"
	"github.com/dep2p/go-segrelay/pkg/interfaces"
	"github.com/dep2p/go-segrelay/pkg/segment"
)

// TestConfigFromUnified 测试从统一配置转换
func TestConfigFromUnified(t *testing.T) {
	assert.Equal(t, DefaultConfig(), ConfigFromUnified(nil))

	cfg := config.NewConfig()
	cfg.Relay.MaxBufferSize = 1 << 20
	cfg.Relay.Timeout = config.Duration(2 * time.Second)
	cfg.Memory.Priority = interfaces.ReservationPriorityHigh

	c := ConfigFromUnified(cfg)
	assert.Equal(t, int64(1<<20), c.MaxBufferSize)
	assert.Equal(t, 2*time.Second, c.Timeout)
	assert.Equal(t, cfg.Relay.MinSplitSize, c.MinSplitSize)
	assert.Equal(t, cfg.Relay.FileVetoCacheSize, c.VetoCacheSize)
	assert.Equal(t, interfaces.ReservationPriorityHigh, c.MemoryPriority)
}

// TestModule 测试 Fx 装配的工厂
func TestModule(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Relay.MaxBufferSize = 16
	cfg.Memory.Limit = 1024

	reg := prometheus.NewRegistry()
	var f *Factory
	var s *scope.Scope
	app := fxtest.New(t,
		fx.Supply(cfg),
		fx.Provide(func() prometheus.Registerer { return reg }),
		locking.Module,
		scope.Module,
		metrics.Module,
		Module,
		fx.Populate(&f, &s),
	)
	app.RequireStart()

	r, err := f.New(3, "stream-3")
	require.NoError(t, err)
	assert.Equal(t, int64(16), r.BufferSize())
	assert.Equal(t, 1, f.Registry().Len())
	assert.Equal(t, 1, s.Stat().Hooks)

	// 临时内存的复制占用连接内存预算
	in := segment.NewBrigade(segment.NewTransient([]byte("0123456789abcdefXYZ")))
	err = r.Send(context.Background(), in, interfaces.NonBlocking)
	assert.ErrorIs(t, err, ErrWouldBlock)
	assert.Equal(t, int64(16), s.Stat().Memory)

	// 加锁的中继可以在另一个 goroutine 中接收
	done := make(chan string, 1)
	go func() {
		out := segment.NewBrigade()
		if err := r.Receive(context.Background(), out, interfaces.Blocking, 0); err != nil {
			done <- err.Error()
			return
		}
		b, _ := out.Bytes()
		out.Destroy()
		done <- string(b)
	}()
	assert.Equal(t, "0123456789abcdef", <-done)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)

	app.RequireStop()
	assert.True(t, r.IsAborted())
	assert.Zero(t, f.Registry().Len())
	assert.Zero(t, s.Stat().Memory)
}

// TestFactory_OptionsOverride 测试调用方选项覆盖工厂设置
func TestFactory_OptionsOverride(t *testing.T) {
	f := NewFactory(Params{
		Lock:     locking.NoLock(),
		Scope:    scope.New("conn", 0),
		Registry: NewRegistry(),
	})

	r, err := f.New(1, "a", WithTimeout(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, time.Minute, r.Timeout())
	assert.Equal(t, DefaultConfig().MaxBufferSize, r.BufferSize())
	require.NoError(t, r.Destroy())
}
