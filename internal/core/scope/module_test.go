package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-segrelay/config"
	"github.com/dep2p/go-segrelay/pkg/interfaces"
)

// TestModule 测试 Fx 停止时关闭作用域
func TestModule(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Memory.Limit = 4096

	var s *Scope
	var mm interfaces.MemoryManager
	app := fxtest.New(t,
		fx.Supply(cfg),
		Module,
		fx.Populate(&s, &mm),
	)
	app.RequireStart()

	assert.Same(t, s, mm)
	ran := false
	require.NoError(t, s.OnTeardown("relay", func() error { ran = true; return nil }))
	assert.Error(t, mm.ReserveMemory(5000, interfaces.ReservationPriorityAlways))

	app.RequireStop()
	assert.True(t, ran)
	assert.True(t, s.Closed())
}
