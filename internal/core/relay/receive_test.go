package relay

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-segrelay/pkg/interfaces"
	"github.com/dep2p/go-segrelay/pkg/segment"
)

// ============================================================================
// 基本接收测试
// ============================================================================

// TestReceive_Empty 测试没有数据时接收
func TestReceive_Empty(t *testing.T) {
	r := newLocked(t, 0)
	err := r.Receive(context.Background(), segment.NewBrigade(), interfaces.NonBlocking, 0)
	assert.ErrorIs(t, err, ErrWouldBlock)

	u := newUnlocked(t, 0)
	err = u.Receive(context.Background(), segment.NewBrigade(), interfaces.Blocking, 0)
	assert.ErrorIs(t, err, ErrWouldBlock)
}

// TestReceive_ProxiesShareSource 测试代理段引用源段
func TestReceive_ProxiesShareSource(t *testing.T) {
	r := newLocked(t, 0)
	src := NewMockSegment("shared", segment.StorageHeap)
	require.NoError(t, r.Send(context.Background(), segment.NewBrigade(src), interfaces.NonBlocking))

	out := segment.NewBrigade()
	require.NoError(t, r.Receive(context.Background(), out, interfaces.NonBlocking, 0))
	require.Equal(t, 1, out.Len())
	p, _ := out.Front()
	assert.IsType(t, &Proxy{}, p)
	assert.Equal(t, segment.StorageHeap, p.Storage())
	assert.Equal(t, 1, r.LiveProxies())

	b, err := p.Read()
	require.NoError(t, err)
	assert.Equal(t, "shared", string(b))
	assert.Equal(t, 1, src.Reads)
	require.NoError(t, out.Destroy())
}

// TestReceive_ExplicitEOS 测试显式流结束只交出一次
func TestReceive_ExplicitEOS(t *testing.T) {
	r := newLocked(t, 0)
	in := segment.NewBrigade(segment.NewHeapString("ab"), segment.NewEOS())
	require.NoError(t, r.Send(context.Background(), in, interfaces.NonBlocking))

	out := segment.NewBrigade()
	require.NoError(t, r.Receive(context.Background(), out, interfaces.NonBlocking, 0))
	assert.Equal(t, 2, out.Len())
	assert.True(t, out.HasEOS())

	err := r.Receive(context.Background(), segment.NewBrigade(), interfaces.NonBlocking, 0)
	assert.ErrorIs(t, err, ErrEOF)
	require.NoError(t, out.Destroy())
}

// TestReceive_Metadata 测试元数据的转换
func TestReceive_Metadata(t *testing.T) {
	r := newLocked(t, 0)
	flush := segment.NewFlush()
	meta := segment.NewMeta("trailer")
	in := segment.NewBrigade(segment.NewHeapString("a"), meta, flush, segment.NewHeapString("b"))
	require.NoError(t, r.Send(context.Background(), in, interfaces.NonBlocking))

	out := segment.NewBrigade()
	require.NoError(t, r.Receive(context.Background(), out, interfaces.NonBlocking, 0))
	kinds := make([]segment.Kind, 0, out.Len())
	for _, s := range out.Segments() {
		kinds = append(kinds, s.Kind())
	}
	assert.Equal(t, []segment.Kind{segment.KindData, segment.KindFlush, segment.KindData}, kinds)

	// 交出的是新的标记，源段留给生产者销毁
	f, _ := out.Get(1)
	assert.NotSame(t, flush, f)
	require.NoError(t, out.Destroy())
}

// ============================================================================
// maxBytes 测试
// ============================================================================

// TestReceive_MaxBytes 测试按字节上限分批接收
func TestReceive_MaxBytes(t *testing.T) {
	m := NewMockMetrics()
	r := newLocked(t, 0, WithMetrics(m))
	sendString(t, r, "0123456789")

	assert.Equal(t, "0123", receiveString(t, r, 4))
	assert.False(t, r.IsEmpty())
	assert.Zero(t, r.BufferedLength())
	assert.Equal(t, 1, r.LiveProxies())

	assert.Equal(t, "4567", receiveString(t, r, 4))
	assert.Equal(t, "89", receiveString(t, r, 0))
	assert.True(t, r.IsEmpty())
	assert.Zero(t, r.LiveProxies())

	_, received, live, _ := m.Snapshot()
	assert.Equal(t, int64(10), received)
	assert.Zero(t, live)
}

// TestReceive_MaxBytesAcrossSegments 测试字节上限跨多个段
func TestReceive_MaxBytesAcrossSegments(t *testing.T) {
	r := newLocked(t, 0)
	in := segment.NewBrigade(
		segment.NewHeapString("abc"),
		segment.NewHeapString("def"),
		segment.NewFlush(),
		segment.NewHeapString("ghi"),
	)
	require.NoError(t, r.Send(context.Background(), in, interfaces.NonBlocking))

	out := segment.NewBrigade()
	require.NoError(t, r.Receive(context.Background(), out, interfaces.NonBlocking, 4))
	assert.Equal(t, int64(4), out.Length())
	b, err := out.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "abcd", string(b))
	require.NoError(t, out.Destroy())

	assert.Equal(t, "efghi", receiveString(t, r, 0))
}

// TestReceive_LeftoverBeforePending 测试暂存段先于新数据交出
func TestReceive_LeftoverBeforePending(t *testing.T) {
	r := newLocked(t, 0)
	sendString(t, r, "first-")
	assert.Equal(t, "fi", receiveString(t, r, 2))

	sendString(t, r, "second")
	assert.Equal(t, "rs", receiveString(t, r, 2))
	assert.Equal(t, "t-second", receiveString(t, r, 0))
}

// TestReceive_EOSAfterLeftover 测试流结束在暂存段之后交出
func TestReceive_EOSAfterLeftover(t *testing.T) {
	r := newLocked(t, 0)
	in := segment.NewBrigade(segment.NewHeapString("abcdef"), segment.NewEOS())
	require.NoError(t, r.Send(context.Background(), in, interfaces.NonBlocking))

	assert.Equal(t, "abc", receiveString(t, r, 3))

	out := segment.NewBrigade()
	require.NoError(t, r.Receive(context.Background(), out, interfaces.NonBlocking, 0))
	assert.True(t, out.HasEOS())
	b, err := out.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "def", string(b))
	require.NoError(t, out.Destroy())

	err = r.Receive(context.Background(), segment.NewBrigade(), interfaces.NonBlocking, 0)
	assert.ErrorIs(t, err, ErrEOF)
}

// TestReceive_UnboundedWithoutEOS 测试不限字节数的接收交出全部数据
func TestReceive_UnboundedWithoutEOS(t *testing.T) {
	for _, r := range []*Relay{newLocked(t, 0), newUnlocked(t, 0)} {
		sendString(t, r, "abc")
		sendString(t, r, "def")

		assert.Equal(t, "abcdef", receiveString(t, r, 0))
		assert.True(t, r.leftover.Empty())
		assert.Zero(t, r.LiveProxies())

		err := r.Receive(context.Background(), segment.NewBrigade(), interfaces.NonBlocking, 0)
		assert.ErrorIs(t, err, ErrWouldBlock)

		sendString(t, r, "ghi")
		assert.Equal(t, "ghi", receiveString(t, r, -1))
	}
}
