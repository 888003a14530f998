package relay

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-segrelay/internal/core/locking"
	"github.com/dep2p/go-segrelay/pkg/interfaces"
	"github.com/dep2p/go-segrelay/pkg/segment"
)

// receiveOne 发送一个段并接收它的代理段
func receiveOne(t *testing.T, r *Relay, src segment.Segment) *Proxy {
	t.Helper()
	require.NoError(t, r.Send(context.Background(), segment.NewBrigade(src), interfaces.NonBlocking))
	out := segment.NewBrigade()
	require.NoError(t, r.Receive(context.Background(), out, interfaces.NonBlocking, 0))
	require.Equal(t, 1, out.Len())
	s, _ := out.Front()
	p, ok := s.(*Proxy)
	require.True(t, ok)
	return p
}

// TestProxy_SplitReleasesOnce 测试分割的代理段全部释放后源段只交回一次
func TestProxy_SplitReleasesOnce(t *testing.T) {
	m := NewMockMetrics()
	r := newLocked(t, 0, WithMetrics(m))
	src := NewMockSegment("abcdefgh", segment.StorageHeap)
	p := receiveOne(t, r, src)

	parts := []segment.Segment{p}
	cur := segment.Segment(p)
	for i := 0; i < 3; i++ {
		tail, err := cur.Split(2)
		require.NoError(t, err)
		parts = append(parts, tail)
		cur = tail
	}

	var got []byte
	for _, s := range parts {
		b, err := s.Read()
		require.NoError(t, err)
		got = append(got, b...)
	}
	assert.Equal(t, "abcdefgh", string(got))

	for _, s := range parts[:3] {
		require.NoError(t, s.Destroy())
	}
	assert.Equal(t, 1, r.LiveProxies())

	require.NoError(t, parts[3].Destroy())
	require.NoError(t, parts[3].Destroy())
	assert.Zero(t, r.LiveProxies())

	// 加锁时源段由生产者的下一次调用销毁
	assert.Zero(t, src.Destroys)
	require.NoError(t, r.Send(context.Background(), segment.NewBrigade(), interfaces.NonBlocking))
	assert.Equal(t, 1, src.Destroys)
	assert.Equal(t, 1, m.Purged)
}

// TestProxy_UnlockedPurgeImmediately 测试不加锁时释放即销毁
func TestProxy_UnlockedPurgeImmediately(t *testing.T) {
	r := newUnlocked(t, 0)
	src := NewMockSegment("abc", segment.StorageHeap)
	p := receiveOne(t, r, src)

	require.NoError(t, p.Destroy())
	assert.Equal(t, 1, src.Destroys)
	require.NoError(t, r.Destroy())
}

// TestProxy_ReadAfterDestroy 测试销毁后读取
func TestProxy_ReadAfterDestroy(t *testing.T) {
	r := newLocked(t, 0)
	p := receiveOne(t, r, segment.NewHeapString("gone"))
	require.NoError(t, p.Destroy())

	_, err := p.Read()
	assert.ErrorIs(t, err, segment.ErrDestroyed)
	_, err = p.Split(1)
	assert.ErrorIs(t, err, segment.ErrDestroyed)
}

// TestProxy_SplitOutOfRange 测试越界分割
func TestProxy_SplitOutOfRange(t *testing.T) {
	r := newLocked(t, 0)
	p := receiveOne(t, r, segment.NewHeapString("abc"))

	_, err := p.Split(4)
	assert.ErrorIs(t, err, segment.ErrOutOfRange)
	_, err = p.Split(-1)
	assert.ErrorIs(t, err, segment.ErrOutOfRange)

	tail, err := p.Split(3)
	require.NoError(t, err)
	assert.Zero(t, tail.Len())
	require.NoError(t, tail.Destroy())
	require.NoError(t, p.Destroy())
	assert.Zero(t, r.LiveProxies())
}

// TestProxy_ForwardedSharedLock 测试代理段转发到共享锁的另一个中继后释放
func TestProxy_ForwardedSharedLock(t *testing.T) {
	lock := locking.NewMutex()
	a, err := New(1, "a", 0, WithLockStrategy(lock))
	require.NoError(t, err)
	b, err := New(2, "b", 0, WithLockStrategy(lock))
	require.NoError(t, err)

	ctx := context.Background()
	src := NewMockSegment("forward", segment.StorageHeap)
	p := receiveOne(t, a, src)

	// b 消费后释放，转发的代理段在 b 的生产者侧销毁
	q := receiveOne(t, b, p)
	b1, err := q.Read()
	require.NoError(t, err)
	assert.Equal(t, "forward", string(b1))
	require.NoError(t, q.Destroy())
	require.NoError(t, b.Send(ctx, segment.NewBrigade(), interfaces.NonBlocking))
	assert.Zero(t, a.LiveProxies())

	require.NoError(t, a.Send(ctx, segment.NewBrigade(), interfaces.NonBlocking))
	assert.Equal(t, 1, src.Destroys)

	// 未接收就终止，转发的代理段随 Pending 一起销毁
	src2 := NewMockSegment("again", segment.StorageHeap)
	p2 := receiveOne(t, a, src2)
	require.NoError(t, b.Send(ctx, segment.NewBrigade(p2), interfaces.NonBlocking))
	b.Abort()
	assert.Zero(t, a.LiveProxies())

	require.NoError(t, a.Send(ctx, segment.NewBrigade(), interfaces.NonBlocking))
	assert.Equal(t, 1, src2.Destroys)

	require.NoError(t, a.Destroy())
	require.NoError(t, b.Destroy())
}
