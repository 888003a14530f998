package relay

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/dep2p/go-segrelay/internal/core/locking"
	"github.com/dep2p/go-segrelay/pkg/interfaces"
	"github.com/dep2p/go-segrelay/pkg/segment"
)

// ============================================================================
// 生产者/消费者测试
// ============================================================================

// TestConcurrent_Pipe 测试两个 goroutine 之间按序传输
func TestConcurrent_Pipe(t *testing.T) {
	m := NewMockMetrics()
	r := newLocked(t, 64, WithMetrics(m))

	rng := rand.New(rand.NewSource(1))
	payload := make([]byte, 64*1024)
	rng.Read(payload)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rest := payload
		for len(rest) > 0 {
			n := 1 + rng.Intn(200)
			if n > len(rest) {
				n = len(rest)
			}
			in := segment.NewBrigade(segment.NewTransient(rest[:n]))
			if err := r.Send(ctx, in, interfaces.Blocking); err != nil {
				return err
			}
			rest = rest[n:]
		}
		return r.Close()
	})

	var got bytes.Buffer
	g.Go(func() error {
		for {
			out := segment.NewBrigade()
			err := r.Receive(ctx, out, interfaces.Blocking, 100)
			if errors.Is(err, ErrEOF) {
				return nil
			}
			if err != nil {
				return err
			}
			assert.LessOrEqual(t, out.Length(), int64(100))
			b, err := out.Bytes()
			if err != nil {
				return err
			}
			got.Write(b)
			if err := out.Destroy(); err != nil {
				return err
			}
		}
	})

	require.NoError(t, g.Wait())
	assert.Equal(t, payload, got.Bytes())
	assert.Zero(t, r.LiveProxies())

	sent, received, _, buffered := m.Snapshot()
	assert.Equal(t, int64(len(payload)), sent)
	assert.Equal(t, int64(len(payload)), received)
	assert.Zero(t, buffered)
}

// TestConcurrent_SharedLock 测试共享锁的两个中继互不阻塞
func TestConcurrent_SharedLock(t *testing.T) {
	lock := locking.NewMutex()
	a, err := New(1, "a", 8, WithLockStrategy(lock))
	require.NoError(t, err)
	b, err := New(2, "b", 8, WithLockStrategy(lock))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		out := segment.NewBrigade()
		err := b.Receive(ctx, out, interfaces.Blocking, 0)
		if err == nil {
			err = out.Destroy()
		}
		done <- err
	}()

	// a 上的操作不受 b 的等待影响
	sendString(t, a, "ping")
	assert.Equal(t, "ping", receiveString(t, a, 0))

	sendString(t, b, "pong")
	require.NoError(t, <-done)
	require.NoError(t, a.Destroy())
	require.NoError(t, b.Destroy())
}

// ============================================================================
// 唤醒测试
// ============================================================================

// TestConcurrent_AbortWakesWaiters 测试终止唤醒阻塞的调用
func TestConcurrent_AbortWakesWaiters(t *testing.T) {
	r := newLocked(t, 4)
	sendString(t, r, "full")

	errs := make(chan error, 1)
	go func() {
		in := segment.NewBrigade(segment.NewHeapString("blocked"))
		errs <- r.Send(context.Background(), in, interfaces.Blocking)
	}()

	u := newLocked(t, 0)
	recvErr := make(chan error, 1)
	go func() {
		recvErr <- u.Receive(context.Background(), segment.NewBrigade(), interfaces.Blocking, 0)
	}()

	time.Sleep(20 * time.Millisecond)
	r.Abort()
	u.Abort()

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, ErrAborted)
	case <-time.After(5 * time.Second):
		t.Fatal("sender not woken")
	}
	select {
	case err := <-recvErr:
		assert.ErrorIs(t, err, ErrAborted)
	case <-time.After(5 * time.Second):
		t.Fatal("receiver not woken")
	}
}

// TestConcurrent_SetBufferSizeWakesSender 测试扩大缓冲唤醒发送方
func TestConcurrent_SetBufferSizeWakesSender(t *testing.T) {
	r := newLocked(t, 4)
	sendString(t, r, "full")

	errs := make(chan error, 1)
	go func() {
		in := segment.NewBrigade(segment.NewHeapString("more"))
		errs <- r.Send(context.Background(), in, interfaces.Blocking)
	}()

	time.Sleep(20 * time.Millisecond)
	r.SetBufferSize(0)

	select {
	case err := <-errs:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("sender not woken")
	}
	assert.Equal(t, "fullmore", receiveString(t, r, 0))
}

// TestConcurrent_ReceiveWokenBySend 测试发送唤醒阻塞的接收方
func TestConcurrent_ReceiveWokenBySend(t *testing.T) {
	r := newLocked(t, 0)

	got := make(chan string, 1)
	go func() {
		out := segment.NewBrigade()
		if err := r.Receive(context.Background(), out, interfaces.Blocking, 0); err != nil {
			got <- err.Error()
			return
		}
		b, _ := out.Bytes()
		out.Destroy()
		got <- string(b)
	}()

	time.Sleep(20 * time.Millisecond)
	sendString(t, r, "wake")

	select {
	case s := <-got:
		assert.Equal(t, "wake", s)
	case <-time.After(5 * time.Second):
		t.Fatal("receiver not woken")
	}
}

// TestConcurrent_SplitSendWakesReceiver 测试分割后等待空间的发送方先唤醒接收方
func TestConcurrent_SplitSendWakesReceiver(t *testing.T) {
	r := newLocked(t, 64)

	payload := bytes.Repeat([]byte("0123456789abcde"), 10)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var got bytes.Buffer
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			out := segment.NewBrigade()
			err := r.Receive(ctx, out, interfaces.Blocking, 100)
			if errors.Is(err, ErrEOF) {
				return nil
			}
			if err != nil {
				return err
			}
			b, err := out.Bytes()
			if err != nil {
				return err
			}
			got.Write(b)
			if err := out.Destroy(); err != nil {
				return err
			}
		}
	})

	// 接收方先进入等待
	time.Sleep(20 * time.Millisecond)
	g.Go(func() error {
		for i := 0; i < 3; i++ {
			in := segment.NewBrigade(segment.NewTransient(payload))
			if err := r.Send(ctx, in, interfaces.Blocking); err != nil {
				return err
			}
		}
		return r.Close()
	})

	require.NoError(t, g.Wait())
	assert.Equal(t, bytes.Repeat(payload, 3), got.Bytes())
}

// ============================================================================
// 超时与取消测试
// ============================================================================

// TestConcurrent_Timeout 测试阻塞等待超时
func TestConcurrent_Timeout(t *testing.T) {
	mock := clock.NewMock()
	m := NewMockMetrics()
	r := newLocked(t, 0,
		WithLockStrategy(locking.NewMutex(locking.WithClock(mock))),
		WithClock(mock),
		WithTimeout(time.Second),
		WithMetrics(m),
	)

	errs := make(chan error, 1)
	go func() {
		errs <- r.Receive(context.Background(), segment.NewBrigade(), interfaces.Blocking, 0)
	}()

	var err error
	require.Eventually(t, func() bool {
		mock.Add(500 * time.Millisecond)
		select {
		case err = <-errs:
			return true
		default:
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)

	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, 1, m.WaitCount("receive", "timeout"))
}

// TestConcurrent_ContextCanceled 测试 ctx 取消
func TestConcurrent_ContextCanceled(t *testing.T) {
	m := NewMockMetrics()
	r := newLocked(t, 0, WithMetrics(m))
	ctx, cancel := context.WithCancel(context.Background())

	errs := make(chan error, 1)
	go func() {
		errs <- r.Receive(ctx, segment.NewBrigade(), interfaces.Blocking, 0)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("receiver not canceled")
	}
	assert.Equal(t, 1, m.WaitCount("receive", "canceled"))
}

// TestConcurrent_ContextDeadline 测试 ctx 截止时间按超时处理
func TestConcurrent_ContextDeadline(t *testing.T) {
	r := newLocked(t, 4)
	sendString(t, r, "full")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := r.Send(ctx, segment.NewBrigade(segment.NewHeapString("x")), interfaces.Blocking)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
