package workers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func TestPool_RunsAllJobsWithinBound(t *testing.T) {
	pool := NewPool(context.Background(), 2, arbor.NewLogger())
	pool.Start()

	var running, peak, done int32
	for i := 0; i < 6; i++ {
		require.NoError(t, pool.Submit(Job{Name: "job", Run: func(ctx context.Context) error {
			now := atomic.AddInt32(&running, 1)
			for {
				old := atomic.LoadInt32(&peak)
				if now <= old || atomic.CompareAndSwapInt32(&peak, old, now) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			atomic.AddInt32(&done, 1)
			return nil
		}}))
	}

	require.NoError(t, pool.Wait())
	assert.Equal(t, int32(6), atomic.LoadInt32(&done))
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestPool_CollectsErrorsAndPanics(t *testing.T) {
	pool := NewPool(context.Background(), 1, arbor.NewLogger())
	pool.Start()

	boom := errors.New("boom")
	require.NoError(t, pool.Submit(Job{Name: "failing", Run: func(ctx context.Context) error { return boom }}))
	require.NoError(t, pool.Submit(Job{Name: "panicking", Run: func(ctx context.Context) error { panic("bad") }}))
	require.NoError(t, pool.Submit(Job{Name: "ok", Run: func(ctx context.Context) error { return nil }}))

	err := pool.Wait()
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failing: boom")
	assert.Contains(t, err.Error(), "panicking: panic: bad")
}

func TestPool_SubmitAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPool(ctx, 1, arbor.NewLogger())
	cancel()

	// Once the buffer is full every Submit has to observe cancellation
	var err error
	for i := 0; i < 10 && err == nil; i++ {
		err = pool.Submit(Job{Name: "queued", Run: func(ctx context.Context) error { return nil }})
	}
	assert.ErrorIs(t, err, context.Canceled)
}
