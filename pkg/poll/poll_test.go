package poll

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUntilImmediateSuccess(t *testing.T) {
	calls := 0
	ok := Until(context.Background(), func(context.Context) bool {
		calls++
		return true
	}, time.Second, "should not time out")
	require.True(t, ok)
	assert.Equal(t, 1, calls, "a condition that is already true must not wait for a tick")
}

func TestUntilObservesTransitionWithinOneInterval(t *testing.T) {
	var ready atomic.Bool
	transition := 120 * time.Millisecond
	go func() {
		time.Sleep(transition)
		ready.Store(true)
	}()

	start := time.Now()
	ok := Until(context.Background(), func(context.Context) bool {
		return ready.Load()
	}, 2*time.Second, "flag never set")
	elapsed := time.Since(start)

	require.True(t, ok)
	assert.GreaterOrEqual(t, elapsed, transition-10*time.Millisecond)
	// Latency past the true transition is bounded by one polling interval
	// plus scheduling slack.
	assert.Less(t, elapsed, transition+DefaultInterval+200*time.Millisecond)
}

func TestUntilFailsOnlyAfterFullTimeout(t *testing.T) {
	timeout := 200 * time.Millisecond
	start := time.Now()
	ok := Until(context.Background(), func(context.Context) bool {
		return false
	}, timeout, "never true")
	elapsed := time.Since(start)

	require.False(t, ok)
	assert.GreaterOrEqual(t, elapsed, timeout, "must not give up before the timeout elapses")
}

func TestEveryHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	ok := Every(ctx, func(context.Context) bool { return false }, 10*time.Millisecond, 5*time.Second, "cancelled")
	require.False(t, ok)
	assert.Less(t, time.Since(start), time.Second, "cancellation must not wait out the timeout")
}

func TestEveryReQueriesEveryTick(t *testing.T) {
	var calls atomic.Int32
	Every(context.Background(), func(context.Context) bool {
		calls.Add(1)
		return false
	}, 20*time.Millisecond, 200*time.Millisecond, "counting ticks")
	assert.Greater(t, calls.Load(), int32(3), "condition must be re-evaluated on every tick")
}
