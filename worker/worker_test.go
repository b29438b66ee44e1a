package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func double(_ context.Context, msg any) any {
	return msg.(int) * 2
}

func TestWorker(t *testing.T) {
	t.Run("processes posted messages", func(t *testing.T) {
		w := Spawn(context.Background(), double)
		defer w.Close()

		require.NoError(t, w.Post(21))
		require.Eventually(t, func() bool {
			return w.Last() == 42
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("post after close", func(t *testing.T) {
		w := Spawn(context.Background(), double)
		w.Close()
		assert.ErrorIs(t, w.Post(1), ErrClosed)
	})

	t.Run("close waits for in-flight messages", func(t *testing.T) {
		w := Spawn(context.Background(), func(_ context.Context, msg any) any {
			time.Sleep(20 * time.Millisecond)
			return msg
		})
		require.NoError(t, w.Post("slow"))
		w.Close()
		assert.Equal(t, "slow", w.Last())
	})

	t.Run("context cancellation stops the worker", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		w := Spawn(ctx, double)
		cancel()
		select {
		case <-w.Done():
		case <-time.After(time.Second):
			t.Fatal("worker did not stop")
		}
	})
}

func TestWorkerTap(t *testing.T) {
	t.Run("taps observe consecutive results", func(t *testing.T) {
		w := Spawn(context.Background(), double)
		defer w.Close()

		var mu sync.Mutex
		var deltas [][2]any
		w.Tap("t", func(old, new any) {
			mu.Lock()
			deltas = append(deltas, [2]any{old, new})
			mu.Unlock()
		})

		require.NoError(t, w.Post(1))
		require.NoError(t, w.Post(2))
		require.Eventually(t, func() bool {
			mu.Lock()
			defer mu.Unlock()
			return len(deltas) == 2
		}, time.Second, 5*time.Millisecond)

		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, [2]any{nil, 2}, deltas[0])
		assert.Equal(t, [2]any{2, 4}, deltas[1])
	})

	t.Run("untap stops observation", func(t *testing.T) {
		w := Spawn(context.Background(), double)
		defer w.Close()

		fired := false
		w.Tap("t", func(any, any) { fired = true })
		w.Untap("t")

		require.NoError(t, w.Post(1))
		require.Eventually(t, func() bool {
			return w.Last() == 2
		}, time.Second, 5*time.Millisecond)
		assert.False(t, fired)
	})
}
