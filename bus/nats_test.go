package bus

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests expect a NATS server on nats.DefaultURL, the same way the
// upstream integration suite does. They are skipped when none is running.
func setupNATS(t *testing.T) *nats.Conn {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping NATS integration tests in short mode")
	}
	nc, err := nats.Connect(nats.DefaultURL)
	if err != nil {
		t.Skipf("no NATS server available: %v", err)
	}
	t.Cleanup(nc.Close)
	return nc
}

func TestNATSBus(t *testing.T) {
	t.Run("delivers published arguments", func(t *testing.T) {
		b := NATS(setupNATS(t))

		var got atomic.Value
		require.NoError(t, b.Subscribe("search", func(results []string) {
			got.Store(results)
		}))

		require.NoError(t, b.Publish("search", []string{"cat1", "cat2"}))
		require.Eventually(t, func() bool {
			return got.Load() != nil
		}, 2*time.Second, 10*time.Millisecond)
		assert.Equal(t, []string{"cat1", "cat2"}, got.Load())
	})

	t.Run("subscribe-once fires exactly once", func(t *testing.T) {
		b := NATS(setupNATS(t))

		var count atomic.Int32
		require.NoError(t, b.SubscribeOnce("once", func(int) {
			count.Add(1)
		}))

		require.NoError(t, b.Publish("once", 1))
		require.Eventually(t, func() bool {
			return count.Load() == 1
		}, 2*time.Second, 10*time.Millisecond)

		require.NoError(t, b.Publish("once", 2))
		time.Sleep(100 * time.Millisecond)
		assert.EqualValues(t, 1, count.Load())
	})

	t.Run("unsubscribe stops delivery", func(t *testing.T) {
		b := NATS(setupNATS(t))

		var count atomic.Int32
		handler := func(int) { count.Add(1) }
		require.NoError(t, b.Subscribe("u", handler))
		require.NoError(t, b.Unsubscribe("u", handler))

		require.NoError(t, b.Publish("u", 1))
		time.Sleep(100 * time.Millisecond)
		assert.Zero(t, count.Load())
	})

	t.Run("subject prefix namespaces topics", func(t *testing.T) {
		nc := setupNATS(t)
		b := NATS(nc, WithSubjectPrefix("app"))

		var got atomic.Value
		require.NoError(t, b.Subscribe("events", func(s string) { got.Store(s) }))

		plain := NATS(nc)
		require.NoError(t, plain.Publish("events", "stray"))

		require.NoError(t, b.Publish("events", "scoped"))
		require.Eventually(t, func() bool {
			return got.Load() != nil
		}, 2*time.Second, 10*time.Millisecond)
		assert.Equal(t, "scoped", got.Load())
	})
}
