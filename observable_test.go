package pubsub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoreleave/shoreleave-pubsub/bus"
	"github.com/shoreleave/shoreleave-pubsub/cell"
	"github.com/shoreleave/shoreleave-pubsub/store"
)

func TestPublishizeCell(t *testing.T) {
	t.Run("mutations publish old and new values", func(t *testing.T) {
		reg := NewRegistry()
		b := bus.NewLocal()
		c := cell.New("v1")

		wired, err := reg.Publishize(c, b)
		require.NoError(t, err)
		require.Same(t, c, wired)

		var changes []bus.Change
		require.NoError(t, b.Subscribe(bus.Topic(reg.Topicify(c)), func(ch bus.Change) {
			changes = append(changes, ch)
		}))

		c.Set("v2")
		require.Len(t, changes, 1)
		assert.Equal(t, bus.Change{Old: "v1", New: "v2"}, changes[0])
	})

	t.Run("rewiring the same bus does not double-publish", func(t *testing.T) {
		reg := NewRegistry()
		b := bus.NewLocal()
		c := cell.New(0)

		_, err := reg.Publishize(c, b)
		require.NoError(t, err)
		_, err = reg.Publishize(c, b)
		require.NoError(t, err)

		count := 0
		require.NoError(t, b.Subscribe(bus.Topic(reg.Topicify(c)), func(bus.Change) { count++ }))

		c.Set(1)
		assert.Equal(t, 1, count)
	})

	t.Run("wiring to two buses publishes on both", func(t *testing.T) {
		reg := NewRegistry()
		b1, b2 := bus.NewLocal(), bus.NewLocal()
		c := cell.New(0)

		_, err := reg.Publishize(c, b1)
		require.NoError(t, err)
		_, err = reg.Publishize(c, b2)
		require.NoError(t, err)

		topic := bus.Topic(reg.Topicify(c))
		count1, count2 := 0, 0
		require.NoError(t, b1.Subscribe(topic, func(bus.Change) { count1++ }))
		require.NoError(t, b2.Subscribe(topic, func(bus.Change) { count2++ }))

		c.Set(1)
		assert.Equal(t, 1, count1)
		assert.Equal(t, 1, count2)
	})

	t.Run("topic is stable and identity-derived", func(t *testing.T) {
		reg := NewRegistry()
		c := cell.New(0)
		topic := reg.Topicify(c)
		assert.Equal(t, topic, reg.Topicify(c))
		assert.NotEqual(t, topic, reg.Topicify(cell.New(0)))
	})

	t.Run("is-publishized tracks the wiring record", func(t *testing.T) {
		reg := NewRegistry()
		c := cell.New(0)

		_, ok := reg.IsPublishized(c)
		assert.False(t, ok)

		_, err := reg.Publishize(c, bus.NewLocal())
		require.NoError(t, err)
		topic, ok := reg.IsPublishized(c)
		assert.True(t, ok)
		assert.Equal(t, reg.Topicify(c), topic)
	})
}

func TestPublishizeStore(t *testing.T) {
	newStore := func(t *testing.T) *store.Store {
		t.Helper()
		s, err := store.InMemory()
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	}

	t.Run("writes publish entry deltas", func(t *testing.T) {
		reg := NewRegistry()
		b := bus.NewLocal()
		s := newStore(t)

		wired, err := reg.Publishize(s, b)
		require.NoError(t, err)
		require.Same(t, s, wired)

		var changes []bus.Change
		require.NoError(t, b.Subscribe(bus.Topic(reg.Topicify(s)), func(ch bus.Change) {
			changes = append(changes, ch)
		}))

		require.NoError(t, s.Set("counter", []byte("1")))
		require.Len(t, changes, 1)
		assert.Equal(t, store.Entry{Key: "counter"}, changes[0].Old)
		assert.Equal(t, store.Entry{Key: "counter", Value: []byte("1")}, changes[0].New)
	})

	t.Run("deletes publish an absent new entry", func(t *testing.T) {
		reg := NewRegistry()
		b := bus.NewLocal()
		s := newStore(t)
		require.NoError(t, s.Set("k", []byte("v")))

		_, err := reg.Publishize(s, b)
		require.NoError(t, err)

		var last bus.Change
		require.NoError(t, b.Subscribe(bus.Topic(reg.Topicify(s)), func(ch bus.Change) { last = ch }))

		require.NoError(t, s.Delete("k"))
		assert.Equal(t, store.Entry{Key: "k", Value: []byte("v")}, last.Old)
		assert.Equal(t, store.Entry{Key: "k"}, last.New)
	})
}
