package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := InMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreCRUD(t *testing.T) {
	t.Run("set then get", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set("name", []byte("shoreleave")))

		got, err := s.Get("name")
		require.NoError(t, err)
		assert.Equal(t, []byte("shoreleave"), got)
	})

	t.Run("get of missing key", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get("missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete removes the key", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set("k", []byte("v")))
		require.NoError(t, s.Delete("k"))

		_, err := s.Get("k")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("persists to disk", func(t *testing.T) {
		dir := t.TempDir()
		s, err := Open(dir)
		require.NoError(t, err)
		require.NoError(t, s.Set("k", []byte("v")))
		require.NoError(t, s.Close())

		reopened, err := Open(dir)
		require.NoError(t, err)
		defer reopened.Close()

		got, err := reopened.Get("k")
		require.NoError(t, err)
		assert.Equal(t, []byte("v"), got)
	})
}

func TestStoreWatch(t *testing.T) {
	t.Run("set notifies with old and new entries", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set("counter", []byte("0")))

		var gotOld, gotNew any
		s.Watch("w", func(_ string, old, new any) { gotOld, gotNew = old, new })

		require.NoError(t, s.Set("counter", []byte("1")))
		assert.Equal(t, Entry{Key: "counter", Value: []byte("0")}, gotOld)
		assert.Equal(t, Entry{Key: "counter", Value: []byte("1")}, gotNew)
	})

	t.Run("first write observes an absent old entry", func(t *testing.T) {
		s := newStore(t)
		var gotOld any
		s.Watch("w", func(_ string, old, _ any) { gotOld = old })

		require.NoError(t, s.Set("fresh", []byte("v")))
		assert.Equal(t, Entry{Key: "fresh"}, gotOld)
	})

	t.Run("delete notifies with an absent new entry", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set("k", []byte("v")))

		var gotNew any
		s.Watch("w", func(_ string, _, new any) { gotNew = new })

		require.NoError(t, s.Delete("k"))
		assert.Equal(t, Entry{Key: "k"}, gotNew)
	})

	t.Run("deleting an absent key notifies nobody", func(t *testing.T) {
		s := newStore(t)
		fired := false
		s.Watch("w", func(string, any, any) { fired = true })

		require.NoError(t, s.Delete("ghost"))
		assert.False(t, fired)
	})

	t.Run("unwatch stops notifications", func(t *testing.T) {
		s := newStore(t)
		fired := false
		s.Watch("w", func(string, any, any) { fired = true })
		s.Unwatch("w")

		require.NoError(t, s.Set("k", []byte("v")))
		assert.False(t, fired)
	})
}
