// Package store provides a persistent key/value store with change
// observation, backed by Badger. Every mutation notifies watchers with the
// affected entry before and after the write, which makes a store directly
// wireable onto a bus through the pubsub package.
package store

import (
	"errors"
	"fmt"
	"sync"

	badger "github.com/dgraph-io/badger/v4"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ErrNotFound is returned by Get for keys with no value.
var ErrNotFound = errors.New("store: key not found")

// Entry is the unit watchers observe: a key and the value it held. A nil
// Value means the key was absent.
type Entry struct {
	Key   string `json:"key"`
	Value []byte `json:"value"`
}

// Store is a watchable key/value store.
type Store struct {
	db *badger.DB

	mu      sync.Mutex
	watches *orderedmap.OrderedMap[string, func(key string, old, new any)]
}

// Open opens (or creates) a store rooted at dir.
func Open(dir string) (*Store, error) {
	return open(badger.DefaultOptions(dir))
}

// InMemory creates a store that lives only as long as the process. Meant
// for tests and ephemeral caches.
func InMemory() (*Store, error) {
	return open(badger.DefaultOptions("").WithInMemory(true))
}

func open(options badger.Options) (*Store, error) {
	db, err := badger.Open(options.WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	return &Store{
		db:      db,
		watches: orderedmap.New[string, func(key string, old, new any)](),
	}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the value held under key, or ErrNotFound.
func (s *Store) Get(key string) ([]byte, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get %q: %w", key, err)
	}
	return value, nil
}

// Set writes value under key and notifies watchers with the entry before
// and after the write. Mutations are serialized so watchers observe
// deltas in write order.
func (s *Store) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var old []byte
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
		case err != nil:
			return err
		default:
			if old, err = item.ValueCopy(nil); err != nil {
				return err
			}
		}
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("store: set %q: %w", key, err)
	}

	s.notify(Entry{Key: key, Value: old}, Entry{Key: key, Value: value})
	return nil
}

// Delete removes key and notifies watchers. Deleting an absent key is a
// no-op that notifies nobody.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var old []byte
	existed := false
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			return nil
		case err != nil:
			return err
		}
		if old, err = item.ValueCopy(nil); err != nil {
			return err
		}
		existed = true
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("store: delete %q: %w", key, err)
	}

	if existed {
		s.notify(Entry{Key: key, Value: old}, Entry{Key: key})
	}
	return nil
}

// Watch registers fn under watchKey. Registering an existing key replaces
// the previous watcher.
func (s *Store) Watch(watchKey string, fn func(key string, old, new any)) {
	s.mu.Lock()
	s.watches.Set(watchKey, fn)
	s.mu.Unlock()
}

// Unwatch removes the watcher registered under watchKey, if any.
func (s *Store) Unwatch(watchKey string) {
	s.mu.Lock()
	s.watches.Delete(watchKey)
	s.mu.Unlock()
}

// notify runs with s.mu held; watchers must not mutate the store.
func (s *Store) notify(old, new Entry) {
	for pair := s.watches.Oldest(); pair != nil; pair = pair.Next() {
		pair.Value(pair.Key, old, new)
	}
}
