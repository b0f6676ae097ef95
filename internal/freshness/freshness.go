// Package freshness remembers, per trade server, the latest configuration
// modification time that was served, so unchanged configurations can be skipped.
package freshness

import (
	"context"
	"sync"
)

// Store records the last served modification time per key. Keys never seen
// before start at 0.
type Store interface {
	// Advance records modTime and returns true when it is later than the recorded
	// value. Otherwise it leaves the record unchanged and returns false.
	Advance(ctx context.Context, key string, modTime int64) (bool, error)
	Close() error
}

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	times map[string]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{times: make(map[string]int64)}
}

func (s *MemoryStore) Advance(_ context.Context, key string, modTime int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.times[key] >= modTime {
		return false, nil
	}
	s.times[key] = modTime
	return true, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
