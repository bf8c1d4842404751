package stats

import (
	"context"
	"sync"
)

// MemoryStore keeps counters in process memory. Counts reset on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	counters map[string]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		counters: make(map[string]int64),
	}
}

func (s *MemoryStore) Incr(_ context.Context, name string) error {
	s.mu.Lock()
	s.counters[name]++
	s.mu.Unlock()
	return nil
}

// Snapshot returns a copy decoupled from the live map.
func (s *MemoryStore) Snapshot(_ context.Context) (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]int64, len(s.counters))
	for name, count := range s.counters {
		out[name] = count
	}
	return out, nil
}

// Reset clears all counters. Useful for tests or manual resets.
func (s *MemoryStore) Reset() {
	s.mu.Lock()
	s.counters = make(map[string]int64)
	s.mu.Unlock()
}
