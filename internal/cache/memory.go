package cache

import (
	"context"
	"sync"

	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/puzzle"
)

// MemoryStore is an in-process Store. Values are kept encoded so callers never
// share record memory with the store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]byte)}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, date puzzle.Date) (*puzzle.Record, error) {
	s.mu.RLock()
	data, ok := s.entries[puzzle.Key(date)]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	return Decode(data)
}

// Put implements Store.
func (s *MemoryStore) Put(_ context.Context, rec *puzzle.Record) error {
	data, err := Encode(rec)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.entries[rec.Key()] = data
	s.mu.Unlock()
	return nil
}

// PutIfAbsent implements Store.
func (s *MemoryStore) PutIfAbsent(_ context.Context, rec *puzzle.Record) (bool, error) {
	data, err := Encode(rec)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[rec.Key()]; exists {
		return false, nil
	}
	s.entries[rec.Key()] = data
	return true, nil
}

// ListRecent implements Store. Undecodable entries are skipped.
func (s *MemoryStore) ListRecent(_ context.Context, n int) ([]*puzzle.Record, error) {
	if n <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	records := make([]*puzzle.Record, 0, len(s.entries))
	for _, data := range s.entries {
		if rec, err := Decode(data); err == nil {
			records = append(records, rec)
		}
	}
	s.mu.RUnlock()

	sortRecentFirst(records)
	if len(records) > n {
		records = records[:n]
	}
	return records, nil
}

// SetRaw stores data under key verbatim. It exists to seed legacy or corrupt
// values in tests and migrations.
func (s *MemoryStore) SetRaw(key string, data []byte) {
	s.mu.Lock()
	s.entries[key] = data
	s.mu.Unlock()
}

// Len returns the number of stored entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
