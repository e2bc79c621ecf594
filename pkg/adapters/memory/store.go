package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/techninja/techninja/pkg/domain"
)

// Store implements ports.SnapshotStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Snapshot
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Snapshot),
	}
}

// Save persists a copy of the snapshot in memory.
func (s *Store) Save(ctx context.Context, key string, snap *domain.Snapshot) error {
	copied := copySnapshot(snap)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = copied
	return nil
}

// Load retrieves a copy of the snapshot so callers can't mutate store state by pointer.
func (s *Store) Load(ctx context.Context, key string) (*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.data[key]
	if !ok {
		return nil, domain.ErrSnapshotNotFound
	}
	return copySnapshot(snap), nil
}

// Delete removes the snapshot.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// List returns the stored keys, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func copySnapshot(snap *domain.Snapshot) *domain.Snapshot {
	c := *snap
	c.History = append([]string{}, snap.History...)
	return &c
}
