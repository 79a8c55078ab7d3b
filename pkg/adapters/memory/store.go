package memory

import (
	"context"
	"sync"

	"github.com/aretw0/wizvis/pkg/ports"
)

// RecentStore implements ports.RecentStore in memory.
// Safe for concurrent use.
type RecentStore struct {
	mu    sync.RWMutex
	paths []string
}

var _ ports.RecentStore = (*RecentStore)(nil)

// NewRecentStore creates an empty in-memory store.
func NewRecentStore() *RecentStore {
	return &RecentStore{}
}

// Load returns a copy so callers can't mutate the stored list.
func (s *RecentStore) Load(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.paths...), nil
}

// Save replaces the stored list.
func (s *RecentStore) Save(ctx context.Context, paths []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paths = append([]string(nil), paths...)
	return nil
}
