// Package recent maintains the most-recently-used definitions list.
package recent

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aretw0/wizvis/pkg/ports"
)

// DefaultLimit is the number of entries kept when no limit is configured.
const DefaultLimit = 10

// List is a bounded, duplicate-free list of definition paths, newest first.
// Safe for concurrent use within one process.
type List struct {
	store ports.RecentStore
	limit int
	mu    sync.Mutex
}

// Option configures a List.
type Option func(*List)

// WithLimit sets the maximum number of entries. Non-positive values are ignored.
func WithLimit(n int) Option {
	return func(l *List) {
		if n > 0 {
			l.limit = n
		}
	}
}

// New creates a list persisted through store.
func New(store ports.RecentStore, opts ...Option) *List {
	l := &List{store: store, limit: DefaultLimit}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Limit returns the maximum number of entries.
func (l *List) Limit() int {
	return l.limit
}

// Entries returns the stored paths, newest first.
func (l *List) Entries(ctx context.Context) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	paths, err := l.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent list: %w", err)
	}
	return l.normalize(paths), nil
}

// Touch moves path to the front of the list, adding it if needed.
func (l *List) Touch(ctx context.Context, path string) ([]string, error) {
	return l.update(ctx, func(paths []string) []string {
		return append([]string{cleanPath(path)}, without(paths, path)...)
	})
}

// Remove drops path from the list.
func (l *List) Remove(ctx context.Context, path string) ([]string, error) {
	return l.update(ctx, func(paths []string) []string {
		return without(paths, path)
	})
}

// Clear empties the list.
func (l *List) Clear(ctx context.Context) error {
	_, err := l.update(ctx, func([]string) []string { return nil })
	return err
}

func (l *List) update(ctx context.Context, fn func([]string) []string) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	paths, err := l.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent list: %w", err)
	}
	next := l.normalize(fn(paths))
	if err := l.store.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to save recent list: %w", err)
	}
	return next, nil
}

// normalize cleans paths, drops duplicates and empties, and applies the limit.
func (l *List) normalize(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		p = cleanPath(p)
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
		if len(out) == l.limit {
			break
		}
	}
	return out
}

func without(paths []string, path string) []string {
	target := cleanPath(path)
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if cleanPath(p) != target {
			out = append(out, p)
		}
	}
	return out
}

// cleanPath cleans file paths; URIs such as mem://name are kept as given.
func cleanPath(p string) string {
	if strings.Contains(p, "://") {
		return p
	}
	return filepath.Clean(p)
}
