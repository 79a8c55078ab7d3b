package ports

import "context"

// RecentStore defines the persistence of the most-recently-used definition list.
type RecentStore interface {
	// Load returns the stored paths, newest first. An empty store returns no error.
	Load(ctx context.Context) ([]string, error)

	// Save replaces the stored list.
	Save(ctx context.Context, paths []string) error
}
