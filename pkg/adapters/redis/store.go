// Package redis persists the recent definitions list in a Redis list.
package redis

import (
	"context"
	"fmt"

	"github.com/aretw0/wizvis/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

const defaultPrefix = "wizvis:"

// RecentStore implements ports.RecentStore using Redis.
// The list is stored newest first under <prefix>recent.
type RecentStore struct {
	client *backend.Client
	prefix string
}

var _ ports.RecentStore = (*RecentStore)(nil)

type Option func(*RecentStore)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *RecentStore) {
		s.prefix = prefix
	}
}

// New creates a store with its own client.
func New(address, password string, db int, opts ...Option) *RecentStore {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a store on an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *RecentStore {
	store := &RecentStore{
		client: client,
		prefix: defaultPrefix,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *RecentStore) key() string {
	return s.prefix + "recent"
}

// Load returns the stored list. A missing key is an empty list.
func (s *RecentStore) Load(ctx context.Context) ([]string, error) {
	paths, err := s.client.LRange(ctx, s.key(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read recent list from redis: %w", err)
	}
	return paths, nil
}

// Save replaces the list in a single transaction.
func (s *RecentStore) Save(ctx context.Context, paths []string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key())
	if len(paths) > 0 {
		values := make([]any, len(paths))
		for i, p := range paths {
			values[i] = p
		}
		pipe.RPush(ctx, s.key(), values...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save recent list to redis: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (s *RecentStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *RecentStore) Close() error {
	return s.client.Close()
}
