package ports

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunRecentStoreContract runs a suite of tests to verify that a RecentStore implementation
// adheres to the defined interface contract.
func RunRecentStoreContract(t *testing.T, store RecentStore) {
	ctx := context.Background()

	t.Run("Load Empty", func(t *testing.T) {
		paths, err := store.Load(ctx)
		require.NoError(t, err, "Load on an empty store should not return error")
		assert.Empty(t, paths)
	})

	t.Run("Save and Load", func(t *testing.T) {
		want := []string{"/charts/b.scxml", "/charts/a.scxml"}
		require.NoError(t, store.Save(ctx, want))

		got, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got, "order must be preserved")
	})

	t.Run("Save Replaces", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, []string{"/charts/c.scxml"}))

		got, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"/charts/c.scxml"}, got)
	})

	t.Run("Save Empty Clears", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, nil))

		got, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
