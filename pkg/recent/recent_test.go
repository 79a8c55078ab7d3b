package recent_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aretw0/wizvis/pkg/adapters/memory"
	"github.com/aretw0/wizvis/pkg/recent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList_Touch(t *testing.T) {
	ctx := context.Background()
	list := recent.New(memory.NewRecentStore(), recent.WithLimit(3))

	for _, p := range []string{"a", "b", "c"} {
		_, err := list.Touch(ctx, p)
		require.NoError(t, err)
	}
	entries, err := list.Entries(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, entries)

	entries, err = list.Touch(ctx, "./a")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "b"}, entries, "reopening moves to the front")

	entries, err = list.Touch(ctx, "d")
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "a", "c"}, entries, "oldest entry falls off")

	entries, err = list.Remove(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "c"}, entries)

	require.NoError(t, list.Clear(ctx))
	entries, err = list.Entries(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestList_DefaultLimit(t *testing.T) {
	ctx := context.Background()
	list := recent.New(memory.NewRecentStore(), recent.WithLimit(0))
	assert.Equal(t, recent.DefaultLimit, list.Limit())

	for i := 0; i < 15; i++ {
		_, err := list.Touch(ctx, fmt.Sprintf("chart-%02d.scxml", i))
		require.NoError(t, err)
	}
	entries, err := list.Entries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, recent.DefaultLimit)
	assert.Equal(t, "chart-14.scxml", entries[0])
}

func TestList_EntriesNormalizesStoredList(t *testing.T) {
	ctx := context.Background()
	store := memory.NewRecentStore()
	require.NoError(t, store.Save(ctx, []string{"a", "", "a/../a", "b", "mem://door"}))

	entries, err := recent.New(store).Entries(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "mem://door"}, entries)
}

type failingStore struct{}

func (failingStore) Load(context.Context) ([]string, error) { return nil, errors.New("boom") }
func (failingStore) Save(context.Context, []string) error   { return errors.New("boom") }

func TestList_StoreErrors(t *testing.T) {
	list := recent.New(failingStore{})
	_, err := list.Touch(context.Background(), "a")
	assert.Error(t, err)
	_, err = list.Entries(context.Background())
	assert.Error(t, err)
}
