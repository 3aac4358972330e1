package webapp

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryStoreOrdersNewestFirst(t *testing.T) {
	store, err := OpenHistoryStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	for _, action := range []string{"create_view", "update_view", "delete_view"} {
		require.NoError(t, store.Record(ctx, HistoryEntry{
			Action: action, Subject: "orders", Status: "ok",
		}))
	}

	entries, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "delete_view", entries[0].Action)
	assert.Equal(t, "create_view", entries[2].Action)
	assert.False(t, entries[0].CreatedAt.IsZero())

	limited, err := store.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestHistoryStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	store, err := OpenHistoryStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Record(ctx, HistoryEntry{Action: "deploy_code", Subject: "median", Status: "ok"}))
	require.NoError(t, store.Close())

	reopened, err := OpenHistoryStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	entries, err := reopened.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "median", entries[0].Subject)
}
