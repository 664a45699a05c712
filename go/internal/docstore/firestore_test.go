package docstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestFirestoreError_MapsNotFound(t *testing.T) {
	err := firestoreError(status.Error(codes.NotFound, "no such document"), "players", "p1", "get document")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "players/p1")

	err = firestoreError(status.Error(codes.Unavailable, "down"), "players", "p1", "get document")
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "failed to get document")

	assert.NotErrorIs(t, firestoreError(errors.New("boom"), "players", "p1", "get document"), ErrNotFound)
}

func TestFirestoreStore_Integration(t *testing.T) {
	requireEnv(t, "FIRESTORE_EMULATOR_HOST")
	ctx := context.Background()

	store, err := NewFirestoreStore(ctx, "leaguesync-test")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	collection := uniqueName("players")

	rec := &recorder{}
	unsub, err := store.Subscribe(ctx, collection, rec.onSnapshot, rec.onError)
	require.NoError(t, err)
	defer unsub()
	require.Eventually(t, func() bool { return rec.count() >= 1 }, 5*time.Second, 10*time.Millisecond)

	id, err := store.Create(ctx, collection, map[string]any{"name": "Ana"})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(rec.last()) == 1 }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, store.Update(ctx, collection, map[string]any{"story": "rookie"}, id))
	require.NoError(t, store.UpdateField(ctx, collection, id, "positions", []int{4}))
	doc, err := store.Get(ctx, collection, id)
	require.NoError(t, err)
	assert.Equal(t, "Ana", doc.Attributes["name"])
	assert.Equal(t, "rookie", doc.Attributes["story"])
	assert.Equal(t, []any{int64(4)}, doc.Attributes["positions"])

	_, err = store.Get(ctx, collection, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Update(ctx, collection, map[string]any{"name": "x"}, "ghost"), ErrNotFound)
	assert.ErrorIs(t, store.UpdateField(ctx, collection, "ghost", "name", "x"), ErrNotFound)

	require.NoError(t, store.CreateWithID(ctx, collection, map[string]any{"name": "Bo"}, "bo"))
	require.Eventually(t, func() bool { return len(rec.last()) == 2 }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, store.Delete(ctx, collection, id))
	require.NoError(t, store.Delete(ctx, collection, "bo"))
	require.Eventually(t, func() bool { return rec.count() > 0 && len(rec.last()) == 0 }, 5*time.Second, 10*time.Millisecond)
}
