package users

import (
	"context"
	"sync"
	"testing"

	"github.com/mcdev12/leaguesync/go/internal/docstore"
	"github.com/mcdev12/leaguesync/go/internal/livesync"
	"github.com/mcdev12/leaguesync/go/internal/livesync/livesynctest"
	"github.com/mcdev12/leaguesync/go/internal/models"
	"github.com/mcdev12/leaguesync/go/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*App, *docstore.MemoryStore, *livesync.Engine) {
	t.Helper()
	store := docstore.NewMemoryStore()
	engine := livesynctest.Start(t, store, "u1")
	return NewApp(NewRepository(store, schema.MustNew()), engine.Users()), store, engine
}

func TestApp_CreateUserWritesProfileOnly(t *testing.T) {
	app, store, engine := setup(t)
	ctx := context.Background()

	id, err := app.CreateUser(ctx, models.User{Name: "Ana", Nickname: "ana", Email: "ana@example.com", IsAdmin: true})
	require.NoError(t, err)
	livesynctest.Flush(t, engine)

	doc, err := store.Get(ctx, models.CollectionUsers, id)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "Ana", "nickname": "ana"}, doc.Attributes)

	u, ok := app.FindUser(id)
	require.True(t, ok)
	assert.False(t, u.IsAdmin)
}

func TestApp_Register(t *testing.T) {
	app, _, engine := setup(t)
	ctx := context.Background()

	require.NoError(t, app.Register(ctx, "uid-1", RegisterRequest{Email: "ana@example.com", Name: "Ana", Nickname: "ana"}))
	livesynctest.Flush(t, engine)

	u, ok := app.FindByEmail("ANA@example.com")
	require.True(t, ok)
	assert.Equal(t, "uid-1", u.UUID)
	assert.Equal(t, Status{}, app.Status("uid-1"))

	err := app.Register(ctx, "uid-2", RegisterRequest{Email: "ana@example.com"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	assert.ErrorIs(t, app.Register(ctx, "", RegisterRequest{Email: "bo@example.com"}), models.ErrMissingIdentifier)
}

func TestApp_WatchStatus(t *testing.T) {
	app, _, engine := setup(t)
	ctx := context.Background()
	require.NoError(t, app.Register(ctx, "uid-1", RegisterRequest{Email: "ana@example.com", Name: "Ana"}))
	livesynctest.Flush(t, engine)

	var mu sync.Mutex
	var seen []Status
	cancel := app.WatchStatus("uid-1", func(s Status) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, s)
	})
	defer cancel()

	require.NoError(t, app.SetAdmin(ctx, "uid-1", true))
	// an unrelated user does not change uid-1's roles
	_, err := app.CreateUser(ctx, models.User{Name: "Bo"})
	require.NoError(t, err)
	require.NoError(t, app.SetOwner(ctx, "uid-1", true))
	livesynctest.Flush(t, engine)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Status{
		{},
		{IsAdmin: true},
		{IsAdmin: true, IsOwner: true},
	}, seen)
	assert.Equal(t, Status{IsAdmin: true, IsOwner: true}, app.Status("uid-1"))
}

func TestApp_UpdateAndDeleteUser(t *testing.T) {
	app, _, engine := setup(t)
	ctx := context.Background()

	assert.ErrorIs(t, app.UpdateUser(ctx, models.User{Name: "Ana"}), models.ErrMissingIdentifier)
	assert.ErrorIs(t, app.DeleteUser(ctx, models.User{}), models.ErrMissingIdentifier)
	assert.ErrorIs(t, app.SetAdmin(ctx, "", true), models.ErrMissingIdentifier)

	require.NoError(t, app.Register(ctx, "uid-1", RegisterRequest{Email: "ana@example.com", Name: "Ana"}))
	livesynctest.Flush(t, engine)

	u, ok := app.FindUser("uid-1")
	require.True(t, ok)
	u.Nickname = "the ace"
	u.Teams = []string{"t1"}
	require.NoError(t, app.UpdateUser(ctx, u))
	livesynctest.Flush(t, engine)

	updated, err := app.GetUser(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, "the ace", updated.Nickname)
	assert.Equal(t, []string{"t1"}, updated.Teams)

	require.NoError(t, app.DeleteUser(ctx, u))
	livesynctest.Flush(t, engine)
	assert.Empty(t, app.Live().Current())

	_, err = app.GetUser(ctx, "uid-1")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
