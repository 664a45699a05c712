package players

import (
	"context"
	"errors"
	"testing"

	"github.com/mcdev12/leaguesync/go/internal/docstore"
	"github.com/mcdev12/leaguesync/go/internal/livesync/livesynctest"
	"github.com/mcdev12/leaguesync/go/internal/models"
	"github.com/mcdev12/leaguesync/go/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*App, *docstore.MemoryStore, func()) {
	t.Helper()
	store := docstore.NewMemoryStore()
	engine := livesynctest.Start(t, store, "u1")
	app := NewApp(NewRepository(store, schema.MustNew()), engine.Players())
	return app, store, func() { livesynctest.Flush(t, engine) }
}

func TestApp_CreatePlayerAppearsInLiveList(t *testing.T) {
	app, _, flush := setup(t)
	ctx := context.Background()

	id, err := app.CreatePlayer(ctx, models.Player{Name: "Ana", Positions: []int{int(models.PositionPitcher)}})
	require.NoError(t, err)
	require.NotEmpty(t, id)
	flush()

	p, ok := app.FindPlayer(id)
	require.True(t, ok)
	assert.Equal(t, "Ana", p.Name)
	assert.True(t, p.HasPosition(models.PositionPitcher))

	fromStore, err := app.GetPlayer(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, fromStore.UUID)
}

func TestApp_CreatePlayerValidation(t *testing.T) {
	app, store, _ := setup(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		player models.Player
	}{
		{name: "blank name", player: models.Player{Name: "  "}},
		{name: "unknown position", player: models.Player{Name: "Ana", Positions: []int{42}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := app.CreatePlayer(ctx, tt.player)
			assert.ErrorIs(t, err, models.ErrValidation)
		})
	}

	docs, err := store.GetAll(ctx, models.CollectionPlayers)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestApp_UpdateAndDeleteRequireIdentifier(t *testing.T) {
	app, _, _ := setup(t)
	ctx := context.Background()

	err := app.UpdatePlayer(ctx, models.Player{Name: "Ana"})
	var missing *models.MissingIdentifierError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, models.CollectionPlayers, missing.Collection)

	err = app.DeletePlayer(ctx, models.Player{Name: "Ana"})
	assert.ErrorIs(t, err, models.ErrMissingIdentifier)
}

func TestApp_UpdatePlayer(t *testing.T) {
	app, _, flush := setup(t)
	ctx := context.Background()

	id, err := app.CreatePlayer(ctx, models.Player{Name: "Ana"})
	require.NoError(t, err)

	require.NoError(t, app.UpdatePlayer(ctx, models.Player{UUID: id, Name: "Ana Lucia", Positions: []int{1, 2}}))
	flush()

	p, ok := app.FindPlayer(id)
	require.True(t, ok)
	assert.Equal(t, "Ana Lucia", p.Name)
	assert.Equal(t, []int{1, 2}, p.Positions)
}

func TestApp_UpdateMissingPlayer(t *testing.T) {
	app, _, _ := setup(t)

	err := app.UpdatePlayer(context.Background(), models.Player{UUID: "nope", Name: "Ana"})
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestApp_DeletePlayer(t *testing.T) {
	app, _, flush := setup(t)
	ctx := context.Background()

	id, err := app.CreatePlayer(ctx, models.Player{Name: "Ana"})
	require.NoError(t, err)
	flush()
	require.Len(t, app.Live().Current(), 1)

	require.NoError(t, app.DeletePlayer(ctx, models.Player{UUID: id}))
	flush()
	assert.Empty(t, app.Live().Current())

	_, err = app.GetPlayer(ctx, id)
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}
