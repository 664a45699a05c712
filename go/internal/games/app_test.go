package games

import (
	"context"
	"testing"
	"time"

	"github.com/mcdev12/leaguesync/go/internal/docstore"
	"github.com/mcdev12/leaguesync/go/internal/livesync"
	"github.com/mcdev12/leaguesync/go/internal/livesync/livesynctest"
	"github.com/mcdev12/leaguesync/go/internal/models"
	"github.com/mcdev12/leaguesync/go/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var opening = time.Date(2024, time.April, 6, 0, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*App, *docstore.MemoryStore, *livesync.Engine) {
	t.Helper()
	store := docstore.NewMemoryStore(
		docstore.WithDocuments(models.CollectionPlayers,
			models.RawDocument{ID: "p1", Attributes: map[string]any{"name": "Ana"}},
		),
		docstore.WithDocuments(models.CollectionTeams,
			models.RawDocument{ID: "t1", Attributes: map[string]any{"name": "Tigers", "players": []string{"p1"}}},
			models.RawDocument{ID: "t2", Attributes: map[string]any{"name": "Lions", "players": []string{}}},
		),
	)
	engine := livesynctest.Start(t, store, "u1")
	app := NewApp(NewRepository(store, schema.MustNew()), engine.Games(), engine.Teams())
	return app, store, engine
}

func TestApp_CreateGameResolvesBothSides(t *testing.T) {
	app, store, engine := setup(t)
	ctx := context.Background()

	id, err := app.CreateGame(ctx, CreateGameRequest{GameDate: opening, LocalID: "t1", VisitorID: "t2", LocalRuns: 3})
	require.NoError(t, err)
	livesynctest.Flush(t, engine)

	game, ok := app.FindGame(id)
	require.True(t, ok)
	require.NotNil(t, game.Local)
	require.NotNil(t, game.Visitor)
	assert.Equal(t, "Tigers", game.Local.Name)
	assert.Equal(t, []string{"p1"}, game.Local.PlayerIDs())
	assert.Equal(t, "Lions", game.Visitor.Name)
	assert.Equal(t, 3, game.LocalRuns)
	assert.True(t, opening.Equal(game.GameDate))

	doc, err := store.Get(ctx, models.CollectionGames, id)
	require.NoError(t, err)
	assert.Equal(t, "2024-04-06", doc.Attributes["gameDate"])
	assert.NotContains(t, doc.Attributes, "uuid")
}

func TestApp_GetGameWithUnknownTeam(t *testing.T) {
	app, _, _ := setup(t)
	ctx := context.Background()

	id, err := app.CreateGame(ctx, CreateGameRequest{GameDate: opening, LocalID: "t9", VisitorID: "t2"})
	require.NoError(t, err)

	game, err := app.GetGame(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, game.Local)
	require.NotNil(t, game.Visitor)
	assert.Equal(t, "t2", game.Visitor.UUID)
}

func TestApp_SetScoreKeepsUnresolvedReferences(t *testing.T) {
	app, store, _ := setup(t)
	ctx := context.Background()

	id, err := app.CreateGame(ctx, CreateGameRequest{GameDate: opening, LocalID: "t9", VisitorID: "t2"})
	require.NoError(t, err)

	require.NoError(t, app.SetScore(ctx, id, 4, 2))

	doc, err := store.Get(ctx, models.CollectionGames, id)
	require.NoError(t, err)
	assert.Equal(t, "t9", doc.Attributes["local"])
	assert.Equal(t, 4, doc.Attributes["localRuns"])
	assert.Equal(t, 2, doc.Attributes["visitorRuns"])
}

func TestApp_UpdateGame(t *testing.T) {
	app, _, engine := setup(t)
	ctx := context.Background()

	id, err := app.CreateGame(ctx, CreateGameRequest{GameDate: opening, LocalID: "t1", VisitorID: "t2"})
	require.NoError(t, err)
	livesynctest.Flush(t, engine)

	game, ok := app.FindGame(id)
	require.True(t, ok)
	game.Story = "rain delay"
	game.VisitorRuns = 7
	require.NoError(t, app.UpdateGame(ctx, game))
	livesynctest.Flush(t, engine)

	updated, ok := app.FindGame(id)
	require.True(t, ok)
	assert.Equal(t, "rain delay", updated.Story)
	assert.Equal(t, 7, updated.VisitorRuns)
	require.NotNil(t, updated.Local)
	assert.Equal(t, "t1", updated.Local.UUID)
}

func TestApp_Validation(t *testing.T) {
	app, _, _ := setup(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  CreateGameRequest
	}{
		{name: "missing date", req: CreateGameRequest{LocalID: "t1", VisitorID: "t2"}},
		{name: "negative runs", req: CreateGameRequest{GameDate: opening, LocalRuns: -1}},
		{name: "same team", req: CreateGameRequest{GameDate: opening, LocalID: "t1", VisitorID: "t1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := app.CreateGame(ctx, tt.req)
			assert.ErrorIs(t, err, models.ErrValidation)
		})
	}
}

func TestApp_DeleteGame(t *testing.T) {
	app, _, engine := setup(t)
	ctx := context.Background()

	assert.ErrorIs(t, app.DeleteGame(ctx, models.Game{}), models.ErrMissingIdentifier)
	assert.ErrorIs(t, app.UpdateGame(ctx, models.Game{GameDate: opening}), models.ErrMissingIdentifier)

	id, err := app.CreateGame(ctx, CreateGameRequest{GameDate: opening, LocalID: "t1", VisitorID: "t2"})
	require.NoError(t, err)
	livesynctest.Flush(t, engine)
	require.Len(t, app.Live().Current(), 1)

	require.NoError(t, app.DeleteGame(ctx, models.Game{UUID: id}))
	livesynctest.Flush(t, engine)
	assert.Empty(t, app.Live().Current())

	_, err = app.GetGame(ctx, id)
	assert.ErrorIs(t, err, ErrGameNotFound)
}
