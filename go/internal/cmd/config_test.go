package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mcdev12/leaguesync/go/internal/models"
	"github.com/mcdev12/leaguesync/go/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	config, err := loadConfig("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", config.Server.Addr)
	assert.Equal(t, BackendMemory, config.Store.Backend)
	assert.Equal(t, FeedLocal, config.Store.Feed)
	assert.Equal(t, 12*time.Hour, config.Session.TTL)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9000"
  allowed_origins: ["https://league.example"]
store:
  backend: postgres
  feed: nats
session:
  ttl: 30m
log_level: debug
`), 0o600))

	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("LEAGUESYNC_ADDR", ":9100")

	config, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9100", config.Server.Addr)
	assert.Equal(t, []string{"https://league.example"}, config.Server.AllowedOrigins)
	assert.Equal(t, BackendPostgres, config.Store.Backend)
	assert.Equal(t, FeedNATS, config.Store.Feed)
	assert.Equal(t, 30*time.Minute, config.Session.TTL)
	assert.Equal(t, "s3cret", config.Session.Secret)
	assert.Equal(t, "debug", config.LogLevel)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Run("unknown backend", func(t *testing.T) {
		t.Setenv("LEAGUESYNC_BACKEND", "redis")
		_, err := loadConfig("")
		assert.ErrorContains(t, err, "unknown store backend")
	})

	t.Run("unknown feed", func(t *testing.T) {
		t.Setenv("LEAGUESYNC_BACKEND", BackendPostgres)
		t.Setenv("LEAGUESYNC_FEED", "kafka")
		_, err := loadConfig("")
		assert.ErrorContains(t, err, "unknown change feed")
	})

	t.Run("firestore without project", func(t *testing.T) {
		t.Setenv("LEAGUESYNC_BACKEND", BackendFirestore)
		_, err := loadConfig("")
		assert.Error(t, err)
	})
}

func TestSetupServices_Memory(t *testing.T) {
	config := defaultConfig()

	store, err := setupStore(context.Background(), config)
	require.NoError(t, err)

	_, err = setupServices(store, config)
	assert.ErrorContains(t, err, "SESSION_SECRET")

	config.Session.Secret = "s3cret"
	services, err := setupServices(store, config)
	require.NoError(t, err)
	assert.NotNil(t, services.Gateway.Handler())
	assert.Empty(t, services.Engine.UserID())
}

func TestFixture_Documents(t *testing.T) {
	fixture, err := loadFixture(filepath.Join("..", "assets", "league.json"))
	require.NoError(t, err)

	var summary seedSummary
	docs := fixture.documents(schema.MustNew(), &summary)

	assert.Zero(t, summary.errs)
	assert.Len(t, docs[models.CollectionPlayers], 6)
	assert.Len(t, docs[models.CollectionTeams], 2)
	assert.NotContains(t, docs[models.CollectionTeams][0].Attributes, "id")
}

func TestFixture_RejectsBadDocuments(t *testing.T) {
	fixture := Fixture{
		models.CollectionPlayers: {
			{"name": "No Id"},
			{"id": "p1", "name": 42},
			{"id": "p2", "name": "Ok"},
		},
	}

	var summary seedSummary
	docs := fixture.documents(schema.MustNew(), &summary)

	assert.Equal(t, 3, summary.total)
	assert.Equal(t, 2, summary.errs)
	require.Len(t, docs[models.CollectionPlayers], 1)
	assert.Equal(t, "p2", docs[models.CollectionPlayers][0].ID)
}

func TestLoadFixture_UnknownCollection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"leagues": []}`), 0o600))

	_, err := loadFixture(path)
	assert.ErrorContains(t, err, "unknown collection")
}
