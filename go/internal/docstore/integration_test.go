package docstore

import (
	"database/sql"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// Integration tests run against real services when these are set:
//
//	LEAGUESYNC_TEST_DATABASE_URL  postgres DSN
//	LEAGUESYNC_TEST_NATS_URL      nats server
//	LEAGUESYNC_TEST_MONGO_URI     mongo server
//	FIRESTORE_EMULATOR_HOST       firestore emulator
func requireEnv(t *testing.T, key string) string {
	t.Helper()
	v := os.Getenv(key)
	if v == "" {
		t.Skipf("%s not set", key)
	}
	return v
}

// uniqueName keeps concurrent runs against one server apart
func uniqueName(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func openTestDB(t *testing.T) (*sql.DB, string) {
	t.Helper()
	dsn := requireEnv(t, "LEAGUESYNC_TEST_DATABASE_URL")
	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	require.NoError(t, db.Ping())
	t.Cleanup(func() { db.Close() })
	return db, dsn
}

func cleanupCollection(t *testing.T, db *sql.DB, collection string) {
	t.Helper()
	t.Cleanup(func() {
		_, _ = db.Exec(`DELETE FROM documents WHERE collection = $1`, collection)
	})
}
