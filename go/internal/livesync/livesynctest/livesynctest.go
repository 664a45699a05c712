// Package livesynctest runs a sync engine for tests of code built on top of
// the live lists.
package livesynctest

import (
	"context"
	"testing"
	"time"

	"github.com/mcdev12/leaguesync/go/internal/docstore"
	"github.com/mcdev12/leaguesync/go/internal/livesync"
	"github.com/mcdev12/leaguesync/go/internal/schema"
	"github.com/stretchr/testify/require"
)

// Start runs an engine over store and signs userID in. The engine is stopped
// when the test ends.
func Start(t *testing.T, store docstore.DocumentStore, userID string) *livesync.Engine {
	t.Helper()

	e := livesync.NewEngine(store, schema.MustNew())
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		_ = e.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-e.Done()
	})

	if userID != "" {
		require.NoError(t, e.Authenticated(context.Background(), userID))
		Flush(t, e)
	}
	return e
}

// Flush waits until the engine has processed every queued snapshot
func Flush(t *testing.T, e *livesync.Engine) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, e.Flush(ctx))
}
