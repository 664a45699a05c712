package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/leaguesync/go/internal/docstore"
	"github.com/mcdev12/leaguesync/go/internal/games"
	"github.com/mcdev12/leaguesync/go/internal/livesync"
	"github.com/mcdev12/leaguesync/go/internal/livesync/livesynctest"
	"github.com/mcdev12/leaguesync/go/internal/models"
	"github.com/mcdev12/leaguesync/go/internal/players"
	"github.com/mcdev12/leaguesync/go/internal/schema"
	"github.com/mcdev12/leaguesync/go/internal/session"
	"github.com/mcdev12/leaguesync/go/internal/teams"
	"github.com/mcdev12/leaguesync/go/internal/users"
	"github.com/mcdev12/leaguesync/go/internal/votes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	t        *testing.T
	srv      *httptest.Server
	engine   *livesync.Engine
	sessions *session.Manager
	// sent as a bearer token once login succeeds
	token string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := docstore.NewMemoryStore(
		docstore.WithDocuments(models.CollectionPlayers,
			models.RawDocument{ID: "p1", Attributes: map[string]any{"name": "Ana"}},
		),
		docstore.WithDocuments(models.CollectionTeams,
			models.RawDocument{ID: "t1", Attributes: map[string]any{"name": "Tigers", "players": []string{"p1"}}},
			models.RawDocument{ID: "t2", Attributes: map[string]any{"name": "Lions"}},
		),
	)
	engine := livesynctest.Start(t, store, "")
	validator := schema.MustNew()
	sessions := session.NewManager(engine, []byte("secret"), clockwork.NewFakeClockAt(time.Now()))

	api := &API{
		Players:  players.NewApp(players.NewRepository(store, validator), engine.Players()),
		Teams:    teams.NewApp(teams.NewRepository(store, validator), engine.Teams(), engine.Players()),
		Games:    games.NewApp(games.NewRepository(store, validator), engine.Games(), engine.Teams()),
		Votes:    votes.NewApp(votes.NewRepository(store), engine.Votes(), engine.Teams()),
		Users:    users.NewApp(users.NewRepository(store, validator), engine.Users()),
		Sessions: sessions,
		Engine:   engine,
	}
	svc := NewService(DefaultConfig(), api, engine)
	// follow the lists before any request so no publish is missed
	svc.relay.Start()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		_ = svc.Start(ctx)
	}()
	srv := httptest.NewServer(svc.Handler())
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})

	return &fixture{t: t, srv: srv, engine: engine, sessions: sessions}
}

func (f *fixture) do(method, path string, body any) (int, []byte) {
	f.t.Helper()
	return f.doWithToken(f.token, method, path, body)
}

func (f *fixture) doWithToken(token, method, path string, body any) (int, []byte) {
	f.t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(f.t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, f.srv.URL+path, reader)
	require.NoError(f.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := f.srv.Client().Do(req)
	require.NoError(f.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(f.t, err)
	return resp.StatusCode, data
}

func (f *fixture) login(userID string) {
	f.t.Helper()
	token, err := f.sessions.Issue(userID, time.Hour)
	require.NoError(f.t, err)
	status, body := f.do(http.MethodPost, "/api/session", loginRequest{Token: token})
	require.Equal(f.t, http.StatusOK, status, string(body))
	f.token = token
	livesynctest.Flush(f.t, f.engine)
}

func (f *fixture) flush() {
	livesynctest.Flush(f.t, f.engine)
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(data, &out), string(data))
	return out
}

func TestGateway_Health(t *testing.T) {
	f := newFixture(t)

	status, body := f.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "OK", string(body))
}

func TestGateway_SessionLifecycle(t *testing.T) {
	f := newFixture(t)

	status, _ := f.do(http.MethodGet, "/api/players", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = f.do(http.MethodPost, "/api/session", loginRequest{Token: "bogus"})
	assert.Equal(t, http.StatusUnauthorized, status)

	f.login("u1")

	status, body := f.do(http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, status)
	st := decode[statusResponse](t, body)
	assert.Equal(t, "active", st.State)
	assert.Equal(t, "u1", st.UserID)
	assert.Equal(t, 1, st.Counts[models.CollectionPlayers])
	assert.Equal(t, 2, st.Counts[models.CollectionTeams])
	require.NotNil(t, st.ExpiresAt)

	status, _ = f.do(http.MethodDelete, "/api/session", nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = f.do(http.MethodDelete, "/api/session", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = f.do(http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, status)
	st = decode[statusResponse](t, body)
	assert.Equal(t, "idle", st.State)
	assert.Equal(t, 0, st.Counts[models.CollectionPlayers])
}

func TestGateway_PlayerWritesShowUpInList(t *testing.T) {
	f := newFixture(t)
	f.login("u1")

	status, body := f.do(http.MethodPost, "/api/players", map[string]any{"name": "Bo", "positions": []int{4}})
	require.Equal(t, http.StatusCreated, status, string(body))
	id := decode[map[string]string](t, body)["id"]
	require.NotEmpty(t, id)
	f.flush()

	status, body = f.do(http.MethodGet, "/api/players", nil)
	require.Equal(t, http.StatusOK, status)
	list := decode[[]models.Player](t, body)
	require.Len(t, list, 2)
	assert.Equal(t, "Bo", list[1].Name)

	status, _ = f.do(http.MethodPut, "/api/players/"+id, map[string]any{"name": "Bo Jr"})
	assert.Equal(t, http.StatusNoContent, status)

	status, body = f.do(http.MethodGet, "/api/players/"+id, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Bo Jr", decode[models.Player](t, body).Name)

	status, _ = f.do(http.MethodDelete, "/api/players/"+id, nil)
	assert.Equal(t, http.StatusNoContent, status)
	f.flush()

	status, body = f.do(http.MethodGet, "/api/players", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]models.Player](t, body), 1)
}

func TestGateway_ErrorMapping(t *testing.T) {
	f := newFixture(t)
	f.login("u1")

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{name: "validation", method: http.MethodPost, path: "/api/players", body: map[string]any{"name": ""}, want: http.StatusBadRequest},
		{name: "unknown field", method: http.MethodPost, path: "/api/players", body: map[string]any{"nombre": "Ana"}, want: http.StatusBadRequest},
		{name: "update missing document", method: http.MethodPut, path: "/api/players/ghost", body: map[string]any{"name": "Ana"}, want: http.StatusNotFound},
		{name: "get missing team", method: http.MethodGet, path: "/api/teams/ghost", want: http.StatusNotFound},
		{name: "bad game date", method: http.MethodPost, path: "/api/games", body: map[string]any{"gameDate": "tomorrow"}, want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := f.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, status, string(body))
			assert.Contains(t, string(body), `"error"`)
		})
	}
}

func TestGateway_RosterGamesAndTally(t *testing.T) {
	f := newFixture(t)
	f.login("u1")

	status, _ := f.do(http.MethodPut, "/api/teams/t2/roster", rosterRequest{Players: []string{"p1", "ghost"}})
	require.Equal(t, http.StatusNoContent, status)

	status, body := f.do(http.MethodPost, "/api/games", map[string]any{"gameDate": "2024-04-06", "local": "t1", "visitor": "t2"})
	require.Equal(t, http.StatusCreated, status, string(body))
	gameID := decode[map[string]string](t, body)["id"]
	f.flush()

	status, body = f.do(http.MethodGet, "/api/games", nil)
	require.Equal(t, http.StatusOK, status)
	list := decode[[]models.Game](t, body)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].Visitor)
	assert.Equal(t, []string{"p1"}, list[0].Visitor.PlayerIDs())

	for _, team := range []string{"t1", "t1", "t2"} {
		status, body = f.do(http.MethodPost, "/api/votes", map[string]any{
			"game": gameID, "category": models.VoteCategoryWinnerTeam, "reference": team,
		})
		require.Equal(t, http.StatusCreated, status, string(body))
	}
	f.flush()

	status, body = f.do(http.MethodGet, "/api/games/"+gameID+"/tally", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]int{"Tigers": 2, "Lions": 1}, decode[map[string]int](t, body))

	status, body = f.do(http.MethodGet, "/api/votes", nil)
	require.Equal(t, http.StatusOK, status)
	for _, v := range decode[[]models.Vote](t, body) {
		assert.Equal(t, "u1", v.User)
	}
}

func TestGateway_RegisterAndRoles(t *testing.T) {
	f := newFixture(t)
	f.login("u1")

	status, body := f.do(http.MethodPost, "/api/register", users.RegisterRequest{Email: "ana@example.com", Name: "Ana"})
	require.Equal(t, http.StatusCreated, status, string(body))
	f.flush()

	status, _ = f.do(http.MethodPut, "/api/users/u1/admin", adminRequest{IsAdmin: true})
	require.Equal(t, http.StatusNoContent, status)
	f.flush()

	status, body = f.do(http.MethodGet, "/api/users/u1/status", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, users.Status{IsAdmin: true}, decode[users.Status](t, body))
}

func TestGateway_WebSocketSnapshots(t *testing.T) {
	f := newFixture(t)
	f.login("u1")

	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws?collections=players"
	header := http.Header{"Authorization": {"Bearer " + f.token}}
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	read := func() SnapshotEvent {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var event SnapshotEvent
		require.NoError(t, conn.ReadJSON(&event))
		return event
	}

	initial := read()
	assert.Equal(t, EventTypeSnapshot, initial.Type)
	assert.Equal(t, models.CollectionPlayers, initial.Collection)
	assert.Len(t, decode[[]models.Player](t, initial.Data), 1)

	status, _ := f.do(http.MethodPost, "/api/players", map[string]any{"name": "Bo"})
	require.Equal(t, http.StatusCreated, status)

	var latest []models.Player
	for len(latest) != 2 {
		event := read()
		require.Equal(t, models.CollectionPlayers, event.Collection)
		if event.Version <= initial.Version {
			// queued before the connection was registered
			continue
		}
		latest = decode[[]models.Player](t, event.Data)
	}

	status, body := f.do(http.MethodGet, "/ws/stats", nil)
	require.Equal(t, http.StatusOK, status)
	stats := decode[ConnectionStats](t, body)
	assert.Equal(t, 1, stats.TotalConnections)
	assert.Equal(t, 1, stats.Collections[models.CollectionPlayers])
}

func TestGateway_WebSocketUnknownCollection(t *testing.T) {
	f := newFixture(t)
	f.login("u1")

	status, _ := f.do(http.MethodGet, "/ws?collections=drafts", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestGateway_RejectsRequestsWithoutSignedInUsersToken(t *testing.T) {
	f := newFixture(t)
	f.login("u1")

	other, err := f.sessions.Issue("u2", time.Hour)
	require.NoError(t, err)

	for _, token := range []string{"", "garbage", other} {
		status, _ := f.doWithToken(token, http.MethodGet, "/api/users", nil)
		assert.Equal(t, http.StatusUnauthorized, status)

		status, _ = f.doWithToken(token, http.MethodPost, "/api/players", map[string]any{"name": "Intruder"})
		assert.Equal(t, http.StatusUnauthorized, status)

		status, _ = f.doWithToken(token, http.MethodDelete, "/api/session", nil)
		assert.Equal(t, http.StatusUnauthorized, status)
	}

	f.flush()
	assert.Equal(t, livesync.StateActive, f.engine.State())
	assert.Equal(t, "u1", f.sessions.Current())
	assert.Len(t, f.engine.Players().Current(), 1)

	base := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws?collections=players"
	_, resp, err := websocket.DefaultDialer.Dial(base, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// browsers pass the token in the query string
	conn, resp, err := websocket.DefaultDialer.Dial(base+"&access_token="+f.token, nil)
	require.NoError(t, err)
	resp.Body.Close()
	conn.Close()
}
