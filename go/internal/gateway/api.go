package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mcdev12/leaguesync/go/internal/games"
	"github.com/mcdev12/leaguesync/go/internal/livesync"
	"github.com/mcdev12/leaguesync/go/internal/models"
	"github.com/mcdev12/leaguesync/go/internal/players"
	"github.com/mcdev12/leaguesync/go/internal/teams"
	"github.com/mcdev12/leaguesync/go/internal/users"
	"github.com/mcdev12/leaguesync/go/internal/votes"
	"github.com/rs/zerolog/log"
)

// SessionManager is the session surface the gateway drives
type SessionManager interface {
	Login(ctx context.Context, token string) (string, error)
	Logout(ctx context.Context) error
	Current() string
	ExpiresAt() (time.Time, bool)
	// Authorize returns the signed-in user when token is theirs
	Authorize(token string) (string, error)
}

// EngineStatus reports the sync engine lifecycle
type EngineStatus interface {
	State() livesync.State
	UserID() string
}

// API serves the REST surface over the façades
type API struct {
	Players  *players.App
	Teams    *teams.App
	Games    *games.App
	Votes    *votes.App
	Users    *users.App
	Sessions SessionManager
	Engine   EngineStatus
}

// Routes mounts the API under r
func (a *API) Routes(r chi.Router) {
	r.Get("/status", a.handleStatus)
	r.Post("/session", a.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(a.requireSession)

		r.Delete("/session", a.handleLogout)

		r.Post("/register", a.handleRegister)

		r.Route("/players", func(r chi.Router) {
			r.Get("/", a.listPlayers)
			r.Post("/", a.createPlayer)
			r.Get("/{id}", a.getPlayer)
			r.Put("/{id}", a.updatePlayer)
			r.Delete("/{id}", a.deletePlayer)
		})
		r.Route("/teams", func(r chi.Router) {
			r.Get("/", a.listTeams)
			r.Post("/", a.createTeam)
			r.Get("/{id}", a.getTeam)
			r.Put("/{id}", a.updateTeam)
			r.Delete("/{id}", a.deleteTeam)
			r.Put("/{id}/roster", a.setRoster)
		})
		r.Route("/games", func(r chi.Router) {
			r.Get("/", a.listGames)
			r.Post("/", a.createGame)
			r.Get("/{id}", a.getGame)
			r.Put("/{id}", a.updateGame)
			r.Delete("/{id}", a.deleteGame)
			r.Put("/{id}/score", a.setScore)
			r.Get("/{id}/tally", a.getTally)
		})
		r.Route("/votes", func(r chi.Router) {
			r.Get("/", a.listVotes)
			r.Post("/", a.castVote)
			r.Put("/{id}", a.updateVote)
			r.Delete("/{id}", a.deleteVote)
		})
		r.Route("/users", func(r chi.Router) {
			r.Get("/", a.listUsers)
			r.Post("/", a.createUser)
			r.Get("/{id}", a.getUser)
			r.Put("/{id}", a.updateUser)
			r.Delete("/{id}", a.deleteUser)
			r.Get("/{id}/status", a.getUserStatus)
			r.Put("/{id}/admin", a.setAdmin)
			r.Put("/{id}/owner", a.setOwner)
		})
	})
}

func (a *API) respond(w http.ResponseWriter, r *http.Request, status int, data any) {
	if err := writeJSON(w, status, data, nil); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write response")
	}
}

func (a *API) created(w http.ResponseWriter, r *http.Request, id string) {
	a.respond(w, r, http.StatusCreated, jsonResponse{"id": id})
}

// accepted answers writes: the new state arrives through the live lists
func (a *API) accepted(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// session

type loginRequest struct {
	Token string `json:"token"`
}

type statusResponse struct {
	State     string            `json:"state"`
	UserID    string            `json:"user_id,omitempty"`
	ExpiresAt *time.Time        `json:"expires_at,omitempty"`
	Counts    map[string]int    `json:"counts"`
	Versions  map[string]uint64 `json:"versions"`
}

func (a *API) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		State:    a.Engine.State().String(),
		UserID:   a.Engine.UserID(),
		Counts:   make(map[string]int),
		Versions: make(map[string]uint64),
	}
	if exp, ok := a.Sessions.ExpiresAt(); ok {
		resp.ExpiresAt = &exp
	}
	count(resp, a.Players.Live())
	count(resp, a.Teams.Live())
	count(resp, a.Games.Live())
	count(resp, a.Votes.Live())
	count(resp, a.Users.Live())
	a.respond(w, r, http.StatusOK, resp)
}

func count[T any](resp statusResponse, s *livesync.Stream[T]) {
	items, version := s.Snapshot()
	resp.Counts[s.Name()] = len(items)
	resp.Versions[s.Name()] = version
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	userID, err := a.Sessions.Login(r.Context(), req.Token)
	if err != nil && userID == "" {
		mapErrorToHTTP(w, r, err)
		return
	}

	resp := jsonResponse{"user_id": userID}
	if err != nil {
		// signed in, but some collections are not syncing
		resp["warning"] = err.Error()
	}
	if exp, ok := a.Sessions.ExpiresAt(); ok {
		resp["expires_at"] = exp
	}
	a.respond(w, r, http.StatusOK, resp)
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := a.Sessions.Logout(r.Context()); err != nil {
		mapErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req users.RegisterRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	uid := userIDFrom(r.Context())
	if err := a.Users.Register(r.Context(), uid, req); err != nil {
		mapErrorToHTTP(w, r, err)
		return
	}
	a.created(w, r, uid)
}

// players

func (a *API) listPlayers(w http.ResponseWriter, r *http.Request) {
	a.respond(w, r, http.StatusOK, a.Players.Live().Current())
}

func (a *API) createPlayer(w http.ResponseWriter, r *http.Request) {
	var p models.Player
	if err := readJSON(w, r, &p); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	id, err := a.Players.CreatePlayer(r.Context(), p)
	if err != nil {
		mapErrorToHTTP(w, r, err)
		return
	}
	a.created(w, r, id)
}

func (a *API) getPlayer(w http.ResponseWriter, r *http.Request) {
	p, err := a.Players.GetPlayer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		mapErrorToHTTP(w, r, err)
		return
	}
	a.respond(w, r, http.StatusOK, p)
}

func (a *API) updatePlayer(w http.ResponseWriter, r *http.Request) {
	var p models.Player
	if err := readJSON(w, r, &p); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	p.UUID = chi.URLParam(r, "id")
	if err := a.Players.UpdatePlayer(r.Context(), p); err != nil {
		mapErrorToHTTP(w, r, err)
		return
	}
	a.accepted(w, r)
}

func (a *API) deletePlayer(w http.ResponseWriter, r *http.Request) {
	if err := a.Players.DeletePlayer(r.Context(), models.Player{UUID: chi.URLParam(r, "id")}); err != nil {
		mapErrorToHTTP(w, r, err)
		return
	}
	a.accepted(w, r)
}

// teams

type teamRequest struct {
	Name     string           `json:"name"`
	Story    string           `json:"story"`
	ImageURL *models.MediaRef `json:"imageUrl"`
	Players  []string         `json:"players"`
	Trainers []models.Trainer `json:"trainers"`
}

// team builds a team whose roster carries only uuids, which is all a write
// needs
func (req teamRequest) team(id string) models.Team {
	roster := make([]models.Player, 0, len(req.Players))
	for _, pid := range req.Players {
		roster = append(roster, models.Player{UUID: pid})
	}
	return models.Team{
		UUID:     id,
		Name:     req.Name,
		Story:    req.Story,
		ImageURL: req.ImageURL,
		Players:  roster,
		Trainers: req.Trainers,
	}
}

type rosterRequest struct {
	Players []string `json:"players"`
}

func (a *API) listTeams(w http.ResponseWriter, r *http.Request) {
	a.respond(w, r, http.StatusOK, a.Teams.Live().Current())
}

func (a *API) createTeam(w http.ResponseWriter, r *http.Request) {
	var req teamRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	id, err := a.Teams.CreateTeam(r.Context(), teams.CreateTeamRequest{
		Name:      req.Name,
		Story:     req.Story,
		ImageURL:  req.ImageURL,
		PlayerIDs: req.Players,
		Trainers:  req.Trainers,
	})
	if err != nil {
		mapErrorToHTTP(w, r, err)
		return
	}
	a.created(w, r, id)
}

func (a *API) getTeam(w http.ResponseWriter, r *http.Request) {
	t, err := a.Teams.GetTeam(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		mapErrorToHTTP(w, r, err)
		return
	}
	a.respond(w, r, http.StatusOK, t)
}

func (a *API) updateTeam(w http.ResponseWriter, r *http.Request) {
	var req teamRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := a.Teams.UpdateTeam(r.Context(), req.team(chi.URLParam(r, "id"))); err != nil {
		mapErrorToHTTP(w, r, err)
		return
	}
	a.accepted(w, r)
}

func (a *API) deleteTeam(w http.ResponseWriter, r *http.Request) {
	if err := a.Teams.DeleteTeam(r.Context(), models.Team{UUID: chi.URLParam(r, "id")}); err != nil {
		mapErrorToHTTP(w, r, err)
		return
	}
	a.accepted(w, r)
}

func (a *API) setRoster(w http.ResponseWriter, r *http.Request) {
	var req rosterRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := a.Teams.SetRoster(r.Context(), chi.URLParam(r, "id"), req.Players); err != nil {
		mapErrorToHTTP(w, r, err)
		return
	}
	a.accepted(w, r)
}

// games

type gameRequest struct {
	GameDate    string `json:"gameDate"`
	Local       string `json:"local"`
	LocalRuns   int    `json:"localRuns"`
	Visitor     string `json:"visitor"`
	VisitorRuns int    `json:"visitorRuns"`
	Story       string `json:"story"`
}

func (req gameRequest) date() (time.Time, error) {
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, req.GameDate); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: gameDate must be YYYY-MM-DD or RFC 3339", models.ErrValidation)
}

type scoreRequest struct {
	LocalRuns   int `json:"localRuns"`
	VisitorRuns int `json:"visitorRuns"`
}

func (a *API) listGames(w http.ResponseWriter, r *http.Request) {
	a.respond(w, r, http.StatusOK, a.Games.Live().Current())
}

func (a *API) createGame(w http.ResponseWriter, r *http.Request) {
	var req gameRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	date, err := req.date()
	if err != nil {
		mapErrorToHTTP(w, r, err)
		return
	}
	id, err := a.Games.CreateGame(r.Context(), games.CreateGameRequest{
		GameDate:    date,
		LocalID:     req.Local,
		LocalRuns:   req.LocalRuns,
		VisitorID:   req.Visitor,
		VisitorRuns: req.VisitorRuns,
		Story:       req.Story,
	})
	if err != nil {
		mapErrorToHTTP(w, r, err)
		return
	}
	a.created(w, r, id)
}

func (a *API) getGame(w http.ResponseWriter, r *http.Request) {
	g, err := a.Games.GetGame(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		mapErrorToHTTP(w, r, err)
		return
	}
	a.respond(w, r, http.StatusOK, g)
}

func (a *API) updateGame(w http.ResponseWriter, r *http.Request) {
	var req gameRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	date, err := req.date()
	if err != nil {
		mapErrorToHTTP(w, r, err)
		return
	}
	game := models.Game{
		UUID:        chi.URLParam(r, "id"),
		GameDate:    date,
		LocalRuns:   req.LocalRuns,
		VisitorRuns: req.VisitorRuns,
		Story:       req.Story,
	}
	if req.Local != "" {
		game.Local = &models.Team{UUID: req.Local}
	}
	if req.Visitor != "" {
		game.Visitor = &models.Team{UUID: req.Visitor}
	}
	if err := a.Games.UpdateGame(r.Context(), game); err != nil {
		mapErrorToHTTP(w, r, err)
		return
	}
	a.accepted(w, r)
}

func (a *API) deleteGame(w http.ResponseWriter, r *http.Request) {
	if err := a.Games.DeleteGame(r.Context(), models.Game{UUID: chi.URLParam(r, "id")}); err != nil {
		mapErrorToHTTP(w, r, err)
		return
	}
	a.accepted(w, r)
}

func (a *API) setScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := a.Games.SetScore(r.Context(), chi.URLParam(r, "id"), req.LocalRuns, req.VisitorRuns); err != nil {
		mapErrorToHTTP(w, r, err)
		return
	}
	a.accepted(w, r)
}

func (a *API) getTally(w http.ResponseWriter, r *http.Request) {
	a.respond(w, r, http.StatusOK, a.Votes.Tally(chi.URLParam(r, "id")))
}

// votes

func (a *API) listVotes(w http.ResponseWriter, r *http.Request) {
	a.respond(w, r, http.StatusOK, a.Votes.Live().Current())
}

func (a *API) castVote(w http.ResponseWriter, r *http.Request) {
	var v models.Vote
	if err := readJSON(w, r, &v); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if v.User == "" {
		v.User = userIDFrom(r.Context())
	}
	id, err := a.Votes.CastVote(r.Context(), v)
	if err != nil {
		mapErrorToHTTP(w, r, err)
		return
	}
	a.created(w, r, id)
}

func (a *API) updateVote(w http.ResponseWriter, r *http.Request) {
	var v models.Vote
	if err := readJSON(w, r, &v); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	v.UUID = chi.URLParam(r, "id")
	if err := a.Votes.UpdateVote(r.Context(), v); err != nil {
		mapErrorToHTTP(w, r, err)
		return
	}
	a.accepted(w, r)
}

func (a *API) deleteVote(w http.ResponseWriter, r *http.Request) {
	if err := a.Votes.DeleteVote(r.Context(), models.Vote{UUID: chi.URLParam(r, "id")}); err != nil {
		mapErrorToHTTP(w, r, err)
		return
	}
	a.accepted(w, r)
}

// users

type adminRequest struct {
	IsAdmin bool `json:"isAdmin"`
}

type ownerRequest struct {
	IsOwner bool `json:"isOwner"`
}

func (a *API) listUsers(w http.ResponseWriter, r *http.Request) {
	a.respond(w, r, http.StatusOK, a.Users.Live().Current())
}

func (a *API) createUser(w http.ResponseWriter, r *http.Request) {
	var u models.User
	if err := readJSON(w, r, &u); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	id, err := a.Users.CreateUser(r.Context(), u)
	if err != nil {
		mapErrorToHTTP(w, r, err)
		return
	}
	a.created(w, r, id)
}

func (a *API) getUser(w http.ResponseWriter, r *http.Request) {
	u, err := a.Users.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		mapErrorToHTTP(w, r, err)
		return
	}
	a.respond(w, r, http.StatusOK, u)
}

func (a *API) updateUser(w http.ResponseWriter, r *http.Request) {
	var u models.User
	if err := readJSON(w, r, &u); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	u.UUID = chi.URLParam(r, "id")
	if err := a.Users.UpdateUser(r.Context(), u); err != nil {
		mapErrorToHTTP(w, r, err)
		return
	}
	a.accepted(w, r)
}

func (a *API) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := a.Users.DeleteUser(r.Context(), models.User{UUID: chi.URLParam(r, "id")}); err != nil {
		mapErrorToHTTP(w, r, err)
		return
	}
	a.accepted(w, r)
}

func (a *API) getUserStatus(w http.ResponseWriter, r *http.Request) {
	a.respond(w, r, http.StatusOK, a.Users.Status(chi.URLParam(r, "id")))
}

func (a *API) setAdmin(w http.ResponseWriter, r *http.Request) {
	var req adminRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := a.Users.SetAdmin(r.Context(), chi.URLParam(r, "id"), req.IsAdmin); err != nil {
		mapErrorToHTTP(w, r, err)
		return
	}
	a.accepted(w, r)
}

func (a *API) setOwner(w http.ResponseWriter, r *http.Request) {
	var req ownerRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := a.Users.SetOwner(r.Context(), chi.URLParam(r, "id"), req.IsOwner); err != nil {
		mapErrorToHTTP(w, r, err)
		return
	}
	a.accepted(w, r)
}
