package games

import (
	"context"
	"fmt"
	"time"

	"github.com/mcdev12/leaguesync/go/internal/livesync"
	"github.com/mcdev12/leaguesync/go/internal/models"
	"github.com/rs/zerolog/log"
)

// GamesRepository defines what the app layer needs from the repository
type GamesRepository interface {
	CreateGame(ctx context.Context, rec models.GameRecord) (string, error)
	GetGame(ctx context.Context, id string) (models.GameRecord, error)
	UpdateGame(ctx context.Context, rec models.GameRecord) error
	DeleteGame(ctx context.Context, id string) error
}

// CreateGameRequest references both sides by team uuid
type CreateGameRequest struct {
	GameDate    time.Time
	LocalID     string
	LocalRuns   int
	VisitorID   string
	VisitorRuns int
	Story       string
}

// App handles games business logic
type App struct {
	repo  GamesRepository
	live  *livesync.Stream[models.Game]
	teams *livesync.Stream[models.Team]
}

// NewApp creates a new games App. teams must be the resolved teams list so
// games read from the store resolve down to players.
func NewApp(repo GamesRepository, live *livesync.Stream[models.Game], teams *livesync.Stream[models.Team]) *App {
	return &App{
		repo:  repo,
		live:  live,
		teams: teams,
	}
}

// Live is the synchronized games list, both sides resolved
func (a *App) Live() *livesync.Stream[models.Game] {
	return a.live
}

// CreateGame creates a new game and returns its id
func (a *App) CreateGame(ctx context.Context, req CreateGameRequest) (string, error) {
	rec := models.GameRecord{
		GameDate:    req.GameDate,
		LocalID:     req.LocalID,
		LocalRuns:   req.LocalRuns,
		VisitorID:   req.VisitorID,
		VisitorRuns: req.VisitorRuns,
		Story:       req.Story,
	}
	if err := validateGame(rec); err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrValidation, err)
	}

	id, err := a.repo.CreateGame(ctx, rec)
	if err != nil {
		return "", err
	}

	log.Info().
		Str("game_id", id).
		Str("local", req.LocalID).
		Str("visitor", req.VisitorID).
		Msg("created game")
	return id, nil
}

// GetGame reads a game from the store and resolves it against the current
// teams list
func (a *App) GetGame(ctx context.Context, id string) (models.Game, error) {
	rec, err := a.repo.GetGame(ctx, id)
	if err != nil {
		return models.Game{}, err
	}
	index := livesync.Index(a.teams.Current(), func(t models.Team) string { return t.UUID })
	return livesync.ResolveGame(rec, index), nil
}

// FindGame looks a game up in the current live list
func (a *App) FindGame(id string) (models.Game, bool) {
	for _, g := range a.live.Current() {
		if g.UUID == id {
			return g, true
		}
	}
	return models.Game{}, false
}

// UpdateGame writes the game back with both sides as team uuids. A side that
// did not resolve is written as an empty reference.
func (a *App) UpdateGame(ctx context.Context, game models.Game) error {
	if err := models.RequireID(models.CollectionGames, game.UUID); err != nil {
		return err
	}
	rec := game.Record()
	if err := validateGame(rec); err != nil {
		return fmt.Errorf("%w: %w", models.ErrValidation, err)
	}
	return a.repo.UpdateGame(ctx, rec)
}

// SetScore updates only the runs of both sides, keeping the stored team
// references even when they do not resolve right now
func (a *App) SetScore(ctx context.Context, id string, localRuns, visitorRuns int) error {
	if err := models.RequireID(models.CollectionGames, id); err != nil {
		return err
	}
	rec, err := a.repo.GetGame(ctx, id)
	if err != nil {
		return err
	}
	rec.LocalRuns = localRuns
	rec.VisitorRuns = visitorRuns
	if err := validateGame(rec); err != nil {
		return fmt.Errorf("%w: %w", models.ErrValidation, err)
	}
	return a.repo.UpdateGame(ctx, rec)
}

// DeleteGame removes the game. Votes cast on it are left in place.
func (a *App) DeleteGame(ctx context.Context, game models.Game) error {
	if err := models.RequireID(models.CollectionGames, game.UUID); err != nil {
		return err
	}
	if err := a.repo.DeleteGame(ctx, game.UUID); err != nil {
		return err
	}
	log.Info().Str("game_id", game.UUID).Msg("deleted game")
	return nil
}

func validateGame(rec models.GameRecord) error {
	if rec.GameDate.IsZero() {
		return fmt.Errorf("game date is required")
	}
	if rec.LocalRuns < 0 || rec.VisitorRuns < 0 {
		return fmt.Errorf("runs cannot be negative")
	}
	if rec.LocalID != "" && rec.LocalID == rec.VisitorID {
		return fmt.Errorf("a team cannot play itself")
	}
	return nil
}
