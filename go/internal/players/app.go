package players

import (
	"context"
	"fmt"
	"strings"

	"github.com/mcdev12/leaguesync/go/internal/livesync"
	"github.com/mcdev12/leaguesync/go/internal/models"
	"github.com/rs/zerolog/log"
)

// PlayersRepository defines what the app layer needs from the repository
type PlayersRepository interface {
	CreatePlayer(ctx context.Context, p models.Player) (string, error)
	GetPlayer(ctx context.Context, id string) (models.Player, error)
	UpdatePlayer(ctx context.Context, p models.Player) error
	DeletePlayer(ctx context.Context, id string) error
}

// App handles players business logic. Writes go to the store; the new list
// arrives through Live once the store pushes it.
type App struct {
	repo PlayersRepository
	live *livesync.Stream[models.Player]
}

// NewApp creates a new players App
func NewApp(repo PlayersRepository, live *livesync.Stream[models.Player]) *App {
	return &App{
		repo: repo,
		live: live,
	}
}

// Live is the synchronized players list
func (a *App) Live() *livesync.Stream[models.Player] {
	return a.live
}

// CreatePlayer creates a new player and returns its id
func (a *App) CreatePlayer(ctx context.Context, p models.Player) (string, error) {
	if err := validatePlayer(p); err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrValidation, err)
	}

	id, err := a.repo.CreatePlayer(ctx, p)
	if err != nil {
		return "", err
	}

	log.Info().Str("player_id", id).Str("name", p.Name).Msg("created player")
	return id, nil
}

// GetPlayer reads a player from the store, bypassing the live list
func (a *App) GetPlayer(ctx context.Context, id string) (models.Player, error) {
	return a.repo.GetPlayer(ctx, id)
}

// FindPlayer looks a player up in the current live list
func (a *App) FindPlayer(id string) (models.Player, bool) {
	for _, p := range a.live.Current() {
		if p.UUID == id {
			return p, true
		}
	}
	return models.Player{}, false
}

// UpdatePlayer overwrites the player's attributes
func (a *App) UpdatePlayer(ctx context.Context, p models.Player) error {
	if err := models.RequireID(models.CollectionPlayers, p.UUID); err != nil {
		return err
	}
	if err := validatePlayer(p); err != nil {
		return fmt.Errorf("%w: %w", models.ErrValidation, err)
	}
	return a.repo.UpdatePlayer(ctx, p)
}

// DeletePlayer removes the player. Teams keep the dangling id; it drops out
// of their resolved rosters.
func (a *App) DeletePlayer(ctx context.Context, p models.Player) error {
	if err := models.RequireID(models.CollectionPlayers, p.UUID); err != nil {
		return err
	}
	if err := a.repo.DeletePlayer(ctx, p.UUID); err != nil {
		return err
	}
	log.Info().Str("player_id", p.UUID).Msg("deleted player")
	return nil
}

func validatePlayer(p models.Player) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("name is required")
	}
	for _, id := range p.Positions {
		if !models.Position(id).Valid() {
			return fmt.Errorf("unknown position %d", id)
		}
	}
	return nil
}
