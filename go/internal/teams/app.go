package teams

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/mcdev12/leaguesync/go/internal/livesync"
	"github.com/mcdev12/leaguesync/go/internal/models"
	"github.com/rs/zerolog/log"
)

// TeamsRepository defines what the app layer needs from the repository
type TeamsRepository interface {
	CreateTeam(ctx context.Context, rec models.TeamRecord) (string, error)
	GetTeam(ctx context.Context, id string) (models.TeamRecord, error)
	UpdateTeam(ctx context.Context, rec models.TeamRecord) error
	SetPlayers(ctx context.Context, id string, playerIDs []string) error
	DeleteTeam(ctx context.Context, id string) error
}

// App handles teams business logic
type App struct {
	repo    TeamsRepository
	live    *livesync.Stream[models.Team]
	players *livesync.Stream[models.Player]
}

// NewApp creates a new teams App. live is the resolved teams list; players is
// used to resolve teams read straight from the store.
func NewApp(repo TeamsRepository, live *livesync.Stream[models.Team], players *livesync.Stream[models.Player]) *App {
	return &App{
		repo:    repo,
		live:    live,
		players: players,
	}
}

// Live is the synchronized teams list, rosters resolved
func (a *App) Live() *livesync.Stream[models.Team] {
	return a.live
}

// CreateTeam creates a new team and returns its id
func (a *App) CreateTeam(ctx context.Context, req CreateTeamRequest) (string, error) {
	if err := validateName(req.Name); err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrValidation, err)
	}

	id, err := a.repo.CreateTeam(ctx, req.record())
	if err != nil {
		return "", err
	}

	log.Info().Str("team_id", id).Str("name", req.Name).Int("players", len(req.PlayerIDs)).Msg("created team")
	return id, nil
}

// GetTeam reads a team from the store and resolves its roster against the
// current players list
func (a *App) GetTeam(ctx context.Context, id string) (models.Team, error) {
	rec, err := a.repo.GetTeam(ctx, id)
	if err != nil {
		return models.Team{}, err
	}
	return livesync.ResolveTeam(rec, a.players.Current()), nil
}

// FindTeam looks a team up in the current live list
func (a *App) FindTeam(id string) (models.Team, bool) {
	i := slices.IndexFunc(a.live.Current(), func(t models.Team) bool { return t.UUID == id })
	if i < 0 {
		return models.Team{}, false
	}
	return a.live.Current()[i], true
}

// UpdateTeam writes the team back with its roster as player uuids. Players
// that did not resolve are not part of team.Players and are therefore
// dropped from the stored roster.
func (a *App) UpdateTeam(ctx context.Context, team models.Team) error {
	if err := models.RequireID(models.CollectionTeams, team.UUID); err != nil {
		return err
	}
	if err := validateName(team.Name); err != nil {
		return fmt.Errorf("%w: %w", models.ErrValidation, err)
	}
	return a.repo.UpdateTeam(ctx, team.Record())
}

// SetRoster replaces the team's roster with playerIDs, in that order
func (a *App) SetRoster(ctx context.Context, teamID string, playerIDs []string) error {
	if err := models.RequireID(models.CollectionTeams, teamID); err != nil {
		return err
	}
	if err := a.repo.SetPlayers(ctx, teamID, playerIDs); err != nil {
		return err
	}
	log.Debug().Str("team_id", teamID).Int("players", len(playerIDs)).Msg("set team roster")
	return nil
}

// DeleteTeam removes the team. Games referencing it resolve that side to nil.
func (a *App) DeleteTeam(ctx context.Context, team models.Team) error {
	if err := models.RequireID(models.CollectionTeams, team.UUID); err != nil {
		return err
	}
	if err := a.repo.DeleteTeam(ctx, team.UUID); err != nil {
		return err
	}
	log.Info().Str("team_id", team.UUID).Msg("deleted team")
	return nil
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}
