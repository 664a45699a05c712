package votes

import (
	"context"
	"fmt"
	"sync"

	"github.com/mcdev12/leaguesync/go/internal/livesync"
	"github.com/mcdev12/leaguesync/go/internal/models"
	"github.com/rs/zerolog/log"
)

// UnknownTeam is the tally key for votes whose team is not in the teams list
const UnknownTeam = "Unknown Team"

// VotesRepository defines what the app layer needs from the repository
type VotesRepository interface {
	CreateVote(ctx context.Context, v models.Vote) (string, error)
	UpdateVote(ctx context.Context, v models.Vote) error
	DeleteVote(ctx context.Context, id string) error
}

// Tally counts winner votes per team name
type Tally map[string]int

// App handles votes business logic. Votes are never resolved; tallies are
// computed against the live teams list.
type App struct {
	repo  VotesRepository
	live  *livesync.Stream[models.Vote]
	teams *livesync.Stream[models.Team]
}

// NewApp creates a new votes App
func NewApp(repo VotesRepository, live *livesync.Stream[models.Vote], teams *livesync.Stream[models.Team]) *App {
	return &App{
		repo:  repo,
		live:  live,
		teams: teams,
	}
}

// Live is the synchronized votes list
func (a *App) Live() *livesync.Stream[models.Vote] {
	return a.live
}

// CastVote stores a new vote and returns its id
func (a *App) CastVote(ctx context.Context, v models.Vote) (string, error) {
	if err := validateVote(v); err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrValidation, err)
	}

	id, err := a.repo.CreateVote(ctx, v)
	if err != nil {
		return "", err
	}

	log.Info().
		Str("vote_id", id).
		Str("game_id", v.Game).
		Str("category", v.Category).
		Msg("cast vote")
	return id, nil
}

func (a *App) UpdateVote(ctx context.Context, v models.Vote) error {
	if err := models.RequireID(models.CollectionVotes, v.UUID); err != nil {
		return err
	}
	if err := validateVote(v); err != nil {
		return fmt.Errorf("%w: %w", models.ErrValidation, err)
	}
	return a.repo.UpdateVote(ctx, v)
}

func (a *App) DeleteVote(ctx context.Context, v models.Vote) error {
	if err := models.RequireID(models.CollectionVotes, v.UUID); err != nil {
		return err
	}
	return a.repo.DeleteVote(ctx, v.UUID)
}

// ForGame returns the current winner-team votes of a game
func (a *App) ForGame(gameID string) []models.Vote {
	return winnerVotes(a.live.Current(), gameID)
}

// Tally counts the current winner-team votes of a game by team name
func (a *App) Tally(gameID string) Tally {
	return tally(a.live.Current(), a.teams.Current(), gameID)
}

// WatchTally calls fn with the game's tally now and every time the votes or
// the teams list changes, until cancel is called
func (a *App) WatchTally(gameID string, fn func(Tally)) (cancel func()) {
	var mu sync.Mutex
	var votes []models.Vote
	var teams []models.Team
	ready := false

	recompute := func() {
		if ready {
			fn(tally(votes, teams, gameID))
		}
	}

	cancelVotes := a.live.Subscribe(func(v []models.Vote) {
		mu.Lock()
		defer mu.Unlock()
		votes = v
		recompute()
	})
	cancelTeams := a.teams.Subscribe(func(t []models.Team) {
		mu.Lock()
		defer mu.Unlock()
		teams = t
		ready = true
		recompute()
	})

	return func() {
		cancelVotes()
		cancelTeams()
	}
}

func winnerVotes(all []models.Vote, gameID string) []models.Vote {
	out := make([]models.Vote, 0)
	for _, v := range all {
		if v.Game == gameID && v.Category == models.VoteCategoryWinnerTeam {
			out = append(out, v)
		}
	}
	return out
}

func tally(votes []models.Vote, teams []models.Team, gameID string) Tally {
	names := make(map[string]string, len(teams))
	for _, t := range teams {
		names[t.UUID] = t.Name
	}

	out := make(Tally)
	for _, v := range winnerVotes(votes, gameID) {
		name, ok := names[v.Reference]
		if !ok {
			name = UnknownTeam
		}
		out[name]++
	}
	return out
}

func validateVote(v models.Vote) error {
	if v.Game == "" {
		return fmt.Errorf("game is required")
	}
	if v.Category == "" {
		return fmt.Errorf("category is required")
	}
	if v.Reference == "" {
		return fmt.Errorf("reference is required")
	}
	return nil
}
