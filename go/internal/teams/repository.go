package teams

import (
	"context"
	"errors"
	"fmt"

	"github.com/mcdev12/leaguesync/go/internal/docstore"
	"github.com/mcdev12/leaguesync/go/internal/models"
	"github.com/mcdev12/leaguesync/go/internal/schema"
)

// ErrTeamNotFound is returned by GetTeam when no team has the requested id
var ErrTeamNotFound = errors.New("team not found")

// Store defines what the repository needs from the document store
type Store interface {
	Get(ctx context.Context, collection, id string) (models.RawDocument, error)
	Create(ctx context.Context, collection string, attrs map[string]any) (string, error)
	Update(ctx context.Context, collection string, attrs map[string]any, id string) error
	UpdateField(ctx context.Context, collection, id, field string, value any) error
	Delete(ctx context.Context, collection, id string) error
}

// Repository implements team data access over the teams collection
type Repository struct {
	store     Store
	validator *schema.Validator
}

// NewRepository creates a new teams repository
func NewRepository(store Store, validator *schema.Validator) *Repository {
	return &Repository{
		store:     store,
		validator: validator,
	}
}

func (r *Repository) CreateTeam(ctx context.Context, rec models.TeamRecord) (string, error) {
	id, err := r.store.Create(ctx, models.CollectionTeams, schema.TeamAttributes(rec))
	if err != nil {
		return "", fmt.Errorf("failed to create team: %w", err)
	}
	return id, nil
}

// GetTeam returns the stored form of a team, with players as uuids
func (r *Repository) GetTeam(ctx context.Context, id string) (models.TeamRecord, error) {
	doc, err := r.store.Get(ctx, models.CollectionTeams, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return models.TeamRecord{}, fmt.Errorf("%w: %s", ErrTeamNotFound, id)
	}
	if err != nil {
		return models.TeamRecord{}, fmt.Errorf("failed to get team: %w", err)
	}
	return r.validator.ParseTeam(doc)
}

func (r *Repository) UpdateTeam(ctx context.Context, rec models.TeamRecord) error {
	if err := r.store.Update(ctx, models.CollectionTeams, schema.TeamAttributes(rec), rec.UUID); err != nil {
		return fmt.Errorf("failed to update team: %w", err)
	}
	return nil
}

// SetPlayers replaces only the roster field
func (r *Repository) SetPlayers(ctx context.Context, id string, playerIDs []string) error {
	if playerIDs == nil {
		playerIDs = []string{}
	}
	if err := r.store.UpdateField(ctx, models.CollectionTeams, id, "players", playerIDs); err != nil {
		return fmt.Errorf("failed to set team players: %w", err)
	}
	return nil
}

func (r *Repository) DeleteTeam(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, models.CollectionTeams, id); err != nil {
		return fmt.Errorf("failed to delete team: %w", err)
	}
	return nil
}
