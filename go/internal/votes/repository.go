package votes

import (
	"context"
	"fmt"

	"github.com/mcdev12/leaguesync/go/internal/models"
	"github.com/mcdev12/leaguesync/go/internal/schema"
)

// Store defines what the repository needs from the document store
type Store interface {
	Create(ctx context.Context, collection string, attrs map[string]any) (string, error)
	Update(ctx context.Context, collection string, attrs map[string]any, id string) error
	Delete(ctx context.Context, collection, id string) error
}

// Repository implements vote data access over the votes collection
type Repository struct {
	store Store
}

// NewRepository creates a new votes repository
func NewRepository(store Store) *Repository {
	return &Repository{store: store}
}

func (r *Repository) CreateVote(ctx context.Context, v models.Vote) (string, error) {
	id, err := r.store.Create(ctx, models.CollectionVotes, schema.VoteAttributes(v))
	if err != nil {
		return "", fmt.Errorf("failed to create vote: %w", err)
	}
	return id, nil
}

func (r *Repository) UpdateVote(ctx context.Context, v models.Vote) error {
	if err := r.store.Update(ctx, models.CollectionVotes, schema.VoteAttributes(v), v.UUID); err != nil {
		return fmt.Errorf("failed to update vote: %w", err)
	}
	return nil
}

func (r *Repository) DeleteVote(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, models.CollectionVotes, id); err != nil {
		return fmt.Errorf("failed to delete vote: %w", err)
	}
	return nil
}
