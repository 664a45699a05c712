package players

import (
	"context"
	"errors"
	"fmt"

	"github.com/mcdev12/leaguesync/go/internal/docstore"
	"github.com/mcdev12/leaguesync/go/internal/models"
	"github.com/mcdev12/leaguesync/go/internal/schema"
)

// Store defines what the repository needs from the document store
type Store interface {
	Get(ctx context.Context, collection, id string) (models.RawDocument, error)
	Create(ctx context.Context, collection string, attrs map[string]any) (string, error)
	Update(ctx context.Context, collection string, attrs map[string]any, id string) error
	Delete(ctx context.Context, collection, id string) error
}

// Repository maps players to documents in the players collection
type Repository struct {
	store     Store
	validator *schema.Validator
}

// NewRepository creates a new players repository
func NewRepository(store Store, validator *schema.Validator) *Repository {
	return &Repository{
		store:     store,
		validator: validator,
	}
}

// CreatePlayer stores a new player and returns its id
func (r *Repository) CreatePlayer(ctx context.Context, p models.Player) (string, error) {
	id, err := r.store.Create(ctx, models.CollectionPlayers, schema.PlayerAttributes(p))
	if err != nil {
		return "", fmt.Errorf("failed to create player: %w", err)
	}
	return id, nil
}

// GetPlayer reads one player straight from the store
func (r *Repository) GetPlayer(ctx context.Context, id string) (models.Player, error) {
	doc, err := r.store.Get(ctx, models.CollectionPlayers, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return models.Player{}, fmt.Errorf("%w: %s", ErrPlayerNotFound, id)
	}
	if err != nil {
		return models.Player{}, fmt.Errorf("failed to get player: %w", err)
	}
	return r.validator.ParsePlayer(doc)
}

func (r *Repository) UpdatePlayer(ctx context.Context, p models.Player) error {
	if err := r.store.Update(ctx, models.CollectionPlayers, schema.PlayerAttributes(p), p.UUID); err != nil {
		return fmt.Errorf("failed to update player: %w", err)
	}
	return nil
}

func (r *Repository) DeletePlayer(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, models.CollectionPlayers, id); err != nil {
		return fmt.Errorf("failed to delete player: %w", err)
	}
	return nil
}
