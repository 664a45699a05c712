package games

import (
	"context"
	"errors"
	"fmt"

	"github.com/mcdev12/leaguesync/go/internal/docstore"
	"github.com/mcdev12/leaguesync/go/internal/models"
	"github.com/mcdev12/leaguesync/go/internal/schema"
)

// ErrGameNotFound is returned by GetGame when no game has the requested id
var ErrGameNotFound = errors.New("game not found")

// Store defines what the repository needs from the document store
type Store interface {
	Get(ctx context.Context, collection, id string) (models.RawDocument, error)
	Create(ctx context.Context, collection string, attrs map[string]any) (string, error)
	Update(ctx context.Context, collection string, attrs map[string]any, id string) error
	Delete(ctx context.Context, collection, id string) error
}

// Repository implements game data access over the games collection
type Repository struct {
	store     Store
	validator *schema.Validator
}

// NewRepository creates a new games repository
func NewRepository(store Store, validator *schema.Validator) *Repository {
	return &Repository{
		store:     store,
		validator: validator,
	}
}

func (r *Repository) CreateGame(ctx context.Context, rec models.GameRecord) (string, error) {
	id, err := r.store.Create(ctx, models.CollectionGames, schema.GameAttributes(rec))
	if err != nil {
		return "", fmt.Errorf("failed to create game: %w", err)
	}
	return id, nil
}

func (r *Repository) GetGame(ctx context.Context, id string) (models.GameRecord, error) {
	doc, err := r.store.Get(ctx, models.CollectionGames, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return models.GameRecord{}, fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}
	if err != nil {
		return models.GameRecord{}, fmt.Errorf("failed to get game: %w", err)
	}
	return r.validator.ParseGame(doc)
}

// UpdateGame overwrites the stored attributes. The uuid is the document id
// and is not written.
func (r *Repository) UpdateGame(ctx context.Context, rec models.GameRecord) error {
	if err := r.store.Update(ctx, models.CollectionGames, schema.GameAttributes(rec), rec.UUID); err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}
	return nil
}

func (r *Repository) DeleteGame(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, models.CollectionGames, id); err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}
	return nil
}
