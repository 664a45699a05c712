package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/mcdev12/leaguesync/go/internal/docstore"
	"github.com/mcdev12/leaguesync/go/internal/models"
	"github.com/mcdev12/leaguesync/go/internal/schema"
)

var (
	// ErrUserNotFound is returned by GetUser when no user has the requested id
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

// Store defines what the repository needs from the document store
type Store interface {
	Get(ctx context.Context, collection, id string) (models.RawDocument, error)
	Create(ctx context.Context, collection string, attrs map[string]any) (string, error)
	CreateWithID(ctx context.Context, collection string, attrs map[string]any, id string) error
	Update(ctx context.Context, collection string, attrs map[string]any, id string) error
	UpdateField(ctx context.Context, collection, id, field string, value any) error
	Delete(ctx context.Context, collection, id string) error
}

// Repository implements user data access over the users collection
type Repository struct {
	store     Store
	validator *schema.Validator
}

// NewRepository creates a new users repository
func NewRepository(store Store, validator *schema.Validator) *Repository {
	return &Repository{
		store:     store,
		validator: validator,
	}
}

// CreateProfile stores a user with only a name and a nickname
func (r *Repository) CreateProfile(ctx context.Context, u models.User) (string, error) {
	id, err := r.store.Create(ctx, models.CollectionUsers, schema.UserProfileAttributes(u))
	if err != nil {
		return "", fmt.Errorf("failed to create user: %w", err)
	}
	return id, nil
}

// CreateUserWithID stores the full user under the account's own id
func (r *Repository) CreateUserWithID(ctx context.Context, u models.User) error {
	if err := r.store.CreateWithID(ctx, models.CollectionUsers, schema.UserAttributes(u), u.UUID); err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}
	return nil
}

func (r *Repository) GetUser(ctx context.Context, id string) (models.User, error) {
	doc, err := r.store.Get(ctx, models.CollectionUsers, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return models.User{}, fmt.Errorf("%w: %s", ErrUserNotFound, id)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	return r.validator.ParseUser(doc)
}

func (r *Repository) UpdateUser(ctx context.Context, u models.User) error {
	if err := r.store.Update(ctx, models.CollectionUsers, schema.UserAttributes(u), u.UUID); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// SetFlag updates a single boolean field such as isAdmin
func (r *Repository) SetFlag(ctx context.Context, id, field string, value bool) error {
	if err := r.store.UpdateField(ctx, models.CollectionUsers, id, field, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", field, err)
	}
	return nil
}

func (r *Repository) DeleteUser(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, models.CollectionUsers, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
