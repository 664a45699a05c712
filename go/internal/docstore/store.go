package docstore

import (
	"context"
	"errors"

	"github.com/mcdev12/leaguesync/go/internal/models"
)

var (
	// ErrNotFound is returned when a document does not exist
	ErrNotFound = errors.New("document not found")
	// ErrClosed is returned by stores and feeds after Close
	ErrClosed = errors.New("store closed")
)

// SnapshotHandler receives the complete, current contents of a collection.
// Handlers must not call back into the store synchronously.
type SnapshotHandler func(docs []models.RawDocument)

// ErrorHandler receives failures of the push channel
type ErrorHandler func(err error)

// Unsubscribe releases a subscription. It is safe to call more than once and
// returns once no further snapshots will be delivered.
type Unsubscribe func()

// DocumentStore is the remote document database the engine synchronizes from
type DocumentStore interface {
	Subscribe(ctx context.Context, collection string, onSnapshot SnapshotHandler, onError ErrorHandler) (Unsubscribe, error)
	Backend
}

// Backend is the request/response half of a document store
type Backend interface {
	Get(ctx context.Context, collection, id string) (models.RawDocument, error)
	GetAll(ctx context.Context, collection string) ([]models.RawDocument, error)
	// Create stores attrs under a store-generated id and returns it
	Create(ctx context.Context, collection string, attrs map[string]any) (string, error)
	// CreateWithID stores attrs under id, replacing any existing document
	CreateWithID(ctx context.Context, collection string, attrs map[string]any, id string) error
	// Update merges attrs into an existing document
	Update(ctx context.Context, collection string, attrs map[string]any, id string) error
	UpdateField(ctx context.Context, collection, id, field string, value any) error
	Delete(ctx context.Context, collection, id string) error
}
