package docstore

import (
	"context"
	"fmt"
	"sync"

	"cloud.google.com/go/firestore"
	"github.com/mcdev12/leaguesync/go/internal/models"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore is a DocumentStore over Cloud Firestore. Each collection
// maps to a top-level Firestore collection.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore dials Firestore for projectID
func NewFirestoreStore(ctx context.Context, projectID string, opts ...option.ClientOption) (*FirestoreStore, error) {
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return &FirestoreStore{client: client}, nil
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

func (s *FirestoreStore) Subscribe(ctx context.Context, collection string, onSnapshot SnapshotHandler, onError ErrorHandler) (Unsubscribe, error) {
	subCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	it := s.client.Collection(collection).Snapshots(subCtx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer it.Stop()
		for {
			qs, err := it.Next()
			if subCtx.Err() != nil {
				return
			}
			if err != nil {
				if onError != nil {
					onError(fmt.Errorf("snapshot listener for %s: %w", collection, err))
				}
				// the iterator is unusable after an error
				return
			}

			snaps, err := qs.Documents.GetAll()
			if err != nil {
				if onError != nil {
					onError(fmt.Errorf("failed to read snapshot of %s: %w", collection, err))
				}
				continue
			}
			docs := make([]models.RawDocument, 0, len(snaps))
			for _, snap := range snaps {
				docs = append(docs, firestoreDocument(snap))
			}
			onSnapshot(docs)
		}
	}()

	log.Debug().Str("collection", collection).Msg("firestore snapshot listener started")

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}, nil
}

func (s *FirestoreStore) Get(ctx context.Context, collection, id string) (models.RawDocument, error) {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		return models.RawDocument{}, firestoreError(err, collection, id, "get document")
	}
	return firestoreDocument(snap), nil
}

func (s *FirestoreStore) GetAll(ctx context.Context, collection string) ([]models.RawDocument, error) {
	snaps, err := s.client.Collection(collection).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", collection, err)
	}
	docs := make([]models.RawDocument, 0, len(snaps))
	for _, snap := range snaps {
		docs = append(docs, firestoreDocument(snap))
	}
	return docs, nil
}

func (s *FirestoreStore) Create(ctx context.Context, collection string, attrs map[string]any) (string, error) {
	ref, _, err := s.client.Collection(collection).Add(ctx, nonNil(attrs))
	if err != nil {
		return "", fmt.Errorf("failed to create document: %w", err)
	}
	return ref.ID, nil
}

func (s *FirestoreStore) CreateWithID(ctx context.Context, collection string, attrs map[string]any, id string) error {
	if _, err := s.client.Collection(collection).Doc(id).Set(ctx, nonNil(attrs)); err != nil {
		return fmt.Errorf("failed to create document with id: %w", err)
	}
	return nil
}

func (s *FirestoreStore) Update(ctx context.Context, collection string, attrs map[string]any, id string) error {
	ref := s.client.Collection(collection).Doc(id)
	if len(attrs) == 0 {
		// Firestore rejects an empty update; still report a missing document
		_, err := ref.Get(ctx)
		if err != nil {
			return firestoreError(err, collection, id, "update document")
		}
		return nil
	}

	updates := make([]firestore.Update, 0, len(attrs))
	for k, v := range attrs {
		updates = append(updates, firestore.Update{FieldPath: firestore.FieldPath{k}, Value: v})
	}
	if _, err := ref.Update(ctx, updates); err != nil {
		return firestoreError(err, collection, id, "update document")
	}
	return nil
}

func (s *FirestoreStore) UpdateField(ctx context.Context, collection, id, field string, value any) error {
	_, err := s.client.Collection(collection).Doc(id).Update(ctx, []firestore.Update{
		{FieldPath: firestore.FieldPath{field}, Value: value},
	})
	if err != nil {
		return firestoreError(err, collection, id, "update document field")
	}
	return nil
}

func (s *FirestoreStore) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.client.Collection(collection).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

func firestoreDocument(snap *firestore.DocumentSnapshot) models.RawDocument {
	data := snap.Data()
	if data == nil {
		data = map[string]any{}
	}
	return models.RawDocument{ID: snap.Ref.ID, Attributes: data}
}

func firestoreError(err error, collection, id, op string) error {
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

func nonNil(attrs map[string]any) map[string]any {
	if attrs == nil {
		return map[string]any{}
	}
	return attrs
}
