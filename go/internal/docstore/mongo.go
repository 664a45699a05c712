package docstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/leaguesync/go/internal/models"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// createdField records when a document was first stored. Lists are read in
// creation order, like the other stores, so resolved rosters keep a stable
// order between re-reads.
const createdField = "_created"

// MongoStore is a DocumentStore over MongoDB. Document ids are stored in
// _id as strings. Subscriptions use change streams, which need a replica set.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore connects to uri and uses database
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	return &MongoStore{client: client, db: client.Database(database)}, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) Subscribe(ctx context.Context, collection string, onSnapshot SnapshotHandler, onError ErrorHandler) (Unsubscribe, error) {
	subCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	cs, err := s.db.Collection(collection).Watch(subCtx, mongo.Pipeline{})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to watch %s: %w", collection, err)
	}

	// the stream is open, so a snapshot read now cannot miss a later change
	initial, err := s.GetAll(ctx, collection)
	if err != nil {
		_ = cs.Close(context.Background())
		cancel()
		return nil, err
	}
	onSnapshot(initial)

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer cs.Close(context.Background())
		for cs.Next(subCtx) {
			docs, err := s.GetAll(subCtx, collection)
			if subCtx.Err() != nil {
				return
			}
			if err != nil {
				if onError != nil {
					onError(err)
				}
				continue
			}
			onSnapshot(docs)
		}
		if subCtx.Err() == nil && onError != nil {
			onError(fmt.Errorf("change stream for %s closed: %w", collection, cs.Err()))
		}
	}()

	log.Debug().Str("collection", collection).Msg("mongo change stream started")

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}, nil
}

func (s *MongoStore) Get(ctx context.Context, collection, id string) (models.RawDocument, error) {
	var m bson.M
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.RawDocument{}, fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	if err != nil {
		return models.RawDocument{}, fmt.Errorf("failed to get document: %w", err)
	}
	return mongoDocument(m), nil
}

func (s *MongoStore) GetAll(ctx context.Context, collection string) ([]models.RawDocument, error) {
	cursor, err := s.db.Collection(collection).Find(ctx, bson.D{}, listOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", collection, err)
	}
	var rows []bson.M
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", collection, err)
	}
	docs := make([]models.RawDocument, 0, len(rows))
	for _, m := range rows {
		docs = append(docs, mongoDocument(m))
	}
	return docs, nil
}

func (s *MongoStore) Create(ctx context.Context, collection string, attrs map[string]any) (string, error) {
	id := uuid.NewString()
	if _, err := s.db.Collection(collection).InsertOne(ctx, withID(attrs, id, time.Now())); err != nil {
		return "", fmt.Errorf("failed to create document: %w", err)
	}
	return id, nil
}

func (s *MongoStore) CreateWithID(ctx context.Context, collection string, attrs map[string]any, id string) error {
	created, err := s.createdAt(ctx, collection, id)
	if err != nil {
		return err
	}
	_, err = s.db.Collection(collection).ReplaceOne(ctx,
		bson.M{"_id": id},
		withID(attrs, id, created),
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to create document with id: %w", err)
	}
	return nil
}

// createdAt returns the creation time of an existing document, or now when
// there is none, so replacing a document keeps its place in the list
func (s *MongoStore) createdAt(ctx context.Context, collection, id string) (time.Time, error) {
	var existing struct {
		Created primitive.DateTime `bson:"_created"`
	}
	err := s.db.Collection(collection).FindOne(ctx,
		bson.M{"_id": id},
		options.FindOne().SetProjection(bson.M{createdField: 1}),
	).Decode(&existing)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return time.Now(), nil
	case err != nil:
		return time.Time{}, fmt.Errorf("failed to read document: %w", err)
	case existing.Created == 0:
		// written before creation times were recorded
		return time.Now(), nil
	}
	return existing.Created.Time(), nil
}

func (s *MongoStore) Update(ctx context.Context, collection string, attrs map[string]any, id string) error {
	set := bson.M{}
	for k, v := range attrs {
		if k == "_id" || k == createdField {
			continue
		}
		set[k] = v
	}
	if len(set) == 0 {
		_, err := s.Get(ctx, collection, id)
		return err
	}
	res, err := s.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	return nil
}

func (s *MongoStore) UpdateField(ctx context.Context, collection, id, field string, value any) error {
	return s.Update(ctx, collection, map[string]any{field: value}, id)
}

func (s *MongoStore) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

func listOptions() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: createdField, Value: 1}, {Key: "_id", Value: 1}})
}

func withID(attrs map[string]any, id string, created time.Time) bson.M {
	doc := bson.M{"_id": id, createdField: primitive.NewDateTimeFromTime(created)}
	for k, v := range attrs {
		if k == "_id" || k == createdField {
			continue
		}
		doc[k] = v
	}
	return doc
}

func mongoDocument(m bson.M) models.RawDocument {
	id := fmt.Sprint(normalizeBSON(m["_id"]))
	attrs := make(map[string]any, len(m))
	for k, v := range m {
		if k == "_id" || k == createdField {
			continue
		}
		attrs[k] = normalizeBSON(v)
	}
	return models.RawDocument{ID: id, Attributes: attrs}
}

// normalizeBSON converts driver value types into the plain maps, slices and
// scalars the rest of the system expects
func normalizeBSON(v any) any {
	switch t := v.(type) {
	case primitive.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = normalizeBSON(e.Value)
		}
		return out
	case primitive.M:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = normalizeBSON(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = normalizeBSON(e)
		}
		return out
	case primitive.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeBSON(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeBSON(e)
		}
		return out
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.ObjectID:
		return t.Hex()
	default:
		return v
	}
}
