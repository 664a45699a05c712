package docstore

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/mcdev12/leaguesync/go/internal/models"
)

// MemoryStore is an in-process DocumentStore. Snapshots are delivered
// synchronously on the writing goroutine, one per write, in write order.
type MemoryStore struct {
	// deliverMu serializes write+delivery so subscribers see snapshots in
	// the order writes happened
	deliverMu sync.Mutex
	mu        sync.Mutex

	docs     map[string]map[string]map[string]any
	order    map[string][]string
	subs     map[string]map[int]*memorySub
	nextSub  int
	failures map[string]error
	newID    func() string
}

type memorySub struct {
	onSnapshot SnapshotHandler
	onError    ErrorHandler
}

// Option configures a MemoryStore
type Option func(*MemoryStore)

// WithDocuments seeds a collection
func WithDocuments(collection string, docs ...models.RawDocument) Option {
	return func(s *MemoryStore) {
		for _, d := range docs {
			s.put(collection, d.ID, maps.Clone(d.Attributes))
		}
	}
}

// WithIDGenerator replaces uuid generation for Create
func WithIDGenerator(fn func() string) Option {
	return func(s *MemoryStore) {
		s.newID = fn
	}
}

// NewMemoryStore creates an empty store
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		docs:     make(map[string]map[string]map[string]any),
		order:    make(map[string][]string),
		subs:     make(map[string]map[int]*memorySub),
		failures: make(map[string]error),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FailSubscriptions makes every later Subscribe on collection return err.
// A nil err clears the failure.
func (s *MemoryStore) FailSubscriptions(collection string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, collection)
		return
	}
	s.failures[collection] = err
}

// InjectError pushes err to the error handler of every live subscription on
// collection, as a dropped push channel would.
func (s *MemoryStore) InjectError(collection string, err error) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.mu.Lock()
	subs := s.subscribers(collection)
	s.mu.Unlock()

	for _, sub := range subs {
		if sub.onError != nil {
			sub.onError(err)
		}
	}
}

// Subscribers returns the number of live subscriptions on collection
func (s *MemoryStore) Subscribers(collection string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs[collection])
}

func (s *MemoryStore) Subscribe(ctx context.Context, collection string, onSnapshot SnapshotHandler, onError ErrorHandler) (Unsubscribe, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.mu.Lock()
	if err := s.failures[collection]; err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", collection, err)
	}
	if s.subs[collection] == nil {
		s.subs[collection] = make(map[int]*memorySub)
	}
	id := s.nextSub
	s.nextSub++
	s.subs[collection][id] = &memorySub{onSnapshot: onSnapshot, onError: onError}
	snapshot := s.snapshot(collection)
	s.mu.Unlock()

	onSnapshot(snapshot)

	var once sync.Once
	return func() {
		once.Do(func() {
			// taking deliverMu waits out an in-flight delivery
			s.deliverMu.Lock()
			defer s.deliverMu.Unlock()
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs[collection], id)
		})
	}, nil
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (models.RawDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	attrs, ok := s.docs[collection][id]
	if !ok {
		return models.RawDocument{}, fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	return models.RawDocument{ID: id, Attributes: maps.Clone(attrs)}, nil
}

func (s *MemoryStore) GetAll(ctx context.Context, collection string) ([]models.RawDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(collection), nil
}

func (s *MemoryStore) Create(ctx context.Context, collection string, attrs map[string]any) (string, error) {
	id := s.newID()
	err := s.write(collection, func() error {
		s.put(collection, id, maps.Clone(attrs))
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *MemoryStore) CreateWithID(ctx context.Context, collection string, attrs map[string]any, id string) error {
	return s.write(collection, func() error {
		s.put(collection, id, maps.Clone(attrs))
		return nil
	})
}

func (s *MemoryStore) Update(ctx context.Context, collection string, attrs map[string]any, id string) error {
	return s.write(collection, func() error {
		existing, ok := s.docs[collection][id]
		if !ok {
			return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
		}
		merged := maps.Clone(existing)
		maps.Copy(merged, attrs)
		s.docs[collection][id] = merged
		return nil
	})
}

func (s *MemoryStore) UpdateField(ctx context.Context, collection, id, field string, value any) error {
	return s.Update(ctx, collection, map[string]any{field: value}, id)
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	return s.write(collection, func() error {
		if _, ok := s.docs[collection][id]; !ok {
			return nil
		}
		delete(s.docs[collection], id)
		ids := s.order[collection]
		for i, existing := range ids {
			if existing == id {
				s.order[collection] = append(ids[:i:i], ids[i+1:]...)
				break
			}
		}
		return nil
	})
}

// write applies mutate under the store lock and then delivers a snapshot of
// collection to its subscribers
func (s *MemoryStore) write(collection string, mutate func() error) error {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.mu.Lock()
	if err := mutate(); err != nil {
		s.mu.Unlock()
		return err
	}
	subs := s.subscribers(collection)
	snapshot := s.snapshot(collection)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.onSnapshot(snapshot)
	}
	return nil
}

func (s *MemoryStore) put(collection, id string, attrs map[string]any) {
	if attrs == nil {
		attrs = map[string]any{}
	}
	if s.docs[collection] == nil {
		s.docs[collection] = make(map[string]map[string]any)
	}
	if _, exists := s.docs[collection][id]; !exists {
		s.order[collection] = append(s.order[collection], id)
	}
	s.docs[collection][id] = attrs
}

// snapshot must be called with mu held. Every subscriber shares the
// returned slice, so nobody may mutate it.
func (s *MemoryStore) snapshot(collection string) []models.RawDocument {
	ids := s.order[collection]
	out := make([]models.RawDocument, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.RawDocument{ID: id, Attributes: maps.Clone(s.docs[collection][id])})
	}
	return out
}

func (s *MemoryStore) subscribers(collection string) []*memorySub {
	keys := make([]int, 0, len(s.subs[collection]))
	for k := range s.subs[collection] {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]*memorySub, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.subs[collection][k])
	}
	return out
}
