package docstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/mcdev12/leaguesync/go/internal/models"
	"github.com/rs/zerolog/log"
)

// ChangeFeed carries "collection changed" signals between writers and
// subscribers. Signals carry no data; subscribers re-read the collection.
type ChangeFeed interface {
	Notify(ctx context.Context, collection string) error
	Watch(collection string, fn func()) (cancel func(), err error)
}

// FeedStore turns a request/response Backend into a DocumentStore by
// pairing it with a ChangeFeed. Every successful write notifies the feed and
// every notification makes subscribers re-read the full collection.
type FeedStore struct {
	backend Backend
	feed    ChangeFeed
}

// NewFeedStore composes backend and feed
func NewFeedStore(backend Backend, feed ChangeFeed) *FeedStore {
	return &FeedStore{backend: backend, feed: feed}
}

func (s *FeedStore) Subscribe(ctx context.Context, collection string, onSnapshot SnapshotHandler, onError ErrorHandler) (Unsubscribe, error) {
	signal := make(chan struct{}, 1)
	trigger := func() {
		select {
		case signal <- struct{}{}:
		default:
			// a refresh is already pending
		}
	}

	cancelWatch, err := s.feed.Watch(collection, trigger)
	if err != nil {
		return nil, fmt.Errorf("failed to watch %s: %w", collection, err)
	}

	// the subscription outlives the caller's context
	subCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	trigger()

	go func() {
		defer close(done)
		for {
			select {
			case <-subCtx.Done():
				return
			case <-signal:
			}

			docs, err := s.backend.GetAll(subCtx, collection)
			if subCtx.Err() != nil {
				return
			}
			if err != nil {
				if onError != nil {
					onError(fmt.Errorf("failed to refresh %s: %w", collection, err))
				}
				continue
			}
			onSnapshot(docs)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancelWatch()
			cancel()
			<-done
		})
	}, nil
}

func (s *FeedStore) Get(ctx context.Context, collection, id string) (models.RawDocument, error) {
	return s.backend.Get(ctx, collection, id)
}

func (s *FeedStore) GetAll(ctx context.Context, collection string) ([]models.RawDocument, error) {
	return s.backend.GetAll(ctx, collection)
}

func (s *FeedStore) Create(ctx context.Context, collection string, attrs map[string]any) (string, error) {
	id, err := s.backend.Create(ctx, collection, attrs)
	if err != nil {
		return "", err
	}
	s.notify(ctx, collection)
	return id, nil
}

func (s *FeedStore) CreateWithID(ctx context.Context, collection string, attrs map[string]any, id string) error {
	if err := s.backend.CreateWithID(ctx, collection, attrs, id); err != nil {
		return err
	}
	s.notify(ctx, collection)
	return nil
}

func (s *FeedStore) Update(ctx context.Context, collection string, attrs map[string]any, id string) error {
	if err := s.backend.Update(ctx, collection, attrs, id); err != nil {
		return err
	}
	s.notify(ctx, collection)
	return nil
}

func (s *FeedStore) UpdateField(ctx context.Context, collection, id, field string, value any) error {
	if err := s.backend.UpdateField(ctx, collection, id, field, value); err != nil {
		return err
	}
	s.notify(ctx, collection)
	return nil
}

func (s *FeedStore) Delete(ctx context.Context, collection, id string) error {
	if err := s.backend.Delete(ctx, collection, id); err != nil {
		return err
	}
	s.notify(ctx, collection)
	return nil
}

// notify failures are logged, not returned: the write itself went through
// and a retry by the caller would duplicate it.
func (s *FeedStore) notify(ctx context.Context, collection string) {
	if err := s.feed.Notify(ctx, collection); err != nil {
		log.Warn().Err(err).Str("collection", collection).Msg("failed to notify change feed")
	}
}

// LocalFeed is a ChangeFeed for writers and subscribers in one process
type LocalFeed struct {
	watchers *watcherSet
}

// NewLocalFeed creates an in-process feed
func NewLocalFeed() *LocalFeed {
	return &LocalFeed{watchers: newWatcherSet()}
}

func (f *LocalFeed) Notify(ctx context.Context, collection string) error {
	f.watchers.fire(collection)
	return nil
}

func (f *LocalFeed) Watch(collection string, fn func()) (func(), error) {
	return f.watchers.add(collection, fn), nil
}

// watcherSet is the shared bookkeeping of feeds that fan a remote signal
// out to local watchers
type watcherSet struct {
	mu       sync.Mutex
	watchers map[string]map[int]func()
	next     int
}

func newWatcherSet() *watcherSet {
	return &watcherSet{watchers: make(map[string]map[int]func())}
}

func (w *watcherSet) add(collection string, fn func()) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watchers[collection] == nil {
		w.watchers[collection] = make(map[int]func())
	}
	id := w.next
	w.next++
	w.watchers[collection][id] = fn
	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.watchers[collection], id)
	}
}

func (w *watcherSet) fire(collection string) {
	w.mu.Lock()
	fns := make([]func(), 0, len(w.watchers[collection]))
	for _, fn := range w.watchers[collection] {
		fns = append(fns, fn)
	}
	w.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (w *watcherSet) fireAll() {
	w.mu.Lock()
	collections := make([]string, 0, len(w.watchers))
	for c := range w.watchers {
		collections = append(collections, c)
	}
	w.mu.Unlock()
	for _, c := range collections {
		w.fire(c)
	}
}
