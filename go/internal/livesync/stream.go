package livesync

import (
	"slices"
	"sync"
	"sync/atomic"
)

// Stream holds the latest published list of a collection and pushes every
// new list to its subscribers. It starts out as an empty list at version 0.
//
// Only the engine loop publishes, so publishes are totally ordered. Each
// subscriber sees versions in increasing order even when its initial replay
// races a publish.
type Stream[T any] struct {
	name string

	mu      sync.RWMutex
	current []T
	version uint64
	subs    []*subscriber[T]
	stages  []func([]T)
	nextID  int
}

type subscriber[T any] struct {
	id int

	live atomic.Bool

	mu   sync.Mutex
	seen uint64
	fn   func([]T, uint64)
}

// deliver hands items to the subscriber unless it has already seen a newer
// version or was cancelled
func (s *subscriber[T]) deliver(items []T, version uint64, replay bool) {
	if !s.live.Load() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if version < s.seen || (version == s.seen && !replay) {
		return
	}
	s.seen = version
	s.fn(items, version)
}

func NewStream[T any](name string) *Stream[T] {
	return &Stream[T]{name: name, current: []T{}}
}

func (s *Stream[T]) Name() string {
	return s.name
}

// Current returns the latest list. Callers must not modify it.
func (s *Stream[T]) Current() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Version counts publishes; 0 means nothing has been published yet
func (s *Stream[T]) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Snapshot returns the latest list together with its version
func (s *Stream[T]) Snapshot() ([]T, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.version
}

// Subscribe calls fn with the current list right away and then with every
// later list. fn runs on the publishing goroutine and must not block.
func (s *Stream[T]) Subscribe(fn func([]T)) (cancel func()) {
	return s.SubscribeVersioned(func(items []T, _ uint64) { fn(items) })
}

// SubscribeVersioned is Subscribe with the version each list was published
// at. Version() may already be newer by the time fn runs.
func (s *Stream[T]) SubscribeVersioned(fn func(items []T, version uint64)) (cancel func()) {
	s.mu.Lock()
	sub := &subscriber[T]{id: s.nextID, fn: fn}
	sub.live.Store(true)
	s.nextID++
	s.subs = append(s.subs, sub)
	items, version := s.current, s.version
	s.mu.Unlock()

	sub.deliver(items, version, true)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.subs = slices.DeleteFunc(s.subs, func(other *subscriber[T]) bool {
				return other.id == sub.id
			})
			s.mu.Unlock()

			sub.live.Store(false)
		})
	}
}

// attach registers a derived stage. Stages run after every subscriber of
// this stream has seen the list, so observers see a list before anything
// derived from it.
func (s *Stream[T]) attach(stage func([]T)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stages = append(s.stages, stage)
}

// publish replaces the list and notifies subscribers in subscription order,
// then derived stages
func (s *Stream[T]) publish(items []T) {
	if items == nil {
		items = []T{}
	}

	s.mu.Lock()
	s.current = items
	s.version++
	version := s.version
	subs := slices.Clone(s.subs)
	stages := slices.Clone(s.stages)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.deliver(items, version, false)
	}
	for _, stage := range stages {
		stage(items)
	}
}

// reset empties the list without notifying anyone
func (s *Stream[T]) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = []T{}
	s.version++
}
