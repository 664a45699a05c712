package gateway

import (
	"fmt"
	"sync"

	"github.com/mcdev12/leaguesync/go/internal/livesync"
	"github.com/mcdev12/leaguesync/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Source is the set of live lists pushed to clients
type Source interface {
	Players() *livesync.Stream[models.Player]
	Teams() *livesync.Stream[models.Team]
	Games() *livesync.Stream[models.Game]
	Votes() *livesync.Stream[models.Vote]
	Users() *livesync.Stream[models.User]
}

// Relay turns every publish of a live list into a snapshot broadcast
type Relay struct {
	manager   *ConnectionManager
	snapshots map[string]func() (*SnapshotEvent, error)
	follows   []func() func()

	mu      sync.Mutex
	cancels []func()
}

// NewRelay prepares a relay; nothing is followed until Start
func NewRelay(source Source, manager *ConnectionManager) *Relay {
	r := &Relay{
		manager:   manager,
		snapshots: make(map[string]func() (*SnapshotEvent, error)),
	}
	follow(r, source.Players())
	follow(r, source.Teams())
	follow(r, source.Games())
	follow(r, source.Votes())
	follow(r, source.Users())
	return r
}

func follow[T any](r *Relay, stream *livesync.Stream[T]) {
	collection := stream.Name()
	r.snapshots[collection] = func() (*SnapshotEvent, error) {
		items, version := stream.Snapshot()
		return newSnapshotEvent(collection, items, version)
	}
	r.follows = append(r.follows, func() func() {
		// runs on the engine loop, so it only marshals and queues
		return stream.SubscribeVersioned(func(items []T, version uint64) {
			event, err := newSnapshotEvent(collection, items, version)
			if err != nil {
				log.Error().Err(err).Str("collection", collection).Msg("failed to encode snapshot")
				return
			}
			r.manager.Broadcast(event)
		})
	})
}

// Start subscribes to every live list
func (r *Relay) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.cancels) > 0 {
		return
	}
	for _, f := range r.follows {
		r.cancels = append(r.cancels, f())
	}
	log.Info().Int("collections", len(r.follows)).Msg("relay started")
}

// Stop releases the subscriptions taken by Start
func (r *Relay) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cancel := range r.cancels {
		cancel()
	}
	r.cancels = nil
}

// Collections lists the names a client may follow
func (r *Relay) Collections() []string {
	return models.Collections
}

// Snapshot encodes the current list of collection
func (r *Relay) Snapshot(collection string) (*SnapshotEvent, error) {
	fn, ok := r.snapshots[collection]
	if !ok {
		return nil, fmt.Errorf("unknown collection %q", collection)
	}
	return fn()
}
