package livesync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/mcdev12/leaguesync/go/internal/docstore"
	"github.com/mcdev12/leaguesync/go/internal/models"
	"github.com/mcdev12/leaguesync/go/internal/schema"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// State of the engine's session lifecycle
type State int32

const (
	StateIdle State = iota
	StateStarting
	StateActive
	StateTearingDown
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateActive:
		return "active"
	case StateTearingDown:
		return "tearing_down"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// applier is the type-erased side of a Projector
type applier interface {
	Collection() string
	Apply(docs []models.RawDocument)
}

// Engine keeps five live lists in sync with the document store while a user
// is signed in. All snapshots, lifecycle transitions and resolutions run on
// one loop goroutine (Run), so every publish is totally ordered.
type Engine struct {
	store  docstore.DocumentStore
	queue  *eventQueue
	logger zerolog.Logger

	players     *Stream[models.Player]
	teamRecords *Stream[models.TeamRecord]
	teams       *Stream[models.Team]
	gameRecords *Stream[models.GameRecord]
	games       *Stream[models.Game]
	votes       *Stream[models.Vote]
	users       *Stream[models.User]

	teamsJoin *Join[models.TeamRecord, models.Player, models.Team]
	gamesJoin *Join[models.GameRecord, models.Team, models.Game]

	projectors map[string]applier

	state   atomic.Int32
	running atomic.Bool
	done    chan struct{}

	userMu sync.RWMutex
	userID string

	// owned by the loop
	generation   uint64
	unsubscribes map[string]docstore.Unsubscribe
}

// NewEngine wires projectors and joins. Nothing is subscribed until
// Authenticated is called.
func NewEngine(store docstore.DocumentStore, validator *schema.Validator) *Engine {
	e := &Engine{
		store:        store,
		queue:        newEventQueue(),
		logger:       log.With().Str("component", "livesync").Logger(),
		players:      NewStream[models.Player](models.CollectionPlayers),
		teamRecords:  NewStream[models.TeamRecord]("team_records"),
		teams:        NewStream[models.Team](models.CollectionTeams),
		gameRecords:  NewStream[models.GameRecord]("game_records"),
		games:        NewStream[models.Game](models.CollectionGames),
		votes:        NewStream[models.Vote](models.CollectionVotes),
		users:        NewStream[models.User](models.CollectionUsers),
		done:         make(chan struct{}),
		unsubscribes: make(map[string]docstore.Unsubscribe),
	}

	e.teamsJoin = NewJoin(e.teamRecords, e.players, e.teams, ResolveTeams)
	e.gamesJoin = NewJoin(e.gameRecords, e.teams, e.games, ResolveGames)

	e.projectors = map[string]applier{
		models.CollectionPlayers: NewProjector(models.CollectionPlayers, validator.ParsePlayer, e.players),
		models.CollectionTeams:   NewProjector(models.CollectionTeams, validator.ParseTeam, e.teamRecords),
		models.CollectionGames:   NewProjector(models.CollectionGames, validator.ParseGame, e.gameRecords),
		models.CollectionVotes:   NewProjector(models.CollectionVotes, validator.ParseVote, e.votes),
		models.CollectionUsers:   NewProjector(models.CollectionUsers, validator.ParseUser, e.users),
	}

	return e
}

func (e *Engine) Players() *Stream[models.Player] { return e.players }
func (e *Engine) Teams() *Stream[models.Team]     { return e.teams }
func (e *Engine) Games() *Stream[models.Game]     { return e.games }
func (e *Engine) Votes() *Stream[models.Vote]     { return e.votes }
func (e *Engine) Users() *Stream[models.User]     { return e.users }

func (e *Engine) State() State {
	return State(e.state.Load())
}

// UserID is the signed-in user, empty when idle
func (e *Engine) UserID() string {
	e.userMu.RLock()
	defer e.userMu.RUnlock()
	return e.userID
}

// Run processes events until ctx is done or Stop is called. An active
// session is torn down before Run returns.
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return errors.New("sync engine already running")
	}
	defer close(e.done)

	e.logger.Info().Msg("sync engine started")

	for {
		ev, ok := e.queue.TryDequeue()
		if ok {
			e.handle(ev)
			continue
		}

		select {
		case <-ctx.Done():
			e.shutdown()
			e.logger.Info().Msg("sync engine stopped: context cancelled")
			return ctx.Err()
		case <-e.queue.Wait():
			if e.queue.Closed() && e.queue.Len() == 0 {
				e.shutdown()
				e.logger.Info().Msg("sync engine stopped")
				return nil
			}
		}
	}
}

// Stop makes Run return once the events already queued are processed
func (e *Engine) Stop() {
	e.queue.Close()
}

// Done is closed when Run has returned
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

func (e *Engine) shutdown() {
	e.stop()
	// events still queued are abandoned; waiting callers see
	// ErrEngineStopped once done is closed
	e.queue.Close()
}

// Authenticated starts a session for userID: Idle -> Starting -> Active.
// It subscribes every collection and returns without waiting for data. A
// collection that fails to subscribe is logged and reported in the returned
// error; the others stay live and the engine still becomes Active. Calling
// it while a session is active is a no-op.
func (e *Engine) Authenticated(ctx context.Context, userID string) error {
	var startErr error
	err := e.exec(ctx, func() {
		startErr = e.start(ctx, userID)
	})
	if err != nil {
		return err
	}
	return startErr
}

// Unauthenticated ends the session: Active -> TearingDown -> Idle. Every
// subscription is released and the five lists are published empty. No
// snapshot from the ended session is published afterwards.
func (e *Engine) Unauthenticated(ctx context.Context) error {
	return e.exec(ctx, e.stop)
}

// Flush returns once every event queued before the call has been processed
func (e *Engine) Flush(ctx context.Context) error {
	return e.exec(ctx, func() {})
}

// exec runs fn on the loop and waits for it
func (e *Engine) exec(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	ok := e.queue.Enqueue(event{kind: eventCommand, command: func() {
		defer close(finished)
		fn()
	}})
	if !ok {
		return ErrEngineStopped
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-e.done:
		// the loop may have run fn just before exiting
		select {
		case <-finished:
			return nil
		default:
			return ErrEngineStopped
		}
	}
}

func (e *Engine) handle(ev event) {
	switch ev.kind {
	case eventCommand:
		ev.command()
	case eventSnapshot:
		if !e.current(ev.generation) {
			e.logger.Debug().
				Str("collection", ev.collection).
				Uint64("generation", ev.generation).
				Msg("dropping snapshot from ended session")
			return
		}
		e.projectors[ev.collection].Apply(ev.docs)
	case eventSubscriptionError:
		if !e.current(ev.generation) {
			return
		}
		err := &SubscriptionError{Collection: ev.collection, Err: ev.err}
		e.logger.Error().Err(err).Str("collection", ev.collection).Msg("subscription error, keeping last snapshot")
	}
}

func (e *Engine) current(generation uint64) bool {
	s := e.State()
	return generation == e.generation && (s == StateStarting || s == StateActive)
}

func (e *Engine) start(ctx context.Context, userID string) error {
	if e.State() != StateIdle {
		e.logger.Debug().Str("user_id", userID).Str("state", e.State().String()).Msg("session already active")
		return nil
	}

	e.state.Store(int32(StateStarting))
	e.generation++
	e.setUser(userID)
	e.teamsJoin.Enable()
	e.gamesJoin.Enable()

	generation := e.generation
	var errs []error
	for _, collection := range models.Collections {
		collection := collection
		unsub, err := e.store.Subscribe(ctx, collection,
			func(docs []models.RawDocument) {
				e.queue.Enqueue(event{kind: eventSnapshot, generation: generation, collection: collection, docs: docs})
			},
			func(err error) {
				e.queue.Enqueue(event{kind: eventSubscriptionError, generation: generation, collection: collection, err: err})
			},
		)
		if err != nil {
			subErr := &SubscriptionError{Collection: collection, Err: err}
			e.logger.Error().Err(subErr).Str("collection", collection).Msg("failed to subscribe")
			errs = append(errs, subErr)
			continue
		}
		e.unsubscribes[collection] = unsub
	}

	e.state.Store(int32(StateActive))
	e.logger.Info().
		Str("user_id", userID).
		Int("subscribed", len(e.unsubscribes)).
		Int("failed", len(errs)).
		Msg("session started")

	return errors.Join(errs...)
}

func (e *Engine) stop() {
	if e.State() != StateActive {
		return
	}

	e.state.Store(int32(StateTearingDown))
	for collection, unsub := range e.unsubscribes {
		unsub()
		delete(e.unsubscribes, collection)
	}
	// snapshots already queued for the ended session are now stale
	e.generation++

	e.teamsJoin.Disable()
	e.gamesJoin.Disable()
	e.teamRecords.reset()
	e.gameRecords.reset()

	e.players.publish(nil)
	e.teams.publish(nil)
	e.games.publish(nil)
	e.votes.publish(nil)
	e.users.publish(nil)

	userID := e.UserID()
	e.setUser("")
	e.state.Store(int32(StateIdle))
	e.logger.Info().Str("user_id", userID).Msg("session ended")
}

func (e *Engine) setUser(id string) {
	e.userMu.Lock()
	defer e.userMu.Unlock()
	e.userID = id
}
