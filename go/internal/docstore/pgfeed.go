package docstore

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// PGFeedConfig configures the LISTEN/NOTIFY change feed
type PGFeedConfig struct {
	DatabaseURL          string // Postgres DSN for LISTEN
	Channel              string
	PingInterval         time.Duration
	MinReconnectInterval time.Duration
	MaxReconnectInterval time.Duration
}

func DefaultPGFeedConfig() PGFeedConfig {
	return PGFeedConfig{
		Channel:              "document_changes",
		PingInterval:         90 * time.Second,
		MinReconnectInterval: 10 * time.Second,
		MaxReconnectInterval: time.Minute,
	}
}

// PGFeed is a ChangeFeed over Postgres LISTEN/NOTIFY. The notification
// payload is the collection name.
type PGFeed struct {
	db       *sql.DB
	listener *pq.Listener
	watchers *watcherSet
	cfg      PGFeedConfig
	stopOnce sync.Once
}

// NewPGFeed opens a dedicated listener connection. db is used for NOTIFY.
func NewPGFeed(db *sql.DB, cfg PGFeedConfig) (*PGFeed, error) {
	l := pq.NewListener(
		cfg.DatabaseURL,
		cfg.MinReconnectInterval,
		cfg.MaxReconnectInterval,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				log.Error().Err(err).Msg("listener event")
			}
		},
	)
	if err := l.Listen(cfg.Channel); err != nil {
		l.Close()
		return nil, fmt.Errorf("failed to listen to channel: %w", err)
	}

	log.Info().
		Str("channel", cfg.Channel).
		Msg("listening for document changes")

	return &PGFeed{
		db:       db,
		listener: l,
		watchers: newWatcherSet(),
		cfg:      cfg,
	}, nil
}

// Start dispatches notifications to watchers until ctx is done
func (f *PGFeed) Start(ctx context.Context) error {
	pingTicker := time.NewTicker(f.cfg.PingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("document feed shutting down")
			return f.Stop()
		case note := <-f.listener.Notify:
			f.dispatch(note)
		case <-pingTicker.C:
			if err := f.listener.Ping(); err != nil {
				log.Error().Err(err).Msg("failed to ping listener")
			}
		}
	}
}

// dispatch fires the watchers of the notified collection. A nil note means
// the connection was re-established and notifications may have been missed,
// so every watcher re-reads.
func (f *PGFeed) dispatch(note *pq.Notification) {
	if note == nil {
		log.Warn().Str("channel", f.cfg.Channel).Msg("listener reconnected")
		f.watchers.fireAll()
		return
	}
	f.watchers.fire(note.Extra)
}

// Stop closes the listener. Only the first call does anything.
func (f *PGFeed) Stop() error {
	var err error
	f.stopOnce.Do(func() {
		err = f.listener.Close()
	})
	return err
}

func (f *PGFeed) Notify(ctx context.Context, collection string) error {
	if _, err := f.db.ExecContext(ctx, `SELECT pg_notify($1, $2)`, f.cfg.Channel, collection); err != nil {
		return fmt.Errorf("failed to notify %s: %w", collection, err)
	}
	return nil
}

func (f *PGFeed) Watch(collection string, fn func()) (func(), error) {
	return f.watchers.add(collection, fn), nil
}
