package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// NATSFeedConfig configures the NATS change feed
type NATSFeedConfig struct {
	URL           string
	SubjectPrefix string // subjects are <prefix>.<collection>
	MaxReconnects int
	ReconnectWait time.Duration
}

func DefaultNATSFeedConfig() NATSFeedConfig {
	return NATSFeedConfig{
		URL:           nats.DefaultURL,
		SubjectPrefix: "leaguesync.changes",
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
	}
}

// NATSFeed is a ChangeFeed over core NATS subjects, for deployments where
// several gateway processes write to the same backend
type NATSFeed struct {
	nc     *nats.Conn
	prefix string
	owned  bool

	mu   sync.Mutex
	subs map[*nats.Subscription]struct{}
}

// ConnectNATSFeed dials NATS with reconnect logging and returns a feed that
// owns the connection
func ConnectNATSFeed(cfg NATSFeedConfig) (*NATSFeed, error) {
	opts := []nats.Option{
		nats.Name("leaguesync"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	feed := NewNATSFeed(nc, cfg.SubjectPrefix)
	feed.owned = true
	return feed, nil
}

// NewNATSFeed uses an existing connection; Close leaves it open
func NewNATSFeed(nc *nats.Conn, prefix string) *NATSFeed {
	return &NATSFeed{
		nc:     nc,
		prefix: strings.TrimSuffix(prefix, "."),
		subs:   make(map[*nats.Subscription]struct{}),
	}
}

func (f *NATSFeed) subject(collection string) string {
	return f.prefix + "." + collection
}

func (f *NATSFeed) Notify(ctx context.Context, collection string) error {
	if err := f.nc.Publish(f.subject(collection), nil); err != nil {
		return fmt.Errorf("failed to publish change for %s: %w", collection, err)
	}
	return nil
}

func (f *NATSFeed) Watch(collection string, fn func()) (func(), error) {
	sub, err := f.nc.Subscribe(f.subject(collection), func(*nats.Msg) {
		fn()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", f.subject(collection), err)
	}

	f.mu.Lock()
	f.subs[sub] = struct{}{}
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		delete(f.subs, sub)
		f.mu.Unlock()
		if err := sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
			log.Warn().Err(err).Str("subject", sub.Subject).Msg("failed to unsubscribe")
		}
	}, nil
}

// Close drains every watch subscription and closes an owned connection
func (f *NATSFeed) Close() error {
	f.mu.Lock()
	subs := make([]*nats.Subscription, 0, len(f.subs))
	for sub := range f.subs {
		subs = append(subs, sub)
	}
	f.subs = make(map[*nats.Subscription]struct{})
	f.mu.Unlock()

	for _, sub := range subs {
		_ = sub.Unsubscribe()
	}
	if f.owned {
		f.nc.Close()
	}
	return nil
}
