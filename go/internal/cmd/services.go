package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/leaguesync/go/internal/dbconfig"
	"github.com/mcdev12/leaguesync/go/internal/docstore"
	"github.com/mcdev12/leaguesync/go/internal/games"
	"github.com/mcdev12/leaguesync/go/internal/gateway"
	"github.com/mcdev12/leaguesync/go/internal/livesync"
	"github.com/mcdev12/leaguesync/go/internal/players"
	"github.com/mcdev12/leaguesync/go/internal/schema"
	"github.com/mcdev12/leaguesync/go/internal/session"
	"github.com/mcdev12/leaguesync/go/internal/teams"
	"github.com/mcdev12/leaguesync/go/internal/users"
	"github.com/mcdev12/leaguesync/go/internal/votes"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

// Store is the document store together with whatever keeps it running
type Store struct {
	docstore.DocumentStore

	// background loops that must run for snapshots to flow, e.g. a
	// LISTEN/NOTIFY dispatcher
	runners []func(ctx context.Context) error
	closers []func(ctx context.Context) error
}

func (s *Store) Close(ctx context.Context) error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i](ctx))
	}
	return errors.Join(errs...)
}

type Services struct {
	Store    *Store
	Engine   *livesync.Engine
	Players  *players.App
	Teams    *teams.App
	Games    *games.App
	Votes    *votes.App
	Users    *users.App
	Sessions *session.Manager
	Gateway  *gateway.Service
}

func setupStore(ctx context.Context, config *Config) (*Store, error) {
	switch config.Store.Backend {
	case BackendMemory:
		log.Info().Msg("using in-memory document store")
		return &Store{DocumentStore: docstore.NewMemoryStore()}, nil

	case BackendMongo:
		ms, err := docstore.NewMongoStore(ctx, config.Mongo.URI, config.Mongo.Database)
		if err != nil {
			return nil, err
		}
		log.Info().Str("database", config.Mongo.Database).Msg("using mongo document store")
		return &Store{DocumentStore: ms, closers: []func(context.Context) error{ms.Close}}, nil

	case BackendFirestore:
		var opts []option.ClientOption
		if config.Firestore.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(config.Firestore.CredentialsFile))
		}
		fs, err := docstore.NewFirestoreStore(ctx, config.Firestore.ProjectID, opts...)
		if err != nil {
			return nil, err
		}
		log.Info().Str("project", config.Firestore.ProjectID).Msg("using firestore document store")
		return &Store{
			DocumentStore: fs,
			closers:       []func(context.Context) error{func(context.Context) error { return fs.Close() }},
		}, nil

	case BackendPostgres:
		return setupPostgresStore(ctx, config)
	}
	return nil, fmt.Errorf("unknown store backend %q", config.Store.Backend)
}

func setupPostgresStore(ctx context.Context, config *Config) (*Store, error) {
	dbConfig := dbconfig.NewConfigFromEnv()
	db, err := setupDatabase(ctx, dbConfig)
	if err != nil {
		return nil, err
	}

	store := &Store{closers: []func(context.Context) error{func(context.Context) error { return db.Close() }}}
	backend := docstore.NewPostgresBackend(db)

	feed, err := setupFeed(config, dbConfig, db, store)
	if err != nil {
		store.Close(ctx)
		return nil, err
	}

	store.DocumentStore = docstore.NewFeedStore(backend, feed)
	log.Info().Str("feed", config.Store.Feed).Msg("using postgres document store")
	return store, nil
}

func setupFeed(config *Config, dbConfig dbconfig.Config, db *sql.DB, store *Store) (docstore.ChangeFeed, error) {
	switch config.Store.Feed {
	case FeedPostgres:
		feedConfig := docstore.DefaultPGFeedConfig()
		feedConfig.DatabaseURL = dbConfig.DSN()
		feed, err := docstore.NewPGFeed(db, feedConfig)
		if err != nil {
			return nil, err
		}
		store.runners = append(store.runners, feed.Start)
		store.closers = append(store.closers, func(context.Context) error { return feed.Stop() })
		return feed, nil

	case FeedNATS:
		natsConfig := docstore.DefaultNATSFeedConfig()
		natsConfig.URL = config.NATS.URL
		natsConfig.SubjectPrefix = config.NATS.SubjectPrefix
		feed, err := docstore.ConnectNATSFeed(natsConfig)
		if err != nil {
			return nil, err
		}
		store.closers = append(store.closers, func(context.Context) error { return feed.Close() })
		return feed, nil

	case FeedLocal:
		return docstore.NewLocalFeed(), nil
	}
	return nil, fmt.Errorf("unknown change feed %q", config.Store.Feed)
}

func setupServices(store *Store, config *Config) (*Services, error) {
	if config.Session.Secret == "" {
		return nil, errors.New("SESSION_SECRET is required")
	}

	validator, err := schema.New()
	if err != nil {
		return nil, fmt.Errorf("failed to compile document schema: %w", err)
	}

	engine := livesync.NewEngine(store, validator)

	// Initialize repositories
	playersRepo := players.NewRepository(store, validator)
	teamsRepo := teams.NewRepository(store, validator)
	gamesRepo := games.NewRepository(store, validator)
	votesRepo := votes.NewRepository(store)
	usersRepo := users.NewRepository(store, validator)

	// Initialize apps
	playersApp := players.NewApp(playersRepo, engine.Players())
	teamsApp := teams.NewApp(teamsRepo, engine.Teams(), engine.Players())
	gamesApp := games.NewApp(gamesRepo, engine.Games(), engine.Teams())
	votesApp := votes.NewApp(votesRepo, engine.Votes(), engine.Teams())
	usersApp := users.NewApp(usersRepo, engine.Users())

	sessions := session.NewManager(engine, []byte(config.Session.Secret), clockwork.NewRealClock())

	api := &gateway.API{
		Players:  playersApp,
		Teams:    teamsApp,
		Games:    gamesApp,
		Votes:    votesApp,
		Users:    usersApp,
		Sessions: sessions,
		Engine:   engine,
	}

	gatewayConfig := gateway.DefaultConfig()
	gatewayConfig.AllowedOrigins = config.Server.AllowedOrigins
	if config.Server.SendBufferSize > 0 {
		gatewayConfig.ConnectionConfig.SendBufferSize = config.Server.SendBufferSize
	}

	return &Services{
		Store:    store,
		Engine:   engine,
		Players:  playersApp,
		Teams:    teamsApp,
		Games:    gamesApp,
		Votes:    votesApp,
		Users:    usersApp,
		Sessions: sessions,
		Gateway:  gateway.NewService(gatewayConfig, api, engine),
	}, nil
}
