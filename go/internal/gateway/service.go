package gateway

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// Service is the gateway: REST over the façades plus live snapshots over
// WebSocket
type Service struct {
	manager   *ConnectionManager
	relay     *Relay
	wsHandler *WebSocketHandler
	api       *API
	config    Config
}

// Config holds configuration for the gateway service
type Config struct {
	ConnectionConfig ConnectionConfig
	AllowedOrigins   []string
}

// DefaultConfig returns default configuration for the gateway
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
	}
}

// NewService wires the gateway around api. source is usually the sync
// engine.
func NewService(config Config, api *API, source Source) *Service {
	manager := NewConnectionManager(config.ConnectionConfig)
	relay := NewRelay(source, manager)
	return &Service{
		manager:   manager,
		relay:     relay,
		wsHandler: NewWebSocketHandler(manager, relay),
		api:       api,
		config:    config,
	}
}

// Start runs the broadcast loop and follows the live lists until ctx is
// done
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting gateway service")

	s.relay.Start()
	defer s.relay.Stop()

	s.manager.Start(ctx)

	log.Info().Msg("gateway service stopped")
	return nil
}

// Handler returns the HTTP handler with every route mounted
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORSMiddleware(s.config.AllowedOrigins))

	r.Get("/health", handleHealth)
	r.With(s.api.requireSession).Get("/ws", s.wsHandler.HandleConnection)
	r.Get("/ws/stats", s.wsHandler.HandleConnectionStats)
	r.Route("/api", s.api.Routes)

	return r
}

// Stats returns statistics about the gateway service
func (s *Service) Stats() ConnectionStats {
	return s.manager.Stats()
}
