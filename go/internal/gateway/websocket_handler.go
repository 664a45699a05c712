package gateway

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// WebSocketHandler upgrades clients that want live snapshots
type WebSocketHandler struct {
	manager *ConnectionManager
	relay   *Relay
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(manager *ConnectionManager, relay *Relay) *WebSocketHandler {
	return &WebSocketHandler{
		manager: manager,
		relay:   relay,
	}
}

// HandleConnection serves GET /ws?collections=players,teams. Without the
// parameter every collection is followed. The client first receives the
// current list of each collection. It must be mounted behind requireSession.
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	collections := h.relay.Collections()
	if raw := r.URL.Query().Get("collections"); raw != "" {
		collections = nil
		for _, c := range strings.Split(raw, ",") {
			if c = strings.TrimSpace(c); c != "" {
				collections = append(collections, c)
			}
		}
	}

	initial := make([]*SnapshotEvent, 0, len(collections))
	for _, c := range collections {
		event, err := h.relay.Snapshot(c)
		if err != nil {
			errorResponse(w, r, http.StatusBadRequest, err.Error())
			return
		}
		initial = append(initial, event)
	}

	userID := userIDFrom(r.Context())

	if err := h.manager.UpgradeConnection(w, r, userID, collections, initial); err != nil {
		// the upgrader has already replied to the client
		log.Error().Err(err).Str("user_id", userID).Msg("failed to upgrade websocket connection")
	}
}

// HandleConnectionStats serves GET /ws/stats
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	if err := writeJSON(w, http.StatusOK, h.manager.Stats(), nil); err != nil {
		log.Error().Err(err).Msg("failed to write connection stats")
	}
}
