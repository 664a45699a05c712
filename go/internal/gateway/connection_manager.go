package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// ConnectionManager fans snapshot events out to WebSocket connections
// grouped by collection
type ConnectionManager struct {
	// connections by the collection they follow
	collections map[string]map[*Connection]bool
	mu          sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig

	broadcastCh chan *SnapshotEvent
}

// Connection is one WebSocket client
type Connection struct {
	ID          string
	UserID      string
	Collections []string
	Conn        *websocket.Conn
	Send        chan []byte
	Manager     *ConnectionManager

	ConnectedAt time.Time

	// closed on unregister; Send itself is never closed so a broadcast
	// racing an unregister cannot panic
	done      chan struct{}
	closeOnce sync.Once
}

// ConnectionConfig holds configuration for WebSocket connections
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBufferSize  int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConnectionConfig returns default WebSocket configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		SendBufferSize:  64,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// NewConnectionManager creates a new WebSocket connection manager
func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	return &ConnectionManager{
		collections: make(map[string]map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan *SnapshotEvent, 1000),
	}
}

// Start processes broadcasts until ctx is done
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")

	for {
		select {
		case <-ctx.Done():
			cm.closeAll()
			log.Info().Msg("connection manager shutting down")
			return
		case event := <-cm.broadcastCh:
			cm.handleBroadcast(event)
		}
	}
}

// UpgradeConnection upgrades the request and registers the connection for
// collections. initial events are queued before any broadcast.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, userID string, collections []string, initial []*SnapshotEvent) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		UserID:      userID,
		Collections: collections,
		Conn:        conn,
		Send:        make(chan []byte, max(cm.config.SendBufferSize, len(initial))),
		Manager:     cm,
		ConnectedAt: time.Now(),
		done:        make(chan struct{}),
	}

	for _, event := range initial {
		data, err := json.Marshal(event)
		if err != nil {
			log.Error().Err(err).Str("collection", event.Collection).Msg("failed to marshal initial snapshot")
			continue
		}
		connection.Send <- data
	}

	cm.registerConnection(connection)

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Str("user_id", userID).
		Strs("collections", collections).
		Msg("websocket connection established")

	return nil
}

func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	for _, c := range conn.Collections {
		if cm.collections[c] == nil {
			cm.collections[c] = make(map[*Connection]bool)
		}
		cm.collections[c][conn] = true
	}
}

func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	removed := false
	for _, c := range conn.Collections {
		if conns, ok := cm.collections[c]; ok && conns[conn] {
			delete(conns, conn)
			removed = true
			if len(conns) == 0 {
				delete(cm.collections, c)
			}
		}
	}
	cm.mu.Unlock()

	conn.closeOnce.Do(func() {
		close(conn.done)
	})

	if removed {
		log.Info().
			Str("connection_id", conn.ID).
			Str("user_id", conn.UserID).
			Msg("connection unregistered")
	}
}

// Broadcast queues event for every connection following its collection
func (cm *ConnectionManager) Broadcast(event *SnapshotEvent) {
	select {
	case cm.broadcastCh <- event:
	default:
		log.Warn().Str("collection", event.Collection).Msg("broadcast channel full, dropping snapshot")
	}
}

func (cm *ConnectionManager) handleBroadcast(event *SnapshotEvent) {
	cm.mu.RLock()
	targets := make([]*Connection, 0, len(cm.collections[event.Collection]))
	for conn := range cm.collections[event.Collection] {
		targets = append(targets, conn)
	}
	cm.mu.RUnlock()

	if len(targets) == 0 {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal snapshot for broadcast")
		return
	}

	for _, conn := range targets {
		select {
		case conn.Send <- data:
		case <-conn.done:
		default:
			log.Warn().
				Str("connection_id", conn.ID).
				Str("user_id", conn.UserID).
				Msg("connection send buffer full, closing connection")
			cm.unregisterConnection(conn)
			conn.Conn.Close()
		}
	}

	log.Debug().
		Str("collection", event.Collection).
		Uint64("version", event.Version).
		Int("connections", len(targets)).
		Msg("snapshot broadcasted")
}

func (cm *ConnectionManager) closeAll() {
	cm.mu.RLock()
	seen := make(map[*Connection]bool)
	for _, conns := range cm.collections {
		for conn := range conns {
			seen[conn] = true
		}
	}
	cm.mu.RUnlock()

	for conn := range seen {
		cm.unregisterConnection(conn)
	}
}

// ConnectionStats summarizes the active connections
type ConnectionStats struct {
	TotalConnections int            `json:"total_connections"`
	Collections      map[string]int `json:"collections"`
}

func (cm *ConnectionManager) Stats() ConnectionStats {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	unique := make(map[*Connection]bool)
	counts := make(map[string]int, len(cm.collections))
	for c, conns := range cm.collections {
		counts[c] = len(conns)
		for conn := range conns {
			unique[conn] = true
		}
	}
	return ConnectionStats{TotalConnections: len(unique), Collections: counts}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Manager.unregisterConnection(c)
	}()

	for {
		select {
		case <-c.done:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("failed to write message to websocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("failed to send ping")
				return
			}
		}
	}
}

// readPump only keeps the read deadline moving; clients do not send
// commands
func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("unexpected websocket close error")
			}
			return
		}
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}
