package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/cleberrangel/clickup-timeline-api/internal/logger"
	"github.com/cleberrangel/clickup-timeline-api/internal/metrics"
	"github.com/cleberrangel/clickup-timeline-api/internal/viewport"
)

// ViewFactory starts the view behind a session. out receives the view's
// frames and notices.
type ViewFactory func(ctx context.Context, out viewport.Output, sessionID string) (*viewport.View, error)

// HubConfig configures a Hub
type HubConfig struct {
	NewView   ViewFactory
	ParseDate func(string) (time.Time, error)
	Metrics   *metrics.Metrics
}

// Hub maintains the set of active view sessions
type Hub struct {
	// Registered sessions by session ID
	clients map[string]*Client

	// Outbound messages for every session
	broadcast chan []byte

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Mutex for thread-safe operations
	mutex sync.RWMutex

	cfg     HubConfig
	metrics *metrics.Metrics
	logger  *zerolog.Logger

	// base context of the sessions; cancelled when Run returns
	ctx    context.Context
	cancel context.CancelFunc
}

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512

	// Outbound queue per session; frames are dropped when it is full
	sendBuffer = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Access is gated by the API token
		return true
	},
}

// NewHub creates a new WebSocket hub
func NewHub(cfg HubConfig) *Hub {
	m := cfg.Metrics
	if m == nil {
		m = metrics.Get()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[string]*Client),
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		cfg:        cfg,
		metrics:    m,
		logger:     logger.Global(),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Run starts the hub's main loop. When ctx ends every session is closed.
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

func (h *Hub) shutdown() {
	h.cancel()

	h.mutex.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mutex.RUnlock()

	for _, c := range clients {
		h.unregisterClient(c)
	}
	h.logger.Info().Int("sessions", len(clients)).Msg("WebSocket hub stopped")
}

// registerClient registers a new session
func (h *Hub) registerClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.clients[client.ID] = client

	// Track metrics
	h.metrics.IncrementWSConnection()

	h.logger.Info().
		Str("session_id", client.ID).
		Int("sessions", len(h.clients)).
		Msg("WebSocket session registered")
}

// unregisterClient stops the session's view and closes its queue
func (h *Hub) unregisterClient(client *Client) {
	h.mutex.Lock()
	if current, ok := h.clients[client.ID]; !ok || current != client {
		h.mutex.Unlock()
		return
	}
	delete(h.clients, client.ID)
	remaining := len(h.clients)
	h.mutex.Unlock()

	// The view must be stopped before Send is closed: its goroutines write
	// to Send.
	if client.view != nil {
		client.view.Stop()
	}
	client.closeSend()

	// Track metrics
	h.metrics.DecrementWSConnection()

	h.logger.Info().
		Str("session_id", client.ID).
		Int("remaining_sessions", remaining).
		Msg("WebSocket session unregistered")
}

// broadcastMessage queues a message on every session
func (h *Hub) broadcastMessage(message []byte) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	for _, client := range h.clients {
		client.queue(message)
	}
}

// Broadcast sends a message to every session
func (h *Hub) Broadcast(message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to marshal broadcast message")
		return
	}
	select {
	case h.broadcast <- data:
	case <-h.ctx.Done():
	}
}

// BroadcastRefresh tells every session that the items of date changed and
// reloads the views showing it. An empty date reloads every view.
// The notice is queued before the reload so clients see it ahead of the new
// items.
func (h *Hub) BroadcastRefresh(date string) {
	data, err := json.Marshal(newMessage(MessageItemsRefresh, RefreshData{Date: date}))
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to marshal refresh message")
		return
	}

	h.mutex.RLock()
	defer h.mutex.RUnlock()
	for _, client := range h.clients {
		client.queue(data)
		if client.view == nil {
			continue
		}
		day := client.view.State().Day
		if date == "" || (!day.IsZero() && day.Format("2006-01-02") == date) {
			client.view.Reload()
		}
	}
}

// GetSessionIDs returns the IDs of the live sessions
func (h *Hub) GetSessionIDs() []string {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	return ids
}

// GetConnectionCount returns the total number of active sessions
func (h *Hub) GetConnectionCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
