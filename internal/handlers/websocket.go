package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/invenio/internal/interfaces"
	"golang.org/x/time/rate"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// progressThrottleInterval caps job_progress fan-out. Intermediate progress
// frames are dropped; lifecycle and log events always go through.
const progressThrottleInterval = 500 * time.Millisecond

// WSMessage is the envelope every websocket frame carries.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// statusUpdate is the hello frame sent on connect. Clients compare
// server_instance_id across reconnects to detect a server restart.
type statusUpdate struct {
	Service          string `json:"service"`
	ServerInstanceID string `json:"server_instance_id"`
}

type WebSocketHandler struct {
	logger            arbor.ILogger
	clients           map[*websocket.Conn]bool
	clientMutex       map[*websocket.Conn]*sync.Mutex
	mu                sync.RWMutex
	eventService      interfaces.EventService
	progressThrottler *rate.Limiter
	serverInstanceID  string // Unique ID generated on startup - clients use to detect server restart
}

func NewWebSocketHandler(eventService interfaces.EventService, logger arbor.ILogger) *WebSocketHandler {
	h := &WebSocketHandler{
		logger:            logger,
		clients:           make(map[*websocket.Conn]bool),
		clientMutex:       make(map[*websocket.Conn]*sync.Mutex),
		eventService:      eventService,
		progressThrottler: rate.NewLimiter(rate.Every(progressThrottleInterval), 1),
		serverInstanceID:  uuid.New().String(),
	}

	logger.Info().Str("server_instance_id", h.serverInstanceID).Msg("WebSocket handler initialized with server instance ID")

	return h
}

// SubscribeToJobEvents wires the handler to the job event stream.
func (h *WebSocketHandler) SubscribeToJobEvents() {
	if h.eventService == nil {
		return
	}

	immediate := []interfaces.EventType{
		interfaces.EventJobQueued,
		interfaces.EventJobStarted,
		interfaces.EventJobLog,
		interfaces.EventJobCompleted,
		interfaces.EventJobCancelled,
		interfaces.EventJobFailed,
	}
	for _, eventType := range immediate {
		h.eventService.Subscribe(eventType, func(ctx context.Context, event interfaces.Event) error {
			h.broadcast(WSMessage{Type: string(event.Type), Payload: event.Payload})
			return nil
		})
	}

	// Throttle progress events to prevent WebSocket flooding
	h.eventService.Subscribe(interfaces.EventJobProgress, func(ctx context.Context, event interfaces.Event) error {
		if !h.progressThrottler.Allow() {
			return nil
		}
		h.broadcast(WSMessage{Type: string(event.Type), Payload: event.Payload})
		return nil
	})
}

func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.clientMutex[conn] = &sync.Mutex{}
	h.mu.Unlock()

	h.logger.Debug().Msgf("WebSocket client connected (total: %d)", len(h.clients))

	// Send initial status
	h.sendStatus(conn)

	// Handle client disconnection
	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		delete(h.clientMutex, conn)
		clientCount := len(h.clients)
		h.mu.Unlock()

		conn.Close()
		h.logger.Debug().Msgf("WebSocket client disconnected (remaining: %d)", clientCount)
	}()

	// Read messages from client (keep connection alive)
	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn().Err(err).Msg("WebSocket error")
			}
			break
		}
	}
}

// broadcast marshals the message once and sends it to every connected client.
// Each connection has its own write mutex so concurrent broadcasts never
// interleave frames.
func (h *WebSocketHandler) broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Str("type", msg.Type).Msg("Failed to marshal websocket message")
		return
	}

	h.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	mutexes := make([]*sync.Mutex, 0, len(h.clients))
	for conn := range h.clients {
		clients = append(clients, conn)
		mutexes = append(mutexes, h.clientMutex[conn])
	}
	h.mu.RUnlock()

	for i, conn := range clients {
		mutex := mutexes[i]
		mutex.Lock()
		err := conn.WriteMessage(websocket.TextMessage, data)
		mutex.Unlock()

		if err != nil {
			h.logger.Warn().Err(err).Str("type", msg.Type).Msg("Failed to send message to client")
		}
	}
}

// sendStatus sends the hello frame to a single client
func (h *WebSocketHandler) sendStatus(conn *websocket.Conn) {
	msg := WSMessage{
		Type: "status",
		Payload: statusUpdate{
			Service:          "ONLINE",
			ServerInstanceID: h.serverInstanceID,
		},
	}

	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to marshal initial status")
		return
	}

	h.mu.RLock()
	mutex := h.clientMutex[conn]
	h.mu.RUnlock()

	if mutex != nil {
		mutex.Lock()
		err := conn.WriteMessage(websocket.TextMessage, data)
		mutex.Unlock()

		if err != nil {
			h.logger.Warn().Err(err).Msg("Failed to send initial status")
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *WebSocketHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
