package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/ftrbnd/heardle/internal/domain"
)

// Message types
const (
	MessageTypeUserSnapshot = "user_snapshot"
	MessageTypeRotation     = "rotation"
	MessageTypePing         = "ping"
	MessageTypePong         = "pong"
	MessageTypeError        = "error"
)

// Message represents a WebSocket message
type Message struct {
	Type      string      `json:"type"`
	PlayerKey string      `json:"-"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// RotationNotice announces a new daily puzzle
type RotationNotice struct {
	PuzzleNumber int `json:"puzzle_number"`
}

// Hub maintains the set of active clients grouped by player key (account id
// for authenticated sessions, anonymous session id otherwise) and pushes
// fresh user snapshots to every open session of a player. It is the
// render-truth channel: clients draw state from snapshots, not local copies.
type Hub struct {
	// Registered clients by player key
	clients map[string]map[*Client]bool

	// All connected clients
	allClients map[*Client]bool

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Outbound messages
	broadcast chan *Message

	// Mutex for thread-safe operations
	mu sync.RWMutex

	// Logger
	logger *slog.Logger

	// Context for shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub creates a new Hub
func NewHub(logger *slog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		allClients: make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 256),
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	h.logger.Info("WebSocket hub started")
	for {
		select {
		case <-h.ctx.Done():
			h.logger.Info("WebSocket hub stopping")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.allClients[client] = true
			if _, ok := h.clients[client.playerKey]; !ok {
				h.clients[client.playerKey] = make(map[*Client]bool)
			}
			h.clients[client.playerKey][client] = true
			h.mu.Unlock()
			h.logger.Debug("client registered", "client_id", client.id, "player_key", client.playerKey)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.allClients[client]; ok {
				delete(h.allClients, client)
				if clients, ok := h.clients[client.playerKey]; ok {
					delete(clients, client)
					if len(clients) == 0 {
						delete(h.clients, client.playerKey)
					}
				}
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Debug("client unregistered", "client_id", client.id)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

// Stop stops the hub
func (h *Hub) Stop() {
	h.cancel()
}

// broadcastMessage sends a message to the addressed player's sessions, or to
// everyone when no player key is set
func (h *Hub) broadcastMessage(message *Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("failed to marshal message", "error", err)
		return
	}

	if message.PlayerKey != "" {
		if clients, ok := h.clients[message.PlayerKey]; ok {
			for client := range clients {
				select {
				case client.send <- data:
				default:
					// Client's buffer is full, skip
					h.logger.Warn("client buffer full, skipping", "client_id", client.id)
				}
			}
		}
	} else {
		for client := range h.allClients {
			select {
			case client.send <- data:
			default:
				h.logger.Warn("client buffer full, skipping", "client_id", client.id)
			}
		}
	}
}

// BroadcastSnapshot pushes a freshly committed user document to every open
// session of that player
func (h *Hub) BroadcastSnapshot(playerKey string, user *domain.User) {
	message := &Message{
		Type:      MessageTypeUserSnapshot,
		PlayerKey: playerKey,
		Data:      user,
		Timestamp: time.Now(),
	}

	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("broadcast channel full, dropping message")
	}
}

// BroadcastRotation announces a new daily puzzle to all connected clients
func (h *Hub) BroadcastRotation(puzzleNumber int) {
	message := &Message{
		Type:      MessageTypeRotation,
		Data:      RotationNotice{PuzzleNumber: puzzleNumber},
		Timestamp: time.Now(),
	}

	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("broadcast channel full, dropping message")
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// SessionCount returns the number of open sessions for a player
func (h *Hub) SessionCount(playerKey string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if clients, ok := h.clients[playerKey]; ok {
		return len(clients)
	}
	return 0
}

// GetTotalConnections returns the total number of connected clients
func (h *Hub) GetTotalConnections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.allClients)
}
