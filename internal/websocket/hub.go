package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/Imdraks/faxcloud-analyzer/internal/infrastructure"
)

// Event types
const (
	TypeConnection    = "connection"
	TypeReportCreated = "report:created"
	TypeReportDeleted = "report:deleted"
	TypeAnalysisError = "analysis:error"
)

const broadcastQueueSize = 64

// Event is the envelope of every message sent to clients
type Event struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

type envelope struct {
	eventType string
	payload   []byte
}

// Hub maintains the set of active clients and broadcasts events to them
type Hub struct {
	clients map[*Client]struct{}

	broadcast  chan envelope
	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	running bool
	quit    chan struct{}
	done    chan struct{}

	pingPeriod time.Duration
	pongWait   time.Duration

	logger  *slog.Logger
	metrics *HubMetrics
}

// HubOption configures a Hub
type HubOption func(*Hub)

// WithMetrics records hub activity on m
func WithMetrics(m *HubMetrics) HubOption {
	return func(h *Hub) { h.metrics = m }
}

// WithKeepalive sets the ping period and pong deadline used by clients
func WithKeepalive(pingPeriod, pongWait time.Duration) HubOption {
	return func(h *Hub) {
		if pingPeriod > 0 {
			h.pingPeriod = pingPeriod
		}
		if pongWait > 0 {
			h.pongWait = pongWait
		}
	}
}

// NewHub creates a new Hub instance with dependency injection
func NewHub(logger *slog.Logger, opts ...HubOption) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	h := &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan envelope, broadcastQueueSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
		pingPeriod: 54 * time.Second,
		pongWait:   60 * time.Second,
		logger:     logger.With(slog.String("component", "websocket.hub")),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Start runs the hub loop in its own goroutine. Calling it twice is a no-op.
func (h *Hub) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return
	}
	h.running = true
	go h.run()
}

// Stop ends the hub loop, waits for it and closes every client queue
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.quit)
	<-h.done

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.logger.Info("Hub stopped")
}

func (h *Hub) run() {
	defer close(h.done)
	for {
		select {
		case <-h.quit:
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			count := len(h.clients)
			h.mu.Unlock()

			ctx := client.context()
			h.metrics.connected(ctx)
			h.logger.InfoContext(ctx, "Client registered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr))

			payload, err := h.encode(TypeConnection, map[string]interface{}{
				"status":    "connected",
				"client_id": client.id,
			}, client.traceID)
			if err == nil {
				select {
				case client.send <- payload:
				default:
					h.logger.WarnContext(ctx, "Client buffer full, connection event dropped",
						slog.String("client_id", client.id))
				}
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				count := len(h.clients)
				h.mu.Unlock()

				ctx := client.context()
				h.metrics.disconnected(ctx)
				h.logger.InfoContext(ctx, "Client unregistered",
					slog.Int("total_clients", count),
					slog.String("client_id", client.id),
					slog.Duration("connection_duration", time.Since(client.connectedAt)))
			} else {
				h.mu.Unlock()
			}

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

func (h *Hub) deliver(msg envelope) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	ctx := context.Background()
	sent := 0
	for _, client := range clients {
		select {
		case client.send <- msg.payload:
			sent++
		default:
			h.mu.Lock()
			close(client.send)
			delete(h.clients, client)
			h.mu.Unlock()

			h.metrics.disconnected(ctx)
			h.metrics.dropped(ctx, "client_buffer_full")
			h.logger.WarnContext(client.context(), "Client send buffer full, disconnecting",
				slog.String("client_id", client.id))
		}
	}

	h.metrics.delivered(ctx, msg.eventType, sent)
	h.logger.Debug("Broadcast event",
		slog.String("type", msg.eventType),
		slog.Int("client_count", len(clients)),
		slog.Int("delivered", sent))
}

// Broadcast queues an event for every connected client. Events are dropped
// when the hub is stopped or its queue is full.
func (h *Hub) Broadcast(messageType string, data interface{}) {
	h.BroadcastWithTrace(messageType, data, "")
}

// BroadcastWithTrace is Broadcast with a trace ID attached to the event
func (h *Hub) BroadcastWithTrace(messageType string, data interface{}, traceID string) {
	payload, err := h.encode(messageType, data, traceID)
	if err != nil {
		return
	}

	select {
	case <-h.quit:
		return
	default:
	}

	select {
	case h.broadcast <- envelope{eventType: messageType, payload: payload}:
	default:
		h.metrics.dropped(context.Background(), "hub_queue_full")
		h.logger.Warn("Broadcast queue full, event dropped", slog.String("type", messageType))
	}
}

func (h *Hub) encode(messageType string, data interface{}, traceID string) ([]byte, error) {
	payload, err := json.Marshal(Event{
		Type:      messageType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		TraceID:   traceID,
	})
	if err != nil {
		h.logger.Error("Error marshaling event",
			slog.String("type", messageType),
			slog.String("error", err.Error()))
	}
	return payload, err
}

// Register adds a client to the hub. It reports false once the hub is
// stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.quit:
		return false
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
