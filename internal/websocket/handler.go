package websocket

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/Imdraks/faxcloud-analyzer/internal/config"
)

// Handler upgrades HTTP requests and attaches the connection to the hub
type Handler struct {
	hub            *Hub
	upgrader       websocket.Upgrader
	allowedOrigins map[string]bool
	logger         *slog.Logger
}

// NewHandler creates the upgrade handler. Requests without an Origin header
// are accepted; otherwise the origin must be listed or "*" must be.
func NewHandler(hub *Hub, cfg config.WebSocketConfig, allowedOrigins []string, logger *slog.Logger) *Handler {
	h := &Handler{
		hub:            hub,
		allowedOrigins: make(map[string]bool, len(allowedOrigins)),
		logger:         logger.With(slog.String("component", "websocket.handler")),
	}
	for _, o := range allowedOrigins {
		h.allowedOrigins[o] = true
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigins["*"] || h.allowedOrigins[origin] {
		return true
	}
	h.logger.WarnContext(r.Context(), "WebSocket origin not allowed", slog.String("origin", origin))
	return false
}

// ServeHTTP implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.logger.WarnContext(ctx, "WebSocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	client := NewClient(h.hub, conn, middleware.GetReqID(ctx), h.logger)
	if !h.hub.Register(client) {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}

	h.logger.InfoContext(ctx, "WebSocket client connected",
		slog.String("client_id", client.id),
		slog.String("remote_addr", r.RemoteAddr))

	go client.WritePump()
	go client.ReadPump()
}
