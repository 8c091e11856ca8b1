package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/Imdraks/faxcloud-analyzer/internal/errors"
)

const maxClientLogBytes = 16 << 10

// ClientLogHandler records log entries sent by the upload front-end
type ClientLogHandler struct {
	logger *slog.Logger
}

// NewClientLogHandler creates a new client log handler
func NewClientLogHandler(logger *slog.Logger) *ClientLogHandler {
	return &ClientLogHandler{
		logger: logger.With(slog.String("handler", "client_log")),
	}
}

// LogRequest represents a client log entry
type LogRequest struct {
	Level   string                 `json:"level"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Source  string                 `json:"source,omitempty"`
}

// Handle handles POST /api/logs
func (h *ClientLogHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req LogRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxClientLogBytes)).Decode(&req); err != nil {
		errors.WriteError(w, errors.NewValidationError("Invalid request format"))
		return
	}
	if req.Message == "" {
		errors.WriteError(w, errors.ErrValidation("message", "message is required"))
		return
	}

	level := slog.LevelInfo
	switch req.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	attrs := []slog.Attr{slog.String("client_source", req.Source)}
	if req.Data != nil {
		attrs = append(attrs, slog.Any("data", req.Data))
	}
	h.logger.LogAttrs(r.Context(), level, req.Message, attrs...)

	render.JSON(w, r, map[string]interface{}{"success": true})
}
