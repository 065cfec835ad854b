package handler

import (
	"log/slog"
	"net/http"

	gorillaws "github.com/gorilla/websocket"

	"go-calendar/internal/websocket"
)

type StreamHandler struct {
	hub      *websocket.Hub
	upgrader gorillaws.Upgrader
}

func NewStreamHandler(hub *websocket.Hub, origins []string) *StreamHandler {
	return &StreamHandler{hub: hub, upgrader: websocket.Upgrader(origins)}
}

// Events upgrades to a websocket that receives every calendar change.
func (h *StreamHandler) Events(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	if err := h.hub.Serve(r.Context(), &h.upgrader, w, r, identity.UserID); err != nil {
		slog.Warn("event stream not opened", "user_id", identity.UserID, "error", err)
	}
}
