package gateway

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler terminates the GET /ws upgrade and joins the session
// to the caller's room.
type WebSocketHandler struct {
	manager *ConnectionManager
}

func NewWebSocketHandler(manager *ConnectionManager) *WebSocketHandler {
	return &WebSocketHandler{manager: manager}
}

// RegisterRoutes registers the WebSocket endpoint on the mux.
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws", h.handleConnect)
}

func (h *WebSocketHandler) handleConnect(w http.ResponseWriter, r *http.Request) {
	// Identity comes from the gateway header, same trust model as the
	// REST surface. Browsers cannot set headers on the WS handshake, so
	// a query parameter is accepted as a fallback.
	raw := r.Header.Get("X-User-ID")
	if raw == "" {
		raw = r.URL.Query().Get("user_id")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		http.Error(w, "missing or invalid user identity", http.StatusUnauthorized)
		return
	}

	if err := h.manager.UpgradeConnection(w, r, userID); err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("websocket upgrade failed")
	}
}
