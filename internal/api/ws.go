package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/fieldops/fieldops/internal/auth"
)

// WSHandler streams message events to an authenticated websocket client.
// This is the push channel that replaces the fixed-interval polling the
// chat UI used to do.
type WSHandler struct {
	base          *Handler
	allowedOrigin string
	isDev         bool
}

// NewWSHandler creates a new websocket handler.
func NewWSHandler(base *Handler, allowedOrigin string, isDev bool) *WSHandler {
	return &WSHandler{
		base:          base,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
	}
}

// ServeHTTP upgrades the connection and forwards the caller's message
// events until the client disconnects. The subscription is the only
// cancellation point; closing the socket tears it down.
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims := auth.FromContext(r.Context())
	if claims == nil {
		Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "user_id", claims.UserID)
		return
	}
	defer func() {
		if closeErr := conn.Close(websocket.StatusNormalClosure, "feed closed"); closeErr != nil {
			slog.Debug("WebSocket close error", "error", closeErr)
		}
	}()

	events, cancel, err := h.base.relay.Subscribe(claims.UserID)
	if err != nil {
		slog.Error("Failed to subscribe to message feed", "user_id", claims.UserID, "error", err)
		_ = conn.Close(websocket.StatusInternalError, "subscription failed")
		return
	}
	defer cancel()

	slog.Info("Message feed opened", "user_id", claims.UserID, "ip", r.RemoteAddr)

	// We never expect client frames; CloseRead surfaces disconnects
	// through the returned context.
	ctx := conn.CloseRead(r.Context())

	for {
		select {
		case <-ctx.Done():
			slog.Debug("Message feed closed", "user_id", claims.UserID)
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := wsjson.Write(ctx, conn, ev); err != nil {
				slog.Debug("Message feed write failed", "user_id", claims.UserID, "error", err)
				return
			}
		}
	}
}

func (h *WSHandler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true // non-browser client
	}
	return h.allowedOrigin != "" && strings.HasPrefix(origin, h.allowedOrigin)
}
