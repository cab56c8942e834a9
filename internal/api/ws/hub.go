package ws

import (
	"context"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/qbsync/internal/session"
	redisstore "github.com/gosuda/qbsync/internal/store/redis"
)

// Subscriber streams the payloads published to a channel.
// *redisstore.PubSub satisfies this interface.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error)
}

// SessionLookup resolves a ticket to a live session.
// *session.Registry satisfies this interface.
type SessionLookup interface {
	Lookup(ticket string) (*session.Session, error)
}

// Hub serves live session event streams over WebSocket, backed by Redis
// pub/sub. A nil subscriber makes every route answer 501.
type Hub struct {
	sub      Subscriber
	sessions SessionLookup
}

// NewHub creates a new WebSocket hub.
func NewHub(sub Subscriber, sessions SessionLookup) *Hub {
	return &Hub{sub: sub, sessions: sessions}
}

// ServeSession streams the job events of one session.
// Subscribes to Redis channel "qbwc:session:<ticket>".
func (h *Hub) ServeSession(w http.ResponseWriter, r *http.Request) {
	if h.sub == nil {
		http.Error(w, "live streaming is not configured", http.StatusNotImplemented)
		return
	}

	ticket := chi.URLParam(r, "ticket")
	if _, err := h.sessions.Lookup(ticket); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		http.Error(w, "lookup failed", http.StatusInternalServerError)
		return
	}

	h.stream(w, r, redisstore.SessionChannel(ticket))
}

// ServeAll streams the job events of every session.
func (h *Hub) ServeAll(w http.ResponseWriter, r *http.Request) {
	if h.sub == nil {
		http.Error(w, "live streaming is not configured", http.StatusNotImplemented)
		return
	}
	h.stream(w, r, redisstore.AllSessionsChannel)
}

func (h *Hub) stream(w http.ResponseWriter, r *http.Request, channel string) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws.Hub: accept")
		return
	}
	defer conn.CloseNow()

	// Clients never send; ctx ends when they disconnect.
	ctx := conn.CloseRead(r.Context())

	messages, cleanup, err := h.sub.Subscribe(ctx, channel)
	if err != nil {
		log.Error().Err(err).Str("channel", channel).Msg("ws.Hub: subscribe")
		_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer cleanup()

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
			return
		case msg, ok := <-messages:
			if !ok {
				_ = conn.Close(websocket.StatusNormalClosure, "channel closed")
				return
			}
			if writeErr := conn.Write(ctx, websocket.MessageText, msg); writeErr != nil {
				log.Debug().Err(writeErr).Str("channel", channel).Msg("ws.Hub: write")
				return
			}
		}
	}
}
