package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/access"
	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/fanout"
	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/middleware"
	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/models"
	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/observability"
	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/presence"
)

// Presence wire event names on the "online" channel.
const (
	EventPresenceHere    = "presence.here"
	EventPresenceJoining = "presence.joining"
	EventPresenceLeaving = "presence.leaving"
)

// UserLoader resolves the authenticated user's profile and roles.
type UserLoader interface {
	GetUser(ctx context.Context, userID int) (models.User, error)
}

// SubscribeHandler upgrades `GET /ws?channel=...` requests into channel
// subscriptions. Every subscribe attempt passes through the access gate
// before the upgrade; unauthorized attempts are rejected without any
// channel data.
type SubscribeHandler struct {
	hub     *Hub
	gate    *access.Gate
	tracker *presence.Tracker
	users   UserLoader
	secret  []byte
}

// NewSubscribeHandler constructs a SubscribeHandler.
func NewSubscribeHandler(hub *Hub, gate *access.Gate, tracker *presence.Tracker, users UserLoader, secret []byte) *SubscribeHandler {
	return &SubscribeHandler{hub: hub, gate: gate, tracker: tracker, users: users, secret: secret}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle authenticates, authorizes and registers the client.
func (h *SubscribeHandler) Handle(c *gin.Context) {
	channel, err := access.ParseChannel(c.Query("channel"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel"})
		return
	}

	ctx, span := otel.Tracer("chat/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := c.GetHeader("Authorization")
	if token == "" {
		if q := c.Query("token"); q != "" {
			token = "Bearer " + q
		}
	}
	userID, err := middleware.UserIDFromBearer(h.secret, token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	user, err := h.users.GetUser(ctx, userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
		return
	}

	allowed, err := h.gate.CanSubscribe(ctx, user, channel)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify access"})
		return
	}
	if !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized for channel"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	name := channel.String()
	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      user.ID,
		Channel:     name,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	h.hub.Add(name, conn, info)

	kind := kindOf(name)
	observability.IncWSActive(kind)
	observability.IncWSEvent(kind, "ws_connect")
	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(ctx, "ws_events.chat",
		observability.NewEnvelope("ws_events", "ws_connect", wsEventPayload(info, "ws_connect", 0, "")), headers)

	if channel.Kind == access.Online {
		h.joinPresence(conn, info, user)
	}

	go h.readLoop(ctx, conn, info, channel, headers)
}

// joinPresence adds the user to the online set, hands the joiner the
// full snapshot, and tells everyone else about a first connection.
func (h *SubscribeHandler) joinPresence(conn *websocket.Conn, info ConnInfo, user models.User) {
	snapshot, first := h.tracker.Join(info.ConnID, user.Public())

	here, err := json.Marshal(fanout.Envelope{Channel: info.Channel, Event: EventPresenceHere, Data: snapshot})
	if err == nil {
		if err := conn.WriteMessage(websocket.TextMessage, here); err != nil {
			log.Printf("presence snapshot write error: %v", err)
		}
	}

	if first {
		joining, err := json.Marshal(fanout.Envelope{Channel: info.Channel, Event: EventPresenceJoining, Data: user.Public()})
		if err == nil {
			h.hub.Broadcast(info.Channel, joining, user.ID)
		}
	}
}

// leavePresence mirrors joinPresence on disconnect. A leave is only
// broadcast once the user's final connection is gone, so a leave can
// never be observed before its join for the same session.
func (h *SubscribeHandler) leavePresence(info ConnInfo) {
	userID, last := h.tracker.Leave(info.ConnID)
	if !last {
		return
	}
	leaving, err := json.Marshal(fanout.Envelope{
		Channel: info.Channel,
		Event:   EventPresenceLeaving,
		Data:    map[string]int{"id": userID},
	})
	if err == nil {
		h.hub.Broadcast(info.Channel, leaving, userID)
	}
}

func (h *SubscribeHandler) readLoop(ctx context.Context, conn *websocket.Conn, info ConnInfo, channel access.Channel, headers map[string]string) {
	kind := kindOf(info.Channel)
	var closeReason string
	defer func() {
		h.hub.Remove(info.Channel, conn)
		if channel.Kind == access.Online {
			h.leavePresence(info)
		}
		observability.DecWSActive(kind)
		observability.IncWSEvent(kind, "ws_disconnect")
		_ = observability.PublishEvent(ctx, "ws_events.chat",
			observability.NewEnvelope("ws_events", "ws_disconnect",
				wsEventPayload(info, "ws_disconnect", time.Since(info.ConnectedAt), closeReason)), headers)
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent(kind, "ws_error")
				_ = observability.PublishEvent(ctx, "ws_events.chat",
					observability.NewEnvelope("ws_events", "ws_error",
						wsEventPayload(info, "ws_error", time.Since(info.ConnectedAt), closeReason)), headers)
			}
			return
		}
	}
}
