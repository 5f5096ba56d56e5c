package ws

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/observability"
)

// Hub maintains the active subscriptions per channel. It is the
// in-process broker the fan-out publisher hands payloads to.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*websocket.Conn]ConnInfo
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*websocket.Conn]ConnInfo)}
}

// Add registers a connection on a channel. Authorization happened before
// the upgrade; the hub trusts its callers.
func (h *Hub) Add(channel string, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[channel]; !ok {
		h.rooms[channel] = make(map[*websocket.Conn]ConnInfo)
	}
	h.rooms[channel][conn] = info
}

// Remove drops a connection from a channel.
func (h *Hub) Remove(channel string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.rooms[channel]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.rooms, channel)
		}
	}
}

// Subscribers reports the number of live connections on a channel.
func (h *Hub) Subscribers(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[channel])
}

// Broadcast writes the payload to every subscriber of the channel except
// connections owned by excludeUserID. Pass 0 to deliver to everyone.
// Dead connections are closed and unregistered on write failure.
func (h *Hub) Broadcast(channel string, payload []byte, excludeUserID int) {
	h.mu.RLock()
	targets := make(map[*websocket.Conn]ConnInfo, len(h.rooms[channel]))
	for conn, info := range h.rooms[channel] {
		if excludeUserID != 0 && info.UserID == excludeUserID {
			continue
		}
		targets[conn] = info
	}
	h.mu.RUnlock()

	for conn, info := range targets {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("websocket write error: %v", err)
			conn.Close()
			h.Remove(channel, conn)
			h.publishWSError(info, err)
		}
	}
}

func (h *Hub) publishWSError(info ConnInfo, err error) {
	observability.IncWSEvent(kindOf(info.Channel), "ws_error")
	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(context.Background(), "ws_events.chat",
		observability.NewEnvelope("ws_events", "ws_error",
			wsEventPayload(info, "ws_error", time.Since(info.ConnectedAt), err.Error())), headers)
}
