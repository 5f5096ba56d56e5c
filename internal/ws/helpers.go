package ws

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

func newConnID() string {
	return uuid.NewString()
}

// kindOf maps a channel name to its metrics label.
func kindOf(channel string) string {
	switch {
	case channel == "online":
		return "online"
	case strings.HasPrefix(channel, "message.user."):
		return "direct"
	case strings.HasPrefix(channel, "message.group."):
		return "group"
	case strings.HasPrefix(channel, "group.deleted."), strings.HasPrefix(channel, "group.statusChange."):
		return "group_lifecycle"
	case strings.HasPrefix(channel, "admin.notifications."):
		return "advisor"
	}
	return "unknown"
}

func wsEventPayload(info ConnInfo, event string, duration time.Duration, reason string) map[string]interface{} {
	return map[string]interface{}{
		"ws": map[string]interface{}{
			"channel":     info.Channel,
			"event":       event,
			"conn_id":     info.ConnID,
			"duration_ms": duration.Milliseconds(),
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}
}
