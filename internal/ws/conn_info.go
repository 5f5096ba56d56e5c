package ws

import "time"

// ConnInfo describes one subscribed connection for observability and
// initiator exclusion.
type ConnInfo struct {
	ConnID      string
	UserID      int
	Channel     string
	DeviceID    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}
