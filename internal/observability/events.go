package observability

import "time"

// EventEnvelope wraps a mirrored event for broker consumers. EventType
// groups the stream ("chat_events", "ws_events"), EventName is the
// concrete event within it.
type EventEnvelope struct {
	EventType  string      `json:"event_type"`
	EventName  string      `json:"event_name"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// NewEnvelope stamps the envelope with the current time.
func NewEnvelope(eventType, eventName string, payload interface{}) EventEnvelope {
	return EventEnvelope{
		EventType:  eventType,
		EventName:  eventName,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// BuildHeaders collects the correlation headers carried on mirrored
// messages. Empty values are omitted.
func BuildHeaders(requestID, traceID string) map[string]string {
	headers := map[string]string{}
	if requestID != "" {
		headers["x-request-id"] = requestID
	}
	if traceID != "" {
		headers["trace_id"] = traceID
	}
	return headers
}
