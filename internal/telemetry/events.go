package telemetry

// EventEnvelope wraps operational events (socket connects, disconnects,
// errors) published to the events exchange.
type EventEnvelope struct {
	EventType string `json:"event_type"`
	EventName string `json:"event_name"`
	Payload   any    `json:"payload"`
}
