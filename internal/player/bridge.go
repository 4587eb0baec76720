package player

import "encoding/json"

// Message is the envelope embedded players exchange with their host
// page: a named event plus an event-specific payload.
type Message struct {
	EventName string          `json:"eventName"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Bridge carries messages between an adapter and an embedded player
// running elsewhere (typically an iframe reached over postMessage).
// Messages() is closed when the far side goes away.
type Bridge interface {
	Send(msg Message) error
	Messages() <-chan Message
	Close() error
}

func encodeData(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}
