// Package events defines the messages pushed to /ws clients.
package events

import "time"

// MessageType names a websocket message
type MessageType string

const (
	// MessageTypeOperationSnapshot carries the full state of a pipeline run
	MessageTypeOperationSnapshot MessageType = "operation:snapshot"

	// MessageTypeConnection is sent once when a client registers
	MessageTypeConnection MessageType = "connection"
)

// Message is the envelope of every websocket frame. Snapshot messages leave
// Subtype and Action empty; other events name the step and its status.
type Message struct {
	Type      MessageType `json:"type"`
	Subtype   string      `json:"subtype,omitempty"`
	Action    string      `json:"action,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// NewMessage stamps a message with the current time
func NewMessage(msgType MessageType, data interface{}) Message {
	return Message{Type: msgType, Data: data, Timestamp: time.Now().Format(time.RFC3339)}
}

// IsSnapshot reports whether the message carries a run snapshot
func (m Message) IsSnapshot() bool {
	return m.Type == MessageTypeOperationSnapshot
}
