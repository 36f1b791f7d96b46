package realtime

import "soundcrew/internal/models"

const (
	EventMessage = "message"
	EventRead    = "read"
)

// Event is the JSON frame pushed to websocket clients.
type Event struct {
	Type     string          `json:"type"`
	ThreadID string          `json:"threadId"`
	Message  *models.Message `json:"message,omitempty"`
	ReaderID string          `json:"readerId,omitempty"`
}

// Envelope addresses an event to a set of users. It is what travels on the bus.
type Envelope struct {
	UserIDs []string `json:"userIds"`
	Event   Event    `json:"event"`
}
