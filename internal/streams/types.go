package streams

import "time"

// Stream name constants
const (
	StreamMessagesReceived = "messages:received"
)

// Consumer group constants
const (
	GroupNotifiers = "notifiers"
)

// Schema version constant
const (
	SchemaVersionV1 = "v1"
)

// MessageReceived is published once an anonymous message has been stored.
// It never carries the message content.
type MessageReceived struct {
	MessageID  string    `json:"message_id"`
	UserID     string    `json:"user_id"`
	Username   string    `json:"username"`
	ReceivedAt time.Time `json:"received_at"`
}
