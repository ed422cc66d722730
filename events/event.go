package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TypeMessageCreated is emitted whenever a user submits a new message.
const TypeMessageCreated = "message/created"

// Event is the envelope carried by a Queue.
type Event struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Payload     json.RawMessage `json:"payload"`
	Attempt     int             `json:"attempt"`      // attempts made so far
	MaxAttempts int             `json:"max_attempts"` // 0 uses the dispatcher default
	LastError   string          `json:"last_error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// MessageCreated is the payload of a message/created event.
type MessageCreated struct {
	MessageID string `json:"messageId"`
	Content   string `json:"content"`
	UserID    string `json:"userId"`
}

// NewEvent encodes payload as JSON into a new envelope with a random ID.
func NewEvent(eventType string, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Payload:   data,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// NewMessageCreated builds a message/created event.
func NewMessageCreated(messageID, content, userID string) (*Event, error) {
	return NewEvent(TypeMessageCreated, MessageCreated{
		MessageID: messageID,
		Content:   content,
		UserID:    userID,
	})
}

// Decode unmarshals the payload into v.
func (e *Event) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("%w: %s payload: %w", ErrMalformedEvent, e.Type, err)
	}
	return nil
}

// Marshal encodes an envelope for transport.
func Marshal(e *Event) ([]byte, error) {
	return json.Marshal(e)
}

// Unmarshal decodes an envelope read from transport.
func Unmarshal(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}
	if e.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformedEvent)
	}
	return &e, nil
}
