package gateway

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType names a notification pushed to a user's room.
type EventType string

const (
	EventTypeTeamCreated        EventType = "team-created"
	EventTypeTeamCreationFailed EventType = "team-creation-failed"
)

// Event is the envelope delivered over a user's live connection.
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// NewEvent wraps a payload in an envelope. Marshal errors are impossible
// for the payload types in the events package; they surface anyway so
// callers can decide how loudly to fail.
func NewEvent(eventType EventType, at time.Time, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: at,
		Data:      data,
	}, nil
}
