package events

import "time"

// Payloads pushed to a user's notification room. They live in their own
// package so the gateway and the bootstrap orchestrator can share them
// without importing each other.

// TeamCreatedPayload announces a finished squad bootstrap.
type TeamCreatedPayload struct {
	Success     bool      `json:"success"`
	TeamID      string    `json:"team_id"`
	TeamName    string    `json:"team_name"`
	PlayerCount int       `json:"player_count"`
	Timestamp   time.Time `json:"timestamp"`
}

// TeamCreationFailedPayload announces a bootstrap that exhausted its
// retries. Delivery is best-effort.
type TeamCreationFailedPayload struct {
	Success   bool      `json:"success"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}
