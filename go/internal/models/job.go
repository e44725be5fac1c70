package models

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus tracks a team-creation job through its state machine:
// PENDING -> RUNNING -> COMPLETED or FAILED.
type JobStatus string

const (
	JobPending   JobStatus = "PENDING"
	JobRunning   JobStatus = "RUNNING"
	JobCompleted JobStatus = "COMPLETED"
	JobFailed    JobStatus = "FAILED"
)

// TeamCreationJob is the persisted record of one squad-bootstrap request.
type TeamCreationJob struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Status    JobStatus `json:"status"`
	Attempts  int       `json:"attempts"`
	LastError string    `json:"last_error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
