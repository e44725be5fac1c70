package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered owner identity
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
