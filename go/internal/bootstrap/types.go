package bootstrap

import (
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const (
	// StreamName is the durable JetStream stream backing team-creation jobs.
	StreamName = "SQUAD_BOOTSTRAP"

	subjectPrefix        = "bootstrap.team"
	SubjectTeamRequested = "bootstrap.team.requested"

	consumerName          = "squad-bootstrap-workers"
	consumerMaxDeliver    = 3
	consumerAckWait       = 30 * time.Second
	consumerMaxAckPending = 100

	natsMaxReconnects = -1
	natsReconnectWait = 2 * time.Second

	eventChannelBufferSize = 100
)

// retryBackOff spaces out the redeliveries after a failed attempt.
// Three deliveries total: the first immediately, then after 2s and 4s.
var retryBackOff = []time.Duration{2 * time.Second, 4 * time.Second}

// teamCreationMessage is the wire body of a team-creation job.
type teamCreationMessage struct {
	JobID  uuid.UUID `json:"job_id"`
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
}

// StreamConfig holds JetStream connection and stream settings.
type StreamConfig struct {
	URL             string
	MaxReconnects   int
	ReconnectWait   time.Duration
	MaxAge          time.Duration
	DuplicateWindow time.Duration
}

// DefaultStreamConfig returns the settings used outside of tests.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		URL:             nats.DefaultURL,
		MaxReconnects:   natsMaxReconnects,
		ReconnectWait:   natsReconnectWait,
		MaxAge:          7 * 24 * time.Hour,
		DuplicateWindow: 2 * time.Hour,
	}
}
