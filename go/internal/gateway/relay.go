package gateway

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// NotifySubjectPrefix is the core NATS subject space for per-user push
// notifications. Publishers append the user's UUID.
const NotifySubjectPrefix = "notify.user."

// NotifySubject returns the subject for one user's notifications.
func NotifySubject(userID uuid.UUID) string {
	return NotifySubjectPrefix + userID.String()
}

// Relay subscribes to the notification subjects and forwards events into
// the connection manager. It decouples the processes that produce
// notifications from the one holding the sockets.
type Relay struct {
	nc      *nats.Conn
	manager *ConnectionManager
	sub     *nats.Subscription
}

func NewRelay(nc *nats.Conn, manager *ConnectionManager) *Relay {
	return &Relay{nc: nc, manager: manager}
}

// Start subscribes to all user notification subjects.
func (r *Relay) Start() error {
	sub, err := r.nc.Subscribe(NotifySubjectPrefix+">", r.handle)
	if err != nil {
		return fmt.Errorf("subscribe to notifications: %w", err)
	}
	r.sub = sub
	log.Info().Str("subject", NotifySubjectPrefix+">").Msg("notification relay started")
	return nil
}

func (r *Relay) handle(msg *nats.Msg) {
	rawID := strings.TrimPrefix(msg.Subject, NotifySubjectPrefix)
	userID, err := uuid.Parse(rawID)
	if err != nil {
		log.Warn().Str("subject", msg.Subject).Msg("notification on unparseable subject")
		return
	}

	var event Event
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		log.Warn().Err(err).Str("subject", msg.Subject).Msg("malformed notification payload")
		return
	}

	r.manager.Publish(userID, &event)
}

func (r *Relay) Stop() error {
	if r.sub != nil {
		return r.sub.Unsubscribe()
	}
	return nil
}
