package bootstrap

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/mcdev12/squadmarket/go/internal/gateway"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// NATSNotifier publishes user notifications on core NATS subjects. The
// gateway relay in the API process picks them up and delivers them over
// WebSocket. Publish never returns an error to the caller: losing a
// notification must not fail or retry the job that produced it.
type NATSNotifier struct {
	nc *nats.Conn
}

func NewNATSNotifier(nc *nats.Conn) *NATSNotifier {
	return &NATSNotifier{nc: nc}
}

func (n *NATSNotifier) Publish(userID uuid.UUID, event *gateway.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("could not marshal notification")
		return
	}
	if err := n.nc.Publish(gateway.NotifySubject(userID), data); err != nil {
		log.Warn().
			Err(err).
			Str("user_id", userID.String()).
			Str("event_type", string(event.Type)).
			Msg("could not publish notification")
	}
}
