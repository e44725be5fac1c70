package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/squadmarket/go/internal/events"
	"github.com/mcdev12/squadmarket/go/internal/gateway"
	"github.com/mcdev12/squadmarket/go/internal/models"
	"github.com/mcdev12/squadmarket/go/internal/team"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// TeamBuilder is what the orchestrator needs from the team app.
type TeamBuilder interface {
	CreateTeamForUser(ctx context.Context, userID uuid.UUID, email string) (*models.Team, error)
	CountPlayers(ctx context.Context, teamID uuid.UUID) (int, error)
}

// JobStore tracks job state transitions alongside queue delivery.
type JobStore interface {
	MarkRunning(ctx context.Context, id uuid.UUID) error
	MarkCompleted(ctx context.Context, id uuid.UUID) error
	RecordError(ctx context.Context, id uuid.UUID, lastError string) error
	MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error
}

// Notifier pushes an event to a user's live sessions. Implementations
// must never block; delivery is best-effort.
type Notifier interface {
	Publish(userID uuid.UUID, event *gateway.Event)
}

// errRetryable wraps failures that should go back to the queue for
// another delivery. Everything else is terminal for the job.
type errRetryable struct{ err error }

func (e errRetryable) Error() string { return e.err.Error() }
func (e errRetryable) Unwrap() error { return e.err }

// Orchestrator consumes team-creation jobs and runs squad bootstrap for
// each one. Failures ride the consumer's redelivery schedule; after the
// last delivery the job is marked FAILED and the user is told.
type Orchestrator struct {
	teams    TeamBuilder
	jobs     JobStore
	notifier Notifier
	clock    clockwork.Clock

	js       jetstream.JetStream
	consumer jetstream.Consumer

	instanceID string

	numWorkers int
	workCh     chan jetstream.Msg
}

// NewOrchestrator creates a bootstrap orchestrator on an existing
// JetStream context.
func NewOrchestrator(js jetstream.JetStream, teams TeamBuilder, jobs JobStore, notifier Notifier) (*Orchestrator, error) {
	o := newOrchestrator(teams, jobs, notifier, clockwork.NewRealClock())
	o.js = js

	if err := o.ensureConsumer(context.Background()); err != nil {
		return nil, err
	}

	return o, nil
}

// newOrchestrator wires the handler without any NATS connection, so the
// job logic can run against fakes.
func newOrchestrator(teams TeamBuilder, jobs JobStore, notifier Notifier, clock clockwork.Clock) *Orchestrator {
	numWorkers := 4
	return &Orchestrator{
		teams:      teams,
		jobs:       jobs,
		notifier:   notifier,
		clock:      clock,
		instanceID: uuid.New().String()[:8],
		numWorkers: numWorkers,
		workCh:     make(chan jetstream.Msg, numWorkers*2),
	}
}

// handleJob runs one delivery of a team-creation job. A nil return means
// the message should be acked; an errRetryable means nak for redelivery.
// finalAttempt tells the handler there will be no further deliveries.
func (o *Orchestrator) handleJob(ctx context.Context, msg teamCreationMessage, finalAttempt bool) error {
	if err := o.jobs.MarkRunning(ctx, msg.JobID); err != nil {
		// The ledger is observational; a missing row must not stall the queue.
		log.Warn().
			Err(err).
			Str("job_id", msg.JobID.String()).
			Msg("could not mark job running")
	}

	created, err := o.teams.CreateTeamForUser(ctx, msg.UserID, msg.Email)
	if err != nil {
		if errors.Is(err, team.ErrOwnerNotFound) {
			// The user row is gone; redelivering cannot fix that.
			return o.failJob(ctx, msg, err)
		}
		if finalAttempt {
			return o.failJob(ctx, msg, err)
		}
		if recErr := o.jobs.RecordError(ctx, msg.JobID, err.Error()); recErr != nil {
			log.Warn().Err(recErr).Str("job_id", msg.JobID.String()).Msg("could not record job error")
		}
		return errRetryable{err: err}
	}

	if err := o.jobs.MarkCompleted(ctx, msg.JobID); err != nil {
		log.Warn().
			Err(err).
			Str("job_id", msg.JobID.String()).
			Msg("could not mark job completed")
	}

	playerCount, err := o.teams.CountPlayers(ctx, created.ID)
	if err != nil {
		log.Warn().Err(err).Str("team_id", created.ID.String()).Msg("could not count players for notification")
		playerCount = team.GeneratedSquadSize
	}

	o.notifyCreated(msg.UserID, created, playerCount)
	return nil
}

// failJob records the terminal failure and tells the user. It returns
// nil so the message is acked and leaves the queue.
func (o *Orchestrator) failJob(ctx context.Context, msg teamCreationMessage, cause error) error {
	log.Error().
		Err(cause).
		Str("job_id", msg.JobID.String()).
		Str("user_id", msg.UserID.String()).
		Msg("team creation job failed permanently")

	if err := o.jobs.MarkFailed(ctx, msg.JobID, cause.Error()); err != nil {
		log.Warn().Err(err).Str("job_id", msg.JobID.String()).Msg("could not mark job failed")
	}

	o.notifyFailed(msg.UserID, cause)
	return nil
}

func (o *Orchestrator) notifyCreated(userID uuid.UUID, created *models.Team, playerCount int) {
	now := o.clock.Now()
	event, err := gateway.NewEvent(gateway.EventTypeTeamCreated, now, events.TeamCreatedPayload{
		Success:     true,
		TeamID:      created.ID.String(),
		TeamName:    created.Name,
		PlayerCount: playerCount,
		Timestamp:   now,
	})
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("could not build team-created event")
		return
	}
	o.notifier.Publish(userID, event)
}

func (o *Orchestrator) notifyFailed(userID uuid.UUID, cause error) {
	now := o.clock.Now()
	event, err := gateway.NewEvent(gateway.EventTypeTeamCreationFailed, now, events.TeamCreationFailedPayload{
		Success:   false,
		Error:     cause.Error(),
		Timestamp: now,
	})
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("could not build team-creation-failed event")
		return
	}
	o.notifier.Publish(userID, event)
}

// processMsg decodes a JetStream delivery and dispatches it to handleJob.
func (o *Orchestrator) processMsg(ctx context.Context, msg jetstream.Msg) error {
	var body teamCreationMessage
	if err := decodeMessage(msg.Data(), &body); err != nil {
		// Malformed payloads can never succeed; drop them from the queue.
		log.Error().
			Err(err).
			Str("subject", msg.Subject()).
			Msg("dropping malformed bootstrap message")
		return nil
	}

	finalAttempt := false
	if meta, err := msg.Metadata(); err == nil {
		finalAttempt = meta.NumDelivered >= consumerMaxDeliver
	} else {
		log.Warn().Err(err).Str("job_id", body.JobID.String()).Msg("could not read delivery metadata")
	}

	log.Debug().
		Str("job_id", body.JobID.String()).
		Str("user_id", body.UserID.String()).
		Bool("final_attempt", finalAttempt).
		Msg("processing team creation job")

	return o.handleJob(ctx, body, finalAttempt)
}

func decodeMessage(data []byte, out *teamCreationMessage) error {
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unmarshal job message: %w", err)
	}
	if out.JobID == uuid.Nil || out.UserID == uuid.Nil {
		return errors.New("job message missing identifiers")
	}
	return nil
}
