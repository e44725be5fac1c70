package bootstrap

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// Producer enqueues team-creation jobs: one durable job row plus one
// JetStream message. Registration returns as soon as the message is
// acked by the stream; the worker does the rest.
type Producer struct {
	js     jetstream.JetStream
	jobs   *Repository
	config StreamConfig
}

func NewProducer(js jetstream.JetStream, jobs *Repository, cfg StreamConfig) (*Producer, error) {
	p := &Producer{js: js, jobs: jobs, config: cfg}

	if err := p.ensureStream(context.Background()); err != nil {
		return nil, fmt.Errorf("ensure stream: %w", err)
	}

	return p, nil
}

func (p *Producer) ensureStream(ctx context.Context) error {
	sc := jetstream.StreamConfig{
		Name:        StreamName,
		Description: "Durable queue for squad bootstrap jobs",
		Subjects:    []string{fmt.Sprintf("%s.>", subjectPrefix)},
		Retention:   jetstream.WorkQueuePolicy,
		MaxAge:      p.config.MaxAge,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Duplicates:  p.config.DuplicateWindow,
	}

	stream, err := p.js.Stream(ctx, StreamName)
	if err != nil {
		if _, err = p.js.CreateStream(ctx, sc); err != nil {
			return fmt.Errorf("create stream: %w", err)
		}
		log.Info().Str("stream", StreamName).Msg("created JetStream stream")
		return nil
	}

	info, err := stream.Info(ctx)
	if err != nil {
		return fmt.Errorf("get stream info: %w", err)
	}
	if info.Config.MaxAge != sc.MaxAge || info.Config.Duplicates != sc.Duplicates {
		if _, err = p.js.UpdateStream(ctx, sc); err != nil {
			return fmt.Errorf("update stream: %w", err)
		}
		log.Info().Str("stream", StreamName).Msg("updated JetStream stream")
	}
	return nil
}

// EnqueueTeamCreation records a job and publishes it for the bootstrap
// worker. The job ID doubles as the message ID, so a crash between the
// insert and a retried publish cannot enqueue the job twice within the
// duplicate window.
func (p *Producer) EnqueueTeamCreation(ctx context.Context, userID uuid.UUID, email string) error {
	job, err := p.jobs.CreateJob(ctx, userID)
	if err != nil {
		return err
	}

	data, err := json.Marshal(teamCreationMessage{
		JobID:  job.ID,
		UserID: userID,
		Email:  email,
	})
	if err != nil {
		return fmt.Errorf("marshal job message: %w", err)
	}

	ack, err := p.js.PublishMsg(ctx, &nats.Msg{
		Subject: SubjectTeamRequested,
		Data:    data,
		Header: nats.Header{
			"Job-ID":  []string{job.ID.String()},
			"User-ID": []string{userID.String()},
		},
	},
		jetstream.WithMsgID(job.ID.String()),
		jetstream.WithExpectStream(StreamName),
	)
	if err != nil {
		return fmt.Errorf("publish to JetStream: %w", err)
	}

	log.Info().
		Str("job_id", job.ID.String()).
		Str("user_id", userID.String()).
		Uint64("sequence", ack.Sequence).
		Msg("team creation job enqueued")

	return nil
}
