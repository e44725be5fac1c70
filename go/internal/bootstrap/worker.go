package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// Run consumes team-creation jobs until ctx is cancelled. Redelivery on
// failure follows the consumer's BackOff schedule, so a nak is all the
// worker has to do for a retryable error.
func (o *Orchestrator) Run(ctx context.Context) error {
	log.Info().
		Str("instance", o.instanceID).
		Int("workers", o.numWorkers).
		Msg("bootstrap worker started as JetStream consumer")

	eventCh := make(chan jetstream.Msg, eventChannelBufferSize)

	consumeCtx, err := o.consumer.Consume(func(msg jetstream.Msg) {
		select {
		case eventCh <- msg:
		case <-ctx.Done():
			msg.Nak()
		}
	})
	if err != nil {
		return fmt.Errorf("start JetStream consumer: %w", err)
	}
	defer consumeCtx.Stop()

	var wg sync.WaitGroup
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	for i := 0; i < o.numWorkers; i++ {
		wg.Add(1)
		go o.worker(workerCtx, &wg, i)
	}

	defer func() {
		log.Info().Str("instance", o.instanceID).Msg("shutting down workers")
		cancelWorkers()
		close(o.workCh)
		wg.Wait()
		log.Info().Str("instance", o.instanceID).Msg("all workers shut down")
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("instance", o.instanceID).Msg("bootstrap worker shutdown requested")
			return nil
		case msg := <-eventCh:
			select {
			case o.workCh <- msg:
			case <-ctx.Done():
				msg.Nak()
				return nil
			}
		}
	}
}

// worker processes job deliveries from the work channel
func (o *Orchestrator) worker(ctx context.Context, wg *sync.WaitGroup, workerID int) {
	defer wg.Done()

	log.Info().
		Str("instance", o.instanceID).
		Int("worker_id", workerID).
		Msg("worker started")

	for {
		select {
		case <-ctx.Done():
			log.Info().
				Str("instance", o.instanceID).
				Int("worker_id", workerID).
				Msg("worker shutting down")
			return
		case msg, ok := <-o.workCh:
			if !ok {
				log.Info().
					Str("instance", o.instanceID).
					Int("worker_id", workerID).
					Msg("work channel closed, worker shutting down")
				return
			}

			if err := o.processMsg(ctx, msg); err != nil {
				var retry errRetryable
				if errors.As(err, &retry) {
					log.Warn().
						Err(retry.err).
						Str("instance", o.instanceID).
						Int("worker_id", workerID).
						Msg("job attempt failed, returning to queue")
					msg.Nak()
					continue
				}
				log.Error().
					Err(err).
					Str("instance", o.instanceID).
					Int("worker_id", workerID).
					Msg("job processing failed")
				msg.Nak()
				continue
			}
			msg.Ack()
		}
	}
}
