package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/squadmarket/go/internal/models"
)

var ErrJobNotFound = errors.New("team creation job not found")

// Repository persists the team-creation job ledger. The queue drives
// execution; these rows exist so operators can see what happened to a
// signup after the fact.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) CreateJob(ctx context.Context, userID uuid.UUID) (*models.TeamCreationJob, error) {
	var j models.TeamCreationJob
	err := r.pool.QueryRow(ctx, `
		INSERT INTO team_creation_jobs (id, user_id, status)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, status, attempts, COALESCE(last_error, ''), created_at, updated_at
	`, uuid.New(), userID, models.JobPending).Scan(&j.ID, &j.UserID, &j.Status, &j.Attempts, &j.LastError, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	return &j, nil
}

func (r *Repository) GetJob(ctx context.Context, id uuid.UUID) (*models.TeamCreationJob, error) {
	var j models.TeamCreationJob
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, status, attempts, COALESCE(last_error, ''), created_at, updated_at
		FROM team_creation_jobs
		WHERE id = $1
	`, id).Scan(&j.ID, &j.UserID, &j.Status, &j.Attempts, &j.LastError, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &j, nil
}

// MarkRunning flags the job as in progress and counts the attempt.
func (r *Repository) MarkRunning(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE team_creation_jobs
		SET status = $2, attempts = attempts + 1, updated_at = now()
		WHERE id = $1
	`, id, models.JobRunning)
	if err != nil {
		return fmt.Errorf("failed to mark job running: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrJobNotFound
	}
	return nil
}

func (r *Repository) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE team_creation_jobs
		SET status = $2, last_error = NULL, updated_at = now()
		WHERE id = $1
	`, id, models.JobCompleted)
	if err != nil {
		return fmt.Errorf("failed to mark job completed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrJobNotFound
	}
	return nil
}

// RecordError stores the failure reason without changing the status;
// the queue will redeliver and the next attempt flips it back to RUNNING.
func (r *Repository) RecordError(ctx context.Context, id uuid.UUID, lastError string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE team_creation_jobs
		SET last_error = $2, updated_at = now()
		WHERE id = $1
	`, id, lastError)
	if err != nil {
		return fmt.Errorf("failed to record job error: %w", err)
	}
	return nil
}

// MarkFailed is terminal: the queue has exhausted its deliveries.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE team_creation_jobs
		SET status = $2, last_error = $3, updated_at = now()
		WHERE id = $1
	`, id, models.JobFailed, lastError)
	if err != nil {
		return fmt.Errorf("failed to mark job failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrJobNotFound
	}
	return nil
}
