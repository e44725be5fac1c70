package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mcdev12/squadmarket/go/internal/models"
	"github.com/rs/zerolog/log"
)

// ErrInvalidEmail rejects registration input that is not a plausible address.
var ErrInvalidEmail = errors.New("invalid email address")

// UsersRepository defines what the app layer needs from the repository
type UsersRepository interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*models.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Enqueuer hands a new owner to the squad-bootstrap queue. Registration
// returns before the job runs; the squad arrives over the push channel.
type Enqueuer interface {
	EnqueueTeamCreation(ctx context.Context, userID uuid.UUID, email string) error
}

// App handles user registration and lookups
type App struct {
	repo    UsersRepository
	enqueue Enqueuer
}

func NewApp(repo UsersRepository, enqueue Enqueuer) *App {
	return &App{
		repo:    repo,
		enqueue: enqueue,
	}
}

// Register creates a user and enqueues asynchronous squad creation.
// The squad does not exist when this returns.
func (a *App) Register(ctx context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}

	user, err := a.repo.CreateUser(ctx, CreateUserRequest{Email: email})
	if err != nil {
		return nil, err
	}

	if err := a.enqueue.EnqueueTeamCreation(ctx, user.ID, user.Email); err != nil {
		// The user row exists; the squad can still be bootstrapped by a
		// later enqueue. Surface the failure so the caller can retry.
		return nil, fmt.Errorf("failed to enqueue team creation: %w", err)
	}

	log.Info().Str("user_id", user.ID.String()).Str("email", user.Email).Msg("user registered, team creation enqueued")
	return user, nil
}

// GetUser retrieves a user by ID
func (a *App) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return a.repo.GetUser(ctx, id)
}

// GetUserByEmail retrieves a user by email
func (a *App) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return a.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}
