package team

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/mcdev12/squadmarket/go/internal/models"
	"github.com/mcdev12/squadmarket/go/internal/users"
	"github.com/rs/zerolog/log"
)

// ErrOwnerNotFound is returned when a squad is requested for a user that no
// longer exists.
var ErrOwnerNotFound = errors.New("owner not found")

// TeamRepository defines what the app layer needs from the repository
type TeamRepository interface {
	CreateTeamWithPlayers(ctx context.Context, team models.Team, players []models.Player) (*models.Team, error)
	GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error)
	GetTeamByUser(ctx context.Context, userID uuid.UUID) (*models.Team, error)
	GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error)
	ListPlayersWithMarketStatus(ctx context.Context, teamID uuid.UUID) ([]PlayerView, error)
	CountPlayers(ctx context.Context, teamID uuid.UUID) (int, error)
	CountUnlistedPlayers(ctx context.Context, teamID uuid.UUID) (int, error)
}

// UserGetter is the slice of the users app the team app depends on.
type UserGetter interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// App handles squad business logic
type App struct {
	repo      TeamRepository
	userApp   UserGetter
	generator *Generator
}

func NewApp(repo TeamRepository, userApp UserGetter, generator *Generator) *App {
	return &App{
		repo:      repo,
		userApp:   userApp,
		generator: generator,
	}
}

// CreateTeamForUser generates and persists the starting squad for a new
// owner. If the owner already has a team the call is a silent skip and
// returns the existing team: the bootstrap queue delivers at least once,
// so re-execution of a completed job is routine, not an error.
func (a *App) CreateTeamForUser(ctx context.Context, userID uuid.UUID, email string) (*models.Team, error) {
	if _, err := a.userApp.GetUser(ctx, userID); err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return nil, ErrOwnerNotFound
		}
		return nil, fmt.Errorf("failed to verify owner: %w", err)
	}

	if existing, err := a.repo.GetTeamByUser(ctx, userID); err == nil {
		log.Info().
			Str("user_id", userID.String()).
			Str("team_id", existing.ID.String()).
			Msg("team already exists, skipping creation")
		return existing, nil
	} else if !errors.Is(err, ErrTeamNotFound) {
		return nil, err
	}

	team := models.Team{
		ID:     uuid.New(),
		UserID: userID,
		Name:   TeamName(email),
		Budget: models.StartingBudget,
	}
	players := a.generator.Squad(team.ID)

	created, err := a.repo.CreateTeamWithPlayers(ctx, team, players)
	if err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	log.Info().
		Str("team_id", created.ID.String()).
		Str("name", created.Name).
		Int("players", len(players)).
		Msg("team created")
	return created, nil
}

// GetTeam retrieves a team by ID
func (a *App) GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	return a.repo.GetTeam(ctx, id)
}

// GetTeamByUser retrieves the team owned by a user
func (a *App) GetTeamByUser(ctx context.Context, userID uuid.UUID) (*models.Team, error) {
	return a.repo.GetTeamByUser(ctx, userID)
}

// GetPlayer retrieves a player by ID
func (a *App) GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	return a.repo.GetPlayer(ctx, id)
}

// CountPlayers returns a team's total player count
func (a *App) CountPlayers(ctx context.Context, teamID uuid.UUID) (int, error) {
	return a.repo.CountPlayers(ctx, teamID)
}

// CountUnlistedPlayers returns the count of players not currently listed
func (a *App) CountUnlistedPlayers(ctx context.Context, teamID uuid.UUID) (int, error) {
	return a.repo.CountUnlistedPlayers(ctx, teamID)
}

// GetTeamWithPlayers returns the owner's full squad view: players decorated
// with market status, plus squad aggregates.
func (a *App) GetTeamWithPlayers(ctx context.Context, userID uuid.UUID) (*TeamWithPlayers, error) {
	t, err := a.repo.GetTeamByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	players, err := a.repo.ListPlayersWithMarketStatus(ctx, t.ID)
	if err != nil {
		return nil, err
	}

	view := &TeamWithPlayers{
		ID:          t.ID,
		UserID:      t.UserID,
		Name:        t.Name,
		Budget:      t.Budget,
		Players:     players,
		PlayerCount: len(players),
	}
	var overallSum int
	for _, p := range players {
		view.TotalValue += p.Value
		overallSum += p.Overall
	}
	if len(players) > 0 {
		view.AverageOverall = int(math.Round(float64(overallSum) / float64(len(players))))
	}
	return view, nil
}

// GetTeamStats summarizes the owner's squad
func (a *App) GetTeamStats(ctx context.Context, userID uuid.UUID) (*TeamStats, error) {
	view, err := a.GetTeamWithPlayers(ctx, userID)
	if err != nil {
		return nil, err
	}

	byPosition := make(map[models.Position]int)
	for _, p := range view.Players {
		byPosition[p.Position]++
	}
	return &TeamStats{
		PlayerCount:       view.PlayerCount,
		TotalValue:        view.TotalValue,
		AverageOverall:    view.AverageOverall,
		PlayersByPosition: byPosition,
		Budget:            view.Budget,
	}, nil
}
