package team

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/mcdev12/squadmarket/go/internal/models"
	"github.com/mcdev12/squadmarket/go/internal/users"
)

type fakeTeamRepo struct {
	teamsByUser map[uuid.UUID]*models.Team
	created     []models.Player
	createErr   error
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{teamsByUser: make(map[uuid.UUID]*models.Team)}
}

func (r *fakeTeamRepo) CreateTeamWithPlayers(ctx context.Context, t models.Team, players []models.Player) (*models.Team, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.teamsByUser[t.UserID] = &t
	r.created = players
	return &t, nil
}

func (r *fakeTeamRepo) GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	for _, t := range r.teamsByUser {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, ErrTeamNotFound
}

func (r *fakeTeamRepo) GetTeamByUser(ctx context.Context, userID uuid.UUID) (*models.Team, error) {
	if t, ok := r.teamsByUser[userID]; ok {
		return t, nil
	}
	return nil, ErrTeamNotFound
}

func (r *fakeTeamRepo) GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	return nil, ErrPlayerNotFound
}

func (r *fakeTeamRepo) ListPlayersWithMarketStatus(ctx context.Context, teamID uuid.UUID) ([]PlayerView, error) {
	views := make([]PlayerView, 0, len(r.created))
	for _, p := range r.created {
		views = append(views, PlayerView{
			ID:       p.ID,
			Name:     p.Name,
			Position: p.Position,
			Age:      p.Age,
			Overall:  p.Overall,
			Value:    p.Value,
		})
	}
	return views, nil
}

func (r *fakeTeamRepo) CountPlayers(ctx context.Context, teamID uuid.UUID) (int, error) {
	return len(r.created), nil
}

func (r *fakeTeamRepo) CountUnlistedPlayers(ctx context.Context, teamID uuid.UUID) (int, error) {
	return len(r.created), nil
}

type fakeUsers struct {
	known map[uuid.UUID]*models.User
}

func (f *fakeUsers) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := f.known[id]; ok {
		return u, nil
	}
	return nil, users.ErrUserNotFound
}

func TestCreateTeamForUser(t *testing.T) {
	userID := uuid.New()
	repo := newFakeTeamRepo()
	userApp := &fakeUsers{known: map[uuid.UUID]*models.User{
		userID: {ID: userID, Email: "alice@example.com"},
	}}
	app := NewApp(repo, userApp, NewGeneratorWithSeed(1))

	created, err := app.CreateTeamForUser(context.Background(), userID, "alice@example.com")
	if err != nil {
		t.Fatalf("CreateTeamForUser: %v", err)
	}

	if created.Name != "alice FC" {
		t.Errorf("team name = %q, want %q", created.Name, "alice FC")
	}
	if created.Budget != models.StartingBudget {
		t.Errorf("budget = %d, want %d", created.Budget, models.StartingBudget)
	}
	if len(repo.created) != GeneratedSquadSize {
		t.Errorf("persisted %d players, want %d", len(repo.created), GeneratedSquadSize)
	}
}

func TestCreateTeamForUserUnknownOwner(t *testing.T) {
	repo := newFakeTeamRepo()
	userApp := &fakeUsers{known: map[uuid.UUID]*models.User{}}
	app := NewApp(repo, userApp, NewGeneratorWithSeed(1))

	_, err := app.CreateTeamForUser(context.Background(), uuid.New(), "ghost@example.com")
	if !errors.Is(err, ErrOwnerNotFound) {
		t.Fatalf("err = %v, want ErrOwnerNotFound", err)
	}
}

func TestCreateTeamForUserIsIdempotent(t *testing.T) {
	userID := uuid.New()
	repo := newFakeTeamRepo()
	userApp := &fakeUsers{known: map[uuid.UUID]*models.User{
		userID: {ID: userID, Email: "bob@example.com"},
	}}
	app := NewApp(repo, userApp, NewGeneratorWithSeed(1))

	first, err := app.CreateTeamForUser(context.Background(), userID, "bob@example.com")
	if err != nil {
		t.Fatalf("first create: %v", err)
	}

	// A redelivered job must not build a second squad.
	repo.createErr = errors.New("create should not be called again")
	second, err := app.CreateTeamForUser(context.Background(), userID, "bob@example.com")
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("second create returned team %s, want existing %s", second.ID, first.ID)
	}
}

func TestGetTeamStats(t *testing.T) {
	userID := uuid.New()
	repo := newFakeTeamRepo()
	userApp := &fakeUsers{known: map[uuid.UUID]*models.User{
		userID: {ID: userID, Email: "carol@example.com"},
	}}
	app := NewApp(repo, userApp, NewGeneratorWithSeed(3))

	if _, err := app.CreateTeamForUser(context.Background(), userID, "carol@example.com"); err != nil {
		t.Fatalf("CreateTeamForUser: %v", err)
	}

	stats, err := app.GetTeamStats(context.Background(), userID)
	if err != nil {
		t.Fatalf("GetTeamStats: %v", err)
	}

	if stats.PlayerCount != GeneratedSquadSize {
		t.Errorf("player count = %d, want %d", stats.PlayerCount, GeneratedSquadSize)
	}
	if stats.Budget != models.StartingBudget {
		t.Errorf("budget = %d, want %d", stats.Budget, models.StartingBudget)
	}

	var wantTotal int64
	for _, p := range repo.created {
		wantTotal += p.Value
	}
	if stats.TotalValue != wantTotal {
		t.Errorf("total value = %d, want %d", stats.TotalValue, wantTotal)
	}
	if stats.PlayersByPosition[models.PositionGoalkeeper] != 3 {
		t.Errorf("goalkeepers = %d, want 3", stats.PlayersByPosition[models.PositionGoalkeeper])
	}
	if stats.AverageOverall < models.MinPlayerOverall || stats.AverageOverall > models.MaxPlayerOverall {
		t.Errorf("average overall %d outside player range", stats.AverageOverall)
	}
}
