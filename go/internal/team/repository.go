package team

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/squadmarket/go/internal/models"
	"github.com/mcdev12/squadmarket/go/internal/sqlutil"
)

var (
	ErrTeamNotFound   = errors.New("team not found")
	ErrPlayerNotFound = errors.New("player not found")
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateTeamWithPlayers persists a team and its generated players in one
// transaction, so a squad is never observable half-built.
func (r *Repository) CreateTeamWithPlayers(ctx context.Context, team models.Team, players []models.Player) (*models.Team, error) {
	var created models.Team
	err := sqlutil.Run(ctx, r.pool, pgx.ReadCommitted, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO teams (id, user_id, name, budget)
			VALUES ($1, $2, $3, $4)
			RETURNING id, user_id, name, budget, created_at
		`, team.ID, team.UserID, team.Name, team.Budget).
			Scan(&created.ID, &created.UserID, &created.Name, &created.Budget, &created.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert team: %w", err)
		}

		for _, p := range players {
			if _, err := tx.Exec(ctx, `
				INSERT INTO players (id, team_id, name, position, age, overall, value)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`, p.ID, created.ID, p.Name, p.Position, p.Age, p.Overall, p.Value); err != nil {
				return fmt.Errorf("insert player %s: %w", p.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *Repository) GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	return r.scanTeam(ctx, `
		SELECT id, user_id, name, budget, created_at
		FROM teams
		WHERE id = $1
	`, id)
}

func (r *Repository) GetTeamByUser(ctx context.Context, userID uuid.UUID) (*models.Team, error) {
	return r.scanTeam(ctx, `
		SELECT id, user_id, name, budget, created_at
		FROM teams
		WHERE user_id = $1
	`, userID)
}

func (r *Repository) scanTeam(ctx context.Context, query string, arg any) (*models.Team, error) {
	var t models.Team
	err := r.pool.QueryRow(ctx, query, arg).
		Scan(&t.ID, &t.UserID, &t.Name, &t.Budget, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	return &t, nil
}

func (r *Repository) GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	var p models.Player
	err := r.pool.QueryRow(ctx, `
		SELECT id, team_id, name, position, age, overall, value, created_at
		FROM players
		WHERE id = $1
	`, id).Scan(&p.ID, &p.TeamID, &p.Name, &p.Position, &p.Age, &p.Overall, &p.Value, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return &p, nil
}

// ListPlayersWithMarketStatus returns a team's players decorated with their
// ACTIVE listing, if any, sorted by position then overall descending.
func (r *Repository) ListPlayersWithMarketStatus(ctx context.Context, teamID uuid.UUID) ([]PlayerView, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.team_id, p.name, p.position, p.age, p.overall, p.value, p.created_at,
		       t.id, t.asking_price
		FROM players p
		LEFT JOIN transfers t ON t.player_id = p.id AND t.status = 'ACTIVE'
		WHERE p.team_id = $1
		ORDER BY array_position(ARRAY['GK','DEF','MID','FWD'], p.position), p.overall DESC
	`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	var out []PlayerView
	for rows.Next() {
		var v PlayerView
		var transferID *uuid.UUID
		var askingPrice *int64
		if err := rows.Scan(
			&v.ID, &v.TeamID, &v.Name, &v.Position, &v.Age, &v.Overall, &v.Value, &v.CreatedAt,
			&transferID, &askingPrice,
		); err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		v.InTransferMarket = transferID != nil
		v.TransferID = transferID
		v.AskingPrice = askingPrice
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *Repository) CountPlayers(ctx context.Context, teamID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM players WHERE team_id = $1
	`, teamID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count players: %w", err)
	}
	return n, nil
}

// CountUnlistedPlayers counts a team's players without an ACTIVE listing,
// the figure the minimum-squad floor is checked against.
func (r *Repository) CountUnlistedPlayers(ctx context.Context, teamID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM players p
		WHERE p.team_id = $1
		  AND NOT EXISTS (
			SELECT 1 FROM transfers t
			WHERE t.player_id = p.id AND t.status = 'ACTIVE'
		  )
	`, teamID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count unlisted players: %w", err)
	}
	return n, nil
}
