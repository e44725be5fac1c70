package transfer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/squadmarket/go/internal/models"
	"github.com/mcdev12/squadmarket/go/internal/sqlutil"
	"github.com/mcdev12/squadmarket/go/internal/team"
)

// purchaseTxAttempts bounds retries of the buy transaction on
// serialization conflicts.
const purchaseTxAttempts = 8

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const transferColumns = `id, player_id, selling_team_id, buying_team_id, asking_price, sold_price, status, created_at, sold_at`

func scanTransfer(row pgx.Row) (*models.Transfer, error) {
	var t models.Transfer
	err := row.Scan(
		&t.ID, &t.PlayerID, &t.SellingTeamID, &t.BuyingTeamID,
		&t.AskingPrice, &t.SoldPrice, &t.Status, &t.CreatedAt, &t.SoldAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *Repository) CreateTransfer(ctx context.Context, sellingTeamID, playerID uuid.UUID, askingPrice int64) (*models.Transfer, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO transfers (player_id, selling_team_id, asking_price)
		VALUES ($1, $2, $3)
		RETURNING `+transferColumns,
		playerID, sellingTeamID, askingPrice)
	t, err := scanTransfer(row)
	if err != nil {
		if sqlutil.IsUniqueViolation(err, "transfers_active_player_key") {
			return nil, ErrAlreadyListed
		}
		return nil, fmt.Errorf("failed to create transfer: %w", err)
	}
	return t, nil
}

func (r *Repository) GetTransfer(ctx context.Context, id uuid.UUID) (*models.Transfer, error) {
	t, err := scanTransfer(r.pool.QueryRow(ctx, `
		SELECT `+transferColumns+` FROM transfers WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTransferNotFound
		}
		return nil, fmt.Errorf("failed to get transfer: %w", err)
	}
	return t, nil
}

func (r *Repository) HasActiveTransferForPlayer(ctx context.Context, playerID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM transfers WHERE player_id = $1 AND status = 'ACTIVE'
		)
	`, playerID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check active transfer: %w", err)
	}
	return exists, nil
}

// CancelTransfer moves an ACTIVE listing owned by sellingTeamID to
// CANCELLED. The conditional update is the authority: a listing already
// SOLD or CANCELLED, or owned by someone else, yields ErrTransferNotFound.
func (r *Repository) CancelTransfer(ctx context.Context, sellingTeamID, transferID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE transfers
		SET status = 'CANCELLED'
		WHERE id = $1 AND selling_team_id = $2 AND status = 'ACTIVE'
	`, transferID, sellingTeamID)
	if err != nil {
		return fmt.Errorf("failed to cancel transfer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTransferNotFound
	}
	return nil
}

// ListActive returns the market view: ACTIVE listings with player and
// seller summaries, newest first.
func (r *Repository) ListActive(ctx context.Context, f Filters) ([]ListItem, error) {
	query := `
		SELECT tr.id, tr.asking_price, tr.created_at,
		       p.id, p.name, p.position, p.age, p.overall, p.value,
		       s.id, s.name
		FROM transfers tr
		JOIN players p ON p.id = tr.player_id
		JOIN teams s ON s.id = tr.selling_team_id
		WHERE tr.status = 'ACTIVE'`
	args := []any{}
	n := 0
	arg := func(v any) string {
		args = append(args, v)
		n++
		return fmt.Sprintf("$%d", n)
	}
	if f.TeamName != "" {
		query += ` AND s.name ILIKE ` + arg("%"+f.TeamName+"%")
	}
	if f.PlayerName != "" {
		query += ` AND p.name ILIKE ` + arg("%"+f.PlayerName+"%")
	}
	if f.MinPrice != nil {
		query += ` AND tr.asking_price >= ` + arg(*f.MinPrice)
	}
	if f.MaxPrice != nil {
		query += ` AND tr.asking_price <= ` + arg(*f.MaxPrice)
	}
	query += ` ORDER BY tr.created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transfers: %w", err)
	}
	defer rows.Close()

	var out []ListItem
	for rows.Next() {
		var item ListItem
		if err := rows.Scan(
			&item.ID, &item.AskingPrice, &item.CreatedAt,
			&item.Player.ID, &item.Player.Name, &item.Player.Position,
			&item.Player.Age, &item.Player.Overall, &item.Player.Value,
			&item.SellingTeam.ID, &item.SellingTeam.Name,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transfer: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// ListByTeam returns transfers the team participated in, as seller or
// buyer, newest first.
func (r *Repository) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]models.Transfer, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+transferColumns+`
		FROM transfers
		WHERE selling_team_id = $1 OR buying_team_id = $1
		ORDER BY created_at DESC
	`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list team transfers: %w", err)
	}
	defer rows.Close()

	var out []models.Transfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transfer: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// ExecutePurchase is the atomic unit of the trading engine. It re-validates
// everything inside one serializable transaction with row locks, so the
// advisory prechecks in the app layer can never commit a stale decision:
//
//   - the transfer row is locked and must still be ACTIVE,
//   - both team rows are locked in id order and budgets re-read,
//   - the buyer's player count is re-read,
//   - then all four mutations apply, or the transaction rolls back.
//
// Serialization conflicts and deadlocks retry with backoff; a listing
// taken by a concurrent buyer surfaces as ErrTransferNotFound.
func (r *Repository) ExecutePurchase(ctx context.Context, transferID, buyingTeamID uuid.UUID, soldAt time.Time) (*models.Transfer, error) {
	var result *models.Transfer
	err := sqlutil.RunSerializable(ctx, r.pool, purchaseTxAttempts, func(tx pgx.Tx) error {
		var tr models.Transfer
		err := tx.QueryRow(ctx, `
			SELECT id, player_id, selling_team_id, asking_price, status, created_at
			FROM transfers
			WHERE id = $1
			FOR UPDATE
		`, transferID).Scan(&tr.ID, &tr.PlayerID, &tr.SellingTeamID, &tr.AskingPrice, &tr.Status, &tr.CreatedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrTransferNotFound
			}
			return fmt.Errorf("lock transfer: %w", err)
		}
		if tr.Status != models.TransferActive {
			return ErrTransferNotFound
		}
		if tr.SellingTeamID == buyingTeamID {
			return ErrSelfTrade
		}

		// Lock both teams in id order so concurrent purchases between the
		// same pair cannot deadlock.
		budgets := make(map[uuid.UUID]int64, 2)
		rows, err := tx.Query(ctx, `
			SELECT id, budget
			FROM teams
			WHERE id IN ($1, $2)
			ORDER BY id
			FOR UPDATE
		`, tr.SellingTeamID, buyingTeamID)
		if err != nil {
			return fmt.Errorf("lock teams: %w", err)
		}
		for rows.Next() {
			var id uuid.UUID
			var budget int64
			if err := rows.Scan(&id, &budget); err != nil {
				rows.Close()
				return fmt.Errorf("scan team: %w", err)
			}
			budgets[id] = budget
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("lock teams: %w", err)
		}
		buyerBudget, ok := budgets[buyingTeamID]
		if !ok {
			return team.ErrTeamNotFound
		}
		if _, ok := budgets[tr.SellingTeamID]; !ok {
			return team.ErrTeamNotFound
		}

		price := models.PurchasePrice(tr.AskingPrice)
		if buyerBudget < price {
			return ErrInsufficientBudget
		}

		var buyerCount int
		if err := tx.QueryRow(ctx, `
			SELECT count(*) FROM players WHERE team_id = $1
		`, buyingTeamID).Scan(&buyerCount); err != nil {
			return fmt.Errorf("count buyer players: %w", err)
		}
		if !models.CanBuyInto(buyerCount) {
			return ErrTeamFull
		}

		if _, err := tx.Exec(ctx, `
			UPDATE transfers
			SET status = 'SOLD', buying_team_id = $2, sold_price = $3, sold_at = $4
			WHERE id = $1
		`, tr.ID, buyingTeamID, price, soldAt); err != nil {
			return fmt.Errorf("mark transfer sold: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			UPDATE players SET team_id = $2 WHERE id = $1
		`, tr.PlayerID, buyingTeamID); err != nil {
			return fmt.Errorf("reassign player: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			UPDATE teams SET budget = budget - $2 WHERE id = $1
		`, buyingTeamID, price); err != nil {
			return fmt.Errorf("debit buyer: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			UPDATE teams SET budget = budget + $2 WHERE id = $1
		`, tr.SellingTeamID, price); err != nil {
			return fmt.Errorf("credit seller: %w", err)
		}

		tr.Status = models.TransferSold
		tr.BuyingTeamID = &buyingTeamID
		tr.SoldPrice = &price
		tr.SoldAt = &soldAt
		result = &tr
		return nil
	})
	if err != nil {
		if sqlutil.IsSerializationError(err) {
			// Retries exhausted; the caller may refetch and try again.
			return nil, fmt.Errorf("purchase conflicted repeatedly: %w", err)
		}
		return nil, err
	}
	return result, nil
}
