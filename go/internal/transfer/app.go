package transfer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/squadmarket/go/internal/models"
	"github.com/mcdev12/squadmarket/go/internal/team"
	"github.com/rs/zerolog/log"
)

// TransferRepository defines what the app layer needs from the repository.
// ExecutePurchase must be atomic: it re-validates the listing, budgets and
// squad sizes inside its own isolated transaction and applies all four
// purchase mutations or none.
type TransferRepository interface {
	CreateTransfer(ctx context.Context, sellingTeamID, playerID uuid.UUID, askingPrice int64) (*models.Transfer, error)
	GetTransfer(ctx context.Context, id uuid.UUID) (*models.Transfer, error)
	HasActiveTransferForPlayer(ctx context.Context, playerID uuid.UUID) (bool, error)
	CancelTransfer(ctx context.Context, sellingTeamID, transferID uuid.UUID) error
	ListActive(ctx context.Context, f Filters) ([]ListItem, error)
	ListByTeam(ctx context.Context, teamID uuid.UUID) ([]models.Transfer, error)
	ExecutePurchase(ctx context.Context, transferID, buyingTeamID uuid.UUID, soldAt time.Time) (*models.Transfer, error)
}

// TeamDirectory is the slice of the team app the transfer app reads from.
type TeamDirectory interface {
	GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error)
	GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error)
	CountPlayers(ctx context.Context, teamID uuid.UUID) (int, error)
	CountUnlistedPlayers(ctx context.Context, teamID uuid.UUID) (int, error)
}

// App is the transfer market: listing creation and cancellation, the buy
// path, and the read-only market query.
type App struct {
	repo  TransferRepository
	teams TeamDirectory
	clock clockwork.Clock
}

func NewApp(repo TransferRepository, teams TeamDirectory, clock clockwork.Clock) *App {
	return &App{
		repo:  repo,
		teams: teams,
		clock: clock,
	}
}

// CreateTransfer lists an owned player for sale at a fixed asking price.
func (a *App) CreateTransfer(ctx context.Context, sellingTeamID uuid.UUID, req CreateTransferRequest) (*models.Transfer, error) {
	if req.AskingPrice < models.MinAskingPrice || req.AskingPrice > models.MaxAskingPrice {
		return nil, ErrInvalidPrice
	}

	player, err := a.teams.GetPlayer(ctx, req.PlayerID)
	if err != nil {
		if errors.Is(err, team.ErrPlayerNotFound) {
			return nil, ErrPlayerNotOwned
		}
		return nil, fmt.Errorf("failed to load player %s: %w", req.PlayerID, err)
	}
	if player.TeamID != sellingTeamID {
		return nil, ErrPlayerNotOwned
	}

	listed, err := a.repo.HasActiveTransferForPlayer(ctx, req.PlayerID)
	if err != nil {
		return nil, err
	}
	if listed {
		return nil, ErrAlreadyListed
	}

	unlisted, err := a.teams.CountUnlistedPlayers(ctx, sellingTeamID)
	if err != nil {
		return nil, err
	}
	if !models.CanSellFrom(unlisted) {
		return nil, ErrTeamTooSmall
	}

	// The partial unique index backs the already-listed check, so a racing
	// duplicate still comes back as ErrAlreadyListed.
	created, err := a.repo.CreateTransfer(ctx, sellingTeamID, req.PlayerID, req.AskingPrice)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("transfer_id", created.ID.String()).
		Str("player", player.Name).
		Int64("asking_price", req.AskingPrice).
		Msg("player listed on transfer market")
	return created, nil
}

// CancelTransfer withdraws an ACTIVE listing. Cancelling a listing that is
// already SOLD or CANCELLED fails, never silently succeeds.
func (a *App) CancelTransfer(ctx context.Context, sellingTeamID, transferID uuid.UUID) error {
	if err := a.repo.CancelTransfer(ctx, sellingTeamID, transferID); err != nil {
		return err
	}
	log.Info().Str("transfer_id", transferID.String()).Msg("transfer cancelled")
	return nil
}

// BuyPlayer executes a purchase. Preconditions are checked in a fixed
// order for legible error reporting, then the repository's atomic unit
// re-validates everything and applies the trade. Checks here are advisory
// fast-fails; ExecutePurchase is the authority.
func (a *App) BuyPlayer(ctx context.Context, buyingTeamID, transferID uuid.UUID) (*models.Transfer, error) {
	tr, err := a.repo.GetTransfer(ctx, transferID)
	if err != nil {
		return nil, err
	}
	if tr.Status != models.TransferActive {
		return nil, ErrTransferNotFound
	}
	if tr.SellingTeamID == buyingTeamID {
		return nil, ErrSelfTrade
	}

	buyer, err := a.teams.GetTeam(ctx, buyingTeamID)
	if err != nil {
		return nil, err
	}

	price := models.PurchasePrice(tr.AskingPrice)
	if buyer.Budget < price {
		return nil, ErrInsufficientBudget
	}

	count, err := a.teams.CountPlayers(ctx, buyingTeamID)
	if err != nil {
		return nil, err
	}
	if !models.CanBuyInto(count) {
		return nil, ErrTeamFull
	}

	sold, err := a.repo.ExecutePurchase(ctx, transferID, buyingTeamID, a.clock.Now())
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("transfer_id", sold.ID.String()).
		Str("player_id", sold.PlayerID.String()).
		Str("from_team", sold.SellingTeamID.String()).
		Str("to_team", buyingTeamID.String()).
		Int64("sold_price", *sold.SoldPrice).
		Msg("player sold")
	return sold, nil
}

// ListTransfers is the filterable market query over ACTIVE listings.
func (a *App) ListTransfers(ctx context.Context, f Filters) ([]ListItem, error) {
	return a.repo.ListActive(ctx, f)
}

// GetTeamTransfers returns a team's own transfer history, newest first.
func (a *App) GetTeamTransfers(ctx context.Context, teamID uuid.UUID) ([]models.Transfer, error) {
	return a.repo.ListByTeam(ctx, teamID)
}
