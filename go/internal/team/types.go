package team

import (
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/squadmarket/go/internal/models"
)

// PlayerView is a player decorated with their transfer-market status.
type PlayerView struct {
	ID               uuid.UUID       `json:"id"`
	TeamID           uuid.UUID       `json:"team_id"`
	Name             string          `json:"name"`
	Position         models.Position `json:"position"`
	Age              int             `json:"age"`
	Overall          int             `json:"overall"`
	Value            int64           `json:"value"`
	CreatedAt        time.Time       `json:"created_at"`
	InTransferMarket bool            `json:"in_transfer_market"`
	TransferID       *uuid.UUID      `json:"transfer_id,omitempty"`
	AskingPrice      *int64          `json:"asking_price,omitempty"`
}

// TeamWithPlayers is the full squad view served to the owner.
type TeamWithPlayers struct {
	ID             uuid.UUID    `json:"id"`
	UserID         uuid.UUID    `json:"user_id"`
	Name           string       `json:"name"`
	Budget         int64        `json:"budget"`
	Players        []PlayerView `json:"players"`
	PlayerCount    int          `json:"player_count"`
	TotalValue     int64        `json:"total_value"`
	AverageOverall int          `json:"average_overall"`
}

// TeamStats summarizes a squad without listing every player.
type TeamStats struct {
	PlayerCount       int                     `json:"player_count"`
	TotalValue        int64                   `json:"total_value"`
	AverageOverall    int                     `json:"average_overall"`
	PlayersByPosition map[models.Position]int `json:"players_by_position"`
	Budget            int64                   `json:"budget"`
}
