package transfer

import (
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/squadmarket/go/internal/models"
)

type CreateTransferRequest struct {
	PlayerID    uuid.UUID `json:"player_id"`
	AskingPrice int64     `json:"asking_price"`
}

// Filters narrows the market query. Name filters are case-insensitive
// substring matches; price bounds are inclusive.
type Filters struct {
	TeamName   string
	PlayerName string
	MinPrice   *int64
	MaxPrice   *int64
}

type PlayerSummary struct {
	ID       uuid.UUID       `json:"id"`
	Name     string          `json:"name"`
	Position models.Position `json:"position"`
	Age      int             `json:"age"`
	Overall  int             `json:"overall"`
	Value    int64           `json:"value"`
}

type TeamSummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// ListItem is one ACTIVE listing joined with its player and seller.
type ListItem struct {
	ID          uuid.UUID     `json:"id"`
	Player      PlayerSummary `json:"player"`
	SellingTeam TeamSummary   `json:"selling_team"`
	AskingPrice int64         `json:"asking_price"`
	CreatedAt   time.Time     `json:"created_at"`
}
