package models

import (
	"time"

	"github.com/google/uuid"
)

// TransferStatus is the listing lifecycle state. Transitions are one-way:
// ACTIVE -> SOLD or ACTIVE -> CANCELLED, nothing leaves a terminal state.
type TransferStatus string

const (
	TransferActive    TransferStatus = "ACTIVE"
	TransferSold      TransferStatus = "SOLD"
	TransferCancelled TransferStatus = "CANCELLED"
)

// Transfer is an offer to sell one owned player at a fixed asking price.
// At most one ACTIVE transfer exists per player at any time.
type Transfer struct {
	ID            uuid.UUID      `json:"id"`
	PlayerID      uuid.UUID      `json:"player_id"`
	SellingTeamID uuid.UUID      `json:"selling_team_id"`
	BuyingTeamID  *uuid.UUID     `json:"buying_team_id,omitempty"`
	AskingPrice   int64          `json:"asking_price"`
	SoldPrice     *int64         `json:"sold_price,omitempty"`
	Status        TransferStatus `json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
	SoldAt        *time.Time     `json:"sold_at,omitempty"`
}
