package models

import (
	"time"

	"github.com/google/uuid"
)

// Market constants shared by the listing service and the trading engine.
const (
	// MinTeamSize is the floor a team may never drop below through sales.
	MinTeamSize = 15
	// MaxTeamSize is the ceiling a team may never exceed through purchases.
	MaxTeamSize = 25

	// StartingBudget is the budget every generated team begins with.
	StartingBudget = int64(5_000_000)

	// MinAskingPrice is the lowest price a player may be listed at.
	MinAskingPrice = int64(1000)
	// MaxAskingPrice bounds listings from above so price arithmetic stays
	// well inside the int64 range.
	MaxAskingPrice = int64(1_000_000_000_000)
)

// Team is a user's squad: a budget plus its owned players.
// Budget is an integer currency amount and never goes negative.
type Team struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Budget    int64     `json:"budget"`
	CreatedAt time.Time `json:"created_at"`
}

// CanSellFrom reports whether a team with the given count of players not
// currently listed for sale may list one more. Listing must leave at least
// MinTeamSize players off the market.
func CanSellFrom(unlistedCount int) bool {
	return unlistedCount > MinTeamSize
}

// CanBuyInto reports whether a team with the given player count may take
// on one more player.
func CanBuyInto(playerCount int) bool {
	return playerCount < MaxTeamSize
}

// PurchasePrice is the amount actually exchanged on a successful buy:
// 95% of the asking price, rounded down. The seller receives the same
// discounted amount the buyer pays, so the 5% is destroyed, not collected.
// Split into quotient and remainder so the multiplication cannot overflow
// for any non-negative asking price.
func PurchasePrice(askingPrice int64) int64 {
	q, r := askingPrice/100, askingPrice%100
	return q*95 + r*95/100
}
