package models

import (
	"time"

	"github.com/google/uuid"
)

// Position is one of the four player position categories.
type Position string

const (
	PositionGoalkeeper Position = "GK"
	PositionDefender   Position = "DEF"
	PositionMidfielder Position = "MID"
	PositionForward    Position = "FWD"
)

// Valid reports whether p is one of the four known positions.
func (p Position) Valid() bool {
	switch p {
	case PositionGoalkeeper, PositionDefender, PositionMidfielder, PositionForward:
		return true
	}
	return false
}

// Generation bounds for new players.
const (
	MinPlayerAge = 18
	MaxPlayerAge = 35

	MinPlayerOverall = 60
	MaxPlayerOverall = 89

	// ValuePerOverall and ValueBonusRange derive a player's market value
	// at generation time: overall*ValuePerOverall + rand[0,ValueBonusRange).
	ValuePerOverall = int64(10_000)
	ValueBonusRange = int64(50_000)
)

// Player belongs to exactly one team at all times; ownership changes only
// through a completed purchase.
type Player struct {
	ID        uuid.UUID `json:"id"`
	TeamID    uuid.UUID `json:"team_id"`
	Name      string    `json:"name"`
	Position  Position  `json:"position"`
	Age       int       `json:"age"`
	Overall   int       `json:"overall"`
	Value     int64     `json:"value"`
	CreatedAt time.Time `json:"created_at"`
}
