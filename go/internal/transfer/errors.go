package transfer

import "errors"

// Business-rule failures surfaced by the listing service and trading engine.
// All are legitimate concurrent-state outcomes a caller may retry after
// refetching state, except ErrInvalidPrice which is the caller's input.
var (
	ErrTransferNotFound   = errors.New("transfer not found or not active")
	ErrSelfTrade          = errors.New("cannot buy your own player")
	ErrInsufficientBudget = errors.New("insufficient budget")
	ErrTeamFull           = errors.New("team already has the maximum number of players")
	ErrPlayerNotOwned     = errors.New("player not found or does not belong to your team")
	ErrAlreadyListed      = errors.New("player is already on the transfer list")
	ErrTeamTooSmall       = errors.New("team must keep at least the minimum number of unlisted players")
	ErrInvalidPrice       = errors.New("asking price outside the allowed range")
)
