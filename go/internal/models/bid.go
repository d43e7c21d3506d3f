package models

import (
	"time"

	"github.com/google/uuid"
)

// Bid is an immutable record of one bid on one player. Only the
// IsWinningBid flag of a superseded bid is ever flipped, and at most one
// bid per player carries it at a time.
type Bid struct {
	ID           uuid.UUID `json:"id"`
	AuctionID    uuid.UUID `json:"auction_id"`
	PlayerID     uuid.UUID `json:"player_id"`
	TeamID       uuid.UUID `json:"team_id"`
	Amount       float64   `json:"amount"`
	PlacedAt     time.Time `json:"placed_at"`
	IsWinningBid bool      `json:"is_winning_bid"`
}

// BidRule defines the minimum raise above a price tier. Rules are
// consulted during bid validation, never mutated by it; thresholds are
// unique within one auction.
type BidRule struct {
	ID              uuid.UUID `json:"id"`
	AuctionID       uuid.UUID `json:"auction_id"`
	ThresholdAmount float64   `json:"threshold_amount"`
	IncrementAmount float64   `json:"increment_amount"`
}
