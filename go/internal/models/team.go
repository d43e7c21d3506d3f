package models

import (
	"time"

	"github.com/google/uuid"
)

// Team is a bidding party in an auction. BudgetAmount is the ceiling an
// admin sets; RemainingBudget is what the team can still spend. The budget
// fields are mutated only by the allocation ledger, never by generic
// team updates.
type Team struct {
	ID              uuid.UUID `json:"id"`
	AuctionID       uuid.UUID `json:"auction_id"`
	Name            string    `json:"name"`
	LogoURL         string    `json:"logo_url,omitempty"`
	BudgetAmount    float64   `json:"budget_amount"`
	RemainingBudget float64   `json:"remaining_budget"`
	PointsUsed      float64   `json:"points_used"`
	PlayersCount    int       `json:"players_count"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
}
