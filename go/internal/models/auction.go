package models

import (
	"time"

	"github.com/google/uuid"
)

// Auction represents one auction event. Teams and players belong to
// exactly one auction; budget and bid defaults are configured here.
type Auction struct {
	ID                  uuid.UUID `json:"id"`
	Name                string    `json:"name"`
	LogoURL             string    `json:"logo_url,omitempty"`
	AuctionDate         time.Time `json:"auction_date"`
	PointsPerTeam       float64   `json:"points_per_team"`
	TotalTeams          int       `json:"total_teams"`
	MinimumBid          float64   `json:"minimum_bid"`
	BidIncreaseBy       float64   `json:"bid_increase_by"`
	BasePrice           float64   `json:"base_price"`
	PlayersPerTeam      int       `json:"players_per_team"`
	IsActive            bool      `json:"is_active"`
	RegistrationEnabled bool      `json:"registration_enabled"`
	CreatedBy           string    `json:"created_by"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}
