package models

import (
	"time"

	"github.com/google/uuid"
)

// PlayerStatus defines the sale state of a player.
type PlayerStatus string

const (
	PlayerStatusAvailable PlayerStatus = "AVAILABLE"
	PlayerStatusSold      PlayerStatus = "SOLD"
	PlayerStatusUnsold    PlayerStatus = "UNSOLD"
)

// Player is the auctioned unit. TeamID is set exactly when the player is
// SOLD; an icon player is assigned without bidding at price zero.
type Player struct {
	ID           uuid.UUID    `json:"id"`
	AuctionID    uuid.UUID    `json:"auction_id"`
	Name         string       `json:"name"`
	Age          int          `json:"age,omitempty"`
	Role         string       `json:"role,omitempty"`
	MobileNumber string       `json:"mobile_number,omitempty"`
	PhotoURL     string       `json:"photo_url,omitempty"`
	BasePrice    float64      `json:"base_price"`
	CurrentPrice float64      `json:"current_price"`
	Status       PlayerStatus `json:"status"`
	TeamID       *uuid.UUID   `json:"team_id,omitempty"`
	IsIcon       bool         `json:"is_icon"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}
