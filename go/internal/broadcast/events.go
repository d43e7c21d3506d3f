package broadcast

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Subjects observers can listen on. The bid feed is global per
// deployment; player updates go out on a per-player subject.
const (
	SubjectBids          = "auction.bids"
	subjectPlayerPattern = "auction.players.%s"
)

// PlayerSubject returns the update subject for one player.
func PlayerSubject(playerID uuid.UUID) string {
	return fmt.Sprintf(subjectPlayerPattern, playerID)
}

// EventType identifies the payload carried by an Event.
type EventType string

const (
	EventTypeBidPlaced     EventType = "BidPlaced"
	EventTypePlayerUpdated EventType = "PlayerUpdated"
)

// Event is the envelope published on every subject.
type Event struct {
	ID        string          `json:"id"`
	AuctionID string          `json:"auction_id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// NewEvent wraps a payload in an envelope. Marshal failures are
// programming errors in the payload type and are returned as-is.
func NewEvent(auctionID uuid.UUID, eventType EventType, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Event{
		ID:        uuid.New().String(),
		AuctionID: auctionID.String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}, nil
}

// BidPlacedPayload is the projection broadcast on the bid feed after a
// winning bid commits.
type BidPlacedPayload struct {
	BidID        string    `json:"bid_id"`
	PlayerID     string    `json:"player_id"`
	PlayerName   string    `json:"player_name"`
	TeamID       string    `json:"team_id"`
	TeamName     string    `json:"team_name"`
	Amount       float64   `json:"amount"`
	PlacedAt     time.Time `json:"placed_at"`
	IsWinningBid bool      `json:"is_winning_bid"`
}

// PlayerUpdatedPayload signals that a player's sale state changed.
type PlayerUpdatedPayload struct {
	PlayerID     string    `json:"player_id"`
	Status       string    `json:"status"`
	TeamID       *string   `json:"team_id,omitempty"`
	CurrentPrice float64   `json:"current_price"`
	IsIcon       bool      `json:"is_icon"`
	UpdatedAt    time.Time `json:"updated_at"`
}
