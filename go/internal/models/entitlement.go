package models

import (
	"time"

	"github.com/google/uuid"
)

// AccessType defines the scope of a premium grant.
type AccessType string

const (
	AccessTypePerAuction  AccessType = "PER_AUCTION"
	AccessTypeFullMonthly AccessType = "FULL_MONTHLY"
	AccessTypeFullYearly  AccessType = "FULL_YEARLY"
)

// AccessEntitlement is a time-bounded premium grant for one user.
// AuctionID is set exactly when AccessType is PER_AUCTION. A nil
// ExpiresAt means the grant never expires.
type AccessEntitlement struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Username  string     `json:"username"`
	Type      AccessType `json:"access_type"`
	AuctionID *uuid.UUID `json:"auction_id,omitempty"`
	StartsAt  time.Time  `json:"starts_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	GrantedBy string     `json:"granted_by"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ActiveAt reports whether the grant covers the given instant. Both
// interval boundaries are inclusive.
func (e AccessEntitlement) ActiveAt(now time.Time) bool {
	if now.Before(e.StartsAt) {
		return false
	}
	if e.ExpiresAt != nil && now.After(*e.ExpiresAt) {
		return false
	}
	return true
}
