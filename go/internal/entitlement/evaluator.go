package entitlement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/kpatel93/auctionday/go/internal/apperrors"
	"github.com/kpatel93/auctionday/go/internal/models"
)

// FreeTeamLimit is the number of teams per auction the free plan allows.
const FreeTeamLimit = 2

// UserRepository defines what the evaluator needs from the users repository
type UserRepository interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// Evaluator answers premium-access questions. Admins are always
// premium; everyone else is premium iff an entitlement covers the
// auction at the current instant.
type Evaluator struct {
	repo  EntitlementRepository
	users UserRepository
	clock clockwork.Clock
}

// NewEvaluator creates an access evaluator.
func NewEvaluator(repo EntitlementRepository, users UserRepository, clock clockwork.Clock) *Evaluator {
	return &Evaluator{
		repo:  repo,
		users: users,
		clock: clock,
	}
}

// Status describes a user's access level for one auction.
type Status struct {
	Username   string             `json:"username"`
	IsPremium  bool               `json:"is_premium"`
	IsAdmin    bool               `json:"is_admin"`
	AccessType *models.AccessType `json:"access_type,omitempty"`
	ExpiresAt  *time.Time         `json:"expires_at,omitempty"`
}

// IsPremium reports whether the user has premium access in the context
// of the given auction.
func (e *Evaluator) IsPremium(ctx context.Context, username string, auctionID uuid.UUID) (bool, error) {
	status, err := e.GetStatus(ctx, username, auctionID)
	if err != nil {
		return false, err
	}
	return status.IsPremium, nil
}

// RequirePremium returns ErrForbidden naming the feature when the user
// is not premium for the auction.
func (e *Evaluator) RequirePremium(ctx context.Context, username string, auctionID uuid.UUID, feature string) error {
	premium, err := e.IsPremium(ctx, username, auctionID)
	if err != nil {
		return err
	}
	if !premium {
		return apperrors.Forbiddenf("%s is available only on paid access.", feature)
	}
	return nil
}

// EnforceFreeTeamLimit rejects team creation beyond the free plan's
// per-auction cap. Premium users have no cap here; the auction's own
// TotalTeams cap still applies elsewhere.
func (e *Evaluator) EnforceFreeTeamLimit(ctx context.Context, username string, auctionID uuid.UUID, currentTeams int) error {
	premium, err := e.IsPremium(ctx, username, auctionID)
	if err != nil {
		return err
	}
	if premium {
		return nil
	}
	if currentTeams >= FreeTeamLimit {
		return apperrors.Forbiddenf("Free team limit reached. Free plan allows up to %d teams per auction.", FreeTeamLimit)
	}
	return nil
}

// GetStatus resolves the user's access for the auction. When several
// grants cover it, the one that lasts longest wins; an open-ended grant
// beats any dated one.
func (e *Evaluator) GetStatus(ctx context.Context, username string, auctionID uuid.UUID) (*Status, error) {
	status := &Status{Username: username}

	user, err := e.users.GetUserByUsername(ctx, username)
	if err != nil && !apperrors.IsNotFound(err) {
		return nil, fmt.Errorf("failed to load user %s: %w", username, err)
	}
	if user != nil && user.IsAdmin() {
		status.IsPremium = true
		status.IsAdmin = true
		return status, nil
	}

	grants, err := e.repo.ListEntitlementsByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to list entitlements for %s: %w", username, err)
	}

	now := e.clock.Now().UTC()
	var best *models.AccessEntitlement
	for i := range grants {
		g := &grants[i]
		if !g.ActiveAt(now) {
			continue
		}
		if g.Type == models.AccessTypePerAuction {
			if g.AuctionID == nil || *g.AuctionID != auctionID {
				continue
			}
		}
		if best == nil || outlasts(g, best) {
			best = g
		}
	}
	if best != nil {
		status.IsPremium = true
		status.AccessType = &best.Type
		status.ExpiresAt = best.ExpiresAt
	}
	return status, nil
}

func outlasts(a, b *models.AccessEntitlement) bool {
	if a.ExpiresAt == nil {
		return b.ExpiresAt != nil
	}
	if b.ExpiresAt == nil {
		return false
	}
	return a.ExpiresAt.After(*b.ExpiresAt)
}
