package entitlement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/kpatel93/auctionday/go/internal/apperrors"
	"github.com/kpatel93/auctionday/go/internal/models"
)

// EntitlementRepository defines what the app layer needs from the repository
type EntitlementRepository interface {
	CreateEntitlement(ctx context.Context, req CreateEntitlementRequest) (*models.AccessEntitlement, error)
	GetEntitlement(ctx context.Context, id uuid.UUID) (*models.AccessEntitlement, error)
	ListEntitlementsByUsername(ctx context.Context, username string) ([]models.AccessEntitlement, error)
	ListEntitlements(ctx context.Context) ([]models.AccessEntitlement, error)
	UpdateEntitlement(ctx context.Context, id uuid.UUID, req UpdateEntitlementRequest) (*models.AccessEntitlement, error)
	DeleteEntitlement(ctx context.Context, id uuid.UUID) error
}

// AuctionRepository defines what the app layer needs from the auction repository for validation
type AuctionRepository interface {
	GetAuction(ctx context.Context, id uuid.UUID) (*models.Auction, error)
}

// GrantRequest is the admin-facing shape of a new grant. Unset StartsAt
// means now; unset ExpiresAt means the access type's default duration.
type GrantRequest struct {
	Username  string            `json:"username"`
	Type      models.AccessType `json:"access_type"`
	AuctionID *uuid.UUID        `json:"auction_id,omitempty"`
	StartsAt  *time.Time        `json:"starts_at,omitempty"`
	ExpiresAt *time.Time        `json:"expires_at,omitempty"`
	Notes     string            `json:"notes,omitempty"`
}

// App handles entitlement grant management. Every mutation is
// admin-only; the caller is resolved to a user and checked for the
// ADMIN role before anything else.
type App struct {
	repo        EntitlementRepository
	users       UserRepository
	auctionRepo AuctionRepository
	clock       clockwork.Clock
}

// NewApp creates a new entitlement App
func NewApp(repo EntitlementRepository, users UserRepository, auctionRepo AuctionRepository, clock clockwork.Clock) *App {
	return &App{
		repo:        repo,
		users:       users,
		auctionRepo: auctionRepo,
		clock:       clock,
	}
}

// Grant creates a premium grant for a user.
func (a *App) Grant(ctx context.Context, grantedBy string, req GrantRequest) (*models.AccessEntitlement, error) {
	if err := a.requireAdmin(ctx, grantedBy); err != nil {
		return nil, err
	}

	target, err := a.users.GetUserByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	switch req.Type {
	case models.AccessTypePerAuction:
		if req.AuctionID == nil {
			return nil, apperrors.InvalidArgumentf("auction_id is required for %s access", models.AccessTypePerAuction)
		}
		if _, err := a.auctionRepo.GetAuction(ctx, *req.AuctionID); err != nil {
			return nil, fmt.Errorf("auction not found: %w", err)
		}
	case models.AccessTypeFullMonthly, models.AccessTypeFullYearly:
		if req.AuctionID != nil {
			return nil, apperrors.InvalidArgumentf("auction_id must not be set for %s access", req.Type)
		}
	default:
		return nil, apperrors.InvalidArgumentf("invalid access type: %s", req.Type)
	}

	startsAt := a.clock.Now().UTC()
	if req.StartsAt != nil {
		startsAt = req.StartsAt.UTC()
	}
	expiresAt := req.ExpiresAt
	if expiresAt == nil {
		expiresAt = defaultExpiry(req.Type, startsAt)
	}
	if expiresAt != nil && !expiresAt.After(startsAt) {
		return nil, apperrors.InvalidArgumentf("expires_at must be after starts_at")
	}

	ent, err := a.repo.CreateEntitlement(ctx, CreateEntitlementRequest{
		UserID:    target.ID,
		Username:  target.Username,
		Type:      req.Type,
		AuctionID: req.AuctionID,
		StartsAt:  startsAt,
		ExpiresAt: expiresAt,
		Notes:     req.Notes,
		GrantedBy: grantedBy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create entitlement: %w", err)
	}

	log.Info().
		Str("username", target.Username).
		Str("access_type", string(req.Type)).
		Str("granted_by", grantedBy).
		Msg("granted premium access")
	return ent, nil
}

// ListForUser returns all grants ever issued to one user, newest first.
func (a *App) ListForUser(ctx context.Context, caller, username string) ([]models.AccessEntitlement, error) {
	// Users may read their own grants; reading someone else's is
	// admin-only.
	if caller != username {
		if err := a.requireAdmin(ctx, caller); err != nil {
			return nil, err
		}
	}
	ents, err := a.repo.ListEntitlementsByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to list entitlements: %w", err)
	}
	return ents, nil
}

// ListAll returns every grant in the system, newest first.
func (a *App) ListAll(ctx context.Context, caller string) ([]models.AccessEntitlement, error) {
	if err := a.requireAdmin(ctx, caller); err != nil {
		return nil, err
	}
	ents, err := a.repo.ListEntitlements(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list entitlements: %w", err)
	}
	return ents, nil
}

// Update changes the expiry and/or notes of an existing grant.
func (a *App) Update(ctx context.Context, caller string, id uuid.UUID, req UpdateEntitlementRequest) (*models.AccessEntitlement, error) {
	if err := a.requireAdmin(ctx, caller); err != nil {
		return nil, err
	}
	current, err := a.repo.GetEntitlement(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("entitlement not found: %w", err)
	}
	if req.ExpiresAt != nil && !req.ExpiresAt.After(current.StartsAt) {
		return nil, apperrors.InvalidArgumentf("expires_at must be after starts_at")
	}

	ent, err := a.repo.UpdateEntitlement(ctx, id, req)
	if err != nil {
		return nil, fmt.Errorf("failed to update entitlement: %w", err)
	}
	return ent, nil
}

// Revoke deletes a grant. Access evaluation reflects the removal
// immediately.
func (a *App) Revoke(ctx context.Context, caller string, id uuid.UUID) error {
	if err := a.requireAdmin(ctx, caller); err != nil {
		return err
	}
	if err := a.repo.DeleteEntitlement(ctx, id); err != nil {
		return fmt.Errorf("failed to revoke entitlement: %w", err)
	}

	log.Info().Str("entitlement_id", id.String()).Str("revoked_by", caller).Msg("revoked premium access")
	return nil
}

func (a *App) requireAdmin(ctx context.Context, username string) error {
	user, err := a.users.GetUserByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("user not found: %w", err)
	}
	if !user.IsAdmin() {
		return apperrors.Forbiddenf("managing access entitlements requires the ADMIN role")
	}
	return nil
}

// defaultExpiry returns the access type's built-in duration from
// startsAt: 30 days per-auction, one calendar month monthly, one year
// yearly.
func defaultExpiry(t models.AccessType, startsAt time.Time) *time.Time {
	var exp time.Time
	switch t {
	case models.AccessTypePerAuction:
		exp = startsAt.AddDate(0, 0, 30)
	case models.AccessTypeFullMonthly:
		exp = startsAt.AddDate(0, 1, 0)
	case models.AccessTypeFullYearly:
		exp = startsAt.AddDate(1, 0, 0)
	default:
		return nil
	}
	return &exp
}
