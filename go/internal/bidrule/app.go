package bidrule

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/kpatel93/auctionday/go/internal/apperrors"
	"github.com/kpatel93/auctionday/go/internal/models"
)

// PremiumFeature names the gated capability in error messages.
const PremiumFeature = "Bid increment rules"

// BidRuleRepository defines what the app layer needs from the repository
type BidRuleRepository interface {
	CreateBidRule(ctx context.Context, req CreateBidRuleRequest) (*models.BidRule, error)
	GetBidRule(ctx context.Context, id uuid.UUID) (*models.BidRule, error)
	ListBidRulesByAuction(ctx context.Context, auctionID uuid.UUID) ([]models.BidRule, error)
	UpdateBidRule(ctx context.Context, id uuid.UUID, req UpdateBidRuleRequest) (*models.BidRule, error)
	DeleteBidRule(ctx context.Context, id uuid.UUID) error
}

// AuctionRepository defines what the app layer needs from the auction repository for scoping
type AuctionRepository interface {
	GetAuction(ctx context.Context, id uuid.UUID) (*models.Auction, error)
}

// AccessChecker gates premium-only features.
type AccessChecker interface {
	RequirePremium(ctx context.Context, username string, auctionID uuid.UUID, feature string) error
}

// App handles bid rule business logic. Reading rules is open to anyone
// in the auction; changing them is a premium, owner-only operation.
type App struct {
	repo        BidRuleRepository
	auctionRepo AuctionRepository
	access      AccessChecker
}

// NewApp creates a new bid rule App
func NewApp(repo BidRuleRepository, auctionRepo AuctionRepository, access AccessChecker) *App {
	return &App{
		repo:        repo,
		auctionRepo: auctionRepo,
		access:      access,
	}
}

// CreateBidRule adds an increment band to the caller's auction.
func (a *App) CreateBidRule(ctx context.Context, username string, req CreateBidRuleRequest) (*models.BidRule, error) {
	if err := a.validateRule(req.ThresholdAmount, req.IncrementAmount); err != nil {
		return nil, err
	}
	if _, err := a.ownedAuction(ctx, username, req.AuctionID); err != nil {
		return nil, err
	}
	if err := a.access.RequirePremium(ctx, username, req.AuctionID, PremiumFeature); err != nil {
		return nil, err
	}

	rule, err := a.repo.CreateBidRule(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create bid rule: %w", err)
	}

	log.Info().
		Str("auction_id", req.AuctionID.String()).
		Float64("threshold", rule.ThresholdAmount).
		Float64("increment", rule.IncrementAmount).
		Msg("created bid rule")
	return rule, nil
}

// ListBidRules returns the auction's increment bands ordered by
// threshold.
func (a *App) ListBidRules(ctx context.Context, auctionID uuid.UUID) ([]models.BidRule, error) {
	if _, err := a.auctionRepo.GetAuction(ctx, auctionID); err != nil {
		return nil, fmt.Errorf("auction not found: %w", err)
	}
	rules, err := a.repo.ListBidRulesByAuction(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bid rules: %w", err)
	}
	return rules, nil
}

// UpdateBidRule changes the threshold and/or increment of a rule in the
// caller's auction.
func (a *App) UpdateBidRule(ctx context.Context, username string, id uuid.UUID, req UpdateBidRuleRequest) (*models.BidRule, error) {
	current, err := a.repo.GetBidRule(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("bid rule not found: %w", err)
	}
	if _, err := a.ownedAuction(ctx, username, current.AuctionID); err != nil {
		return nil, err
	}
	if err := a.access.RequirePremium(ctx, username, current.AuctionID, PremiumFeature); err != nil {
		return nil, err
	}

	threshold := current.ThresholdAmount
	if req.ThresholdAmount != nil {
		threshold = *req.ThresholdAmount
	}
	increment := current.IncrementAmount
	if req.IncrementAmount != nil {
		increment = *req.IncrementAmount
	}
	if err := a.validateRule(threshold, increment); err != nil {
		return nil, err
	}

	rule, err := a.repo.UpdateBidRule(ctx, id, req)
	if err != nil {
		return nil, fmt.Errorf("failed to update bid rule: %w", err)
	}
	return rule, nil
}

// DeleteBidRule removes a rule from the caller's auction.
func (a *App) DeleteBidRule(ctx context.Context, username string, id uuid.UUID) error {
	rule, err := a.repo.GetBidRule(ctx, id)
	if err != nil {
		return fmt.Errorf("bid rule not found: %w", err)
	}
	if _, err := a.ownedAuction(ctx, username, rule.AuctionID); err != nil {
		return err
	}
	if err := a.access.RequirePremium(ctx, username, rule.AuctionID, PremiumFeature); err != nil {
		return err
	}

	if err := a.repo.DeleteBidRule(ctx, id); err != nil {
		return fmt.Errorf("failed to delete bid rule: %w", err)
	}

	log.Info().Str("bid_rule_id", id.String()).Msg("deleted bid rule")
	return nil
}

func (a *App) ownedAuction(ctx context.Context, username string, auctionID uuid.UUID) (*models.Auction, error) {
	auction, err := a.auctionRepo.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("auction not found: %w", err)
	}
	// Ownership failures read as not-found so foreign auctions stay
	// invisible.
	if auction.CreatedBy != username {
		return nil, apperrors.NotFoundf("auction %s not found", auctionID)
	}
	return auction, nil
}

func (a *App) validateRule(threshold, increment float64) error {
	if threshold < 0 {
		return apperrors.InvalidArgumentf("threshold_amount cannot be negative")
	}
	if increment <= 0 {
		return apperrors.InvalidArgumentf("increment_amount must be greater than 0")
	}
	return nil
}
