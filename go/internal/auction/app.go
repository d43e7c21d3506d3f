package auction

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/kpatel93/auctionday/go/internal/apperrors"
	"github.com/kpatel93/auctionday/go/internal/models"
)

// AuctionRepository defines what the app layer needs from the repository
type AuctionRepository interface {
	CreateAuction(ctx context.Context, req CreateAuctionRequest) (*models.Auction, error)
	GetAuction(ctx context.Context, id uuid.UUID) (*models.Auction, error)
	ListAuctionsByCreator(ctx context.Context, username string) ([]models.Auction, error)
	ListUpcomingAuctions(ctx context.Context, after time.Time) ([]models.Auction, error)
	ListPastAuctions(ctx context.Context, before time.Time) ([]models.Auction, error)
	UpdateAuction(ctx context.Context, id uuid.UUID, req UpdateAuctionRequest) (*models.Auction, error)
	DeleteAuction(ctx context.Context, id uuid.UUID) error
}

// App handles auction business logic
type App struct {
	repo  AuctionRepository
	clock clockwork.Clock
}

// NewApp creates a new auction App
func NewApp(repo AuctionRepository, clock clockwork.Clock) *App {
	return &App{
		repo:  repo,
		clock: clock,
	}
}

// CreateAuction creates a new auction owned by the caller.
func (a *App) CreateAuction(ctx context.Context, username string, req CreateAuctionRequest) (*models.Auction, error) {
	req.CreatedBy = username
	if err := a.validateCreateAuctionRequest(req); err != nil {
		return nil, err
	}

	auction, err := a.repo.CreateAuction(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create auction: %w", err)
	}

	log.Info().
		Str("auction_id", auction.ID.String()).
		Str("name", auction.Name).
		Str("created_by", username).
		Msg("created auction")
	return auction, nil
}

// GetAuction retrieves an auction by ID
func (a *App) GetAuction(ctx context.Context, id uuid.UUID) (*models.Auction, error) {
	auction, err := a.repo.GetAuction(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get auction: %w", err)
	}
	return auction, nil
}

// ListMyAuctions returns auctions created by the caller, newest first.
func (a *App) ListMyAuctions(ctx context.Context, username string) ([]models.Auction, error) {
	auctions, err := a.repo.ListAuctionsByCreator(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to list auctions: %w", err)
	}
	return auctions, nil
}

// ListUpcoming returns active auctions whose date has not passed.
func (a *App) ListUpcoming(ctx context.Context) ([]models.Auction, error) {
	auctions, err := a.repo.ListUpcomingAuctions(ctx, a.clock.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming auctions: %w", err)
	}
	return auctions, nil
}

// ListPast returns auctions whose date has passed, most recent first.
func (a *App) ListPast(ctx context.Context) ([]models.Auction, error) {
	auctions, err := a.repo.ListPastAuctions(ctx, a.clock.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to list past auctions: %w", err)
	}
	return auctions, nil
}

// UpdateAuction updates the caller's auction. Auctions whose date has
// passed are frozen except for deactivation.
func (a *App) UpdateAuction(ctx context.Context, username string, id uuid.UUID, req UpdateAuctionRequest) (*models.Auction, error) {
	current, err := a.ownedAuction(ctx, username, id)
	if err != nil {
		return nil, err
	}

	if a.datePassed(current) && !deactivationOnly(req) {
		return nil, apperrors.Conflictf("auction %s has already taken place and can no longer be changed", current.Name)
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, apperrors.InvalidArgumentf("name cannot be empty")
	}
	if req.MinimumBid != nil && *req.MinimumBid < 0 {
		return nil, apperrors.InvalidArgumentf("minimum_bid cannot be negative")
	}
	if req.BidIncreaseBy != nil && *req.BidIncreaseBy <= 0 {
		return nil, apperrors.InvalidArgumentf("bid_increase_by must be greater than 0")
	}
	if req.BasePrice != nil && *req.BasePrice < 0 {
		return nil, apperrors.InvalidArgumentf("base_price cannot be negative")
	}

	auction, err := a.repo.UpdateAuction(ctx, id, req)
	if err != nil {
		return nil, fmt.Errorf("failed to update auction: %w", err)
	}
	return auction, nil
}

// DeleteAuction removes the caller's auction along with its teams,
// players, bids and rules.
func (a *App) DeleteAuction(ctx context.Context, username string, id uuid.UUID) error {
	auction, err := a.ownedAuction(ctx, username, id)
	if err != nil {
		return err
	}

	if err := a.repo.DeleteAuction(ctx, id); err != nil {
		return fmt.Errorf("failed to delete auction: %w", err)
	}

	log.Info().Str("auction_id", id.String()).Str("name", auction.Name).Msg("deleted auction")
	return nil
}

func (a *App) ownedAuction(ctx context.Context, username string, id uuid.UUID) (*models.Auction, error) {
	auction, err := a.repo.GetAuction(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("auction not found: %w", err)
	}
	if auction.CreatedBy != username {
		return nil, apperrors.NotFoundf("auction %s not found", id)
	}
	return auction, nil
}

func (a *App) datePassed(auction *models.Auction) bool {
	return auction.AuctionDate.Before(a.clock.Now().UTC())
}

// deactivationOnly reports whether the update does nothing except turn
// the auction off.
func deactivationOnly(req UpdateAuctionRequest) bool {
	return req.IsActive != nil && !*req.IsActive &&
		req.Name == nil && req.LogoURL == nil && req.AuctionDate == nil &&
		req.MinimumBid == nil && req.BidIncreaseBy == nil && req.BasePrice == nil &&
		req.RegistrationEnabled == nil
}

func (a *App) validateCreateAuctionRequest(req CreateAuctionRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return apperrors.InvalidArgumentf("name is required")
	}
	if req.AuctionDate.IsZero() {
		return apperrors.InvalidArgumentf("auction_date is required")
	}
	if req.PointsPerTeam <= 0 {
		return apperrors.InvalidArgumentf("points_per_team must be greater than 0")
	}
	if req.TotalTeams <= 0 {
		return apperrors.InvalidArgumentf("total_teams must be greater than 0")
	}
	if req.PlayersPerTeam <= 0 {
		return apperrors.InvalidArgumentf("players_per_team must be greater than 0")
	}
	if req.MinimumBid < 0 {
		return apperrors.InvalidArgumentf("minimum_bid cannot be negative")
	}
	if req.BidIncreaseBy <= 0 {
		return apperrors.InvalidArgumentf("bid_increase_by must be greater than 0")
	}
	if req.BasePrice < 0 {
		return apperrors.InvalidArgumentf("base_price cannot be negative")
	}
	return nil
}
