package bid

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/kpatel93/auctionday/go/internal/apperrors"
	"github.com/kpatel93/auctionday/go/internal/models"
)

// BidRepository defines what the app layer needs from the repository
type BidRepository interface {
	ListBidsByPlayer(ctx context.Context, playerID uuid.UUID) ([]models.Bid, error)
	ListBidsByTeam(ctx context.Context, teamID uuid.UUID) ([]models.Bid, error)
	ListBidsByAuction(ctx context.Context, auctionID uuid.UUID) ([]models.Bid, error)
	GetWinningBid(ctx context.Context, playerID uuid.UUID) (*models.Bid, error)
}

// AuctionRepository defines what the app layer needs from the auction repository for scoping
type AuctionRepository interface {
	GetAuction(ctx context.Context, id uuid.UUID) (*models.Auction, error)
}

// BidPlacer validates and commits bids through the allocation engine.
type BidPlacer interface {
	PlaceBid(ctx context.Context, auctionID, playerID, teamID uuid.UUID, amount float64) (*models.Bid, error)
}

// PlaceBidRequest carries one bid from the auction console.
type PlaceBidRequest struct {
	AuctionID uuid.UUID `json:"auction_id"`
	PlayerID  uuid.UUID `json:"player_id"`
	TeamID    uuid.UUID `json:"team_id"`
	Amount    float64   `json:"amount"`
}

// App handles bid business logic. Bids are entered by the auction
// owner running the live auction; everyone else only reads them.
type App struct {
	repo        BidRepository
	auctionRepo AuctionRepository
	placer      BidPlacer
}

// NewApp creates a new bid App
func NewApp(repo BidRepository, auctionRepo AuctionRepository, placer BidPlacer) *App {
	return &App{
		repo:        repo,
		auctionRepo: auctionRepo,
		placer:      placer,
	}
}

// PlaceBid records a bid on behalf of a team in the caller's live
// auction.
func (a *App) PlaceBid(ctx context.Context, username string, req PlaceBidRequest) (*models.Bid, error) {
	if req.Amount <= 0 {
		return nil, apperrors.InvalidArgumentf("amount must be greater than 0")
	}

	auction, err := a.auctionRepo.GetAuction(ctx, req.AuctionID)
	if err != nil {
		return nil, fmt.Errorf("auction not found: %w", err)
	}
	if auction.CreatedBy != username {
		return nil, apperrors.NotFoundf("auction %s not found", req.AuctionID)
	}
	if !auction.IsActive {
		return nil, apperrors.Conflictf("auction %s is not active", auction.Name)
	}
	if req.Amount < auction.MinimumBid {
		return nil, apperrors.Conflictf("bid %.2f is below the auction minimum %.2f", req.Amount, auction.MinimumBid)
	}

	bid, err := a.placer.PlaceBid(ctx, req.AuctionID, req.PlayerID, req.TeamID, req.Amount)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("bid_id", bid.ID.String()).
		Str("player_id", req.PlayerID.String()).
		Str("team_id", req.TeamID.String()).
		Float64("amount", req.Amount).
		Msg("placed bid")
	return bid, nil
}

// ListBidsForPlayer returns a player's bid history, newest first.
func (a *App) ListBidsForPlayer(ctx context.Context, auctionID, playerID uuid.UUID) ([]models.Bid, error) {
	bids, err := a.repo.ListBidsByPlayer(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bids: %w", err)
	}
	return scopedBids(bids, auctionID), nil
}

// ListBidsForTeam returns a team's bid history, newest first.
func (a *App) ListBidsForTeam(ctx context.Context, auctionID, teamID uuid.UUID) ([]models.Bid, error) {
	bids, err := a.repo.ListBidsByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bids: %w", err)
	}
	return scopedBids(bids, auctionID), nil
}

// ListBidsForAuction returns the auction's full bid log, newest first.
func (a *App) ListBidsForAuction(ctx context.Context, auctionID uuid.UUID) ([]models.Bid, error) {
	if _, err := a.auctionRepo.GetAuction(ctx, auctionID); err != nil {
		return nil, fmt.Errorf("auction not found: %w", err)
	}
	bids, err := a.repo.ListBidsByAuction(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bids: %w", err)
	}
	return bids, nil
}

// GetWinningBid returns the current winning bid for a player.
func (a *App) GetWinningBid(ctx context.Context, auctionID, playerID uuid.UUID) (*models.Bid, error) {
	bid, err := a.repo.GetWinningBid(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get winning bid: %w", err)
	}
	if bid.AuctionID != auctionID {
		return nil, apperrors.NotFoundf("no winning bid for player %s in auction %s", playerID, auctionID)
	}
	return bid, nil
}

func scopedBids(bids []models.Bid, auctionID uuid.UUID) []models.Bid {
	out := bids[:0]
	for _, b := range bids {
		if b.AuctionID == auctionID {
			out = append(out, b)
		}
	}
	return out
}
