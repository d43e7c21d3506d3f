package player

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/kpatel93/auctionday/go/internal/apperrors"
	"github.com/kpatel93/auctionday/go/internal/models"
)

// PlayerRepository defines what the app layer needs from the repository
type PlayerRepository interface {
	CreatePlayer(ctx context.Context, req CreatePlayerRequest) (*models.Player, error)
	GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error)
	ListPlayersByAuction(ctx context.Context, auctionID uuid.UUID, status *models.PlayerStatus) ([]models.Player, error)
	ListPlayersByTeam(ctx context.Context, teamID uuid.UUID) ([]models.Player, error)
	UpdatePlayer(ctx context.Context, id uuid.UUID, req UpdatePlayerRequest) (*models.Player, error)
	DeletePlayer(ctx context.Context, id uuid.UUID) error
}

// AuctionRepository defines what the app layer needs from the auction repository for scoping
type AuctionRepository interface {
	GetAuction(ctx context.Context, id uuid.UUID) (*models.Auction, error)
}

// Allocator moves players between teams through the allocation engine;
// no sale-state or ledger write happens outside it.
type Allocator interface {
	DirectAssign(ctx context.Context, auctionID, playerID, teamID uuid.UUID, price *float64) (*models.Player, error)
	AssignIcon(ctx context.Context, auctionID, playerID, teamID uuid.UUID) (*models.Player, error)
	RemoveIcon(ctx context.Context, auctionID, playerID, teamID uuid.UUID) (*models.Player, error)
	RemoveFromTeam(ctx context.Context, auctionID, playerID, teamID uuid.UUID) (*models.Player, error)
	MarkUnsold(ctx context.Context, auctionID, playerID uuid.UUID) (*models.Player, error)
	Reopen(ctx context.Context, auctionID, playerID uuid.UUID) (*models.Player, error)
	ReopenAllUnsold(ctx context.Context, auctionID uuid.UUID) (int, error)
	RepairOrphanedSold(ctx context.Context, auctionID uuid.UUID) (int, error)
}

// App handles player business logic. Profile fields are managed here;
// anything touching sale state or a team's ledger goes through the
// allocator.
type App struct {
	repo        PlayerRepository
	auctionRepo AuctionRepository
	allocator   Allocator
	clock       clockwork.Clock
}

// NewApp creates a new player App
func NewApp(repo PlayerRepository, auctionRepo AuctionRepository, allocator Allocator, clock clockwork.Clock) *App {
	return &App{
		repo:        repo,
		auctionRepo: auctionRepo,
		allocator:   allocator,
		clock:       clock,
	}
}

// CreatePlayer registers a player in an auction. The auction owner may
// always add players; anyone else only while registration is open and
// the auction date has not passed. Zero base price means the auction's
// base price.
func (a *App) CreatePlayer(ctx context.Context, username string, req CreatePlayerRequest) (*models.Player, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperrors.InvalidArgumentf("name is required")
	}
	if req.BasePrice < 0 {
		return nil, apperrors.InvalidArgumentf("base_price cannot be negative")
	}

	auction, err := a.auctionRepo.GetAuction(ctx, req.AuctionID)
	if err != nil {
		return nil, fmt.Errorf("auction not found: %w", err)
	}
	if auction.CreatedBy != username {
		if !auction.RegistrationEnabled {
			return nil, apperrors.Forbiddenf("registration is closed for auction %s", auction.Name)
		}
		if auction.AuctionDate.Before(a.clock.Now().UTC()) {
			return nil, apperrors.Conflictf("auction %s has already taken place", auction.Name)
		}
	}

	if req.BasePrice == 0 {
		req.BasePrice = auction.BasePrice
	}

	player, err := a.repo.CreatePlayer(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}

	log.Info().
		Str("player_id", player.ID.String()).
		Str("auction_id", req.AuctionID.String()).
		Str("name", player.Name).
		Msg("created player")
	return player, nil
}

// GetPlayer retrieves a player scoped to an auction.
func (a *App) GetPlayer(ctx context.Context, auctionID, id uuid.UUID) (*models.Player, error) {
	player, err := a.repo.GetPlayer(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	if player.AuctionID != auctionID {
		return nil, apperrors.NotFoundf("player %s not found in auction %s", id, auctionID)
	}
	return player, nil
}

// ListPlayers returns the auction's players, optionally filtered by
// status.
func (a *App) ListPlayers(ctx context.Context, auctionID uuid.UUID, status *models.PlayerStatus) ([]models.Player, error) {
	if _, err := a.auctionRepo.GetAuction(ctx, auctionID); err != nil {
		return nil, fmt.Errorf("auction not found: %w", err)
	}
	players, err := a.repo.ListPlayersByAuction(ctx, auctionID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	return players, nil
}

// ListTeamRoster returns a team's players, costliest first.
func (a *App) ListTeamRoster(ctx context.Context, teamID uuid.UUID) ([]models.Player, error) {
	players, err := a.repo.ListPlayersByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list team roster: %w", err)
	}
	return players, nil
}

// UpdatePlayer edits profile fields. A base price change re-prices the
// player only while still AVAILABLE.
func (a *App) UpdatePlayer(ctx context.Context, username string, auctionID, id uuid.UUID, req UpdatePlayerRequest) (*models.Player, error) {
	if _, err := a.ownedAuction(ctx, username, auctionID); err != nil {
		return nil, err
	}
	if _, err := a.GetPlayer(ctx, auctionID, id); err != nil {
		return nil, err
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, apperrors.InvalidArgumentf("name cannot be empty")
	}
	if req.BasePrice != nil && *req.BasePrice < 0 {
		return nil, apperrors.InvalidArgumentf("base_price cannot be negative")
	}

	player, err := a.repo.UpdatePlayer(ctx, id, req)
	if err != nil {
		return nil, fmt.Errorf("failed to update player: %w", err)
	}
	return player, nil
}

// DeletePlayer removes an unsold player from the caller's auction.
func (a *App) DeletePlayer(ctx context.Context, username string, auctionID, id uuid.UUID) error {
	if _, err := a.ownedAuction(ctx, username, auctionID); err != nil {
		return err
	}
	player, err := a.GetPlayer(ctx, auctionID, id)
	if err != nil {
		return err
	}
	if player.Status == models.PlayerStatusSold {
		return apperrors.Conflictf("player %s is sold; remove them from their team first", player.Name)
	}

	if err := a.repo.DeletePlayer(ctx, id); err != nil {
		return fmt.Errorf("failed to delete player: %w", err)
	}

	log.Info().Str("player_id", id.String()).Msg("deleted player")
	return nil
}

// AddToTeam sells a player to a team without bidding.
func (a *App) AddToTeam(ctx context.Context, username string, auctionID, playerID, teamID uuid.UUID, price *float64) (*models.Player, error) {
	if _, err := a.ownedAuction(ctx, username, auctionID); err != nil {
		return nil, err
	}
	return a.allocator.DirectAssign(ctx, auctionID, playerID, teamID, price)
}

// AssignIcon marks a player as the team's icon at zero cost.
func (a *App) AssignIcon(ctx context.Context, username string, auctionID, playerID, teamID uuid.UUID) (*models.Player, error) {
	if _, err := a.ownedAuction(ctx, username, auctionID); err != nil {
		return nil, err
	}
	return a.allocator.AssignIcon(ctx, auctionID, playerID, teamID)
}

// RemoveIcon reverts an icon assignment.
func (a *App) RemoveIcon(ctx context.Context, username string, auctionID, playerID, teamID uuid.UUID) (*models.Player, error) {
	if _, err := a.ownedAuction(ctx, username, auctionID); err != nil {
		return nil, err
	}
	return a.allocator.RemoveIcon(ctx, auctionID, playerID, teamID)
}

// RemoveFromTeam releases a sold player and refunds the team.
func (a *App) RemoveFromTeam(ctx context.Context, username string, auctionID, playerID, teamID uuid.UUID) (*models.Player, error) {
	if _, err := a.ownedAuction(ctx, username, auctionID); err != nil {
		return nil, err
	}
	return a.allocator.RemoveFromTeam(ctx, auctionID, playerID, teamID)
}

// MarkUnsold closes the bidding round for a player without a sale.
func (a *App) MarkUnsold(ctx context.Context, username string, auctionID, playerID uuid.UUID) (*models.Player, error) {
	if _, err := a.ownedAuction(ctx, username, auctionID); err != nil {
		return nil, err
	}
	return a.allocator.MarkUnsold(ctx, auctionID, playerID)
}

// Reopen puts one unsold player back on the block.
func (a *App) Reopen(ctx context.Context, username string, auctionID, playerID uuid.UUID) (*models.Player, error) {
	if _, err := a.ownedAuction(ctx, username, auctionID); err != nil {
		return nil, err
	}
	return a.allocator.Reopen(ctx, auctionID, playerID)
}

// ReopenAllUnsold reopens every unsold player and repairs any player
// left sold without a team. Returns how many players went back on the
// block.
func (a *App) ReopenAllUnsold(ctx context.Context, username string, auctionID uuid.UUID) (int, error) {
	if _, err := a.ownedAuction(ctx, username, auctionID); err != nil {
		return 0, err
	}

	repaired, err := a.allocator.RepairOrphanedSold(ctx, auctionID)
	if err != nil {
		return 0, fmt.Errorf("failed to repair orphaned players: %w", err)
	}
	if repaired > 0 {
		log.Warn().Int("repaired", repaired).Str("auction_id", auctionID.String()).Msg("repaired players sold without a team")
	}

	reopened, err := a.allocator.ReopenAllUnsold(ctx, auctionID)
	if err != nil {
		return reopened, fmt.Errorf("failed to reopen unsold players: %w", err)
	}
	return reopened, nil
}

func (a *App) ownedAuction(ctx context.Context, username string, auctionID uuid.UUID) (*models.Auction, error) {
	auction, err := a.auctionRepo.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("auction not found: %w", err)
	}
	if auction.CreatedBy != username {
		return nil, apperrors.NotFoundf("auction %s not found", auctionID)
	}
	return auction, nil
}
