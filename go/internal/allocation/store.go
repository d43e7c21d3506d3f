package allocation

import (
	"context"

	"github.com/google/uuid"
	"github.com/kpatel93/auctionday/go/internal/models"
)

// Store defines what the allocation engine needs from persistence. The
// Commit* methods apply a pre-computed set of row changes as one atomic
// unit; validation and state computation happen in the engine under the
// per-entity locks.
type Store interface {
	GetAuction(ctx context.Context, id uuid.UUID) (*models.Auction, error)
	GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error)
	GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error)
	ListPlayersByStatus(ctx context.Context, auctionID uuid.UUID, status models.PlayerStatus) ([]models.Player, error)
	ListBidRules(ctx context.Context, auctionID uuid.UUID) ([]models.BidRule, error)

	// CommitSale persists a sale: supersedes the player's previous
	// winning bid and inserts the new one when c.Bid is set, then writes
	// the updated player and team rows. All or nothing.
	CommitSale(ctx context.Context, c SaleCommit) error

	// CommitRelease persists a player leaving a team together with the
	// team's refunded budget. All or nothing.
	CommitRelease(ctx context.Context, c ReleaseCommit) error

	// UpdatePlayerState persists a player-only state change (unsold,
	// reopen, orphan repair).
	UpdatePlayerState(ctx context.Context, p *models.Player) error

	// UpdateTeamLedger persists a team-only ledger change (budget
	// ceiling update).
	UpdateTeamLedger(ctx context.Context, t *models.Team) error
}

// SaleCommit describes the rows a completed sale writes. Bid is nil for
// direct and icon assignments, which record no bid trail.
type SaleCommit struct {
	Player *models.Player
	Team   *models.Team
	Bid    *models.Bid
}

// ReleaseCommit describes the rows written when a player is removed
// from a team.
type ReleaseCommit struct {
	Player *models.Player
	Team   *models.Team
}
