package bid

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kpatel93/auctionday/go/internal/apperrors"
	"github.com/kpatel93/auctionday/go/internal/models"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{
		pool: pool,
	}
}

const bidColumns = `id, auction_id, player_id, team_id, amount, placed_at, is_winning_bid`

func (r *Repository) ListBidsByPlayer(ctx context.Context, playerID uuid.UUID) ([]models.Bid, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+bidColumns+` FROM bids
		WHERE player_id = $1
		ORDER BY placed_at DESC`, playerID)
	if err != nil {
		return nil, apperrors.Storagef(err, "failed to list bids by player")
	}
	defer rows.Close()
	return collectBids(rows)
}

func (r *Repository) ListBidsByTeam(ctx context.Context, teamID uuid.UUID) ([]models.Bid, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+bidColumns+` FROM bids
		WHERE team_id = $1
		ORDER BY placed_at DESC`, teamID)
	if err != nil {
		return nil, apperrors.Storagef(err, "failed to list bids by team")
	}
	defer rows.Close()
	return collectBids(rows)
}

func (r *Repository) ListBidsByAuction(ctx context.Context, auctionID uuid.UUID) ([]models.Bid, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+bidColumns+` FROM bids
		WHERE auction_id = $1
		ORDER BY placed_at DESC`, auctionID)
	if err != nil {
		return nil, apperrors.Storagef(err, "failed to list bids by auction")
	}
	defer rows.Close()
	return collectBids(rows)
}

// GetWinningBid returns the bid currently carrying the winning flag for
// a player, or ErrNotFound when the player has none.
func (r *Repository) GetWinningBid(ctx context.Context, playerID uuid.UUID) (*models.Bid, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+bidColumns+` FROM bids
		WHERE player_id = $1 AND is_winning_bid`, playerID)
	b, err := scanBid(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundf("no winning bid for player %s", playerID)
		}
		return nil, apperrors.Storagef(err, "failed to get winning bid")
	}
	return b, nil
}

func collectBids(rows pgx.Rows) ([]models.Bid, error) {
	var bids []models.Bid
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, apperrors.Storagef(err, "failed to scan bid")
		}
		bids = append(bids, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Storagef(err, "failed to list bids")
	}
	return bids, nil
}

func scanBid(row pgx.Row) (*models.Bid, error) {
	var b models.Bid
	if err := row.Scan(
		&b.ID, &b.AuctionID, &b.PlayerID, &b.TeamID, &b.Amount, &b.PlacedAt, &b.IsWinningBid,
	); err != nil {
		return nil, err
	}
	return &b, nil
}
