package auction

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kpatel93/auctionday/go/internal/apperrors"
	"github.com/kpatel93/auctionday/go/internal/models"
	"github.com/kpatel93/auctionday/go/internal/sqlutil"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{
		pool: pool,
	}
}

type CreateAuctionRequest struct {
	Name                string    `json:"name"`
	LogoURL             string    `json:"logo_url"`
	AuctionDate         time.Time `json:"auction_date"`
	PointsPerTeam       float64   `json:"points_per_team"`
	TotalTeams          int       `json:"total_teams"`
	MinimumBid          float64   `json:"minimum_bid"`
	BidIncreaseBy       float64   `json:"bid_increase_by"`
	BasePrice           float64   `json:"base_price"`
	PlayersPerTeam      int       `json:"players_per_team"`
	RegistrationEnabled bool      `json:"registration_enabled"`
	CreatedBy           string    `json:"created_by"`
}

type UpdateAuctionRequest struct {
	Name                *string    `json:"name,omitempty"`
	LogoURL             *string    `json:"logo_url,omitempty"`
	AuctionDate         *time.Time `json:"auction_date,omitempty"`
	MinimumBid          *float64   `json:"minimum_bid,omitempty"`
	BidIncreaseBy       *float64   `json:"bid_increase_by,omitempty"`
	BasePrice           *float64   `json:"base_price,omitempty"`
	IsActive            *bool      `json:"is_active,omitempty"`
	RegistrationEnabled *bool      `json:"registration_enabled,omitempty"`
}

const auctionColumns = `id, name, logo_url, auction_date, points_per_team, total_teams,
	minimum_bid, bid_increase_by, base_price, players_per_team,
	is_active, registration_enabled, created_by, created_at, updated_at`

func (r *Repository) CreateAuction(ctx context.Context, req CreateAuctionRequest) (*models.Auction, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO auctions
			(id, name, logo_url, auction_date, points_per_team, total_teams,
			 minimum_bid, bid_increase_by, base_price, players_per_team,
			 is_active, registration_enabled, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, true, $11, $12, now(), now())
		RETURNING `+auctionColumns,
		uuid.New(), req.Name, req.LogoURL, req.AuctionDate, req.PointsPerTeam, req.TotalTeams,
		req.MinimumBid, req.BidIncreaseBy, req.BasePrice, req.PlayersPerTeam,
		req.RegistrationEnabled, req.CreatedBy,
	)
	a, err := scanAuction(row)
	if err != nil {
		if sqlutil.IsUniqueViolation(err) {
			return nil, apperrors.Conflictf("an auction named %q already exists", req.Name)
		}
		return nil, apperrors.Storagef(err, "failed to create auction")
	}
	return a, nil
}

func (r *Repository) GetAuction(ctx context.Context, id uuid.UUID) (*models.Auction, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+auctionColumns+` FROM auctions WHERE id = $1`, id)
	a, err := scanAuction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundf("auction %s not found", id)
		}
		return nil, apperrors.Storagef(err, "failed to get auction")
	}
	return a, nil
}

func (r *Repository) ListAuctionsByCreator(ctx context.Context, username string) ([]models.Auction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+auctionColumns+` FROM auctions
		WHERE created_by = $1
		ORDER BY auction_date DESC`, username)
	if err != nil {
		return nil, apperrors.Storagef(err, "failed to list auctions")
	}
	defer rows.Close()
	return collectAuctions(rows)
}

func (r *Repository) ListUpcomingAuctions(ctx context.Context, after time.Time) ([]models.Auction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+auctionColumns+` FROM auctions
		WHERE auction_date >= $1 AND is_active
		ORDER BY auction_date`, after)
	if err != nil {
		return nil, apperrors.Storagef(err, "failed to list upcoming auctions")
	}
	defer rows.Close()
	return collectAuctions(rows)
}

func (r *Repository) ListPastAuctions(ctx context.Context, before time.Time) ([]models.Auction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+auctionColumns+` FROM auctions
		WHERE auction_date < $1
		ORDER BY auction_date DESC`, before)
	if err != nil {
		return nil, apperrors.Storagef(err, "failed to list past auctions")
	}
	defer rows.Close()
	return collectAuctions(rows)
}

func (r *Repository) UpdateAuction(ctx context.Context, id uuid.UUID, req UpdateAuctionRequest) (*models.Auction, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE auctions
		SET name = COALESCE($2, name),
		    logo_url = COALESCE($3, logo_url),
		    auction_date = COALESCE($4, auction_date),
		    minimum_bid = COALESCE($5, minimum_bid),
		    bid_increase_by = COALESCE($6, bid_increase_by),
		    base_price = COALESCE($7, base_price),
		    is_active = COALESCE($8, is_active),
		    registration_enabled = COALESCE($9, registration_enabled),
		    updated_at = now()
		WHERE id = $1
		RETURNING `+auctionColumns,
		id, req.Name, req.LogoURL, req.AuctionDate, req.MinimumBid,
		req.BidIncreaseBy, req.BasePrice, req.IsActive, req.RegistrationEnabled,
	)
	a, err := scanAuction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundf("auction %s not found", id)
		}
		return nil, apperrors.Storagef(err, "failed to update auction")
	}
	return a, nil
}

func (r *Repository) DeleteAuction(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM auctions WHERE id = $1`, id)
	if err != nil {
		return apperrors.Storagef(err, "failed to delete auction")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFoundf("auction %s not found", id)
	}
	return nil
}

func collectAuctions(rows pgx.Rows) ([]models.Auction, error) {
	var auctions []models.Auction
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, apperrors.Storagef(err, "failed to scan auction")
		}
		auctions = append(auctions, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Storagef(err, "failed to list auctions")
	}
	return auctions, nil
}

func scanAuction(row pgx.Row) (*models.Auction, error) {
	var a models.Auction
	if err := row.Scan(
		&a.ID, &a.Name, &a.LogoURL, &a.AuctionDate, &a.PointsPerTeam, &a.TotalTeams,
		&a.MinimumBid, &a.BidIncreaseBy, &a.BasePrice, &a.PlayersPerTeam,
		&a.IsActive, &a.RegistrationEnabled, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}
