package bidrule

import (
	"context"
	"errors"
	"fmt"

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

type CreateBidRuleRequest struct {
	AuctionID       uuid.UUID `json:"auction_id"`
	ThresholdAmount float64   `json:"threshold_amount"`
	IncrementAmount float64   `json:"increment_amount"`
}

type UpdateBidRuleRequest struct {
	ThresholdAmount *float64 `json:"threshold_amount"`
	IncrementAmount *float64 `json:"increment_amount"`
}

const bidRuleColumns = `id, auction_id, threshold_amount, increment_amount`

func (r *Repository) CreateBidRule(ctx context.Context, req CreateBidRuleRequest) (*models.BidRule, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO bid_rules (id, auction_id, threshold_amount, increment_amount)
		VALUES ($1, $2, $3, $4)
		RETURNING `+bidRuleColumns,
		uuid.New(), req.AuctionID, req.ThresholdAmount, req.IncrementAmount,
	)
	rule, err := scanBidRule(row)
	if err != nil {
		if sqlutil.IsUniqueViolation(err) {
			return nil, apperrors.Conflictf("a bid rule with threshold %.2f already exists for this auction", req.ThresholdAmount)
		}
		if sqlutil.IsForeignKeyViolation(err) {
			return nil, apperrors.NotFoundf("auction %s not found", req.AuctionID)
		}
		return nil, apperrors.Storagef(err, "failed to create bid rule")
	}
	return rule, nil
}

func (r *Repository) GetBidRule(ctx context.Context, id uuid.UUID) (*models.BidRule, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+bidRuleColumns+` FROM bid_rules WHERE id = $1`, id)
	rule, err := scanBidRule(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundf("bid rule %s not found", id)
		}
		return nil, apperrors.Storagef(err, "failed to get bid rule")
	}
	return rule, nil
}

func (r *Repository) ListBidRulesByAuction(ctx context.Context, auctionID uuid.UUID) ([]models.BidRule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+bidRuleColumns+` FROM bid_rules
		WHERE auction_id = $1
		ORDER BY threshold_amount`, auctionID)
	if err != nil {
		return nil, apperrors.Storagef(err, "failed to list bid rules")
	}
	defer rows.Close()

	var rules []models.BidRule
	for rows.Next() {
		rule, err := scanBidRule(rows)
		if err != nil {
			return nil, apperrors.Storagef(err, "failed to scan bid rule")
		}
		rules = append(rules, *rule)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Storagef(err, "failed to list bid rules")
	}
	return rules, nil
}

func (r *Repository) UpdateBidRule(ctx context.Context, id uuid.UUID, req UpdateBidRuleRequest) (*models.BidRule, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE bid_rules
		SET threshold_amount = COALESCE($2, threshold_amount),
		    increment_amount = COALESCE($3, increment_amount)
		WHERE id = $1
		RETURNING `+bidRuleColumns,
		id, req.ThresholdAmount, req.IncrementAmount,
	)
	rule, err := scanBidRule(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundf("bid rule %s not found", id)
		}
		if sqlutil.IsUniqueViolation(err) {
			return nil, apperrors.Conflictf("a bid rule with that threshold already exists for this auction")
		}
		return nil, apperrors.Storagef(err, "failed to update bid rule")
	}
	return rule, nil
}

func (r *Repository) DeleteBidRule(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM bid_rules WHERE id = $1`, id)
	if err != nil {
		return apperrors.Storagef(err, "failed to delete bid rule")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFoundf("bid rule %s not found", id)
	}
	return nil
}

func scanBidRule(row pgx.Row) (*models.BidRule, error) {
	var rule models.BidRule
	if err := row.Scan(&rule.ID, &rule.AuctionID, &rule.ThresholdAmount, &rule.IncrementAmount); err != nil {
		return nil, fmt.Errorf("scan bid rule: %w", err)
	}
	return &rule, nil
}
