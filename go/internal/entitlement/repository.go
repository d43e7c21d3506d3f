package entitlement

import (
	"context"
	"errors"
	"fmt"
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

type CreateEntitlementRequest struct {
	UserID    uuid.UUID         `json:"user_id"`
	Username  string            `json:"username"`
	Type      models.AccessType `json:"access_type"`
	AuctionID *uuid.UUID        `json:"auction_id,omitempty"`
	StartsAt  time.Time         `json:"starts_at"`
	ExpiresAt *time.Time        `json:"expires_at,omitempty"`
	Notes     string            `json:"notes,omitempty"`
	GrantedBy string            `json:"granted_by"`
}

type UpdateEntitlementRequest struct {
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Notes     *string    `json:"notes,omitempty"`
}

const entitlementColumns = `id, user_id, username, access_type, auction_id, starts_at, expires_at, notes, granted_by, created_at, updated_at`

func (r *Repository) CreateEntitlement(ctx context.Context, req CreateEntitlementRequest) (*models.AccessEntitlement, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO access_entitlements
			(id, user_id, username, access_type, auction_id, starts_at, expires_at, notes, granted_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		RETURNING `+entitlementColumns,
		uuid.New(), req.UserID, req.Username, req.Type, req.AuctionID,
		req.StartsAt, req.ExpiresAt, req.Notes, req.GrantedBy,
	)
	ent, err := scanEntitlement(row)
	if err != nil {
		if sqlutil.IsForeignKeyViolation(err) {
			return nil, apperrors.NotFoundf("user %s not found", req.Username)
		}
		return nil, apperrors.Storagef(err, "failed to create entitlement")
	}
	return ent, nil
}

func (r *Repository) GetEntitlement(ctx context.Context, id uuid.UUID) (*models.AccessEntitlement, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+entitlementColumns+` FROM access_entitlements WHERE id = $1`, id)
	ent, err := scanEntitlement(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundf("entitlement %s not found", id)
		}
		return nil, apperrors.Storagef(err, "failed to get entitlement")
	}
	return ent, nil
}

func (r *Repository) ListEntitlementsByUsername(ctx context.Context, username string) ([]models.AccessEntitlement, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+entitlementColumns+` FROM access_entitlements
		WHERE username = $1
		ORDER BY created_at DESC`, username)
	if err != nil {
		return nil, apperrors.Storagef(err, "failed to list entitlements")
	}
	defer rows.Close()
	return collectEntitlements(rows)
}

func (r *Repository) ListEntitlements(ctx context.Context) ([]models.AccessEntitlement, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+entitlementColumns+` FROM access_entitlements
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, apperrors.Storagef(err, "failed to list entitlements")
	}
	defer rows.Close()
	return collectEntitlements(rows)
}

func (r *Repository) UpdateEntitlement(ctx context.Context, id uuid.UUID, req UpdateEntitlementRequest) (*models.AccessEntitlement, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE access_entitlements
		SET expires_at = COALESCE($2, expires_at),
		    notes = COALESCE($3, notes),
		    updated_at = now()
		WHERE id = $1
		RETURNING `+entitlementColumns,
		id, req.ExpiresAt, req.Notes,
	)
	ent, err := scanEntitlement(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundf("entitlement %s not found", id)
		}
		return nil, apperrors.Storagef(err, "failed to update entitlement")
	}
	return ent, nil
}

func (r *Repository) DeleteEntitlement(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM access_entitlements WHERE id = $1`, id)
	if err != nil {
		return apperrors.Storagef(err, "failed to delete entitlement")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFoundf("entitlement %s not found", id)
	}
	return nil
}

func collectEntitlements(rows pgx.Rows) ([]models.AccessEntitlement, error) {
	var ents []models.AccessEntitlement
	for rows.Next() {
		ent, err := scanEntitlement(rows)
		if err != nil {
			return nil, apperrors.Storagef(err, "failed to scan entitlement")
		}
		ents = append(ents, *ent)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Storagef(err, "failed to list entitlements")
	}
	return ents, nil
}

func scanEntitlement(row pgx.Row) (*models.AccessEntitlement, error) {
	var ent models.AccessEntitlement
	if err := row.Scan(
		&ent.ID, &ent.UserID, &ent.Username, &ent.Type, &ent.AuctionID,
		&ent.StartsAt, &ent.ExpiresAt, &ent.Notes, &ent.GrantedBy,
		&ent.CreatedAt, &ent.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("scan entitlement: %w", err)
	}
	return &ent, nil
}
