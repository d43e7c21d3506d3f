package team

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

type CreateTeamRequest struct {
	AuctionID    uuid.UUID `json:"auction_id"`
	Name         string    `json:"name"`
	LogoURL      string    `json:"logo_url"`
	BudgetAmount float64   `json:"budget_amount"`
}

type UpdateTeamRequest struct {
	Name     *string `json:"name,omitempty"`
	LogoURL  *string `json:"logo_url,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

const teamColumns = `id, auction_id, name, logo_url, budget_amount, remaining_budget,
	points_used, players_count, is_active, created_at`

func (r *Repository) CreateTeam(ctx context.Context, req CreateTeamRequest) (*models.Team, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO teams
			(id, auction_id, name, logo_url, budget_amount, remaining_budget,
			 points_used, players_count, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $5, 0, 0, true, now())
		RETURNING `+teamColumns,
		uuid.New(), req.AuctionID, req.Name, req.LogoURL, req.BudgetAmount,
	)
	t, err := scanTeam(row)
	if err != nil {
		if sqlutil.IsUniqueViolation(err) {
			return nil, apperrors.Conflictf("a team named %q already exists in this auction", req.Name)
		}
		if sqlutil.IsForeignKeyViolation(err) {
			return nil, apperrors.NotFoundf("auction %s not found", req.AuctionID)
		}
		return nil, apperrors.Storagef(err, "failed to create team")
	}
	return t, nil
}

func (r *Repository) GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+teamColumns+` FROM teams WHERE id = $1`, id)
	t, err := scanTeam(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundf("team %s not found", id)
		}
		return nil, apperrors.Storagef(err, "failed to get team")
	}
	return t, nil
}

func (r *Repository) ListTeamsByAuction(ctx context.Context, auctionID uuid.UUID) ([]models.Team, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+teamColumns+` FROM teams
		WHERE auction_id = $1
		ORDER BY name`, auctionID)
	if err != nil {
		return nil, apperrors.Storagef(err, "failed to list teams")
	}
	defer rows.Close()

	var teams []models.Team
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, apperrors.Storagef(err, "failed to scan team")
		}
		teams = append(teams, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Storagef(err, "failed to list teams")
	}
	return teams, nil
}

func (r *Repository) CountTeamsByAuction(ctx context.Context, auctionID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM teams WHERE auction_id = $1`, auctionID).Scan(&count)
	if err != nil {
		return 0, apperrors.Storagef(err, "failed to count teams")
	}
	return count, nil
}

func (r *Repository) UpdateTeam(ctx context.Context, id uuid.UUID, req UpdateTeamRequest) (*models.Team, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE teams
		SET name = COALESCE($2, name),
		    logo_url = COALESCE($3, logo_url),
		    is_active = COALESCE($4, is_active)
		WHERE id = $1
		RETURNING `+teamColumns,
		id, req.Name, req.LogoURL, req.IsActive,
	)
	t, err := scanTeam(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundf("team %s not found", id)
		}
		if sqlutil.IsUniqueViolation(err) {
			return nil, apperrors.Conflictf("a team with that name already exists in this auction")
		}
		return nil, apperrors.Storagef(err, "failed to update team")
	}
	return t, nil
}

// DeleteTeam removes the team and detaches its players in one
// transaction. Detached players keep their status; a sold player left
// without a team is picked up by the orphan repair sweep.
func (r *Repository) DeleteTeam(ctx context.Context, id uuid.UUID) error {
	err := sqlutil.Run(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			UPDATE players SET team_id = NULL, updated_at = now()
			WHERE team_id = $1`, id); err != nil {
			return fmt.Errorf("detach players: %w", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM teams WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete team: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return apperrors.NotFoundf("team %s not found", id)
		}
		return nil
	})
	if err != nil {
		if apperrors.IsNotFound(err) {
			return err
		}
		return apperrors.Storagef(err, "failed to delete team")
	}
	return nil
}

func scanTeam(row pgx.Row) (*models.Team, error) {
	var t models.Team
	if err := row.Scan(
		&t.ID, &t.AuctionID, &t.Name, &t.LogoURL, &t.BudgetAmount, &t.RemainingBudget,
		&t.PointsUsed, &t.PlayersCount, &t.IsActive, &t.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &t, nil
}
