package player

import (
	"context"
	"errors"

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

type CreatePlayerRequest struct {
	AuctionID    uuid.UUID `json:"auction_id"`
	Name         string    `json:"name"`
	Age          int       `json:"age"`
	Role         string    `json:"role"`
	MobileNumber string    `json:"mobile_number"`
	PhotoURL     string    `json:"photo_url"`
	BasePrice    float64   `json:"base_price"`
}

type UpdatePlayerRequest struct {
	Name         *string  `json:"name,omitempty"`
	Age          *int     `json:"age,omitempty"`
	Role         *string  `json:"role,omitempty"`
	MobileNumber *string  `json:"mobile_number,omitempty"`
	PhotoURL     *string  `json:"photo_url,omitempty"`
	BasePrice    *float64 `json:"base_price,omitempty"`
}

const playerColumns = `id, auction_id, name, age, role, mobile_number, photo_url,
	base_price, current_price, status, team_id, is_icon, created_at, updated_at`

func (r *Repository) CreatePlayer(ctx context.Context, req CreatePlayerRequest) (*models.Player, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO players
			(id, auction_id, name, age, role, mobile_number, photo_url,
			 base_price, current_price, status, team_id, is_icon, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8, $9, NULL, false, now(), now())
		RETURNING `+playerColumns,
		uuid.New(), req.AuctionID, req.Name, req.Age, req.Role, req.MobileNumber,
		req.PhotoURL, req.BasePrice, models.PlayerStatusAvailable,
	)
	p, err := scanPlayer(row)
	if err != nil {
		if sqlutil.IsForeignKeyViolation(err) {
			return nil, apperrors.NotFoundf("auction %s not found", req.AuctionID)
		}
		return nil, apperrors.Storagef(err, "failed to create player")
	}
	return p, nil
}

func (r *Repository) GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+playerColumns+` FROM players WHERE id = $1`, id)
	p, err := scanPlayer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundf("player %s not found", id)
		}
		return nil, apperrors.Storagef(err, "failed to get player")
	}
	return p, nil
}

func (r *Repository) ListPlayersByAuction(ctx context.Context, auctionID uuid.UUID, status *models.PlayerStatus) ([]models.Player, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+playerColumns+` FROM players
		WHERE auction_id = $1 AND ($2::text IS NULL OR status = $2)
		ORDER BY name`, auctionID, status)
	if err != nil {
		return nil, apperrors.Storagef(err, "failed to list players")
	}
	defer rows.Close()
	return collectPlayers(rows)
}

func (r *Repository) ListPlayersByTeam(ctx context.Context, teamID uuid.UUID) ([]models.Player, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+playerColumns+` FROM players
		WHERE team_id = $1
		ORDER BY current_price DESC, name`, teamID)
	if err != nil {
		return nil, apperrors.Storagef(err, "failed to list team players")
	}
	defer rows.Close()
	return collectPlayers(rows)
}

func (r *Repository) UpdatePlayer(ctx context.Context, id uuid.UUID, req UpdatePlayerRequest) (*models.Player, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE players
		SET name = COALESCE($2, name),
		    age = COALESCE($3, age),
		    role = COALESCE($4, role),
		    mobile_number = COALESCE($5, mobile_number),
		    photo_url = COALESCE($6, photo_url),
		    base_price = COALESCE($7, base_price),
		    current_price = CASE WHEN $7::numeric IS NOT NULL AND status = 'AVAILABLE'
		                         THEN $7 ELSE current_price END,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+playerColumns,
		id, req.Name, req.Age, req.Role, req.MobileNumber, req.PhotoURL, req.BasePrice,
	)
	p, err := scanPlayer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundf("player %s not found", id)
		}
		return nil, apperrors.Storagef(err, "failed to update player")
	}
	return p, nil
}

func (r *Repository) DeletePlayer(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM players WHERE id = $1`, id)
	if err != nil {
		return apperrors.Storagef(err, "failed to delete player")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFoundf("player %s not found", id)
	}
	return nil
}

func collectPlayers(rows pgx.Rows) ([]models.Player, error) {
	var players []models.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, apperrors.Storagef(err, "failed to scan player")
		}
		players = append(players, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Storagef(err, "failed to list players")
	}
	return players, nil
}

func scanPlayer(row pgx.Row) (*models.Player, error) {
	var p models.Player
	if err := row.Scan(
		&p.ID, &p.AuctionID, &p.Name, &p.Age, &p.Role, &p.MobileNumber, &p.PhotoURL,
		&p.BasePrice, &p.CurrentPrice, &p.Status, &p.TeamID, &p.IsIcon, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}
