package users

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

type CreateUserRequest struct {
	Username string        `json:"username"`
	Roles    []models.Role `json:"roles"`
}

func (r *Repository) CreateUser(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (id, username, roles, created_at)
		VALUES ($1, $2, $3, now())
		RETURNING id, username, roles, created_at`,
		uuid.New(), req.Username, rolesToStrings(req.Roles),
	)
	user, err := scanUser(row)
	if err != nil {
		if sqlutil.IsUniqueViolation(err) {
			return nil, apperrors.Conflictf("username %s is already taken", req.Username)
		}
		return nil, apperrors.Storagef(err, "failed to create user")
	}
	return user, nil
}

func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, username, roles, created_at FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundf("user %s not found", id)
		}
		return nil, apperrors.Storagef(err, "failed to get user")
	}
	return user, nil
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, username, roles, created_at FROM users WHERE username = $1`, username)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundf("user %s not found", username)
		}
		return nil, apperrors.Storagef(err, "failed to get user")
	}
	return user, nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	var roles []string
	if err := row.Scan(&user.ID, &user.Username, &roles, &user.CreatedAt); err != nil {
		return nil, err
	}
	user.Roles = make([]models.Role, len(roles))
	for i, role := range roles {
		user.Roles[i] = models.Role(role)
	}
	return &user, nil
}

func rolesToStrings(roles []models.Role) []string {
	out := make([]string, len(roles))
	for i, role := range roles {
		out[i] = string(role)
	}
	return out
}
