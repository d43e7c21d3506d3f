package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/kpatel93/auctionday/go/internal/apperrors"
	"github.com/kpatel93/auctionday/go/internal/models"
)

// UserRepository defines what the app layer needs from the repository
type UserRepository interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*models.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// App handles user identity lookups. Authentication happens upstream;
// this layer only resolves verified usernames to stored identities.
type App struct {
	repo UserRepository
}

// NewApp creates a new users App
func NewApp(repo UserRepository) *App {
	return &App{
		repo: repo,
	}
}

// RegisterUser stores a new identity with the USER role.
func (a *App) RegisterUser(ctx context.Context, username string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperrors.InvalidArgumentf("username is required")
	}

	user, err := a.repo.CreateUser(ctx, CreateUserRequest{
		Username: username,
		Roles:    []models.Role{models.RoleUser},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	log.Info().Str("username", username).Msg("registered user")
	return user, nil
}

// GetUser retrieves a user by ID
func (a *App) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetUserByUsername retrieves a user by username
func (a *App) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := a.repo.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}
