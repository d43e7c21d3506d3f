package team

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/kpatel93/auctionday/go/internal/apperrors"
	"github.com/kpatel93/auctionday/go/internal/models"
)

// TeamRepository defines what the app layer needs from the repository
type TeamRepository interface {
	CreateTeam(ctx context.Context, req CreateTeamRequest) (*models.Team, error)
	GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error)
	ListTeamsByAuction(ctx context.Context, auctionID uuid.UUID) ([]models.Team, error)
	CountTeamsByAuction(ctx context.Context, auctionID uuid.UUID) (int, error)
	UpdateTeam(ctx context.Context, id uuid.UUID, req UpdateTeamRequest) (*models.Team, error)
	DeleteTeam(ctx context.Context, id uuid.UUID) error
}

// AuctionRepository defines what the app layer needs from the auction repository for scoping
type AuctionRepository interface {
	GetAuction(ctx context.Context, id uuid.UUID) (*models.Auction, error)
}

// TeamLimitEnforcer caps team creation on the free plan.
type TeamLimitEnforcer interface {
	EnforceFreeTeamLimit(ctx context.Context, username string, auctionID uuid.UUID, currentTeams int) error
}

// BudgetSetter applies budget ceiling changes through the allocation
// ledger so RemainingBudget stays consistent with PointsUsed.
type BudgetSetter interface {
	SetTeamBudget(ctx context.Context, auctionID, teamID uuid.UUID, newBudget float64) (*models.Team, error)
}

// App handles team business logic
type App struct {
	repo        TeamRepository
	auctionRepo AuctionRepository
	limits      TeamLimitEnforcer
	budgets     BudgetSetter
}

// NewApp creates a new team App
func NewApp(repo TeamRepository, auctionRepo AuctionRepository, limits TeamLimitEnforcer, budgets BudgetSetter) *App {
	return &App{
		repo:        repo,
		auctionRepo: auctionRepo,
		limits:      limits,
		budgets:     budgets,
	}
}

// CreateTeam adds a team to the caller's auction with the auction's
// per-team budget.
func (a *App) CreateTeam(ctx context.Context, username string, req CreateTeamRequest) (*models.Team, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperrors.InvalidArgumentf("name is required")
	}

	auction, err := a.ownedAuction(ctx, username, req.AuctionID)
	if err != nil {
		return nil, err
	}

	count, err := a.repo.CountTeamsByAuction(ctx, req.AuctionID)
	if err != nil {
		return nil, fmt.Errorf("failed to count teams: %w", err)
	}
	if count >= auction.TotalTeams {
		return nil, apperrors.Conflictf("auction %s already has the maximum of %d teams", auction.Name, auction.TotalTeams)
	}
	if err := a.limits.EnforceFreeTeamLimit(ctx, username, req.AuctionID, count); err != nil {
		return nil, err
	}

	req.BudgetAmount = auction.PointsPerTeam
	team, err := a.repo.CreateTeam(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	log.Info().
		Str("team_id", team.ID.String()).
		Str("auction_id", req.AuctionID.String()).
		Str("name", team.Name).
		Msg("created team")
	return team, nil
}

// GetTeam retrieves a team scoped to an auction.
func (a *App) GetTeam(ctx context.Context, auctionID, id uuid.UUID) (*models.Team, error) {
	team, err := a.repo.GetTeam(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	if team.AuctionID != auctionID {
		return nil, apperrors.NotFoundf("team %s not found in auction %s", id, auctionID)
	}
	return team, nil
}

// ListTeams returns all teams of an auction ordered by name.
func (a *App) ListTeams(ctx context.Context, auctionID uuid.UUID) ([]models.Team, error) {
	if _, err := a.auctionRepo.GetAuction(ctx, auctionID); err != nil {
		return nil, fmt.Errorf("auction not found: %w", err)
	}
	teams, err := a.repo.ListTeamsByAuction(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	return teams, nil
}

// UpdateTeam renames or re-brands a team in the caller's auction.
func (a *App) UpdateTeam(ctx context.Context, username string, auctionID, id uuid.UUID, req UpdateTeamRequest) (*models.Team, error) {
	if _, err := a.ownedAuction(ctx, username, auctionID); err != nil {
		return nil, err
	}
	if _, err := a.GetTeam(ctx, auctionID, id); err != nil {
		return nil, err
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, apperrors.InvalidArgumentf("name cannot be empty")
	}

	team, err := a.repo.UpdateTeam(ctx, id, req)
	if err != nil {
		return nil, fmt.Errorf("failed to update team: %w", err)
	}
	return team, nil
}

// UpdateBudget changes a team's budget ceiling. The spendable remainder
// is recomputed from what the team has already used.
func (a *App) UpdateBudget(ctx context.Context, username string, auctionID, id uuid.UUID, newBudget float64) (*models.Team, error) {
	if _, err := a.ownedAuction(ctx, username, auctionID); err != nil {
		return nil, err
	}
	team, err := a.budgets.SetTeamBudget(ctx, auctionID, id, newBudget)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("team_id", id.String()).
		Float64("budget", newBudget).
		Float64("remaining", team.RemainingBudget).
		Msg("updated team budget")
	return team, nil
}

// DeleteTeam removes a team from the caller's auction and detaches its
// players.
func (a *App) DeleteTeam(ctx context.Context, username string, auctionID, id uuid.UUID) error {
	if _, err := a.ownedAuction(ctx, username, auctionID); err != nil {
		return err
	}
	if _, err := a.GetTeam(ctx, auctionID, id); err != nil {
		return err
	}

	if err := a.repo.DeleteTeam(ctx, id); err != nil {
		return fmt.Errorf("failed to delete team: %w", err)
	}

	log.Info().Str("team_id", id.String()).Msg("deleted team")
	return nil
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
