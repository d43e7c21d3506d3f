package allocation

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

// Repository is the postgres-backed Store. The Commit* methods run in a
// single transaction so a sale or release is never half applied.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{
		pool: pool,
	}
}

func (r *Repository) GetAuction(ctx context.Context, id uuid.UUID) (*models.Auction, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, logo_url, auction_date, points_per_team, total_teams,
		       minimum_bid, bid_increase_by, base_price, players_per_team,
		       is_active, registration_enabled, created_by, created_at, updated_at
		FROM auctions WHERE id = $1`, id)

	var a models.Auction
	if err := row.Scan(
		&a.ID, &a.Name, &a.LogoURL, &a.AuctionDate, &a.PointsPerTeam, &a.TotalTeams,
		&a.MinimumBid, &a.BidIncreaseBy, &a.BasePrice, &a.PlayersPerTeam,
		&a.IsActive, &a.RegistrationEnabled, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundf("auction %s not found", id)
		}
		return nil, apperrors.Storagef(err, "failed to get auction")
	}
	return &a, nil
}

func (r *Repository) GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, auction_id, name, age, role, mobile_number, photo_url,
		       base_price, current_price, status, team_id, is_icon, created_at, updated_at
		FROM players WHERE id = $1`, id)

	p, err := scanPlayer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundf("player %s not found", id)
		}
		return nil, apperrors.Storagef(err, "failed to get player")
	}
	return p, nil
}

func (r *Repository) GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, auction_id, name, logo_url, budget_amount, remaining_budget,
		       points_used, players_count, is_active, created_at
		FROM teams WHERE id = $1`, id)

	var t models.Team
	if err := row.Scan(
		&t.ID, &t.AuctionID, &t.Name, &t.LogoURL, &t.BudgetAmount, &t.RemainingBudget,
		&t.PointsUsed, &t.PlayersCount, &t.IsActive, &t.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundf("team %s not found", id)
		}
		return nil, apperrors.Storagef(err, "failed to get team")
	}
	return &t, nil
}

func (r *Repository) ListPlayersByStatus(ctx context.Context, auctionID uuid.UUID, status models.PlayerStatus) ([]models.Player, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, auction_id, name, age, role, mobile_number, photo_url,
		       base_price, current_price, status, team_id, is_icon, created_at, updated_at
		FROM players
		WHERE auction_id = $1 AND status = $2
		ORDER BY name`, auctionID, status)
	if err != nil {
		return nil, apperrors.Storagef(err, "failed to list players by status")
	}
	defer rows.Close()

	var players []models.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, apperrors.Storagef(err, "failed to scan player")
		}
		players = append(players, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Storagef(err, "failed to list players by status")
	}
	return players, nil
}

func (r *Repository) ListBidRules(ctx context.Context, auctionID uuid.UUID) ([]models.BidRule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, auction_id, threshold_amount, increment_amount
		FROM bid_rules
		WHERE auction_id = $1
		ORDER BY threshold_amount`, auctionID)
	if err != nil {
		return nil, apperrors.Storagef(err, "failed to list bid rules")
	}
	defer rows.Close()

	var rules []models.BidRule
	for rows.Next() {
		var rule models.BidRule
		if err := rows.Scan(&rule.ID, &rule.AuctionID, &rule.ThresholdAmount, &rule.IncrementAmount); err != nil {
			return nil, apperrors.Storagef(err, "failed to scan bid rule")
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Storagef(err, "failed to list bid rules")
	}
	return rules, nil
}

func (r *Repository) CommitSale(ctx context.Context, c SaleCommit) error {
	err := sqlutil.Run(ctx, r.pool, func(tx pgx.Tx) error {
		if c.Bid != nil {
			if _, err := tx.Exec(ctx, `
				UPDATE bids SET is_winning_bid = false
				WHERE player_id = $1 AND is_winning_bid`, c.Bid.PlayerID); err != nil {
				return fmt.Errorf("supersede winning bid: %w", err)
			}
			if _, err := tx.Exec(ctx, `
				INSERT INTO bids (id, auction_id, player_id, team_id, amount, placed_at, is_winning_bid)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				c.Bid.ID, c.Bid.AuctionID, c.Bid.PlayerID, c.Bid.TeamID,
				c.Bid.Amount, c.Bid.PlacedAt, c.Bid.IsWinningBid); err != nil {
				return fmt.Errorf("insert bid: %w", err)
			}
		}
		if err := writePlayerState(ctx, tx, c.Player); err != nil {
			return err
		}
		return writeTeamLedger(ctx, tx, c.Team)
	})
	if err != nil {
		return apperrors.Storagef(err, "failed to commit sale of player %s", c.Player.ID)
	}
	return nil
}

func (r *Repository) CommitRelease(ctx context.Context, c ReleaseCommit) error {
	err := sqlutil.Run(ctx, r.pool, func(tx pgx.Tx) error {
		if err := writePlayerState(ctx, tx, c.Player); err != nil {
			return err
		}
		return writeTeamLedger(ctx, tx, c.Team)
	})
	if err != nil {
		return apperrors.Storagef(err, "failed to commit release of player %s", c.Player.ID)
	}
	return nil
}

func (r *Repository) UpdatePlayerState(ctx context.Context, p *models.Player) error {
	err := sqlutil.Run(ctx, r.pool, func(tx pgx.Tx) error {
		return writePlayerState(ctx, tx, p)
	})
	if err != nil {
		return apperrors.Storagef(err, "failed to update player %s", p.ID)
	}
	return nil
}

func (r *Repository) UpdateTeamLedger(ctx context.Context, t *models.Team) error {
	err := sqlutil.Run(ctx, r.pool, func(tx pgx.Tx) error {
		return writeTeamLedger(ctx, tx, t)
	})
	if err != nil {
		return apperrors.Storagef(err, "failed to update team %s", t.ID)
	}
	return nil
}

func writePlayerState(ctx context.Context, tx pgx.Tx, p *models.Player) error {
	tag, err := tx.Exec(ctx, `
		UPDATE players
		SET status = $2, team_id = $3, current_price = $4, is_icon = $5, updated_at = now()
		WHERE id = $1`,
		p.ID, p.Status, p.TeamID, p.CurrentPrice, p.IsIcon)
	if err != nil {
		return fmt.Errorf("update player row: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("player %s vanished during commit", p.ID)
	}
	return nil
}

func writeTeamLedger(ctx context.Context, tx pgx.Tx, t *models.Team) error {
	tag, err := tx.Exec(ctx, `
		UPDATE teams
		SET budget_amount = $2, remaining_budget = $3, points_used = $4, players_count = $5
		WHERE id = $1`,
		t.ID, t.BudgetAmount, t.RemainingBudget, t.PointsUsed, t.PlayersCount)
	if err != nil {
		return fmt.Errorf("update team row: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("team %s vanished during commit", t.ID)
	}
	return nil
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
