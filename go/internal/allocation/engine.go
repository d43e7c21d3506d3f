package allocation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/kpatel93/auctionday/go/internal/apperrors"
	"github.com/kpatel93/auctionday/go/internal/bidrule"
	"github.com/kpatel93/auctionday/go/internal/broadcast"
	"github.com/kpatel93/auctionday/go/internal/keylock"
	"github.com/kpatel93/auctionday/go/internal/models"
)

// Engine validates and commits every operation that moves a player
// between teams or touches a team's budget. All mutations of one player
// serialize on that player's lock; ledger updates serialize on the
// team's lock. Locks are always taken player first, then team.
type Engine struct {
	store       Store
	publisher   broadcast.Publisher
	clock       clockwork.Clock
	playerLocks *keylock.Registry
	teamLocks   *keylock.Registry
}

// NewEngine creates an allocation engine.
func NewEngine(store Store, publisher broadcast.Publisher, clock clockwork.Clock) *Engine {
	return &Engine{
		store:       store,
		publisher:   publisher,
		clock:       clock,
		playerLocks: keylock.New(),
		teamLocks:   keylock.New(),
	}
}

// PlaceBid validates a competitive bid and, if it beats the current
// price by at least the rule-band increment and fits the team's budget,
// commits it: the previous winning bid is superseded, the player is
// SOLD to the team at the bid amount and the team is debited. The
// commit is a single atomic unit; on any validation failure no state
// changes.
func (e *Engine) PlaceBid(ctx context.Context, auctionID, playerID, teamID uuid.UUID, amount float64) (*models.Bid, error) {
	unlockPlayer := e.playerLocks.Lock(playerID)
	defer unlockPlayer()
	unlockTeam := e.teamLocks.Lock(teamID)
	defer unlockTeam()

	player, err := e.loadPlayer(ctx, auctionID, playerID)
	if err != nil {
		return nil, err
	}
	team, err := e.loadTeam(ctx, auctionID, teamID)
	if err != nil {
		return nil, err
	}
	if player.Status == models.PlayerStatusSold {
		return nil, apperrors.Conflictf("player %s is already sold", player.Name)
	}

	auction, err := e.store.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("load auction %s: %w", auctionID, err)
	}
	rules, err := e.store.ListBidRules(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("load bid rules for auction %s: %w", auctionID, err)
	}

	if amount <= player.CurrentPrice {
		return nil, apperrors.Conflictf("bid %.2f must be higher than current price %.2f", amount, player.CurrentPrice)
	}
	minRaise := bidrule.MinIncrement(rules, player.CurrentPrice, auction.BidIncreaseBy)
	if amount < player.CurrentPrice+minRaise {
		return nil, apperrors.Conflictf("bid %.2f is below minimum %.2f (current price %.2f plus increment %.2f)",
			amount, player.CurrentPrice+minRaise, player.CurrentPrice, minRaise)
	}
	if amount > team.RemainingBudget {
		return nil, apperrors.Conflictf("bid %.2f exceeds remaining budget %.2f of team %s", amount, team.RemainingBudget, team.Name)
	}

	if err := sell(player, teamID, amount, false); err != nil {
		return nil, err
	}
	if err := debit(team, amount); err != nil {
		return nil, err
	}

	bid := &models.Bid{
		ID:           uuid.New(),
		AuctionID:    auctionID,
		PlayerID:     playerID,
		TeamID:       teamID,
		Amount:       amount,
		PlacedAt:     e.clock.Now().UTC(),
		IsWinningBid: true,
	}

	if err := e.store.CommitSale(ctx, SaleCommit{Player: player, Team: team, Bid: bid}); err != nil {
		return nil, fmt.Errorf("commit bid on player %s: %w", playerID, err)
	}

	e.publishBidPlaced(ctx, auctionID, bid, player, team)
	e.publishPlayerUpdated(ctx, auctionID, player)
	return bid, nil
}

// DirectAssign sells a player to a team outside competitive bidding.
// price nil means the auction's base price. The increment rules do not
// apply, the budget check does.
func (e *Engine) DirectAssign(ctx context.Context, auctionID, playerID, teamID uuid.UUID, price *float64) (*models.Player, error) {
	unlockPlayer := e.playerLocks.Lock(playerID)
	defer unlockPlayer()
	unlockTeam := e.teamLocks.Lock(teamID)
	defer unlockTeam()

	player, err := e.loadPlayer(ctx, auctionID, playerID)
	if err != nil {
		return nil, err
	}
	team, err := e.loadTeam(ctx, auctionID, teamID)
	if err != nil {
		return nil, err
	}
	if player.TeamID != nil {
		return nil, apperrors.Conflictf("player %s is already assigned to a team", player.Name)
	}

	soldAmount := player.BasePrice
	if price != nil {
		soldAmount = *price
	}
	if soldAmount < 0 {
		return nil, apperrors.InvalidArgumentf("final sold price cannot be negative")
	}

	if err := sell(player, teamID, soldAmount, false); err != nil {
		return nil, err
	}
	if err := debit(team, soldAmount); err != nil {
		return nil, err
	}

	if err := e.store.CommitSale(ctx, SaleCommit{Player: player, Team: team}); err != nil {
		return nil, fmt.Errorf("commit direct assignment of player %s: %w", playerID, err)
	}

	e.publishPlayerUpdated(ctx, auctionID, player)
	return player, nil
}

// AssignIcon allocates a player to a team without bidding at price
// zero.
func (e *Engine) AssignIcon(ctx context.Context, auctionID, playerID, teamID uuid.UUID) (*models.Player, error) {
	unlockPlayer := e.playerLocks.Lock(playerID)
	defer unlockPlayer()
	unlockTeam := e.teamLocks.Lock(teamID)
	defer unlockTeam()

	player, err := e.loadPlayer(ctx, auctionID, playerID)
	if err != nil {
		return nil, err
	}
	team, err := e.loadTeam(ctx, auctionID, teamID)
	if err != nil {
		return nil, err
	}
	if player.TeamID != nil {
		return nil, apperrors.Conflictf("player %s is already assigned to a team", player.Name)
	}

	if err := sell(player, teamID, 0, true); err != nil {
		return nil, err
	}
	// Zero debit keeps PlayersCount in lock-step with the assignment.
	if err := debit(team, 0); err != nil {
		return nil, err
	}

	if err := e.store.CommitSale(ctx, SaleCommit{Player: player, Team: team}); err != nil {
		return nil, fmt.Errorf("commit icon assignment of player %s: %w", playerID, err)
	}

	e.publishPlayerUpdated(ctx, auctionID, player)
	return player, nil
}

// RemoveFromTeam releases a SOLD player from the team that owns it and
// refunds the sale amount, clamped at the team's budget ceiling.
func (e *Engine) RemoveFromTeam(ctx context.Context, auctionID, playerID, teamID uuid.UUID) (*models.Player, error) {
	unlockPlayer := e.playerLocks.Lock(playerID)
	defer unlockPlayer()
	unlockTeam := e.teamLocks.Lock(teamID)
	defer unlockTeam()

	player, err := e.loadPlayer(ctx, auctionID, playerID)
	if err != nil {
		return nil, err
	}
	team, err := e.loadTeam(ctx, auctionID, teamID)
	if err != nil {
		return nil, err
	}
	if player.TeamID == nil || *player.TeamID != teamID {
		return nil, apperrors.NotFoundf("player %s not found in team %s", playerID, teamID)
	}

	refund := player.CurrentPrice
	if err := release(player); err != nil {
		return nil, err
	}
	if err := credit(team, refund); err != nil {
		return nil, err
	}

	if err := e.store.CommitRelease(ctx, ReleaseCommit{Player: player, Team: team}); err != nil {
		return nil, fmt.Errorf("commit release of player %s: %w", playerID, err)
	}

	e.publishPlayerUpdated(ctx, auctionID, player)
	return player, nil
}

// RemoveIcon reverts an icon assignment. Icon sales carry no price, so
// the release credits zero but still decrements the roster count.
func (e *Engine) RemoveIcon(ctx context.Context, auctionID, playerID, teamID uuid.UUID) (*models.Player, error) {
	unlockPlayer := e.playerLocks.Lock(playerID)
	defer unlockPlayer()
	unlockTeam := e.teamLocks.Lock(teamID)
	defer unlockTeam()

	player, err := e.loadPlayer(ctx, auctionID, playerID)
	if err != nil {
		return nil, err
	}
	team, err := e.loadTeam(ctx, auctionID, teamID)
	if err != nil {
		return nil, err
	}
	if player.TeamID == nil || *player.TeamID != teamID {
		return nil, apperrors.NotFoundf("player %s not found in team %s", playerID, teamID)
	}
	if !player.IsIcon {
		return nil, apperrors.InvalidArgumentf("player %s is not an icon player", player.Name)
	}

	if err := release(player); err != nil {
		return nil, err
	}
	if err := credit(team, 0); err != nil {
		return nil, err
	}

	if err := e.store.CommitRelease(ctx, ReleaseCommit{Player: player, Team: team}); err != nil {
		return nil, fmt.Errorf("commit icon removal of player %s: %w", playerID, err)
	}

	e.publishPlayerUpdated(ctx, auctionID, player)
	return player, nil
}

// MarkUnsold closes the round for an AVAILABLE player without a sale.
func (e *Engine) MarkUnsold(ctx context.Context, auctionID, playerID uuid.UUID) (*models.Player, error) {
	unlock := e.playerLocks.Lock(playerID)
	defer unlock()

	player, err := e.loadPlayer(ctx, auctionID, playerID)
	if err != nil {
		return nil, err
	}
	if err := markUnsold(player); err != nil {
		return nil, err
	}
	if err := e.store.UpdatePlayerState(ctx, player); err != nil {
		return nil, fmt.Errorf("mark player %s unsold: %w", playerID, err)
	}

	e.publishPlayerUpdated(ctx, auctionID, player)
	return player, nil
}

// Reopen puts one UNSOLD player back on the block at base price.
func (e *Engine) Reopen(ctx context.Context, auctionID, playerID uuid.UUID) (*models.Player, error) {
	unlock := e.playerLocks.Lock(playerID)
	defer unlock()

	player, err := e.loadPlayer(ctx, auctionID, playerID)
	if err != nil {
		return nil, err
	}
	if err := reopen(player); err != nil {
		return nil, err
	}
	if err := e.store.UpdatePlayerState(ctx, player); err != nil {
		return nil, fmt.Errorf("reopen player %s: %w", playerID, err)
	}

	e.publishPlayerUpdated(ctx, auctionID, player)
	return player, nil
}

// ReopenAllUnsold reopens every UNSOLD player of the auction. Each
// player is handled under its own lock so concurrent single-player
// operations are never starved; per-row failures are collected, not
// fatal. Running the sweep twice is a no-op the second time.
func (e *Engine) ReopenAllUnsold(ctx context.Context, auctionID uuid.UUID) (int, error) {
	players, err := e.store.ListPlayersByStatus(ctx, auctionID, models.PlayerStatusUnsold)
	if err != nil {
		return 0, fmt.Errorf("list unsold players for auction %s: %w", auctionID, err)
	}

	var reopened int
	var errs []error
	for _, p := range players {
		if _, err := e.Reopen(ctx, auctionID, p.ID); err != nil {
			if apperrors.IsConflict(err) {
				// Another caller got there first; still a reopened player.
				continue
			}
			errs = append(errs, fmt.Errorf("player %s: %w", p.ID, err))
			continue
		}
		reopened++
	}
	return reopened, errors.Join(errs...)
}

// RepairOrphanedSold resets players left SOLD with no team, e.g. after
// a team deletion. There is no team to refund, so the players just go
// back to AVAILABLE at base price. Safe to re-run.
func (e *Engine) RepairOrphanedSold(ctx context.Context, auctionID uuid.UUID) (int, error) {
	players, err := e.store.ListPlayersByStatus(ctx, auctionID, models.PlayerStatusSold)
	if err != nil {
		return 0, fmt.Errorf("list sold players for auction %s: %w", auctionID, err)
	}

	var repaired int
	var errs []error
	for _, p := range players {
		if p.TeamID != nil {
			continue
		}
		if err := e.repairOrphan(ctx, auctionID, p.ID); err != nil {
			errs = append(errs, fmt.Errorf("player %s: %w", p.ID, err))
			continue
		}
		repaired++
	}
	return repaired, errors.Join(errs...)
}

func (e *Engine) repairOrphan(ctx context.Context, auctionID, playerID uuid.UUID) error {
	unlock := e.playerLocks.Lock(playerID)
	defer unlock()

	player, err := e.loadPlayer(ctx, auctionID, playerID)
	if err != nil {
		return err
	}
	// Re-check under the lock; the player may have been repaired or
	// legitimately re-sold in the meantime.
	if player.Status != models.PlayerStatusSold || player.TeamID != nil {
		return nil
	}
	if err := release(player); err != nil {
		return err
	}
	if err := e.store.UpdatePlayerState(ctx, player); err != nil {
		return fmt.Errorf("repair player %s: %w", playerID, err)
	}

	e.publishPlayerUpdated(ctx, auctionID, player)
	return nil
}

// SetTeamBudget resets a team's budget ceiling and recomputes the
// spendable remainder through the ledger.
func (e *Engine) SetTeamBudget(ctx context.Context, auctionID, teamID uuid.UUID, newBudget float64) (*models.Team, error) {
	unlock := e.teamLocks.Lock(teamID)
	defer unlock()

	team, err := e.loadTeam(ctx, auctionID, teamID)
	if err != nil {
		return nil, err
	}
	if err := setCeiling(team, newBudget); err != nil {
		return nil, err
	}
	if err := e.store.UpdateTeamLedger(ctx, team); err != nil {
		return nil, fmt.Errorf("update budget of team %s: %w", teamID, err)
	}
	return team, nil
}

func (e *Engine) loadPlayer(ctx context.Context, auctionID, playerID uuid.UUID) (*models.Player, error) {
	player, err := e.store.GetPlayer(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("load player %s: %w", playerID, err)
	}
	if player.AuctionID != auctionID {
		return nil, apperrors.NotFoundf("player %s not found in auction %s", playerID, auctionID)
	}
	return player, nil
}

func (e *Engine) loadTeam(ctx context.Context, auctionID, teamID uuid.UUID) (*models.Team, error) {
	team, err := e.store.GetTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("load team %s: %w", teamID, err)
	}
	if team.AuctionID != auctionID {
		return nil, apperrors.NotFoundf("team %s not found in auction %s", teamID, auctionID)
	}
	return team, nil
}

func (e *Engine) publishBidPlaced(ctx context.Context, auctionID uuid.UUID, bid *models.Bid, player *models.Player, team *models.Team) {
	event, err := broadcast.NewEvent(auctionID, broadcast.EventTypeBidPlaced, broadcast.BidPlacedPayload{
		BidID:        bid.ID.String(),
		PlayerID:     player.ID.String(),
		PlayerName:   player.Name,
		TeamID:       team.ID.String(),
		TeamName:     team.Name,
		Amount:       bid.Amount,
		PlacedAt:     bid.PlacedAt,
		IsWinningBid: bid.IsWinningBid,
	})
	if err != nil {
		log.Error().Err(err).Str("bid_id", bid.ID.String()).Msg("failed to build BidPlaced event")
		return
	}
	if err := e.publisher.Publish(ctx, broadcast.SubjectBids, event); err != nil {
		// The commit stands; observers catch up on the next event.
		log.Error().Err(err).Str("bid_id", bid.ID.String()).Msg("failed to publish BidPlaced event")
	}
}

func (e *Engine) publishPlayerUpdated(ctx context.Context, auctionID uuid.UUID, player *models.Player) {
	var teamID *string
	if player.TeamID != nil {
		s := player.TeamID.String()
		teamID = &s
	}
	event, err := broadcast.NewEvent(auctionID, broadcast.EventTypePlayerUpdated, broadcast.PlayerUpdatedPayload{
		PlayerID:     player.ID.String(),
		Status:       string(player.Status),
		TeamID:       teamID,
		CurrentPrice: player.CurrentPrice,
		IsIcon:       player.IsIcon,
		UpdatedAt:    e.clock.Now().UTC(),
	})
	if err != nil {
		log.Error().Err(err).Str("player_id", player.ID.String()).Msg("failed to build PlayerUpdated event")
		return
	}
	if err := e.publisher.Publish(ctx, broadcast.PlayerSubject(player.ID), event); err != nil {
		log.Error().Err(err).Str("player_id", player.ID.String()).Msg("failed to publish PlayerUpdated event")
	}
}
