package allocation

import (
	"github.com/kpatel93/auctionday/go/internal/apperrors"
	"github.com/kpatel93/auctionday/go/internal/models"
)

// Ledger operations are the only writers of a team's budget fields.
// They mutate the passed team in memory; the caller persists the result
// through a Store commit. PointsUsed and PlayersCount move in lock-step
// with debits and credits.

// debit spends amount from the team's remaining budget and records the
// acquisition.
func debit(team *models.Team, amount float64) error {
	if amount < 0 {
		return apperrors.InvalidArgumentf("debit amount cannot be negative")
	}
	if team.RemainingBudget-amount < 0 {
		return apperrors.Conflictf("insufficient budget for team %s", team.Name)
	}
	team.RemainingBudget -= amount
	team.PointsUsed += amount
	team.PlayersCount++
	return nil
}

// credit refunds amount to the team. The refund is clamped so
// RemainingBudget never exceeds BudgetAmount; excess is discarded, e.g.
// when the ceiling was lowered after the sale.
func credit(team *models.Team, amount float64) error {
	if amount < 0 {
		return apperrors.InvalidArgumentf("credit amount cannot be negative")
	}
	team.RemainingBudget += amount
	if team.RemainingBudget > team.BudgetAmount {
		team.RemainingBudget = team.BudgetAmount
	}
	team.PointsUsed -= amount
	if team.PointsUsed < 0 {
		team.PointsUsed = 0
	}
	if team.PlayersCount > 0 {
		team.PlayersCount--
	}
	return nil
}

// setCeiling resets the budget ceiling and recomputes the spendable
// remainder from what the team has already spent.
func setCeiling(team *models.Team, newBudget float64) error {
	if newBudget < 0 {
		return apperrors.InvalidArgumentf("budget cannot be negative")
	}
	team.BudgetAmount = newBudget
	team.RemainingBudget = newBudget - team.PointsUsed
	if team.RemainingBudget < 0 {
		team.RemainingBudget = 0
	}
	return nil
}
