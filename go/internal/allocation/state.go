package allocation

import (
	"github.com/google/uuid"
	"github.com/kpatel93/auctionday/go/internal/apperrors"
	"github.com/kpatel93/auctionday/go/internal/models"
)

// The functions in this file are the only writers of Player.Status,
// Player.TeamID, Player.CurrentPrice and Player.IsIcon. Every path that
// flips a player's sale state goes through one of them, so transitions
// the state machine does not allow cannot be produced anywhere.

// sell moves a player to SOLD on the given team. On the icon path the
// price is pinned to zero; otherwise price is the sale amount.
func sell(p *models.Player, teamID uuid.UUID, price float64, icon bool) error {
	if p.Status == models.PlayerStatusSold {
		return apperrors.Conflictf("player %s is already sold", p.Name)
	}
	if icon {
		price = 0
	}
	if price < 0 {
		return apperrors.InvalidArgumentf("sale price cannot be negative")
	}
	p.Status = models.PlayerStatusSold
	p.TeamID = &teamID
	p.CurrentPrice = price
	p.IsIcon = icon
	return nil
}

// markUnsold closes the round for a player nobody bought.
func markUnsold(p *models.Player) error {
	if p.Status != models.PlayerStatusAvailable {
		return apperrors.Conflictf("only AVAILABLE players can be marked unsold, player %s is %s", p.Name, p.Status)
	}
	p.Status = models.PlayerStatusUnsold
	p.TeamID = nil
	return nil
}

// reopen puts an UNSOLD player back on the block at base price.
func reopen(p *models.Player) error {
	if p.Status != models.PlayerStatusUnsold {
		return apperrors.Conflictf("only UNSOLD players can be reopened, player %s is %s", p.Name, p.Status)
	}
	p.Status = models.PlayerStatusAvailable
	p.TeamID = nil
	p.IsIcon = false
	p.CurrentPrice = p.BasePrice
	return nil
}

// release takes a SOLD player off its team and back to AVAILABLE at
// base price. The caller pairs this with a ledger credit.
func release(p *models.Player) error {
	if p.Status != models.PlayerStatusSold {
		return apperrors.Conflictf("only SOLD players can be released, player %s is %s", p.Name, p.Status)
	}
	p.Status = models.PlayerStatusAvailable
	p.TeamID = nil
	p.IsIcon = false
	p.CurrentPrice = p.BasePrice
	return nil
}
