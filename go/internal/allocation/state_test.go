package allocation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpatel93/auctionday/go/internal/apperrors"
	"github.com/kpatel93/auctionday/go/internal/models"
)

func newPlayer(status models.PlayerStatus) *models.Player {
	return &models.Player{
		ID:           uuid.New(),
		Name:         "R. Sharma",
		BasePrice:    100,
		CurrentPrice: 100,
		Status:       status,
	}
}

func TestSell(t *testing.T) {
	p := newPlayer(models.PlayerStatusAvailable)
	teamID := uuid.New()

	require.NoError(t, sell(p, teamID, 250, false))
	assert.Equal(t, models.PlayerStatusSold, p.Status)
	require.NotNil(t, p.TeamID)
	assert.Equal(t, teamID, *p.TeamID)
	assert.Equal(t, 250.0, p.CurrentPrice)
	assert.False(t, p.IsIcon)
}

func TestSellAlreadySold(t *testing.T) {
	p := newPlayer(models.PlayerStatusAvailable)
	require.NoError(t, sell(p, uuid.New(), 250, false))

	err := sell(p, uuid.New(), 300, false)
	assert.True(t, apperrors.IsConflict(err))
}

func TestSellUnsoldPlayer(t *testing.T) {
	// An unsold player can be sold directly without reopening first.
	p := newPlayer(models.PlayerStatusUnsold)

	require.NoError(t, sell(p, uuid.New(), 150, false))
	assert.Equal(t, models.PlayerStatusSold, p.Status)
}

func TestSellIconPinsPriceToZero(t *testing.T) {
	p := newPlayer(models.PlayerStatusAvailable)

	require.NoError(t, sell(p, uuid.New(), 500, true))
	assert.Equal(t, 0.0, p.CurrentPrice)
	assert.True(t, p.IsIcon)
}

func TestSellNegativePrice(t *testing.T) {
	p := newPlayer(models.PlayerStatusAvailable)

	err := sell(p, uuid.New(), -5, false)
	assert.True(t, apperrors.IsInvalidArgument(err))
	assert.Equal(t, models.PlayerStatusAvailable, p.Status)
}

func TestMarkUnsold(t *testing.T) {
	p := newPlayer(models.PlayerStatusAvailable)

	require.NoError(t, markUnsold(p))
	assert.Equal(t, models.PlayerStatusUnsold, p.Status)
	assert.Nil(t, p.TeamID)
}

func TestMarkUnsoldRequiresAvailable(t *testing.T) {
	p := newPlayer(models.PlayerStatusAvailable)
	require.NoError(t, sell(p, uuid.New(), 200, false))

	err := markUnsold(p)
	assert.True(t, apperrors.IsConflict(err))
}

func TestReopenResetsToBasePrice(t *testing.T) {
	p := newPlayer(models.PlayerStatusAvailable)
	require.NoError(t, markUnsold(p))

	require.NoError(t, reopen(p))
	assert.Equal(t, models.PlayerStatusAvailable, p.Status)
	assert.Equal(t, p.BasePrice, p.CurrentPrice)
}

func TestReopenRequiresUnsold(t *testing.T) {
	p := newPlayer(models.PlayerStatusAvailable)

	err := reopen(p)
	assert.True(t, apperrors.IsConflict(err))
}

func TestRelease(t *testing.T) {
	p := newPlayer(models.PlayerStatusAvailable)
	require.NoError(t, sell(p, uuid.New(), 300, false))

	require.NoError(t, release(p))
	assert.Equal(t, models.PlayerStatusAvailable, p.Status)
	assert.Nil(t, p.TeamID)
	assert.Equal(t, p.BasePrice, p.CurrentPrice)
	assert.False(t, p.IsIcon)
}

func TestReleaseRequiresSold(t *testing.T) {
	p := newPlayer(models.PlayerStatusAvailable)

	err := release(p)
	assert.True(t, apperrors.IsConflict(err))
}
