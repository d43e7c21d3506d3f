package bidrule_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpatel93/auctionday/go/internal/apperrors"
	"github.com/kpatel93/auctionday/go/internal/auction"
	"github.com/kpatel93/auctionday/go/internal/bidrule"
	"github.com/kpatel93/auctionday/go/internal/memstore"
	"github.com/kpatel93/auctionday/go/internal/models"
)

type stubAccess struct {
	err error
}

func (s *stubAccess) RequirePremium(_ context.Context, _ string, _ uuid.UUID, _ string) error {
	return s.err
}

func newRuleApp(t *testing.T, access *stubAccess) (*bidrule.App, *models.Auction, *memstore.Store) {
	t.Helper()
	store := memstore.NewStore(clockwork.NewFakeClock())
	a, err := store.CreateAuction(context.Background(), auction.CreateAuctionRequest{
		Name:           "Summer Premier League",
		AuctionDate:    time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC),
		PointsPerTeam:  1000,
		TotalTeams:     8,
		MinimumBid:     50,
		BidIncreaseBy:  10,
		BasePrice:      100,
		PlayersPerTeam: 11,
		CreatedBy:      "owner",
	})
	require.NoError(t, err)
	return bidrule.NewApp(store, store, access), a, store
}

func TestCreateBidRule(t *testing.T) {
	app, a, _ := newRuleApp(t, &stubAccess{})
	ctx := context.Background()

	rule, err := app.CreateBidRule(ctx, "owner", bidrule.CreateBidRuleRequest{
		AuctionID:       a.ID,
		ThresholdAmount: 200,
		IncrementAmount: 25,
	})
	require.NoError(t, err)
	assert.Equal(t, a.ID, rule.AuctionID)
	assert.Equal(t, 200.0, rule.ThresholdAmount)
	assert.Equal(t, 25.0, rule.IncrementAmount)
}

func TestCreateBidRuleRequiresPremium(t *testing.T) {
	denied := apperrors.Forbiddenf("%s is available only on paid access.", bidrule.PremiumFeature)
	app, a, _ := newRuleApp(t, &stubAccess{err: denied})

	_, err := app.CreateBidRule(context.Background(), "owner", bidrule.CreateBidRuleRequest{
		AuctionID:       a.ID,
		ThresholdAmount: 200,
		IncrementAmount: 25,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsForbidden(err))
}

func TestCreateBidRuleForeignAuction(t *testing.T) {
	app, a, _ := newRuleApp(t, &stubAccess{})

	_, err := app.CreateBidRule(context.Background(), "stranger", bidrule.CreateBidRuleRequest{
		AuctionID:       a.ID,
		ThresholdAmount: 200,
		IncrementAmount: 25,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCreateBidRuleValidation(t *testing.T) {
	app, a, _ := newRuleApp(t, &stubAccess{})
	ctx := context.Background()

	_, err := app.CreateBidRule(ctx, "owner", bidrule.CreateBidRuleRequest{
		AuctionID:       a.ID,
		ThresholdAmount: -1,
		IncrementAmount: 25,
	})
	assert.True(t, apperrors.IsInvalidArgument(err))

	_, err = app.CreateBidRule(ctx, "owner", bidrule.CreateBidRuleRequest{
		AuctionID:       a.ID,
		ThresholdAmount: 200,
		IncrementAmount: 0,
	})
	assert.True(t, apperrors.IsInvalidArgument(err))
}

func TestCreateBidRuleDuplicateThreshold(t *testing.T) {
	app, a, _ := newRuleApp(t, &stubAccess{})
	ctx := context.Background()

	_, err := app.CreateBidRule(ctx, "owner", bidrule.CreateBidRuleRequest{
		AuctionID:       a.ID,
		ThresholdAmount: 200,
		IncrementAmount: 25,
	})
	require.NoError(t, err)

	_, err = app.CreateBidRule(ctx, "owner", bidrule.CreateBidRuleRequest{
		AuctionID:       a.ID,
		ThresholdAmount: 200,
		IncrementAmount: 30,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
}

func TestListBidRulesOpenToAnyone(t *testing.T) {
	app, a, _ := newRuleApp(t, &stubAccess{err: apperrors.Forbiddenf("no")})
	ctx := context.Background()

	_, err := app.ListBidRules(ctx, a.ID)
	require.NoError(t, err)
}

func TestUpdateBidRule(t *testing.T) {
	app, a, _ := newRuleApp(t, &stubAccess{})
	ctx := context.Background()

	rule, err := app.CreateBidRule(ctx, "owner", bidrule.CreateBidRuleRequest{
		AuctionID:       a.ID,
		ThresholdAmount: 200,
		IncrementAmount: 25,
	})
	require.NoError(t, err)

	newIncrement := 40.0
	updated, err := app.UpdateBidRule(ctx, "owner", rule.ID, bidrule.UpdateBidRuleRequest{
		IncrementAmount: &newIncrement,
	})
	require.NoError(t, err)
	assert.Equal(t, 200.0, updated.ThresholdAmount)
	assert.Equal(t, 40.0, updated.IncrementAmount)
}

func TestUpdateBidRuleRejectsBadIncrement(t *testing.T) {
	app, a, _ := newRuleApp(t, &stubAccess{})
	ctx := context.Background()

	rule, err := app.CreateBidRule(ctx, "owner", bidrule.CreateBidRuleRequest{
		AuctionID:       a.ID,
		ThresholdAmount: 200,
		IncrementAmount: 25,
	})
	require.NoError(t, err)

	zero := 0.0
	_, err = app.UpdateBidRule(ctx, "owner", rule.ID, bidrule.UpdateBidRuleRequest{
		IncrementAmount: &zero,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidArgument(err))
}

func TestDeleteBidRule(t *testing.T) {
	app, a, store := newRuleApp(t, &stubAccess{})
	ctx := context.Background()

	rule, err := app.CreateBidRule(ctx, "owner", bidrule.CreateBidRuleRequest{
		AuctionID:       a.ID,
		ThresholdAmount: 200,
		IncrementAmount: 25,
	})
	require.NoError(t, err)

	require.NoError(t, app.DeleteBidRule(ctx, "owner", rule.ID))

	rules, err := store.ListBidRulesByAuction(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestDeleteBidRuleForeignOwner(t *testing.T) {
	app, a, _ := newRuleApp(t, &stubAccess{})
	ctx := context.Background()

	rule, err := app.CreateBidRule(ctx, "owner", bidrule.CreateBidRuleRequest{
		AuctionID:       a.ID,
		ThresholdAmount: 200,
		IncrementAmount: 25,
	})
	require.NoError(t, err)

	err = app.DeleteBidRule(ctx, "stranger", rule.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}
