package entitlement_test

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
	"github.com/kpatel93/auctionday/go/internal/entitlement"
	"github.com/kpatel93/auctionday/go/internal/memstore"
	"github.com/kpatel93/auctionday/go/internal/models"
	"github.com/kpatel93/auctionday/go/internal/users"
)

type appFixture struct {
	store *memstore.Store
	clock *clockwork.FakeClock
	app   *entitlement.App
}

func newAppFixture(t *testing.T) *appFixture {
	t.Helper()
	clock := clockwork.NewFakeClockAt(evalNow)
	store := memstore.NewStore(clock)
	f := &appFixture{
		store: store,
		clock: clock,
		app:   entitlement.NewApp(store, store, store, clock),
	}
	f.addUser(t, "admin", models.RoleAdmin)
	f.addUser(t, "alice", models.RoleUser)
	return f
}

func (f *appFixture) addUser(t *testing.T, username string, roles ...models.Role) *models.User {
	t.Helper()
	u, err := f.store.CreateUser(context.Background(), users.CreateUserRequest{
		Username: username,
		Roles:    roles,
	})
	require.NoError(t, err)
	return u
}

func (f *appFixture) addAuction(t *testing.T) *models.Auction {
	t.Helper()
	a, err := f.store.CreateAuction(context.Background(), auction.CreateAuctionRequest{
		Name:           "Summer Premier League",
		AuctionDate:    evalNow.AddDate(0, 0, 14),
		PointsPerTeam:  1000,
		TotalTeams:     8,
		MinimumBid:     50,
		BidIncreaseBy:  10,
		BasePrice:      100,
		PlayersPerTeam: 11,
		CreatedBy:      "alice",
	})
	require.NoError(t, err)
	return a
}

func TestGrantPerAuction(t *testing.T) {
	f := newAppFixture(t)
	a := f.addAuction(t)

	ent, err := f.app.Grant(context.Background(), "admin", entitlement.GrantRequest{
		Username:  "alice",
		Type:      models.AccessTypePerAuction,
		AuctionID: &a.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", ent.Username)
	assert.Equal(t, "admin", ent.GrantedBy)
	require.NotNil(t, ent.AuctionID)
	assert.Equal(t, a.ID, *ent.AuctionID)
	assert.Equal(t, evalNow, ent.StartsAt)
	require.NotNil(t, ent.ExpiresAt)
	assert.Equal(t, evalNow.AddDate(0, 0, 30), *ent.ExpiresAt)
}

func TestGrantDefaultExpiries(t *testing.T) {
	f := newAppFixture(t)
	ctx := context.Background()

	monthly, err := f.app.Grant(ctx, "admin", entitlement.GrantRequest{
		Username: "alice",
		Type:     models.AccessTypeFullMonthly,
	})
	require.NoError(t, err)
	require.NotNil(t, monthly.ExpiresAt)
	assert.Equal(t, evalNow.AddDate(0, 1, 0), *monthly.ExpiresAt)

	yearly, err := f.app.Grant(ctx, "admin", entitlement.GrantRequest{
		Username: "alice",
		Type:     models.AccessTypeFullYearly,
	})
	require.NoError(t, err)
	require.NotNil(t, yearly.ExpiresAt)
	assert.Equal(t, evalNow.AddDate(1, 0, 0), *yearly.ExpiresAt)
}

func TestGrantRequiresAdmin(t *testing.T) {
	f := newAppFixture(t)

	_, err := f.app.Grant(context.Background(), "alice", entitlement.GrantRequest{
		Username: "alice",
		Type:     models.AccessTypeFullMonthly,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsForbidden(err))
}

func TestGrantUnknownTarget(t *testing.T) {
	f := newAppFixture(t)

	_, err := f.app.Grant(context.Background(), "admin", entitlement.GrantRequest{
		Username: "ghost",
		Type:     models.AccessTypeFullMonthly,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestGrantPerAuctionNeedsAuction(t *testing.T) {
	f := newAppFixture(t)
	ctx := context.Background()

	_, err := f.app.Grant(ctx, "admin", entitlement.GrantRequest{
		Username: "alice",
		Type:     models.AccessTypePerAuction,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidArgument(err))

	missing := uuid.New()
	_, err = f.app.Grant(ctx, "admin", entitlement.GrantRequest{
		Username:  "alice",
		Type:      models.AccessTypePerAuction,
		AuctionID: &missing,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestGrantFullTypesRejectAuctionID(t *testing.T) {
	f := newAppFixture(t)
	a := f.addAuction(t)

	_, err := f.app.Grant(context.Background(), "admin", entitlement.GrantRequest{
		Username:  "alice",
		Type:      models.AccessTypeFullMonthly,
		AuctionID: &a.ID,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidArgument(err))
}

func TestGrantInvalidType(t *testing.T) {
	f := newAppFixture(t)

	_, err := f.app.Grant(context.Background(), "admin", entitlement.GrantRequest{
		Username: "alice",
		Type:     models.AccessType("LIFETIME"),
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidArgument(err))
}

func TestGrantExpiryMustFollowStart(t *testing.T) {
	f := newAppFixture(t)
	starts := evalNow.Add(time.Hour)
	expires := evalNow

	_, err := f.app.Grant(context.Background(), "admin", entitlement.GrantRequest{
		Username:  "alice",
		Type:      models.AccessTypeFullMonthly,
		StartsAt:  &starts,
		ExpiresAt: &expires,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidArgument(err))
}

func TestListForUserSelf(t *testing.T) {
	f := newAppFixture(t)
	ctx := context.Background()

	_, err := f.app.Grant(ctx, "admin", entitlement.GrantRequest{
		Username: "alice",
		Type:     models.AccessTypeFullMonthly,
	})
	require.NoError(t, err)

	ents, err := f.app.ListForUser(ctx, "alice", "alice")
	require.NoError(t, err)
	assert.Len(t, ents, 1)
}

func TestListForUserOtherRequiresAdmin(t *testing.T) {
	f := newAppFixture(t)
	f.addUser(t, "bob", models.RoleUser)
	ctx := context.Background()

	_, err := f.app.ListForUser(ctx, "bob", "alice")
	require.Error(t, err)
	assert.True(t, apperrors.IsForbidden(err))

	_, err = f.app.ListForUser(ctx, "admin", "alice")
	require.NoError(t, err)
}

func TestUpdateExpiry(t *testing.T) {
	f := newAppFixture(t)
	ctx := context.Background()

	ent, err := f.app.Grant(ctx, "admin", entitlement.GrantRequest{
		Username: "alice",
		Type:     models.AccessTypeFullMonthly,
	})
	require.NoError(t, err)

	later := evalNow.AddDate(0, 3, 0)
	updated, err := f.app.Update(ctx, "admin", ent.ID, entitlement.UpdateEntitlementRequest{
		ExpiresAt: &later,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.ExpiresAt)
	assert.Equal(t, later, *updated.ExpiresAt)

	tooEarly := evalNow.Add(-time.Hour)
	_, err = f.app.Update(ctx, "admin", ent.ID, entitlement.UpdateEntitlementRequest{
		ExpiresAt: &tooEarly,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidArgument(err))
}

func TestRevokeTakesEffectImmediately(t *testing.T) {
	f := newAppFixture(t)
	ctx := context.Background()
	eval := entitlement.NewEvaluator(f.store, f.store, f.clock)

	ent, err := f.app.Grant(ctx, "admin", entitlement.GrantRequest{
		Username: "alice",
		Type:     models.AccessTypeFullMonthly,
	})
	require.NoError(t, err)

	premium, err := eval.IsPremium(ctx, "alice", uuid.New())
	require.NoError(t, err)
	assert.True(t, premium)

	require.NoError(t, f.app.Revoke(ctx, "admin", ent.ID))

	premium, err = eval.IsPremium(ctx, "alice", uuid.New())
	require.NoError(t, err)
	assert.False(t, premium)
}
