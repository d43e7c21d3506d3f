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
	"github.com/kpatel93/auctionday/go/internal/entitlement"
	"github.com/kpatel93/auctionday/go/internal/memstore"
	"github.com/kpatel93/auctionday/go/internal/models"
	"github.com/kpatel93/auctionday/go/internal/users"
)

var evalNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type evalFixture struct {
	store *memstore.Store
	clock *clockwork.FakeClock
	eval  *entitlement.Evaluator
}

func newEvalFixture(t *testing.T) *evalFixture {
	t.Helper()
	clock := clockwork.NewFakeClockAt(evalNow)
	store := memstore.NewStore(clock)
	return &evalFixture{
		store: store,
		clock: clock,
		eval:  entitlement.NewEvaluator(store, store, clock),
	}
}

func (f *evalFixture) addUser(t *testing.T, username string, roles ...models.Role) *models.User {
	t.Helper()
	if len(roles) == 0 {
		roles = []models.Role{models.RoleUser}
	}
	u, err := f.store.CreateUser(context.Background(), users.CreateUserRequest{
		Username: username,
		Roles:    roles,
	})
	require.NoError(t, err)
	return u
}

func (f *evalFixture) grant(t *testing.T, u *models.User, typ models.AccessType, auctionID *uuid.UUID, startsAt time.Time, expiresAt *time.Time) *models.AccessEntitlement {
	t.Helper()
	ent, err := f.store.CreateEntitlement(context.Background(), entitlement.CreateEntitlementRequest{
		UserID:    u.ID,
		Username:  u.Username,
		Type:      typ,
		AuctionID: auctionID,
		StartsAt:  startsAt,
		ExpiresAt: expiresAt,
		GrantedBy: "admin",
	})
	require.NoError(t, err)
	return ent
}

func ptrTime(t time.Time) *time.Time { return &t }

func TestIsPremiumNoGrants(t *testing.T) {
	f := newEvalFixture(t)
	f.addUser(t, "alice")

	premium, err := f.eval.IsPremium(context.Background(), "alice", uuid.New())
	require.NoError(t, err)
	assert.False(t, premium)
}

func TestIsPremiumUnknownUser(t *testing.T) {
	f := newEvalFixture(t)

	// A name with no user record still evaluates, just never as admin.
	premium, err := f.eval.IsPremium(context.Background(), "ghost", uuid.New())
	require.NoError(t, err)
	assert.False(t, premium)
}

func TestAdminIsAlwaysPremium(t *testing.T) {
	f := newEvalFixture(t)
	f.addUser(t, "root", models.RoleAdmin, models.RoleUser)

	status, err := f.eval.GetStatus(context.Background(), "root", uuid.New())
	require.NoError(t, err)
	assert.True(t, status.IsPremium)
	assert.True(t, status.IsAdmin)
	assert.Nil(t, status.AccessType)
}

func TestGrantBoundariesInclusive(t *testing.T) {
	f := newEvalFixture(t)
	u := f.addUser(t, "alice")
	starts := evalNow.Add(time.Hour)
	expires := starts.Add(24 * time.Hour)
	f.grant(t, u, models.AccessTypeFullMonthly, nil, starts, &expires)
	ctx := context.Background()
	auctionID := uuid.New()

	// Before the window opens.
	premium, err := f.eval.IsPremium(ctx, "alice", auctionID)
	require.NoError(t, err)
	assert.False(t, premium)

	// Exactly at starts_at.
	f.clock.Advance(time.Hour)
	premium, err = f.eval.IsPremium(ctx, "alice", auctionID)
	require.NoError(t, err)
	assert.True(t, premium)

	// Exactly at expires_at.
	f.clock.Advance(24 * time.Hour)
	premium, err = f.eval.IsPremium(ctx, "alice", auctionID)
	require.NoError(t, err)
	assert.True(t, premium)

	// One instant past expiry.
	f.clock.Advance(time.Nanosecond)
	premium, err = f.eval.IsPremium(ctx, "alice", auctionID)
	require.NoError(t, err)
	assert.False(t, premium)
}

func TestOpenEndedGrantNeverExpires(t *testing.T) {
	f := newEvalFixture(t)
	u := f.addUser(t, "alice")
	f.grant(t, u, models.AccessTypeFullYearly, nil, evalNow.Add(-time.Hour), nil)

	f.clock.Advance(24 * 365 * 10 * time.Hour)
	premium, err := f.eval.IsPremium(context.Background(), "alice", uuid.New())
	require.NoError(t, err)
	assert.True(t, premium)
}

func TestPerAuctionGrantScoped(t *testing.T) {
	f := newEvalFixture(t)
	u := f.addUser(t, "alice")
	covered := uuid.New()
	f.grant(t, u, models.AccessTypePerAuction, &covered, evalNow.Add(-time.Hour), ptrTime(evalNow.Add(time.Hour)))
	ctx := context.Background()

	premium, err := f.eval.IsPremium(ctx, "alice", covered)
	require.NoError(t, err)
	assert.True(t, premium)

	premium, err = f.eval.IsPremium(ctx, "alice", uuid.New())
	require.NoError(t, err)
	assert.False(t, premium)
}

func TestFullGrantCoversEveryAuction(t *testing.T) {
	f := newEvalFixture(t)
	u := f.addUser(t, "alice")
	f.grant(t, u, models.AccessTypeFullMonthly, nil, evalNow.Add(-time.Hour), ptrTime(evalNow.Add(time.Hour)))

	premium, err := f.eval.IsPremium(context.Background(), "alice", uuid.New())
	require.NoError(t, err)
	assert.True(t, premium)
}

func TestStatusPicksLongestLastingGrant(t *testing.T) {
	f := newEvalFixture(t)
	u := f.addUser(t, "alice")
	auctionID := uuid.New()
	f.grant(t, u, models.AccessTypePerAuction, &auctionID, evalNow.Add(-time.Hour), ptrTime(evalNow.Add(2*time.Hour)))
	f.grant(t, u, models.AccessTypeFullYearly, nil, evalNow.Add(-time.Hour), ptrTime(evalNow.Add(48*time.Hour)))

	status, err := f.eval.GetStatus(context.Background(), "alice", auctionID)
	require.NoError(t, err)
	assert.True(t, status.IsPremium)
	require.NotNil(t, status.AccessType)
	assert.Equal(t, models.AccessTypeFullYearly, *status.AccessType)
	require.NotNil(t, status.ExpiresAt)
	assert.Equal(t, evalNow.Add(48*time.Hour), *status.ExpiresAt)
}

func TestStatusOpenEndedBeatsDated(t *testing.T) {
	f := newEvalFixture(t)
	u := f.addUser(t, "alice")
	f.grant(t, u, models.AccessTypeFullMonthly, nil, evalNow.Add(-time.Hour), ptrTime(evalNow.Add(24*time.Hour)))
	f.grant(t, u, models.AccessTypeFullYearly, nil, evalNow.Add(-time.Hour), nil)

	status, err := f.eval.GetStatus(context.Background(), "alice", uuid.New())
	require.NoError(t, err)
	require.NotNil(t, status.AccessType)
	assert.Equal(t, models.AccessTypeFullYearly, *status.AccessType)
	assert.Nil(t, status.ExpiresAt)
}

func TestRequirePremiumNamesFeature(t *testing.T) {
	f := newEvalFixture(t)
	f.addUser(t, "alice")

	err := f.eval.RequirePremium(context.Background(), "alice", uuid.New(), "Bid increment rules")
	require.Error(t, err)
	assert.True(t, apperrors.IsForbidden(err))
	assert.Contains(t, err.Error(), "Bid increment rules is available only on paid access.")
}

func TestEnforceFreeTeamLimit(t *testing.T) {
	f := newEvalFixture(t)
	f.addUser(t, "alice")
	ctx := context.Background()
	auctionID := uuid.New()

	require.NoError(t, f.eval.EnforceFreeTeamLimit(ctx, "alice", auctionID, 0))
	require.NoError(t, f.eval.EnforceFreeTeamLimit(ctx, "alice", auctionID, 1))

	err := f.eval.EnforceFreeTeamLimit(ctx, "alice", auctionID, 2)
	require.Error(t, err)
	assert.True(t, apperrors.IsForbidden(err))
	assert.Contains(t, err.Error(), "Free team limit reached")
}

func TestEnforceFreeTeamLimitPremiumUncapped(t *testing.T) {
	f := newEvalFixture(t)
	u := f.addUser(t, "alice")
	f.grant(t, u, models.AccessTypeFullMonthly, nil, evalNow.Add(-time.Hour), nil)

	require.NoError(t, f.eval.EnforceFreeTeamLimit(context.Background(), "alice", uuid.New(), 7))
}
