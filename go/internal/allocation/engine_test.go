package allocation_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpatel93/auctionday/go/internal/allocation"
	"github.com/kpatel93/auctionday/go/internal/apperrors"
	"github.com/kpatel93/auctionday/go/internal/auction"
	"github.com/kpatel93/auctionday/go/internal/bidrule"
	"github.com/kpatel93/auctionday/go/internal/broadcast"
	"github.com/kpatel93/auctionday/go/internal/memstore"
	"github.com/kpatel93/auctionday/go/internal/models"
	"github.com/kpatel93/auctionday/go/internal/player"
	"github.com/kpatel93/auctionday/go/internal/team"
)

type capturingPublisher struct {
	mu     sync.Mutex
	events []broadcast.Event
}

func (p *capturingPublisher) Publish(_ context.Context, subject string, event broadcast.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturingPublisher) byType(t broadcast.EventType) []broadcast.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []broadcast.Event
	for _, e := range p.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	store     *memstore.Store
	publisher *capturingPublisher
	engine    *allocation.Engine
	clock     *clockwork.FakeClock
	auction   *models.Auction
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC))
	store := memstore.NewStore(clock)
	publisher := &capturingPublisher{}
	engine := allocation.NewEngine(store, publisher, clock)

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

	return &fixture{
		store:     store,
		publisher: publisher,
		engine:    engine,
		clock:     clock,
		auction:   a,
	}
}

func (f *fixture) addTeam(t *testing.T, name string) *models.Team {
	t.Helper()
	tm, err := f.store.CreateTeam(context.Background(), team.CreateTeamRequest{
		AuctionID:    f.auction.ID,
		Name:         name,
		BudgetAmount: f.auction.PointsPerTeam,
	})
	require.NoError(t, err)
	return tm
}

func (f *fixture) addPlayer(t *testing.T, name string) *models.Player {
	t.Helper()
	p, err := f.store.CreatePlayer(context.Background(), player.CreatePlayerRequest{
		AuctionID: f.auction.ID,
		Name:      name,
		Role:      "Batsman",
		BasePrice: f.auction.BasePrice,
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) addRule(t *testing.T, threshold, increment float64) {
	t.Helper()
	_, err := f.store.CreateBidRule(context.Background(), bidrule.CreateBidRuleRequest{
		AuctionID:       f.auction.ID,
		ThresholdAmount: threshold,
		IncrementAmount: increment,
	})
	require.NoError(t, err)
}

func TestPlaceBidSellsPlayerAndDebitsTeam(t *testing.T) {
	f := newFixture(t)
	tm := f.addTeam(t, "Strikers")
	p := f.addPlayer(t, "R. Sharma")
	ctx := context.Background()

	bid, err := f.engine.PlaceBid(ctx, f.auction.ID, p.ID, tm.ID, 150)
	require.NoError(t, err)
	assert.Equal(t, 150.0, bid.Amount)
	assert.True(t, bid.IsWinningBid)
	assert.Equal(t, f.clock.Now().UTC(), bid.PlacedAt)

	gotPlayer, err := f.store.GetPlayer(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlayerStatusSold, gotPlayer.Status)
	require.NotNil(t, gotPlayer.TeamID)
	assert.Equal(t, tm.ID, *gotPlayer.TeamID)
	assert.Equal(t, 150.0, gotPlayer.CurrentPrice)

	gotTeam, err := f.store.GetTeam(ctx, tm.ID)
	require.NoError(t, err)
	assert.Equal(t, 850.0, gotTeam.RemainingBudget)
	assert.Equal(t, 150.0, gotTeam.PointsUsed)
	assert.Equal(t, 1, gotTeam.PlayersCount)

	require.Len(t, f.publisher.byType(broadcast.EventTypeBidPlaced), 1)
	require.Len(t, f.publisher.byType(broadcast.EventTypePlayerUpdated), 1)
}

func TestPlaceBidOnSoldPlayer(t *testing.T) {
	f := newFixture(t)
	a := f.addTeam(t, "Strikers")
	b := f.addTeam(t, "Titans")
	p := f.addPlayer(t, "R. Sharma")
	ctx := context.Background()

	_, err := f.engine.PlaceBid(ctx, f.auction.ID, p.ID, a.ID, 150)
	require.NoError(t, err)

	_, err = f.engine.PlaceBid(ctx, f.auction.ID, p.ID, b.ID, 200)
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))

	// The losing attempt must not touch the second team's ledger.
	gotB, err := f.store.GetTeam(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, gotB.RemainingBudget)
	assert.Equal(t, 0, gotB.PlayersCount)
}

func TestPlaceBidBelowIncrementBand(t *testing.T) {
	f := newFixture(t)
	tm := f.addTeam(t, "Strikers")
	p := f.addPlayer(t, "R. Sharma")
	f.addRule(t, 0, 50)
	ctx := context.Background()

	// Current price 100, band increment 50: anything under 150 loses.
	_, err := f.engine.PlaceBid(ctx, f.auction.ID, p.ID, tm.ID, 130)
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))

	gotPlayer, err := f.store.GetPlayer(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlayerStatusAvailable, gotPlayer.Status)

	_, err = f.engine.PlaceBid(ctx, f.auction.ID, p.ID, tm.ID, 150)
	require.NoError(t, err)
}

func TestPlaceBidFallbackIncrement(t *testing.T) {
	f := newFixture(t)
	tm := f.addTeam(t, "Strikers")
	p := f.addPlayer(t, "R. Sharma")
	ctx := context.Background()

	// No rules: the auction-level increment of 10 applies.
	_, err := f.engine.PlaceBid(ctx, f.auction.ID, p.ID, tm.ID, 105)
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))

	_, err = f.engine.PlaceBid(ctx, f.auction.ID, p.ID, tm.ID, 110)
	require.NoError(t, err)
}

func TestPlaceBidNotAboveCurrentPrice(t *testing.T) {
	f := newFixture(t)
	tm := f.addTeam(t, "Strikers")
	p := f.addPlayer(t, "R. Sharma")

	_, err := f.engine.PlaceBid(context.Background(), f.auction.ID, p.ID, tm.ID, 100)
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
}

func TestPlaceBidInsufficientBudget(t *testing.T) {
	f := newFixture(t)
	tm := f.addTeam(t, "Strikers")
	p := f.addPlayer(t, "R. Sharma")
	ctx := context.Background()

	_, err := f.engine.PlaceBid(ctx, f.auction.ID, p.ID, tm.ID, 1200)
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))

	gotPlayer, err := f.store.GetPlayer(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlayerStatusAvailable, gotPlayer.Status)
	gotTeam, err := f.store.GetTeam(ctx, tm.ID)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, gotTeam.RemainingBudget)
}

func TestPlaceBidWrongAuctionScope(t *testing.T) {
	f := newFixture(t)
	tm := f.addTeam(t, "Strikers")
	p := f.addPlayer(t, "R. Sharma")

	_, err := f.engine.PlaceBid(context.Background(), uuid.New(), p.ID, tm.ID, 150)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestRebidAfterReleaseSupersedesWinningBid(t *testing.T) {
	f := newFixture(t)
	a := f.addTeam(t, "Strikers")
	b := f.addTeam(t, "Titans")
	p := f.addPlayer(t, "R. Sharma")
	ctx := context.Background()

	first, err := f.engine.PlaceBid(ctx, f.auction.ID, p.ID, a.ID, 150)
	require.NoError(t, err)

	_, err = f.engine.RemoveFromTeam(ctx, f.auction.ID, p.ID, a.ID)
	require.NoError(t, err)

	second, err := f.engine.PlaceBid(ctx, f.auction.ID, p.ID, b.ID, 200)
	require.NoError(t, err)

	winning, err := f.store.GetWinningBid(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, winning.ID)
	assert.NotEqual(t, first.ID, winning.ID)

	history, err := f.store.ListBidsByPlayer(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestRemoveFromTeamRefundsAtCeiling(t *testing.T) {
	f := newFixture(t)
	tm := f.addTeam(t, "Strikers")
	p := f.addPlayer(t, "R. Sharma")
	ctx := context.Background()

	_, err := f.engine.PlaceBid(ctx, f.auction.ID, p.ID, tm.ID, 300)
	require.NoError(t, err)

	released, err := f.engine.RemoveFromTeam(ctx, f.auction.ID, p.ID, tm.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlayerStatusAvailable, released.Status)
	assert.Equal(t, 100.0, released.CurrentPrice)

	gotTeam, err := f.store.GetTeam(ctx, tm.ID)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, gotTeam.RemainingBudget)
	assert.Equal(t, 0.0, gotTeam.PointsUsed)
	assert.Equal(t, 0, gotTeam.PlayersCount)
}

func TestRemoveFromTeamWrongOwner(t *testing.T) {
	f := newFixture(t)
	a := f.addTeam(t, "Strikers")
	b := f.addTeam(t, "Titans")
	p := f.addPlayer(t, "R. Sharma")
	ctx := context.Background()

	_, err := f.engine.PlaceBid(ctx, f.auction.ID, p.ID, a.ID, 150)
	require.NoError(t, err)

	_, err = f.engine.RemoveFromTeam(ctx, f.auction.ID, p.ID, b.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestAssignIconCostsNothing(t *testing.T) {
	f := newFixture(t)
	tm := f.addTeam(t, "Strikers")
	p := f.addPlayer(t, "R. Sharma")
	ctx := context.Background()

	assigned, err := f.engine.AssignIcon(ctx, f.auction.ID, p.ID, tm.ID)
	require.NoError(t, err)
	assert.True(t, assigned.IsIcon)
	assert.Equal(t, 0.0, assigned.CurrentPrice)
	assert.Equal(t, models.PlayerStatusSold, assigned.Status)

	gotTeam, err := f.store.GetTeam(ctx, tm.ID)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, gotTeam.RemainingBudget)
	assert.Equal(t, 1, gotTeam.PlayersCount)
}

func TestAssignIconAlreadyAssigned(t *testing.T) {
	f := newFixture(t)
	a := f.addTeam(t, "Strikers")
	b := f.addTeam(t, "Titans")
	p := f.addPlayer(t, "R. Sharma")
	ctx := context.Background()

	_, err := f.engine.AssignIcon(ctx, f.auction.ID, p.ID, a.ID)
	require.NoError(t, err)

	_, err = f.engine.AssignIcon(ctx, f.auction.ID, p.ID, b.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
}

func TestRemoveIcon(t *testing.T) {
	f := newFixture(t)
	tm := f.addTeam(t, "Strikers")
	p := f.addPlayer(t, "R. Sharma")
	ctx := context.Background()

	_, err := f.engine.AssignIcon(ctx, f.auction.ID, p.ID, tm.ID)
	require.NoError(t, err)

	removed, err := f.engine.RemoveIcon(ctx, f.auction.ID, p.ID, tm.ID)
	require.NoError(t, err)
	assert.False(t, removed.IsIcon)
	assert.Equal(t, models.PlayerStatusAvailable, removed.Status)

	gotTeam, err := f.store.GetTeam(ctx, tm.ID)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, gotTeam.RemainingBudget)
	assert.Equal(t, 0, gotTeam.PlayersCount)
}

func TestRemoveIconOnRegularSale(t *testing.T) {
	f := newFixture(t)
	tm := f.addTeam(t, "Strikers")
	p := f.addPlayer(t, "R. Sharma")
	ctx := context.Background()

	_, err := f.engine.PlaceBid(ctx, f.auction.ID, p.ID, tm.ID, 150)
	require.NoError(t, err)

	_, err = f.engine.RemoveIcon(ctx, f.auction.ID, p.ID, tm.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidArgument(err))
}

func TestDirectAssignDefaultsToBasePrice(t *testing.T) {
	f := newFixture(t)
	tm := f.addTeam(t, "Strikers")
	p := f.addPlayer(t, "R. Sharma")
	ctx := context.Background()

	assigned, err := f.engine.DirectAssign(ctx, f.auction.ID, p.ID, tm.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 100.0, assigned.CurrentPrice)

	gotTeam, err := f.store.GetTeam(ctx, tm.ID)
	require.NoError(t, err)
	assert.Equal(t, 900.0, gotTeam.RemainingBudget)
}

func TestMarkUnsoldAndReopenAll(t *testing.T) {
	f := newFixture(t)
	p1 := f.addPlayer(t, "R. Sharma")
	p2 := f.addPlayer(t, "V. Kohli")
	ctx := context.Background()

	_, err := f.engine.MarkUnsold(ctx, f.auction.ID, p1.ID)
	require.NoError(t, err)
	_, err = f.engine.MarkUnsold(ctx, f.auction.ID, p2.ID)
	require.NoError(t, err)

	reopened, err := f.engine.ReopenAllUnsold(ctx, f.auction.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, reopened)

	// A second sweep finds nothing to do.
	reopened, err = f.engine.ReopenAllUnsold(ctx, f.auction.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, reopened)
}

func TestRepairOrphanedSold(t *testing.T) {
	f := newFixture(t)
	tm := f.addTeam(t, "Strikers")
	p := f.addPlayer(t, "R. Sharma")
	ctx := context.Background()

	_, err := f.engine.PlaceBid(ctx, f.auction.ID, p.ID, tm.ID, 150)
	require.NoError(t, err)

	// Deleting the team detaches its players but leaves them SOLD.
	require.NoError(t, f.store.DeleteTeam(ctx, tm.ID))

	repaired, err := f.engine.RepairOrphanedSold(ctx, f.auction.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, repaired)

	gotPlayer, err := f.store.GetPlayer(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlayerStatusAvailable, gotPlayer.Status)
	assert.Nil(t, gotPlayer.TeamID)
	assert.Equal(t, 100.0, gotPlayer.CurrentPrice)

	repaired, err = f.engine.RepairOrphanedSold(ctx, f.auction.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, repaired)
}

func TestSetTeamBudget(t *testing.T) {
	f := newFixture(t)
	tm := f.addTeam(t, "Strikers")
	p := f.addPlayer(t, "R. Sharma")
	ctx := context.Background()

	_, err := f.engine.PlaceBid(ctx, f.auction.ID, p.ID, tm.ID, 300)
	require.NoError(t, err)

	updated, err := f.engine.SetTeamBudget(ctx, f.auction.ID, tm.ID, 500)
	require.NoError(t, err)
	assert.Equal(t, 500.0, updated.BudgetAmount)
	assert.Equal(t, 200.0, updated.RemainingBudget)

	updated, err = f.engine.SetTeamBudget(ctx, f.auction.ID, tm.ID, 200)
	require.NoError(t, err)
	assert.Equal(t, 0.0, updated.RemainingBudget)
}

func TestConcurrentBidsExactlyOneWins(t *testing.T) {
	f := newFixture(t)
	p := f.addPlayer(t, "R. Sharma")
	ctx := context.Background()

	const bidders = 10
	teams := make([]*models.Team, bidders)
	for i := range teams {
		teams[i] = f.addTeam(t, "Team "+string(rune('A'+i)))
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	wg.Add(bidders)
	for i := 0; i < bidders; i++ {
		go func(i int) {
			defer wg.Done()
			_, err := f.engine.PlaceBid(ctx, f.auction.ID, p.ID, teams[i].ID, float64(150+i*10))
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			} else {
				assert.True(t, apperrors.IsConflict(err))
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)

	// Exactly one team paid; the others are untouched.
	paid := 0
	for _, tm := range teams {
		got, err := f.store.GetTeam(ctx, tm.ID)
		require.NoError(t, err)
		if got.PlayersCount > 0 {
			paid++
			assert.Equal(t, got.BudgetAmount-got.RemainingBudget, got.PointsUsed)
		}
	}
	assert.Equal(t, 1, paid)
}
