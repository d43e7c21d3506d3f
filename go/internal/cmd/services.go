package main

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"github.com/kpatel93/auctionday/go/internal/allocation"
	"github.com/kpatel93/auctionday/go/internal/auction"
	"github.com/kpatel93/auctionday/go/internal/bid"
	"github.com/kpatel93/auctionday/go/internal/bidrule"
	"github.com/kpatel93/auctionday/go/internal/broadcast"
	"github.com/kpatel93/auctionday/go/internal/entitlement"
	"github.com/kpatel93/auctionday/go/internal/memstore"
	"github.com/kpatel93/auctionday/go/internal/player"
	"github.com/kpatel93/auctionday/go/internal/team"
	"github.com/kpatel93/auctionday/go/internal/users"
)

type Services struct {
	Users        *users.App
	Auctions     *auction.App
	Teams        *team.App
	Players      *player.App
	Bids         *bid.App
	BidRules     *bidrule.App
	Entitlements *entitlement.App
	Access       *entitlement.Evaluator
	Engine       *allocation.Engine
}

// repositories is the storage surface the wiring needs, satisfied by
// both the postgres repositories and the in-memory store.
type repositories struct {
	users        users.UserRepository
	auctions     auction.AuctionRepository
	teams        team.TeamRepository
	players      player.PlayerRepository
	bids         bid.BidRepository
	bidRules     bidrule.BidRuleRepository
	entitlements entitlement.EntitlementRepository
	allocation   allocation.Store
}

func setupServices(repos repositories, publisher broadcast.Publisher, clock clockwork.Clock) *Services {
	// Repository layer → engine/evaluator → app layer
	evaluator := entitlement.NewEvaluator(repos.entitlements, repos.users, clock)
	engine := allocation.NewEngine(repos.allocation, publisher, clock)

	usersApp := users.NewApp(repos.users)
	auctionApp := auction.NewApp(repos.auctions, clock)
	teamApp := team.NewApp(repos.teams, repos.auctions, evaluator, engine)
	playerApp := player.NewApp(repos.players, repos.auctions, engine, clock)
	bidApp := bid.NewApp(repos.bids, repos.auctions, engine)
	bidRuleApp := bidrule.NewApp(repos.bidRules, repos.auctions, evaluator)
	entitlementApp := entitlement.NewApp(repos.entitlements, repos.users, repos.auctions, clock)

	return &Services{
		Users:        usersApp,
		Auctions:     auctionApp,
		Teams:        teamApp,
		Players:      playerApp,
		Bids:         bidApp,
		BidRules:     bidRuleApp,
		Entitlements: entitlementApp,
		Access:       evaluator,
		Engine:       engine,
	}
}

func postgresRepositories(pool *pgxpool.Pool) repositories {
	return repositories{
		users:        users.NewRepository(pool),
		auctions:     auction.NewRepository(pool),
		teams:        team.NewRepository(pool),
		players:      player.NewRepository(pool),
		bids:         bid.NewRepository(pool),
		bidRules:     bidrule.NewRepository(pool),
		entitlements: entitlement.NewRepository(pool),
		allocation:   allocation.NewRepository(pool),
	}
}

func memoryRepositories(clock clockwork.Clock) repositories {
	store := memstore.NewStore(clock)
	return repositories{
		users:        store,
		auctions:     store,
		teams:        store,
		players:      store,
		bids:         store,
		bidRules:     store,
		entitlements: store,
		allocation:   store,
	}
}
