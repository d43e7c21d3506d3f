package memstore

import (
	"sort"

	"github.com/kpatel93/auctionday/go/internal/models"
)

// Map iteration order is random; list reads sort the way the postgres
// queries do so both backends behave alike.

func sortAuctionsByDateAsc(auctions []models.Auction) {
	sort.Slice(auctions, func(i, j int) bool {
		return auctions[i].AuctionDate.Before(auctions[j].AuctionDate)
	})
}

func sortAuctionsByDateDesc(auctions []models.Auction) {
	sort.Slice(auctions, func(i, j int) bool {
		return auctions[j].AuctionDate.Before(auctions[i].AuctionDate)
	})
}

func sortTeamsByName(teams []models.Team) {
	sort.Slice(teams, func(i, j int) bool {
		return teams[i].Name < teams[j].Name
	})
}

func sortPlayersByName(players []models.Player) {
	sort.Slice(players, func(i, j int) bool {
		return players[i].Name < players[j].Name
	})
}

func sortPlayersByPriceDesc(players []models.Player) {
	sort.Slice(players, func(i, j int) bool {
		if players[i].CurrentPrice != players[j].CurrentPrice {
			return players[i].CurrentPrice > players[j].CurrentPrice
		}
		return players[i].Name < players[j].Name
	})
}

func sortBidsByPlacedDesc(bids []models.Bid) {
	sort.Slice(bids, func(i, j int) bool {
		return bids[j].PlacedAt.Before(bids[i].PlacedAt)
	})
}

func sortEntitlementsByCreatedDesc(ents []models.AccessEntitlement) {
	sort.Slice(ents, func(i, j int) bool {
		return ents[j].CreatedAt.Before(ents[i].CreatedAt)
	})
}
