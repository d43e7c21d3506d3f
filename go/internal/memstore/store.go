package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/kpatel93/auctionday/go/internal/allocation"
	"github.com/kpatel93/auctionday/go/internal/apperrors"
	"github.com/kpatel93/auctionday/go/internal/auction"
	"github.com/kpatel93/auctionday/go/internal/bidrule"
	"github.com/kpatel93/auctionday/go/internal/entitlement"
	"github.com/kpatel93/auctionday/go/internal/models"
	"github.com/kpatel93/auctionday/go/internal/player"
	"github.com/kpatel93/auctionday/go/internal/team"
	"github.com/kpatel93/auctionday/go/internal/users"
)

// Store keeps everything in maps behind one RWMutex. It satisfies all
// of the repository interfaces plus allocation.Store, which makes it
// the backend for tests and for running without postgres. Reads hand
// out copies; callers never share memory with the store.
type Store struct {
	mu sync.RWMutex

	auctions     map[uuid.UUID]models.Auction
	teams        map[uuid.UUID]models.Team
	players      map[uuid.UUID]models.Player
	bids         map[uuid.UUID]models.Bid
	bidRules     map[uuid.UUID]models.BidRule
	entitlements map[uuid.UUID]models.AccessEntitlement
	users        map[uuid.UUID]models.User

	clock clockwork.Clock
}

// NewStore creates an empty in-memory store.
func NewStore(clock clockwork.Clock) *Store {
	return &Store{
		auctions:     make(map[uuid.UUID]models.Auction),
		teams:        make(map[uuid.UUID]models.Team),
		players:      make(map[uuid.UUID]models.Player),
		bids:         make(map[uuid.UUID]models.Bid),
		bidRules:     make(map[uuid.UUID]models.BidRule),
		entitlements: make(map[uuid.UUID]models.AccessEntitlement),
		users:        make(map[uuid.UUID]models.User),
		clock:        clock,
	}
}

// ---- auctions ----

func (s *Store) CreateAuction(_ context.Context, req auction.CreateAuctionRequest) (*models.Auction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.auctions {
		if a.Name == req.Name && a.CreatedBy == req.CreatedBy {
			return nil, apperrors.Conflictf("an auction named %q already exists", req.Name)
		}
	}
	now := s.clock.Now().UTC()
	a := models.Auction{
		ID:                  uuid.New(),
		Name:                req.Name,
		LogoURL:             req.LogoURL,
		AuctionDate:         req.AuctionDate,
		PointsPerTeam:       req.PointsPerTeam,
		TotalTeams:          req.TotalTeams,
		MinimumBid:          req.MinimumBid,
		BidIncreaseBy:       req.BidIncreaseBy,
		BasePrice:           req.BasePrice,
		PlayersPerTeam:      req.PlayersPerTeam,
		IsActive:            true,
		RegistrationEnabled: req.RegistrationEnabled,
		CreatedBy:           req.CreatedBy,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	s.auctions[a.ID] = a
	return &a, nil
}

func (s *Store) GetAuction(_ context.Context, id uuid.UUID) (*models.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.auctions[id]
	if !ok {
		return nil, apperrors.NotFoundf("auction %s not found", id)
	}
	return &a, nil
}

func (s *Store) ListAuctionsByCreator(_ context.Context, username string) ([]models.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Auction
	for _, a := range s.auctions {
		if a.CreatedBy == username {
			out = append(out, a)
		}
	}
	sortAuctionsByDateDesc(out)
	return out, nil
}

func (s *Store) ListUpcomingAuctions(_ context.Context, after time.Time) ([]models.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Auction
	for _, a := range s.auctions {
		if a.IsActive && !a.AuctionDate.Before(after) {
			out = append(out, a)
		}
	}
	sortAuctionsByDateAsc(out)
	return out, nil
}

func (s *Store) ListPastAuctions(_ context.Context, before time.Time) ([]models.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Auction
	for _, a := range s.auctions {
		if a.AuctionDate.Before(before) {
			out = append(out, a)
		}
	}
	sortAuctionsByDateDesc(out)
	return out, nil
}

func (s *Store) UpdateAuction(_ context.Context, id uuid.UUID, req auction.UpdateAuctionRequest) (*models.Auction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.auctions[id]
	if !ok {
		return nil, apperrors.NotFoundf("auction %s not found", id)
	}
	if req.Name != nil {
		a.Name = *req.Name
	}
	if req.LogoURL != nil {
		a.LogoURL = *req.LogoURL
	}
	if req.AuctionDate != nil {
		a.AuctionDate = *req.AuctionDate
	}
	if req.MinimumBid != nil {
		a.MinimumBid = *req.MinimumBid
	}
	if req.BidIncreaseBy != nil {
		a.BidIncreaseBy = *req.BidIncreaseBy
	}
	if req.BasePrice != nil {
		a.BasePrice = *req.BasePrice
	}
	if req.IsActive != nil {
		a.IsActive = *req.IsActive
	}
	if req.RegistrationEnabled != nil {
		a.RegistrationEnabled = *req.RegistrationEnabled
	}
	a.UpdatedAt = s.clock.Now().UTC()
	s.auctions[id] = a
	return &a, nil
}

func (s *Store) DeleteAuction(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.auctions[id]; !ok {
		return apperrors.NotFoundf("auction %s not found", id)
	}
	delete(s.auctions, id)
	for tid, t := range s.teams {
		if t.AuctionID == id {
			delete(s.teams, tid)
		}
	}
	for pid, p := range s.players {
		if p.AuctionID == id {
			delete(s.players, pid)
		}
	}
	for bid, b := range s.bids {
		if b.AuctionID == id {
			delete(s.bids, bid)
		}
	}
	for rid, r := range s.bidRules {
		if r.AuctionID == id {
			delete(s.bidRules, rid)
		}
	}
	return nil
}

// ---- teams ----

func (s *Store) CreateTeam(_ context.Context, req team.CreateTeamRequest) (*models.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.teams {
		if t.AuctionID == req.AuctionID && t.Name == req.Name {
			return nil, apperrors.Conflictf("a team named %q already exists in this auction", req.Name)
		}
	}
	t := models.Team{
		ID:              uuid.New(),
		AuctionID:       req.AuctionID,
		Name:            req.Name,
		LogoURL:         req.LogoURL,
		BudgetAmount:    req.BudgetAmount,
		RemainingBudget: req.BudgetAmount,
		IsActive:        true,
		CreatedAt:       s.clock.Now().UTC(),
	}
	s.teams[t.ID] = t
	return &t, nil
}

func (s *Store) GetTeam(_ context.Context, id uuid.UUID) (*models.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.teams[id]
	if !ok {
		return nil, apperrors.NotFoundf("team %s not found", id)
	}
	return &t, nil
}

func (s *Store) ListTeamsByAuction(_ context.Context, auctionID uuid.UUID) ([]models.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Team
	for _, t := range s.teams {
		if t.AuctionID == auctionID {
			out = append(out, t)
		}
	}
	sortTeamsByName(out)
	return out, nil
}

func (s *Store) CountTeamsByAuction(_ context.Context, auctionID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, t := range s.teams {
		if t.AuctionID == auctionID {
			count++
		}
	}
	return count, nil
}

func (s *Store) UpdateTeam(_ context.Context, id uuid.UUID, req team.UpdateTeamRequest) (*models.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.teams[id]
	if !ok {
		return nil, apperrors.NotFoundf("team %s not found", id)
	}
	if req.Name != nil {
		for _, other := range s.teams {
			if other.ID != id && other.AuctionID == t.AuctionID && other.Name == *req.Name {
				return nil, apperrors.Conflictf("a team with that name already exists in this auction")
			}
		}
		t.Name = *req.Name
	}
	if req.LogoURL != nil {
		t.LogoURL = *req.LogoURL
	}
	if req.IsActive != nil {
		t.IsActive = *req.IsActive
	}
	s.teams[id] = t
	return &t, nil
}

func (s *Store) DeleteTeam(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.teams[id]; !ok {
		return apperrors.NotFoundf("team %s not found", id)
	}
	delete(s.teams, id)
	for pid, p := range s.players {
		if p.TeamID != nil && *p.TeamID == id {
			p.TeamID = nil
			p.UpdatedAt = s.clock.Now().UTC()
			s.players[pid] = p
		}
	}
	return nil
}

// ---- players ----

func (s *Store) CreatePlayer(_ context.Context, req player.CreatePlayerRequest) (*models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now().UTC()
	p := models.Player{
		ID:           uuid.New(),
		AuctionID:    req.AuctionID,
		Name:         req.Name,
		Age:          req.Age,
		Role:         req.Role,
		MobileNumber: req.MobileNumber,
		PhotoURL:     req.PhotoURL,
		BasePrice:    req.BasePrice,
		CurrentPrice: req.BasePrice,
		Status:       models.PlayerStatusAvailable,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.players[p.ID] = p
	return &p, nil
}

func (s *Store) GetPlayer(_ context.Context, id uuid.UUID) (*models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.players[id]
	if !ok {
		return nil, apperrors.NotFoundf("player %s not found", id)
	}
	return copyPlayer(p), nil
}

func (s *Store) ListPlayersByAuction(_ context.Context, auctionID uuid.UUID, status *models.PlayerStatus) ([]models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Player
	for _, p := range s.players {
		if p.AuctionID != auctionID {
			continue
		}
		if status != nil && p.Status != *status {
			continue
		}
		out = append(out, *copyPlayer(p))
	}
	sortPlayersByName(out)
	return out, nil
}

func (s *Store) ListPlayersByTeam(_ context.Context, teamID uuid.UUID) ([]models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Player
	for _, p := range s.players {
		if p.TeamID != nil && *p.TeamID == teamID {
			out = append(out, *copyPlayer(p))
		}
	}
	sortPlayersByPriceDesc(out)
	return out, nil
}

func (s *Store) ListPlayersByStatus(_ context.Context, auctionID uuid.UUID, status models.PlayerStatus) ([]models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Player
	for _, p := range s.players {
		if p.AuctionID == auctionID && p.Status == status {
			out = append(out, *copyPlayer(p))
		}
	}
	sortPlayersByName(out)
	return out, nil
}

func (s *Store) UpdatePlayer(_ context.Context, id uuid.UUID, req player.UpdatePlayerRequest) (*models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[id]
	if !ok {
		return nil, apperrors.NotFoundf("player %s not found", id)
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Age != nil {
		p.Age = *req.Age
	}
	if req.Role != nil {
		p.Role = *req.Role
	}
	if req.MobileNumber != nil {
		p.MobileNumber = *req.MobileNumber
	}
	if req.PhotoURL != nil {
		p.PhotoURL = *req.PhotoURL
	}
	if req.BasePrice != nil {
		p.BasePrice = *req.BasePrice
		if p.Status == models.PlayerStatusAvailable {
			p.CurrentPrice = *req.BasePrice
		}
	}
	p.UpdatedAt = s.clock.Now().UTC()
	s.players[id] = p
	return copyPlayer(p), nil
}

func (s *Store) DeletePlayer(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.players[id]; !ok {
		return apperrors.NotFoundf("player %s not found", id)
	}
	delete(s.players, id)
	return nil
}

// ---- allocation commits ----

func (s *Store) CommitSale(_ context.Context, c allocation.SaleCommit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.players[c.Player.ID]; !ok {
		return apperrors.NotFoundf("player %s not found", c.Player.ID)
	}
	if _, ok := s.teams[c.Team.ID]; !ok {
		return apperrors.NotFoundf("team %s not found", c.Team.ID)
	}
	if c.Bid != nil {
		for id, b := range s.bids {
			if b.PlayerID == c.Bid.PlayerID && b.IsWinningBid {
				b.IsWinningBid = false
				s.bids[id] = b
			}
		}
		s.bids[c.Bid.ID] = *c.Bid
	}
	s.players[c.Player.ID] = *copyPlayer(*c.Player)
	s.teams[c.Team.ID] = *c.Team
	return nil
}

func (s *Store) CommitRelease(_ context.Context, c allocation.ReleaseCommit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.players[c.Player.ID]; !ok {
		return apperrors.NotFoundf("player %s not found", c.Player.ID)
	}
	if _, ok := s.teams[c.Team.ID]; !ok {
		return apperrors.NotFoundf("team %s not found", c.Team.ID)
	}
	s.players[c.Player.ID] = *copyPlayer(*c.Player)
	s.teams[c.Team.ID] = *c.Team
	return nil
}

func (s *Store) UpdatePlayerState(_ context.Context, p *models.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.players[p.ID]; !ok {
		return apperrors.NotFoundf("player %s not found", p.ID)
	}
	s.players[p.ID] = *copyPlayer(*p)
	return nil
}

func (s *Store) UpdateTeamLedger(_ context.Context, t *models.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.teams[t.ID]; !ok {
		return apperrors.NotFoundf("team %s not found", t.ID)
	}
	s.teams[t.ID] = *t
	return nil
}

// ---- bids (read side) ----

func (s *Store) ListBidsByPlayer(_ context.Context, playerID uuid.UUID) ([]models.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Bid
	for _, b := range s.bids {
		if b.PlayerID == playerID {
			out = append(out, b)
		}
	}
	sortBidsByPlacedDesc(out)
	return out, nil
}

func (s *Store) ListBidsByTeam(_ context.Context, teamID uuid.UUID) ([]models.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Bid
	for _, b := range s.bids {
		if b.TeamID == teamID {
			out = append(out, b)
		}
	}
	sortBidsByPlacedDesc(out)
	return out, nil
}

func (s *Store) ListBidsByAuction(_ context.Context, auctionID uuid.UUID) ([]models.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Bid
	for _, b := range s.bids {
		if b.AuctionID == auctionID {
			out = append(out, b)
		}
	}
	sortBidsByPlacedDesc(out)
	return out, nil
}

func (s *Store) GetWinningBid(_ context.Context, playerID uuid.UUID) (*models.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, b := range s.bids {
		if b.PlayerID == playerID && b.IsWinningBid {
			return &b, nil
		}
	}
	return nil, apperrors.NotFoundf("no winning bid for player %s", playerID)
}

// ---- bid rules ----

func (s *Store) CreateBidRule(_ context.Context, req bidrule.CreateBidRuleRequest) (*models.BidRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.bidRules {
		if r.AuctionID == req.AuctionID && r.ThresholdAmount == req.ThresholdAmount {
			return nil, apperrors.Conflictf("a bid rule with threshold %.2f already exists for this auction", req.ThresholdAmount)
		}
	}
	r := models.BidRule{
		ID:              uuid.New(),
		AuctionID:       req.AuctionID,
		ThresholdAmount: req.ThresholdAmount,
		IncrementAmount: req.IncrementAmount,
	}
	s.bidRules[r.ID] = r
	return &r, nil
}

func (s *Store) GetBidRule(_ context.Context, id uuid.UUID) (*models.BidRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.bidRules[id]
	if !ok {
		return nil, apperrors.NotFoundf("bid rule %s not found", id)
	}
	return &r, nil
}

func (s *Store) ListBidRulesByAuction(ctx context.Context, auctionID uuid.UUID) ([]models.BidRule, error) {
	return s.ListBidRules(ctx, auctionID)
}

func (s *Store) ListBidRules(_ context.Context, auctionID uuid.UUID) ([]models.BidRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.BidRule
	for _, r := range s.bidRules {
		if r.AuctionID == auctionID {
			out = append(out, r)
		}
	}
	bidrule.SortByThreshold(out)
	return out, nil
}

func (s *Store) UpdateBidRule(_ context.Context, id uuid.UUID, req bidrule.UpdateBidRuleRequest) (*models.BidRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.bidRules[id]
	if !ok {
		return nil, apperrors.NotFoundf("bid rule %s not found", id)
	}
	if req.ThresholdAmount != nil {
		for _, other := range s.bidRules {
			if other.ID != id && other.AuctionID == r.AuctionID && other.ThresholdAmount == *req.ThresholdAmount {
				return nil, apperrors.Conflictf("a bid rule with that threshold already exists for this auction")
			}
		}
		r.ThresholdAmount = *req.ThresholdAmount
	}
	if req.IncrementAmount != nil {
		r.IncrementAmount = *req.IncrementAmount
	}
	s.bidRules[id] = r
	return &r, nil
}

func (s *Store) DeleteBidRule(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bidRules[id]; !ok {
		return apperrors.NotFoundf("bid rule %s not found", id)
	}
	delete(s.bidRules, id)
	return nil
}

// ---- entitlements ----

func (s *Store) CreateEntitlement(_ context.Context, req entitlement.CreateEntitlementRequest) (*models.AccessEntitlement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now().UTC()
	e := models.AccessEntitlement{
		ID:        uuid.New(),
		UserID:    req.UserID,
		Username:  req.Username,
		Type:      req.Type,
		AuctionID: req.AuctionID,
		StartsAt:  req.StartsAt,
		ExpiresAt: req.ExpiresAt,
		Notes:     req.Notes,
		GrantedBy: req.GrantedBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.entitlements[e.ID] = e
	return &e, nil
}

func (s *Store) GetEntitlement(_ context.Context, id uuid.UUID) (*models.AccessEntitlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entitlements[id]
	if !ok {
		return nil, apperrors.NotFoundf("entitlement %s not found", id)
	}
	return &e, nil
}

func (s *Store) ListEntitlementsByUsername(_ context.Context, username string) ([]models.AccessEntitlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.AccessEntitlement
	for _, e := range s.entitlements {
		if e.Username == username {
			out = append(out, e)
		}
	}
	sortEntitlementsByCreatedDesc(out)
	return out, nil
}

func (s *Store) ListEntitlements(_ context.Context) ([]models.AccessEntitlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.AccessEntitlement, 0, len(s.entitlements))
	for _, e := range s.entitlements {
		out = append(out, e)
	}
	sortEntitlementsByCreatedDesc(out)
	return out, nil
}

func (s *Store) UpdateEntitlement(_ context.Context, id uuid.UUID, req entitlement.UpdateEntitlementRequest) (*models.AccessEntitlement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entitlements[id]
	if !ok {
		return nil, apperrors.NotFoundf("entitlement %s not found", id)
	}
	if req.ExpiresAt != nil {
		e.ExpiresAt = req.ExpiresAt
	}
	if req.Notes != nil {
		e.Notes = *req.Notes
	}
	e.UpdatedAt = s.clock.Now().UTC()
	s.entitlements[id] = e
	return &e, nil
}

func (s *Store) DeleteEntitlement(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entitlements[id]; !ok {
		return apperrors.NotFoundf("entitlement %s not found", id)
	}
	delete(s.entitlements, id)
	return nil
}

// ---- users ----

func (s *Store) CreateUser(_ context.Context, req users.CreateUserRequest) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == req.Username {
			return nil, apperrors.Conflictf("username %s is already taken", req.Username)
		}
	}
	u := models.User{
		ID:        uuid.New(),
		Username:  req.Username,
		Roles:     append([]models.Role(nil), req.Roles...),
		CreatedAt: s.clock.Now().UTC(),
	}
	s.users[u.ID] = u
	return copyUser(u), nil
}

func (s *Store) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.NotFoundf("user %s not found", id)
	}
	return copyUser(u), nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			return copyUser(u), nil
		}
	}
	return nil, apperrors.NotFoundf("user %s not found", username)
}

func copyPlayer(p models.Player) *models.Player {
	out := p
	if p.TeamID != nil {
		id := *p.TeamID
		out.TeamID = &id
	}
	return &out
}

func copyUser(u models.User) *models.User {
	out := u
	out.Roles = append([]models.Role(nil), u.Roles...)
	return &out
}
