// Package orderbook holds the in-memory per-auction state: the three
// parallel order views, the user table, the auction-participation index and
// auction metadata, per the dual-orderbook design (confirmed + latest).
package orderbook

import (
	"errors"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/gnosis-builders/batchauction-orderbook/pkg/model"
)

// ErrAuctionNotFound is returned by any read operation against an auction id
// absent from auction_details.
var ErrAuctionNotFound = errors.New("orderbook: auction not found")

// State holds one orderbook view (confirmed or latest). Each map has its
// own reader-writer lock; readers never block readers, and a write that
// touches several maps releases each lock before acquiring the next.
type State struct {
	ordersMu sync.RWMutex
	orders   map[uint64][]model.Order

	displayMu sync.RWMutex
	display   map[uint64][]model.PricePoint

	unclaimedMu sync.RWMutex
	unclaimed   map[uint64][]model.Order

	usersMu sync.RWMutex
	users   map[common.Address]uint64

	participationMu sync.RWMutex
	participation   map[uint64]map[uint64]struct{} // userID -> set of auctionID

	detailsMu sync.RWMutex
	details   map[uint64]*model.AuctionDetails
}

// New returns an empty orderbook state.
func New() *State {
	return &State{
		orders:        make(map[uint64][]model.Order),
		display:       make(map[uint64][]model.PricePoint),
		unclaimed:     make(map[uint64][]model.Order),
		users:         make(map[common.Address]uint64),
		participation: make(map[uint64]map[uint64]struct{}),
		details:       make(map[uint64]*model.AuctionDetails),
	}
}

// InsertOrders appends orders to all three views and records each distinct
// user id's participation in the auction. A no-op on empty input.
func (s *State) InsertOrders(auctionID uint64, orders []model.Order) {
	if len(orders) == 0 {
		return
	}

	s.ordersMu.Lock()
	s.orders[auctionID] = append(s.orders[auctionID], orders...)
	s.ordersMu.Unlock()

	points := make([]model.PricePoint, 0, len(orders))
	decBuy, decSell := s.decimalsFor(auctionID)
	for _, o := range orders {
		points = append(points, o.ToPricePoint(decBuy, decSell))
	}
	s.displayMu.Lock()
	s.display[auctionID] = append(s.display[auctionID], points...)
	s.displayMu.Unlock()

	s.unclaimedMu.Lock()
	s.unclaimed[auctionID] = append(s.unclaimed[auctionID], orders...)
	s.unclaimedMu.Unlock()

	s.participationMu.Lock()
	for _, o := range orders {
		set, ok := s.participation[o.UserID]
		if !ok {
			set = make(map[uint64]struct{})
			s.participation[o.UserID] = set
		}
		set[auctionID] = struct{}{}
	}
	s.participationMu.Unlock()
}

// decimalsFor looks up the bidding/auctioning decimals recorded for an
// auction; if the auction isn't known yet (shouldn't happen in practice,
// since orders only arrive after NewAuction), it falls back to 0/0 so the
// display projection degrades instead of panicking.
func (s *State) decimalsFor(auctionID uint64) (decBuy, decSell uint8) {
	s.detailsMu.RLock()
	defer s.detailsMu.RUnlock()
	d, ok := s.details[auctionID]
	if !ok {
		return 0, 0
	}
	return d.AuctioningTokenDec, d.BiddingTokenDec
}

// RemoveOrders removes matching entries from orders and orders_without_claimed
// (and their display projections), per a cancellation.
func (s *State) RemoveOrders(auctionID uint64, toRemove []model.Order) {
	if len(toRemove) == 0 {
		return
	}

	s.ordersMu.Lock()
	orig := s.orders[auctionID]
	kept, removedIdx := removeMatching(orig, toRemove)
	s.orders[auctionID] = kept
	s.ordersMu.Unlock()

	// The display view is sorted by price, not in the orders' order, so each
	// removed order's projection is matched by value rather than by index.
	if len(removedIdx) > 0 {
		decBuy, decSell := s.decimalsFor(auctionID)
		s.displayMu.Lock()
		points := s.display[auctionID]
		for _, i := range removedIdx {
			p := orig[i].ToPricePoint(decBuy, decSell)
			for j := range points {
				if points[j] == p {
					points = append(points[:j], points[j+1:]...)
					break
				}
			}
		}
		s.display[auctionID] = points
		s.displayMu.Unlock()
	}

	s.unclaimedMu.Lock()
	kept, _ = removeMatching(s.unclaimed[auctionID], toRemove)
	s.unclaimed[auctionID] = kept
	s.unclaimedMu.Unlock()
}

// RemoveClaimedOrders removes entries only from orders_without_claimed,
// leaving the full history (orders) and its display projection intact.
func (s *State) RemoveClaimedOrders(auctionID uint64, toRemove []model.Order) {
	if len(toRemove) == 0 {
		return
	}
	s.unclaimedMu.Lock()
	kept, _ := removeMatching(s.unclaimed[auctionID], toRemove)
	s.unclaimed[auctionID] = kept
	s.unclaimedMu.Unlock()
}

// removeMatching returns the slice with every order equal to one in
// toRemove dropped (first match consumed, so duplicates in toRemove only
// remove as many copies as requested), plus the indices removed from orig
// for use by a parallel slice.
func removeMatching(orig []model.Order, toRemove []model.Order) (kept []model.Order, removedIdx []int) {
	remaining := make([]model.Order, len(toRemove))
	copy(remaining, toRemove)

	kept = make([]model.Order, 0, len(orig))
	for i, o := range orig {
		matched := false
		for j, r := range remaining {
			if o.Equal(r) {
				remaining = append(remaining[:j], remaining[j+1:]...)
				matched = true
				break
			}
		}
		if matched {
			removedIdx = append(removedIdx, i)
			continue
		}
		kept = append(kept, o)
	}
	return kept, removedIdx
}

func removeIndices(orig []model.PricePoint, idx []int) []model.PricePoint {
	skip := make(map[int]struct{}, len(idx))
	for _, i := range idx {
		skip[i] = struct{}{}
	}
	kept := make([]model.PricePoint, 0, len(orig))
	for i, p := range orig {
		if _, drop := skip[i]; drop {
			continue
		}
		kept = append(kept, p)
	}
	return kept
}

// InsertUsers upserts address -> user id for every user not already known.
func (s *State) InsertUsers(users []model.User) {
	if len(users) == 0 {
		return
	}
	s.usersMu.Lock()
	defer s.usersMu.Unlock()
	for _, u := range users {
		if _, ok := s.users[u.Address]; !ok {
			s.users[u.Address] = u.UserID
		}
	}
}

// SortOrders stable-sorts an auction's full order history under the Order
// total order.
func (s *State) SortOrders(auctionID uint64) {
	s.ordersMu.Lock()
	defer s.ordersMu.Unlock()
	orders := s.orders[auctionID]
	sort.SliceStable(orders, func(i, j int) bool { return orders[i].Less(orders[j]) })
}

// SortOrdersWithoutClaimed stable-sorts the unclaimed view.
func (s *State) SortOrdersWithoutClaimed(auctionID uint64) {
	s.unclaimedMu.Lock()
	defer s.unclaimedMu.Unlock()
	orders := s.unclaimed[auctionID]
	sort.SliceStable(orders, func(i, j int) bool { return orders[i].Less(orders[j]) })
}

// SortOrdersDisplay stable-sorts the display projection by price descending
// (best price first), NaN sorting last.
func (s *State) SortOrdersDisplay(auctionID uint64) {
	s.displayMu.Lock()
	defer s.displayMu.Unlock()
	points := s.display[auctionID]
	sort.SliceStable(points, func(i, j int) bool { return pricePointLess(points[j], points[i]) })
}

func pricePointLess(a, b model.PricePoint) bool {
	aNaN, bNaN := isNaN(a.Price), isNaN(b.Price)
	switch {
	case aNaN && bNaN:
		return false
	case aNaN:
		return true
	case bNaN:
		return false
	default:
		return a.Price < b.Price
	}
}

func isNaN(f float64) bool { return f != f }

// GetUserOrders returns every order in an auction's full history belonging
// to a user.
func (s *State) GetUserOrders(auctionID, userID uint64) []model.Order {
	s.ordersMu.RLock()
	defer s.ordersMu.RUnlock()
	return filterByUser(s.orders[auctionID], userID)
}

// GetUserOrdersWithoutCanceledClaimed returns a user's still-open orders
// (neither cancelled nor claimed).
func (s *State) GetUserOrdersWithoutCanceledClaimed(auctionID, userID uint64) []model.Order {
	s.unclaimedMu.RLock()
	defer s.unclaimedMu.RUnlock()
	return filterByUser(s.unclaimed[auctionID], userID)
}

func filterByUser(orders []model.Order, userID uint64) []model.Order {
	out := make([]model.Order, 0)
	for _, o := range orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out
}

// GetPreviousOrder returns the largest order strictly less than pivot in
// the unclaimed view, or model.QueueStart if none exists. The unclaimed
// view is assumed sorted ascending (as maintained by SortOrdersWithoutClaimed).
func (s *State) GetPreviousOrder(auctionID uint64, pivot model.Order) model.Order {
	s.unclaimedMu.RLock()
	defer s.unclaimedMu.RUnlock()
	orders := s.unclaimed[auctionID]

	best := model.QueueStart
	for _, o := range orders {
		if o.Less(pivot) && best.Less(o) {
			best = o
		}
	}
	return best
}

// OrderBookDisplay is the asks/bids projection returned by the display endpoint.
type OrderBookDisplay struct {
	Asks []model.PricePoint
	Bids []model.PricePoint
}

// GetOrderBookDisplay returns the bid ladder (the display projection of
// every order not cancelled, claimed ones included) plus the single ask
// point representing the auctioneer's initial offer.
func (s *State) GetOrderBookDisplay(auctionID uint64) (OrderBookDisplay, error) {
	s.detailsMu.RLock()
	d, ok := s.details[auctionID]
	s.detailsMu.RUnlock()
	if !ok {
		return OrderBookDisplay{}, ErrAuctionNotFound
	}

	s.displayMu.RLock()
	bids := make([]model.PricePoint, len(s.display[auctionID]))
	copy(bids, s.display[auctionID])
	s.displayMu.RUnlock()

	return OrderBookDisplay{
		Asks: []model.PricePoint{d.InitialAuctionOrderPoint},
		Bids: bids,
	}, nil
}

// GetAllAuctionWithDetails returns every known auction's details.
func (s *State) GetAllAuctionWithDetails() []model.AuctionDetails {
	s.detailsMu.RLock()
	defer s.detailsMu.RUnlock()
	out := make([]model.AuctionDetails, 0, len(s.details))
	for _, d := range s.details {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AuctionID < out[j].AuctionID })
	return out
}

// GetAuctionWithDetails returns a single auction's details.
func (s *State) GetAuctionWithDetails(auctionID uint64) (model.AuctionDetails, error) {
	s.detailsMu.RLock()
	defer s.detailsMu.RUnlock()
	d, ok := s.details[auctionID]
	if !ok {
		return model.AuctionDetails{}, ErrAuctionNotFound
	}
	return *d, nil
}

// GetUsedAuctions returns the sorted set of auction ids a user has ever
// placed an order in.
func (s *State) GetUsedAuctions(userID uint64) []uint64 {
	s.participationMu.RLock()
	defer s.participationMu.RUnlock()
	set := s.participation[userID]
	out := make([]uint64, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SetAuctionDetails creates or replaces an auction's details record.
func (s *State) SetAuctionDetails(d model.AuctionDetails) {
	s.detailsMu.Lock()
	defer s.detailsMu.Unlock()
	s.details[d.AuctionID] = &d
}

// UpdateCurrentPriceOfDetails sets current_clearing_price for an auction.
func (s *State) UpdateCurrentPriceOfDetails(auctionID uint64, price model.PricePoint) {
	s.detailsMu.Lock()
	defer s.detailsMu.Unlock()
	if d, ok := s.details[auctionID]; ok {
		d.CurrentClearingPrice = price
	}
}

// UpdateCurrentBiddingAmountOfDetails sets current_bidding_amount for an auction.
func (s *State) UpdateCurrentBiddingAmountOfDetails(auctionID uint64, amount float64) {
	s.detailsMu.Lock()
	defer s.detailsMu.Unlock()
	if d, ok := s.details[auctionID]; ok {
		d.CurrentBiddingAmount = amount
	}
}

// UpdateInterestScore sets interest_score for an auction.
func (s *State) UpdateInterestScore(auctionID uint64, score float64) {
	s.detailsMu.Lock()
	defer s.detailsMu.Unlock()
	if d, ok := s.details[auctionID]; ok {
		d.InterestScore = score
	}
}

// UpdateUsdAmountTradedOfDetails sets usd_amount_traded for an auction.
func (s *State) UpdateUsdAmountTradedOfDetails(auctionID uint64, usd float64) {
	s.detailsMu.Lock()
	defer s.detailsMu.Unlock()
	if d, ok := s.details[auctionID]; ok {
		d.USDAmountTraded = usd
	}
}

// HasParticipation reports whether a user has ever placed an order in an auction.
func (s *State) HasParticipation(auctionID, userID uint64) bool {
	s.participationMu.RLock()
	defer s.participationMu.RUnlock()
	_, ok := s.participation[userID][auctionID]
	return ok
}

// LookupUserID resolves an address to its contract-assigned user id.
func (s *State) LookupUserID(addr common.Address) (uint64, bool) {
	s.usersMu.RLock()
	defer s.usersMu.RUnlock()
	id, ok := s.users[addr]
	return id, ok
}

// MaxAuctionID returns the highest known auction id, and false if none exist.
func (s *State) MaxAuctionID() (uint64, bool) {
	s.detailsMu.RLock()
	defer s.detailsMu.RUnlock()
	if len(s.details) == 0 {
		return 0, false
	}
	var max uint64
	first := true
	for id := range s.details {
		if first || id > max {
			max = id
			first = false
		}
	}
	return max, true
}

// UnclaimedOrders returns a copy of an auction's unclaimed view, for the
// clearing engine to consume.
func (s *State) UnclaimedOrders(auctionID uint64) []model.Order {
	s.unclaimedMu.RLock()
	defer s.unclaimedMu.RUnlock()
	out := make([]model.Order, len(s.unclaimed[auctionID]))
	copy(out, s.unclaimed[auctionID])
	return out
}

// CloneInto deep-copies every map from s into dst, overwriting dst's
// contents. Used by the maintenance loop to snapshot confirmed into latest
// each cycle. Users are merged (never removed) rather than overwritten.
func (s *State) CloneInto(dst *State) {
	s.ordersMu.RLock()
	orders := cloneOrderMap(s.orders)
	s.ordersMu.RUnlock()

	s.displayMu.RLock()
	display := clonePricePointMap(s.display)
	s.displayMu.RUnlock()

	s.unclaimedMu.RLock()
	unclaimed := cloneOrderMap(s.unclaimed)
	s.unclaimedMu.RUnlock()

	s.participationMu.RLock()
	participation := cloneParticipation(s.participation)
	s.participationMu.RUnlock()

	s.detailsMu.RLock()
	details := cloneDetails(s.details)
	s.detailsMu.RUnlock()

	s.usersMu.RLock()
	users := make([]model.User, 0, len(s.users))
	for addr, id := range s.users {
		users = append(users, model.User{Address: addr, UserID: id})
	}
	s.usersMu.RUnlock()

	dst.ordersMu.Lock()
	dst.orders = orders
	dst.ordersMu.Unlock()

	dst.displayMu.Lock()
	dst.display = display
	dst.displayMu.Unlock()

	dst.unclaimedMu.Lock()
	dst.unclaimed = unclaimed
	dst.unclaimedMu.Unlock()

	dst.participationMu.Lock()
	dst.participation = participation
	dst.participationMu.Unlock()

	dst.detailsMu.Lock()
	dst.details = details
	dst.detailsMu.Unlock()

	dst.InsertUsers(users)
}

func cloneOrderMap(m map[uint64][]model.Order) map[uint64][]model.Order {
	out := make(map[uint64][]model.Order, len(m))
	for k, v := range m {
		cp := make([]model.Order, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}

func clonePricePointMap(m map[uint64][]model.PricePoint) map[uint64][]model.PricePoint {
	out := make(map[uint64][]model.PricePoint, len(m))
	for k, v := range m {
		cp := make([]model.PricePoint, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}

func cloneParticipation(m map[uint64]map[uint64]struct{}) map[uint64]map[uint64]struct{} {
	out := make(map[uint64]map[uint64]struct{}, len(m))
	for userID, set := range m {
		cp := make(map[uint64]struct{}, len(set))
		for id := range set {
			cp[id] = struct{}{}
		}
		out[userID] = cp
	}
	return out
}

func cloneDetails(m map[uint64]*model.AuctionDetails) map[uint64]*model.AuctionDetails {
	out := make(map[uint64]*model.AuctionDetails, len(m))
	for id, d := range m {
		cp := *d
		out[id] = &cp
	}
	return out
}
