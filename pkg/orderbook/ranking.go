package orderbook

import (
	"sort"

	"github.com/gnosis-builders/batchauction-orderbook/pkg/model"
)

// GetMostInterestingAuctions returns up to n still-open auctions ordered by
// interest_score descending, NaN scores sorted last.
func (s *State) GetMostInterestingAuctions(n int, nowUnix int64) []model.AuctionDetails {
	s.detailsMu.RLock()
	open := make([]model.AuctionDetails, 0, len(s.details))
	for _, d := range s.details {
		if !d.IsClosed(nowUnix) {
			open = append(open, *d)
		}
	}
	s.detailsMu.RUnlock()

	sort.SliceStable(open, func(i, j int) bool {
		return floatDescLess(open[i].InterestScore, open[j].InterestScore)
	})
	return truncate(open, n)
}

// GetMostInterestingClosedAuctions returns up to n closed auctions ordered
// by usd_amount_traded descending, NaN amounts sorted last.
func (s *State) GetMostInterestingClosedAuctions(n int, nowUnix int64) []model.AuctionDetails {
	s.detailsMu.RLock()
	closed := make([]model.AuctionDetails, 0, len(s.details))
	for _, d := range s.details {
		if d.IsClosed(nowUnix) {
			closed = append(closed, *d)
		}
	}
	s.detailsMu.RUnlock()

	sort.SliceStable(closed, func(i, j int) bool {
		return floatDescLess(closed[i].USDAmountTraded, closed[j].USDAmountTraded)
	})
	return truncate(closed, n)
}

// floatDescLess orders a before b when sorting descending, with NaN values
// always sorting after every non-NaN value regardless of comparison side.
func floatDescLess(a, b float64) bool {
	aNaN, bNaN := isNaN(a), isNaN(b)
	switch {
	case aNaN && bNaN:
		return false
	case aNaN:
		return false
	case bNaN:
		return true
	default:
		return a > b
	}
}

func truncate(d []model.AuctionDetails, n int) []model.AuctionDetails {
	if n < 0 || n >= len(d) {
		return d
	}
	return d[:n]
}
