// Package clearing computes an auction's uniform clearing order and filled
// amount from its initial offer and sorted bid queue, mirroring the
// on-chain settlement algorithm exactly.
package clearing

import (
	"errors"
	"sort"

	"github.com/holiman/uint256"

	"github.com/gnosis-builders/batchauction-orderbook/pkg/model"
)

// ErrOverflow is returned whenever a checked 256-bit operation would wrap.
// The caller must treat this as a clearing failure, never clamp or ignore it.
var ErrOverflow = errors.New("clearing: arithmetic overflow")

// ErrZeroBuy is returned when a bid (or the initial offer) has a zero buy
// amount at a point where it would be used as a divisor.
var ErrZeroBuy = errors.New("clearing: zero buy amount used as divisor")

// Result is the outcome of a clearing run.
type Result struct {
	ClearingOrder model.Order
	Filled        *uint256.Int
	TotalBidSum   *uint256.Int
}

// Clear computes the uniform clearing order for an auction given its initial
// offer (sell0, buy0) and its bids. bids need not be pre-sorted; Clear sorts
// a copy under the Order total order (best price first) before walking it.
func Clear(sell0, buy0 *uint256.Int, bids []model.Order) (Result, error) {
	sorted := make([]model.Order, len(bids))
	copy(sorted, bids)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })

	sigma := uint256.NewInt(0)
	var stopOrder model.Order
	stopped := false

	for _, o := range sorted {
		newSigma, overflow := new(uint256.Int).AddOverflow(sigma, o.Sell)
		if overflow {
			return Result{}, ErrOverflow
		}
		sigma = newSigma

		left, ov1 := new(uint256.Int).MulOverflow(sigma, o.Buy)
		if ov1 {
			return Result{}, ErrOverflow
		}
		right, ov2 := new(uint256.Int).MulOverflow(sell0, o.Sell)
		if ov2 {
			return Result{}, ErrOverflow
		}

		if left.Cmp(right) >= 0 {
			stopOrder = o
			stopped = true
			break
		}
	}

	switch {
	case stopped && sigma.Sign() > 0:
		return clearAtStop(sell0, sigma, stopOrder)
	case sigma.Cmp(buy0) > 0:
		clearingOrder := model.Order{Sell: new(uint256.Int).Set(sigma), Buy: new(uint256.Int).Set(sell0), UserID: 0}
		return Result{ClearingOrder: clearingOrder, Filled: uint256.NewInt(0), TotalBidSum: sigma}, nil
	default:
		if buy0.IsZero() {
			return Result{}, ErrZeroBuy
		}
		num, ov := new(uint256.Int).MulOverflow(sigma, sell0)
		if ov {
			return Result{}, ErrOverflow
		}
		filled := new(uint256.Int).Div(num, buy0)
		clearingOrder := model.Order{Sell: new(uint256.Int).Set(buy0), Buy: new(uint256.Int).Set(sell0), UserID: 0}
		return Result{ClearingOrder: clearingOrder, Filled: filled, TotalBidSum: sigma}, nil
	}
}

func clearAtStop(sell0, sigma *uint256.Int, o model.Order) (Result, error) {
	if o.Buy.IsZero() {
		return Result{}, ErrZeroBuy
	}
	num, ov := new(uint256.Int).MulOverflow(sell0, o.Sell)
	if ov {
		return Result{}, ErrOverflow
	}
	quotient := new(uint256.Int).Div(num, o.Buy)

	uncovered, underflow := new(uint256.Int).SubOverflow(sigma, quotient)
	if underflow {
		return Result{}, ErrOverflow
	}

	if o.Sell.Cmp(uncovered) >= 0 {
		filled, underflow := new(uint256.Int).SubOverflow(o.Sell, uncovered)
		if underflow {
			return Result{}, ErrOverflow
		}
		return Result{ClearingOrder: o, Filled: filled, TotalBidSum: sigma}, nil
	}

	sellAmt, underflow := new(uint256.Int).SubOverflow(sigma, o.Sell)
	if underflow {
		return Result{}, ErrOverflow
	}
	clearingOrder := model.Order{Sell: sellAmt, Buy: new(uint256.Int).Set(sell0), UserID: 0}
	return Result{ClearingOrder: clearingOrder, Filled: uint256.NewInt(0), TotalBidSum: sigma}, nil
}
