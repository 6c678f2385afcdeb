package clearing

import (
	"testing"

	"github.com/holiman/uint256"

	"github.com/gnosis-builders/batchauction-orderbook/pkg/model"
)

func bid(sell, buy, uid uint64) model.Order {
	return model.Order{Sell: uint256.NewInt(sell), Buy: uint256.NewInt(buy), UserID: uid}
}

func TestClearBasic(t *testing.T) {
	sell0, buy0 := uint256.NewInt(4), uint256.NewInt(2)
	bids := []model.Order{bid(2, 2, 1), bid(2, 1, 2), bid(2, 3, 3)}

	res, err := Clear(sell0, buy0, bids)
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if res.ClearingOrder.UserID != 1 || !res.ClearingOrder.Sell.Eq(uint256.NewInt(2)) || !res.ClearingOrder.Buy.Eq(uint256.NewInt(2)) {
		t.Errorf("unexpected clearing order: %+v", res.ClearingOrder)
	}
	if !res.Filled.Eq(uint256.NewInt(2)) {
		t.Errorf("expected filled=2, got %s", res.Filled.Dec())
	}
}

func TestClearPartialFill(t *testing.T) {
	sell0 := uint256.MustFromDecimal("1000000000000000000")    // 1e18
	buy0 := uint256.MustFromDecimal("1300000000000000000000") // 1.3e21

	bids := []model.Order{
		{Sell: uint256.MustFromDecimal("500000000000000000000"), Buy: uint256.MustFromDecimal("364000000000000000"), UserID: 1},
		{Sell: uint256.MustFromDecimal("500000000000000000000"), Buy: uint256.MustFromDecimal("334000000000000000"), UserID: 2},
		{Sell: uint256.MustFromDecimal("10000000000000000000"), Buy: uint256.MustFromDecimal("30700000000000000"), UserID: 3},
		{Sell: uint256.MustFromDecimal("500000000000000000000"), Buy: uint256.MustFromDecimal("374000000000000000"), UserID: 3},
	}

	res, err := Clear(sell0, buy0, bids)
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	want := uint256.MustFromDecimal("500000000000000000000")
	if res.ClearingOrder.UserID != 3 || !res.ClearingOrder.Sell.Eq(want) {
		t.Errorf("expected clearing order sell=5e20 uid=3, got %+v", res.ClearingOrder)
	}
}

func TestClearEmptyBidSet(t *testing.T) {
	sell0, buy0 := uint256.NewInt(10), uint256.NewInt(5)
	res, err := Clear(sell0, buy0, nil)
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if !res.ClearingOrder.Sell.Eq(buy0) || !res.ClearingOrder.Buy.Eq(sell0) || res.ClearingOrder.UserID != 0 {
		t.Errorf("expected initial-offer clearing order, got %+v", res.ClearingOrder)
	}
	if !res.Filled.IsZero() {
		t.Errorf("expected filled=0, got %s", res.Filled.Dec())
	}
	if !res.TotalBidSum.IsZero() {
		t.Errorf("expected total_bid_sum=0, got %s", res.TotalBidSum.Dec())
	}
}

func TestClearSingleBidExactMatch(t *testing.T) {
	sell0, buy0 := uint256.NewInt(10), uint256.NewInt(5)
	b := bid(5, 10, 1) // sells exactly buy0 at the initial S0/B0 ratio, saturating the supply
	res, err := Clear(sell0, buy0, []model.Order{b})
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if res.ClearingOrder.UserID != 1 {
		t.Errorf("expected the sole bid to clear, got %+v", res.ClearingOrder)
	}
	if !res.Filled.Eq(b.Sell) {
		t.Errorf("expected filled = bid sell, got %s", res.Filled.Dec())
	}
	if !res.TotalBidSum.Eq(b.Sell) {
		t.Errorf("expected total_bid_sum = bid sell, got %s", res.TotalBidSum.Dec())
	}
}

func TestClearOverflowReportedNotClamped(t *testing.T) {
	maxU256 := new(uint256.Int).Not(uint256.NewInt(0))
	sell0 := maxU256
	buy0 := uint256.NewInt(1)

	// A bid whose stop-condition product sigma*buy (MaxUint256*2) overflows.
	bids := []model.Order{{Sell: maxU256, Buy: uint256.NewInt(2), UserID: 1}}

	_, err := Clear(sell0, buy0, bids)
	if err != ErrOverflow {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
}

func TestClearUnfilledBelowInitialRatio(t *testing.T) {
	// Demand never reaches the stop condition and never exceeds buy0: the
	// auction clears entirely against the initial offer with a partial fill.
	sell0, buy0 := uint256.NewInt(100), uint256.NewInt(100)
	bids := []model.Order{bid(1, 1, 1)} // bid too small to cover the offer, never triggers the stop

	res, err := Clear(sell0, buy0, bids)
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if res.ClearingOrder.UserID != 0 {
		t.Errorf("expected synthetic/initial clearing order, got %+v", res.ClearingOrder)
	}
}
