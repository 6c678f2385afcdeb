package maintenance

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/gnosis-builders/batchauction-orderbook/pkg/chain"
	"github.com/gnosis-builders/batchauction-orderbook/pkg/model"
)

func TestPow10(t *testing.T) {
	cases := []struct {
		n    uint8
		want float64
	}{{0, 1}, {1, 10}, {6, 1e6}, {18, 1e18}}
	for _, c := range cases {
		if got := pow10(c.n); got != c.want {
			t.Errorf("pow10(%d) = %v, want %v", c.n, got, c.want)
		}
	}
}

func TestAuctionDetailsFromEvent(t *testing.T) {
	ev := chain.NewAuctionEvent{
		AuctionID:                    1,
		AuctioningToken:              common.HexToAddress("0x01"),
		BiddingToken:                 common.HexToAddress("0x02"),
		OrderCancellationEndDate:     100,
		AuctionEndDate:               200,
		AuctionedSellAmount:          big.NewInt(1_000_000),
		MinBuyAmount:                 big.NewInt(500_000),
		MinimumBiddingAmountPerOrder: big.NewInt(1),
		MinFundingThreshold:          big.NewInt(0),
		AuctioningTokenDecimals:      18,
		BiddingTokenDecimals:         6,
		AllowListSigner:              common.HexToAddress("0x03"),
		AccessManagerContract:        common.HexToAddress("0x04"),
	}

	details := auctionDetailsFromEvent(ev, 4)

	if details.AuctionID != 1 || details.ChainID != 4 {
		t.Fatalf("unexpected ids: %+v", details)
	}
	if !details.InitialAuctionOrder.Sell.Eq(uint256.NewInt(1_000_000)) {
		t.Errorf("expected initial sell = AuctionedSellAmount, got %s", details.InitialAuctionOrder.Sell.Dec())
	}
	if !details.IsPrivateAuction {
		t.Errorf("expected private auction flag set given a non-zero allow-list contract")
	}
}

func TestOrderFromEvent(t *testing.T) {
	ev := chain.NewSellOrderEvent{AuctionID: 1, UserID: 9, BuyAmount: big.NewInt(7), SellAmount: big.NewInt(3)}
	o := orderFromEvent(ev)
	if o.UserID != 9 || !o.Buy.Eq(uint256.NewInt(7)) || !o.Sell.Eq(uint256.NewInt(3)) {
		t.Errorf("unexpected order from event: %+v", o)
	}
}

func TestUsdAmountTradedStablecoinBidding(t *testing.T) {
	log := zap.NewNop().Sugar()
	l := &Loop{chainID: 1, log: log}

	usdc := common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	details := model.AuctionDetails{BiddingToken: usdc}

	got := l.usdAmountTraded(nil, details, 1234.5, model.PricePoint{})
	if got != 1234.5 {
		t.Errorf("expected usd amount = bidding amount for stablecoin bid, got %v", got)
	}
}

func TestUsdAmountTradedUnrecognisedPairIsZero(t *testing.T) {
	log := zap.NewNop().Sugar()
	l := &Loop{chainID: 999, log: log}

	details := model.AuctionDetails{
		BiddingToken:    common.HexToAddress("0xaa"),
		AuctioningToken: common.HexToAddress("0xbb"),
	}

	got := l.usdAmountTraded(nil, details, 100, model.PricePoint{Price: 2})
	if got != 0 {
		t.Errorf("expected 0 for an unrecognised chain/pair, got %v", got)
	}
}
