package checkpoint

import (
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/gnosis-builders/batchauction-orderbook/pkg/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "checkpoint"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoadWatermarkMissing(t *testing.T) {
	s := openTestStore(t)

	_, ok, err := s.LoadWatermark(4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected no watermark for an empty store")
	}
}

func TestSaveAndLoadWatermark(t *testing.T) {
	s := openTestStore(t)

	if err := s.SaveWatermark(4, 12345); err != nil {
		t.Fatalf("save: %v", err)
	}

	block, ok, err := s.LoadWatermark(4)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !ok || block != 12345 {
		t.Errorf("got (%d, %v), want (12345, true)", block, ok)
	}

	if _, ok, _ := s.LoadWatermark(1); ok {
		t.Error("expected no watermark for an unrelated chain id")
	}
}

func TestSaveAndLoadAuctions(t *testing.T) {
	s := openTestStore(t)

	details := []model.AuctionDetails{
		{AuctionID: 1, ChainID: 4, AuctioningToken: common.HexToAddress("0x01")},
		{AuctionID: 2, ChainID: 4, AuctioningToken: common.HexToAddress("0x02")},
	}
	for _, d := range details {
		if err := s.SaveAuction(4, d); err != nil {
			t.Fatalf("save auction %d: %v", d.AuctionID, err)
		}
	}
	// a different chain id must not leak into chain 4's results.
	if err := s.SaveAuction(99, model.AuctionDetails{AuctionID: 1, ChainID: 99}); err != nil {
		t.Fatalf("save auction on other chain: %v", err)
	}

	got, err := s.LoadAuctions(4)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 auctions, got %d", len(got))
	}
	if got[0].AuctionID != 1 || got[1].AuctionID != 2 {
		t.Errorf("expected ascending auction-id order, got %+v", got)
	}
	if got[0].AuctioningToken != common.HexToAddress("0x01") {
		t.Errorf("unexpected auctioning token: %v", got[0].AuctioningToken)
	}
}

func TestSaveAuctionOverwritesPreviousSnapshot(t *testing.T) {
	s := openTestStore(t)

	if err := s.SaveAuction(4, model.AuctionDetails{AuctionID: 1, CurrentBiddingAmount: 1}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.SaveAuction(4, model.AuctionDetails{AuctionID: 1, CurrentBiddingAmount: 2}); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.LoadAuctions(4)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 || got[0].CurrentBiddingAmount != 2 {
		t.Fatalf("expected a single updated snapshot, got %+v", got)
	}
}
