package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"

	"github.com/gnosis-builders/batchauction-orderbook/pkg/model"
	"github.com/gnosis-builders/batchauction-orderbook/pkg/orderbook"
)

func httptestNewReadCloser(b []byte) io.ReadCloser {
	return io.NopCloser(bytes.NewReader(b))
}

type alwaysReady bool

func (a alwaysReady) Ready() bool { return bool(a) }

func newTestServer(state *orderbook.State) *Server {
	return NewServer(state, nil, alwaysReady(true), nil)
}

func TestHandleReadiness(t *testing.T) {
	s := newTestServer(orderbook.New())

	req := httptest.NewRequest("GET", "/api/v1/health/readiness", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", w.Code)
	}
}

func TestHandleReadinessNotReady(t *testing.T) {
	s := NewServer(orderbook.New(), nil, alwaysReady(false), nil)

	req := httptest.NewRequest("GET", "/api/v1/health/readiness", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}
}

func TestHandleGetAuctionWithDetailsNotFound(t *testing.T) {
	s := newTestServer(orderbook.New())

	req := httptest.NewRequest("GET", "/api/v1/get_auction_with_details/1", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown auction, got %d", w.Code)
	}
}

func TestHandleGetAuctionWithDetailsFound(t *testing.T) {
	state := orderbook.New()
	state.SetAuctionDetails(model.AuctionDetails{AuctionID: 1, ChainID: 4})
	s := newTestServer(state)

	req := httptest.NewRequest("GET", "/api/v1/get_auction_with_details/1", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var got model.AuctionDetails
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.AuctionID != 1 {
		t.Errorf("unexpected auction id: %+v", got)
	}
}

func TestHandleGetUserOrdersUnknownAddressReturnsEmpty(t *testing.T) {
	state := orderbook.New()
	s := newTestServer(state)

	req := httptest.NewRequest("GET", "/api/v1/get_user_orders/1/0x00000000000000000000000000000000000000aa", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var got []string
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty order list, got %v", got)
	}
}

func TestHandleGetUserOrdersReturnsHexOrders(t *testing.T) {
	state := orderbook.New()
	addr := common.HexToAddress("0xaa")
	state.InsertUsers([]model.User{{Address: addr, UserID: 9}})
	state.SetAuctionDetails(model.AuctionDetails{AuctionID: 1})
	order := model.NewOrder(5, 10, 9)
	state.InsertOrders(1, []model.Order{order})

	s := newTestServer(state)

	req := httptest.NewRequest("GET", "/api/v1/get_user_orders/1/"+addr.Hex(), nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var got []string
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 order, got %v", got)
	}
	wantHex, _ := order.Hex()
	if got[0] != wantHex {
		t.Errorf("got %s, want %s", got[0], wantHex)
	}
}

func TestHandleGetOrderBookDisplayDataUnknownAuction(t *testing.T) {
	s := newTestServer(orderbook.New())

	req := httptest.NewRequest("GET", "/api/v1/get_order_book_display_data/1", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestHandleGetClearingOrderAndVolume(t *testing.T) {
	state := orderbook.New()
	state.SetAuctionDetails(model.AuctionDetails{
		AuctionID:           1,
		InitialAuctionOrder: model.NewOrder(10, 5, 0),
	})
	state.InsertOrders(1, []model.Order{model.NewOrder(5, 10, 1)})

	s := newTestServer(state)

	req := httptest.NewRequest("GET", "/api/v1/get_clearing_order_and_volume/1", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var got ClearingResultResponse
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ClearingOrder == "" {
		t.Errorf("expected a non-empty clearing order hex")
	}
}

func TestProvideSignatureRejectsBodyOverCap(t *testing.T) {
	s := newTestServer(orderbook.New())

	oversized := make([]byte, maxSignatureBodyBytes+1)
	for i := range oversized {
		oversized[i] = 'a'
	}

	req := httptest.NewRequest("POST", "/api/v1/provide_signature", nil)
	req.Body = httptestNewReadCloser(oversized)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for oversized body, got %d", w.Code)
	}
}

func TestProvideSignatureRejectsUnknownAuction(t *testing.T) {
	s := newTestServer(orderbook.New())

	body := `{"auctionId":1,"chainId":4,"allowListContract":"0x0000000000000000000000000000000000000001","submissions":[]}`
	req := httptest.NewRequest("POST", "/api/v1/provide_signature", httptestNewReadCloser([]byte(body)))
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown auction, got %d: %s", w.Code, w.Body.String())
	}
}

func TestMuxVarsWiring(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/x/{id}", func(w http.ResponseWriter, req *http.Request) {
		if mux.Vars(req)["id"] != "7" {
			t.Errorf("unexpected var: %v", mux.Vars(req))
		}
	})
	req := httptest.NewRequest("GET", "/x/7", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)
}
