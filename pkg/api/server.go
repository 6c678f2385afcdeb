// Package api exposes the orderbook and signature store over HTTP: a read
// surface over the latest orderbook snapshot, one write endpoint for
// allow-list signature submission, a readiness probe, and a websocket feed
// of auction snapshots.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/gnosis-builders/batchauction-orderbook/pkg/orderbook"
	"github.com/gnosis-builders/batchauction-orderbook/pkg/signatures"
)

// Readiness is satisfied by *maintenance.Loop; kept as a narrow interface so
// this package doesn't need to import the maintenance package.
type Readiness interface {
	Ready() bool
}

// Server serves the query API surface over the latest orderbook view.
type Server struct {
	state  *orderbook.State
	sigs   *signatures.Store
	ready  Readiness
	router *mux.Router
	hub    *Hub
	log    *zap.SugaredLogger
}

// NewServer builds a Server reading from state and persisting signatures via sigs.
func NewServer(state *orderbook.State, sigs *signatures.Store, ready Readiness, log *zap.SugaredLogger) *Server {
	s := &Server{
		state:  state,
		sigs:   sigs,
		ready:  ready,
		router: mux.NewRouter(),
		hub:    NewHub(),
		log:    log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	v1 := s.router.PathPrefix("/api/v1").Subrouter()

	v1.HandleFunc("/get_previous_order/{auction_id}/{order_hex}", s.handleGetPreviousOrder).Methods("GET")
	v1.HandleFunc("/get_user_orders/{auction_id}/{address}", s.handleGetUserOrders).Methods("GET")
	v1.HandleFunc("/get_user_orders_without_canceled_or_claimed/{auction_id}/{address}", s.handleGetUserOrdersWithoutCanceledClaimed).Methods("GET")
	v1.HandleFunc("/get_order_book_display_data/{auction_id}", s.handleGetOrderBookDisplayData).Methods("GET")
	v1.HandleFunc("/get_clearing_order_and_volume/{auction_id}", s.handleGetClearingOrderAndVolume).Methods("GET")
	v1.HandleFunc("/get_details_of_most_interesting_auctions/{n}", s.handleGetMostInterestingAuctions).Methods("GET")
	v1.HandleFunc("/get_details_of_most_interesting_closed_auctions/{n}", s.handleGetMostInterestingClosedAuctions).Methods("GET")
	v1.HandleFunc("/get_auction_with_details/{auction_id}", s.handleGetAuctionWithDetails).Methods("GET")
	v1.HandleFunc("/get_all_auction_with_details", s.handleGetAllAuctionWithDetails).Methods("GET")
	v1.HandleFunc("/get_all_auction_with_details_with_user_participation/{address}", s.handleGetAllAuctionWithDetailsWithParticipation).Methods("GET")
	v1.HandleFunc("/get_signature/{auction_id}/{address}", s.handleGetSignature).Methods("GET")
	v1.HandleFunc("/provide_signature", s.handleProvideSignature).Methods("POST")
	v1.HandleFunc("/health/readiness", s.handleReadiness).Methods("GET")

	s.router.HandleFunc("/ws/auctions", s.handleWebSocket)
}

// Start runs the hub and serves addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	go s.hub.Run()

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})

	srv := &http.Server{
		Addr:    addr,
		Handler: c.Handler(s.router),
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// BroadcastAuctions pushes a fresh snapshot to every /ws/auctions subscriber.
// Wired as maintenance.Loop.OnCycle by the caller that owns both.
func (s *Server) BroadcastAuctions() {
	auctions := s.state.GetAllAuctionWithDetails()
	s.hub.Broadcast(AuctionSnapshotUpdate{Type: "auctions", Auctions: auctions})
}

func respondJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// respondError writes a JSON error body at the given status. Handlers route
// every failure here instead of panicking or propagating a raw error.
func respondError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: msg})
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil && s.ready.Ready() {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
}
