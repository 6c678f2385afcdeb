package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"

	"github.com/gnosis-builders/batchauction-orderbook/pkg/clearing"
	"github.com/gnosis-builders/batchauction-orderbook/pkg/model"
	"github.com/gnosis-builders/batchauction-orderbook/pkg/signatures"
)

func nowUnix() int64 { return time.Now().Unix() }

// maxSignatureBodyBytes caps POST /provide_signature bodies to discourage
// oversized submissions before they ever reach JSON decoding.
const maxSignatureBodyBytes = 10 * 1024

func parseAuctionID(r *http.Request) (uint64, error) {
	return strconv.ParseUint(mux.Vars(r)["auction_id"], 10, 64)
}

func parseAddress(r *http.Request, key string) (common.Address, error) {
	raw := mux.Vars(r)[key]
	if !common.IsHexAddress(raw) {
		return common.Address{}, errInvalidAddress
	}
	return common.HexToAddress(raw), nil
}

var errInvalidAddress = errors.New("invalid address")

// userIDFor resolves an address to a user id, 0/false if the address has
// never interacted with the contract (meaning: no orders, no participation).
func (s *Server) userIDFor(addr common.Address) (uint64, bool) {
	return s.state.LookupUserID(addr)
}

func (s *Server) handleGetPreviousOrder(w http.ResponseWriter, r *http.Request) {
	auctionID, err := parseAuctionID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid auction_id")
		return
	}
	pivot, err := model.ParseOrder(mux.Vars(r)["order_hex"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order hex: "+err.Error())
		return
	}

	prev := s.state.GetPreviousOrder(auctionID, pivot)
	hexStr, err := prev.Hex()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, hexStr)
}

func (s *Server) handleGetUserOrders(w http.ResponseWriter, r *http.Request) {
	s.respondOrdersForUser(w, r, s.state.GetUserOrders)
}

func (s *Server) handleGetUserOrdersWithoutCanceledClaimed(w http.ResponseWriter, r *http.Request) {
	s.respondOrdersForUser(w, r, s.state.GetUserOrdersWithoutCanceledClaimed)
}

func (s *Server) respondOrdersForUser(w http.ResponseWriter, r *http.Request, lookup func(auctionID, userID uint64) []model.Order) {
	auctionID, err := parseAuctionID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid auction_id")
		return
	}
	addr, err := parseAddress(r, "address")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	userID, ok := s.userIDFor(addr)
	if !ok {
		respondJSON(w, []string{})
		return
	}

	orders := lookup(auctionID, userID)
	out := make([]string, 0, len(orders))
	for _, o := range orders {
		hexStr, err := o.Hex()
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		out = append(out, hexStr)
	}
	respondJSON(w, out)
}

func (s *Server) handleGetOrderBookDisplayData(w http.ResponseWriter, r *http.Request) {
	auctionID, err := parseAuctionID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid auction_id")
		return
	}
	display, err := s.state.GetOrderBookDisplay(auctionID)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, OrderBookDisplayResponse{Asks: display.Asks, Bids: display.Bids})
}

func (s *Server) handleGetClearingOrderAndVolume(w http.ResponseWriter, r *http.Request) {
	auctionID, err := parseAuctionID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid auction_id")
		return
	}
	details, err := s.state.GetAuctionWithDetails(auctionID)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	bids := s.state.UnclaimedOrders(auctionID)
	res, err := clearing.Clear(details.InitialAuctionOrder.Sell, details.InitialAuctionOrder.Buy, bids)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	hexStr, err := res.ClearingOrder.Hex()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, ClearingResultResponse{ClearingOrder: hexStr, Volume: res.Filled.Dec()})
}

func (s *Server) parseN(r *http.Request) (int, error) {
	return strconv.Atoi(mux.Vars(r)["n"])
}

func (s *Server) handleGetMostInterestingAuctions(w http.ResponseWriter, r *http.Request) {
	n, err := s.parseN(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid n")
		return
	}
	respondJSON(w, s.state.GetMostInterestingAuctions(n, nowUnix()))
}

func (s *Server) handleGetMostInterestingClosedAuctions(w http.ResponseWriter, r *http.Request) {
	n, err := s.parseN(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid n")
		return
	}
	respondJSON(w, s.state.GetMostInterestingClosedAuctions(n, nowUnix()))
}

func (s *Server) handleGetAuctionWithDetails(w http.ResponseWriter, r *http.Request) {
	auctionID, err := parseAuctionID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid auction_id")
		return
	}
	details, err := s.state.GetAuctionWithDetails(auctionID)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, details)
}

func (s *Server) handleGetAllAuctionWithDetails(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, s.state.GetAllAuctionWithDetails())
}

func (s *Server) handleGetAllAuctionWithDetailsWithParticipation(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddress(r, "address")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	userID, hasUser := s.userIDFor(addr)
	all := s.state.GetAllAuctionWithDetails()
	out := make([]model.AuctionWithParticipation, 0, len(all))
	for _, d := range all {
		participated := hasUser && s.state.HasParticipation(d.AuctionID, userID)
		out = append(out, model.AuctionWithParticipation{AuctionDetails: d, HasParticipation: participated})
	}
	respondJSON(w, out)
}

func (s *Server) handleGetSignature(w http.ResponseWriter, r *http.Request) {
	auctionID, err := parseAuctionID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid auction_id")
		return
	}
	addr, err := parseAddress(r, "address")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	subs, err := s.sigs.GetSignatures(r.Context(), auctionID, &addr)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(subs) == 0 {
		respondJSON(w, "Signature not available for this auction/user pair")
		return
	}
	respondJSON(w, subs[0].Signature.Hex())
}

func (s *Server) handleProvideSignature(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSignatureBodyBytes)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "request body too large or unreadable")
		return
	}

	var req ProvideSignatureRequest
	if err := json.Unmarshal(body, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if !common.IsHexAddress(req.AllowListContract) {
		respondError(w, http.StatusBadRequest, "invalid allowListContract")
		return
	}
	allowListContract := common.HexToAddress(req.AllowListContract)

	details, err := s.state.GetAuctionWithDetails(req.AuctionID)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	submissions := make([]signatures.Submission, 0, len(req.Submissions))
	for _, sub := range req.Submissions {
		if !common.IsHexAddress(sub.User) {
			respondError(w, http.StatusBadRequest, "invalid user address: "+sub.User)
			return
		}
		sig, err := model.ParseSignature(sub.Signature)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid signature: "+err.Error())
			return
		}
		submissions = append(submissions, signatures.Submission{
			User:      common.HexToAddress(sub.User),
			Signature: sig,
		})
	}

	if err := signatures.Validate(details, req.ChainID, allowListContract, submissions); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.sigs.InsertSignatures(r.Context(), req.AuctionID, submissions); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, "All signatures added")
}
