package api

import "github.com/gnosis-builders/batchauction-orderbook/pkg/model"

// API request/response types for the REST and WebSocket surfaces. JSON field
// names are camelCase throughout, per the external interface contract.

// OrderBookDisplayResponse is the body of GET .../get_order_book_display_data/{auction_id}.
type OrderBookDisplayResponse struct {
	Asks []model.PricePoint `json:"asks"`
	Bids []model.PricePoint `json:"bids"`
}

// ClearingResultResponse is the body of GET .../get_clearing_order_and_volume/{auction_id}:
// the clearing Order in canonical hex form, and the filled amount as a base-10 string.
type ClearingResultResponse struct {
	ClearingOrder string `json:"clearingOrder"`
	Volume        string `json:"volume"`
}

// ProvideSignatureRequest is the body of POST /provide_signature.
type ProvideSignatureRequest struct {
	AuctionID         uint64               `json:"auctionId"`
	ChainID           uint64               `json:"chainId"`
	AllowListContract string               `json:"allowListContract"`
	Submissions       []SignatureSubmission `json:"submissions"`
}

// SignatureSubmission is one (user, signature) pair in a provide_signature request.
type SignatureSubmission struct {
	User      string `json:"user"`
	Signature string `json:"signature"`
}

// ErrorResponse is the JSON body of every handler error response; the
// readiness probe's 503 carries no body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// AuctionSnapshotUpdate is broadcast on /ws/auctions after every maintenance
// cycle that advances the confirmed view.
type AuctionSnapshotUpdate struct {
	Type     string                 `json:"type"` // "auctions"
	Auctions []model.AuctionDetails `json:"auctions"`
}

// WSSubscribeRequest lets a client scope the /ws/auctions feed to a subset of
// auction ids; an empty list means "all auctions".
type WSSubscribeRequest struct {
	Op         string   `json:"op"` // "subscribe" or "unsubscribe"
	AuctionIDs []uint64 `json:"auctionIds"`
}
