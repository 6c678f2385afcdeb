package model

import "github.com/ethereum/go-ethereum/common"

// AuctionDetails is the per-auction record maintained by the orderbook
// state. Static fields are set once from the NewAuction event; the live
// fields are updated on every maintenance cycle that touches the auction.
type AuctionDetails struct {
	AuctionID uint64 `json:"auctionId"`

	AuctioningToken       common.Address `json:"auctioningToken"`
	AuctioningTokenSymbol string         `json:"auctioningTokenSymbol"`
	AuctioningTokenDec    uint8          `json:"auctioningTokenDecimals"`

	BiddingToken       common.Address `json:"biddingToken"`
	BiddingTokenSymbol string         `json:"biddingTokenSymbol"`
	BiddingTokenDec    uint8          `json:"biddingTokenDecimals"`

	InitialAuctionOrder      Order      `json:"-"`
	InitialAuctionOrderPoint PricePoint `json:"initialAuctionOrder"`

	StartingTimestamp     int64 `json:"startingTimestamp"`
	EndTimestamp          int64 `json:"endTimestamp"`
	OrderCancellationEndDate int64 `json:"orderCancellationEndDate"`

	MinimumBiddingAmountPerOrder Order  `json:"-"`
	MinFundingThreshold          string `json:"minFundingThreshold"`

	AllowListManager common.Address `json:"allowListManager"`
	AllowListSigner  common.Address `json:"allowListSigner"`

	IsAtomicClosureAllowed bool `json:"isAtomicClosureAllowed"`
	IsPrivateAuction       bool `json:"isPrivateAuction"`

	ChainID uint64 `json:"chainId"`

	CurrentClearingPrice  PricePoint `json:"currentClearingPrice"`
	CurrentBiddingAmount  float64    `json:"currentBiddingAmount"`
	InterestScore         float64    `json:"interestScore"`
	USDAmountTraded       float64    `json:"usdAmountTraded"`
}

// IsClosed reports whether the auction's end timestamp has already passed
// relative to now (unix seconds).
func (a AuctionDetails) IsClosed(nowUnix int64) bool {
	return a.EndTimestamp <= nowUnix
}

// AuctionWithParticipation decorates an AuctionDetails with whether a
// queried address has participated, for the
// get_all_auction_with_details_with_user_participation endpoint.
type AuctionWithParticipation struct {
	AuctionDetails
	HasParticipation bool `json:"hasParticipation"`
}
