package chain

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// auctionABIJSON declares the subset of the batch-auction contract's
// interface the indexer needs: the five events it folds into orderbook
// state, plus the two read-only accessors (auctionData, and the ERC-20
// decimals/symbol calls made against the token addresses it discovers).
const auctionABIJSON = `[
	{"anonymous":false,"type":"event","name":"NewAuction","inputs":[
		{"indexed":false,"name":"auctionId","type":"uint256"},
		{"indexed":true,"name":"_auctioningToken","type":"address"},
		{"indexed":true,"name":"_biddingToken","type":"address"},
		{"indexed":false,"name":"orderCancellationEndDate","type":"uint256"},
		{"indexed":false,"name":"auctionEndDate","type":"uint256"},
		{"indexed":false,"name":"userId","type":"uint64"},
		{"indexed":false,"name":"_auctionedSellAmount","type":"uint96"},
		{"indexed":false,"name":"_minBuyAmount","type":"uint96"},
		{"indexed":false,"name":"minimumBiddingAmountPerOrder","type":"uint256"},
		{"indexed":false,"name":"minFundingThreshold","type":"uint256"},
		{"indexed":false,"name":"isAtomicClosureAllowed","type":"bool"},
		{"indexed":false,"name":"accessManagerContract","type":"address"},
		{"indexed":false,"name":"accessManagerContractData","type":"bytes"}
	]},
	{"anonymous":false,"type":"event","name":"NewSellOrder","inputs":[
		{"indexed":true,"name":"auctionId","type":"uint256"},
		{"indexed":true,"name":"userId","type":"uint64"},
		{"indexed":false,"name":"buyAmount","type":"uint96"},
		{"indexed":false,"name":"sellAmount","type":"uint96"}
	]},
	{"anonymous":false,"type":"event","name":"CancellationSellOrder","inputs":[
		{"indexed":true,"name":"auctionId","type":"uint256"},
		{"indexed":true,"name":"userId","type":"uint64"},
		{"indexed":false,"name":"buyAmount","type":"uint96"},
		{"indexed":false,"name":"sellAmount","type":"uint96"}
	]},
	{"anonymous":false,"type":"event","name":"ClaimedFromOrder","inputs":[
		{"indexed":true,"name":"auctionId","type":"uint256"},
		{"indexed":true,"name":"userId","type":"uint64"},
		{"indexed":false,"name":"buyAmount","type":"uint96"},
		{"indexed":false,"name":"sellAmount","type":"uint96"}
	]},
	{"anonymous":false,"type":"event","name":"NewUser","inputs":[
		{"indexed":true,"name":"userId","type":"uint64"},
		{"indexed":true,"name":"userAddress","type":"address"}
	]},
	{"type":"function","name":"auctionData","stateMutability":"view","inputs":[
		{"name":"auctionId","type":"uint256"}
	],"outputs":[
		{"name":"isAtomicClosureAllowed","type":"bool"}
	]},
	{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
	{"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]}
]`

// AuctionABI is parsed once at package init and reused by every Reader.
var AuctionABI abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(auctionABIJSON))
	if err != nil {
		panic("chain: invalid embedded ABI: " + err.Error())
	}
	AuctionABI = parsed
}

// NewAuctionEvent mirrors the contract's NewAuction log. The token decimals
// and symbols, IsAtomicClosureAllowed, BlockTimestamp and AllowListSigner are
// populated by the Reader after the raw log decode: ERC-20 metadata, the
// atomic-closure flag (read back via the auctionData accessor rather than
// trusted from the log) and the block timestamp all require separate RPC
// calls the log itself doesn't carry.
type NewAuctionEvent struct {
	AuctionID                uint64
	AuctioningToken           common.Address
	BiddingToken              common.Address
	OrderCancellationEndDate  int64
	AuctionEndDate            int64
	UserID                    uint64
	AuctionedSellAmount       *big.Int
	MinBuyAmount              *big.Int
	MinimumBiddingAmountPerOrder *big.Int
	MinFundingThreshold       *big.Int
	IsAtomicClosureAllowed    bool
	AccessManagerContract     common.Address
	AccessManagerContractData []byte

	// Derived fields, filled in by the reader.
	AuctioningTokenDecimals uint8
	AuctioningTokenSymbol   string
	BiddingTokenDecimals    uint8
	BiddingTokenSymbol      string
	BlockTimestamp          int64
	AllowListSigner         common.Address
}

// NewSellOrderEvent mirrors NewSellOrder/CancellationSellOrder/ClaimedFromOrder,
// which all share the same (auctionId, userId, buyAmount, sellAmount) shape.
type NewSellOrderEvent struct {
	AuctionID uint64
	UserID    uint64
	BuyAmount *big.Int
	SellAmount *big.Int
}

// NewUserEvent mirrors the NewUser log.
type NewUserEvent struct {
	UserID  uint64
	Address common.Address
}
