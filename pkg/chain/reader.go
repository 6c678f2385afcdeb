// Package chain pulls typed event batches from the batch-auction contract's
// event log over a block window, with re-org protection and ERC-20 token
// metadata resolution.
package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

// ErrBenignEmptyWindow is returned by GetToBlock when the requested window
// is empty (last+1 > to). Callers must treat this as a no-op, not a failure.
var ErrBenignEmptyWindow = errors.New("chain: empty block window")

// ConfirmationDepth is the number of blocks the confirmed view lags behind
// the chain head before a block is considered final.
const ConfirmationDepth = 10

// Reader queries the auction contract's event log and token metadata over a
// caller-supplied block window.
type Reader struct {
	client       *ethclient.Client
	contract     common.Address
	blockSpanCap uint64
	log          *zap.SugaredLogger

	decimalsCache map[common.Address]uint8
	symbolCache   map[common.Address]string
}

// NewReader builds a Reader over an already-dialed ethclient.Client.
// blockSpanCap bounds the per-request window (NUMBER_OF_BLOCKS_TO_SYNC_PER_REQUEST).
func NewReader(client *ethclient.Client, contract common.Address, blockSpanCap uint64, log *zap.SugaredLogger) *Reader {
	return &Reader{
		client:        client,
		contract:      contract,
		blockSpanCap:  blockSpanCap,
		log:           log,
		decimalsCache: make(map[common.Address]uint8),
		symbolCache:   make(map[common.Address]string),
	}
}

// Head returns the chain's current head block number, uncapped by
// blockSpanCap or confirmation depth.
func (r *Reader) Head(ctx context.Context) (uint64, error) {
	header, err := r.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("chain: head lookup: %w", err)
	}
	return header.Number.Uint64(), nil
}

// BlockSpanCap returns the configured per-request window cap
// (NUMBER_OF_BLOCKS_TO_SYNC_PER_REQUEST).
func (r *Reader) BlockSpanCap() uint64 {
	return r.blockSpanCap
}

// GetToBlock resolves the [from, to] window to query given the last fully
// applied block. When reorgProtection is true the window never reaches
// closer than ConfirmationDepth blocks to the head. A window with
// from > to is reported as ErrBenignEmptyWindow, not a hard error.
func (r *Reader) GetToBlock(ctx context.Context, last uint64, reorgProtection bool) (from, to uint64, err error) {
	header, err := r.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("chain: head lookup: %w", err)
	}
	head := header.Number.Uint64()

	from = last + 1
	if reorgProtection {
		if head < ConfirmationDepth {
			to = 0
		} else {
			to = head - ConfirmationDepth
		}
	} else {
		to = head
	}

	if from > to {
		return from, to, ErrBenignEmptyWindow
	}

	if r.blockSpanCap > 0 && to-from+1 > r.blockSpanCap {
		to = from + r.blockSpanCap - 1
	}

	return from, to, nil
}

func (r *Reader) filterLogs(ctx context.Context, from, to uint64, eventName string) ([]types.Log, error) {
	topic := AuctionABI.Events[eventName].ID
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: []common.Address{r.contract},
		Topics:    [][]common.Hash{{topic}},
	}
	logs, err := r.client.FilterLogs(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("chain: FilterLogs(%s): %w", eventName, err)
	}
	return logs, nil
}

// FilterNewAuctions returns every NewAuction event in [from, to], enriched
// with token metadata, the atomic-closure flag, the block timestamp and the
// decoded allow-list signer.
func (r *Reader) FilterNewAuctions(ctx context.Context, from, to uint64) ([]NewAuctionEvent, error) {
	logs, err := r.filterLogs(ctx, from, to, "NewAuction")
	if err != nil {
		return nil, err
	}

	out := make([]NewAuctionEvent, 0, len(logs))
	for _, lg := range logs {
		ev, err := r.decodeNewAuction(ctx, lg)
		if err != nil {
			return nil, fmt.Errorf("chain: decode NewAuction at block %d: %w", lg.BlockNumber, err)
		}
		out = append(out, ev)
	}
	return out, nil
}

func (r *Reader) decodeNewAuction(ctx context.Context, lg types.Log) (NewAuctionEvent, error) {
	var ev NewAuctionEvent
	unpacked := map[string]interface{}{}
	if err := AuctionABI.UnpackIntoMap(unpacked, "NewAuction", lg.Data); err != nil {
		return ev, err
	}

	ev.AuctioningToken = common.BytesToAddress(lg.Topics[1].Bytes())
	ev.BiddingToken = common.BytesToAddress(lg.Topics[2].Bytes())

	ev.AuctionID = unpacked["auctionId"].(*big.Int).Uint64()
	ev.OrderCancellationEndDate = unpacked["orderCancellationEndDate"].(*big.Int).Int64()
	ev.AuctionEndDate = unpacked["auctionEndDate"].(*big.Int).Int64()
	ev.UserID = unpacked["userId"].(uint64)
	ev.AuctionedSellAmount = unpacked["_auctionedSellAmount"].(*big.Int)
	ev.MinBuyAmount = unpacked["_minBuyAmount"].(*big.Int)
	ev.MinimumBiddingAmountPerOrder = unpacked["minimumBiddingAmountPerOrder"].(*big.Int)
	ev.MinFundingThreshold = unpacked["minFundingThreshold"].(*big.Int)
	ev.AccessManagerContract = unpacked["accessManagerContract"].(common.Address)
	ev.AccessManagerContractData, _ = unpacked["accessManagerContractData"].([]byte)

	ev.AllowListSigner = decodeAllowListSigner(ev.AccessManagerContractData)

	atomicClosureAllowed, err := r.AuctionAtomicClosureAllowed(ctx, ev.AuctionID)
	if err != nil {
		return ev, fmt.Errorf("atomic closure flag: %w", err)
	}
	ev.IsAtomicClosureAllowed = atomicClosureAllowed

	dec, sym, err := r.tokenMetadata(ctx, ev.AuctioningToken)
	if err != nil {
		return ev, fmt.Errorf("auctioning token metadata: %w", err)
	}
	ev.AuctioningTokenDecimals, ev.AuctioningTokenSymbol = dec, sym

	dec, sym, err = r.tokenMetadata(ctx, ev.BiddingToken)
	if err != nil {
		return ev, fmt.Errorf("bidding token metadata: %w", err)
	}
	ev.BiddingTokenDecimals, ev.BiddingTokenSymbol = dec, sym

	header, err := r.client.HeaderByNumber(ctx, new(big.Int).SetUint64(lg.BlockNumber))
	if err != nil {
		return ev, fmt.Errorf("block timestamp: %w", err)
	}
	ev.BlockTimestamp = int64(header.Time)

	return ev, nil
}

// decodeAllowListSigner decodes the signer address encoded in the
// accessManagerContractData payload: either a bare 20-byte address or a
// 32-byte ABI-encoded (left-padded) address. Absent data yields the zero
// address, meaning the auction is public.
func decodeAllowListSigner(data []byte) common.Address {
	switch len(data) {
	case 20:
		return common.BytesToAddress(data)
	case 32:
		return common.BytesToAddress(data[12:])
	default:
		return common.Address{}
	}
}

func (r *Reader) decodeOrderEvent(lg types.Log, eventName string) (NewSellOrderEvent, error) {
	var ev NewSellOrderEvent
	unpacked := map[string]interface{}{}
	if err := AuctionABI.UnpackIntoMap(unpacked, eventName, lg.Data); err != nil {
		return ev, err
	}
	ev.AuctionID = new(big.Int).SetBytes(lg.Topics[1].Bytes()).Uint64()
	ev.UserID = new(big.Int).SetBytes(lg.Topics[2].Bytes()).Uint64()
	ev.BuyAmount = unpacked["buyAmount"].(*big.Int)
	ev.SellAmount = unpacked["sellAmount"].(*big.Int)
	return ev, nil
}

// FilterNewSellOrders returns every NewSellOrder event in [from, to].
func (r *Reader) FilterNewSellOrders(ctx context.Context, from, to uint64) ([]NewSellOrderEvent, error) {
	return r.filterOrderEvents(ctx, from, to, "NewSellOrder")
}

// FilterCancellations returns every CancellationSellOrder event in [from, to].
func (r *Reader) FilterCancellations(ctx context.Context, from, to uint64) ([]NewSellOrderEvent, error) {
	return r.filterOrderEvents(ctx, from, to, "CancellationSellOrder")
}

// FilterClaims returns every ClaimedFromOrder event in [from, to].
func (r *Reader) FilterClaims(ctx context.Context, from, to uint64) ([]NewSellOrderEvent, error) {
	return r.filterOrderEvents(ctx, from, to, "ClaimedFromOrder")
}

func (r *Reader) filterOrderEvents(ctx context.Context, from, to uint64, eventName string) ([]NewSellOrderEvent, error) {
	logs, err := r.filterLogs(ctx, from, to, eventName)
	if err != nil {
		return nil, err
	}
	out := make([]NewSellOrderEvent, 0, len(logs))
	for _, lg := range logs {
		ev, err := r.decodeOrderEvent(lg, eventName)
		if err != nil {
			return nil, fmt.Errorf("chain: decode %s at block %d: %w", eventName, lg.BlockNumber, err)
		}
		out = append(out, ev)
	}
	return out, nil
}

// FilterNewUsers returns every NewUser event in [from, to].
func (r *Reader) FilterNewUsers(ctx context.Context, from, to uint64) ([]NewUserEvent, error) {
	logs, err := r.filterLogs(ctx, from, to, "NewUser")
	if err != nil {
		return nil, err
	}
	out := make([]NewUserEvent, 0, len(logs))
	for _, lg := range logs {
		out = append(out, NewUserEvent{
			UserID:  new(big.Int).SetBytes(lg.Topics[1].Bytes()).Uint64(),
			Address: common.BytesToAddress(lg.Topics[2].Bytes()),
		})
	}
	return out, nil
}
