package chain

import (
	"context"
	"fmt"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

// tokenMetadata resolves a token's decimals and symbol via direct
// CallContract round-trips, memoising both per-process since they never
// change for a given address.
func (r *Reader) tokenMetadata(ctx context.Context, token common.Address) (decimals uint8, symbol string, err error) {
	if dec, ok := r.decimalsCache[token]; ok {
		return dec, r.symbolCache[token], nil
	}

	decimals, err = r.callDecimals(ctx, token)
	if err != nil {
		return 0, "", err
	}
	symbol, err = r.callSymbol(ctx, token)
	if err != nil {
		return 0, "", err
	}

	r.decimalsCache[token] = decimals
	r.symbolCache[token] = symbol
	return decimals, symbol, nil
}

func (r *Reader) callDecimals(ctx context.Context, token common.Address) (uint8, error) {
	input, err := AuctionABI.Pack("decimals")
	if err != nil {
		return 0, fmt.Errorf("pack decimals: %w", err)
	}
	out, err := r.client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: input}, nil)
	if err != nil {
		return 0, fmt.Errorf("call decimals: %w", err)
	}
	values, err := AuctionABI.Unpack("decimals", out)
	if err != nil || len(values) == 0 {
		return 0, fmt.Errorf("unpack decimals: %w", err)
	}
	return values[0].(uint8), nil
}

func (r *Reader) callSymbol(ctx context.Context, token common.Address) (string, error) {
	input, err := AuctionABI.Pack("symbol")
	if err != nil {
		return "", fmt.Errorf("pack symbol: %w", err)
	}
	out, err := r.client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: input}, nil)
	if err != nil {
		return "", fmt.Errorf("call symbol: %w", err)
	}
	values, err := AuctionABI.Unpack("symbol", out)
	if err != nil || len(values) == 0 {
		return "", fmt.Errorf("unpack symbol: %w", err)
	}
	return values[0].(string), nil
}

// AuctionAtomicClosureAllowed calls the contract's auctionData accessor to
// learn whether an auction permits an atomic closure (bid + settle in one
// transaction).
func (r *Reader) AuctionAtomicClosureAllowed(ctx context.Context, auctionID uint64) (bool, error) {
	input, err := AuctionABI.Pack("auctionData", new(big.Int).SetUint64(auctionID))
	if err != nil {
		return false, fmt.Errorf("pack auctionData: %w", err)
	}
	out, err := r.client.CallContract(ctx, ethereum.CallMsg{To: &r.contract, Data: input}, nil)
	if err != nil {
		return false, fmt.Errorf("call auctionData: %w", err)
	}
	values, err := AuctionABI.Unpack("auctionData", out)
	if err != nil || len(values) == 0 {
		return false, fmt.Errorf("unpack auctionData: %w", err)
	}
	return values[0].(bool), nil
}
