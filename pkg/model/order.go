package model

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

// Order is a bid (or the synthetic initial offer) in a batch auction:
// a commitment to sell Sell units for at least Buy units of the other token.
// Price under the auction's convention is Sell/Buy.
type Order struct {
	Sell   *uint256.Int
	Buy    *uint256.Int
	UserID uint64
}

// QUEUE_START is the smallest element under the Order total order. It is
// returned wherever "no predecessor" is the correct answer.
var QueueStart = Order{Sell: uint256.NewInt(1), Buy: uint256.NewInt(0), UserID: 0}

// NewOrder builds an Order from plain uint64 legs, useful in tests and for
// the synthetic orders produced by the clearing engine.
func NewOrder(sell, buy, userID uint64) Order {
	return Order{Sell: uint256.NewInt(sell), Buy: uint256.NewInt(buy), UserID: userID}
}

// amountByteWidth is the number of bytes of the 32-byte canonical form
// allotted to each amount leg; the remaining 20 bytes MUST be zero for the
// order to round-trip.
const amountByteWidth = 12

// Bytes encodes the order as the canonical 32-byte big-endian concatenation
// user_id(8) || buy_amount(12) || sell_amount(12).
func (o Order) Bytes() ([32]byte, error) {
	var out [32]byte
	if err := putUint64BE(out[0:8], o.UserID); err != nil {
		return out, err
	}
	if err := putUint256BE(out[8:20], o.Buy); err != nil {
		return out, fmt.Errorf("buy amount: %w", err)
	}
	if err := putUint256BE(out[20:32], o.Sell); err != nil {
		return out, fmt.Errorf("sell amount: %w", err)
	}
	return out, nil
}

// Hex renders the canonical 0x-prefixed 64-hex-character form.
func (o Order) Hex() (string, error) {
	b, err := o.Bytes()
	if err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(b[:]), nil
}

// ParseOrder decodes the canonical 32-byte hex form produced by Hex.
func ParseOrder(s string) (Order, error) {
	s = strings.TrimPrefix(s, "0x")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Order{}, fmt.Errorf("order hex: %w", err)
	}
	if len(raw) != 32 {
		return Order{}, fmt.Errorf("order hex: want 32 bytes, got %d", len(raw))
	}
	userID := beToUint64(raw[0:8])
	buy := new(uint256.Int).SetBytes(raw[8:20])
	sell := new(uint256.Int).SetBytes(raw[20:32])
	return Order{Sell: sell, Buy: buy, UserID: userID}, nil
}

func putUint64BE(dst []byte, v uint64) error {
	if len(dst) != 8 {
		return fmt.Errorf("internal: bad dst width %d", len(dst))
	}
	for i := 0; i < 8; i++ {
		dst[7-i] = byte(v >> (8 * i))
	}
	return nil
}

func beToUint64(src []byte) uint64 {
	var v uint64
	for _, b := range src {
		v = v<<8 | uint64(b)
	}
	return v
}

// putUint256BE writes v into dst (amountByteWidth bytes, big-endian),
// erroring if v does not fit — i.e. it uses any of the upper 20 bytes of the
// full 32-byte representation.
func putUint256BE(dst []byte, v *uint256.Int) error {
	if len(dst) != amountByteWidth {
		return fmt.Errorf("internal: bad dst width %d", len(dst))
	}
	full := v.Bytes32()
	upper := full[:32-amountByteWidth]
	for _, b := range upper {
		if b != 0 {
			return fmt.Errorf("amount %s overflows %d-byte canonical width", v.Dec(), amountByteWidth)
		}
	}
	copy(dst, full[32-amountByteWidth:])
	return nil
}

// Less implements the Order total order: a < b iff a.Buy*b.Sell < a.Sell*b.Buy,
// tie-broken by UserID ascending. Overflow in either cross-multiplication is
// treated as "greater" — the side that would overflow sorts after the side
// that doesn't, which mirrors the on-chain linked-list comparison where
// amounts are bounded and overflow signals a malformed order.
func (a Order) Less(b Order) bool {
	left, leftOverflow := new(uint256.Int).MulOverflow(a.Buy, b.Sell)
	right, rightOverflow := new(uint256.Int).MulOverflow(a.Sell, b.Buy)

	switch {
	case leftOverflow && rightOverflow:
		return a.UserID < b.UserID
	case leftOverflow:
		return false
	case rightOverflow:
		return true
	}

	switch left.Cmp(right) {
	case -1:
		return true
	case 1:
		return false
	default:
		return a.UserID < b.UserID
	}
}

// Equal reports whether two orders carry the same legs and user id.
func (a Order) Equal(b Order) bool {
	return a.UserID == b.UserID && a.Sell.Eq(b.Sell) && a.Buy.Eq(b.Buy)
}

// ToPricePoint projects the order into a (price, volume) pair given the
// decimal places of the o.Buy- and o.Sell-side tokens. The display convention
// inverts the order's own legs: price = real(Buy)/real(Sell), volume =
// real(Buy), so a bid's price and volume read in terms of what it is trying
// to acquire rather than what it pays.
func (o Order) ToPricePoint(decBuy, decSell uint8) PricePoint {
	return toPricePoint(o.Buy, o.Sell, decSell, decBuy)
}
