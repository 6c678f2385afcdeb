package model

import (
	"math"
	"math/big"

	"github.com/holiman/uint256"
)

// PricePoint is the display projection of an Order: a floating-point price
// and volume, used for JSON rendering and for ranking by interest/volume.
type PricePoint struct {
	Price  float64 `json:"price"`
	Volume float64 `json:"volume"`
}

// ulpsEqual reports whether two float64 values are within n ULPs of one
// another, treating NaN as never-equal.
func ulpsEqual(a, b float64, n int) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return false
	}
	if a == b {
		return true
	}
	diff := math.Abs(a - b)
	ulp := math.Nextafter(math.Max(math.Abs(a), math.Abs(b)), math.Inf(1)) - math.Max(math.Abs(a), math.Abs(b))
	if ulp == 0 {
		return diff == 0
	}
	return diff <= float64(n)*ulp
}

// Equal compares two PricePoints to within 2 ULPs, per the canonical
// approximate-equality rule.
func (p PricePoint) Equal(q PricePoint) bool {
	return ulpsEqual(p.Price, q.Price, 2) && ulpsEqual(p.Volume, q.Volume, 2)
}

// toPricePoint computes price = (sell * 10^decBuy) / (buy * 10^decSell) and
// volume = sell / 10^decSell. A zero denominator is coerced to 1 rather than
// propagating +Inf.
func toPricePoint(sell, buy *uint256.Int, decBuy, decSell uint8) PricePoint {
	sellF := uint256ToFloat(sell)
	buyF := uint256ToFloat(buy)

	denom := buyF * pow10(decSell)
	if denom == 0 {
		denom = 1
	}
	numer := sellF * pow10(decBuy)

	return PricePoint{
		Price:  numer / denom,
		Volume: sellF / pow10(decSell),
	}
}

func pow10(n uint8) float64 {
	return math.Pow(10, float64(n))
}

func uint256ToFloat(v *uint256.Int) float64 {
	f, _ := new(big.Float).SetInt(v.ToBig()).Float64()
	return f
}

// Uint256ToFloat converts a 256-bit unsigned integer to its nearest f64
// representation, for display and ranking fields that leave fixed-width
// arithmetic behind.
func Uint256ToFloat(v *uint256.Int) float64 {
	return uint256ToFloat(v)
}
