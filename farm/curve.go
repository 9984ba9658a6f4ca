package farm

import "math/big"

var priceScale = new(big.Int).SetUint64(PriceScale)

// CurvePrice returns the price of the unit with zero-based ordinal unitIndex
// on a curve starting at base and compounding by multiplier/PriceScale per unit.
//
// Each step truncates: p(i) = floor(p(i-1) * multiplier / PriceScale). The
// truncation accumulates, so the result generally differs from
// floor(base * (multiplier/PriceScale)^unitIndex).
//
// A zero multiplier means flat pricing: every unit costs base. It is not a
// price of zero.
func CurvePrice(base *big.Int, multiplier, unitIndex uint64) *big.Int {
	p := new(big.Int)
	if base == nil {
		return p
	}
	p.Set(base)
	if multiplier == 0 || multiplier == PriceScale {
		return p
	}
	m := new(big.Int).SetUint64(multiplier)
	for i := uint64(0); i < unitIndex; i++ {
		p.Mul(p, m)
		p.Quo(p, priceScale)
		if p.Sign() == 0 {
			// a decaying curve that reached zero stays there
			break
		}
	}
	return p
}
