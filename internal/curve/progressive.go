package curve

import (
	"math/big"

	"cosmossdk.io/math"
)

// OffsetProgressive prices shares on a line that rises with supply:
//
//	price(s) = slope * (s + offset) / WAD
//
// The offset lifts the starting price so that an empty vault is not free.
// Costs are the integral of price over the minted range, so only totalShares
// matters; totalAssets above the integral is surplus that stays in the vault.
type OffsetProgressive struct {
	Label  string
	Slope  math.Int // WAD-scaled
	Offset math.Int // in share units
}

// NewOffsetProgressive returns a progressive curve. slope must be positive.
func NewOffsetProgressive(name string, slope, offset math.Int) OffsetProgressive {
	return OffsetProgressive{Label: name, Slope: slope, Offset: offset}
}

// Name implements Curve.
func (c OffsetProgressive) Name() string { return c.Label }

func (c OffsetProgressive) supply(s State) *big.Int {
	shares := big.NewInt(0)
	if !s.TotalShares.IsNil() {
		shares = s.TotalShares.BigInt()
	}
	return shares.Add(shares, c.Offset.BigInt())
}

var wadSquared = new(big.Int).Mul(WAD.BigInt(), WAD.BigInt())

// area returns slope*(hi^2-lo^2) and 2*WAD^2, the numerator and denominator of
// the integral between lo and hi.
func (c OffsetProgressive) area(lo, hi *big.Int) (*big.Int, *big.Int) {
	hi2 := new(big.Int).Mul(hi, hi)
	lo2 := new(big.Int).Mul(lo, lo)
	num := hi2.Sub(hi2, lo2)
	num.Mul(num, c.Slope.BigInt())
	den := new(big.Int).Lsh(wadSquared, 1)
	return num, den
}

func divUp(num, den *big.Int) *big.Int {
	q, r := new(big.Int).QuoRem(num, den, new(big.Int))
	if r.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}

func toInt(v *big.Int) math.Int {
	if v.Sign() < 0 {
		return math.ZeroInt()
	}
	return math.NewIntFromBigInt(v)
}

// SharesForDeposit implements Curve.
func (c OffsetProgressive) SharesForDeposit(assets math.Int, s State) math.Int {
	if !assets.IsPositive() {
		return math.ZeroInt()
	}
	lo := c.supply(s)
	// hi = isqrt(lo^2 + 2*assets*WAD^2/slope)
	step := new(big.Int).Mul(assets.BigInt(), wadSquared)
	step.Lsh(step, 1)
	step.Quo(step, c.Slope.BigInt())
	hi := new(big.Int).Mul(lo, lo)
	hi.Add(hi, step)
	hi.Sqrt(hi)
	return toInt(hi.Sub(hi, lo))
}

// AssetsForRedeem implements Curve.
func (c OffsetProgressive) AssetsForRedeem(shares math.Int, s State) math.Int {
	if !shares.IsPositive() || s.IsEmpty() {
		return math.ZeroInt()
	}
	if shares.GT(s.TotalShares) {
		shares = s.TotalShares
	}
	hi := c.supply(s)
	lo := new(big.Int).Sub(hi, shares.BigInt())
	num, den := c.area(lo, hi)
	return toInt(num.Quo(num, den))
}

// AssetsForMint implements Curve.
func (c OffsetProgressive) AssetsForMint(shares math.Int, s State) math.Int {
	if !shares.IsPositive() {
		return math.ZeroInt()
	}
	lo := c.supply(s)
	hi := new(big.Int).Add(lo, shares.BigInt())
	num, den := c.area(lo, hi)
	return toInt(divUp(num, den))
}

// SharesForWithdraw implements Curve.
func (c OffsetProgressive) SharesForWithdraw(assets math.Int, s State) math.Int {
	if !assets.IsPositive() || s.IsEmpty() {
		return math.ZeroInt()
	}
	hi := c.supply(s)
	// lo = isqrt(hi^2 - ceil(2*assets*WAD^2/slope)); shares = hi - lo, rounded up
	step := new(big.Int).Mul(assets.BigInt(), wadSquared)
	step.Lsh(step, 1)
	step = divUp(step, c.Slope.BigInt())
	sq := new(big.Int).Mul(hi, hi)
	sq.Sub(sq, step)
	if sq.Sign() < 0 {
		return s.TotalShares
	}
	// floor(sqrt) sits at or below the exact root, so hi-lo rounds up
	lo := new(big.Int).Sqrt(sq)
	shares := toInt(new(big.Int).Sub(hi, lo))
	if shares.GT(s.TotalShares) {
		return s.TotalShares
	}
	return shares
}

// CurrentPrice implements Curve.
func (c OffsetProgressive) CurrentPrice(s State) math.Int {
	p := new(big.Int).Mul(c.Slope.BigInt(), c.supply(s))
	return toInt(p.Quo(p, WAD.BigInt()))
}
