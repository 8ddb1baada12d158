package curve

import "cosmossdk.io/math"

// Linear prices shares pro rata: every share is a claim on an equal slice of
// the vault's assets. An empty vault mints at a price of one asset per share.
type Linear struct {
	Label string
}

// NewLinear returns a linear curve with the given display name.
func NewLinear(name string) Linear {
	return Linear{Label: name}
}

// Name implements Curve.
func (c Linear) Name() string { return c.Label }

func (c Linear) unpriced(s State) bool {
	return s.IsEmpty() || s.TotalAssets.IsNil() || s.TotalAssets.IsZero()
}

// SharesForDeposit implements Curve.
func (c Linear) SharesForDeposit(assets math.Int, s State) math.Int {
	if c.unpriced(s) {
		return clampZero(assets)
	}
	return clampZero(mulDiv(assets, s.TotalShares, s.TotalAssets))
}

// AssetsForRedeem implements Curve.
func (c Linear) AssetsForRedeem(shares math.Int, s State) math.Int {
	if c.unpriced(s) {
		return clampZero(shares)
	}
	return clampZero(mulDiv(shares, s.TotalAssets, s.TotalShares))
}

// AssetsForMint implements Curve.
func (c Linear) AssetsForMint(shares math.Int, s State) math.Int {
	if c.unpriced(s) {
		return clampZero(shares)
	}
	return clampZero(mulDivUp(shares, s.TotalAssets, s.TotalShares))
}

// SharesForWithdraw implements Curve.
func (c Linear) SharesForWithdraw(assets math.Int, s State) math.Int {
	if c.unpriced(s) {
		return clampZero(assets)
	}
	return clampZero(mulDivUp(assets, s.TotalShares, s.TotalAssets))
}

// CurrentPrice implements Curve.
func (c Linear) CurrentPrice(s State) math.Int {
	if c.unpriced(s) {
		return WAD
	}
	return mulDiv(s.TotalAssets, WAD, s.TotalShares)
}
