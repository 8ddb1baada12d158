// Package curve implements the bonding curves that price vault shares.
//
// A Curve converts between assets and shares against a vault's current
// State. Conversions that pay out (shares for a deposit, assets for a
// redemption) round down; conversions that charge (assets to mint, shares to
// withdraw) round up.
package curve

import (
	"math/big"

	"cosmossdk.io/math"
)

// WAD is the 18-decimal fixed-point unit used for prices and curve parameters.
var WAD = math.NewIntFromBigInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))

// State is the pre-operation (totalAssets, totalShares) of a vault.
type State struct {
	TotalAssets math.Int
	TotalShares math.Int
}

// Empty is the state of a vault that has never been funded.
func Empty() State {
	return State{TotalAssets: math.ZeroInt(), TotalShares: math.ZeroInt()}
}

// IsEmpty reports whether no shares exist.
func (s State) IsEmpty() bool {
	return s.TotalShares.IsNil() || s.TotalShares.IsZero()
}

// Curve is a monotone pricing strategy. Implementations must never return a
// negative amount.
type Curve interface {
	Name() string

	// SharesForDeposit returns the shares minted for depositing assets.
	SharesForDeposit(assets math.Int, s State) math.Int

	// AssetsForRedeem returns the assets released by burning shares.
	AssetsForRedeem(shares math.Int, s State) math.Int

	// AssetsForMint returns the assets required to mint exactly shares.
	AssetsForMint(shares math.Int, s State) math.Int

	// SharesForWithdraw returns the shares that must be burned to release assets.
	SharesForWithdraw(assets math.Int, s State) math.Int

	// CurrentPrice returns the WAD-scaled marginal price of one share.
	CurrentPrice(s State) math.Int
}

// mulDivUp returns ceil(a*b/c).
func mulDivUp(a, b, c math.Int) math.Int {
	num := a.Mul(b)
	q := num.Quo(c)
	if !num.Mod(c).IsZero() {
		q = q.AddRaw(1)
	}
	return q
}

// mulDiv returns floor(a*b/c).
func mulDiv(a, b, c math.Int) math.Int {
	return a.Mul(b).Quo(c)
}

func clampZero(v math.Int) math.Int {
	if v.IsNegative() {
		return math.ZeroInt()
	}
	return v
}
