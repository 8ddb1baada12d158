// Package fees computes the protocol's charges. Every rate-based fee is
// ceil(amount*rate/denominator), rounding in the protocol's favour.
package fees

import (
	"cosmossdk.io/math"

	"github.com/roach88/multivault/internal/config"
)

// Ceil returns ceil(amount*rate/denominator). Non-positive amounts or rates
// yield zero.
func Ceil(amount, rate, denominator math.Int) math.Int {
	if !amount.IsPositive() || !rate.IsPositive() {
		return math.ZeroInt()
	}
	num := amount.Mul(rate)
	q := num.Quo(denominator)
	if !num.Mod(denominator).IsZero() {
		q = q.AddRaw(1)
	}
	return q
}

// Schedule evaluates fees against one configuration snapshot.
type Schedule struct {
	snap *config.Snapshot
}

// New returns the fee schedule of snap.
func New(snap *config.Snapshot) Schedule {
	return Schedule{snap: snap}
}

func (s Schedule) rate(amount, rate math.Int) math.Int {
	return Ceil(amount, rate, s.snap.General.FeeDenominator)
}

// Protocol is charged on every deposit and redemption.
func (s Schedule) Protocol(amount math.Int) math.Int {
	return s.rate(amount, s.snap.Vault.ProtocolFee)
}

// Entry is retained in the vault on deposits into established vaults.
func (s Schedule) Entry(amount math.Int) math.Int {
	return s.rate(amount, s.snap.Vault.EntryFee)
}

// Exit is retained in the vault (or donated to the underlying atoms) on
// redemptions that leave the vault established.
func (s Schedule) Exit(amount math.Int) math.Int {
	return s.rate(amount, s.snap.Vault.ExitFee)
}

// AtomWallet is credited to an atom's wallet on every deposit into the atom.
func (s Schedule) AtomWallet(amount math.Int) math.Int {
	return s.rate(amount, s.snap.Atom.WalletDepositFee)
}

// AtomDepositFraction returns the share of a triple deposit diverted to the
// three underlying atoms, and the per-atom amount. The total is a multiple of
// three so that nothing is lost to division.
func (s Schedule) AtomDepositFraction(amount math.Int) (total, perAtom math.Int) {
	raw := s.rate(amount, s.snap.Triple.AtomDepositFraction)
	perAtom = raw.QuoRaw(3)
	return perAtom.MulRaw(3), perAtom
}

// AtomCreation is the fixed fee for creating an atom.
func (s Schedule) AtomCreation() math.Int {
	return s.snap.Atom.CreationProtocolFee
}

// TripleCreation is the fixed fee for creating a triple.
func (s Schedule) TripleCreation() math.Int {
	return s.snap.Triple.CreationProtocolFee
}

// AtomCost is the minimum value accepted by atom creation.
func (s Schedule) AtomCost() math.Int {
	return s.snap.Atom.CreationProtocolFee.Add(s.snap.General.MinDeposit)
}

// TripleCost is the minimum value accepted by triple creation.
func (s Schedule) TripleCost() math.Int {
	return s.snap.Triple.CreationProtocolFee.Add(s.snap.General.MinDeposit)
}
