package testutil

import (
	"cosmossdk.io/math"

	"github.com/roach88/multivault/internal/config"
	"github.com/roach88/multivault/internal/curve"
	"github.com/roach88/multivault/internal/term"
)

// Well-known test accounts.
var (
	Alice = term.AddressFromLabel("alice")
	Bob   = term.AddressFromLabel("bob")
	Carol = term.AddressFromLabel("carol")
)

// Snapshot returns a valid configuration with small integer parameters so
// that expected amounts can be worked out by hand:
//
//	feeDenominator 10000, minDeposit 10000, minShare 1000, feeThreshold 10000
//	creation fees 100, protocol/entry/exit/wallet fees 1%, atom fraction 9%
//
// The default curve is linear; curve 2 is progressive with price equal to
// supply (slope WAD, no offset).
func Snapshot() *config.Snapshot {
	snap := config.Default()
	snap.General.FeeDenominator = math.NewInt(10_000)
	snap.General.MinDeposit = math.NewInt(10_000)
	snap.General.MinShare = math.NewInt(1_000)
	snap.General.FeeThreshold = math.NewInt(10_000)
	snap.Atom.CreationProtocolFee = math.NewInt(100)
	snap.Atom.WalletDepositFee = math.NewInt(100)
	snap.Triple.CreationProtocolFee = math.NewInt(100)
	snap.Triple.AtomDepositFraction = math.NewInt(900)
	snap.Vault.EntryFee = math.NewInt(100)
	snap.Vault.ExitFee = math.NewInt(100)
	snap.Vault.ProtocolFee = math.NewInt(100)
	snap.Curves.Registry[1].Slope = curve.WAD
	snap.Curves.Registry[1].Offset = math.ZeroInt()
	return snap
}

// Amount parses a base-10 integer, panicking on malformed input.
func Amount(s string) math.Int {
	v, ok := math.NewIntFromString(s)
	if !ok {
		panic("testutil: invalid amount " + s)
	}
	return v
}
