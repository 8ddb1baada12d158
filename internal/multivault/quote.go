package multivault

import (
	"cosmossdk.io/math"

	"github.com/roach88/multivault/internal/curve"
	"github.com/roach88/multivault/internal/fault"
	"github.com/roach88/multivault/internal/store"
	"github.com/roach88/multivault/internal/term"
)

// DepositQuote is the breakdown of one deposit into one vault.
//
// Assets == AssetsAfterFees + ProtocolFee + AtomWalletFee + AtomFraction
// always holds. AssetsAfterFees lands in the vault, except CounterGhostCost,
// which funds the counter-triple's ghost shares on triple creation.
type DepositQuote struct {
	Assets           math.Int `json:"assets"`
	ProtocolFee      math.Int `json:"protocolFee"`
	EntryFee         math.Int `json:"entryFee"`
	AtomWalletFee    math.Int `json:"atomWalletFee"`
	AtomFraction     math.Int `json:"atomDepositFraction"`
	PerAtom          math.Int `json:"perAtom"`
	AssetsAfterFees  math.Int `json:"assetsAfterFees"`
	GhostShares      math.Int `json:"ghostShares"`
	GhostCost        math.Int `json:"ghostCost"`
	CounterGhostCost math.Int `json:"counterGhostCost"`
	Shares           math.Int `json:"shares"`
}

// RedeemQuote is the breakdown of one redemption.
type RedeemQuote struct {
	Shares          math.Int `json:"shares"`
	GrossAssets     math.Int `json:"grossAssets"`
	ExitFee         math.Int `json:"exitFee"`
	ProtocolFee     math.Int `json:"protocolFee"`
	AssetsAfterFees math.Int `json:"assetsAfterFees"`
	PerAtomExit     math.Int `json:"perAtomExit"` // donated to each underlying atom
	AssetsRemoved   math.Int `json:"assetsRemoved"`
}

// Fees returns the total charged to the redeemer.
func (q RedeemQuote) Fees() math.Int {
	return q.ExitFee.Add(q.ProtocolFee)
}

func zeroDepositQuote(value math.Int) DepositQuote {
	z := math.ZeroInt()
	return DepositQuote{
		Assets: value, ProtocolFee: z, EntryFee: z, AtomWalletFee: z, AtomFraction: z,
		PerAtom: z, AssetsAfterFees: value, GhostShares: z, GhostCost: z, CounterGhostCost: z, Shares: z,
	}
}

// quoteDeposit prices value into vault v. Charged deposits run the full fee
// cascade; uncharged ones are the atom-fraction side deposits of a triple.
// counterGhost is nonzero only when a triple is being created.
func (o *op) quoteDeposit(c curve.Curve, v store.Vault, value math.Int, charged bool, counterGhost math.Int) (DepositQuote, error) {
	q := zeroDepositQuote(value)
	q.CounterGhostCost = counterGhost
	kind := term.KindOf(v.TermID)

	if charged {
		q.ProtocolFee = o.fees.Protocol(value)
		// An empty vault never pays an entry fee, whatever the threshold, so
		// the genesis deposit is priced 1:1.
		if v.TotalShares.IsPositive() && v.TotalShares.GTE(o.snap.General.FeeThreshold) {
			q.EntryFee = o.fees.Entry(value)
		}
		switch kind {
		case term.KindAtom:
			q.AtomWalletFee = o.fees.AtomWallet(value)
		case term.KindTriple, term.KindCounterTriple:
			q.AtomFraction, q.PerAtom = o.fees.AtomDepositFraction(value)
		}
		q.AssetsAfterFees = value.Sub(q.ProtocolFee).Sub(q.AtomWalletFee).Sub(q.AtomFraction)
	}

	post := v.State()
	if post.TotalShares.IsZero() {
		q.GhostShares = o.snap.General.MinShare
		q.GhostCost = o.ghostCost()
		post = curve.State{TotalAssets: post.TotalAssets.Add(q.GhostCost), TotalShares: q.GhostShares}
	}

	mintable := q.AssetsAfterFees.Sub(q.CounterGhostCost).Sub(q.GhostCost).Sub(q.EntryFee)
	if !mintable.IsPositive() {
		return q, fault.Validation(fault.CodeInsufficientValue,
			"%s leaves nothing to mint after fees and ghost shares", value).
			With("term", v.TermID.Hex())
	}
	q.Shares = c.SharesForDeposit(mintable, post)
	if q.Shares.IsZero() && charged {
		return q, fault.Validation(fault.CodeZeroShares, "deposit of %s mints zero shares", value).
			With("term", v.TermID.Hex())
	}
	return q, nil
}

// vaultAssetsAdded is what a quoted deposit adds to the vault's totalAssets.
func (q DepositQuote) vaultAssetsAdded() math.Int {
	return q.AssetsAfterFees.Sub(q.CounterGhostCost)
}

// quoteRedeem prices burning shares from rec's vault v.
func (o *op) quoteRedeem(c curve.Curve, rec store.Term, v store.Vault, shares math.Int) (RedeemQuote, error) {
	z := math.ZeroInt()
	q := RedeemQuote{Shares: shares, ExitFee: z, ProtocolFee: z, PerAtomExit: z}

	if shares.GT(v.TotalShares) {
		return q, fault.State(fault.CodeInsufficientShares, "vault holds %s shares, %s requested", v.TotalShares, shares).
			With("term", v.TermID.Hex())
	}
	q.GrossAssets = c.AssetsForRedeem(shares, v.State())
	if q.GrossAssets.GT(v.TotalAssets) {
		return q, fault.State(fault.CodeInsufficientVaultAssets, "vault holds %s assets, redemption needs %s",
			v.TotalAssets, q.GrossAssets).With("term", v.TermID.Hex())
	}

	q.ProtocolFee = minInt(o.fees.Protocol(q.GrossAssets), q.GrossAssets)
	if v.TotalShares.Sub(shares).GTE(o.snap.General.FeeThreshold) {
		q.ExitFee = minInt(o.fees.Exit(q.GrossAssets), q.GrossAssets.Sub(q.ProtocolFee))
	}
	q.AssetsAfterFees = q.GrossAssets.Sub(q.ExitFee).Sub(q.ProtocolFee)

	// The exit fee normally stays in the vault. Triple-family vaults pass it
	// on to the underlying atoms instead, keeping the division remainder and
	// the parts of atoms that have no live default-curve vault.
	q.AssetsRemoved = q.GrossAssets.Sub(q.ExitFee)
	if term.IsTripleFamily(v.TermID) {
		q.PerAtomExit = q.ExitFee.QuoRaw(3)
		recipients, err := o.exitFeeRecipients(rec, q.PerAtomExit)
		if err != nil {
			return q, err
		}
		q.AssetsRemoved = q.AssetsRemoved.Add(q.PerAtomExit.MulRaw(int64(len(recipients))))
	}
	return q, nil
}

// exitFeeRecipients returns the live default-curve vaults of the atoms under
// triple rec that receive perAtom of a redemption's exit fee.
func (o *op) exitFeeRecipients(rec store.Term, perAtom math.Int) ([]store.Vault, error) {
	if !perAtom.IsPositive() || !term.IsTripleFamily(rec.ID) {
		return nil, nil
	}
	var live []store.Vault
	for _, atom := range []term.ID{rec.Subject, rec.Predicate, rec.Object} {
		v, found, err := o.tx.GetVault(atom, o.curves.Default())
		if err != nil {
			return nil, err
		}
		if found && v.TotalShares.IsPositive() {
			live = append(live, v)
		}
	}
	return live, nil
}

func minInt(a, b math.Int) math.Int {
	if a.LT(b) {
		return a
	}
	return b
}
