package multivault

import (
	"context"
	"time"

	"cosmossdk.io/math"

	"github.com/roach88/multivault/internal/approval"
	"github.com/roach88/multivault/internal/curve"
	"github.com/roach88/multivault/internal/events"
	"github.com/roach88/multivault/internal/fault"
	"github.com/roach88/multivault/internal/store"
	"github.com/roach88/multivault/internal/term"
)

// Identity helpers. These are pure functions of the id encoding.

// CalculateAtomID returns the id data would be registered under.
func (e *Engine) CalculateAtomID(data []byte) term.ID { return term.AtomID(data) }

// CalculateTripleID returns the id of (subject, predicate, object).
func (e *Engine) CalculateTripleID(subject, predicate, object term.ID) term.ID {
	return term.TripleID(subject, predicate, object)
}

// CalculateCounterTripleID returns the negation of (subject, predicate, object).
func (e *Engine) CalculateCounterTripleID(subject, predicate, object term.ID) term.ID {
	return term.CounterTripleID(subject, predicate, object)
}

// ComputeAtomWalletAddress returns the deterministic wallet of atom.
func (e *Engine) ComputeAtomWalletAddress(atom term.ID) term.Address {
	snap := e.Snapshot()
	return term.WalletAddress(snap.Wallet.Factory, snap.Wallet.ImplementationHash, atom)
}

// GetAtomCost returns the minimum value CreateAtom accepts.
func (e *Engine) GetAtomCost() math.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.newFees().AtomCost()
}

// GetTripleCost returns the minimum value CreateTriple accepts.
func (e *Engine) GetTripleCost() math.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.newFees().TripleCost()
}

// Epoch arithmetic.

// CurrentEpoch returns the utilization epoch containing now.
func (e *Engine) CurrentEpoch() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.epochs().At(e.now())
}

// PreviousEpoch returns CurrentEpoch()-1, floored at 0.
func (e *Engine) PreviousEpoch() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.epochs().Previous(e.now())
}

// EpochLength returns the configured epoch length.
func (e *Engine) EpochLength() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snap.Epochs.Length
}

// Term views.

// IsTermCreated reports whether id is registered.
func (e *Engine) IsTermCreated(ctx context.Context, id term.ID) (bool, error) {
	var exists bool
	err := e.view(ctx, func(o *op) error {
		var err error
		exists, err = o.tx.TermExists(id)
		return err
	})
	return exists, err
}

// GetTerm returns the registration of id.
func (e *Engine) GetTerm(ctx context.Context, id term.ID) (store.Term, error) {
	var rec store.Term
	err := e.view(ctx, func(o *op) error {
		var err error
		rec, err = o.requireTerm(id)
		return err
	})
	return rec, err
}

// Vault views.

// GetVault returns the totals of (id, curveID). A vault that was never
// funded reads as zero.
func (e *Engine) GetVault(ctx context.Context, id term.ID, curveID curve.ID) (store.Vault, error) {
	var v store.Vault
	err := e.view(ctx, func(o *op) error {
		if _, err := o.requireCurve(curveID); err != nil {
			return err
		}
		var err error
		v, _, err = o.tx.GetVault(id, curveID)
		return err
	})
	return v, err
}

// GetShares returns account's balance in (id, curveID).
func (e *Engine) GetShares(ctx context.Context, account term.Address, id term.ID, curveID curve.ID) (math.Int, error) {
	var shares math.Int
	err := e.view(ctx, func(o *op) error {
		var err error
		shares, err = o.tx.GetShares(account, id, curveID)
		return err
	})
	return shares, err
}

// ListHolders returns the nonzero balances of (id, curveID), excluding the
// ghost-share sentinel.
func (e *Engine) ListHolders(ctx context.Context, id term.ID, curveID curve.ID) ([]store.Holder, error) {
	var holders []store.Holder
	err := e.view(ctx, func(o *op) error {
		var err error
		holders, err = o.tx.ListHolders(id, curveID)
		return err
	})
	return holders, err
}

// vaultView loads a registered term's vault and its curve.
func (o *op) vaultView(id term.ID, curveID curve.ID) (store.Term, curve.Curve, store.Vault, error) {
	rec, err := o.requireTerm(id)
	if err != nil {
		return rec, nil, store.Vault{}, err
	}
	c, err := o.requireCurve(curveID)
	if err != nil {
		return rec, nil, store.Vault{}, err
	}
	v, _, err := o.tx.GetVault(id, curveID)
	return rec, c, v, err
}

// CurrentSharePrice returns the WAD-scaled assets per share of (id, curveID).
func (e *Engine) CurrentSharePrice(ctx context.Context, id term.ID, curveID curve.ID) (math.Int, error) {
	var price math.Int
	err := e.view(ctx, func(o *op) error {
		_, c, v, err := o.vaultView(id, curveID)
		if err != nil {
			return err
		}
		price = c.CurrentPrice(v.State())
		return nil
	})
	return price, err
}

// ConvertToShares prices assets against the vault's current state, ignoring
// fees and ghost shares.
func (e *Engine) ConvertToShares(ctx context.Context, id term.ID, curveID curve.ID, assets math.Int) (math.Int, error) {
	var shares math.Int
	err := e.view(ctx, func(o *op) error {
		_, c, v, err := o.vaultView(id, curveID)
		if err != nil {
			return err
		}
		shares = c.SharesForDeposit(assets, v.State())
		return nil
	})
	return shares, err
}

// ConvertToAssets prices shares against the vault's current state, ignoring
// fees.
func (e *Engine) ConvertToAssets(ctx context.Context, id term.ID, curveID curve.ID, shares math.Int) (math.Int, error) {
	var assets math.Int
	err := e.view(ctx, func(o *op) error {
		_, c, v, err := o.vaultView(id, curveID)
		if err != nil {
			return err
		}
		assets = c.AssetsForRedeem(shares, v.State())
		return nil
	})
	return assets, err
}

// PreviewDeposit quotes Deposit(value) into (id, curveID) against the
// current state. Shares equal what Deposit would mint.
func (e *Engine) PreviewDeposit(ctx context.Context, id term.ID, curveID curve.ID, value math.Int) (DepositQuote, error) {
	var q DepositQuote
	err := e.view(ctx, func(o *op) error {
		_, c, v, err := o.vaultView(id, curveID)
		if err != nil {
			return err
		}
		q, err = o.quoteDeposit(c, v, value, true, math.ZeroInt())
		return err
	})
	return q, err
}

// PreviewRedeem quotes Redeem(shares) from (id, curveID). AssetsAfterFees
// equals what Redeem would pay.
func (e *Engine) PreviewRedeem(ctx context.Context, id term.ID, curveID curve.ID, shares math.Int) (RedeemQuote, error) {
	var q RedeemQuote
	err := e.view(ctx, func(o *op) error {
		if !shares.IsPositive() {
			return fault.Validation(fault.CodeZeroShares, "redeem of %s shares", shares)
		}
		rec, c, v, err := o.vaultView(id, curveID)
		if err != nil {
			return err
		}
		q, err = o.quoteRedeem(c, rec, v, shares)
		return err
	})
	return q, err
}

// Utilization views.

// PersonalUtilization returns account's cumulative value written in epoch.
func (e *Engine) PersonalUtilization(ctx context.Context, account term.Address, epoch int64) (math.Int, error) {
	var v math.Int
	err := e.view(ctx, func(o *op) error {
		var err error
		v, err = o.util.Personal(account, epoch)
		return err
	})
	return v, err
}

// TotalUtilization returns the aggregate cumulative value written in epoch.
func (e *Engine) TotalUtilization(ctx context.Context, epoch int64) (math.Int, error) {
	var v math.Int
	err := e.view(ctx, func(o *op) error {
		var err error
		v, err = o.util.Total(epoch)
		return err
	})
	return v, err
}

// LastActiveEpoch returns the last epoch account had activity in.
func (e *Engine) LastActiveEpoch(ctx context.Context, account term.Address) (int64, bool, error) {
	var (
		epoch int64
		found bool
	)
	err := e.view(ctx, func(o *op) error {
		var err error
		epoch, found, err = o.util.LastActiveEpoch(account)
		return err
	})
	return epoch, found, err
}

// Fee views.

// AccumulatedProtocolFees returns the accrual of epoch.
func (e *Engine) AccumulatedProtocolFees(ctx context.Context, epoch int64) (store.ProtocolFeeEpoch, error) {
	var rec store.ProtocolFeeEpoch
	err := e.view(ctx, func(o *op) error {
		var err error
		rec, err = o.tx.GetProtocolFees(epoch)
		return err
	})
	return rec, err
}

// AtomWalletDepositFees returns atom's unclaimed wallet fees.
func (e *Engine) AtomWalletDepositFees(ctx context.Context, atom term.ID) (math.Int, error) {
	var v math.Int
	err := e.view(ctx, func(o *op) error {
		var err error
		v, err = o.tx.GetAtomWalletFees(atom)
		return err
	})
	return v, err
}

// Approval views.

// IsApprovedToDeposit reports whether delegate may deposit for owner.
func (e *Engine) IsApprovedToDeposit(ctx context.Context, delegate, owner term.Address) (bool, error) {
	var ok bool
	err := e.view(ctx, func(o *op) error {
		var err error
		ok, err = o.approvals.CanDeposit(delegate, owner)
		return err
	})
	return ok, err
}

// IsApprovedToRedeem reports whether delegate may redeem for owner.
func (e *Engine) IsApprovedToRedeem(ctx context.Context, delegate, owner term.Address) (bool, error) {
	var ok bool
	err := e.view(ctx, func(o *op) error {
		var err error
		ok, err = o.approvals.CanRedeem(delegate, owner)
		return err
	})
	return ok, err
}

// GetApproval returns the rights owner granted delegate.
func (e *Engine) GetApproval(ctx context.Context, owner, delegate term.Address) (approval.Rights, error) {
	var r approval.Rights
	err := e.view(ctx, func(o *op) error {
		var err error
		r, err = o.approvals.Get(owner, delegate)
		return err
	})
	return r, err
}

// Token views.

// BalanceOf returns account's asset balance.
func (e *Engine) BalanceOf(ctx context.Context, account term.Address) (math.Int, error) {
	var v math.Int
	err := e.view(ctx, func(o *op) error {
		var err error
		v, err = o.tokens.BalanceOf(account)
		return err
	})
	return v, err
}

// Allowance returns what the engine may still pull from owner.
func (e *Engine) Allowance(ctx context.Context, owner term.Address) (math.Int, error) {
	var v math.Int
	err := e.view(ctx, func(o *op) error {
		var err error
		v, err = o.tokens.Allowance(owner, term.CustodyAddress)
		return err
	})
	return v, err
}

// Journal views.

// Events returns journaled notifications with seq > after. limit <= 0
// returns all of them.
func (e *Engine) Events(ctx context.Context, after int64, limit int) ([]events.Event, error) {
	var out []events.Event
	err := e.view(ctx, func(o *op) error {
		recs, err := o.tx.ListEvents(after, limit)
		if err != nil {
			return err
		}
		out = make([]events.Event, 0, len(recs))
		for _, rec := range recs {
			ev, err := events.FromRecord(rec)
			if err != nil {
				return err
			}
			out = append(out, ev)
		}
		return nil
	})
	return out, err
}
