package multivault

import (
	"context"

	"cosmossdk.io/math"

	"github.com/roach88/multivault/internal/curve"
	"github.com/roach88/multivault/internal/events"
	"github.com/roach88/multivault/internal/fault"
	"github.com/roach88/multivault/internal/store"
	"github.com/roach88/multivault/internal/term"
)

// RedeemResult is the outcome of one redemption.
type RedeemResult struct {
	Term   term.ID
	Curve  curve.ID
	Assets math.Int // paid to the receiver
	Quote  RedeemQuote
}

// Redeem burns shares of (id, curveID) held by receiver and pays the
// proceeds, net of fees, to receiver. caller must be receiver or hold redeem
// approval from receiver. The vault must keep minShare shares unless the
// sentinel itself is both caller and receiver.
func (e *Engine) Redeem(ctx context.Context, caller, receiver term.Address, id term.ID, curveID curve.ID, shares, minAssets math.Int) (RedeemResult, error) {
	var res RedeemResult
	err := e.run(ctx, "redeem", func(o *op) error {
		var err error
		res, err = o.redeem(caller, receiver, id, curveID, shares, minAssets)
		return err
	})
	return res, err
}

// RedeemBatch applies Redeem element-wise in one transaction.
func (e *Engine) RedeemBatch(ctx context.Context, caller, receiver term.Address, ids []term.ID, curveIDs []curve.ID, shares, minAssets []math.Int) ([]RedeemResult, error) {
	if err := checkBatch(len(ids), len(curveIDs), len(shares), len(minAssets)); err != nil {
		return nil, err
	}
	var results []RedeemResult
	err := e.run(ctx, "redeem_batch", func(o *op) error {
		results = make([]RedeemResult, 0, len(ids))
		for i := range ids {
			res, err := o.redeem(caller, receiver, ids[i], curveIDs[i], shares[i], minAssets[i])
			if err != nil {
				return indexed(err, i)
			}
			results = append(results, res)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (o *op) redeem(caller, receiver term.Address, id term.ID, curveID curve.ID, shares, minAssets math.Int) (RedeemResult, error) {
	if err := o.requireActive(); err != nil {
		return RedeemResult{}, err
	}
	if receiver.IsZero() {
		return RedeemResult{}, fault.Validation(fault.CodeZeroAddress, "receiver is the zero address")
	}
	if !shares.IsPositive() {
		return RedeemResult{}, fault.Validation(fault.CodeZeroShares, "redeem of %s shares", shares)
	}
	ok, err := o.approvals.CanRedeem(caller, receiver)
	if err != nil {
		return RedeemResult{}, err
	}
	if !ok {
		return RedeemResult{}, fault.Authorization(fault.CodeNotApproved, "caller may not redeem for receiver").
			With("caller", caller.Hex()).
			With("receiver", receiver.Hex())
	}
	rec, err := o.requireTerm(id)
	if err != nil {
		return RedeemResult{}, err
	}
	c, err := o.requireCurve(curveID)
	if err != nil {
		return RedeemResult{}, err
	}

	v, _, err := o.tx.GetVault(id, curveID)
	if err != nil {
		return RedeemResult{}, err
	}
	// Only the sentinel, redeeming its own ghost shares, may take a vault
	// below its ghost floor. A delegate of the sentinel may not.
	sentinel := caller == term.BurnAddress && receiver == term.BurnAddress
	if !sentinel && v.TotalShares.Sub(shares).LT(o.snap.General.MinShare) {
		return RedeemResult{}, fault.State(fault.CodeBelowGhostFloor,
			"redeeming %s of %s shares would leave fewer than %s", shares, v.TotalShares, o.snap.General.MinShare).
			With("term", id.Hex())
	}
	balance, err := o.tx.GetShares(receiver, id, curveID)
	if err != nil {
		return RedeemResult{}, err
	}
	if balance.LT(shares) {
		return RedeemResult{}, fault.State(fault.CodeInsufficientShares, "balance %s below %s", balance, shares).
			With("term", id.Hex()).
			With("account", receiver.Hex())
	}

	q, err := o.quoteRedeem(c, rec, v, shares)
	if err != nil {
		return RedeemResult{}, err
	}
	if q.AssetsAfterFees.LT(minAssets) {
		return RedeemResult{}, fault.State(fault.CodeSlippage, "redemption pays %s, minimum %s", q.AssetsAfterFees, minAssets).
			With("term", id.Hex())
	}

	if err := o.donateExitFee(rec, q.PerAtomExit); err != nil {
		return RedeemResult{}, err
	}
	v.TotalShares = v.TotalShares.Sub(shares)
	v.TotalAssets = v.TotalAssets.Sub(q.AssetsRemoved)
	if err := o.tx.PutVault(v); err != nil {
		return RedeemResult{}, err
	}
	balance = balance.Sub(shares)
	if err := o.tx.PutShares(receiver, id, curveID, balance); err != nil {
		return RedeemResult{}, err
	}

	if err := o.accrue(caller, q.ProtocolFee); err != nil {
		return RedeemResult{}, err
	}
	if err := o.tokens.Transfer(term.CustodyAddress, receiver, q.AssetsAfterFees); err != nil {
		return RedeemResult{}, err
	}
	if err := o.recordUtilization(receiver, q.GrossAssets.Neg()); err != nil {
		return RedeemResult{}, err
	}

	err = o.journal.Emit(events.Redeemed(events.Redemption{
		Sender:      caller,
		Receiver:    receiver,
		Term:        id,
		Curve:       curveID,
		Shares:      shares,
		TotalShares: balance,
		Assets:      q.AssetsAfterFees,
		Fees:        q.Fees(),
		VaultType:   rec.Kind,
	}))
	if err != nil {
		return RedeemResult{}, err
	}
	if err := o.emitPrice(c, v); err != nil {
		return RedeemResult{}, err
	}

	o.log.Debugw("redeem", "term", id.Hex(), "curve", curveID, "shares", shares, "assets", q.AssetsAfterFees)
	return RedeemResult{Term: id, Curve: curveID, Assets: q.AssetsAfterFees, Quote: q}, nil
}

// donateExitFee adds perAtom to each vault exitFeeRecipients selects, as
// assets only, minting nothing.
func (o *op) donateExitFee(rec store.Term, perAtom math.Int) error {
	recipients, err := o.exitFeeRecipients(rec, perAtom)
	if err != nil || len(recipients) == 0 {
		return err
	}
	c, err := o.requireCurve(o.curves.Default())
	if err != nil {
		return err
	}
	for _, v := range recipients {
		v.TotalAssets = v.TotalAssets.Add(perAtom)
		if err := o.tx.PutVault(v); err != nil {
			return err
		}
		if err := o.emitPrice(c, v); err != nil {
			return err
		}
	}
	return nil
}
