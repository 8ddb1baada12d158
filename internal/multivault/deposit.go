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

// DepositResult is the outcome of one deposit.
type DepositResult struct {
	Term            term.ID
	Curve           curve.ID
	Shares          math.Int
	AssetsAfterFees math.Int
	Quote           DepositQuote
}

// Deposit stakes value from caller into (id, curveID), minting shares to
// receiver. caller must be receiver or hold deposit approval from receiver.
func (e *Engine) Deposit(ctx context.Context, caller, receiver term.Address, id term.ID, curveID curve.ID, value, minShares math.Int) (DepositResult, error) {
	var res DepositResult
	err := e.run(ctx, "deposit", func(o *op) error {
		var err error
		res, err = o.deposit(caller, receiver, id, curveID, value, minShares)
		return err
	})
	return res, err
}

// DepositBatch applies Deposit element-wise in one transaction. One failing
// element aborts the whole batch.
func (e *Engine) DepositBatch(ctx context.Context, caller, receiver term.Address, ids []term.ID, curveIDs []curve.ID, values, minShares []math.Int) ([]DepositResult, error) {
	if err := checkBatch(len(ids), len(curveIDs), len(values), len(minShares)); err != nil {
		return nil, err
	}
	var results []DepositResult
	err := e.run(ctx, "deposit_batch", func(o *op) error {
		results = make([]DepositResult, 0, len(ids))
		for i := range ids {
			res, err := o.deposit(caller, receiver, ids[i], curveIDs[i], values[i], minShares[i])
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

func (o *op) deposit(caller, receiver term.Address, id term.ID, curveID curve.ID, value, minShares math.Int) (DepositResult, error) {
	if err := o.requireActive(); err != nil {
		return DepositResult{}, err
	}
	if receiver.IsZero() {
		return DepositResult{}, fault.Validation(fault.CodeZeroAddress, "receiver is the zero address")
	}
	ok, err := o.approvals.CanDeposit(caller, receiver)
	if err != nil {
		return DepositResult{}, err
	}
	if !ok {
		return DepositResult{}, fault.Authorization(fault.CodeNotApproved, "caller may not deposit for receiver").
			With("caller", caller.Hex()).
			With("receiver", receiver.Hex())
	}
	rec, err := o.requireTerm(id)
	if err != nil {
		return DepositResult{}, err
	}
	c, err := o.requireCurve(curveID)
	if err != nil {
		return DepositResult{}, err
	}
	if value.LT(o.snap.General.MinDeposit) {
		return DepositResult{}, fault.Validation(fault.CodeDepositBelowMinimum,
			"deposit %s below minimum %s", value, o.snap.General.MinDeposit)
	}
	if err := o.checkCounterStake(receiver, id); err != nil {
		return DepositResult{}, err
	}

	if err := o.pull(caller, value); err != nil {
		return DepositResult{}, err
	}
	q, err := o.depositInto(caller, receiver, rec, c, curveID, value, minShares, true, math.ZeroInt())
	if err != nil {
		return DepositResult{}, err
	}
	if err := o.recordUtilization(receiver, value); err != nil {
		return DepositResult{}, err
	}

	o.log.Debugw("deposit", "term", id.Hex(), "curve", curveID, "assets", value, "shares", q.Shares)
	return DepositResult{Term: id, Curve: curveID, Shares: q.Shares, AssetsAfterFees: q.AssetsAfterFees, Quote: q}, nil
}

// checkCounterStake rejects a deposit into one side of a claim by an account
// holding shares on the other side, on any curve.
func (o *op) checkCounterStake(account term.Address, id term.ID) error {
	if !term.IsTripleFamily(id) {
		return nil
	}
	other, err := term.Counterpart(id)
	if err != nil {
		return err
	}
	held, err := o.tx.HasSharesOnAnyCurve(account, other)
	if err != nil {
		return err
	}
	if held {
		return fault.State(fault.CodeCounterStake, "account holds shares in the opposing vault").
			With("account", account.Hex()).
			With("counterpart", other.Hex())
	}
	return nil
}

// depositInto prices and applies a deposit whose assets are already in
// custody. Charged deposits accrue fees and fan the atom fraction out to the
// underlying atoms.
func (o *op) depositInto(sender, receiver term.Address, rec store.Term, c curve.Curve, curveID curve.ID, value, minShares math.Int, charged bool, counterGhost math.Int) (DepositQuote, error) {
	v, _, err := o.tx.GetVault(rec.ID, curveID)
	if err != nil {
		return DepositQuote{}, err
	}
	q, err := o.quoteDeposit(c, v, value, charged, counterGhost)
	if err != nil {
		return q, err
	}
	if q.Shares.LT(minShares) {
		return q, fault.State(fault.CodeSlippage, "deposit mints %s shares, minimum %s", q.Shares, minShares).
			With("term", rec.ID.Hex())
	}

	if err := o.accrue(sender, q.ProtocolFee); err != nil {
		return q, err
	}
	if q.AtomWalletFee.IsPositive() {
		if err := o.creditAtomWallet(sender, rec.ID, q.AtomWalletFee); err != nil {
			return q, err
		}
	}

	// The vault row must exist before any share row references it.
	v.TotalAssets = v.TotalAssets.Add(q.vaultAssetsAdded())
	v.TotalShares = v.TotalShares.Add(q.GhostShares).Add(q.Shares)
	if err := o.tx.PutVault(v); err != nil {
		return q, err
	}
	if q.GhostShares.IsPositive() {
		if err := o.addShares(term.BurnAddress, rec.ID, curveID, q.GhostShares); err != nil {
			return q, err
		}
	}
	balance, err := o.tx.GetShares(receiver, rec.ID, curveID)
	if err != nil {
		return q, err
	}
	balance = balance.Add(q.Shares)
	if err := o.tx.PutShares(receiver, rec.ID, curveID, balance); err != nil {
		return q, err
	}

	err = o.journal.Emit(events.Deposited(events.Deposit{
		Sender:          sender,
		Receiver:        receiver,
		Term:            rec.ID,
		Curve:           curveID,
		Assets:          value,
		AssetsAfterFees: q.AssetsAfterFees,
		Shares:          q.Shares,
		TotalShares:     balance,
		VaultType:       rec.Kind,
	}))
	if err != nil {
		return q, err
	}
	if err := o.emitPrice(c, v); err != nil {
		return q, err
	}

	if q.PerAtom.IsPositive() {
		if err := o.depositAtomFraction(sender, receiver, rec, q.PerAtom); err != nil {
			return q, err
		}
	}
	return q, nil
}

// depositAtomFraction deposits perAtom, fee-free, into the default-curve
// vault of each atom under a triple.
func (o *op) depositAtomFraction(sender, receiver term.Address, triple store.Term, perAtom math.Int) error {
	curveID := o.curves.Default()
	c, err := o.requireCurve(curveID)
	if err != nil {
		return err
	}
	for _, atomID := range []term.ID{triple.Subject, triple.Predicate, triple.Object} {
		atom, err := o.requireAtom(atomID)
		if err != nil {
			return err
		}
		if _, err := o.depositInto(sender, receiver, atom, c, curveID, perAtom, math.ZeroInt(), false, math.ZeroInt()); err != nil {
			return err
		}
	}
	return nil
}

func (o *op) addShares(account term.Address, id term.ID, curveID curve.ID, shares math.Int) error {
	balance, err := o.tx.GetShares(account, id, curveID)
	if err != nil {
		return err
	}
	return o.tx.PutShares(account, id, curveID, balance.Add(shares))
}

func (o *op) creditAtomWallet(sender term.Address, atom term.ID, amount math.Int) error {
	accrued, err := o.tx.GetAtomWalletFees(atom)
	if err != nil {
		return err
	}
	if err := o.tx.PutAtomWalletFees(atom, accrued.Add(amount)); err != nil {
		return err
	}
	return o.journal.Emit(events.AtomWalletDepositFeeCollected(atom, sender, amount))
}
