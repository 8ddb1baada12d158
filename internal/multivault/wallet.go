package multivault

import (
	"context"

	"cosmossdk.io/math"

	"github.com/roach88/multivault/internal/events"
	"github.com/roach88/multivault/internal/fault"
	"github.com/roach88/multivault/internal/term"
)

// ClaimAtomWalletDepositFees pays atom's accrued wallet fees to its wallet.
// Only the wallet itself may claim. Claiming an empty accrual succeeds and
// pays nothing.
func (e *Engine) ClaimAtomWalletDepositFees(ctx context.Context, caller term.Address, atom term.ID) (math.Int, error) {
	claimed := math.ZeroInt()
	err := e.run(ctx, "claim_atom_wallet_fees", func(o *op) error {
		if err := o.requireActive(); err != nil {
			return err
		}
		if _, err := o.requireAtom(atom); err != nil {
			return err
		}
		wallet := term.WalletAddress(o.snap.Wallet.Factory, o.snap.Wallet.ImplementationHash, atom)
		if caller != wallet {
			return fault.Authorization(fault.CodeNotWallet, "caller is not the atom wallet").
				With("caller", caller.Hex()).
				With("wallet", wallet.Hex())
		}

		accrued, err := o.tx.GetAtomWalletFees(atom)
		if err != nil {
			return err
		}
		if !accrued.IsPositive() {
			return nil
		}
		if err := o.tx.PutAtomWalletFees(atom, math.ZeroInt()); err != nil {
			return err
		}
		if err := o.tokens.Transfer(term.CustodyAddress, wallet, accrued); err != nil {
			return err
		}

		o.log.Debugw("atom wallet fees claimed", "term", atom, "wallet", wallet, "amount", accrued)
		claimed = accrued
		return o.journal.Emit(events.AtomWalletDepositFeesClaimed(atom, wallet, accrued))
	})
	if err != nil {
		return math.ZeroInt(), err
	}
	return claimed, nil
}
