// Package asset is the fungible token the vaults are denominated in.
//
// Balances and allowances live in the store, so token movements share the
// transaction of the vault operation that causes them. A failed operation
// therefore never leaves a half-completed transfer behind.
package asset

import (
	"cosmossdk.io/math"
	"github.com/cockroachdb/errors"

	"github.com/roach88/multivault/internal/fault"
	"github.com/roach88/multivault/internal/store"
	"github.com/roach88/multivault/internal/term"
)

// Ledger moves token balances inside one store transaction.
type Ledger struct {
	tx *store.Tx
}

// New returns a ledger bound to tx.
func New(tx *store.Tx) Ledger {
	return Ledger{tx: tx}
}

// BalanceOf returns account's balance.
func (l Ledger) BalanceOf(account term.Address) (math.Int, error) {
	return l.tx.GetBalance(account)
}

// Allowance returns what spender may still pull from owner.
func (l Ledger) Allowance(owner, spender term.Address) (math.Int, error) {
	return l.tx.GetAllowance(owner, spender)
}

// Mint credits amount to account out of thin air. Used to fund fixture
// accounts.
func (l Ledger) Mint(account term.Address, amount math.Int) error {
	if account.IsZero() {
		return fault.Validation(fault.CodeZeroAddress, "mint to zero address")
	}
	if amount.IsNegative() {
		return errors.Newf("negative mint %s", amount)
	}
	bal, err := l.tx.GetBalance(account)
	if err != nil {
		return err
	}
	return l.tx.PutBalance(account, bal.Add(amount))
}

// Approve sets spender's allowance over owner's balance, replacing any
// previous value.
func (l Ledger) Approve(owner, spender term.Address, amount math.Int) error {
	if owner.IsZero() || spender.IsZero() {
		return fault.Validation(fault.CodeZeroAddress, "approve with zero address")
	}
	if amount.IsNegative() {
		return errors.Newf("negative allowance %s", amount)
	}
	return l.tx.PutAllowance(owner, spender, amount)
}

// Transfer moves amount from one account to another.
func (l Ledger) Transfer(from, to term.Address, amount math.Int) error {
	if to.IsZero() {
		return fault.Validation(fault.CodeZeroAddress, "transfer to zero address")
	}
	if !amount.IsPositive() {
		return nil
	}
	fromBal, err := l.tx.GetBalance(from)
	if err != nil {
		return err
	}
	if fromBal.LT(amount) {
		return fault.State(fault.CodeInsufficientBalance, "balance %s below transfer %s", fromBal, amount).
			With("account", from.Hex())
	}
	if from == to {
		return nil
	}
	toBal, err := l.tx.GetBalance(to)
	if err != nil {
		return err
	}
	if err := l.tx.PutBalance(from, fromBal.Sub(amount)); err != nil {
		return errors.Wrap(err, "debit")
	}
	if err := l.tx.PutBalance(to, toBal.Add(amount)); err != nil {
		return errors.Wrap(err, "credit")
	}
	return nil
}

// TransferFrom moves amount from owner to to on behalf of spender, consuming
// spender's allowance.
func (l Ledger) TransferFrom(spender, owner, to term.Address, amount math.Int) error {
	if !amount.IsPositive() {
		return nil
	}
	allowance, err := l.tx.GetAllowance(owner, spender)
	if err != nil {
		return err
	}
	if allowance.LT(amount) {
		return fault.State(fault.CodeInsufficientAllowance, "allowance %s below transfer %s", allowance, amount).
			With("owner", owner.Hex()).
			With("spender", spender.Hex())
	}
	if err := l.Transfer(owner, to, amount); err != nil {
		return err
	}
	return l.tx.PutAllowance(owner, spender, allowance.Sub(amount))
}
