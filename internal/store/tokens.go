package store

import (
	"cosmossdk.io/math"
	"github.com/cockroachdb/errors"

	"github.com/roach88/multivault/internal/term"
)

// GetBalance returns account's asset balance.
func (t *Tx) GetBalance(account term.Address) (math.Int, error) {
	v, _, err := t.scanAmount("token_balances.balance", `
		SELECT balance FROM token_balances WHERE account = ?
	`, account.Hex())
	return v, err
}

// PutBalance sets account's asset balance.
func (t *Tx) PutBalance(account term.Address, balance math.Int) error {
	err := t.exec(`
		INSERT INTO token_balances (account, balance) VALUES (?, ?)
		ON CONFLICT(account) DO UPDATE SET balance = excluded.balance
	`, account.Hex(), balance.String())
	if err != nil {
		return errors.Wrapf(err, "write balance %s", account)
	}
	return nil
}

// GetAllowance returns what spender may pull from owner.
func (t *Tx) GetAllowance(owner, spender term.Address) (math.Int, error) {
	v, _, err := t.scanAmount("token_allowances.amount", `
		SELECT amount FROM token_allowances WHERE owner = ? AND spender = ?
	`, owner.Hex(), spender.Hex())
	return v, err
}

// PutAllowance sets what spender may pull from owner.
func (t *Tx) PutAllowance(owner, spender term.Address, amount math.Int) error {
	err := t.exec(`
		INSERT INTO token_allowances (owner, spender, amount) VALUES (?, ?, ?)
		ON CONFLICT(owner, spender) DO UPDATE SET amount = excluded.amount
	`, owner.Hex(), spender.Hex(), amount.String())
	if err != nil {
		return errors.Wrap(err, "write allowance")
	}
	return nil
}
