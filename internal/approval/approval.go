// Package approval records which delegates may deposit or redeem on behalf
// of an owner.
package approval

import (
	"github.com/roach88/multivault/internal/fault"
	"github.com/roach88/multivault/internal/store"
	"github.com/roach88/multivault/internal/term"
)

// Rights is a bitmask of delegated permissions.
type Rights uint8

const (
	None    Rights = 0
	Deposit Rights = 1 << 0
	Redeem  Rights = 1 << 1
	Both           = Deposit | Redeem
)

// String returns the rights label used in notifications and scenario files.
func (r Rights) String() string {
	switch r {
	case None:
		return "none"
	case Deposit:
		return "deposit"
	case Redeem:
		return "redeem"
	case Both:
		return "both"
	default:
		return "invalid"
	}
}

// ParseRights parses a label produced by Rights.String.
func ParseRights(s string) (Rights, error) {
	switch s {
	case "none":
		return None, nil
	case "deposit":
		return Deposit, nil
	case "redeem":
		return Redeem, nil
	case "both":
		return Both, nil
	}
	return None, fault.Validation(fault.CodeInvalidRights, "unknown approval rights %q", s)
}

// Valid reports whether r is one of the four defined masks.
func (r Rights) Valid() bool {
	return r <= Both
}

// Book reads and writes approvals inside one store transaction.
type Book struct {
	tx *store.Tx
}

// New returns a book bound to tx.
func New(tx *store.Tx) Book {
	return Book{tx: tx}
}

// Set stores owner's grant to delegate. Storing None removes the record.
func (b Book) Set(owner, delegate term.Address, rights Rights) error {
	if owner.IsZero() || delegate.IsZero() {
		return fault.Validation(fault.CodeZeroAddress, "approval with zero address")
	}
	if owner == delegate {
		return fault.Authorization(fault.CodeSelfApproval, "cannot approve yourself").
			With("account", owner.Hex())
	}
	if !rights.Valid() {
		return fault.Validation(fault.CodeInvalidRights, "approval rights %d out of range", rights)
	}
	if rights == None {
		return b.tx.DeleteApproval(owner, delegate)
	}
	return b.tx.PutApproval(owner, delegate, uint8(rights))
}

// Get returns the rights owner granted delegate.
func (b Book) Get(owner, delegate term.Address) (Rights, error) {
	raw, _, err := b.tx.GetApproval(owner, delegate)
	return Rights(raw), err
}

// CanDeposit reports whether delegate may deposit for owner. An account is
// always approved for itself.
func (b Book) CanDeposit(delegate, owner term.Address) (bool, error) {
	return b.has(delegate, owner, Deposit)
}

// CanRedeem reports whether delegate may redeem for owner.
func (b Book) CanRedeem(delegate, owner term.Address) (bool, error) {
	return b.has(delegate, owner, Redeem)
}

func (b Book) has(delegate, owner term.Address, want Rights) (bool, error) {
	if delegate == owner {
		return true, nil
	}
	r, err := b.Get(owner, delegate)
	if err != nil {
		return false, err
	}
	return r&want != 0, nil
}
