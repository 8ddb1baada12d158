package utilization

import (
	"cosmossdk.io/math"

	"github.com/roach88/multivault/internal/store"
	"github.com/roach88/multivault/internal/term"
)

// Change is the outcome of one RecordDelta call.
type Change struct {
	Epoch    int64
	Delta    math.Int
	Personal math.Int // account's cumulative value after the write
	Total    math.Int // aggregate cumulative value after the write
}

// Ledger reads and writes utilization inside one store transaction.
type Ledger struct {
	tx *store.Tx
}

// New returns a ledger bound to tx.
func New(tx *store.Tx) Ledger {
	return Ledger{tx: tx}
}

// RecordDelta applies a signed delta to account's cell and the aggregate cell
// for epoch.
func (l Ledger) RecordDelta(account term.Address, epoch int64, delta math.Int) (Change, error) {
	personal, err := l.personalBase(account, epoch)
	if err != nil {
		return Change{}, err
	}
	personal = personal.Add(delta)
	if err := l.tx.PutPersonalUtilization(account, epoch, personal); err != nil {
		return Change{}, err
	}
	if err := l.tx.PutLastActiveEpoch(account, epoch); err != nil {
		return Change{}, err
	}

	total, err := l.totalBase(epoch)
	if err != nil {
		return Change{}, err
	}
	total = total.Add(delta)
	if err := l.tx.PutTotalUtilization(epoch, total); err != nil {
		return Change{}, err
	}

	return Change{Epoch: epoch, Delta: delta, Personal: personal, Total: total}, nil
}

// personalBase returns the value an account's epoch cell starts from.
func (l Ledger) personalBase(account term.Address, epoch int64) (math.Int, error) {
	cur, found, err := l.tx.GetPersonalUtilization(account, epoch)
	if err != nil || found {
		return cur, err
	}
	last, active, err := l.tx.GetLastActiveEpoch(account)
	if err != nil {
		return math.Int{}, err
	}
	if !active || last >= epoch {
		return math.ZeroInt(), nil
	}
	prev, _, err := l.tx.GetPersonalUtilization(account, last)
	return prev, err
}

func (l Ledger) totalBase(epoch int64) (math.Int, error) {
	cur, found, err := l.tx.GetTotalUtilization(epoch)
	if err != nil || found {
		return cur, err
	}
	latest, written, err := l.tx.LatestTotalEpoch()
	if err != nil {
		return math.Int{}, err
	}
	if !written || latest >= epoch {
		return math.ZeroInt(), nil
	}
	prev, _, err := l.tx.GetTotalUtilization(latest)
	return prev, err
}

// Personal returns account's cumulative value written in epoch, zero if the
// account did nothing in that epoch.
func (l Ledger) Personal(account term.Address, epoch int64) (math.Int, error) {
	v, _, err := l.tx.GetPersonalUtilization(account, epoch)
	return v, err
}

// Total returns the aggregate cumulative value written in epoch.
func (l Ledger) Total(epoch int64) (math.Int, error) {
	v, _, err := l.tx.GetTotalUtilization(epoch)
	return v, err
}

// LastActiveEpoch returns the last epoch account wrote in.
func (l Ledger) LastActiveEpoch(account term.Address) (int64, bool, error) {
	return l.tx.GetLastActiveEpoch(account)
}
