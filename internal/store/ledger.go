package store

import (
	"database/sql"

	"cosmossdk.io/math"
	"github.com/cockroachdb/errors"

	"github.com/roach88/multivault/internal/term"
)

// GetApproval returns the rights mask owner granted delegate.
func (t *Tx) GetApproval(owner, delegate term.Address) (uint8, bool, error) {
	var rights int
	err := t.queryRow(`
		SELECT rights FROM approvals WHERE owner = ? AND delegate = ?
	`, owner.Hex(), delegate.Hex()).Scan(&rights)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.Wrap(err, "read approval")
	}
	return uint8(rights), true, nil
}

// PutApproval stores a rights mask.
func (t *Tx) PutApproval(owner, delegate term.Address, rights uint8) error {
	err := t.exec(`
		INSERT INTO approvals (owner, delegate, rights) VALUES (?, ?, ?)
		ON CONFLICT(owner, delegate) DO UPDATE SET rights = excluded.rights
	`, owner.Hex(), delegate.Hex(), int(rights))
	if err != nil {
		return errors.Wrap(err, "write approval")
	}
	return nil
}

// DeleteApproval removes the record for (owner, delegate), if any.
func (t *Tx) DeleteApproval(owner, delegate term.Address) error {
	if err := t.exec(`DELETE FROM approvals WHERE owner = ? AND delegate = ?`, owner.Hex(), delegate.Hex()); err != nil {
		return errors.Wrap(err, "delete approval")
	}
	return nil
}

// GetPersonalUtilization returns account's cumulative utilization recorded for
// epoch.
func (t *Tx) GetPersonalUtilization(account term.Address, epoch int64) (math.Int, bool, error) {
	return t.scanAmount("personal_utilization.amount", `
		SELECT amount FROM personal_utilization WHERE account = ? AND epoch = ?
	`, account.Hex(), epoch)
}

// PutPersonalUtilization stores account's cumulative utilization for epoch.
func (t *Tx) PutPersonalUtilization(account term.Address, epoch int64, amount math.Int) error {
	err := t.exec(`
		INSERT INTO personal_utilization (account, epoch, amount) VALUES (?, ?, ?)
		ON CONFLICT(account, epoch) DO UPDATE SET amount = excluded.amount
	`, account.Hex(), epoch, amount.String())
	if err != nil {
		return errors.Wrap(err, "write personal utilization")
	}
	return nil
}

// GetTotalUtilization returns the aggregate cumulative utilization for epoch.
func (t *Tx) GetTotalUtilization(epoch int64) (math.Int, bool, error) {
	return t.scanAmount("total_utilization.amount", `
		SELECT amount FROM total_utilization WHERE epoch = ?
	`, epoch)
}

// PutTotalUtilization stores the aggregate cumulative utilization for epoch.
func (t *Tx) PutTotalUtilization(epoch int64, amount math.Int) error {
	err := t.exec(`
		INSERT INTO total_utilization (epoch, amount) VALUES (?, ?)
		ON CONFLICT(epoch) DO UPDATE SET amount = excluded.amount
	`, epoch, amount.String())
	if err != nil {
		return errors.Wrap(err, "write total utilization")
	}
	return nil
}

// GetLastActiveEpoch returns the last epoch in which account had activity.
func (t *Tx) GetLastActiveEpoch(account term.Address) (int64, bool, error) {
	var epoch int64
	err := t.queryRow(`SELECT epoch FROM last_active WHERE account = ?`, account.Hex()).Scan(&epoch)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.Wrap(err, "read last active epoch")
	}
	return epoch, true, nil
}

// PutLastActiveEpoch records account's last active epoch.
func (t *Tx) PutLastActiveEpoch(account term.Address, epoch int64) error {
	err := t.exec(`
		INSERT INTO last_active (account, epoch) VALUES (?, ?)
		ON CONFLICT(account) DO UPDATE SET epoch = excluded.epoch
	`, account.Hex(), epoch)
	if err != nil {
		return errors.Wrap(err, "write last active epoch")
	}
	return nil
}

// LatestTotalEpoch returns the most recent epoch with an aggregate write.
func (t *Tx) LatestTotalEpoch() (int64, bool, error) {
	var epoch sql.NullInt64
	if err := t.queryRow(`SELECT MAX(epoch) FROM total_utilization`).Scan(&epoch); err != nil {
		return 0, false, errors.Wrap(err, "read latest total epoch")
	}
	return epoch.Int64, epoch.Valid, nil
}

// ProtocolFeeEpoch is the protocol fee accrual of one epoch.
type ProtocolFeeEpoch struct {
	Epoch       int64
	Accrued     math.Int
	Swept       bool
	Destination term.Address
}

// GetProtocolFees returns the accrual for epoch.
func (t *Tx) GetProtocolFees(epoch int64) (ProtocolFeeEpoch, error) {
	rec := ProtocolFeeEpoch{Epoch: epoch, Accrued: math.ZeroInt()}
	var (
		accrued     string
		swept       int
		destination sql.NullString
	)
	err := t.queryRow(`
		SELECT accrued, swept, destination FROM protocol_fees WHERE epoch = ?
	`, epoch).Scan(&accrued, &swept, &destination)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, nil
	}
	if err != nil {
		return rec, errors.Wrap(err, "read protocol fees")
	}
	if rec.Accrued, err = parseAmount("protocol_fees.accrued", accrued); err != nil {
		return rec, err
	}
	rec.Swept = swept != 0
	if destination.Valid {
		if rec.Destination, err = parseHexAddress("protocol_fees.destination", destination.String); err != nil {
			return rec, err
		}
	}
	return rec, nil
}

// PutProtocolFees upserts an epoch's accrual.
func (t *Tx) PutProtocolFees(rec ProtocolFeeEpoch) error {
	var destination any
	if !rec.Destination.IsZero() {
		destination = rec.Destination.Hex()
	}
	swept := 0
	if rec.Swept {
		swept = 1
	}
	err := t.exec(`
		INSERT INTO protocol_fees (epoch, accrued, swept, destination) VALUES (?, ?, ?, ?)
		ON CONFLICT(epoch) DO UPDATE SET
			accrued = excluded.accrued,
			swept = excluded.swept,
			destination = excluded.destination
	`, rec.Epoch, rec.Accrued.String(), swept, destination)
	if err != nil {
		return errors.Wrap(err, "write protocol fees")
	}
	return nil
}

// GetAtomWalletFees returns the unclaimed wallet fees of atom.
func (t *Tx) GetAtomWalletFees(atom term.ID) (math.Int, error) {
	v, _, err := t.scanAmount("atom_wallet_fees.accrued", `
		SELECT accrued FROM atom_wallet_fees WHERE term_id = ?
	`, atom.Hex())
	return v, err
}

// PutAtomWalletFees sets the unclaimed wallet fees of atom.
func (t *Tx) PutAtomWalletFees(atom term.ID, amount math.Int) error {
	err := t.exec(`
		INSERT INTO atom_wallet_fees (term_id, accrued) VALUES (?, ?)
		ON CONFLICT(term_id) DO UPDATE SET accrued = excluded.accrued
	`, atom.Hex(), amount.String())
	if err != nil {
		return errors.Wrapf(err, "write atom wallet fees %s", atom)
	}
	return nil
}
