package store

import (
	"database/sql"

	"cosmossdk.io/math"
	"github.com/cockroachdb/errors"

	"github.com/roach88/multivault/internal/curve"
	"github.com/roach88/multivault/internal/term"
)

// Vault is the (term, curve) pool.
type Vault struct {
	TermID      term.ID
	CurveID     curve.ID
	TotalAssets math.Int
	TotalShares math.Int
}

// State returns the curve pricing state of v.
func (v Vault) State() curve.State {
	return curve.State{TotalAssets: v.TotalAssets, TotalShares: v.TotalShares}
}

// Holder is one account's share balance in a vault.
type Holder struct {
	Account term.Address
	Shares  math.Int
}

// GetVault returns the vault for (id, curveID). A vault that was never funded
// is returned with zero totals and found=false.
func (t *Tx) GetVault(id term.ID, curveID curve.ID) (Vault, bool, error) {
	v := Vault{TermID: id, CurveID: curveID, TotalAssets: math.ZeroInt(), TotalShares: math.ZeroInt()}
	var assets, shares string
	err := t.queryRow(`
		SELECT total_assets, total_shares FROM vaults WHERE term_id = ? AND curve_id = ?
	`, id.Hex(), int64(curveID)).Scan(&assets, &shares)
	if errors.Is(err, sql.ErrNoRows) {
		return v, false, nil
	}
	if err != nil {
		return v, false, errors.Wrapf(err, "read vault %s/%d", id, curveID)
	}
	if v.TotalAssets, err = parseAmount("vaults.total_assets", assets); err != nil {
		return v, false, err
	}
	if v.TotalShares, err = parseAmount("vaults.total_shares", shares); err != nil {
		return v, false, err
	}
	return v, true, nil
}

// PutVault upserts v.
func (t *Tx) PutVault(v Vault) error {
	err := t.exec(`
		INSERT INTO vaults (term_id, curve_id, total_assets, total_shares)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(term_id, curve_id) DO UPDATE SET
			total_assets = excluded.total_assets,
			total_shares = excluded.total_shares
	`, v.TermID.Hex(), int64(v.CurveID), v.TotalAssets.String(), v.TotalShares.String())
	if err != nil {
		return errors.Wrapf(err, "write vault %s/%d", v.TermID, v.CurveID)
	}
	return nil
}

// ListVaults returns every vault of id, ordered by curve.
func (t *Tx) ListVaults(id term.ID) ([]Vault, error) {
	rows, err := t.query(`
		SELECT curve_id, total_assets, total_shares FROM vaults
		WHERE term_id = ? ORDER BY curve_id ASC
	`, id.Hex())
	if err != nil {
		return nil, errors.Wrap(err, "query vaults")
	}
	defer rows.Close()

	vaults := []Vault{}
	for rows.Next() {
		var (
			curveID        int64
			assets, shares string
		)
		if err := rows.Scan(&curveID, &assets, &shares); err != nil {
			return nil, errors.Wrap(err, "scan vault")
		}
		v := Vault{TermID: id, CurveID: curve.ID(curveID)}
		if v.TotalAssets, err = parseAmount("vaults.total_assets", assets); err != nil {
			return nil, err
		}
		if v.TotalShares, err = parseAmount("vaults.total_shares", shares); err != nil {
			return nil, err
		}
		vaults = append(vaults, v)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate vaults")
	}
	return vaults, nil
}

// GetShares returns account's balance in (id, curveID), zero if none.
func (t *Tx) GetShares(account term.Address, id term.ID, curveID curve.ID) (math.Int, error) {
	v, _, err := t.scanAmount("shares.balance", `
		SELECT balance FROM shares WHERE account = ? AND term_id = ? AND curve_id = ?
	`, account.Hex(), id.Hex(), int64(curveID))
	return v, err
}

// PutShares sets account's balance in (id, curveID). Zero balances are kept
// as rows; balances never self-delete.
func (t *Tx) PutShares(account term.Address, id term.ID, curveID curve.ID, balance math.Int) error {
	err := t.exec(`
		INSERT INTO shares (account, term_id, curve_id, balance)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(account, term_id, curve_id) DO UPDATE SET balance = excluded.balance
	`, account.Hex(), id.Hex(), int64(curveID), balance.String())
	if err != nil {
		return errors.Wrapf(err, "write shares %s %s/%d", account, id, curveID)
	}
	return nil
}

// HasSharesOnAnyCurve reports whether account holds a nonzero balance in any
// vault of id.
func (t *Tx) HasSharesOnAnyCurve(account term.Address, id term.ID) (bool, error) {
	rows, err := t.query(`
		SELECT balance FROM shares WHERE account = ? AND term_id = ?
	`, account.Hex(), id.Hex())
	if err != nil {
		return false, errors.Wrap(err, "query shares")
	}
	defer rows.Close()

	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return false, errors.Wrap(err, "scan shares")
		}
		bal, err := parseAmount("shares.balance", raw)
		if err != nil {
			return false, err
		}
		if bal.IsPositive() {
			return true, nil
		}
	}
	if err := rows.Err(); err != nil {
		return false, errors.Wrap(err, "iterate shares")
	}
	return false, nil
}

// ListHolders returns the nonzero balances of (id, curveID), excluding the
// ghost-share sentinel, ordered by account.
func (t *Tx) ListHolders(id term.ID, curveID curve.ID) ([]Holder, error) {
	rows, err := t.query(`
		SELECT account, balance FROM shares
		WHERE term_id = ? AND curve_id = ? AND account != ?
		ORDER BY account ASC
	`, id.Hex(), int64(curveID), term.BurnAddress.Hex())
	if err != nil {
		return nil, errors.Wrap(err, "query holders")
	}
	defer rows.Close()

	holders := []Holder{}
	for rows.Next() {
		var account, raw string
		if err := rows.Scan(&account, &raw); err != nil {
			return nil, errors.Wrap(err, "scan holder")
		}
		bal, err := parseAmount("shares.balance", raw)
		if err != nil {
			return nil, err
		}
		if bal.IsZero() {
			continue
		}
		addr, err := parseHexAddress("shares.account", account)
		if err != nil {
			return nil, err
		}
		holders = append(holders, Holder{Account: addr, Shares: bal})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate holders")
	}
	return holders, nil
}
