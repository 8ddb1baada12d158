package store

import (
	"database/sql"

	"cosmossdk.io/math"
	"github.com/cockroachdb/errors"

	"github.com/roach88/multivault/internal/term"
)

// parseAmount decodes a TEXT amount column.
func parseAmount(column, s string) (math.Int, error) {
	v, ok := math.NewIntFromString(s)
	if !ok {
		return math.Int{}, errors.Newf("%s: invalid stored amount %q", column, s)
	}
	return v, nil
}

// scanAmount runs a single-row, single-column amount query. Missing rows
// yield zero and found=false.
func (t *Tx) scanAmount(column, query string, args ...any) (math.Int, bool, error) {
	var raw string
	err := t.queryRow(query, args...).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return math.ZeroInt(), false, nil
	}
	if err != nil {
		return math.Int{}, false, errors.Wrapf(err, "read %s", column)
	}
	v, err := parseAmount(column, raw)
	if err != nil {
		return math.Int{}, false, err
	}
	return v, true, nil
}

func parseHexID(column, s string) (term.ID, error) {
	id, err := term.ParseID(s)
	if err != nil {
		return term.ID{}, errors.Wrapf(err, "%s", column)
	}
	return id, nil
}

func parseHexAddress(column, s string) (term.Address, error) {
	a, err := term.ParseAddress(s)
	if err != nil {
		return term.Address{}, errors.Wrapf(err, "%s", column)
	}
	return a, nil
}
