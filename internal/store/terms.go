package store

import (
	"database/sql"

	"github.com/cockroachdb/errors"

	"github.com/roach88/multivault/internal/term"
)

// Term is a registered atom, triple or counter-triple.
type Term struct {
	ID      term.ID
	Kind    term.Kind
	Creator term.Address

	// Data is the atom payload. Empty for triples.
	Data []byte

	// Subject, Predicate and Object are set for triples and counter-triples.
	Subject   term.ID
	Predicate term.ID
	Object    term.ID

	// Counterpart links a triple and its counter-triple.
	Counterpart term.ID
}

func nullableID(id term.ID) any {
	if id.IsZero() {
		return nil
	}
	return id.Hex()
}

// InsertTerm registers t. Registering an existing id is an error.
func (t *Tx) InsertTerm(rec Term) error {
	err := t.exec(`
		INSERT INTO terms (id, kind, creator, data, subject, predicate, object, counterpart)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID.Hex(),
		int(rec.Kind),
		rec.Creator.Hex(),
		rec.Data,
		nullableID(rec.Subject),
		nullableID(rec.Predicate),
		nullableID(rec.Object),
		nullableID(rec.Counterpart),
	)
	if err != nil {
		return errors.Wrapf(err, "insert term %s", rec.ID)
	}
	return nil
}

// TermExists reports whether id is registered.
func (t *Tx) TermExists(id term.ID) (bool, error) {
	var one int
	err := t.queryRow(`SELECT 1 FROM terms WHERE id = ?`, id.Hex()).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "check term %s", id)
	}
	return true, nil
}

// GetTerm returns the term registered under id.
func (t *Tx) GetTerm(id term.ID) (Term, bool, error) {
	var (
		rec                                   Term
		kind                                  int
		creator                               string
		subject, predicate, object, counterID sql.NullString
	)
	err := t.queryRow(`
		SELECT kind, creator, data, subject, predicate, object, counterpart
		FROM terms WHERE id = ?
	`, id.Hex()).Scan(&kind, &creator, &rec.Data, &subject, &predicate, &object, &counterID)
	if errors.Is(err, sql.ErrNoRows) {
		return Term{}, false, nil
	}
	if err != nil {
		return Term{}, false, errors.Wrapf(err, "read term %s", id)
	}

	rec.ID = id
	rec.Kind = term.Kind(kind)
	if rec.Creator, err = parseHexAddress("terms.creator", creator); err != nil {
		return Term{}, false, err
	}
	for _, f := range []struct {
		col string
		src sql.NullString
		dst *term.ID
	}{
		{"terms.subject", subject, &rec.Subject},
		{"terms.predicate", predicate, &rec.Predicate},
		{"terms.object", object, &rec.Object},
		{"terms.counterpart", counterID, &rec.Counterpart},
	} {
		if !f.src.Valid {
			continue
		}
		if *f.dst, err = parseHexID(f.col, f.src.String); err != nil {
			return Term{}, false, err
		}
	}
	return rec, true, nil
}

// CountTerms returns the number of registered terms of kind.
func (t *Tx) CountTerms(kind term.Kind) (int, error) {
	var n int
	if err := t.queryRow(`SELECT COUNT(*) FROM terms WHERE kind = ?`, int(kind)).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count terms")
	}
	return n, nil
}
