// Package term defines the identities of the knowledge graph: account
// addresses, atom and triple ids, and the pure predicates over them.
//
// Ids are Keccak-256 digests. The two high bits of the first byte encode the
// term kind so that kind and counterpart lookups need no storage:
//
//	00 atom
//	10 triple
//	11 counter-triple
//
// A triple and its counter-triple differ only in bit 0x40 of byte 0.
package term

import (
	"encoding/hex"
	"strings"

	"github.com/cockroachdb/errors"
)

// IDLength is the byte length of a term id.
const IDLength = 32

// ID is the content-derived identity of an atom, triple or counter-triple.
type ID [IDLength]byte

// Kind is the term variant encoded in an id.
type Kind int

const (
	KindUnknown Kind = iota
	KindAtom
	KindTriple
	KindCounterTriple
)

const (
	kindMask        = 0xC0
	kindAtom        = 0x00
	kindTriple      = 0x80
	kindCounter     = 0xC0
	counterpartFlip = 0x40
)

var (
	atomSalt   = keccak256([]byte("ATOM_SALT"))
	tripleSalt = keccak256([]byte("TRIPLE_SALT"))
)

// String returns the kind name used in notifications.
func (k Kind) String() string {
	switch k {
	case KindAtom:
		return "atom"
	case KindTriple:
		return "triple"
	case KindCounterTriple:
		return "counter_triple"
	default:
		return "unknown"
	}
}

// AtomID computes the id of an atom from its payload.
func AtomID(data []byte) ID {
	var id ID
	copy(id[:], keccak256(atomSalt, keccak256(data)))
	id[0] = id[0]&^kindMask | kindAtom
	return id
}

// TripleID computes the id of the triple (subject, predicate, object).
func TripleID(subject, predicate, object ID) ID {
	var id ID
	copy(id[:], keccak256(tripleSalt, subject[:], predicate[:], object[:]))
	id[0] = id[0]&^kindMask | kindTriple
	return id
}

// CounterTripleID computes the id of the negation of (subject, predicate, object).
func CounterTripleID(subject, predicate, object ID) ID {
	id := TripleID(subject, predicate, object)
	id[0] |= counterpartFlip
	return id
}

// KindOf decodes the term kind of id.
func KindOf(id ID) Kind {
	if id.IsZero() {
		return KindUnknown
	}
	switch id[0] & kindMask {
	case kindAtom:
		return KindAtom
	case kindTriple:
		return KindTriple
	case kindCounter:
		return KindCounterTriple
	default:
		return KindUnknown
	}
}

// IsAtom reports whether id is encoded as an atom.
func IsAtom(id ID) bool { return KindOf(id) == KindAtom }

// IsTriple reports whether id is encoded as a triple (not its counter).
func IsTriple(id ID) bool { return KindOf(id) == KindTriple }

// IsCounterTriple reports whether id is encoded as a counter-triple.
func IsCounterTriple(id ID) bool { return KindOf(id) == KindCounterTriple }

// IsTripleFamily reports whether id is a triple or a counter-triple.
func IsTripleFamily(id ID) bool {
	k := KindOf(id)
	return k == KindTriple || k == KindCounterTriple
}

// Counterpart returns the paired id of a triple or counter-triple.
func Counterpart(id ID) (ID, error) {
	if !IsTripleFamily(id) {
		return ID{}, errors.Newf("term %s has no counterpart", id)
	}
	id[0] ^= counterpartFlip
	return id, nil
}

// ParseID parses a 0x-prefixed 64-digit hex id.
func ParseID(s string) (ID, error) {
	var id ID
	raw := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(raw) != IDLength*2 {
		return id, errors.Newf("term id %q: want %d hex digits, got %d", s, IDLength*2, len(raw))
	}
	if _, err := hex.Decode(id[:], []byte(raw)); err != nil {
		return id, errors.Wrapf(err, "term id %q", s)
	}
	return id, nil
}

// MustParseID is like ParseID but panics on error.
func MustParseID(s string) ID {
	id, err := ParseID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// IsZero reports whether id is unset.
func (id ID) IsZero() bool {
	return id == ID{}
}

// Hex returns the lowercase 0x-prefixed encoding.
func (id ID) Hex() string {
	return "0x" + hex.EncodeToString(id[:])
}

// String implements fmt.Stringer.
func (id ID) String() string {
	return id.Hex()
}

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.Hex()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := ParseID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
