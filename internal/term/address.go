package term

import (
	"encoding/hex"
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/crypto/sha3"
)

// AddressLength is the byte length of an account address.
const AddressLength = 20

// Address identifies an account: a depositor, delegate, atom wallet or the
// engine's own custody account.
type Address [AddressLength]byte

// ZeroAddress is the unset address. It is never a valid principal.
var ZeroAddress Address

// BurnAddress is the sentinel that holds ghost shares.
var BurnAddress = MustParseAddress("0x000000000000000000000000000000000000dEaD")

// CustodyAddress holds the engine's pooled assets: vault deposits, accrued
// protocol fees and unclaimed atom wallet fees.
var CustodyAddress = AddressFromLabel("custody")

// ParseAddress parses a 0x-prefixed 40-digit hex address.
func ParseAddress(s string) (Address, error) {
	var a Address
	raw := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(raw) != AddressLength*2 {
		return a, errors.Newf("address %q: want %d hex digits, got %d", s, AddressLength*2, len(raw))
	}
	if _, err := hex.Decode(a[:], []byte(raw)); err != nil {
		return a, errors.Wrapf(err, "address %q", s)
	}
	return a, nil
}

// MustParseAddress is like ParseAddress but panics on error.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// AddressFromLabel derives a stable address from a human label.
// Used for named fixture accounts and the custody account.
func AddressFromLabel(label string) Address {
	var a Address
	sum := keccak256([]byte("multivault/address/" + label))
	copy(a[:], sum[12:])
	return a
}

// IsZero reports whether a is the zero address.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// Hex returns the lowercase 0x-prefixed encoding.
func (a Address) Hex() string {
	return "0x" + hex.EncodeToString(a[:])
}

// String implements fmt.Stringer.
func (a Address) String() string {
	return a.Hex()
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.Hex()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func keccak256(parts ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}
