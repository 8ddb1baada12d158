package store

import (
	"path/filepath"
	"testing"

	"cosmossdk.io/math"

	"github.com/roach88/multivault/internal/term"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testAddress(label string) term.Address {
	return term.AddressFromLabel(label)
}

func amount(t *testing.T, s string) math.Int {
	t.Helper()
	v, ok := math.NewIntFromString(s)
	if !ok {
		t.Fatalf("bad amount %q", s)
	}
	return v
}
