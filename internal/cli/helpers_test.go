package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/roach88/multivault/internal/config"
	"github.com/roach88/multivault/internal/multivault"
	"github.com/roach88/multivault/internal/store"
	"github.com/roach88/multivault/internal/term"
)

var (
	testFunds, _ = math.NewIntFromString("10000000000000000000")
	oneToken     = math.NewInt(1_000_000_000_000_000_000)
)

// runRoot executes the full command tree and returns stdout.
func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// seedLedger writes a ledger where alice created the atom "hello" with one
// token above the atom cost under the default parameters.
func seedLedger(t *testing.T) (string, term.ID) {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")

	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	eng, err := multivault.New(ctx, st, config.NewStatic(config.Default()))
	require.NoError(t, err)

	alice := term.AddressFromLabel("alice")
	require.NoError(t, eng.MintAssets(ctx, alice, testFunds))
	require.NoError(t, eng.ApproveAssets(ctx, alice, testFunds))

	id, err := eng.CreateAtom(ctx, alice, []byte("hello"), eng.GetAtomCost().Add(oneToken))
	require.NoError(t, err)
	return path, id
}

// withEngine reopens the ledger at path for direct engine reads.
func withEngine(t *testing.T, path string, fn func(ctx context.Context, eng *multivault.Engine)) {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	eng, err := multivault.New(ctx, st, config.NewStatic(config.Default()))
	require.NoError(t, err)
	fn(ctx, eng)
}
