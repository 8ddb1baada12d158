package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/multivault/internal/config"
	"github.com/roach88/multivault/internal/term"
)

func TestIDAtom(t *testing.T) {
	out, err := runRoot(t, "id", "atom", "hello")
	require.NoError(t, err)

	id := term.AtomID([]byte("hello"))
	snap := config.Default()
	wallet := term.WalletAddress(snap.Wallet.Factory, snap.Wallet.ImplementationHash, id)
	assert.Contains(t, out, "atom "+id.Hex())
	assert.Contains(t, out, "wallet "+wallet.Hex())
}

func TestIDTriple_JSON(t *testing.T) {
	out, err := runRoot(t, "--format", "json", "id", "triple", "atom:alice", "atom:knows", "atom:bob")
	require.NoError(t, err)

	var resp struct {
		Status string   `json:"status"`
		Data   IDResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))

	s, p, o := term.AtomID([]byte("alice")), term.AtomID([]byte("knows")), term.AtomID([]byte("bob"))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "triple", resp.Data.Kind)
	assert.Equal(t, term.TripleID(s, p, o).Hex(), resp.Data.ID)
	assert.Equal(t, term.CounterTripleID(s, p, o).Hex(), resp.Data.Counterpart)
	assert.Empty(t, resp.Data.Wallet)
}

func TestIDTriple_HexAndNamedAtomsAgree(t *testing.T) {
	s := term.AtomID([]byte("alice")).Hex()
	byHex, err := runRoot(t, "id", "triple", s, "atom:knows", "atom:bob")
	require.NoError(t, err)
	byName, err := runRoot(t, "id", "triple", "atom:alice", "atom:knows", "atom:bob")
	require.NoError(t, err)
	assert.Equal(t, byName, byHex)
}

func TestIDTriple_BadAtom(t *testing.T) {
	out, err := runRoot(t, "id", "triple", "0x12", "atom:knows", "atom:bob")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "invalid atom")
}

func TestParseAccount(t *testing.T) {
	a, err := parseAccount("alice")
	require.NoError(t, err)
	assert.Equal(t, term.AddressFromLabel("alice"), a)

	hex := "0x2222222222222222222222222222222222222222"
	a, err = parseAccount(hex)
	require.NoError(t, err)
	assert.Equal(t, hex, a.Hex())

	_, err = parseAccount("")
	assert.Error(t, err)
	_, err = parseAccount("0x22")
	assert.Error(t, err)
}
