package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/multivault/internal/events"
	"github.com/roach88/multivault/internal/multivault"
	"github.com/roach88/multivault/internal/store"
	"github.com/roach88/multivault/internal/term"
)

func TestInspectTerm_Atom(t *testing.T) {
	db, atom := seedLedger(t)
	alice := term.AddressFromLabel("alice")

	out, err := runRoot(t, "--db", db, "--format", "json", "inspect", "term", "atom:hello")
	require.NoError(t, err, out)

	var resp struct {
		Data TermView `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, atom.Hex(), resp.Data.ID)
	assert.Equal(t, "atom", resp.Data.Kind)
	assert.Equal(t, alice.Hex(), resp.Data.Creator)
	assert.Equal(t, "hello", resp.Data.Data)
	assert.NotEmpty(t, resp.Data.Wallet)
	assert.NotEqual(t, "0", resp.Data.WalletFees)
}

func TestInspectTerm_Unknown(t *testing.T) {
	db, _ := seedLedger(t)

	out, err := runRoot(t, "--db", db, "inspect", "term", "atom:missing")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [UNKNOWN_TERM]")
}

func TestInspectVault(t *testing.T) {
	db, atom := seedLedger(t)
	alice := term.AddressFromLabel("alice")

	var v store.Vault
	withEngine(t, db, func(ctx context.Context, eng *multivault.Engine) {
		var err error
		v, err = eng.GetVault(ctx, atom, eng.Snapshot().Curves.Default)
		require.NoError(t, err)
	})

	out, err := runRoot(t, "--db", db, "--format", "json", "inspect", "vault", "atom:hello")
	require.NoError(t, err, out)

	var resp struct {
		Data VaultView `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, uint32(1), resp.Data.Curve)
	assert.Equal(t, v.TotalAssets.String(), resp.Data.TotalAssets)
	assert.Equal(t, v.TotalShares.String(), resp.Data.TotalShares)
	assert.Contains(t, resp.Data.Holders, alice.Hex())
	assert.NotContains(t, resp.Data.Holders, term.BurnAddress.Hex(), "ghost shares are not listed")
}

func TestInspectEvents(t *testing.T) {
	db, _ := seedLedger(t)

	out, err := runRoot(t, "--db", db, "inspect", "events")
	require.NoError(t, err, out)
	assert.Contains(t, out, "AtomCreated")
	assert.Contains(t, out, "operation(s)")

	out, err = runRoot(t, "--db", db, "--format", "json", "inspect", "events", "--kind", "AtomCreated")
	require.NoError(t, err, out)

	var resp struct {
		Data EventsResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Events, 1)
	assert.Equal(t, 1, resp.Data.Stats.Ops)
	assert.Equal(t, map[string]int{"AtomCreated": 1}, resp.Data.Stats.ByKind)
	assert.Equal(t, "0x68656c6c6f", resp.Data.Events[0].Attrs["atomData"])
}

func TestBuildEventsResult(t *testing.T) {
	evs := []events.Event{
		{Seq: 1, OpID: "op-1", Kind: events.KindAtomCreated, Attrs: map[string]any{}},
		{Seq: 2, OpID: "op-1", Kind: events.KindDeposited, Attrs: map[string]any{}},
		{Seq: 3, OpID: "op-2", Kind: events.KindDeposited, Attrs: map[string]any{}},
	}

	all := buildEventsResult(evs, "", "")
	assert.Equal(t, 3, all.Stats.Total)
	assert.Equal(t, 2, all.Stats.Ops)
	assert.Equal(t, 2, all.Stats.ByKind["Deposited"])

	byOp := buildEventsResult(evs, "", "op-2")
	require.Len(t, byOp.Events, 1)
	assert.Equal(t, int64(3), byOp.Events[0].Seq)

	none := buildEventsResult(evs, "Redeemed", "")
	assert.Empty(t, none.Events)
	assert.Equal(t, 0, none.Stats.Ops)
}

func TestFormatAttrs(t *testing.T) {
	got := formatAttrs(map[string]any{"termId": "0xab", "curveId": int64(1), "paused": false})
	assert.Equal(t, "curveId=1 paused=false termId=0xab", got)
}

func TestInspectFees(t *testing.T) {
	db, _ := seedLedger(t)

	out, err := runRoot(t, "--db", db, "--format", "json", "inspect", "fees")
	require.NoError(t, err, out)

	var resp struct {
		Data FeesView `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, resp.Data.CurrentEpoch, resp.Data.Epoch)
	assert.NotEqual(t, "0", resp.Data.Accrued, "atom creation accrues a protocol fee")
	assert.False(t, resp.Data.Swept)

	out, err = runRoot(t, "--db", db, "inspect", "fees", "not-an-epoch")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "invalid epoch")
}

func TestInspectAccount(t *testing.T) {
	db, atom := seedLedger(t)
	alice := term.AddressFromLabel("alice")

	out, err := runRoot(t, "--db", db, "--format", "json", "inspect", "account", "alice", "--term", "atom:hello")
	require.NoError(t, err, out)

	var resp struct {
		Data AccountView `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, alice.Hex(), resp.Data.Address)
	assert.NotEqual(t, testFunds.String(), resp.Data.Balance, "creation spent part of the balance")
	require.NotNil(t, resp.Data.LastActiveEpoch)
	assert.NotEmpty(t, resp.Data.Utilization)
	assert.NotEqual(t, "0", resp.Data.Shares[atom.Hex()])

	var shares math.Int
	withEngine(t, db, func(ctx context.Context, eng *multivault.Engine) {
		var err error
		shares, err = eng.GetShares(ctx, alice, atom, eng.Snapshot().Curves.Default)
		require.NoError(t, err)
	})
	assert.Equal(t, shares.String(), resp.Data.Shares[atom.Hex()])
}

func TestInspectEvents_EmptyLedger(t *testing.T) {
	db := filepath.Join(t.TempDir(), "empty.db")

	out, err := runRoot(t, "--db", db, "inspect", "events")
	require.NoError(t, err, out)
	assert.Contains(t, out, "No events.")
}
