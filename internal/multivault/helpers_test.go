package multivault

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/roach88/multivault/internal/config"
	"github.com/roach88/multivault/internal/curve"
	"github.com/roach88/multivault/internal/events"
	"github.com/roach88/multivault/internal/fault"
	"github.com/roach88/multivault/internal/store"
	"github.com/roach88/multivault/internal/term"
	"github.com/roach88/multivault/internal/testutil"
)

var (
	alice = testutil.Alice
	bob   = testutil.Bob
	carol = testutil.Carol
)

const (
	linear      curve.ID = 1
	progressive curve.ID = 2
)

// fixture is an engine over a fresh file database with a settable clock and
// a recording sink.
type fixture struct {
	t     *testing.T
	ctx   context.Context
	eng   *Engine
	auth  *config.Static
	clock *testutil.Clock
	sink  *events.Recorder
	terms []term.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, testutil.Snapshot())
}

func newFixtureWith(t *testing.T, snap *config.Snapshot) *fixture {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "multivault.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	f := &fixture{
		t:     t,
		ctx:   context.Background(),
		auth:  config.NewStatic(snap),
		clock: testutil.NewClock(snap.Epochs.Start.Add(time.Hour)),
		sink:  events.NewRecorder(),
	}
	f.eng, err = New(f.ctx, st, f.auth,
		WithClock(f.clock.Now),
		WithSink(f.sink),
		WithOpIDs(NewSequenceGenerator("op")),
	)
	require.NoError(t, err)

	for _, who := range []term.Address{alice, bob, carol} {
		f.fund(who, 10_000_000)
	}
	return f
}

// fund mints amount to who and approves the engine for all of it.
func (f *fixture) fund(who term.Address, amount int64) {
	f.t.Helper()
	require.NoError(f.t, f.eng.MintAssets(f.ctx, who, math.NewInt(amount)))
	require.NoError(f.t, f.eng.ApproveAssets(f.ctx, who, math.NewInt(1_000_000_000_000)))
}

func (f *fixture) atom(creator term.Address, data string, value int64) term.ID {
	f.t.Helper()
	id, err := f.eng.CreateAtom(f.ctx, creator, []byte(data), math.NewInt(value))
	require.NoError(f.t, err)
	f.terms = append(f.terms, id)
	return id
}

func (f *fixture) triple(creator term.Address, s, p, o term.ID, value int64) term.ID {
	f.t.Helper()
	id, err := f.eng.CreateTriple(f.ctx, creator, s, p, o, math.NewInt(value))
	require.NoError(f.t, err)
	f.terms = append(f.terms, id, term.CounterTripleID(s, p, o))
	return id
}

// spo creates three atoms and a triple over them.
func (f *fixture) spo(value int64) (triple, s, p, o term.ID) {
	f.t.Helper()
	s = f.atom(alice, "subject", 100_100)
	p = f.atom(alice, "predicate", 100_100)
	o = f.atom(alice, "object", 100_100)
	return f.triple(alice, s, p, o, value), s, p, o
}

func (f *fixture) deposit(who term.Address, id term.ID, curveID curve.ID, value int64) DepositResult {
	f.t.Helper()
	res, err := f.eng.Deposit(f.ctx, who, who, id, curveID, math.NewInt(value), math.ZeroInt())
	require.NoError(f.t, err)
	return res
}

func (f *fixture) vault(id term.ID, curveID curve.ID) store.Vault {
	f.t.Helper()
	v, err := f.eng.GetVault(f.ctx, id, curveID)
	require.NoError(f.t, err)
	return v
}

func (f *fixture) shares(who term.Address, id term.ID, curveID curve.ID) string {
	f.t.Helper()
	s, err := f.eng.GetShares(f.ctx, who, id, curveID)
	require.NoError(f.t, err)
	return s.String()
}

func (f *fixture) balance(who term.Address) string {
	f.t.Helper()
	b, err := f.eng.BalanceOf(f.ctx, who)
	require.NoError(f.t, err)
	return b.String()
}

// requireSolvent checks that custody holds exactly the vault assets plus the
// unswept protocol fees plus the unclaimed atom wallet fees.
func (f *fixture) requireSolvent() {
	f.t.Helper()

	owed := math.ZeroInt()
	for _, id := range f.terms {
		for _, c := range []curve.ID{linear, progressive} {
			owed = owed.Add(f.vault(id, c).TotalAssets)
		}
		if term.IsAtom(id) {
			fees, err := f.eng.AtomWalletDepositFees(f.ctx, id)
			require.NoError(f.t, err)
			owed = owed.Add(fees)
		}
	}
	for epoch := int64(0); epoch <= f.eng.CurrentEpoch(); epoch++ {
		rec, err := f.eng.AccumulatedProtocolFees(f.ctx, epoch)
		require.NoError(f.t, err)
		if !rec.Swept {
			owed = owed.Add(rec.Accrued)
		}
	}
	require.Equal(f.t, owed.String(), f.balance(term.CustodyAddress), "custody must cover every liability")
}

func (f *fixture) nextEpoch() {
	f.clock.Advance(f.eng.EpochLength())
}

func requireCode(t *testing.T, err error, code fault.Code) {
	t.Helper()
	require.Error(t, err)
	require.Truef(t, fault.HasCode(err, code), "want %s, got %v", code, err)
}
