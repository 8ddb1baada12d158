package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/multivault/internal/curve"
	"github.com/roach88/multivault/internal/term"
)

func update(t *testing.T, s *Store, fn func(tx *Tx)) {
	t.Helper()
	require.NoError(t, s.Update(context.Background(), func(tx *Tx) error {
		fn(tx)
		return nil
	}))
}

func TestTerms_InsertAndGet(t *testing.T) {
	s := createTestStore(t)
	alice := testAddress("alice")
	subj, pred, obj := term.AtomID([]byte("s")), term.AtomID([]byte("p")), term.AtomID([]byte("o"))
	triple := term.TripleID(subj, pred, obj)
	counter := term.CounterTripleID(subj, pred, obj)

	update(t, s, func(tx *Tx) {
		for _, id := range []term.ID{subj, pred, obj} {
			require.NoError(t, tx.InsertTerm(Term{ID: id, Kind: term.KindAtom, Creator: alice, Data: []byte("x")}))
		}
		require.NoError(t, tx.InsertTerm(Term{
			ID: triple, Kind: term.KindTriple, Creator: alice,
			Subject: subj, Predicate: pred, Object: obj, Counterpart: counter,
		}))
	})

	_ = s.View(context.Background(), func(tx *Tx) error {
		rec, found, err := tx.GetTerm(triple)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, term.KindTriple, rec.Kind)
		assert.Equal(t, alice, rec.Creator)
		assert.Equal(t, subj, rec.Subject)
		assert.Equal(t, counter, rec.Counterpart)

		atom, found, err := tx.GetTerm(subj)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, []byte("x"), atom.Data)
		assert.True(t, atom.Subject.IsZero())

		exists, err := tx.TermExists(counter)
		require.NoError(t, err)
		assert.False(t, exists)

		n, err := tx.CountTerms(term.KindAtom)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
		return nil
	})
}

func TestTerms_DuplicateInsertFails(t *testing.T) {
	s := createTestStore(t)
	id := term.AtomID([]byte("dup"))

	err := s.Update(context.Background(), func(tx *Tx) error {
		if err := tx.InsertTerm(Term{ID: id, Kind: term.KindAtom, Creator: testAddress("a")}); err != nil {
			return err
		}
		return tx.InsertTerm(Term{ID: id, Kind: term.KindAtom, Creator: testAddress("a")})
	})
	assert.Error(t, err)
}

func TestVaults_AndShares(t *testing.T) {
	s := createTestStore(t)
	id := term.AtomID([]byte("vault"))
	alice, bob := testAddress("alice"), testAddress("bob")

	update(t, s, func(tx *Tx) {
		require.NoError(t, tx.InsertTerm(Term{ID: id, Kind: term.KindAtom, Creator: alice}))

		_, found, err := tx.GetVault(id, 1)
		require.NoError(t, err)
		assert.False(t, found)

		require.NoError(t, tx.PutVault(Vault{TermID: id, CurveID: 1, TotalAssets: amount(t, "1000"), TotalShares: amount(t, "900")}))
		require.NoError(t, tx.PutVault(Vault{TermID: id, CurveID: 2, TotalAssets: amount(t, "5"), TotalShares: amount(t, "5")}))
		require.NoError(t, tx.PutShares(term.BurnAddress, id, 1, amount(t, "100")))
		require.NoError(t, tx.PutShares(alice, id, 1, amount(t, "800")))
		require.NoError(t, tx.PutShares(bob, id, 2, amount(t, "0")))
	})

	_ = s.View(context.Background(), func(tx *Tx) error {
		v, found, err := tx.GetVault(id, 1)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "1000", v.TotalAssets.String())
		assert.Equal(t, "900", v.State().TotalShares.String())

		vaults, err := tx.ListVaults(id)
		require.NoError(t, err)
		require.Len(t, vaults, 2)
		assert.Equal(t, curve.ID(2), vaults[1].CurveID)

		has, err := tx.HasSharesOnAnyCurve(alice, id)
		require.NoError(t, err)
		assert.True(t, has)

		// a zero row does not count as a position
		has, err = tx.HasSharesOnAnyCurve(bob, id)
		require.NoError(t, err)
		assert.False(t, has)

		holders, err := tx.ListHolders(id, 1)
		require.NoError(t, err)
		require.Len(t, holders, 1, "sentinel must be excluded")
		assert.Equal(t, alice, holders[0].Account)
		assert.Equal(t, "800", holders[0].Shares.String())

		bal, err := tx.GetShares(bob, id, 1)
		require.NoError(t, err)
		assert.True(t, bal.IsZero())
		return nil
	})
}

func TestShares_RequireVault(t *testing.T) {
	s := createTestStore(t)
	id := term.AtomID([]byte("orphan"))

	err := s.Update(context.Background(), func(tx *Tx) error {
		if err := tx.InsertTerm(Term{ID: id, Kind: term.KindAtom, Creator: testAddress("a")}); err != nil {
			return err
		}
		return tx.PutShares(testAddress("a"), id, 1, amount(t, "1"))
	})
	assert.Error(t, err, "foreign key must reject shares without a vault")
}

func TestApprovals(t *testing.T) {
	s := createTestStore(t)
	owner, delegate := testAddress("owner"), testAddress("delegate")

	update(t, s, func(tx *Tx) {
		require.NoError(t, tx.PutApproval(owner, delegate, 3))
	})
	_ = s.View(context.Background(), func(tx *Tx) error {
		rights, found, err := tx.GetApproval(owner, delegate)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, uint8(3), rights)

		_, found, err = tx.GetApproval(delegate, owner)
		require.NoError(t, err)
		assert.False(t, found)
		return nil
	})

	update(t, s, func(tx *Tx) {
		require.NoError(t, tx.DeleteApproval(owner, delegate))
	})
	_ = s.View(context.Background(), func(tx *Tx) error {
		_, found, err := tx.GetApproval(owner, delegate)
		require.NoError(t, err)
		assert.False(t, found)
		return nil
	})
}

func TestUtilizationCells(t *testing.T) {
	s := createTestStore(t)
	alice := testAddress("alice")

	update(t, s, func(tx *Tx) {
		require.NoError(t, tx.PutPersonalUtilization(alice, 3, amount(t, "-25")))
		require.NoError(t, tx.PutTotalUtilization(3, amount(t, "100")))
		require.NoError(t, tx.PutTotalUtilization(5, amount(t, "90")))
		require.NoError(t, tx.PutLastActiveEpoch(alice, 3))
	})

	_ = s.View(context.Background(), func(tx *Tx) error {
		v, found, err := tx.GetPersonalUtilization(alice, 3)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "-25", v.String())

		_, found, err = tx.GetPersonalUtilization(alice, 4)
		require.NoError(t, err)
		assert.False(t, found)

		epoch, found, err := tx.GetLastActiveEpoch(alice)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, int64(3), epoch)

		latest, found, err := tx.LatestTotalEpoch()
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, int64(5), latest)
		return nil
	})
}

func TestLatestTotalEpoch_Empty(t *testing.T) {
	s := createTestStore(t)
	_ = s.View(context.Background(), func(tx *Tx) error {
		_, found, err := tx.LatestTotalEpoch()
		require.NoError(t, err)
		assert.False(t, found)
		return nil
	})
}

func TestProtocolFees(t *testing.T) {
	s := createTestStore(t)
	dest := testAddress("multisig")

	update(t, s, func(tx *Tx) {
		rec, err := tx.GetProtocolFees(2)
		require.NoError(t, err)
		assert.True(t, rec.Accrued.IsZero())
		assert.False(t, rec.Swept)

		rec.Accrued = amount(t, "77")
		require.NoError(t, tx.PutProtocolFees(rec))
		rec.Swept = true
		rec.Destination = dest
		require.NoError(t, tx.PutProtocolFees(rec))
	})

	_ = s.View(context.Background(), func(tx *Tx) error {
		rec, err := tx.GetProtocolFees(2)
		require.NoError(t, err)
		assert.Equal(t, "77", rec.Accrued.String())
		assert.True(t, rec.Swept)
		assert.Equal(t, dest, rec.Destination)
		return nil
	})
}

func TestAtomWalletFees(t *testing.T) {
	s := createTestStore(t)
	atom := term.AtomID([]byte("w"))

	update(t, s, func(tx *Tx) {
		require.NoError(t, tx.InsertTerm(Term{ID: atom, Kind: term.KindAtom, Creator: testAddress("a")}))
		require.NoError(t, tx.PutAtomWalletFees(atom, amount(t, "12")))
	})
	_ = s.View(context.Background(), func(tx *Tx) error {
		v, err := tx.GetAtomWalletFees(atom)
		require.NoError(t, err)
		assert.Equal(t, "12", v.String())
		return nil
	})
}

func TestTokens(t *testing.T) {
	s := createTestStore(t)
	owner, spender := testAddress("owner"), testAddress("spender")

	update(t, s, func(tx *Tx) {
		require.NoError(t, tx.PutBalance(owner, amount(t, "1000000000000000000000000")))
		require.NoError(t, tx.PutAllowance(owner, spender, amount(t, "5")))
	})
	_ = s.View(context.Background(), func(tx *Tx) error {
		bal, err := tx.GetBalance(owner)
		require.NoError(t, err)
		assert.Equal(t, "1000000000000000000000000", bal.String())

		allowance, err := tx.GetAllowance(owner, spender)
		require.NoError(t, err)
		assert.Equal(t, "5", allowance.String())

		none, err := tx.GetAllowance(spender, owner)
		require.NoError(t, err)
		assert.True(t, none.IsZero())
		return nil
	})
}

func TestEvents_AppendAndList(t *testing.T) {
	s := createTestStore(t)

	var seqs []int64
	update(t, s, func(tx *Tx) {
		for i, kind := range []string{"AtomCreated", "Deposited", "SharePriceChanged"} {
			op := "op-1"
			if i == 2 {
				op = "op-2"
			}
			seq, err := tx.AppendEvent(op, kind, "digest", []byte(`{"k":1}`))
			require.NoError(t, err)
			seqs = append(seqs, seq)
		}
	})
	assert.Equal(t, []int64{1, 2, 3}, seqs)

	_ = s.View(context.Background(), func(tx *Tx) error {
		all, err := tx.ListEvents(0, 0)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "Deposited", all[1].Kind)
		assert.Equal(t, `{"k":1}`, string(all[1].Payload))

		page, err := tx.ListEvents(1, 1)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, int64(2), page[0].Seq)

		op, err := tx.ListOpEvents("op-1")
		require.NoError(t, err)
		assert.Len(t, op, 2)
		return nil
	})
}
