package multivault

import (
	"context"

	"cosmossdk.io/math"

	"github.com/roach88/multivault/internal/events"
	"github.com/roach88/multivault/internal/fault"
	"github.com/roach88/multivault/internal/store"
	"github.com/roach88/multivault/internal/term"
)

// CreateAtom registers data as an atom and deposits what remains of value
// after the creation fee into its default-curve vault for caller.
func (e *Engine) CreateAtom(ctx context.Context, caller term.Address, data []byte, value math.Int) (term.ID, error) {
	ids, err := e.CreateAtoms(ctx, caller, [][]byte{data}, []math.Int{value})
	if err != nil {
		return term.ID{}, err
	}
	return ids[0], nil
}

// CreateAtoms registers several atoms in one transaction. A duplicate inside
// the batch or in storage aborts the batch, naming the id and index.
func (e *Engine) CreateAtoms(ctx context.Context, caller term.Address, datas [][]byte, values []math.Int) ([]term.ID, error) {
	if err := checkBatch(len(datas), len(values)); err != nil {
		return nil, err
	}
	var ids []term.ID
	err := e.run(ctx, "create_atoms", func(o *op) error {
		if err := o.requireActive(); err != nil {
			return err
		}
		ids = make([]term.ID, 0, len(datas))
		for i := range datas {
			id, err := o.createAtom(caller, datas[i], values[i])
			if err != nil {
				return indexed(err, i)
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// checkAtom validates an atom creation without effects.
func (o *op) checkAtom(data []byte, value math.Int) (term.ID, error) {
	if limit := o.snap.General.AtomDataMaxLength; len(data) > limit {
		return term.ID{}, fault.Validation(fault.CodePayloadTooLong, "atom data is %d bytes, maximum %d", len(data), limit)
	}
	id := term.AtomID(data)
	exists, err := o.tx.TermExists(id)
	if err != nil {
		return id, err
	}
	if exists {
		return id, fault.Validation(fault.CodeDuplicateTerm, "atom already exists").With("term", id.Hex())
	}
	if cost := o.fees.AtomCost(); value.LT(cost) {
		return id, fault.Validation(fault.CodeInsufficientValue, "atom creation needs %s, got %s", cost, value)
	}
	return id, nil
}

func (o *op) createAtom(caller term.Address, data []byte, value math.Int) (term.ID, error) {
	id, err := o.checkAtom(data, value)
	if err != nil {
		return id, err
	}
	if err := o.pull(caller, value); err != nil {
		return id, err
	}

	rec := store.Term{ID: id, Kind: term.KindAtom, Creator: caller, Data: append([]byte(nil), data...)}
	if err := o.tx.InsertTerm(rec); err != nil {
		return id, err
	}
	wallet := o.walletAddress(id)
	if err := o.journal.Emit(events.AtomCreated(caller, id, data, wallet)); err != nil {
		return id, err
	}
	if err := o.accrue(caller, o.fees.AtomCreation()); err != nil {
		return id, err
	}

	curveID := o.curves.Default()
	c, err := o.requireCurve(curveID)
	if err != nil {
		return id, err
	}
	remainder := value.Sub(o.fees.AtomCreation())
	q, err := o.depositInto(caller, caller, rec, c, curveID, remainder, math.ZeroInt(), true, math.ZeroInt())
	if err != nil {
		return id, err
	}
	if err := o.recordUtilization(caller, remainder); err != nil {
		return id, err
	}

	o.log.Debugw("atom created", "term", id.Hex(), "wallet", wallet.Hex(), "shares", q.Shares)
	return id, nil
}

func (o *op) walletAddress(atom term.ID) term.Address {
	return term.WalletAddress(o.snap.Wallet.Factory, o.snap.Wallet.ImplementationHash, atom)
}

// TripleSpec names the atoms of one triple.
type TripleSpec struct {
	Subject   term.ID
	Predicate term.ID
	Object    term.ID
}

// CreateTriple registers (subject, predicate, object) and its counter-triple,
// and deposits what remains of value after the creation fee into the
// triple's default-curve vault for caller.
func (e *Engine) CreateTriple(ctx context.Context, caller term.Address, subject, predicate, object term.ID, value math.Int) (term.ID, error) {
	ids, err := e.CreateTriples(ctx, caller, []TripleSpec{{subject, predicate, object}}, []math.Int{value})
	if err != nil {
		return term.ID{}, err
	}
	return ids[0], nil
}

// CreateTriples registers several triples in one transaction.
func (e *Engine) CreateTriples(ctx context.Context, caller term.Address, specs []TripleSpec, values []math.Int) ([]term.ID, error) {
	if err := checkBatch(len(specs), len(values)); err != nil {
		return nil, err
	}
	var ids []term.ID
	err := e.run(ctx, "create_triples", func(o *op) error {
		if err := o.requireActive(); err != nil {
			return err
		}
		ids = make([]term.ID, 0, len(specs))
		for i, spec := range specs {
			id, err := o.createTriple(caller, spec, values[i])
			if err != nil {
				return indexed(err, i)
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// checkTriple validates a triple creation without effects.
func (o *op) checkTriple(spec TripleSpec, value math.Int) (term.ID, error) {
	for _, part := range []struct {
		role string
		id   term.ID
	}{
		{"subject", spec.Subject},
		{"predicate", spec.Predicate},
		{"object", spec.Object},
	} {
		if _, err := o.requireAtom(part.id); err != nil {
			if f, ok := fault.As(err); ok {
				return term.ID{}, f.With("role", part.role)
			}
			return term.ID{}, err
		}
	}
	id := term.TripleID(spec.Subject, spec.Predicate, spec.Object)
	exists, err := o.tx.TermExists(id)
	if err != nil {
		return id, err
	}
	if exists {
		return id, fault.Validation(fault.CodeDuplicateTerm, "triple already exists").With("term", id.Hex())
	}
	if cost := o.fees.TripleCost(); value.LT(cost) {
		return id, fault.Validation(fault.CodeInsufficientValue, "triple creation needs %s, got %s", cost, value)
	}
	return id, nil
}

func (o *op) createTriple(caller term.Address, spec TripleSpec, value math.Int) (term.ID, error) {
	id, err := o.checkTriple(spec, value)
	if err != nil {
		return id, err
	}
	counter := term.CounterTripleID(spec.Subject, spec.Predicate, spec.Object)
	if err := o.pull(caller, value); err != nil {
		return id, err
	}

	rec := store.Term{
		ID: id, Kind: term.KindTriple, Creator: caller,
		Subject: spec.Subject, Predicate: spec.Predicate, Object: spec.Object,
		Counterpart: counter,
	}
	counterRec := rec
	counterRec.ID, counterRec.Kind, counterRec.Counterpart = counter, term.KindCounterTriple, id
	if err := o.tx.InsertTerm(rec); err != nil {
		return id, err
	}
	if err := o.tx.InsertTerm(counterRec); err != nil {
		return id, err
	}
	err = o.journal.Emit(events.TripleCreated(caller, id, spec.Subject, spec.Predicate, spec.Object, counter))
	if err != nil {
		return id, err
	}
	if err := o.accrue(caller, o.fees.TripleCreation()); err != nil {
		return id, err
	}

	curveID := o.curves.Default()
	c, err := o.requireCurve(curveID)
	if err != nil {
		return id, err
	}

	// The counter-triple starts with ghost shares only, funded at genesis
	// price out of the triple's post-fee value.
	counterGhost := o.ghostCost()
	counterVault := store.Vault{
		TermID:      counter,
		CurveID:     curveID,
		TotalAssets: counterGhost,
		TotalShares: o.snap.General.MinShare,
	}
	if err := o.tx.PutVault(counterVault); err != nil {
		return id, err
	}
	if err := o.tx.PutShares(term.BurnAddress, counter, curveID, o.snap.General.MinShare); err != nil {
		return id, err
	}
	if err := o.emitPrice(c, counterVault); err != nil {
		return id, err
	}

	remainder := value.Sub(o.fees.TripleCreation())
	q, err := o.depositInto(caller, caller, rec, c, curveID, remainder, math.ZeroInt(), true, counterGhost)
	if err != nil {
		return id, err
	}
	if err := o.recordUtilization(caller, remainder); err != nil {
		return id, err
	}

	o.log.Debugw("triple created", "term", id.Hex(), "counter", counter.Hex(), "shares", q.Shares)
	return id, nil
}

// PreviewAtomCreate quotes CreateAtom(data, value) without effects.
func (e *Engine) PreviewAtomCreate(ctx context.Context, data []byte, value math.Int) (DepositQuote, error) {
	var q DepositQuote
	err := e.view(ctx, func(o *op) error {
		id, err := o.checkAtom(data, value)
		if err != nil {
			return err
		}
		c, err := o.requireCurve(o.curves.Default())
		if err != nil {
			return err
		}
		empty := store.Vault{TermID: id, TotalAssets: math.ZeroInt(), TotalShares: math.ZeroInt()}
		q, err = o.quoteDeposit(c, empty, value.Sub(o.fees.AtomCreation()), true, math.ZeroInt())
		return err
	})
	return q, err
}

// PreviewTripleCreate quotes CreateTriple without effects. The quote covers
// the triple vault; the atom fraction appears as AtomFraction and PerAtom.
func (e *Engine) PreviewTripleCreate(ctx context.Context, subject, predicate, object term.ID, value math.Int) (DepositQuote, error) {
	var q DepositQuote
	err := e.view(ctx, func(o *op) error {
		id, err := o.checkTriple(TripleSpec{subject, predicate, object}, value)
		if err != nil {
			return err
		}
		c, err := o.requireCurve(o.curves.Default())
		if err != nil {
			return err
		}
		empty := store.Vault{TermID: id, TotalAssets: math.ZeroInt(), TotalShares: math.ZeroInt()}
		q, err = o.quoteDeposit(c, empty, value.Sub(o.fees.TripleCreation()), true, o.ghostCost())
		return err
	})
	return q, err
}
