package multivault

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"cosmossdk.io/math"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/roach88/multivault/internal/approval"
	"github.com/roach88/multivault/internal/asset"
	"github.com/roach88/multivault/internal/config"
	"github.com/roach88/multivault/internal/curve"
	"github.com/roach88/multivault/internal/events"
	"github.com/roach88/multivault/internal/fault"
	"github.com/roach88/multivault/internal/fees"
	"github.com/roach88/multivault/internal/store"
	"github.com/roach88/multivault/internal/term"
	"github.com/roach88/multivault/internal/utilization"
)

// Engine is the vault ledger.
//
// Thread-safety: every exported method is safe for concurrent use. Mutating
// operations and views are serialized by one mutex.
type Engine struct {
	mu sync.Mutex

	store     *store.Store
	authority config.Authority

	// Replaced together by SyncConfig.
	snap   *config.Snapshot
	curves *curve.Registry

	log   *zap.SugaredLogger
	sink  events.Sink
	now   func() time.Time
	opIDs OpIDGenerator
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger. Default: no-op.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(e *Engine) { e.log = l }
}

// WithSink sets where committed notifications are published. Default: discard.
func WithSink(s events.Sink) Option {
	return func(e *Engine) { e.sink = s }
}

// WithClock sets the wall clock used for epoch arithmetic. Default: time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithOpIDs sets the op id generator. Default: UUIDv7Generator.
func WithOpIDs(g OpIDGenerator) Option {
	return func(e *Engine) { e.opIDs = g }
}

// New returns an engine over st whose initial snapshot is fetched from
// authority. The initial fetch emits no notification.
func New(ctx context.Context, st *store.Store, authority config.Authority, opts ...Option) (*Engine, error) {
	e := &Engine{
		store:     st,
		authority: authority,
		log:       zap.NewNop().Sugar(),
		sink:      events.Discard{},
		now:       time.Now,
		opIDs:     UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(e)
	}

	snap, registry, err := e.fetch(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "initial config")
	}
	e.snap, e.curves = snap, registry
	return e, nil
}

// fetch pulls, validates and instantiates a snapshot without installing it.
func (e *Engine) fetch(ctx context.Context) (*config.Snapshot, *curve.Registry, error) {
	snap, err := e.authority.Fetch(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "fetch config")
	}
	if err := snap.Validate(); err != nil {
		return nil, nil, err
	}
	registry, err := snap.BuildRegistry()
	if err != nil {
		return nil, nil, err
	}
	return snap, registry, nil
}

// Snapshot returns a copy of the cached configuration.
func (e *Engine) Snapshot() *config.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snap.Clone()
}

// op is the state of one running operation.
type op struct {
	ctx    context.Context
	name   string
	log    *zap.SugaredLogger
	tx     *store.Tx
	snap   *config.Snapshot
	curves *curve.Registry
	fees   fees.Schedule

	tokens    asset.Ledger
	util      utilization.Ledger
	approvals approval.Book
	journal   *events.Journal

	epoch int64
}

func (e *Engine) newOp(ctx context.Context, name string, tx *store.Tx, opID string) *op {
	return &op{
		ctx:       ctx,
		name:      name,
		log:       e.log.With("op", name, "op_id", opID),
		tx:        tx,
		snap:      e.snap,
		curves:    e.curves,
		fees:      e.newFees(),
		tokens:    asset.New(tx),
		util:      utilization.New(tx),
		approvals: approval.New(tx),
		journal:   events.NewJournal(tx, opID),
		epoch:     e.epochs().At(e.now()),
	}
}

func (e *Engine) newFees() fees.Schedule {
	return fees.New(e.snap)
}

func (e *Engine) epochs() utilization.Epochs {
	return utilization.Epochs{Start: e.snap.Epochs.Start, Length: e.snap.Epochs.Length}
}

// run executes fn as one atomic operation and publishes its events after
// commit.
func (e *Engine) run(ctx context.Context, name string, fn func(o *op) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	opID := e.opIDs.Generate()
	var published []events.Event
	err := e.store.Update(ctx, func(tx *store.Tx) (err error) {
		defer recoverOverflow(&err)
		o := e.newOp(ctx, name, tx, opID)
		if err := fn(o); err != nil {
			return err
		}
		published = o.journal.Events()
		return nil
	})
	if err != nil {
		if code := fault.CodeOf(err); code != "" {
			e.log.Debugw("operation rejected", "op", name, "op_id", opID, "code", code, "error", err)
		} else {
			e.log.Errorw("operation failed", "op", name, "op_id", opID, "error", err)
		}
		return err
	}

	e.log.Debugw("operation committed", "op", name, "op_id", opID, "events", len(published))
	e.sink.Publish(ctx, published)
	return nil
}

// view runs fn against a read transaction.
func (e *Engine) view(ctx context.Context, fn func(o *op) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.View(ctx, func(tx *store.Tx) (err error) {
		defer recoverOverflow(&err)
		return fn(e.newOp(ctx, "view", tx, ""))
	})
}

// recoverOverflow turns a math.Int overflow panic into a validation error so
// that the transaction rolls back instead of crashing the process.
func recoverOverflow(err *error) {
	r := recover()
	if r == nil {
		return
	}
	if msg := fmt.Sprint(r); strings.Contains(strings.ToLower(msg), "overflow") {
		*err = fault.Validation(fault.CodeAmountOverflow, "amount overflow: %s", msg)
		return
	}
	panic(r)
}

// Shared guards and effects.

func (o *op) requireActive() error {
	if o.snap.General.Paused {
		return fault.State(fault.CodePaused, "engine is paused")
	}
	return nil
}

func (o *op) requireCurve(id curve.ID) (curve.Curve, error) {
	c, ok := o.curves.Get(id)
	if !ok {
		return nil, fault.Validation(fault.CodeUnknownCurve, "curve %d is not registered", id).
			With("curve", id)
	}
	return c, nil
}

func (o *op) requireTerm(id term.ID) (store.Term, error) {
	rec, found, err := o.tx.GetTerm(id)
	if err != nil {
		return store.Term{}, err
	}
	if !found {
		return store.Term{}, fault.Validation(fault.CodeUnknownTerm, "term is not registered").
			With("term", id.Hex())
	}
	return rec, nil
}

func (o *op) requireAtom(id term.ID) (store.Term, error) {
	rec, err := o.requireTerm(id)
	if err != nil {
		return rec, err
	}
	if rec.Kind != term.KindAtom {
		return rec, fault.Validation(fault.CodeNotAnAtom, "term is a %s, not an atom", rec.Kind).
			With("term", id.Hex())
	}
	return rec, nil
}

// pull moves value from the caller into custody.
func (o *op) pull(from term.Address, value math.Int) error {
	return o.tokens.TransferFrom(term.CustodyAddress, from, term.CustodyAddress, value)
}

// accrue adds a protocol fee charge to the current epoch.
func (o *op) accrue(sender term.Address, amount math.Int) error {
	if !amount.IsPositive() {
		return nil
	}
	rec, err := o.tx.GetProtocolFees(o.epoch)
	if err != nil {
		return err
	}
	rec.Accrued = rec.Accrued.Add(amount)
	if err := o.tx.PutProtocolFees(rec); err != nil {
		return err
	}
	return o.journal.Emit(events.ProtocolFeeAccrued(o.epoch, sender, amount))
}

// recordUtilization writes a signed delta for account and the aggregate.
func (o *op) recordUtilization(account term.Address, delta math.Int) error {
	if delta.IsZero() {
		return nil
	}
	change, err := o.util.RecordDelta(account, o.epoch, delta)
	if err != nil {
		return err
	}
	if err := o.journal.Emit(events.PersonalUtilization(account, change.Epoch, delta, change.Personal)); err != nil {
		return err
	}
	return o.journal.Emit(events.TotalUtilization(change.Epoch, delta, change.Total))
}

// emitPrice reports v after a mutation.
func (o *op) emitPrice(c curve.Curve, v store.Vault) error {
	return o.journal.Emit(events.SharePriceChanged(
		v.TermID, v.CurveID, c.CurrentPrice(v.State()), v.TotalAssets, v.TotalShares, term.KindOf(v.TermID),
	))
}

// ghostCost is what a vault's minShare ghost shares are funded with. Ghosts
// are bought at unit price on every curve, so a vault's genesis tranche holds
// as many assets as shares.
func (o *op) ghostCost() math.Int {
	return o.snap.General.MinShare
}

func indexed(err error, i int) error {
	if f, ok := fault.As(err); ok {
		return f.With("index", i)
	}
	return errors.Wrapf(err, "element %d", i)
}

func checkBatch(n int, lengths ...int) error {
	if n == 0 {
		return fault.Validation(fault.CodeEmptyBatch, "batch is empty")
	}
	for _, l := range lengths {
		if l != n {
			return fault.Validation(fault.CodeLengthMismatch, "batch arrays differ in length (%d vs %d)", n, l)
		}
	}
	return nil
}
