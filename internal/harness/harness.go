package harness

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/roach88/multivault/internal/config"
	"github.com/roach88/multivault/internal/events"
	"github.com/roach88/multivault/internal/fault"
	"github.com/roach88/multivault/internal/logger"
	"github.com/roach88/multivault/internal/multivault"
	"github.com/roach88/multivault/internal/store"
	"github.com/roach88/multivault/internal/term"
	"github.com/roach88/multivault/internal/testutil"
)

// Option configures a scenario run.
type Option func(*options)

type options struct {
	log   *zap.SugaredLogger
	sinks []events.Sink
}

// WithLogger routes engine logging to l. Runs are silent by default.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(o *options) { o.log = l }
}

// WithSink publishes every committed event to s as well as to the trace
// recorder. Funding events are included.
func WithSink(s events.Sink) Option {
	return func(o *options) { o.sinks = append(o.sinks, s) }
}

// runner holds the state of one scenario execution.
type runner struct {
	ctx    context.Context
	store  *store.Store
	engine *multivault.Engine
	static *config.Static // nil when parameters come from a file
	clock  *testutil.Clock
	sink   *events.Recorder
	seen   int
	result *Result
	names  *resolver
}

// Run executes a test scenario against a fresh in-memory ledger.
//
// Execution flow:
//  1. Open an ephemeral store and build the engine from the scenario config
//  2. Fund and approve every declared account
//  3. Execute setup steps (each must succeed)
//  4. Execute flow steps, checking expect clauses
//  5. Evaluate assertions against the trace and the final ledger
//
// The clock starts one hour into epoch 0 and only moves on advance_time.
// Op ids come from a sequence generator, so two runs of one scenario produce
// identical traces.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	return RunContext(context.Background(), scenario, opts...)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	o := options{log: logger.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}
	defer st.Close()

	r, err := newRunner(ctx, st, scenario, o)
	if err != nil {
		return nil, err
	}

	if err := r.fundAccounts(scenario.Accounts); err != nil {
		return nil, fmt.Errorf("failed to fund accounts: %w", err)
	}

	for i, step := range scenario.Setup {
		outcome, err := r.step(step.Action, step.Args)
		if err != nil {
			return nil, fmt.Errorf("setup[%d] %s: %w", i, step.Action, err)
		}
		if outcome != CaseSuccess {
			return nil, fmt.Errorf("setup[%d] %s: failed with %s", i, step.Action, outcome)
		}
	}

	for i, step := range scenario.Flow {
		outcome, err := r.step(step.Invoke, step.Args)
		if err != nil {
			return nil, fmt.Errorf("flow[%d] %s: %w", i, step.Invoke, err)
		}
		r.checkExpect(i, step, outcome)
	}

	actx := &AssertionContext{Ctx: ctx, Store: st, Engine: r.engine, Names: r.names}
	for _, msg := range EvaluateAssertions(r.result, scenario.Assertions, actx) {
		r.result.AddError(msg)
	}

	return r.result, nil
}

func newRunner(ctx context.Context, st *store.Store, scenario *Scenario, o options) (*runner, error) {
	var (
		authority config.Authority
		static    *config.Static
	)
	if scenario.Config.File != "" {
		authority = config.NewFileAuthority(scenario.Config.File)
	} else {
		snap := testutil.Snapshot()
		if scenario.Config.Preset == PresetDefault {
			snap = config.Default()
		}
		static = config.NewStatic(snap)
		authority = static
	}

	prefix := scenario.OpPrefix
	if prefix == "" {
		prefix = "op"
	}

	clock := testutil.NewClock(time.Time{})
	sink := events.NewRecorder()
	eng, err := multivault.New(ctx, st, authority,
		multivault.WithLogger(o.log),
		multivault.WithSink(append(events.Multi{sink}, o.sinks...)),
		multivault.WithClock(clock.Now),
		multivault.WithOpIDs(multivault.NewSequenceGenerator(prefix)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	clock.Set(eng.Snapshot().Epochs.Start.Add(time.Hour))

	return &runner{
		ctx:    ctx,
		store:  st,
		engine: eng,
		static: static,
		clock:  clock,
		sink:   sink,
		result: NewResult(),
		names:  newResolver(eng),
	}, nil
}

// fundAccounts mints each account its funding and approves the engine to
// pull all of it. Funding produces no trace entries.
func (r *runner) fundAccounts(accounts map[string]string) error {
	labels := make([]string, 0, len(accounts))
	for label := range accounts {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	for _, label := range labels {
		amount, err := parseAmount(accounts[label])
		if err != nil {
			return fmt.Errorf("%s: %w", label, err)
		}
		addr := term.AddressFromLabel(label)
		if err := r.engine.MintAssets(r.ctx, addr, amount); err != nil {
			return fmt.Errorf("%s: %w", label, err)
		}
		if err := r.engine.ApproveAssets(r.ctx, addr, amount); err != nil {
			return fmt.Errorf("%s: %w", label, err)
		}
	}
	r.seen = len(r.sink.Events())
	return nil
}

// step invokes one action and records its invocation, notifications and
// completion. A rejected operation is an outcome, not an error: its fault
// code becomes the completion case. Errors are reserved for malformed steps
// and infrastructure failures.
func (r *runner) step(action string, args map[string]interface{}) (string, error) {
	r.result.AddInvocationTrace(action, args)

	out, err := r.invoke(action, args)
	r.drainEvents()

	outcome := CaseSuccess
	if err != nil {
		f, ok := fault.As(err)
		if !ok {
			return "", err
		}
		outcome = string(f.Code)
		out = nil
	}
	r.result.AddCompletionTrace(outcome, out)
	return outcome, nil
}

func (r *runner) drainEvents() {
	all := r.sink.Events()
	for _, e := range all[r.seen:] {
		r.result.AddEventTrace(string(e.Kind), e.OpID, e.Attrs)
	}
	r.seen = len(all)
}

// checkExpect compares a flow step's outcome with its expect clause. A step
// without an expect clause must succeed.
func (r *runner) checkExpect(index int, step FlowStep, outcome string) {
	want := CaseSuccess
	if step.Expect != nil {
		want = step.Expect.Case
	}
	if outcome != want {
		r.result.AddError(fmt.Sprintf("flow[%d] %s: expected case %q, got %q", index, step.Invoke, want, outcome))
		return
	}
	if step.Expect == nil || len(step.Expect.Result) == 0 {
		return
	}

	completion := r.result.Trace[len(r.result.Trace)-1]
	keys := make([]string, 0, len(step.Expect.Result))
	for k := range step.Expect.Result {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		expected := step.Expect.Result[k]
		actual, ok := completion.Result[k]
		if !ok {
			r.result.AddError(fmt.Sprintf("flow[%d] %s: result has no field %q", index, step.Invoke, k))
			continue
		}
		if !r.names.matches(k, expected, actual) {
			r.result.AddError(fmt.Sprintf("flow[%d] %s: result.%s expected %v, got %v", index, step.Invoke, k, expected, actual))
		}
	}
}

// errStaticOnly is returned by config mutations on file-backed scenarios.
var errStaticOnly = errors.New("update_config needs a preset config, not a config file")
