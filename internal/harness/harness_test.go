package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/multivault/internal/events"
)

func atomScenario(flow ...FlowStep) *Scenario {
	return &Scenario{
		Name:        "inline",
		Description: "inline scenario",
		Accounts:    map[string]string{"alice": "10000000", "bob": "10000000"},
		Flow:        flow,
		Assertions:  []Assertion{{Type: AssertSolvent}},
	}
}

func createHello() FlowStep {
	return FlowStep{
		Invoke: "create_atom",
		Args:   map[string]interface{}{"caller": "alice", "data": "hello", "value": 10100},
	}
}

func TestRun_Testdata(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := Run(scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, strings.Join(result.Errors, "\n"))
		})
	}
}

func TestRun_TraceShape(t *testing.T) {
	result, err := Run(atomScenario(createHello()))
	require.NoError(t, err)
	require.True(t, result.Pass, result.Errors)

	require.NotEmpty(t, result.Trace)
	first, last := result.Trace[0], result.Trace[len(result.Trace)-1]
	assert.Equal(t, TraceInvocation, first.Type)
	assert.Equal(t, "create_atom", first.Action)
	assert.Equal(t, TraceCompletion, last.Type)
	assert.Equal(t, CaseSuccess, last.Case)
	assert.Contains(t, last.Result, "term")

	evs := result.Events()
	require.NotEmpty(t, evs)
	assert.Equal(t, "AtomCreated", evs[0].Kind)
	for _, e := range evs {
		assert.Equal(t, "op-0005", e.OpID, "four funding ops precede the creation")
	}

	for i, e := range result.Trace {
		assert.Equal(t, int64(i+1), e.Seq)
	}
}

func TestRun_OpPrefix(t *testing.T) {
	s := atomScenario(createHello())
	s.OpPrefix = "scenario"
	result, err := Run(s)
	require.NoError(t, err)

	evs := result.Events()
	require.NotEmpty(t, evs)
	assert.True(t, strings.HasPrefix(evs[0].OpID, "scenario-"), evs[0].OpID)
}

func TestRun_WithSink(t *testing.T) {
	extra := events.NewRecorder()
	result, err := Run(atomScenario(createHello()), WithSink(extra))
	require.NoError(t, err)
	require.True(t, result.Pass, result.Errors)

	assert.Len(t, extra.OfKind(events.KindAtomCreated), 1)
	assert.GreaterOrEqual(t, len(extra.Events()), len(result.Events()))
}

func TestRun_Deterministic(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/triple_creation.yaml")
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	a, err := MarshalTrace(scenario.Name, first)
	require.NoError(t, err)
	b, err := MarshalTrace(scenario.Name, second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestRun_RejectionIsAnOutcome(t *testing.T) {
	result, err := Run(atomScenario(
		createHello(),
		FlowStep{
			Invoke: "create_atom",
			Args:   map[string]interface{}{"caller": "bob", "data": "hello", "value": 10100},
			Expect: &ExpectClause{Case: "DUPLICATE_TERM"},
		},
	))
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)

	last := result.Trace[len(result.Trace)-1]
	assert.Equal(t, "DUPLICATE_TERM", last.Case)
	assert.Nil(t, last.Result)
}

func TestRun_UnexpectedRejectionFails(t *testing.T) {
	result, err := Run(atomScenario(FlowStep{
		Invoke: "create_atom",
		Args:   map[string]interface{}{"caller": "alice", "data": "cheap", "value": 100},
	}))
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], `expected case "Success", got "INSUFFICIENT_VALUE"`)
}

func TestRun_ResultMismatchFails(t *testing.T) {
	result, err := Run(atomScenario(
		createHello(),
		FlowStep{
			Invoke: "preview_deposit",
			Args:   map[string]interface{}{"term": "hello", "value": 10000},
			Expect: &ExpectClause{Case: CaseSuccess, Result: map[string]interface{}{
				"shares":  "1",
				"missing": "x",
			}},
		},
	))
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], `result has no field "missing"`)
	assert.Contains(t, result.Errors[1], "result.shares expected 1, got 9800")
}

func TestRun_SetupMustSucceed(t *testing.T) {
	s := atomScenario(createHello())
	s.Setup = []ActionStep{{
		Action: "deposit",
		Args:   map[string]interface{}{"caller": "alice", "term": "atom:nothing", "value": 10000},
	}}
	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "setup[0] deposit: failed with UNKNOWN_TERM")
}

func TestRun_MalformedStepIsAnError(t *testing.T) {
	tests := []struct {
		name    string
		step    FlowStep
		wantErr string
	}{
		{
			name:    "unknown term name",
			step:    FlowStep{Invoke: "deposit", Args: map[string]interface{}{"caller": "alice", "term": "nope", "value": 1}},
			wantErr: `unknown term "nope"`,
		},
		{
			name:    "missing arg",
			step:    FlowStep{Invoke: "mint_assets", Args: map[string]interface{}{"account": "alice"}},
			wantErr: "arg amount: required",
		},
		{
			name:    "bad amount",
			step:    FlowStep{Invoke: "mint_assets", Args: map[string]interface{}{"account": "alice", "amount": "1.5"}},
			wantErr: `invalid amount "1.5"`,
		},
		{
			name:    "unknown config parameter",
			step:    FlowStep{Invoke: "update_config", Args: map[string]interface{}{"speed": 3}},
			wantErr: `unknown parameter "speed"`,
		},
		{
			name:    "bad duration",
			step:    FlowStep{Invoke: "advance_time", Args: map[string]interface{}{"duration": "soon"}},
			wantErr: "duration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(atomScenario(tt.step))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "flow[0]")
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRun_UpdateConfigNeedsPreset(t *testing.T) {
	s := atomScenario(FlowStep{Invoke: "update_config", Args: map[string]interface{}{"paused": true}})
	s.Config.File = "testdata/scenarios/governance.cue"
	_, err := Run(s)
	require.Error(t, err)
	assert.ErrorIs(t, err, errStaticOnly)
}

func TestRun_ConfigChangeNeedsSync(t *testing.T) {
	deposit := func(expect string) FlowStep {
		return FlowStep{
			Invoke: "deposit",
			Args:   map[string]interface{}{"caller": "alice", "term": "hello", "value": 10000},
			Expect: &ExpectClause{Case: expect},
		}
	}
	result, err := Run(atomScenario(
		createHello(),
		FlowStep{Invoke: "update_config", Args: map[string]interface{}{"min_deposit": "20000"}},
		deposit(CaseSuccess),
		FlowStep{Invoke: "sync", Args: map[string]interface{}{}},
		deposit("DEPOSIT_BELOW_MINIMUM"),
	))
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
}

func TestRun_DefaultPreset(t *testing.T) {
	s := atomScenario(FlowStep{
		Invoke: "create_atom",
		Args:   map[string]interface{}{"caller": "alice", "data": "hello", "value": 10100},
		Expect: &ExpectClause{Case: "INSUFFICIENT_VALUE"},
	})
	s.Config.Preset = PresetDefault
	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "default costs are in 18-decimal base units")
}

func TestRun_AdvanceTime(t *testing.T) {
	result, err := Run(atomScenario(
		FlowStep{
			Invoke: "advance_time",
			Args:   map[string]interface{}{"epochs": 2, "duration": "1h"},
			Expect: &ExpectClause{Case: CaseSuccess, Result: map[string]interface{}{"epoch": 2}},
		},
	))
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
}
