package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScenario writes content to dir/name and returns the path.
func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const minimalFlow = `
flow:
  - invoke: create_atom
    args: { caller: alice, data: hello, value: 10100 }
assertions:
  - type: solvent
`

func TestLoadScenario_ValidFile(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, "test.yaml", `
name: test_scenario
description: "Test scenario for validation"
accounts:
  alice: "1000000"
flow:
  - invoke: create_atom
    args:
      caller: alice
      data: hello
      value: 10100
assertions:
  - type: event_contains
    kind: AtomCreated
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, "Test scenario for validation", scenario.Description)
	assert.Equal(t, map[string]string{"alice": "1000000"}, scenario.Accounts)
	assert.Len(t, scenario.Flow, 1)
	assert.Len(t, scenario.Assertions, 1)
	assert.Equal(t, "create_atom", scenario.Flow[0].Invoke)
	assert.Equal(t, "hello", scenario.Flow[0].Args["data"])
	assert.Equal(t, 10100, scenario.Flow[0].Args["value"])
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_MalformedYAML(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "bad.yaml", "name: [unclosed\n")
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing name",
			yaml:    "description: d\n" + minimalFlow,
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			yaml:    "name: n\n" + minimalFlow,
			wantErr: "description is required",
		},
		{
			name: "missing flow",
			yaml: `
name: n
description: d
assertions:
  - type: solvent
`,
			wantErr: "flow list is required",
		},
		{
			name: "missing assertions",
			yaml: `
name: n
description: d
flow:
  - invoke: sync
    args: {}
`,
			wantErr: "assertions list is required",
		},
		{
			name: "flow missing invoke",
			yaml: `
name: n
description: d
flow:
  - args: {}
assertions:
  - type: solvent
`,
			wantErr: "flow[0]: invoke is required",
		},
		{
			name: "flow missing args",
			yaml: `
name: n
description: d
flow:
  - invoke: sync
assertions:
  - type: solvent
`,
			wantErr: "flow[0]: args is required",
		},
		{
			name: "unknown action",
			yaml: `
name: n
description: d
flow:
  - invoke: teleport
    args: {}
assertions:
  - type: solvent
`,
			wantErr: `flow[0]: unknown action "teleport"`,
		},
		{
			name: "setup missing action",
			yaml: `
name: n
description: d
setup:
  - args: {}
` + minimalFlow,
			wantErr: "setup[0]: action is required",
		},
		{
			name: "setup missing args",
			yaml: `
name: n
description: d
setup:
  - action: sync
` + minimalFlow,
			wantErr: "setup[0]: args is required",
		},
		{
			name: "expect missing case",
			yaml: `
name: n
description: d
flow:
  - invoke: sync
    args: {}
    expect:
      result: { digest: x }
assertions:
  - type: solvent
`,
			wantErr: "flow[0].expect: case is required",
		},
		{
			name:    "unknown preset",
			yaml:    "name: n\ndescription: d\nconfig: { preset: huge }\n" + minimalFlow,
			wantErr: `config.preset "huge"`,
		},
		{
			name:    "bad funding",
			yaml:    "name: n\ndescription: d\naccounts: { alice: lots }\n" + minimalFlow,
			wantErr: "accounts[alice]",
		},
		{
			name:    "missing config file",
			yaml:    "name: n\ndescription: d\nconfig: { file: nowhere.cue }\n" + minimalFlow,
			wantErr: "config file not found",
		},
	}

	dir := t.TempDir()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeScenario(t, dir, "scenario.yaml", tt.yaml)
			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_UnknownFieldsRejected(t *testing.T) {
	// YAML files with typos (unknown fields) should be rejected
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "typo_assertion_singular",
			yaml:    "name: n\ndescription: d\nassertion: []\n" + minimalFlow,
			wantErr: "field assertion not found",
		},
		{
			name: "typo_in_flow_step",
			yaml: `
name: n
description: d
flow:
  - invok: sync
    args: {}
assertions:
  - type: solvent
`,
			wantErr: "field invok not found",
		},
		{
			name:    "unknown_top_level_field",
			yaml:    "name: n\ndescription: d\nunknown_field: value\n" + minimalFlow,
			wantErr: "field unknown_field not found",
		},
	}

	dir := t.TempDir()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeScenario(t, dir, tt.name+".yaml", tt.yaml)
			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_AssertionTypes(t *testing.T) {
	tests := []struct {
		name      string
		assertion string
		wantErr   string
	}{
		{"event_contains", "{ type: event_contains, kind: Deposited }", ""},
		{"event_contains without kind", "{ type: event_contains }", "kind is required for event_contains"},
		{"event_order", "{ type: event_order, kinds: [AtomCreated, Deposited] }", ""},
		{"event_order without kinds", "{ type: event_order }", "kinds list is required"},
		{"event_count zero", "{ type: event_count, kind: Redeemed, count: 0 }", ""},
		{"event_count negative", "{ type: event_count, kind: Redeemed, count: -1 }", "count must be non-negative"},
		{"final_state", "{ type: final_state, table: vaults, expect: { total_shares: 1 } }", ""},
		{"final_state without table", "{ type: final_state, expect: { total_shares: 1 } }", "table is required"},
		{"final_state without expect", "{ type: final_state, table: vaults }", "expect is required"},
		{"solvent", "{ type: solvent }", ""},
		{"unknown", "{ type: trace_contains }", `unknown assertion type "trace_contains"`},
		{"missing type", "{ kind: Deposited }", "type is required"},
	}

	dir := t.TempDir()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeScenario(t, dir, "scenario.yaml", `
name: n
description: d
flow:
  - invoke: sync
    args: {}
assertions:
  - `+tt.assertion+"\n")
			_, err := LoadScenario(path)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_ConfigFileResolvesAgainstScenarioDir(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "scenarios")
	require.NoError(t, os.MkdirAll(sub, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "gov.cue"), []byte("general: {}\n"), 0644))

	path := writeScenario(t, sub, "s.yaml", "name: n\ndescription: d\nconfig: { file: gov.cue }\n"+minimalFlow)
	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(sub, "gov.cue"), scenario.Config.File)
}

func TestLoadScenarioWithBasePath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gov.cue"), []byte("general: {}\n"), 0644))
	other := t.TempDir()

	path := writeScenario(t, other, "s.yaml", "name: n\ndescription: d\nconfig: { file: gov.cue }\n"+minimalFlow)
	scenario, err := LoadScenarioWithBasePath(path, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "gov.cue"), scenario.Config.File)

	_, err = LoadScenario(path)
	require.Error(t, err, "the file is not next to the scenario")
}

func TestLoadScenario_PresetAndFileExclusive(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gov.cue"), []byte("general: {}\n"), 0644))
	path := writeScenario(t, dir, "s.yaml", "name: n\ndescription: d\nconfig: { preset: small, file: gov.cue }\n"+minimalFlow)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestLoadScenario_Testdata(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)
			assert.Equal(t, filepath.Base(path), scenario.Name+".yaml", "scenario name matches its file")
		})
	}
}

func TestActionNames(t *testing.T) {
	names := ActionNames()
	assert.Contains(t, names, "create_atom")
	assert.Contains(t, names, "advance_time")
	assert.IsIncreasing(t, names)
}
