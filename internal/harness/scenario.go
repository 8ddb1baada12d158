package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
// Scenarios drive a fresh engine through a sequence of vault operations
// and assert on the resulting notifications and final state.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Config selects the governance parameters. Defaults to the small preset.
	Config ConfigSource `yaml:"config,omitempty"`

	// Accounts maps account labels to their funding. Each account is minted
	// the amount and approves the engine to pull all of it.
	Accounts map[string]string `yaml:"accounts"`

	// Setup contains actions to invoke before the main flow.
	// Setup actions must succeed.
	Setup []ActionStep `yaml:"setup,omitempty"`

	// Flow contains the main test flow - invocations with expected results.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the notifications and final state.
	// Supported types: event_contains, event_order, event_count,
	// final_state, solvent
	Assertions []Assertion `yaml:"assertions"`

	// OpPrefix prefixes the deterministic op ids. Defaults to "op".
	OpPrefix string `yaml:"op_prefix,omitempty"`
}

// ConfigSource names where a scenario's parameters come from.
type ConfigSource struct {
	// Preset is "small" (hand-checkable integers) or "default".
	Preset string `yaml:"preset,omitempty"`

	// File is a CUE governance file, read through a FileAuthority. Relative
	// paths resolve against the scenario's directory.
	File string `yaml:"file,omitempty"`
}

// Config presets.
const (
	PresetSmall   = "small"
	PresetDefault = "default"
)

// ActionStep represents a single action invocation.
// Used in Setup sections to establish initial state.
type ActionStep struct {
	// Action is the operation name (e.g., "create_atom").
	Action string `yaml:"action"`

	// Args contains the action arguments as a map.
	Args map[string]interface{} `yaml:"args"`
}

// FlowStep represents a step in the main test flow.
// Each step invokes an action and optionally validates the outcome.
type FlowStep struct {
	// Invoke is the operation name to invoke.
	Invoke string `yaml:"invoke"`

	// Args contains the action arguments.
	Args map[string]interface{} `yaml:"args"`

	// Expect specifies the expected outcome.
	// If nil, the step must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies expected completion behavior.
type ExpectClause struct {
	// Case is "Success" or the expected fault code (e.g., "COUNTER_STAKE").
	Case string `yaml:"case"`

	// Result contains expected result field values.
	// This is a subset match - only specified fields are validated.
	Result map[string]interface{} `yaml:"result,omitempty"`
}

// CaseSuccess is the completion case of an operation that was applied.
const CaseSuccess = "Success"

// Assertion validates notifications or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "event_contains": Check a notification of Kind with Attrs was published
	// - "event_order": Check notification kinds appear in order
	// - "event_count": Check a notification kind appears exactly N times
	// - "final_state": Query a ledger table and verify expected values
	// - "solvent": Check custody covers every vault and fee balance
	Type string `yaml:"type"`

	// Kind is the notification kind (event_contains, event_count).
	Kind string `yaml:"kind,omitempty"`

	// Attrs are the expected notification attributes (event_contains).
	// Subset match - only specified fields are validated.
	Attrs map[string]interface{} `yaml:"attrs,omitempty"`

	// Table is the ledger table name (used by final_state).
	Table string `yaml:"table,omitempty"`

	// Where specifies query filters (used by final_state).
	// All fields must match exactly.
	Where map[string]interface{} `yaml:"where,omitempty"`

	// Expect contains expected field values (used by final_state).
	// Subset match - only specified fields are validated.
	Expect map[string]interface{} `yaml:"expect,omitempty"`

	// Count is the expected number of occurrences (used by event_count).
	Count int `yaml:"count,omitempty"`

	// Kinds is the expected notification order (used by event_order).
	Kinds []string `yaml:"kinds,omitempty"`
}

// Assertion type constants.
const (
	AssertEventContains = "event_contains"
	AssertEventOrder    = "event_order"
	AssertEventCount    = "event_count"
	AssertFinalState    = "final_state"
	AssertSolvent       = "solvent"
)

// LoadScenario reads and parses a scenario YAML file. A relative config file
// resolves against the scenario's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the config file path relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	// Resolve the config path relative to base path BEFORE validation
	if f := scenario.Config.File; f != "" && !filepath.IsAbs(f) && basePath != "" {
		scenario.Config.File = filepath.Join(basePath, f)
	}

	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return scenario, nil
}

// ParseScenario decodes a scenario without validating file references.
func ParseScenario(data []byte) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch s.Config.Preset {
	case "", PresetSmall, PresetDefault:
	default:
		return fmt.Errorf("config.preset %q is not one of %s, %s", s.Config.Preset, PresetSmall, PresetDefault)
	}
	if s.Config.File != "" {
		if s.Config.Preset != "" {
			return fmt.Errorf("config.preset and config.file are mutually exclusive")
		}
		if _, err := os.Stat(s.Config.File); os.IsNotExist(err) {
			return fmt.Errorf("config file not found: %s", s.Config.File)
		}
	}

	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for label, amount := range s.Accounts {
		if _, err := parseAmount(amount); err != nil {
			return fmt.Errorf("accounts[%s]: %w", label, err)
		}
	}

	// Validate setup steps (if present)
	for i, step := range s.Setup {
		if step.Action == "" {
			return fmt.Errorf("setup[%d]: action is required", i)
		}
		if !knownAction(step.Action) {
			return fmt.Errorf("setup[%d]: unknown action %q", i, step.Action)
		}
		if step.Args == nil {
			return fmt.Errorf("setup[%d]: args is required (use empty map if no args)", i)
		}
	}

	// Validate flow steps
	for i, step := range s.Flow {
		if step.Invoke == "" {
			return fmt.Errorf("flow[%d]: invoke is required", i)
		}
		if !knownAction(step.Invoke) {
			return fmt.Errorf("flow[%d]: unknown action %q", i, step.Invoke)
		}
		if step.Args == nil {
			return fmt.Errorf("flow[%d]: args is required (use empty map if no args)", i)
		}
		// Validate expect clause if present
		if step.Expect != nil && step.Expect.Case == "" {
			return fmt.Errorf("flow[%d].expect: case is required", i)
		}
	}

	// Validate assertions
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertEventContains:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for event_contains", index)
		}
	case AssertEventOrder:
		if len(a.Kinds) == 0 {
			return fmt.Errorf("assertions[%d]: kinds list is required for event_order", index)
		}
	case AssertEventCount:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for event_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for event_count", index)
		}
	case AssertFinalState:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case AssertSolvent:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
