package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/multivault/internal/events"
)

// DefaultGoldenDir is where golden traces live relative to the test package.
const DefaultGoldenDir = "testdata/golden"

// TraceSnapshot captures the complete trace for a scenario execution.
// All fields use canonical JSON serialization for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEntry `json:"trace"`
}

// toCanonicalMap converts a TraceSnapshot to a map[string]any for canonical JSON serialization.
// This is required because events.MarshalCanonical only handles primitives, slices and maps.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, entry := range s.Trace {
		entryMap := map[string]any{
			"type": entry.Type,
			"seq":  entry.Seq,
		}
		if entry.Action != "" {
			entryMap["action"] = entry.Action
		}
		if entry.Args != nil {
			entryMap["args"] = entry.Args
		}
		if entry.Case != "" {
			entryMap["case"] = entry.Case
		}
		if entry.Result != nil {
			entryMap["result"] = entry.Result
		}
		if entry.Kind != "" {
			entryMap["kind"] = entry.Kind
		}
		if entry.OpID != "" {
			entryMap["op_id"] = entry.OpID
		}
		if entry.Attrs != nil {
			entryMap["attrs"] = entry.Attrs
		}
		traceList[i] = entryMap
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
	}
}

// MarshalTrace returns the canonical JSON of a scenario trace.
func MarshalTrace(name string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{ScenarioName: name, Trace: result.Trace}
	return events.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares the trace against a golden
// file named {scenario.Name}.golden in dir (DefaultGoldenDir if empty).
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario, dir string) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result, dir); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result's trace against a golden file.
// This is useful when you've already run a scenario and want to compare
// the result against a golden file without re-running.
func AssertGolden(t *testing.T, scenarioName string, result *Result, dir string) error {
	t.Helper()

	traceJSON, err := MarshalTrace(scenarioName, result)
	if err != nil {
		return err
	}
	newGoldie(t, dir).Assert(t, scenarioName, traceJSON)
	return nil
}

// UpdateGolden writes the result's trace as the golden file for scenarioName.
func UpdateGolden(t *testing.T, scenarioName string, result *Result, dir string) error {
	t.Helper()

	traceJSON, err := MarshalTrace(scenarioName, result)
	if err != nil {
		return err
	}
	return newGoldie(t, dir).Update(t, scenarioName, traceJSON)
}

func newGoldie(t *testing.T, dir string) *goldie.Goldie {
	if dir == "" {
		dir = DefaultGoldenDir
	}
	return goldie.New(t,
		goldie.WithFixtureDir(dir),
		goldie.WithNameSuffix(".golden"),
	)
}
