package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Golden traces are written into a temp fixture dir and then compared with a
// second run, so these tests pin determinism without checked-in fixtures.

func TestRunWithGolden_Testdata(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)
			dir := t.TempDir()

			first, err := Run(scenario)
			require.NoError(t, err)
			require.NoError(t, UpdateGolden(t, scenario.Name, first, dir))
			_, err = os.Stat(filepath.Join(dir, scenario.Name+".golden"))
			require.NoError(t, err)

			second, err := RunWithGolden(t, scenario, dir)
			require.NoError(t, err)
			assert.True(t, second.Pass, second.Errors)
		})
	}
}

func TestAssertGolden_FromResult(t *testing.T) {
	dir := t.TempDir()
	result, err := Run(atomScenario(createHello()))
	require.NoError(t, err)

	require.NoError(t, UpdateGolden(t, "from_result", result, dir))
	require.NoError(t, AssertGolden(t, "from_result", result, dir))
}

func TestMarshalTrace_Canonical(t *testing.T) {
	r := NewResult()
	r.AddInvocationTrace("deposit", map[string]interface{}{"value": 10000, "caller": "alice"})
	r.AddEventTrace("Deposited", "op-0001", map[string]interface{}{"shares": "9700"})
	r.AddCompletionTrace(CaseSuccess, map[string]interface{}{"shares": "9700"})

	data, err := MarshalTrace("canonical", r)
	require.NoError(t, err)
	assert.Equal(t,
		`{"scenario_name":"canonical","trace":[`+
			`{"action":"deposit","args":{"caller":"alice","value":10000},"seq":1,"type":"invocation"},`+
			`{"attrs":{"shares":"9700"},"kind":"Deposited","op_id":"op-0001","seq":2,"type":"event"},`+
			`{"case":"Success","result":{"shares":"9700"},"seq":3,"type":"completion"}]}`,
		string(data))

	again, err := MarshalTrace("canonical", r)
	require.NoError(t, err)
	assert.Equal(t, data, again, "canonical JSON must be deterministic")
}

func TestMarshalTrace_RejectsFloats(t *testing.T) {
	r := NewResult()
	r.AddInvocationTrace("deposit", map[string]interface{}{"value": 1.5})
	_, err := MarshalTrace("floats", r)
	assert.Error(t, err)
}
