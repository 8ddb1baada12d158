package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "multivault", cmd.Use)
	assert.Contains(t, cmd.Long, "bonding-curve vaults")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"test"},
		{"config", "check"},
		{"config", "show"},
		{"config", "sync"},
		{"id", "atom"},
		{"id", "triple"},
		{"preview", "deposit"},
		{"preview", "redeem"},
		{"preview", "atom"},
		{"preview", "triple"},
		{"inspect", "term"},
		{"inspect", "vault"},
		{"inspect", "events"},
		{"inspect", "fees"},
		{"inspect", "account"},
	}

	for _, path := range commands {
		name := path[len(path)-1]
		t.Run(name, func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err, "Command %v should exist", path)
			require.NotNil(t, subCmd)
			assert.Equal(t, name, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	dbFlag := cmd.PersistentFlags().Lookup("db")
	require.NotNil(t, dbFlag)
	assert.Equal(t, DefaultDatabase, dbFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "", configFlag.DefValue)
}

func TestTestCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	testCmd, _, err := cmd.Find([]string{"test"})
	require.NoError(t, err)

	updateFlag := testCmd.Flags().Lookup("update")
	require.NotNil(t, updateFlag)
	assert.Equal(t, "false", updateFlag.DefValue)

	require.NotNil(t, testCmd.Flags().Lookup("filter"))
	require.NotNil(t, testCmd.Flags().Lookup("golden"))
	require.NotNil(t, testCmd.Flags().Lookup("metrics"))
}

func TestInspectCommandFlags(t *testing.T) {
	cmd := NewRootCommand()

	eventsCmd, _, err := cmd.Find([]string{"inspect", "events"})
	require.NoError(t, err)
	for _, name := range []string{"after", "limit", "kind", "op"} {
		assert.NotNil(t, eventsCmd.Flags().Lookup(name), name)
	}

	vaultCmd, _, err := cmd.Find([]string{"inspect", "vault"})
	require.NoError(t, err)
	curveFlag := vaultCmd.Flags().Lookup("curve")
	require.NotNil(t, curveFlag)
	assert.Equal(t, "0", curveFlag.DefValue)
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--format", "invalid", "id", "atom", "hello"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}
