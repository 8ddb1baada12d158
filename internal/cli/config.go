package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/multivault/internal/config"
	"github.com/roach88/multivault/internal/events"
)

// ConfigCheckResult reports a validated governance file.
type ConfigCheckResult struct {
	File   string `json:"file"`
	Valid  bool   `json:"valid"`
	Digest string `json:"digest,omitempty"`
	Paused bool   `json:"paused"`
	Curves int    `json:"curves"`
}

// NewConfigCommand creates the config command group.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Check, show and sync governance parameters",
	}

	cmd.AddCommand(newConfigCheckCommand(rootOpts))
	cmd.AddCommand(newConfigShowCommand(rootOpts))
	cmd.AddCommand(newConfigSyncCommand(rootOpts))

	return cmd
}

func newConfigCheckCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check [file]",
		Short: "Validate a CUE governance file",
		Long: `Validate a CUE governance file against the embedded schema and the
parameter bounds, then print the digest a sync would report.

The file defaults to --config.

Examples:
  multivault config check governance.cue
  multivault --config governance.cue config check --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.Config
			if len(args) == 1 {
				path = args[0]
			}
			return runConfigCheck(opts, path, cmd)
		},
	}
}

func runConfigCheck(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	if path == "" {
		_ = formatter.Error("E_NO_CONFIG", "no config file given", nil)
		return NewExitError(ExitCommandError, "no config file given")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return formatter.Fail("failed to read config", err)
	}

	formatter.VerboseLog("Checking %s (%d bytes)", path, len(data))
	snap, err := config.Parse(data, path)
	if err != nil {
		return formatter.Fail("invalid config", err)
	}

	digest, err := events.ConfigDigest(snap.Canonical())
	if err != nil {
		return formatter.Fail("failed to digest config", err)
	}

	result := ConfigCheckResult{
		File:   path,
		Valid:  true,
		Digest: digest,
		Paused: snap.General.Paused,
		Curves: len(snap.Curves.Registry),
	}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "\u2713 %s is valid\n", path)
	fmt.Fprintf(formatter.Writer, "  digest: %s\n", digest)
	fmt.Fprintf(formatter.Writer, "  curves: %d (default %d)\n", result.Curves, snap.Curves.Default)
	if result.Paused {
		fmt.Fprintln(formatter.Writer, "  paused: true")
	}
	return nil
}

func newConfigShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective parameters as canonical JSON",
		Long: `Print the parameters selected by --config (or the built-in defaults)
as the canonical JSON whose SHA-256 is the sync digest.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := opts.formatter(cmd)
			snap, err := opts.snapshot(cmd.Context())
			if err != nil {
				return formatter.Fail("failed to load config", err)
			}
			if formatter.Format == "json" {
				return formatter.Success(snap.Canonical())
			}
			data, err := events.MarshalCanonical(snap.Canonical())
			if err != nil {
				return formatter.Fail("failed to render config", err)
			}
			fmt.Fprintln(formatter.Writer, string(data))
			return nil
		},
	}
}

func newConfigSyncCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Journal a config sync on the ledger",
		Long: `Fetch the parameters from --config, validate them and journal a
ConfigSynced notification on the --db ledger.

Example:
  multivault --db ./multivault.db --config governance.cue config sync`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := opts.formatter(cmd)
			s, err := opts.openSession(cmd.Context())
			if err != nil {
				return formatter.Fail("failed to open ledger", err)
			}
			defer s.Close()

			digest, err := s.engine.SyncConfig(cmd.Context())
			if err != nil {
				return formatter.Fail("config sync failed", err)
			}
			if formatter.Format == "json" {
				return formatter.Success(map[string]string{"digest": digest})
			}
			fmt.Fprintf(formatter.Writer, "\u2713 Config synced (digest %s)\n", digest)
			return nil
		},
	}
}
