package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/multivault/internal/term"
)

// IDResult reports derived term identifiers.
type IDResult struct {
	Kind        string `json:"kind"`
	ID          string `json:"id"`
	Counterpart string `json:"counterpart,omitempty"`
	Wallet      string `json:"wallet,omitempty"`
}

// NewIDCommand creates the id command group. Ids are pure functions of their
// inputs, so none of these commands open the ledger.
func NewIDCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "id",
		Short: "Compute atom, triple and wallet identifiers",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "atom <data>",
		Short: "Compute an atom id and its wallet address",
		Long: `Compute the id of the atom whose payload is <data>, and the atom wallet
address derived from the wallet factory in --config.

Example:
  multivault id atom "ipfs://bafy..."`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)
			snap, err := rootOpts.snapshot(cmd.Context())
			if err != nil {
				return formatter.Fail("failed to load config", err)
			}
			id := term.AtomID([]byte(args[0]))
			return outputID(formatter, IDResult{
				Kind:   term.KindAtom.String(),
				ID:     id.Hex(),
				Wallet: term.WalletAddress(snap.Wallet.Factory, snap.Wallet.ImplementationHash, id).Hex(),
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "triple <subject> <predicate> <object>",
		Short: "Compute a triple id and its counter-triple id",
		Long: `Compute the triple and counter-triple ids for three atoms. Each atom is a
0x-prefixed id or atom:DATA.

Example:
  multivault id triple atom:alice atom:knows atom:bob`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)
			var parts [3]term.ID
			for i, arg := range args {
				id, err := parseTerm(arg)
				if err != nil {
					return formatter.Fail("invalid atom", err)
				}
				parts[i] = id
			}
			id := term.TripleID(parts[0], parts[1], parts[2])
			return outputID(formatter, IDResult{
				Kind:        term.KindTriple.String(),
				ID:          id.Hex(),
				Counterpart: term.CounterTripleID(parts[0], parts[1], parts[2]).Hex(),
			})
		},
	})

	return cmd
}

func outputID(formatter *OutputFormatter, r IDResult) error {
	if formatter.Format == "json" {
		return formatter.Success(r)
	}
	fmt.Fprintf(formatter.Writer, "%s %s\n", r.Kind, r.ID)
	if r.Counterpart != "" {
		fmt.Fprintf(formatter.Writer, "counter_triple %s\n", r.Counterpart)
	}
	if r.Wallet != "" {
		fmt.Fprintf(formatter.Writer, "wallet %s\n", r.Wallet)
	}
	return nil
}
