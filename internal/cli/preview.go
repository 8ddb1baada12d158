package cli

import (
	"context"
	"fmt"
	"io"

	"cosmossdk.io/math"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/roach88/multivault/internal/curve"
	"github.com/roach88/multivault/internal/multivault"
)

// PreviewOptions holds flags for the preview commands.
type PreviewOptions struct {
	*RootOptions
	Curve uint32 // 0 selects the default curve
}

// quoteFunc computes one quote. args excludes the trailing amount.
type quoteFunc func(ctx context.Context, s *session, args []string, amount math.Int) (any, error)

// NewPreviewCommand creates the preview command group. Previews read the
// --db ledger and never write to it.
func NewPreviewCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PreviewOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Quote deposits, redemptions and term creation",
		Long: `Quote an operation against the current ledger state. The quote is computed
by the same path the operation uses, so it equals what the operation would
return right now.

Examples:
  multivault preview deposit atom:hello 10000
  multivault preview redeem 0x1f... 9700 --curve 2
  multivault preview atom hello 10100
  multivault preview triple atom:alice atom:knows atom:bob 100100`,
	}
	cmd.PersistentFlags().Uint32Var(&opts.Curve, "curve", 0, "curve id (default: the configured default curve)")

	cmd.AddCommand(opts.subcommand("deposit <term> <assets>", "Quote a deposit into a vault",
		func(ctx context.Context, s *session, args []string, value math.Int) (any, error) {
			id, err := parseTerm(args[0])
			if err != nil {
				return nil, err
			}
			return s.engine.PreviewDeposit(ctx, id, opts.curveID(s), value)
		}))

	cmd.AddCommand(opts.subcommand("redeem <term> <shares>", "Quote a redemption from a vault",
		func(ctx context.Context, s *session, args []string, shares math.Int) (any, error) {
			id, err := parseTerm(args[0])
			if err != nil {
				return nil, err
			}
			return s.engine.PreviewRedeem(ctx, id, opts.curveID(s), shares)
		}))

	cmd.AddCommand(opts.subcommand("atom <data> <assets>", "Quote creating an atom",
		func(ctx context.Context, s *session, args []string, value math.Int) (any, error) {
			return s.engine.PreviewAtomCreate(ctx, []byte(args[0]), value)
		}))

	cmd.AddCommand(opts.subcommand("triple <subject> <predicate> <object> <assets>", "Quote creating a triple",
		func(ctx context.Context, s *session, args []string, value math.Int) (any, error) {
			subject, err := parseTerm(args[0])
			if err != nil {
				return nil, err
			}
			predicate, err := parseTerm(args[1])
			if err != nil {
				return nil, err
			}
			object, err := parseTerm(args[2])
			if err != nil {
				return nil, err
			}
			return s.engine.PreviewTripleCreate(ctx, subject, predicate, object, value)
		}))

	return cmd
}

// curveID resolves --curve against the engine's default.
func (o *PreviewOptions) curveID(s *session) curve.ID {
	if o.Curve == 0 {
		return s.engine.Snapshot().Curves.Default
	}
	return curve.ID(o.Curve)
}

// subcommand builds a preview command whose last positional argument is the
// amount being quoted.
func (o *PreviewOptions) subcommand(use, short string, quote quoteFunc) *cobra.Command {
	nargs := countArgs(use)
	return &cobra.Command{
		Use:           use,
		Short:         short,
		Args:          cobra.ExactArgs(nargs),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := o.formatter(cmd)
			amount, err := parseAmountArg(args[nargs-1])
			if err != nil {
				return formatter.Fail("invalid amount", err)
			}

			s, err := o.openSession(cmd.Context())
			if err != nil {
				return formatter.Fail("failed to open ledger", err)
			}
			defer s.Close()

			q, err := quote(cmd.Context(), s, args[:nargs-1], amount)
			if err != nil {
				return formatter.Fail("preview rejected", err)
			}
			if formatter.Format == "json" {
				return formatter.Success(q)
			}
			printQuote(formatter.Writer, q)
			return nil
		},
	}
}

// countArgs counts the <placeholders> in a Use string.
func countArgs(use string) int {
	n := 0
	for _, r := range use {
		if r == '<' {
			n++
		}
	}
	return n
}

// parseAmountArg parses a non-negative decimal amount.
func parseAmountArg(s string) (math.Int, error) {
	v, ok := math.NewIntFromString(s)
	if !ok || v.IsNegative() {
		return math.Int{}, errors.Newf("invalid amount %q", s)
	}
	return v, nil
}

func printQuote(w io.Writer, q any) {
	switch q := q.(type) {
	case multivault.DepositQuote:
		fmt.Fprintf(w, "shares             %s\n", q.Shares)
		fmt.Fprintf(w, "assets_after_fees  %s\n", q.AssetsAfterFees)
		fmt.Fprintf(w, "protocol_fee       %s\n", q.ProtocolFee)
		fmt.Fprintf(w, "entry_fee          %s\n", q.EntryFee)
		if q.AtomWalletFee.IsPositive() {
			fmt.Fprintf(w, "atom_wallet_fee    %s\n", q.AtomWalletFee)
		}
		if q.AtomFraction.IsPositive() {
			fmt.Fprintf(w, "atom_fraction      %s (%s per atom)\n", q.AtomFraction, q.PerAtom)
		}
		if q.GhostShares.IsPositive() {
			fmt.Fprintf(w, "ghost_shares       %s (cost %s)\n", q.GhostShares, q.GhostCost)
		}
	case multivault.RedeemQuote:
		fmt.Fprintf(w, "assets             %s\n", q.AssetsAfterFees)
		fmt.Fprintf(w, "shares             %s\n", q.Shares)
		fmt.Fprintf(w, "gross_assets       %s\n", q.GrossAssets)
		fmt.Fprintf(w, "exit_fee           %s\n", q.ExitFee)
		fmt.Fprintf(w, "protocol_fee       %s\n", q.ProtocolFee)
	default:
		fmt.Fprintln(w, q)
	}
}
