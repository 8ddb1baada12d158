package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"cosmossdk.io/math"
	"github.com/spf13/cobra"

	"github.com/roach88/multivault/internal/curve"
	"github.com/roach88/multivault/internal/events"
	"github.com/roach88/multivault/internal/term"
)

// InspectOptions holds flags for the inspect commands.
type InspectOptions struct {
	*RootOptions
	Curve uint32
	After int64
	Limit int
	Kind  string   // filter events by kind
	Op    string   // filter events by op id
	Terms []string // extra terms for inspect account
}

// TermView is the JSON shape of inspect term.
type TermView struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	Creator     string `json:"creator"`
	Data        string `json:"data,omitempty"`
	Subject     string `json:"subject,omitempty"`
	Predicate   string `json:"predicate,omitempty"`
	Object      string `json:"object,omitempty"`
	Counterpart string `json:"counterpart,omitempty"`
	Wallet      string `json:"wallet,omitempty"`
	WalletFees  string `json:"wallet_fees,omitempty"`
}

// VaultView is the JSON shape of inspect vault.
type VaultView struct {
	Term        string            `json:"term"`
	Curve       uint32            `json:"curve"`
	TotalAssets string            `json:"total_assets"`
	TotalShares string            `json:"total_shares"`
	SharePrice  string            `json:"share_price"`
	Holders     map[string]string `json:"holders"`
}

// EventView is one journaled notification.
type EventView struct {
	Seq    int64          `json:"seq"`
	OpID   string         `json:"op_id"`
	Kind   string         `json:"kind"`
	Attrs  map[string]any `json:"attrs"`
	Digest string         `json:"digest"`
}

// EventStats summarizes an events listing.
type EventStats struct {
	Total  int            `json:"total"`
	Ops    int            `json:"ops"`
	ByKind map[string]int `json:"by_kind"`
}

// EventsResult holds the inspect events output.
type EventsResult struct {
	Events []EventView `json:"events"`
	Stats  EventStats  `json:"stats"`
}

// FeesView reports one epoch's protocol fee accrual.
type FeesView struct {
	Epoch        int64  `json:"epoch"`
	CurrentEpoch int64  `json:"current_epoch"`
	Accrued      string `json:"accrued"`
	Swept        bool   `json:"swept"`
	Destination  string `json:"destination,omitempty"`
}

// AccountView reports an account's balances.
type AccountView struct {
	Address         string            `json:"address"`
	Balance         string            `json:"balance"`
	Allowance       string            `json:"allowance"`
	LastActiveEpoch *int64            `json:"last_active_epoch,omitempty"`
	Utilization     string            `json:"utilization,omitempty"`
	Shares          map[string]string `json:"shares,omitempty"`
}

// NewInspectCommand creates the inspect command group.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Read terms, vaults, notifications and balances from the ledger",
		Long: `Read the --db ledger. Terms are 0x-prefixed ids or atom:DATA. Accounts are
0x-prefixed addresses or labels, hashed the way scenario files name accounts.

Examples:
  multivault inspect term atom:hello
  multivault inspect vault atom:hello --curve 2
  multivault inspect events --kind Deposited --limit 20
  multivault inspect fees 3
  multivault inspect account alice --term atom:hello`,
	}

	cmd.AddCommand(newInspectTermCommand(opts))
	cmd.AddCommand(newInspectVaultCommand(opts))
	cmd.AddCommand(newInspectEventsCommand(opts))
	cmd.AddCommand(newInspectFeesCommand(opts))
	cmd.AddCommand(newInspectAccountCommand(opts))

	return cmd
}

func newInspectTermCommand(opts *InspectOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "term <term>",
		Short:         "Show a registered term",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			formatter := opts.formatter(cmd)
			id, err := parseTerm(args[0])
			if err != nil {
				return formatter.Fail("invalid term", err)
			}

			s, err := opts.openSession(ctx)
			if err != nil {
				return formatter.Fail("failed to open ledger", err)
			}
			defer s.Close()

			rec, err := s.engine.GetTerm(ctx, id)
			if err != nil {
				return formatter.Fail("term lookup failed", err)
			}

			view := TermView{ID: rec.ID.Hex(), Kind: rec.Kind.String(), Creator: rec.Creator.Hex()}
			if rec.Kind == term.KindAtom {
				view.Data = string(rec.Data)
				view.Wallet = s.engine.ComputeAtomWalletAddress(rec.ID).Hex()
				fees, err := s.engine.AtomWalletDepositFees(ctx, rec.ID)
				if err != nil {
					return formatter.Fail("wallet fee lookup failed", err)
				}
				view.WalletFees = fees.String()
			} else {
				view.Subject = rec.Subject.Hex()
				view.Predicate = rec.Predicate.Hex()
				view.Object = rec.Object.Hex()
				view.Counterpart = rec.Counterpart.Hex()
			}

			if formatter.Format == "json" {
				return formatter.Success(view)
			}
			w := formatter.Writer
			fmt.Fprintf(w, "%s %s\n", view.Kind, view.ID)
			fmt.Fprintf(w, "  creator:     %s\n", view.Creator)
			if view.Kind == term.KindAtom.String() {
				fmt.Fprintf(w, "  data:        %q\n", view.Data)
				fmt.Fprintf(w, "  wallet:      %s\n", view.Wallet)
				fmt.Fprintf(w, "  wallet fees: %s\n", view.WalletFees)
				return nil
			}
			fmt.Fprintf(w, "  subject:     %s\n", view.Subject)
			fmt.Fprintf(w, "  predicate:   %s\n", view.Predicate)
			fmt.Fprintf(w, "  object:      %s\n", view.Object)
			fmt.Fprintf(w, "  counterpart: %s\n", view.Counterpart)
			return nil
		},
	}
}

func newInspectVaultCommand(opts *InspectOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "vault <term>",
		Short:         "Show a vault's totals, price and holders",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			formatter := opts.formatter(cmd)
			id, err := parseTerm(args[0])
			if err != nil {
				return formatter.Fail("invalid term", err)
			}

			s, err := opts.openSession(ctx)
			if err != nil {
				return formatter.Fail("failed to open ledger", err)
			}
			defer s.Close()

			curveID := curve.ID(opts.Curve)
			if curveID == 0 {
				curveID = s.engine.Snapshot().Curves.Default
			}

			v, err := s.engine.GetVault(ctx, id, curveID)
			if err != nil {
				return formatter.Fail("vault lookup failed", err)
			}
			price, err := s.engine.CurrentSharePrice(ctx, id, curveID)
			if err != nil {
				return formatter.Fail("price lookup failed", err)
			}
			holders, err := s.engine.ListHolders(ctx, id, curveID)
			if err != nil {
				return formatter.Fail("holder lookup failed", err)
			}

			view := VaultView{
				Term:        id.Hex(),
				Curve:       uint32(curveID),
				TotalAssets: v.TotalAssets.String(),
				TotalShares: v.TotalShares.String(),
				SharePrice:  price.String(),
				Holders:     make(map[string]string, len(holders)),
			}
			for _, h := range holders {
				view.Holders[h.Account.Hex()] = h.Shares.String()
			}

			if formatter.Format == "json" {
				return formatter.Success(view)
			}
			w := formatter.Writer
			fmt.Fprintf(w, "vault %s curve %d\n", view.Term, view.Curve)
			fmt.Fprintf(w, "  total assets: %s\n", view.TotalAssets)
			fmt.Fprintf(w, "  total shares: %s\n", view.TotalShares)
			fmt.Fprintf(w, "  share price:  %s\n", view.SharePrice)
			fmt.Fprintf(w, "  holders:      %d\n", len(holders))
			for _, h := range holders {
				fmt.Fprintf(w, "    %s %s\n", h.Account.Hex(), h.Shares)
			}
			return nil
		},
	}
	cmd.Flags().Uint32Var(&opts.Curve, "curve", 0, "curve id (default: the configured default curve)")
	return cmd
}

func newInspectEventsCommand(opts *InspectOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List journaled notifications",
		Long: `List journaled notifications in sequence order.

The output includes:
- Events: seq, op id, kind and attributes of each notification
- Stats: totals by kind and the number of distinct operations`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			formatter := opts.formatter(cmd)
			s, err := opts.openSession(ctx)
			if err != nil {
				return formatter.Fail("failed to open ledger", err)
			}
			defer s.Close()

			evs, err := s.engine.Events(ctx, opts.After, opts.Limit)
			if err != nil {
				return formatter.Fail("event query failed", err)
			}
			result := buildEventsResult(evs, opts.Kind, opts.Op)

			if formatter.Format == "json" {
				return formatter.Success(result)
			}
			outputEventsText(formatter, result)
			return nil
		},
	}
	cmd.Flags().Int64Var(&opts.After, "after", 0, "only events with seq greater than this")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of events to read (0 = all)")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "only events of this kind")
	cmd.Flags().StringVar(&opts.Op, "op", "", "only events of this op id")
	return cmd
}

// buildEventsResult filters evs and computes the stats.
func buildEventsResult(evs []events.Event, kind, opID string) EventsResult {
	result := EventsResult{
		Events: make([]EventView, 0, len(evs)),
		Stats:  EventStats{ByKind: make(map[string]int)},
	}
	ops := make(map[string]bool)
	for _, e := range evs {
		if kind != "" && string(e.Kind) != kind {
			continue
		}
		if opID != "" && e.OpID != opID {
			continue
		}
		result.Events = append(result.Events, EventView{
			Seq:    e.Seq,
			OpID:   e.OpID,
			Kind:   string(e.Kind),
			Attrs:  e.Attrs,
			Digest: e.Digest,
		})
		result.Stats.ByKind[string(e.Kind)]++
		ops[e.OpID] = true
	}
	result.Stats.Total = len(result.Events)
	result.Stats.Ops = len(ops)
	return result
}

func outputEventsText(formatter *OutputFormatter, result EventsResult) {
	w := formatter.Writer
	if len(result.Events) == 0 {
		fmt.Fprintln(w, "No events.")
		return
	}
	for _, e := range result.Events {
		fmt.Fprintf(w, "[%d] %s %s %s\n", e.Seq, e.OpID, e.Kind, formatAttrs(e.Attrs))
	}

	kinds := make([]string, 0, len(result.Stats.ByKind))
	for k := range result.Stats.ByKind {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d event(s) from %d operation(s)\n", result.Stats.Total, result.Stats.Ops)
	for _, k := range kinds {
		fmt.Fprintf(w, "  %-32s %d\n", k, result.Stats.ByKind[k])
	}
}

// formatAttrs renders attributes as sorted key=value pairs.
func formatAttrs(attrs map[string]any) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, attrs[k])
	}
	return strings.Join(parts, " ")
}

func newInspectFeesCommand(opts *InspectOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "fees [epoch]",
		Short:         "Show an epoch's protocol fee accrual (default: current epoch)",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			formatter := opts.formatter(cmd)
			s, err := opts.openSession(ctx)
			if err != nil {
				return formatter.Fail("failed to open ledger", err)
			}
			defer s.Close()

			current := s.engine.CurrentEpoch()
			epoch := current
			if len(args) == 1 {
				if epoch, err = strconv.ParseInt(args[0], 10, 64); err != nil || epoch < 0 {
					_ = formatter.Error("E_BAD_EPOCH", fmt.Sprintf("invalid epoch %q", args[0]), nil)
					return NewExitError(ExitCommandError, "invalid epoch")
				}
			}

			rec, err := s.engine.AccumulatedProtocolFees(ctx, epoch)
			if err != nil {
				return formatter.Fail("fee lookup failed", err)
			}
			view := FeesView{Epoch: epoch, CurrentEpoch: current, Accrued: rec.Accrued.String(), Swept: rec.Swept}
			if rec.Swept {
				view.Destination = rec.Destination.Hex()
			}

			if formatter.Format == "json" {
				return formatter.Success(view)
			}
			w := formatter.Writer
			fmt.Fprintf(w, "epoch %d (current %d)\n", view.Epoch, view.CurrentEpoch)
			fmt.Fprintf(w, "  accrued: %s\n", view.Accrued)
			if view.Swept {
				fmt.Fprintf(w, "  swept to %s\n", view.Destination)
			} else {
				fmt.Fprintln(w, "  not swept")
			}
			return nil
		},
	}
}

func newInspectAccountCommand(opts *InspectOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "account <account>",
		Short:         "Show an account's balance, allowance, utilization and shares",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			formatter := opts.formatter(cmd)
			account, err := parseAccount(args[0])
			if err != nil {
				return formatter.Fail("invalid account", err)
			}
			terms := make([]term.ID, len(opts.Terms))
			for i, t := range opts.Terms {
				if terms[i], err = parseTerm(t); err != nil {
					return formatter.Fail("invalid term", err)
				}
			}

			s, err := opts.openSession(ctx)
			if err != nil {
				return formatter.Fail("failed to open ledger", err)
			}
			defer s.Close()

			view, err := buildAccountView(cmd, s, account, terms, curve.ID(opts.Curve))
			if err != nil {
				return formatter.Fail("account lookup failed", err)
			}

			if formatter.Format == "json" {
				return formatter.Success(view)
			}
			w := formatter.Writer
			fmt.Fprintf(w, "account %s\n", view.Address)
			fmt.Fprintf(w, "  balance:   %s\n", view.Balance)
			fmt.Fprintf(w, "  allowance: %s\n", view.Allowance)
			if view.LastActiveEpoch != nil {
				fmt.Fprintf(w, "  utilization: %s (epoch %d)\n", view.Utilization, *view.LastActiveEpoch)
			}
			for _, id := range terms {
				fmt.Fprintf(w, "  shares %s: %s\n", id.Hex(), view.Shares[id.Hex()])
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&opts.Terms, "term", nil, "also report shares held in these terms (repeatable)")
	cmd.Flags().Uint32Var(&opts.Curve, "curve", 0, "curve id for --term (default: the configured default curve)")
	return cmd
}

func buildAccountView(cmd *cobra.Command, s *session, account term.Address, terms []term.ID, curveID curve.ID) (AccountView, error) {
	ctx := cmd.Context()
	view := AccountView{Address: account.Hex()}

	balance, err := s.engine.BalanceOf(ctx, account)
	if err != nil {
		return view, err
	}
	allowance, err := s.engine.Allowance(ctx, account)
	if err != nil {
		return view, err
	}
	view.Balance, view.Allowance = balance.String(), allowance.String()

	epoch, ok, err := s.engine.LastActiveEpoch(ctx, account)
	if err != nil {
		return view, err
	}
	if ok {
		util, err := s.engine.PersonalUtilization(ctx, account, epoch)
		if err != nil {
			return view, err
		}
		view.LastActiveEpoch = &epoch
		view.Utilization = util.String()
	}

	if len(terms) > 0 {
		if curveID == 0 {
			curveID = s.engine.Snapshot().Curves.Default
		}
		view.Shares = make(map[string]string, len(terms))
		for _, id := range terms {
			shares, err := s.engine.GetShares(ctx, account, id, curveID)
			if err != nil {
				return view, err
			}
			view.Shares[id.Hex()] = sharesString(shares)
		}
	}
	return view, nil
}

func sharesString(v math.Int) string {
	if v.IsNil() {
		return "0"
	}
	return v.String()
}
