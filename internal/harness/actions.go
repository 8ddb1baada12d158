package harness

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"cosmossdk.io/math"

	"github.com/roach88/multivault/internal/approval"
	"github.com/roach88/multivault/internal/config"
	"github.com/roach88/multivault/internal/curve"
	"github.com/roach88/multivault/internal/term"
)

// actionFunc executes one scenario action and returns its result fields.
type actionFunc func(r *runner, a args) (map[string]interface{}, error)

var actions = map[string]actionFunc{
	"mint_assets":     (*runner).mintAssets,
	"approve_assets":  (*runner).approveAssets,
	"create_atom":     (*runner).createAtom,
	"create_triple":   (*runner).createTriple,
	"deposit":         (*runner).deposit,
	"redeem":          (*runner).redeem,
	"preview_deposit": (*runner).previewDeposit,
	"preview_redeem":  (*runner).previewRedeem,
	"set_approval":    (*runner).setApproval,
	"sweep":           (*runner).sweep,
	"claim":           (*runner).claim,
	"update_config":   (*runner).updateConfig,
	"sync":            (*runner).sync,
	"advance_time":    (*runner).advanceTime,
}

func knownAction(name string) bool {
	_, ok := actions[name]
	return ok
}

// ActionNames lists the supported actions in sorted order.
func ActionNames() []string {
	names := make([]string, 0, len(actions))
	for name := range actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *runner) invoke(action string, raw map[string]interface{}) (map[string]interface{}, error) {
	fn, ok := actions[action]
	if !ok {
		return nil, fmt.Errorf("unknown action %q", action)
	}
	return fn(r, args{raw: raw, names: r.names})
}

func (r *runner) mintAssets(a args) (map[string]interface{}, error) {
	account, amount := a.address("account"), a.amount("amount")
	if err := a.err(); err != nil {
		return nil, err
	}
	return nil, r.engine.MintAssets(r.ctx, account, amount)
}

func (r *runner) approveAssets(a args) (map[string]interface{}, error) {
	owner, amount := a.address("owner"), a.amount("amount")
	if err := a.err(); err != nil {
		return nil, err
	}
	return nil, r.engine.ApproveAssets(r.ctx, owner, amount)
}

func (r *runner) createAtom(a args) (map[string]interface{}, error) {
	caller, data, value := a.address("caller"), a.str("data"), a.amount("value")
	name := a.optStr("name", data)
	if err := a.err(); err != nil {
		return nil, err
	}
	id, err := r.engine.CreateAtom(r.ctx, caller, []byte(data), value)
	if err != nil {
		return nil, err
	}
	r.names.bind(name, id)
	return map[string]interface{}{
		"term":   id.Hex(),
		"wallet": r.engine.ComputeAtomWalletAddress(id).Hex(),
	}, nil
}

func (r *runner) createTriple(a args) (map[string]interface{}, error) {
	caller, name := a.address("caller"), a.str("name")
	subject, predicate, object := a.term("subject"), a.term("predicate"), a.term("object")
	value := a.amount("value")
	if err := a.err(); err != nil {
		return nil, err
	}
	id, err := r.engine.CreateTriple(r.ctx, caller, subject, predicate, object, value)
	if err != nil {
		return nil, err
	}
	r.names.bind(name, id)
	counter, err := term.Counterpart(id)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"term":    id.Hex(),
		"counter": counter.Hex(),
	}, nil
}

func (r *runner) deposit(a args) (map[string]interface{}, error) {
	caller := a.address("caller")
	receiver := a.optAddress("receiver", caller)
	id, curveID := a.term("term"), a.curve("curve", r.defaultCurve())
	value, minShares := a.amount("value"), a.optAmount("min_shares")
	if err := a.err(); err != nil {
		return nil, err
	}
	res, err := r.engine.Deposit(r.ctx, caller, receiver, id, curveID, value, minShares)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"shares":            res.Shares.String(),
		"assets_after_fees": res.AssetsAfterFees.String(),
		"protocol_fee":      res.Quote.ProtocolFee.String(),
		"entry_fee":         res.Quote.EntryFee.String(),
	}, nil
}

func (r *runner) redeem(a args) (map[string]interface{}, error) {
	caller := a.address("caller")
	receiver := a.optAddress("receiver", caller)
	id, curveID := a.term("term"), a.curve("curve", r.defaultCurve())
	minAssets := a.optAmount("min_assets")
	if err := a.err(); err != nil {
		return nil, err
	}

	var shares math.Int
	if a.optStr("shares", "") == "all" {
		held, err := r.engine.GetShares(r.ctx, receiver, id, curveID)
		if err != nil {
			return nil, err
		}
		shares = held
	} else {
		shares = a.amount("shares")
		if err := a.err(); err != nil {
			return nil, err
		}
	}

	res, err := r.engine.Redeem(r.ctx, caller, receiver, id, curveID, shares, minAssets)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"shares": shares.String(),
		"assets": res.Assets.String(),
		"fees":   res.Quote.Fees().String(),
	}, nil
}

func (r *runner) previewDeposit(a args) (map[string]interface{}, error) {
	id, curveID, value := a.term("term"), a.curve("curve", r.defaultCurve()), a.amount("value")
	if err := a.err(); err != nil {
		return nil, err
	}
	q, err := r.engine.PreviewDeposit(r.ctx, id, curveID, value)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"shares":            q.Shares.String(),
		"assets_after_fees": q.AssetsAfterFees.String(),
	}, nil
}

func (r *runner) previewRedeem(a args) (map[string]interface{}, error) {
	id, curveID, shares := a.term("term"), a.curve("curve", r.defaultCurve()), a.amount("shares")
	if err := a.err(); err != nil {
		return nil, err
	}
	q, err := r.engine.PreviewRedeem(r.ctx, id, curveID, shares)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"assets": q.AssetsAfterFees.String(),
		"fees":   q.Fees().String(),
	}, nil
}

func (r *runner) setApproval(a args) (map[string]interface{}, error) {
	owner, delegate := a.address("owner"), a.address("delegate")
	label := a.str("rights")
	if err := a.err(); err != nil {
		return nil, err
	}
	rights, err := approval.ParseRights(label)
	if err != nil {
		return nil, err
	}
	return nil, r.engine.SetApproval(r.ctx, owner, delegate, rights)
}

func (r *runner) sweep(a args) (map[string]interface{}, error) {
	epoch := a.optInt("epoch", r.engine.PreviousEpoch())
	if err := a.err(); err != nil {
		return nil, err
	}
	res, err := r.engine.SweepProtocolFees(r.ctx, epoch)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"epoch":       res.Epoch,
		"amount":      res.Amount.String(),
		"destination": res.Destination.Hex(),
	}, nil
}

func (r *runner) claim(a args) (map[string]interface{}, error) {
	atom := a.term("atom")
	if err := a.err(); err != nil {
		return nil, err
	}
	caller := a.optAddress("caller", r.engine.ComputeAtomWalletAddress(atom))
	if err := a.err(); err != nil {
		return nil, err
	}
	amount, err := r.engine.ClaimAtomWalletDepositFees(r.ctx, caller, atom)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"amount": amount.String()}, nil
}

// updateConfig changes the parameters served by the authority. The engine
// keeps its cached copy until the next sync.
func (r *runner) updateConfig(a args) (map[string]interface{}, error) {
	if r.static == nil {
		return nil, errStaticOnly
	}
	type setter func(s *config.Snapshot)
	var sets []setter
	for _, key := range a.keys() {
		switch key {
		case "paused":
			v := a.boolean(key)
			sets = append(sets, func(s *config.Snapshot) { s.General.Paused = v })
		case "distribution_enabled":
			v := a.boolean(key)
			sets = append(sets, func(s *config.Snapshot) { s.ProtocolFee.DistributionEnabled = v })
		case "rewards_pool":
			v := a.address(key)
			sets = append(sets, func(s *config.Snapshot) { s.ProtocolFee.RewardsPool = v })
		case "entry_fee":
			v := a.amount(key)
			sets = append(sets, func(s *config.Snapshot) { s.Vault.EntryFee = v })
		case "exit_fee":
			v := a.amount(key)
			sets = append(sets, func(s *config.Snapshot) { s.Vault.ExitFee = v })
		case "protocol_fee":
			v := a.amount(key)
			sets = append(sets, func(s *config.Snapshot) { s.Vault.ProtocolFee = v })
		case "wallet_deposit_fee":
			v := a.amount(key)
			sets = append(sets, func(s *config.Snapshot) { s.Atom.WalletDepositFee = v })
		case "atom_deposit_fraction":
			v := a.amount(key)
			sets = append(sets, func(s *config.Snapshot) { s.Triple.AtomDepositFraction = v })
		case "min_deposit":
			v := a.amount(key)
			sets = append(sets, func(s *config.Snapshot) { s.General.MinDeposit = v })
		case "fee_threshold":
			v := a.amount(key)
			sets = append(sets, func(s *config.Snapshot) { s.General.FeeThreshold = v })
		default:
			return nil, fmt.Errorf("update_config: unknown parameter %q", key)
		}
	}
	if err := a.err(); err != nil {
		return nil, err
	}
	r.static.Update(func(s *config.Snapshot) {
		for _, set := range sets {
			set(s)
		}
	})
	return nil, nil
}

func (r *runner) sync(a args) (map[string]interface{}, error) {
	digest, err := r.engine.SyncConfig(r.ctx)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"digest": digest}, nil
}

// advanceTime moves the clock forward by whole epochs or by a duration.
func (r *runner) advanceTime(a args) (map[string]interface{}, error) {
	epochs := a.optInt("epochs", 0)
	span := a.optStr("duration", "")
	if err := a.err(); err != nil {
		return nil, err
	}
	d := time.Duration(epochs) * r.engine.EpochLength()
	if span != "" {
		parsed, err := time.ParseDuration(span)
		if err != nil {
			return nil, fmt.Errorf("duration: %w", err)
		}
		d += parsed
	}
	r.clock.Advance(d)
	return map[string]interface{}{"epoch": r.engine.CurrentEpoch()}, nil
}

func (r *runner) defaultCurve() curve.ID {
	return r.engine.Snapshot().Curves.Default
}

// args reads typed values from a step's argument map. The first failure is
// kept and reported by err, so a step can read every argument before
// checking once.
type args struct {
	raw   map[string]interface{}
	names *resolver
	first error
}

func (a *args) fail(key string, err error) {
	if a.first == nil {
		a.first = fmt.Errorf("arg %s: %w", key, err)
	}
}

func (a *args) err() error { return a.first }

func (a *args) keys() []string {
	keys := make([]string, 0, len(a.raw))
	for k := range a.raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (a *args) has(key string) bool {
	_, ok := a.raw[key]
	return ok
}

func (a *args) str(key string) string {
	v, ok := a.raw[key]
	if !ok {
		a.fail(key, fmt.Errorf("required"))
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case int, int64:
		return fmt.Sprint(val)
	}
	a.fail(key, fmt.Errorf("want string, got %T", v))
	return ""
}

func (a *args) optStr(key, fallback string) string {
	if !a.has(key) {
		return fallback
	}
	return a.str(key)
}

func (a *args) address(key string) term.Address {
	s := a.str(key)
	if a.first != nil {
		return term.Address{}
	}
	addr, err := a.names.address(s)
	if err != nil {
		a.fail(key, err)
	}
	return addr
}

func (a *args) optAddress(key string, fallback term.Address) term.Address {
	if !a.has(key) {
		return fallback
	}
	return a.address(key)
}

func (a *args) term(key string) term.ID {
	s := a.str(key)
	if a.first != nil {
		return term.ID{}
	}
	id, err := a.names.term(s)
	if err != nil {
		a.fail(key, err)
	}
	return id
}

func (a *args) amount(key string) math.Int {
	v, ok := a.raw[key]
	if !ok {
		a.fail(key, fmt.Errorf("required"))
		return math.ZeroInt()
	}
	amount, err := parseAmount(v)
	if err != nil {
		a.fail(key, err)
		return math.ZeroInt()
	}
	return amount
}

func (a *args) optAmount(key string) math.Int {
	if !a.has(key) {
		return math.ZeroInt()
	}
	return a.amount(key)
}

func (a *args) optInt(key string, fallback int64) int64 {
	v, ok := a.raw[key]
	if !ok {
		return fallback
	}
	switch val := v.(type) {
	case int:
		return int64(val)
	case int64:
		return val
	case string:
		n, err := strconv.ParseInt(val, 10, 64)
		if err == nil {
			return n
		}
	}
	a.fail(key, fmt.Errorf("want integer, got %v", v))
	return fallback
}

func (a *args) curve(key string, fallback curve.ID) curve.ID {
	n := a.optInt(key, int64(fallback))
	if n < 0 || n > int64(^uint32(0)) {
		a.fail(key, fmt.Errorf("curve id %d out of range", n))
		return fallback
	}
	return curve.ID(n)
}

func (a *args) boolean(key string) bool {
	v, ok := a.raw[key].(bool)
	if !ok {
		a.fail(key, fmt.Errorf("want bool, got %v", a.raw[key]))
	}
	return v
}

// parseAmount accepts a decimal string or a YAML integer.
func parseAmount(v interface{}) (math.Int, error) {
	switch val := v.(type) {
	case int:
		return math.NewInt(int64(val)), nil
	case int64:
		return math.NewInt(val), nil
	case uint64:
		return math.NewIntFromUint64(val), nil
	case string:
		amount, ok := math.NewIntFromString(val)
		if !ok {
			return math.Int{}, fmt.Errorf("invalid amount %q", val)
		}
		return amount, nil
	}
	return math.Int{}, fmt.Errorf("invalid amount %v (%T)", v, v)
}
