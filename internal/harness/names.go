package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/multivault/internal/multivault"
	"github.com/roach88/multivault/internal/term"
)

// resolver maps the symbolic names used in scenario files to ids and
// addresses.
//
// Terms are named when created: an atom by its name arg or its data, a
// triple by its name arg. "~name" is the counter-triple of triple name and
// "atom:DATA" is the id DATA would get, created or not. Any other string is
// an account label, except the reserved names zero, burn, custody, multisig,
// rewards and wallet:ATOM.
type resolver struct {
	engine *multivault.Engine
	terms  map[string]term.ID
}

func newResolver(eng *multivault.Engine) *resolver {
	return &resolver{engine: eng, terms: make(map[string]term.ID)}
}

func (n *resolver) bind(name string, id term.ID) {
	n.terms[name] = id
}

func (n *resolver) term(s string) (term.ID, error) {
	switch {
	case strings.HasPrefix(s, "0x") && len(s) == 2+2*term.IDLength:
		return term.ParseID(s)
	case strings.HasPrefix(s, "atom:"):
		return term.AtomID([]byte(strings.TrimPrefix(s, "atom:"))), nil
	case strings.HasPrefix(s, "~"):
		id, err := n.term(strings.TrimPrefix(s, "~"))
		if err != nil {
			return term.ID{}, err
		}
		return term.Counterpart(id)
	}
	id, ok := n.terms[s]
	if !ok {
		return term.ID{}, fmt.Errorf("unknown term %q", s)
	}
	return id, nil
}

func (n *resolver) address(s string) (term.Address, error) {
	switch {
	case strings.HasPrefix(s, "0x"):
		return term.ParseAddress(s)
	case strings.HasPrefix(s, "wallet:"):
		atom, err := n.term(strings.TrimPrefix(s, "wallet:"))
		if err != nil {
			return term.Address{}, err
		}
		return n.engine.ComputeAtomWalletAddress(atom), nil
	}
	switch s {
	case "":
		return term.Address{}, fmt.Errorf("empty address")
	case "zero":
		return term.ZeroAddress, nil
	case "burn":
		return term.BurnAddress, nil
	case "custody":
		return term.CustodyAddress, nil
	case "multisig":
		return n.engine.Snapshot().General.ProtocolMultisig, nil
	case "rewards":
		return n.engine.Snapshot().ProtocolFee.RewardsPool, nil
	}
	return term.AddressFromLabel(s), nil
}

// Attribute and column names holding term ids or addresses.
var (
	termKeys = map[string]bool{
		"term": true, "term_id": true, "termId": true, "id": true, "atom": true,
		"subject": true, "predicate": true, "object": true, "counterpart": true, "counter": true,
		"subjectId": true, "predicateId": true, "objectId": true, "counterTripleId": true,
	}
	addressKeys = map[string]bool{
		"account": true, "owner": true, "delegate": true, "spender": true,
		"destination": true, "creator": true, "sender": true, "receiver": true,
		"user": true, "atomWallet": true, "wallet": true,
	}
)

// canonical rewrites a symbolic value to the form the ledger stores under
// key. Values that do not resolve are returned unchanged.
func (n *resolver) canonical(key string, v interface{}) interface{} {
	s, ok := v.(string)
	if !ok {
		return v
	}
	switch {
	case termKeys[key]:
		if id, err := n.term(s); err == nil {
			return id.Hex()
		}
	case addressKeys[key]:
		if a, err := n.address(s); err == nil {
			return a.Hex()
		}
	}
	return s
}

// matches reports whether actual equals expected once symbols are resolved.
// Numbers compare by decimal text, so 9700 matches the stored "9700".
func (n *resolver) matches(key string, expected, actual interface{}) bool {
	return valueString(n.canonical(key, expected)) == valueString(actual)
}

func valueString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "<nil>"
	case bool:
		if val {
			return "1"
		}
		return "0"
	case []byte:
		return string(val)
	default:
		return fmt.Sprint(val)
	}
}
