package events

import (
	"bytes"
	"encoding/hex"
	"encoding/json"

	"cosmossdk.io/math"
	"github.com/cockroachdb/errors"

	"github.com/roach88/multivault/internal/curve"
	"github.com/roach88/multivault/internal/store"
	"github.com/roach88/multivault/internal/term"
)

// Kind names a notification.
type Kind string

const (
	KindAtomCreated                   Kind = "AtomCreated"
	KindTripleCreated                 Kind = "TripleCreated"
	KindDeposited                     Kind = "Deposited"
	KindRedeemed                      Kind = "Redeemed"
	KindSharePriceChanged             Kind = "SharePriceChanged"
	KindPersonalUtilizationAdded      Kind = "PersonalUtilizationAdded"
	KindPersonalUtilizationRemoved    Kind = "PersonalUtilizationRemoved"
	KindTotalUtilizationAdded         Kind = "TotalUtilizationAdded"
	KindTotalUtilizationRemoved       Kind = "TotalUtilizationRemoved"
	KindProtocolFeeAccrued            Kind = "ProtocolFeeAccrued"
	KindProtocolFeeTransferred        Kind = "ProtocolFeeTransferred"
	KindAtomWalletDepositFeeCollected Kind = "AtomWalletDepositFeeCollected"
	KindAtomWalletDepositFeesClaimed  Kind = "AtomWalletDepositFeesClaimed"
	KindApprovalTypeUpdated           Kind = "ApprovalTypeUpdated"
	KindConfigSynced                  Kind = "ConfigSynced"
)

// Event is one notification. Seq, OpID and Digest are assigned when the
// event is journaled.
type Event struct {
	Seq    int64
	OpID   string
	Kind   Kind
	Attrs  map[string]any
	Digest string
}

// Attr returns the string attribute key, or "" if absent.
func (e Event) Attr(key string) string {
	s, _ := e.Attrs[key].(string)
	return s
}

// Payload returns the canonical JSON of the event's attributes.
func (e Event) Payload() ([]byte, error) {
	return MarshalCanonical(e.Attrs)
}

// ComputeDigest returns the content digest of the event's kind and
// attributes.
func (e Event) ComputeDigest() (string, error) {
	data, err := MarshalCanonical(map[string]any{
		"kind":  string(e.Kind),
		"attrs": e.Attrs,
	})
	if err != nil {
		return "", errors.Wrapf(err, "digest %s", e.Kind)
	}
	return hashWithDomain(DomainEvent, data), nil
}

// FromRecord rebuilds an event from its journal row. Integer attributes come
// back as int64.
func FromRecord(rec store.EventRecord) (Event, error) {
	dec := json.NewDecoder(bytes.NewReader(rec.Payload))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return Event{}, errors.Wrapf(err, "decode event %d", rec.Seq)
	}
	attrs, err := fromJSON(raw)
	if err != nil {
		return Event{}, errors.Wrapf(err, "decode event %d", rec.Seq)
	}
	return Event{
		Seq:    rec.Seq,
		OpID:   rec.OpID,
		Kind:   Kind(rec.Kind),
		Attrs:  attrs.(map[string]any),
		Digest: rec.Digest,
	}, nil
}

func fromJSON(v any) (any, error) {
	switch val := v.(type) {
	case json.Number:
		return val.Int64()
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			conv, err := fromJSON(elem)
			if err != nil {
				return nil, err
			}
			out[i] = conv
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			conv, err := fromJSON(elem)
			if err != nil {
				return nil, err
			}
			out[k] = conv
		}
		return out, nil
	default:
		return val, nil
	}
}

func newEvent(kind Kind, attrs map[string]any) Event {
	return Event{Kind: kind, Attrs: attrs}
}

// AtomCreated reports a new atom and its deterministic wallet.
func AtomCreated(creator term.Address, id term.ID, data []byte, wallet term.Address) Event {
	return newEvent(KindAtomCreated, map[string]any{
		"creator":    creator.Hex(),
		"termId":     id.Hex(),
		"atomData":   "0x" + hex.EncodeToString(data),
		"atomWallet": wallet.Hex(),
	})
}

// TripleCreated reports a new triple. The counter-triple is created with it.
func TripleCreated(creator term.Address, id, subject, predicate, object, counter term.ID) Event {
	return newEvent(KindTripleCreated, map[string]any{
		"creator":         creator.Hex(),
		"termId":          id.Hex(),
		"subjectId":       subject.Hex(),
		"predicateId":     predicate.Hex(),
		"objectId":        object.Hex(),
		"counterTripleId": counter.Hex(),
	})
}

// Deposit describes a completed deposit.
type Deposit struct {
	Sender          term.Address
	Receiver        term.Address
	Term            term.ID
	Curve           curve.ID
	Assets          math.Int
	AssetsAfterFees math.Int
	Shares          math.Int
	TotalShares     math.Int // receiver's balance after the deposit
	VaultType       term.Kind
}

// Deposited reports d.
func Deposited(d Deposit) Event {
	return newEvent(KindDeposited, map[string]any{
		"sender":          d.Sender.Hex(),
		"receiver":        d.Receiver.Hex(),
		"termId":          d.Term.Hex(),
		"curveId":         int64(d.Curve),
		"assets":          d.Assets.String(),
		"assetsAfterFees": d.AssetsAfterFees.String(),
		"shares":          d.Shares.String(),
		"totalShares":     d.TotalShares.String(),
		"vaultType":       d.VaultType.String(),
	})
}

// Redemption describes a completed redemption.
type Redemption struct {
	Sender      term.Address
	Receiver    term.Address
	Term        term.ID
	Curve       curve.ID
	Shares      math.Int
	TotalShares math.Int // owner's balance after the redemption
	Assets      math.Int // paid to the receiver
	Fees        math.Int // exit plus protocol fee
	VaultType   term.Kind
}

// Redeemed reports r.
func Redeemed(r Redemption) Event {
	return newEvent(KindRedeemed, map[string]any{
		"sender":      r.Sender.Hex(),
		"receiver":    r.Receiver.Hex(),
		"termId":      r.Term.Hex(),
		"curveId":     int64(r.Curve),
		"shares":      r.Shares.String(),
		"totalShares": r.TotalShares.String(),
		"assets":      r.Assets.String(),
		"fees":        r.Fees.String(),
		"vaultType":   r.VaultType.String(),
	})
}

// SharePriceChanged reports a vault's state after any mutation.
func SharePriceChanged(id term.ID, curveID curve.ID, price, totalAssets, totalShares math.Int, kind term.Kind) Event {
	return newEvent(KindSharePriceChanged, map[string]any{
		"termId":      id.Hex(),
		"curveId":     int64(curveID),
		"sharePrice":  price.String(),
		"totalAssets": totalAssets.String(),
		"totalShares": totalShares.String(),
		"vaultType":   kind.String(),
	})
}

// PersonalUtilization reports a change to account's cell in epoch. The kind
// follows the sign of delta.
func PersonalUtilization(account term.Address, epoch int64, delta, value math.Int) Event {
	kind := KindPersonalUtilizationAdded
	if delta.IsNegative() {
		kind = KindPersonalUtilizationRemoved
	}
	return newEvent(kind, map[string]any{
		"user":                account.Hex(),
		"epoch":               epoch,
		"value":               delta.Abs().String(),
		"personalUtilization": value.String(),
	})
}

// TotalUtilization reports a change to the aggregate cell in epoch.
func TotalUtilization(epoch int64, delta, value math.Int) Event {
	kind := KindTotalUtilizationAdded
	if delta.IsNegative() {
		kind = KindTotalUtilizationRemoved
	}
	return newEvent(kind, map[string]any{
		"epoch":            epoch,
		"value":            delta.Abs().String(),
		"totalUtilization": value.String(),
	})
}

// ProtocolFeeAccrued reports a protocol fee charge.
func ProtocolFeeAccrued(epoch int64, sender term.Address, amount math.Int) Event {
	return newEvent(KindProtocolFeeAccrued, map[string]any{
		"epoch":  epoch,
		"sender": sender.Hex(),
		"amount": amount.String(),
	})
}

// ProtocolFeeTransferred reports a sweep of a closed epoch.
func ProtocolFeeTransferred(epoch int64, destination term.Address, amount math.Int) Event {
	return newEvent(KindProtocolFeeTransferred, map[string]any{
		"epoch":       epoch,
		"destination": destination.Hex(),
		"amount":      amount.String(),
	})
}

// AtomWalletDepositFeeCollected reports a wallet fee credited to atom.
func AtomWalletDepositFeeCollected(atom term.ID, sender term.Address, amount math.Int) Event {
	return newEvent(KindAtomWalletDepositFeeCollected, map[string]any{
		"termId": atom.Hex(),
		"sender": sender.Hex(),
		"amount": amount.String(),
	})
}

// AtomWalletDepositFeesClaimed reports a wallet draining its accrual.
func AtomWalletDepositFeesClaimed(atom term.ID, wallet term.Address, amount math.Int) Event {
	return newEvent(KindAtomWalletDepositFeesClaimed, map[string]any{
		"termId":     atom.Hex(),
		"atomWallet": wallet.Hex(),
		"amount":     amount.String(),
	})
}

// ApprovalTypeUpdated reports a changed delegation.
func ApprovalTypeUpdated(owner, delegate term.Address, rights string) Event {
	return newEvent(KindApprovalTypeUpdated, map[string]any{
		"sender":       owner.Hex(),
		"receiver":     delegate.Hex(),
		"approvalType": rights,
	})
}

// ConfigSynced reports a configuration refresh.
func ConfigSynced(digest string, paused bool) Event {
	return newEvent(KindConfigSynced, map[string]any{
		"digest": digest,
		"paused": paused,
	})
}
