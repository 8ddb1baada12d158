// Package config holds the locally cached copy of governance parameters.
//
// The engine never reads an Authority on the hot path. It reads a Snapshot,
// which is replaced wholesale by an explicit sync.
package config

import (
	"encoding/hex"
	"time"

	"cosmossdk.io/math"

	"github.com/roach88/multivault/internal/curve"
	"github.com/roach88/multivault/internal/fault"
	"github.com/roach88/multivault/internal/term"
)

// Curve kinds accepted in CurveSpec.Kind.
const (
	CurveLinear            = "linear"
	CurveOffsetProgressive = "offset_progressive"
)

// Snapshot is an immutable-until-synced view of every governed parameter.
type Snapshot struct {
	General     General
	Atom        AtomFees
	Triple      TripleFees
	Vault       VaultFees
	Curves      CurveConfig
	Wallet      WalletConfig
	Epochs      EpochConfig
	ProtocolFee ProtocolFeeConfig
}

// General holds system-wide parameters.
type General struct {
	Admin             term.Address
	ProtocolMultisig  term.Address
	FeeDenominator    math.Int
	MinDeposit        math.Int
	MinShare          math.Int
	AtomDataMaxLength int
	FeeThreshold      math.Int
	Paused            bool
}

// AtomFees holds atom creation and deposit fees.
type AtomFees struct {
	CreationProtocolFee math.Int // fixed amount
	WalletDepositFee    math.Int // rate over FeeDenominator
}

// TripleFees holds triple creation fees.
type TripleFees struct {
	CreationProtocolFee math.Int // fixed amount
	AtomDepositFraction math.Int // rate over FeeDenominator
}

// VaultFees holds the per-operation rates.
type VaultFees struct {
	EntryFee    math.Int
	ExitFee     math.Int
	ProtocolFee math.Int
}

// CurveSpec describes one registry entry.
type CurveSpec struct {
	Kind   string
	Name   string
	Slope  math.Int
	Offset math.Int
}

// CurveConfig is the bonding curve registry definition.
type CurveConfig struct {
	Default  curve.ID
	Registry []CurveSpec
}

// WalletConfig parameterizes atom wallet address derivation.
type WalletConfig struct {
	Factory            term.Address
	ImplementationHash [32]byte
	Warden             term.Address
}

// EpochConfig defines the utilization epoch grid.
type EpochConfig struct {
	Start  time.Time
	Length time.Duration
}

// ProtocolFeeConfig selects where swept protocol fees go.
type ProtocolFeeConfig struct {
	DistributionEnabled bool
	RewardsPool         term.Address
}

// Clone returns a deep copy of s.
func (s *Snapshot) Clone() *Snapshot {
	c := *s
	c.Curves.Registry = append([]CurveSpec(nil), s.Curves.Registry...)
	return &c
}

// ProtocolFeeDestination returns the account that receives swept fees.
func (s *Snapshot) ProtocolFeeDestination() term.Address {
	if s.ProtocolFee.DistributionEnabled {
		return s.ProtocolFee.RewardsPool
	}
	return s.General.ProtocolMultisig
}

// BuildRegistry instantiates the curve registry the snapshot describes.
func (s *Snapshot) BuildRegistry() (*curve.Registry, error) {
	curves := make([]curve.Curve, 0, len(s.Curves.Registry))
	for i, spec := range s.Curves.Registry {
		switch spec.Kind {
		case CurveLinear:
			curves = append(curves, curve.NewLinear(spec.Name))
		case CurveOffsetProgressive:
			curves = append(curves, curve.NewOffsetProgressive(spec.Name, spec.Slope, spec.Offset))
		default:
			return nil, invalid("curves.registry[%d]: unknown kind %q", i, spec.Kind)
		}
	}
	return curve.NewRegistry(s.Curves.Default, curves...)
}

func invalid(format string, args ...any) *fault.Error {
	return fault.Validation(fault.CodeInvalidConfig, format, args...)
}

func positive(v math.Int) bool {
	return !v.IsNil() && v.IsPositive()
}

func nonNegative(v math.Int) bool {
	return !v.IsNil() && !v.IsNegative()
}

// Validate checks that s is internally consistent. It mirrors the bounds of
// the CUE schema so that snapshots built in code obey the same rules.
func (s *Snapshot) Validate() error {
	g := s.General
	switch {
	case g.Admin.IsZero():
		return invalid("general.admin is required")
	case g.ProtocolMultisig.IsZero():
		return invalid("general.protocolMultisig is required")
	case !positive(g.FeeDenominator):
		return invalid("general.feeDenominator must be positive")
	case !positive(g.MinDeposit):
		return invalid("general.minDeposit must be positive")
	case !positive(g.MinShare):
		return invalid("general.minShare must be positive")
	case g.AtomDataMaxLength <= 0:
		return invalid("general.atomDataMaxLength must be positive")
	case !nonNegative(g.FeeThreshold):
		return invalid("general.feeThreshold must not be negative")
	case !nonNegative(s.Atom.CreationProtocolFee):
		return invalid("atom.creationProtocolFee must not be negative")
	case !nonNegative(s.Triple.CreationProtocolFee):
		return invalid("triple.creationProtocolFee must not be negative")
	}

	tenth := g.FeeDenominator.QuoRaw(10)
	fifth := g.FeeDenominator.QuoRaw(5)
	rates := []struct {
		name string
		v    math.Int
		max  math.Int
	}{
		{"atom.walletDepositFee", s.Atom.WalletDepositFee, tenth},
		{"triple.atomDepositFraction", s.Triple.AtomDepositFraction, fifth},
		{"vault.entryFee", s.Vault.EntryFee, tenth},
		{"vault.exitFee", s.Vault.ExitFee, tenth},
		{"vault.protocolFee", s.Vault.ProtocolFee, tenth},
	}
	for _, r := range rates {
		if !nonNegative(r.v) || r.v.GT(r.max) {
			return invalid("%s must be within [0, %s]", r.name, r.max)
		}
	}

	if len(s.Curves.Registry) == 0 {
		return invalid("curves.registry must not be empty")
	}
	if s.Curves.Default == 0 || int(s.Curves.Default) > len(s.Curves.Registry) {
		return invalid("curves.default %d out of range [1, %d]", s.Curves.Default, len(s.Curves.Registry))
	}
	for i, spec := range s.Curves.Registry {
		if spec.Name == "" {
			return invalid("curves.registry[%d].name is required", i)
		}
		if spec.Kind == CurveOffsetProgressive {
			if !positive(spec.Slope) {
				return invalid("curves.registry[%d].slope must be positive", i)
			}
			if !nonNegative(spec.Offset) {
				return invalid("curves.registry[%d].offset must not be negative", i)
			}
		}
	}

	if s.Wallet.Factory.IsZero() {
		return invalid("wallet.factory is required")
	}
	if s.Epochs.Length <= 0 {
		return invalid("epochs.length must be positive")
	}
	if s.ProtocolFee.DistributionEnabled && s.ProtocolFee.RewardsPool.IsZero() {
		return invalid("protocolFee.rewardsPool is required when distribution is enabled")
	}
	return nil
}

// Canonical renders s as a map of strings, integers and booleans suitable for
// canonical JSON.
func (s *Snapshot) Canonical() map[string]any {
	curves := make([]any, len(s.Curves.Registry))
	for i, c := range s.Curves.Registry {
		entry := map[string]any{"kind": c.Kind, "name": c.Name}
		if c.Kind == CurveOffsetProgressive {
			entry["slope"] = c.Slope.String()
			entry["offset"] = c.Offset.String()
		}
		curves[i] = entry
	}
	return map[string]any{
		"general": map[string]any{
			"admin":             s.General.Admin.Hex(),
			"protocolMultisig":  s.General.ProtocolMultisig.Hex(),
			"feeDenominator":    s.General.FeeDenominator.String(),
			"minDeposit":        s.General.MinDeposit.String(),
			"minShare":          s.General.MinShare.String(),
			"atomDataMaxLength": s.General.AtomDataMaxLength,
			"feeThreshold":      s.General.FeeThreshold.String(),
			"paused":            s.General.Paused,
		},
		"atom": map[string]any{
			"creationProtocolFee": s.Atom.CreationProtocolFee.String(),
			"walletDepositFee":    s.Atom.WalletDepositFee.String(),
		},
		"triple": map[string]any{
			"creationProtocolFee": s.Triple.CreationProtocolFee.String(),
			"atomDepositFraction": s.Triple.AtomDepositFraction.String(),
		},
		"vault": map[string]any{
			"entryFee":    s.Vault.EntryFee.String(),
			"exitFee":     s.Vault.ExitFee.String(),
			"protocolFee": s.Vault.ProtocolFee.String(),
		},
		"curves": map[string]any{
			"default":  int64(s.Curves.Default),
			"registry": curves,
		},
		"wallet": map[string]any{
			"factory":            s.Wallet.Factory.Hex(),
			"implementationHash": "0x" + hex.EncodeToString(s.Wallet.ImplementationHash[:]),
			"warden":             s.Wallet.Warden.Hex(),
		},
		"epochs": map[string]any{
			"start":  s.Epochs.Start.Unix(),
			"length": int64(s.Epochs.Length / time.Second),
		},
		"protocolFee": map[string]any{
			"distributionEnabled": s.ProtocolFee.DistributionEnabled,
			"rewardsPool":         s.ProtocolFee.RewardsPool.Hex(),
		},
	}
}
