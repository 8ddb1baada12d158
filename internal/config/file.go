package config

import (
	"context"
	_ "embed"
	"encoding/hex"
	"os"
	"strings"
	"time"

	"cosmossdk.io/math"
	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/cockroachdb/errors"

	"github.com/roach88/multivault/internal/curve"
	"github.com/roach88/multivault/internal/term"
)

//go:embed schema.cue
var schemaCUE string

// document mirrors #Config for decoding. Amounts are decimal strings because
// they exceed int64.
type document struct {
	General struct {
		Admin             string `json:"admin"`
		ProtocolMultisig  string `json:"protocolMultisig"`
		FeeDenominator    int64  `json:"feeDenominator"`
		MinDeposit        string `json:"minDeposit"`
		MinShare          string `json:"minShare"`
		AtomDataMaxLength int    `json:"atomDataMaxLength"`
		FeeThreshold      string `json:"feeThreshold"`
		Paused            bool   `json:"paused"`
	} `json:"general"`
	Atom struct {
		CreationProtocolFee string `json:"creationProtocolFee"`
		WalletDepositFee    int64  `json:"walletDepositFee"`
	} `json:"atom"`
	Triple struct {
		CreationProtocolFee string `json:"creationProtocolFee"`
		AtomDepositFraction int64  `json:"atomDepositFraction"`
	} `json:"triple"`
	Vault struct {
		EntryFee    int64 `json:"entryFee"`
		ExitFee     int64 `json:"exitFee"`
		ProtocolFee int64 `json:"protocolFee"`
	} `json:"vault"`
	Curves struct {
		Default  uint32 `json:"default"`
		Registry []struct {
			Kind   string `json:"kind"`
			Name   string `json:"name"`
			Slope  string `json:"slope"`
			Offset string `json:"offset"`
		} `json:"registry"`
	} `json:"curves"`
	Wallet struct {
		Factory            string `json:"factory"`
		ImplementationHash string `json:"implementationHash"`
		Warden             string `json:"warden"`
	} `json:"wallet"`
	Epochs struct {
		Start  int64 `json:"start"`
		Length int64 `json:"length"`
	} `json:"epochs"`
	ProtocolFee struct {
		DistributionEnabled bool   `json:"distributionEnabled"`
		RewardsPool         string `json:"rewardsPool"`
	} `json:"protocolFee"`
}

// FileAuthority reads governance parameters from a CUE file. The file is
// re-read on every Fetch, so edits take effect at the next sync.
type FileAuthority struct {
	Path string
}

// NewFileAuthority returns an authority backed by the CUE file at path.
func NewFileAuthority(path string) *FileAuthority {
	return &FileAuthority{Path: path}
}

// Fetch implements Authority.
func (a *FileAuthority) Fetch(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(a.Path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	return Parse(data, a.Path)
}

// Parse compiles CUE source against the embedded schema and converts the
// result into a validated Snapshot. filename is used in error positions.
func Parse(src []byte, filename string) (*Snapshot, error) {
	cctx := cuecontext.New()
	schema := cctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, errors.Wrap(err, "compile config schema")
	}

	file := cctx.CompileBytes(src, cue.Filename(filename))
	if err := file.Err(); err != nil {
		return nil, invalid("%s", formatCUEError(err))
	}

	v := schema.LookupPath(cue.ParsePath("#Config")).Unify(file)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, invalid("%s", formatCUEError(err))
	}

	var doc document
	if err := v.Decode(&doc); err != nil {
		return nil, invalid("decode config: %s", formatCUEError(err))
	}

	snap, err := doc.snapshot()
	if err != nil {
		return nil, err
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return snap, nil
}

// formatCUEError flattens a CUE error list into one line per error with
// positions.
func formatCUEError(err error) string {
	var lines []string
	for _, e := range cueerrors.Errors(err) {
		msg := e.Error()
		if pos := e.Position(); pos.IsValid() {
			msg = pos.String() + ": " + msg
		}
		lines = append(lines, msg)
	}
	if len(lines) == 0 {
		return err.Error()
	}
	return strings.Join(lines, "; ")
}

func (d *document) snapshot() (*Snapshot, error) {
	var s Snapshot
	p := &parser{}

	s.General.Admin = p.address("general.admin", d.General.Admin)
	s.General.ProtocolMultisig = p.address("general.protocolMultisig", d.General.ProtocolMultisig)
	s.General.FeeDenominator = math.NewInt(d.General.FeeDenominator)
	s.General.MinDeposit = p.amount("general.minDeposit", d.General.MinDeposit)
	s.General.MinShare = p.amount("general.minShare", d.General.MinShare)
	s.General.AtomDataMaxLength = d.General.AtomDataMaxLength
	s.General.FeeThreshold = p.amount("general.feeThreshold", d.General.FeeThreshold)
	s.General.Paused = d.General.Paused

	s.Atom.CreationProtocolFee = p.amount("atom.creationProtocolFee", d.Atom.CreationProtocolFee)
	s.Atom.WalletDepositFee = math.NewInt(d.Atom.WalletDepositFee)
	s.Triple.CreationProtocolFee = p.amount("triple.creationProtocolFee", d.Triple.CreationProtocolFee)
	s.Triple.AtomDepositFraction = math.NewInt(d.Triple.AtomDepositFraction)

	s.Vault.EntryFee = math.NewInt(d.Vault.EntryFee)
	s.Vault.ExitFee = math.NewInt(d.Vault.ExitFee)
	s.Vault.ProtocolFee = math.NewInt(d.Vault.ProtocolFee)

	s.Curves.Default = curve.ID(d.Curves.Default)
	for _, c := range d.Curves.Registry {
		spec := CurveSpec{Kind: c.Kind, Name: c.Name, Slope: math.ZeroInt(), Offset: math.ZeroInt()}
		if c.Kind == CurveOffsetProgressive {
			spec.Slope = p.amount("curves.registry.slope", c.Slope)
			spec.Offset = p.amount("curves.registry.offset", c.Offset)
		}
		s.Curves.Registry = append(s.Curves.Registry, spec)
	}

	s.Wallet.Factory = p.address("wallet.factory", d.Wallet.Factory)
	s.Wallet.Warden = p.address("wallet.warden", d.Wallet.Warden)
	s.Wallet.ImplementationHash = p.hash("wallet.implementationHash", d.Wallet.ImplementationHash)

	s.Epochs.Start = time.Unix(d.Epochs.Start, 0).UTC()
	s.Epochs.Length = time.Duration(d.Epochs.Length) * time.Second

	s.ProtocolFee.DistributionEnabled = d.ProtocolFee.DistributionEnabled
	s.ProtocolFee.RewardsPool = p.address("protocolFee.rewardsPool", d.ProtocolFee.RewardsPool)

	if p.err != nil {
		return nil, p.err
	}
	return &s, nil
}

// parser records the first conversion failure so snapshot() reads linearly.
type parser struct {
	err error
}

func (p *parser) fail(field string, err error) {
	if p.err == nil {
		p.err = invalid("%s: %v", field, err)
	}
}

func (p *parser) address(field, s string) term.Address {
	a, err := term.ParseAddress(s)
	if err != nil {
		p.fail(field, err)
	}
	return a
}

func (p *parser) amount(field, s string) math.Int {
	v, ok := math.NewIntFromString(s)
	if !ok {
		p.fail(field, errors.Newf("invalid amount %q", s))
		return math.ZeroInt()
	}
	return v
}

func (p *parser) hash(field, s string) [32]byte {
	var h [32]byte
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil || len(raw) != len(h) {
		p.fail(field, errors.Newf("invalid hash %q", s))
		return h
	}
	copy(h[:], raw)
	return h
}
