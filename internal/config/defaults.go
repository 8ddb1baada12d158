package config

import (
	"crypto/sha256"
	"time"

	"cosmossdk.io/math"

	"github.com/roach88/multivault/internal/curve"
	"github.com/roach88/multivault/internal/term"
)

// Default parameter values, in base units of an 18-decimal asset.
var (
	DefaultFeeDenominator      = math.NewInt(10_000)
	DefaultMinDeposit          = math.NewInt(1_000_000_000_000_000) // 0.001
	DefaultMinShare            = math.NewInt(1_000_000)
	DefaultFeeThreshold        = curve.WAD
	DefaultAtomCreationFee     = math.NewInt(100_000_000_000_000) // 0.0001
	DefaultTripleCreationFee   = math.NewInt(100_000_000_000_000)
	DefaultAtomDataMaxLength   = 256
	DefaultEpochLength         = 7 * 24 * time.Hour
	DefaultProgressiveSlope    = curve.WAD.QuoRaw(1000)
	DefaultProgressiveOffset   = curve.WAD
	DefaultProtocolMultisig    = term.AddressFromLabel("protocol-multisig")
	DefaultAdmin               = term.AddressFromLabel("admin")
	DefaultWalletFactory       = term.AddressFromLabel("atom-wallet-factory")
	DefaultWalletWarden        = term.AddressFromLabel("atom-warden")
	DefaultEpochStart          = time.Unix(1_700_000_000, 0).UTC()
	defaultImplementationLabel = "atom-wallet-implementation"
)

// Default returns a valid snapshot with a linear default curve and an
// offset-progressive second curve.
func Default() *Snapshot {
	impl := sha256.Sum256([]byte(defaultImplementationLabel))

	return &Snapshot{
		General: General{
			Admin:             DefaultAdmin,
			ProtocolMultisig:  DefaultProtocolMultisig,
			FeeDenominator:    DefaultFeeDenominator,
			MinDeposit:        DefaultMinDeposit,
			MinShare:          DefaultMinShare,
			AtomDataMaxLength: DefaultAtomDataMaxLength,
			FeeThreshold:      DefaultFeeThreshold,
		},
		Atom: AtomFees{
			CreationProtocolFee: DefaultAtomCreationFee,
			WalletDepositFee:    math.NewInt(50),
		},
		Triple: TripleFees{
			CreationProtocolFee: DefaultTripleCreationFee,
			AtomDepositFraction: math.NewInt(300),
		},
		Vault: VaultFees{
			EntryFee:    math.NewInt(50),
			ExitFee:     math.NewInt(75),
			ProtocolFee: math.NewInt(100),
		},
		Curves: CurveConfig{
			Default: 1,
			Registry: []CurveSpec{
				{Kind: CurveLinear, Name: "linear"},
				{Kind: CurveOffsetProgressive, Name: "offset-progressive", Slope: DefaultProgressiveSlope, Offset: DefaultProgressiveOffset},
			},
		},
		Wallet: WalletConfig{
			Factory:            DefaultWalletFactory,
			ImplementationHash: impl,
			Warden:             DefaultWalletWarden,
		},
		Epochs: EpochConfig{
			Start:  DefaultEpochStart,
			Length: DefaultEpochLength,
		},
	}
}
