package multivault

import (
	"context"

	"cosmossdk.io/math"

	"github.com/roach88/multivault/internal/term"
)

// MintAssets credits account with freshly issued asset. It stands in for the
// external token's issuance and is used by tests and the harness.
func (e *Engine) MintAssets(ctx context.Context, account term.Address, amount math.Int) error {
	return e.run(ctx, "mint_assets", func(o *op) error {
		return o.tokens.Mint(account, amount)
	})
}

// ApproveAssets sets how much the engine may pull from owner.
func (e *Engine) ApproveAssets(ctx context.Context, owner term.Address, amount math.Int) error {
	return e.run(ctx, "approve_assets", func(o *op) error {
		return o.tokens.Approve(owner, term.CustodyAddress, amount)
	})
}
