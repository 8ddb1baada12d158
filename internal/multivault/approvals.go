package multivault

import (
	"context"

	"github.com/roach88/multivault/internal/approval"
	"github.com/roach88/multivault/internal/events"
	"github.com/roach88/multivault/internal/term"
)

// SetApproval records the rights owner grants delegate. approval.None removes
// the record.
func (e *Engine) SetApproval(ctx context.Context, owner, delegate term.Address, rights approval.Rights) error {
	return e.run(ctx, "set_approval", func(o *op) error {
		if err := o.approvals.Set(owner, delegate, rights); err != nil {
			return err
		}
		o.log.Debugw("approval updated", "owner", owner, "delegate", delegate, "rights", rights)
		return o.journal.Emit(events.ApprovalTypeUpdated(owner, delegate, rights.String()))
	})
}
