package multivault

import (
	"context"

	"cosmossdk.io/math"

	"github.com/roach88/multivault/internal/events"
	"github.com/roach88/multivault/internal/fault"
	"github.com/roach88/multivault/internal/term"
)

// SweepResult reports a completed sweep.
type SweepResult struct {
	Epoch       int64
	Destination term.Address
	Amount      math.Int
}

// SweepProtocolFees moves a closed epoch's accrual out of custody. Anyone may
// call it. A zero accrual still marks the epoch swept.
func (e *Engine) SweepProtocolFees(ctx context.Context, epoch int64) (SweepResult, error) {
	var res SweepResult
	err := e.run(ctx, "sweep_protocol_fees", func(o *op) error {
		if err := o.requireActive(); err != nil {
			return err
		}
		if epoch < 0 || epoch >= o.epoch {
			return fault.State(fault.CodeEpochNotClosed, "epoch %d is not closed (current %d)", epoch, o.epoch).
				With("epoch", epoch)
		}
		rec, err := o.tx.GetProtocolFees(epoch)
		if err != nil {
			return err
		}
		if rec.Swept {
			return fault.State(fault.CodeAlreadySwept, "epoch %d was already swept", epoch).
				With("epoch", epoch).
				With("destination", rec.Destination.Hex())
		}

		destination := o.snap.ProtocolFeeDestination()
		if destination.IsZero() {
			return fault.Validation(fault.CodeZeroAddress, "protocol fee destination is not configured")
		}
		if err := o.tokens.Transfer(term.CustodyAddress, destination, rec.Accrued); err != nil {
			return err
		}
		rec.Swept = true
		rec.Destination = destination
		if err := o.tx.PutProtocolFees(rec); err != nil {
			return err
		}

		o.log.Debugw("protocol fees swept", "epoch", epoch, "destination", destination, "amount", rec.Accrued)
		res = SweepResult{Epoch: epoch, Destination: destination, Amount: rec.Accrued}
		return o.journal.Emit(events.ProtocolFeeTransferred(epoch, destination, rec.Accrued))
	})
	return res, err
}
