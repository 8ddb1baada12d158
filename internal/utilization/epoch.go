// Package utilization tracks signed per-epoch deposit-minus-redeem flow for
// each account and for the protocol as a whole.
//
// Cells are cumulative. The first write an account makes in a new epoch seeds
// that epoch's cell with the value of the account's last active epoch before
// applying the delta. Epochs nobody wrote read as zero; readers that want the
// carried value read LastActiveEpoch.
package utilization

import "time"

// Epochs maps wall-clock time onto the epoch grid.
type Epochs struct {
	Start  time.Time
	Length time.Duration
}

// At returns floor((now-start)/length), or 0 before start.
func (e Epochs) At(now time.Time) int64 {
	if e.Length <= 0 || now.Before(e.Start) {
		return 0
	}
	return int64(now.Sub(e.Start) / e.Length)
}

// Previous returns the epoch before At(now), floored at 0.
func (e Epochs) Previous(now time.Time) int64 {
	if cur := e.At(now); cur > 0 {
		return cur - 1
	}
	return 0
}

// Bounds returns the half-open wall-clock interval of epoch.
func (e Epochs) Bounds(epoch int64) (start, end time.Time) {
	start = e.Start.Add(time.Duration(epoch) * e.Length)
	return start, start.Add(e.Length)
}
