package events

import (
	"github.com/cockroachdb/errors"

	"github.com/roach88/multivault/internal/store"
)

// Journal appends one operation's events to the store as they are emitted.
type Journal struct {
	tx      *store.Tx
	opID    string
	emitted []Event
}

// NewJournal returns a journal writing under opID into tx.
func NewJournal(tx *store.Tx, opID string) *Journal {
	return &Journal{tx: tx, opID: opID}
}

// Emit stamps e with the op id, digest and sequence number and journals it.
func (j *Journal) Emit(e Event) error {
	payload, err := e.Payload()
	if err != nil {
		return errors.Wrapf(err, "encode %s", e.Kind)
	}
	digest, err := e.ComputeDigest()
	if err != nil {
		return err
	}
	seq, err := j.tx.AppendEvent(j.opID, string(e.Kind), digest, payload)
	if err != nil {
		return err
	}
	e.OpID = j.opID
	e.Digest = digest
	e.Seq = seq
	j.emitted = append(j.emitted, e)
	return nil
}

// Events returns what was emitted, in order.
func (j *Journal) Events() []Event {
	return j.emitted
}
