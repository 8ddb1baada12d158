package store

import (
	"github.com/cockroachdb/errors"
)

// EventRecord is one journaled notification.
type EventRecord struct {
	Seq     int64
	OpID    string
	Kind    string
	Digest  string
	Payload []byte // canonical JSON
}

// AppendEvent journals a notification and returns its sequence number.
func (t *Tx) AppendEvent(opID, kind, digest string, payload []byte) (int64, error) {
	res, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO events (op_id, kind, digest, payload) VALUES (?, ?, ?, ?)
	`, opID, kind, digest, string(payload))
	if err != nil {
		return 0, errors.Wrapf(err, "append event %s", kind)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "event sequence")
	}
	return seq, nil
}

// ListEvents returns up to limit events with seq > after, in sequence order.
// A non-positive limit returns every remaining event.
func (t *Tx) ListEvents(after int64, limit int) ([]EventRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := t.query(`
		SELECT seq, op_id, kind, digest, payload FROM events
		WHERE seq > ? ORDER BY seq ASC LIMIT ?
	`, after, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query events")
	}
	defer rows.Close()

	records := []EventRecord{}
	for rows.Next() {
		var (
			rec     EventRecord
			payload string
		)
		if err := rows.Scan(&rec.Seq, &rec.OpID, &rec.Kind, &rec.Digest, &payload); err != nil {
			return nil, errors.Wrap(err, "scan event")
		}
		rec.Payload = []byte(payload)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate events")
	}
	return records, nil
}

// ListOpEvents returns the events journaled by one operation.
func (t *Tx) ListOpEvents(opID string) ([]EventRecord, error) {
	rows, err := t.query(`
		SELECT seq, op_id, kind, digest, payload FROM events
		WHERE op_id = ? ORDER BY seq ASC
	`, opID)
	if err != nil {
		return nil, errors.Wrap(err, "query op events")
	}
	defer rows.Close()

	records := []EventRecord{}
	for rows.Next() {
		var (
			rec     EventRecord
			payload string
		)
		if err := rows.Scan(&rec.Seq, &rec.OpID, &rec.Kind, &rec.Digest, &payload); err != nil {
			return nil, errors.Wrap(err, "scan event")
		}
		rec.Payload = []byte(payload)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate op events")
	}
	return records, nil
}
