// Package events defines the notifications the engine emits.
//
// Every event is journaled in the store inside the transaction of the
// operation that produced it and handed to a Sink only after that
// transaction commits. A rolled-back operation publishes nothing.
//
// Payloads are RFC 8785 canonical JSON: keys sorted by UTF-16 code units,
// NFC-normalized strings, no floats, no nulls. Amounts are decimal strings.
// The digest of an event is
//
//	SHA256("multivault/event/v1" || 0x00 || canonical({"kind","attrs"}))
//
// so indexers can verify that two copies of a notification agree.
package events
