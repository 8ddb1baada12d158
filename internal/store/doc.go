// Package store provides SQLite-backed durable storage for the vault ledger.
//
// The store holds:
//   - Terms: registered atoms, triples and counter-triples
//   - Vaults: per (term, curve) totals and per-account share balances
//   - Approvals: delegate rights per (owner, delegate)
//   - Utilization: per-epoch cumulative flows, personal and aggregate
//   - Accruals: protocol fees per epoch and atom wallet fees per atom
//   - Tokens: balances and allowances of the staked asset
//   - Events: the append-only notification journal
//
// # Critical Patterns
//
// Atomic operations
//   - Every ledger operation runs inside one Update transaction
//   - A returned error rolls back every write made by the operation
//
// Exact amounts
//   - Amounts are stored as base-10 TEXT and parsed into math.Int
//   - Nothing is ever stored as REAL
//
// Deterministic reads
//   - Listing queries order by their key columns so results are stable
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
