// Package multivault is the value-accounting engine.
//
// An Engine owns a store and a cached configuration snapshot. Every
// externally triggered operation runs under one mutex inside one store
// transaction: either every balance change, accrual, utilization write and
// notification lands, or none does. Notifications are published to the
// configured events.Sink only after the transaction commits.
//
// Terms are atoms, triples and counter-triples. Each (term, curve) pair has
// an independent vault priced by a bonding curve from the registry. The first
// deposit into a vault mints minShare ghost shares to term.BurnAddress at the
// curve's genesis price, so a live vault never has zero shares.
//
// Assets move through the store-backed token in package asset. Deposits pull
// the gross value from the caller's allowance to term.CustodyAddress;
// redemptions, fee sweeps and wallet claims push from custody.
package multivault
