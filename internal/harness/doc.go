// Package harness runs scenario files against a fresh vault ledger.
//
// A scenario funds a set of accounts, drives the engine through setup and
// flow steps, and checks the published notifications and the final ledger
// rows. Rejections are outcomes: a step that fails with a fault completes
// with the fault code as its case.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	config:
//	  preset: small        # or default, or file: governance.cue
//	accounts:
//	  alice: "10000000"
//	setup:
//	  - action: create_atom
//	    args: { caller: alice, data: subject, value: 100100 }
//	flow:
//	  - invoke: deposit
//	    args: { caller: alice, term: subject, value: 10000 }
//	    expect:
//	      case: Success
//	      result: { shares: "9700" }
//	assertions:
//	  - type: event_contains
//	    kind: Deposited
//	    attrs: { receiver: alice, termId: subject }
//	  - type: final_state
//	    table: shares
//	    where: { account: alice, term_id: subject, curve_id: 1 }
//	    expect: { balance: "106700" }
//	  - type: solvent
//
// Term names bind when a term is created: atoms by data (or a name arg),
// triples by their name arg. "~name" is a triple's counter-triple. Other
// strings are account labels; see resolver for the reserved names.
//
// # Assertion Types
//
//   - event_contains: a notification of kind with matching attrs was published
//   - event_order: notification kinds appear in order
//   - event_count: a notification kind appears exactly N times
//   - final_state: a ledger row holds the expected values
//   - solvent: custody covers every vault and fee balance
//
// # Deterministic Testing
//
// Each run uses an in-memory store, a manual clock that starts one hour into
// epoch 0 and sequential op ids, so the same scenario always produces the
// same trace. RunWithGolden compares that trace with a goldie snapshot.
package harness
