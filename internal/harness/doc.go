// Package harness executes account withdrawal scenarios and checks their
// observable contract.
//
// Each run constructs a fresh account and a fresh in-memory ledger, invokes
// the scenario's flow, and evaluates every check in the checks list - all of
// them, even when earlier ones fail - collecting failures into the result.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	opening_balance: 1000      # optional, defaults to the account's opening balance
//	invariant_checks: false    # optional, enables the account's debug checks
//	run_token: "run-abc"       # optional, fixed token for golden comparison
//	flow:
//	  - withdraw: 200
//	    expect:
//	      outcome: applied
//	checks:
//	  - type: balance_equals
//	    value: 800
//	  - type: balance_positive
//
// # Check Types
//
// The following check types are supported:
//
//   - balance_equals: the final balance equals value
//   - balance_positive: the final balance is > 0
//   - trace_contains: an event with the given op/outcome/amount appears in the trace
//   - trace_count: events matching op/outcome appear exactly count times
//   - ledger_state: queries the ledger entries table and verifies expected columns
//
// # Invariant Violations
//
// With invariant_checks enabled, a flow step that violates one of the
// account's invariants aborts the remaining flow. The violation is recorded
// in the trace and ledger with outcome "invariant_violation"; a step may
// declare it with expect.outcome, otherwise the run fails. Checks still
// evaluate against the state at the abort.
//
// # Deterministic Execution
//
// Runs use a logical clock for seq values and a fixed run token (from
// run_token, or "run-default"), so the same scenario produces byte-identical
// traces across runs for golden file comparison.
package harness
