// Package ledger provides SQLite-backed storage for harness run logs.
//
// The ledger is an append-only log of account operations. One entry is
// written per completed operation:
//
//   - seq: logical clock position (primary key)
//   - run_token: tags all entries belonging to one scenario run
//   - op: operation name (e.g. "Account.withdraw")
//   - amount: the requested amount
//   - outcome: "applied", "insufficient_funds" or "invariant_violation"
//   - balance_after: the balance observed after the operation
//
// # Ordering
//
// All ordering uses seq (logical clock), never timestamps. This keeps reads
// deterministic regardless of wall time, which golden trace comparison
// relies on.
//
// The harness opens an in-memory database per scenario run, so no account
// state ever survives a run or leaks between runs. A file path may be used
// instead to keep run history across CLI invocations.
//
// # Database configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
package ledger
