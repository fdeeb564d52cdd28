// Package account holds a single mutable currency balance and applies
// validated debits to it.
//
// The package demonstrates two deliberately different correctness tiers on
// one operation:
//
//   - Invariant checks: development-time guards on Withdraw, enabled per
//     instance via WithChecks. A violated check returns *InvariantViolation,
//     indicates a logic defect, and is fatal to the current execution path.
//     With checks disabled (the default) the guards are never evaluated and
//     Withdraw performs no validation at all.
//   - Insufficient funds: reported only through the Outcome return value.
//     A declined withdrawal never mutates the balance and never returns an
//     error; callers that discard the Outcome observe a silent no-op.
package account

// OpeningBalance is the default starting balance for a new Account.
const OpeningBalance = 1000.0

// Account holds a single mutable balance.
//
// Not safe for concurrent use. Each scenario constructs its own instance, so
// no mutation is ever visible across scenarios.
type Account struct {
	balance float64
	checks  bool
}

// Option configures an Account at construction.
type Option func(*Account)

// WithOpeningBalance overrides the default opening balance.
func WithOpeningBalance(v float64) Option {
	return func(a *Account) { a.balance = v }
}

// WithChecks enables invariant checks on Withdraw.
//
// The toggle is explicit per-instance configuration rather than a global or
// build-time switch, so both behaviors are constructible side by side and
// each is directly testable.
func WithChecks() Option {
	return func(a *Account) { a.checks = true }
}

// New creates an Account holding OpeningBalance unless overridden.
func New(opts ...Option) *Account {
	a := &Account{balance: OpeningBalance}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Withdraw removes amount from the balance.
//
// With checks disabled, Withdraw has no validation: a sufficient balance is
// debited, an insufficient one is left untouched and OutcomeInsufficientFunds
// is returned. A non-positive amount falls through the balance guard and
// debits a non-positive value.
//
// With checks enabled, two invariants guard the debit:
//
//   - amount > 0, checked before any mutation
//   - balance > 0, checked after the debit is applied
//
// A violated invariant returns an empty Outcome and *InvariantViolation. The
// post-debit check fires after the mutation, so a violation there leaves the
// offending balance observable via Balance.
func (a *Account) Withdraw(amount float64) (Outcome, error) {
	if a.checks && amount <= 0 {
		return "", newViolation(CheckAmountPositive, amount, a.balance)
	}
	if amount > a.balance {
		// No signal beyond the outcome: the balance is untouched.
		return OutcomeInsufficientFunds, nil
	}
	a.balance -= amount
	if a.checks && a.balance <= 0 {
		return "", newViolation(CheckBalancePositive, amount, a.balance)
	}
	return OutcomeApplied, nil
}

// Balance returns the current balance exactly as stored.
// No rounding, no formatting, no side effects.
func (a *Account) Balance() float64 {
	return a.balance
}
