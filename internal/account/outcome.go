package account

// Outcome classifies the result of a completed withdrawal.
//
// An insufficient-funds withdrawal is not an error; callers that want the
// silent no-op simply discard the value, callers that want an explicit
// signal branch on it.
type Outcome string

const (
	// OutcomeApplied means the debit was applied to the balance.
	OutcomeApplied Outcome = "applied"

	// OutcomeInsufficientFunds means the requested amount exceeded the
	// balance and the operation left the account untouched.
	OutcomeInsufficientFunds Outcome = "insufficient_funds"
)
