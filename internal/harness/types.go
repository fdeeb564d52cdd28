package harness

// OutcomeInvariantViolation marks a flow step that tripped one of the
// account's invariant checks. The account itself reports violations as
// errors, not outcomes; the harness folds them into the trace under this
// name so scenarios can declare them.
const OutcomeInvariantViolation = "invariant_violation"

// TraceEvent is one recorded step of a scenario run: either the invocation
// of an operation or its completion.
type TraceEvent struct {
	Type         string  `json:"type"` // "invocation" or "completion"
	Op           string  `json:"op,omitempty"`
	Amount       float64 `json:"amount,omitempty"`
	Outcome      string  `json:"outcome,omitempty"`
	BalanceAfter float64 `json:"balance_after,omitempty"`
	Seq          int64   `json:"seq"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success.
	Pass bool `json:"pass"`

	// Balance is the account balance after the flow finished or aborted.
	Balance float64 `json:"balance"`

	// Trace contains all invocations and completions in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains every collected failure: unexpected outcomes,
	// unexpected invariant violations, and failed checks.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddInvocationTrace records the invocation of an operation.
func (r *Result) AddInvocationTrace(op string, amount float64, seq int64) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:   "invocation",
		Op:     op,
		Amount: amount,
		Seq:    seq,
	})
}

// AddCompletionTrace records the completion of an operation.
func (r *Result) AddCompletionTrace(outcome string, balanceAfter float64, seq int64) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:         "completion",
		Outcome:      outcome,
		BalanceAfter: balanceAfter,
		Seq:          seq,
	})
}
