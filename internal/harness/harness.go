package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mwhite/overdraft/internal/account"
	"github.com/mwhite/overdraft/internal/ledger"
	"github.com/mwhite/overdraft/internal/testutil"
)

// Harness is the scenario execution engine.
// It runs a scenario against a fresh account with a deterministic clock and
// run token, recording every operation to the ledger.
type Harness struct {
	store    *ledger.Store
	account  *account.Account
	clock    *testutil.DeterministicClock
	runToken string
	logger   *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each run gets a fresh account and a fresh in-memory ledger, so no state
// is ever shared between scenarios.
//
// Execution flow:
//  1. Create in-memory ledger database
//  2. Construct the account per the scenario's opening balance and toggle
//  3. Execute flow steps, recording trace events and ledger entries
//  4. Evaluate all checks, collecting every failure
//
// The returned error covers infrastructure problems only; scenario failures
// land in Result.Errors with Pass=false.
func Run(scenario *Scenario) (*Result, error) {
	st, err := ledger.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory ledger: %w", err)
	}
	defer st.Close()

	var opts []account.Option
	if scenario.OpeningBalance != nil {
		opts = append(opts, account.WithOpeningBalance(*scenario.OpeningBalance))
	}
	if scenario.InvariantChecks {
		opts = append(opts, account.WithChecks())
	}

	h := &Harness{
		store:    st,
		account:  account.New(opts...),
		clock:    testutil.NewDeterministicClock(),
		runToken: testutil.NewFixedTokenGenerator(scenario.RunToken).Generate(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	ctx := context.Background()

	result := NewResult()
	if err := h.executeFlow(ctx, scenario.Flow, result); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}
	result.Balance = h.account.Balance()

	cctx := &CheckContext{
		Account:  h.account,
		Store:    st,
		RunToken: h.runToken,
		Ctx:      ctx,
	}
	for _, errMsg := range EvaluateChecks(result, scenario.Checks, cctx) {
		result.AddError(errMsg)
	}

	return result, nil
}

// executeFlow runs the withdrawals in order.
//
// Each step records an invocation event, invokes the account, then records
// a completion event and a ledger entry carrying the observed outcome and
// balance. An invariant violation aborts the remaining steps: the account
// treats it as fatal to the execution path, and so does the harness.
func (h *Harness) executeFlow(ctx context.Context, flow []FlowStep, result *Result) error {
	const op = "Account.withdraw"

	for i, step := range flow {
		amount := *step.Withdraw

		invSeq := h.clock.Next()
		result.AddInvocationTrace(op, amount, invSeq)

		outcome, err := h.account.Withdraw(amount)
		compSeq := h.clock.Next()

		observed := string(outcome)
		if err != nil {
			var iv *account.InvariantViolation
			if !errors.As(err, &iv) {
				return fmt.Errorf("flow step %d: %w", i, err)
			}
			observed = OutcomeInvariantViolation
		}

		result.AddCompletionTrace(observed, h.account.Balance(), compSeq)

		entry := ledger.Entry{
			Seq:          compSeq,
			RunToken:     h.runToken,
			Op:           op,
			Amount:       amount,
			Outcome:      observed,
			BalanceAfter: h.account.Balance(),
		}
		if err := h.store.WriteEntry(ctx, entry); err != nil {
			return fmt.Errorf("flow step %d: failed to write ledger entry: %w", i, err)
		}

		if step.Expect != nil && step.Expect.Outcome != observed {
			result.AddError(fmt.Sprintf("flow[%d]: expected outcome %q, got %q", i, step.Expect.Outcome, observed))
		}

		h.logger.Info("flow step completed",
			"step", i,
			"amount", amount,
			"outcome", observed,
			"balance", h.account.Balance(),
		)

		if observed == OutcomeInvariantViolation {
			// An undeclared violation is a scenario failure in its own right.
			if step.Expect == nil {
				result.AddError(fmt.Sprintf("flow[%d]: invariant violation: %v", i, err))
			}
			if i < len(flow)-1 {
				result.AddError(fmt.Sprintf("flow[%d]: aborted, %d step(s) not executed", i, len(flow)-1-i))
			}
			return nil
		}
	}

	return nil
}
