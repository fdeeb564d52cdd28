package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwhite/overdraft/internal/account"
	"github.com/mwhite/overdraft/internal/ledger"
)

// sampleTrace is a two-step run: a successful withdrawal of 200, then a
// declined withdrawal of 5000.
func sampleTrace() []TraceEvent {
	return []TraceEvent{
		{Type: "invocation", Op: "Account.withdraw", Amount: 200, Seq: 1},
		{Type: "completion", Outcome: "applied", BalanceAfter: 800, Seq: 2},
		{Type: "invocation", Op: "Account.withdraw", Amount: 5000, Seq: 3},
		{Type: "completion", Outcome: "insufficient_funds", BalanceAfter: 800, Seq: 4},
	}
}

func sampleResult() *Result {
	return &Result{Pass: true, Balance: 800, Trace: sampleTrace()}
}

func TestCheckBalanceEquals(t *testing.T) {
	err := checkBalanceEquals(sampleResult(), Check{Type: CheckBalanceEquals, Value: floatPtr(800)})
	assert.NoError(t, err)

	err = checkBalanceEquals(sampleResult(), Check{Type: CheckBalanceEquals, Value: floatPtr(900)})
	require.Error(t, err)

	var ce *CheckError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, CheckBalanceEquals, ce.Type)
	assert.Contains(t, ce.Expected, "900")
	assert.Contains(t, ce.Actual, "800")
}

func TestCheckBalancePositive(t *testing.T) {
	assert.NoError(t, checkBalancePositive(sampleResult()))

	broke := &Result{Balance: 0}
	err := checkBalancePositive(broke)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "balance > 0")
}

func TestCheckTraceContains(t *testing.T) {
	tests := []struct {
		name  string
		check Check
		found bool
	}{
		{"by outcome", Check{Outcome: "applied"}, true},
		{"by op", Check{Op: "Account.withdraw"}, true},
		{"by amount", Check{Amount: floatPtr(5000)}, true},
		{"outcome and amount mismatch", Check{Outcome: "applied", Amount: floatPtr(5000)}, false},
		{"absent outcome", Check{Outcome: OutcomeInvariantViolation}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check.Type = CheckTraceContains
			err := checkTraceContains(sampleTrace(), tt.check)
			if tt.found {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestCheckTraceContains_ErrorListsTrace(t *testing.T) {
	err := checkTraceContains(sampleTrace(), Check{Type: CheckTraceContains, Outcome: "missing"})
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "Full trace:")
	assert.Contains(t, msg, "Account.withdraw")
	assert.Contains(t, msg, "insufficient_funds")
}

func TestCheckTraceCount(t *testing.T) {
	err := checkTraceCount(sampleTrace(), Check{Type: CheckTraceCount, Op: "Account.withdraw", Count: 2})
	assert.NoError(t, err)

	err = checkTraceCount(sampleTrace(), Check{Type: CheckTraceCount, Outcome: "applied", Count: 1})
	assert.NoError(t, err)

	err = checkTraceCount(sampleTrace(), Check{Type: CheckTraceCount, Outcome: "applied", Count: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 occurrence(s) of")
	assert.Contains(t, err.Error(), "1 occurrence(s)")
}

func TestCheckLedgerState(t *testing.T) {
	cctx := newCheckContext(t)

	err := checkLedgerState(cctx, Check{
		Type:   CheckLedgerState,
		Where:  map[string]interface{}{"outcome": "applied"},
		Expect: map[string]interface{}{"amount": 200, "balance_after": 800},
	})
	assert.NoError(t, err)
}

func TestCheckLedgerState_Mismatch(t *testing.T) {
	cctx := newCheckContext(t)

	err := checkLedgerState(cctx, Check{
		Type:   CheckLedgerState,
		Where:  map[string]interface{}{"outcome": "applied"},
		Expect: map[string]interface{}{"amount": 999},
	})
	require.Error(t, err)

	var ce *CheckError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Expected, `column "amount" = 999`)
	assert.Contains(t, ce.Actual, "200")
}

func TestCheckLedgerState_NotFound(t *testing.T) {
	cctx := newCheckContext(t)

	err := checkLedgerState(cctx, Check{
		Type:   CheckLedgerState,
		Where:  map[string]interface{}{"outcome": "invariant_violation"},
		Expect: map[string]interface{}{"amount": 1},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry not found")
}

func TestCheckLedgerState_AmbiguousMatch(t *testing.T) {
	cctx := newCheckContext(t)

	// Both entries share the op; the check cannot pick one.
	err := checkLedgerState(cctx, Check{
		Type:   CheckLedgerState,
		Where:  map[string]interface{}{"op": "Account.withdraw"},
		Expect: map[string]interface{}{"amount": 200},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multiple entries matched")
}

func TestCheckLedgerState_InvalidColumn(t *testing.T) {
	cctx := newCheckContext(t)

	err := checkLedgerState(cctx, Check{
		Type:   CheckLedgerState,
		Where:  map[string]interface{}{"outcome; DROP TABLE entries": "x"},
		Expect: map[string]interface{}{"amount": 200},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid column name")
}

func TestCheckLedgerState_ScopedToRunToken(t *testing.T) {
	cctx := newCheckContext(t)

	// An entry from another run must be invisible to this run's checks.
	other := ledger.Entry{Seq: 99, RunToken: "other-run", Op: "Account.withdraw", Amount: 7, Outcome: "applied", BalanceAfter: 993}
	require.NoError(t, cctx.Store.WriteEntry(cctx.Ctx, other))

	err := checkLedgerState(cctx, Check{
		Type:   CheckLedgerState,
		Where:  map[string]interface{}{"amount": 7},
		Expect: map[string]interface{}{"balance_after": 993},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry not found")
}

func TestEvaluateChecks_CollectsAllFailures(t *testing.T) {
	result := sampleResult()
	checks := []Check{
		{Type: CheckBalanceEquals, Value: floatPtr(999)},
		{Type: CheckBalancePositive},
		{Type: CheckTraceCount, Outcome: "applied", Count: 5},
	}

	msgs := EvaluateChecks(result, checks, newCheckContext(t))
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0], CheckBalanceEquals)
	assert.Contains(t, msgs[1], CheckTraceCount)
}

func TestEvaluateChecks_AllPass(t *testing.T) {
	result := sampleResult()
	checks := []Check{
		{Type: CheckBalanceEquals, Value: floatPtr(800)},
		{Type: CheckBalancePositive},
	}

	assert.Empty(t, EvaluateChecks(result, checks, newCheckContext(t)))
}

func TestStateValuesEqual(t *testing.T) {
	tests := []struct {
		name     string
		expected interface{}
		actual   interface{}
		equal    bool
	}{
		{"int vs float64", 200, 200.0, true},
		{"int vs int64", 2, int64(2), true},
		{"float mismatch", 200.5, 200.0, false},
		{"string match", "applied", "applied", true},
		{"string mismatch", "applied", "declined", false},
		{"string vs number", "200", 200.0, false},
		{"bool vs int64", true, int64(1), true},
		{"bool vs int64 zero", true, int64(0), false},
		{"both nil", nil, nil, true},
		{"nil vs value", nil, 1.0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.equal, stateValuesEqual(tt.expected, tt.actual))
		})
	}
}

// newCheckContext builds a CheckContext over a ledger seeded with the
// sampleTrace entries under run token "run-a".
func newCheckContext(t *testing.T) *CheckContext {
	t.Helper()

	st, err := ledger.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	entries := []ledger.Entry{
		{Seq: 2, RunToken: "run-a", Op: "Account.withdraw", Amount: 200, Outcome: "applied", BalanceAfter: 800},
		{Seq: 4, RunToken: "run-a", Op: "Account.withdraw", Amount: 5000, Outcome: "insufficient_funds", BalanceAfter: 800},
	}
	for _, e := range entries {
		require.NoError(t, st.WriteEntry(ctx, e))
	}

	return &CheckContext{
		Account:  account.New(),
		Store:    st,
		RunToken: "run-a",
		Ctx:      ctx,
	}
}
