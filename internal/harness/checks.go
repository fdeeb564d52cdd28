package harness

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/mwhite/overdraft/internal/account"
	"github.com/mwhite/overdraft/internal/ledger"
)

// validIdentifier matches valid SQL identifiers (column names).
// Only allows alphanumeric and underscore, must start with letter or
// underscore. Prevents SQL injection via identifier interpolation.
var validIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// CheckError is returned when a check fails.
// It includes the trace so a failure report carries its own context.
type CheckError struct {
	Type     string       // Check type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *CheckError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Check failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, event := range e.Trace {
			if event.Type == "invocation" {
				fmt.Fprintf(&buf, "  [%d] %s %v\n", i+1, event.Op, event.Amount)
			} else {
				fmt.Fprintf(&buf, "  [%d] -> %s (balance %v)\n", i+1, event.Outcome, event.BalanceAfter)
			}
		}
	}

	return buf.String()
}

// CheckContext provides state access for evaluating checks.
type CheckContext struct {
	Account  *account.Account
	Store    *ledger.Store
	RunToken string
	Ctx      context.Context
}

// EvaluateChecks evaluates all checks against the result.
// Returns a slice of error messages for failed checks.
//
// Evaluation is grouped: every check runs even when earlier ones fail, so a
// single run reports the full set of failures rather than stopping at the
// first.
func EvaluateChecks(result *Result, checks []Check, cctx *CheckContext) []string {
	group := make([]func() error, 0, len(checks))
	for i, check := range checks {
		i, check := i, check
		group = append(group, func() error {
			return evaluateCheck(result, i, check, cctx)
		})
	}

	err := Group("scenario checks", group...)
	if err == nil {
		return nil
	}

	var ge *GroupError
	if !errors.As(err, &ge) {
		return []string{err.Error()}
	}

	msgs := make([]string, 0, len(ge.Failures))
	for _, failure := range ge.Failures {
		msgs = append(msgs, failure.Error())
	}
	return msgs
}

// evaluateCheck dispatches one check by type.
func evaluateCheck(result *Result, index int, check Check, cctx *CheckContext) error {
	switch check.Type {
	case CheckBalanceEquals:
		return checkBalanceEquals(result, check)
	case CheckBalancePositive:
		return checkBalancePositive(result)
	case CheckTraceContains:
		return checkTraceContains(result.Trace, check)
	case CheckTraceCount:
		return checkTraceCount(result.Trace, check)
	case CheckLedgerState:
		if cctx == nil || cctx.Store == nil {
			return fmt.Errorf("checks[%d]: ledger_state requires ledger context", index)
		}
		return checkLedgerState(cctx, check)
	default:
		return fmt.Errorf("checks[%d]: unknown check type %q", index, check.Type)
	}
}

// checkBalanceEquals compares the final balance against an exact value.
// Scenario values are plain decimals that float64 represents exactly, so
// the comparison is intentionally not tolerance-based.
func checkBalanceEquals(result *Result, check Check) error {
	if result.Balance == *check.Value {
		return nil
	}
	return &CheckError{
		Type:     CheckBalanceEquals,
		Expected: fmt.Sprintf("balance = %v", *check.Value),
		Actual:   fmt.Sprintf("balance = %v", result.Balance),
		Trace:    result.Trace,
	}
}

// checkBalancePositive verifies the final balance is strictly positive.
func checkBalancePositive(result *Result) error {
	if result.Balance > 0 {
		return nil
	}
	return &CheckError{
		Type:     CheckBalancePositive,
		Expected: "balance > 0",
		Actual:   fmt.Sprintf("balance = %v", result.Balance),
		Trace:    result.Trace,
	}
}

// checkTraceContains verifies some event matches every specified field
// (subset semantics - unspecified fields match anything).
func checkTraceContains(trace []TraceEvent, check Check) error {
	for _, event := range trace {
		if matchEvent(event, check) {
			return nil
		}
	}

	return &CheckError{
		Type:     CheckTraceContains,
		Expected: describeEventFilter(check),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// checkTraceCount verifies the number of matching events exactly.
func checkTraceCount(trace []TraceEvent, check Check) error {
	count := 0
	for _, event := range trace {
		if matchEvent(event, check) {
			count++
		}
	}

	if count != check.Count {
		return &CheckError{
			Type:     CheckTraceCount,
			Expected: fmt.Sprintf("%d occurrence(s) of %s", check.Count, describeEventFilter(check)),
			Actual:   fmt.Sprintf("%d occurrence(s)", count),
			Trace:    trace,
		}
	}

	return nil
}

// matchEvent reports whether an event matches the check's filter fields.
func matchEvent(event TraceEvent, check Check) bool {
	if check.Op != "" && event.Op != check.Op {
		return false
	}
	if check.Outcome != "" && event.Outcome != check.Outcome {
		return false
	}
	if check.Amount != nil && event.Amount != *check.Amount {
		return false
	}
	return true
}

// describeEventFilter renders a check's filter fields for failure messages.
func describeEventFilter(check Check) string {
	var parts []string
	if check.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", check.Op))
	}
	if check.Outcome != "" {
		parts = append(parts, fmt.Sprintf("outcome=%s", check.Outcome))
	}
	if check.Amount != nil {
		parts = append(parts, fmt.Sprintf("amount=%v", *check.Amount))
	}
	return "event with " + strings.Join(parts, " ")
}

// checkLedgerState queries the ledger entries table and validates expected
// column values with subset semantics. Queries are parameterized; column
// names are validated against a whitelist pattern since identifiers can't
// be parameterized.
//
// The current run token is always part of the filter, so checks never see
// entries from another run.
func checkLedgerState(cctx *CheckContext, check Check) error {
	whereSQL, whereArgs, err := buildWhereClause(check.Where)
	if err != nil {
		return err
	}

	query := "SELECT * FROM entries WHERE run_token = ?"
	args := append([]interface{}{cctx.RunToken}, whereArgs...)
	if whereSQL != "" {
		query += " AND " + whereSQL
	}

	rows, err := cctx.Store.Query(cctx.Ctx, query, args...)
	if err != nil {
		return &CheckError{
			Type:     CheckLedgerState,
			Expected: "query ledger entries",
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("get columns: %w", err)
	}

	if !rows.Next() {
		return &CheckError{
			Type:     CheckLedgerState,
			Expected: fmt.Sprintf("ledger entry where %s", formatWhereClause(check.Where)),
			Actual:   "entry not found",
		}
	}

	values := make([]interface{}, len(columns))
	valuePtrs := make([]interface{}, len(columns))
	for i := range values {
		valuePtrs[i] = &values[i]
	}
	if err := rows.Scan(valuePtrs...); err != nil {
		return fmt.Errorf("scan entry: %w", err)
	}

	// Multiple matches would make the expected values ambiguous.
	if rows.Next() {
		return &CheckError{
			Type:     CheckLedgerState,
			Expected: fmt.Sprintf("exactly one ledger entry where %s", formatWhereClause(check.Where)),
			Actual:   "multiple entries matched (check is ambiguous)",
		}
	}

	actualRow := make(map[string]interface{})
	for i, col := range columns {
		actualRow[col] = values[i]
	}

	for _, key := range sortedKeys(check.Expect) {
		expectedValue := check.Expect[key]
		actualValue, exists := actualRow[key]
		if !exists {
			return &CheckError{
				Type:     CheckLedgerState,
				Expected: fmt.Sprintf("column %q to exist", key),
				Actual:   fmt.Sprintf("column %q not present in result columns: %v", key, columns),
			}
		}
		if !stateValuesEqual(expectedValue, actualValue) {
			return &CheckError{
				Type:     CheckLedgerState,
				Expected: fmt.Sprintf("column %q = %v (type %T)", key, expectedValue, expectedValue),
				Actual:   fmt.Sprintf("column %q = %v (type %T)", key, actualValue, actualValue),
			}
		}
	}

	return nil
}

// buildWhereClause constructs a parameterized WHERE fragment from the
// check's Where map. Keys are sorted for deterministic query generation.
func buildWhereClause(where map[string]interface{}) (string, []interface{}, error) {
	if len(where) == 0 {
		return "", nil, nil
	}

	keys := sortedKeys(where)
	clauses := make([]string, 0, len(keys))
	args := make([]interface{}, 0, len(keys))

	for _, key := range keys {
		if !validIdentifier.MatchString(key) {
			return "", nil, fmt.Errorf("invalid column name %q in where clause: must match pattern %s", key, validIdentifier.String())
		}
		clauses = append(clauses, fmt.Sprintf("%s = ?", key))
		args = append(args, where[key])
	}

	return strings.Join(clauses, " AND "), args, nil
}

// formatWhereClause creates a human-readable description of WHERE conditions.
func formatWhereClause(where map[string]interface{}) string {
	if len(where) == 0 {
		return "(no conditions)"
	}

	parts := make([]string, 0, len(where))
	for _, k := range sortedKeys(where) {
		parts = append(parts, fmt.Sprintf("%s=%v", k, where[k]))
	}
	return strings.Join(parts, " AND ")
}

// sortedKeys returns map keys in sorted order for deterministic output.
func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// stateValuesEqual compares expected (YAML-parsed) and actual (SQLite)
// values. YAML numbers arrive as int or float64; SQLite returns INTEGER
// columns as int64 and REAL columns as float64, so numeric comparison
// coerces through float64.
func stateValuesEqual(expected, actual interface{}) bool {
	if expected == nil && actual == nil {
		return true
	}
	if expected == nil || actual == nil {
		return false
	}

	if expNum, ok := toFloat(expected); ok {
		actNum, ok := toFloat(actual)
		return ok && expNum == actNum
	}

	switch exp := expected.(type) {
	case string:
		actStr, ok := actual.(string)
		return ok && exp == actStr
	case bool:
		if actBool, ok := actual.(bool); ok {
			return exp == actBool
		}
		// SQLite stores booleans as integers.
		if actInt, ok := actual.(int64); ok {
			return exp == (actInt != 0)
		}
		return false
	}

	return false
}

// toFloat coerces the numeric types seen from YAML and SQLite.
func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
