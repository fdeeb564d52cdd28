package harness

import (
	"bytes"
	"fmt"
	"os"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// Scenario defines one withdrawal test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It is a human-readable label
	// used for reporting and as the golden file key; it has no behavioral
	// effect on the flow.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// OpeningBalance overrides the account's default opening balance.
	OpeningBalance *float64 `yaml:"opening_balance,omitempty"`

	// InvariantChecks enables the account's debug invariant checks.
	// Off by default, matching the account's production behavior.
	InvariantChecks bool `yaml:"invariant_checks,omitempty"`

	// RunToken is an optional fixed run token for deterministic ledger
	// tagging. If empty, runs default to "run-default" so golden files
	// stay stable.
	RunToken string `yaml:"run_token,omitempty"`

	// Flow contains the withdrawals to perform, in order. May be empty:
	// a scenario is allowed to only check the freshly constructed state.
	Flow []FlowStep `yaml:"flow,omitempty"`

	// Checks are the grouped comparisons evaluated after the flow.
	// Every check runs even when earlier ones fail.
	Checks []Check `yaml:"checks"`
}

// FlowStep is a single withdrawal with an optional expected outcome.
type FlowStep struct {
	// Withdraw is the amount to withdraw. Required; zero and negative
	// amounts are legal steps (they exercise the invariant checks).
	Withdraw *float64 `yaml:"withdraw"`

	// Expect declares the expected outcome. If nil, any outcome except an
	// invariant violation is accepted.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected completion outcome.
type ExpectClause struct {
	// Outcome is "applied", "insufficient_funds" or "invariant_violation".
	Outcome string `yaml:"outcome"`
}

// Check is one grouped comparison against the final state or the trace.
type Check struct {
	// Type selects the comparison; see the package documentation.
	Type string `yaml:"type"`

	// Value is the expected balance (balance_equals).
	Value *float64 `yaml:"value,omitempty"`

	// Op filters trace events by operation name (trace_contains, trace_count).
	Op string `yaml:"op,omitempty"`

	// Outcome filters trace events by outcome (trace_contains, trace_count).
	Outcome string `yaml:"outcome,omitempty"`

	// Amount filters trace events by amount (trace_contains).
	Amount *float64 `yaml:"amount,omitempty"`

	// Count is the expected number of matches (trace_count).
	Count int `yaml:"count,omitempty"`

	// Where filters ledger rows by column value (ledger_state).
	Where map[string]interface{} `yaml:"where,omitempty"`

	// Expect contains expected column values, subset semantics (ledger_state).
	Expect map[string]interface{} `yaml:"expect,omitempty"`
}

// Check type constants.
const (
	CheckBalanceEquals   = "balance_equals"
	CheckBalancePositive = "balance_positive"
	CheckTraceContains   = "trace_contains"
	CheckTraceCount      = "trace_count"
	CheckLedgerState     = "ledger_state"
)

// validOutcomes are the outcome names a flow step may expect.
var validOutcomes = map[string]bool{
	"applied":                 true,
	"insufficient_funds":      true,
	OutcomeInvariantViolation: true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "check:" vs "checks:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Golden file keys and ledger tokens must not depend on the encoding
	// form of the human-readable label.
	scenario.Name = norm.NFC.String(scenario.Name)

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Checks) == 0 {
		return fmt.Errorf("checks list is required and must be non-empty")
	}

	for i, step := range s.Flow {
		if step.Withdraw == nil {
			return fmt.Errorf("flow[%d]: withdraw is required", i)
		}
		if step.Expect != nil && !validOutcomes[step.Expect.Outcome] {
			return fmt.Errorf("flow[%d].expect: unknown outcome %q", i, step.Expect.Outcome)
		}
	}

	for i, check := range s.Checks {
		if err := validateCheck(i, &check); err != nil {
			return err
		}
	}

	return nil
}

// validateCheck validates a single check based on its type.
func validateCheck(index int, c *Check) error {
	if c.Type == "" {
		return fmt.Errorf("checks[%d]: type is required", index)
	}

	switch c.Type {
	case CheckBalanceEquals:
		if c.Value == nil {
			return fmt.Errorf("checks[%d]: value is required for balance_equals", index)
		}
	case CheckBalancePositive:
		// No fields.
	case CheckTraceContains:
		if c.Op == "" && c.Outcome == "" && c.Amount == nil {
			return fmt.Errorf("checks[%d]: trace_contains needs at least one of op, outcome, amount", index)
		}
	case CheckTraceCount:
		if c.Op == "" && c.Outcome == "" {
			return fmt.Errorf("checks[%d]: trace_count needs op or outcome", index)
		}
		if c.Count < 0 {
			return fmt.Errorf("checks[%d]: count must be non-negative for trace_count", index)
		}
	case CheckLedgerState:
		if len(c.Expect) == 0 {
			return fmt.Errorf("checks[%d]: expect is required for ledger_state", index)
		}
	default:
		return fmt.Errorf("checks[%d]: unknown check type %q", index, c.Type)
	}

	return nil
}
