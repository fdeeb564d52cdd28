package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// TraceSnapshot captures the complete trace of a scenario execution for
// golden file comparison.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	RunToken     string       `json:"run_token,omitempty"`
	Trace        []TraceEvent `json:"trace"`
}

// toSnapshotMap converts a TraceSnapshot to a map so serialization is
// shape-exact: invocation events carry op and amount, completion events
// carry outcome and balance_after, and nothing else leaks in. Map keys
// marshal in sorted order, which keeps the bytes deterministic.
func (s *TraceSnapshot) toSnapshotMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		eventMap := map[string]any{
			"type": event.Type,
			"seq":  event.Seq,
		}
		if event.Type == "invocation" {
			eventMap["op"] = event.Op
			eventMap["amount"] = event.Amount
		} else {
			eventMap["outcome"] = event.Outcome
			eventMap["balance_after"] = event.BalanceAfter
		}
		traceList[i] = eventMap
	}

	result := map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
	}
	if s.RunToken != "" {
		result["run_token"] = s.RunToken
	}
	return result
}

// SnapshotBytes renders the canonical golden bytes for a scenario trace.
// Shared by the goldie helpers below and by the CLI's golden comparison.
func SnapshotBytes(scenarioName, runToken string, trace []TraceEvent) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		RunToken:     runToken,
		Trace:        trace,
	}
	return json.MarshalIndent(snapshot.toSnapshotMap(), "", "  ")
}

// RunWithGolden executes a scenario and compares the trace against a golden
// file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails. Test failure (via goldie)
// occurs if the trace doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}

	return AssertGolden(t, scenario.Name, scenario.RunToken, result)
}

// AssertGolden compares an already-obtained result's trace against the
// golden file for scenarioName.
func AssertGolden(t *testing.T, scenarioName, runToken string, result *Result) error {
	t.Helper()

	traceJSON, err := SnapshotBytes(scenarioName, runToken, result.Trace)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)

	return nil
}
