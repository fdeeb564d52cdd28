package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwhite/overdraft/internal/ledger"
)

func TestWithdrawCommandSingleAmount(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewWithdrawCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"200"})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "withdraw 200: applied (balance 800)")
	assert.Contains(t, output, "balance: 800")
}

func TestWithdrawCommandMultipleAmounts(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewWithdrawCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"200", "300"})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "balance: 500")
}

func TestWithdrawCommandInsufficientFunds(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewWithdrawCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"1500"})

	// Overdrawing is a silent no-op, not an error.
	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "insufficient_funds")
	assert.Contains(t, output, "balance: 1000")
}

func TestWithdrawCommandInvalidAmount(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewWithdrawCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"plenty"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid amount")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestWithdrawCommandOpeningBalance(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewWithdrawCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"1500", "--opening-balance", "2000"})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "balance: 500")
}

func TestWithdrawCommandChecksViolation(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewWithdrawCommand(rootOpts)
	cmd.SetOut(buf)
	// cobra would treat a bare -50 as a flag, so it goes after --
	cmd.SetArgs([]string{"--checks", "--", "-50"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "must be positive")
	assert.Contains(t, buf.String(), "invariant_violation")
}

func TestWithdrawCommandChecksViolationStopsFlow(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewWithdrawCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--checks", "1000", "200"})

	// Withdrawing the full balance trips the positive-balance check; the
	// second withdrawal never runs.
	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	output := buf.String()
	assert.Contains(t, output, "withdraw 1000: invariant_violation")
	assert.NotContains(t, output, "withdraw 200")
}

func TestWithdrawCommandNegativeWithoutChecks(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewWithdrawCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--", "-50"})

	// Without checks a negative amount slips through and grows the balance.
	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "balance: 1050")
}

func TestWithdrawCommandJSONOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewWithdrawCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"200", "1500"})

	err := cmd.Execute()
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	payload, err := json.Marshal(resp.Data)
	require.NoError(t, err)

	var report WithdrawReport
	require.NoError(t, json.Unmarshal(payload, &report))
	assert.NotEmpty(t, report.RunToken)
	require.Len(t, report.Withdrawals, 2)
	assert.Equal(t, "applied", report.Withdrawals[0].Outcome)
	assert.Equal(t, "insufficient_funds", report.Withdrawals[1].Outcome)
	assert.Equal(t, float64(800), report.Balance)
}

func TestWithdrawCommandLedgerAppend(t *testing.T) {
	ledgerPath := filepath.Join(t.TempDir(), "overdraft.db")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewWithdrawCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"200", "300", "--ledger", ledgerPath})

	err := cmd.Execute()
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))

	payload, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var report WithdrawReport
	require.NoError(t, json.Unmarshal(payload, &report))

	store, err := ledger.Open(ledgerPath)
	require.NoError(t, err)
	defer store.Close()

	entries, err := store.Entries(context.Background(), report.RunToken)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(1), entries[0].Seq)
	assert.Equal(t, "Account.withdraw", entries[0].Op)
	assert.Equal(t, float64(800), entries[0].BalanceAfter)
	assert.Equal(t, float64(500), entries[1].BalanceAfter)
}

func TestWithdrawCommandLedgerSeqContinues(t *testing.T) {
	ledgerPath := filepath.Join(t.TempDir(), "overdraft.db")

	runOnce := func() WithdrawReport {
		buf := &bytes.Buffer{}
		cmd := NewWithdrawCommand(&RootOptions{Format: "json"})
		cmd.SetOut(buf)
		cmd.SetArgs([]string{"100", "--ledger", ledgerPath})
		require.NoError(t, cmd.Execute())

		var resp CLIResponse
		require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
		payload, err := json.Marshal(resp.Data)
		require.NoError(t, err)
		var report WithdrawReport
		require.NoError(t, json.Unmarshal(payload, &report))
		return report
	}

	first := runOnce()
	second := runOnce()
	assert.NotEqual(t, first.RunToken, second.RunToken)

	store, err := ledger.Open(ledgerPath)
	require.NoError(t, err)
	defer store.Close()

	entries, err := store.Entries(context.Background(), second.RunToken)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(2), entries[0].Seq)
}
