package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mwhite/overdraft/internal/account"
	"github.com/mwhite/overdraft/internal/harness"
	"github.com/mwhite/overdraft/internal/ledger"
)

// WithdrawOptions holds flags for the withdraw command.
type WithdrawOptions struct {
	*RootOptions
	OpeningBalance float64
	Checks         bool
	LedgerPath     string // when set, operations append to a ledger file
}

// WithdrawalRecord describes one executed withdrawal.
type WithdrawalRecord struct {
	Amount       float64 `json:"amount"`
	Outcome      string  `json:"outcome"`
	BalanceAfter float64 `json:"balance_after"`
}

// WithdrawReport is the JSON payload for a one-off withdraw invocation.
type WithdrawReport struct {
	RunToken    string             `json:"run_token"`
	Withdrawals []WithdrawalRecord `json:"withdrawals"`
	Balance     float64            `json:"balance"`
}

// NewWithdrawCommand creates the withdraw command.
func NewWithdrawCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WithdrawOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "withdraw <amount>...",
		Short: "Apply one or more withdrawals to a fresh account",
		Long: `Apply withdrawals to a fresh account and print each outcome.

Withdrawals that exceed the balance leave it unchanged. With --checks,
non-positive amounts and a non-positive resulting balance are rejected
as invariant violations (exit code 1).

With --ledger, each operation is appended to a SQLite ledger file under
a fresh run token, so separate invocations stay distinguishable.

Examples:
  overdraft withdraw 200
  overdraft withdraw 200 300 --checks
  overdraft withdraw 500 --opening-balance 2000 --ledger ./overdraft.db`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithdraw(opts, args, cmd)
		},
	}

	cmd.Flags().Float64Var(&opts.OpeningBalance, "opening-balance", account.OpeningBalance, "opening balance for the account")
	cmd.Flags().BoolVar(&opts.Checks, "checks", false, "enable invariant checks")
	cmd.Flags().StringVar(&opts.LedgerPath, "ledger", "", "append operations to a SQLite ledger file")

	return cmd
}

func runWithdraw(opts *WithdrawOptions, args []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	amounts := make([]float64, 0, len(args))
	for _, arg := range args {
		amount, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return NewExitError(ExitCommandError, fmt.Sprintf("invalid amount %q", arg))
		}
		amounts = append(amounts, amount)
	}

	ctx := context.Background()
	runToken := harness.UUIDv7Generator{}.Generate()

	var store *ledger.Store
	var seq int64
	if opts.LedgerPath != "" {
		var err error
		store, err = ledger.Open(opts.LedgerPath)
		if err != nil {
			return NewExitError(ExitCommandError, fmt.Sprintf("open ledger: %v", err))
		}
		defer store.Close()

		seq, err = maxSeq(ctx, store)
		if err != nil {
			return fmt.Errorf("read ledger: %w", err)
		}
		formatter.VerboseLog("ledger %s open, continuing at seq %d", opts.LedgerPath, seq+1)
	}

	accountOpts := []account.Option{account.WithOpeningBalance(opts.OpeningBalance)}
	if opts.Checks {
		accountOpts = append(accountOpts, account.WithChecks())
	}
	acct := account.New(accountOpts...)

	report := WithdrawReport{
		RunToken:    runToken,
		Withdrawals: make([]WithdrawalRecord, 0, len(amounts)),
	}

	const op = "Account.withdraw"

	for _, amount := range amounts {
		outcome, err := acct.Withdraw(amount)

		outcomeStr := string(outcome)
		if err != nil {
			outcomeStr = harness.OutcomeInvariantViolation
		}

		record := WithdrawalRecord{
			Amount:       amount,
			Outcome:      outcomeStr,
			BalanceAfter: acct.Balance(),
		}
		report.Withdrawals = append(report.Withdrawals, record)

		if store != nil {
			seq++
			writeErr := store.WriteEntry(ctx, ledger.Entry{
				Seq:          seq,
				RunToken:     runToken,
				Op:           op,
				Amount:       amount,
				Outcome:      outcomeStr,
				BalanceAfter: acct.Balance(),
			})
			if writeErr != nil {
				return fmt.Errorf("append ledger entry: %w", writeErr)
			}
		}

		if err != nil {
			report.Balance = acct.Balance()
			if opts.Format == "json" {
				if jsonErr := formatter.Error(err.Error(), report); jsonErr != nil {
					return jsonErr
				}
			} else {
				printWithdrawReport(cmd, report)
			}
			return NewExitError(ExitFailure, err.Error())
		}
	}

	report.Balance = acct.Balance()

	if opts.Format == "json" {
		return formatter.Success(report)
	}
	printWithdrawReport(cmd, report)
	return nil
}

func printWithdrawReport(cmd *cobra.Command, report WithdrawReport) {
	w := cmd.OutOrStdout()
	for _, rec := range report.Withdrawals {
		fmt.Fprintf(w, "withdraw %v: %s (balance %v)\n", rec.Amount, rec.Outcome, rec.BalanceAfter)
	}
	fmt.Fprintf(w, "balance: %v\n", report.Balance)
}

// maxSeq returns the highest seq already in the ledger, 0 when empty.
func maxSeq(ctx context.Context, store *ledger.Store) (int64, error) {
	rows, err := store.Query(ctx, `SELECT COALESCE(MAX(seq), 0) FROM entries`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var seq int64
	if rows.Next() {
		if err := rows.Scan(&seq); err != nil {
			return 0, err
		}
	}
	return seq, rows.Err()
}
