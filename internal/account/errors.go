package account

import (
	"errors"
	"fmt"
)

// CheckCode identifies the invariant that failed.
type CheckCode string

const (
	// CheckAmountPositive guards the withdrawal amount: it must be > 0.
	CheckAmountPositive CheckCode = "AMOUNT_POSITIVE"

	// CheckBalancePositive guards the balance after a debit: it must stay > 0.
	CheckBalancePositive CheckCode = "BALANCE_POSITIVE"
)

// InvariantViolation reports a failed invariant check.
//
// A violation indicates a logic defect in the caller or the account itself,
// never an ordinary invalid-input condition. It is fatal to the current
// execution path and is not recovered from.
type InvariantViolation struct {
	// Code identifies the failed check.
	Code CheckCode

	// Message is a human-readable description.
	Message string

	// Amount is the amount passed to Withdraw.
	Amount float64

	// Balance is the balance at the moment the check ran.
	Balance float64
}

// Error implements the error interface.
func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("%s: %s (amount=%v, balance=%v)", e.Code, e.Message, e.Amount, e.Balance)
}

// IsInvariantViolation reports whether err is an InvariantViolation.
// Uses errors.As to handle wrapped errors.
func IsInvariantViolation(err error) bool {
	var iv *InvariantViolation
	return errors.As(err, &iv)
}

func newViolation(code CheckCode, amount, balance float64) *InvariantViolation {
	return &InvariantViolation{
		Code:    code,
		Message: checkMessage(code),
		Amount:  amount,
		Balance: balance,
	}
}

func checkMessage(code CheckCode) string {
	switch code {
	case CheckAmountPositive:
		return "withdrawal amount must be positive"
	case CheckBalancePositive:
		return "balance dropped to zero or below"
	default:
		return "unknown invariant"
	}
}
