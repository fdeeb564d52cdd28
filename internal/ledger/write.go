package ledger

import (
	"context"
	"fmt"
)

// Entry is one recorded account operation.
type Entry struct {
	Seq          int64   `json:"seq"`
	RunToken     string  `json:"run_token"`
	Op           string  `json:"op"`
	Amount       float64 `json:"amount"`
	Outcome      string  `json:"outcome"`
	BalanceAfter float64 `json:"balance_after"`
}

// WriteEntry inserts an entry into the log.
// Uses ON CONFLICT(seq) DO NOTHING for idempotency - replaying the same seq
// is silently ignored. Other constraint violations still return errors.
func (s *Store) WriteEntry(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entries
		(seq, run_token, op, amount, outcome, balance_after)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(seq) DO NOTHING
	`,
		e.Seq,
		e.RunToken,
		e.Op,
		e.Amount,
		e.Outcome,
		e.BalanceAfter,
	)
	if err != nil {
		return fmt.Errorf("write entry: %w", err)
	}

	return nil
}
