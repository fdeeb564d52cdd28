package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Entries returns all entries for a run token in deterministic order.
//
// Returns an empty slice, not nil, when no entries exist for the token.
func (s *Store) Entries(ctx context.Context, runToken string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, run_token, op, amount, outcome, balance_after
		FROM entries
		WHERE run_token = ?
		ORDER BY seq ASC
	`, runToken)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Seq, &e.RunToken, &e.Op, &e.Amount, &e.Outcome, &e.BalanceAfter); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	return entries, nil
}

// LastEntry returns the entry with the highest seq for a run token,
// or nil if the run has no entries.
func (s *Store) LastEntry(ctx context.Context, runToken string) (*Entry, error) {
	var e Entry
	err := s.db.QueryRowContext(ctx, `
		SELECT seq, run_token, op, amount, outcome, balance_after
		FROM entries
		WHERE run_token = ?
		ORDER BY seq DESC
		LIMIT 1
	`, runToken).Scan(&e.Seq, &e.RunToken, &e.Op, &e.Amount, &e.Outcome, &e.BalanceAfter)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query last entry: %w", err)
	}

	return &e, nil
}

// CountByOutcome returns how many entries for a run token carry the outcome.
func (s *Store) CountByOutcome(ctx context.Context, runToken, outcome string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM entries
		WHERE run_token = ? AND outcome = ?
	`, runToken, outcome).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}

	return count, nil
}
