package harness

import "github.com/google/uuid"

// TokenGenerator produces run tokens that tag ledger entries belonging to
// one execution.
type TokenGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 run tokens.
//
// UUIDv7 embeds a timestamp in the most significant bits, making tokens
// sortable by creation time, which keeps persisted run history browsable
// in seq-then-token order. Used by CLI invocations that append to a shared
// ledger file; harness runs use a fixed token instead so golden traces stay
// byte-identical.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
