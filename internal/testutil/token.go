package testutil

// FixedTokenGenerator returns the same run token every time.
//
// Golden trace comparison needs byte-identical output across runs, so
// harness runs tag their ledger entries with a fixed token instead of a
// fresh UUID. Stateless and safe for concurrent use.
type FixedTokenGenerator struct {
	token string
}

// NewFixedTokenGenerator creates a generator for the given token.
// An empty token falls back to "run-default", which keeps scenarios without
// an explicit run_token deterministic.
func NewFixedTokenGenerator(token string) *FixedTokenGenerator {
	if token == "" {
		token = "run-default"
	}
	return &FixedTokenGenerator{token: token}
}

// Generate returns the fixed run token.
func (g *FixedTokenGenerator) Generate() string {
	return g.token
}
