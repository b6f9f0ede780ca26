// Package feed provides clients for normalized external transaction feeds.
package feed

import (
	"context"
	"time"
)

// Transaction is one normalized record from an external feed. Amount keeps
// the feed's sign convention (negative for money out); Memo is the feed's
// free-text description.
type Transaction struct {
	BookingDate         time.Time
	ExternalReferenceID string
	Memo                string
	Amount              float64
}

// Source fetches normalized transactions for a linked account. Implementations
// signal common.ErrUnauthenticated for invalid credentials and
// common.ErrRateLimit when the upstream asks for backoff, so callers can
// distinguish the two.
type Source interface {
	FetchTransactions(ctx context.Context, itemID string, start, end time.Time) ([]Transaction, error)
	Reauthenticate(ctx context.Context) error
}
