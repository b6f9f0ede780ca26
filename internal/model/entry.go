// Package model defines the core domain models used throughout the application.
package model

import "time"

// EntryDirection indicates whether a ledger entry is money in or money out.
type EntryDirection string

// Entry direction constants.
const (
	DirectionIncome  EntryDirection = "income"
	DirectionExpense EntryDirection = "expense"
)

// LedgerEntry represents a booked financial transaction belonging to an account.
// Amount is always positive; Direction carries the sign.
type LedgerEntry struct {
	Date                time.Time
	CreatedAt           time.Time
	ID                  string
	AccountID           string
	Description         string
	CanonicalKey        string
	ExternalReferenceID string // set once the entry is linked to a bank feed record
	LinkedEntryID       string // optional back-reference to a related entry (e.g. a transfer)
	Direction           EntryDirection
	Amount              float64
	CategoryID          int
}

// Account represents a ledger account, optionally linked to a bank feed.
type Account struct {
	CreatedAt    time.Time
	ID           string
	Name         string
	FeedProvider string // e.g. "plaid", "openbanking"; empty when not linked
	FeedItemID   string // provider-side identity used for feed fetches
}
