package model

import "time"

// CandidateStatus tracks a staged transaction through review.
type CandidateStatus string

// Candidate status constants.
const (
	CandidatePending    CandidateStatus = "pending"
	CandidateDismissed  CandidateStatus = "dismissed"
	CandidateReconciled CandidateStatus = "reconciled"
)

// CandidateEntry is an externally-sourced transaction awaiting review before
// it becomes a ledger entry. Amount is the raw signed feed amount.
type CandidateEntry struct {
	Date                time.Time
	CreatedAt           time.Time
	SuggestedCategoryID *int
	ID                  string
	AccountID           string
	Description         string
	ExternalReferenceID string // unique per account; the feed's stable record id
	Status              CandidateStatus
	Amount              float64
}
