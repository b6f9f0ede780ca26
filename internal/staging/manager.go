// Package staging owns the pending/dismissed/reconciled lifecycle of
// externally-sourced transaction candidates awaiting review.
package staging

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/thetombrider/Personal-Finance-Hub-sub001/internal/common"
	"github.com/thetombrider/Personal-Finance-Hub-sub001/internal/model"
	"github.com/thetombrider/Personal-Finance-Hub-sub001/internal/service"
)

// Manager drives candidate state transitions and the approve handoff into
// the ledger-write path.
type Manager struct {
	storage service.Storage
	logger  *slog.Logger
}

// NewManager creates a staging lifecycle manager.
func NewManager(storage service.Storage) *Manager {
	return &Manager{
		storage: storage,
		logger:  slog.Default().With("component", "staging"),
	}
}

// ApproveOptions carries the caller's overrides for a single approval.
type ApproveOptions struct {
	CategoryID          *int   // overrides the candidate's suggestion
	DescriptionOverride string // replaces the feed memo when set
}

// SkippedItem reports one id a bulk operation could not process.
type SkippedItem struct {
	ID     string
	Reason string
}

// BulkResult summarizes a bulk operation: how many rows succeeded and an
// itemized list of the ones that were skipped. Skips are never silent.
type BulkResult struct {
	Skipped      []SkippedItem
	SuccessCount int
}

// Approve books a pending candidate into the ledger. The category is the
// caller's override if present, else the candidate's suggestion; with
// neither, approval fails with a ValidationError. Exactly one ledger entry
// is created (or an existing one for the same external reference is
// discovered), and the candidate is marked reconciled.
func (m *Manager) Approve(ctx context.Context, candidateID string, opts ApproveOptions) (*model.LedgerEntry, error) {
	candidate, err := m.storage.GetCandidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	if candidate.Status != model.CandidatePending {
		return nil, common.NewValidationError("status",
			fmt.Sprintf("candidate is %s, expected pending", candidate.Status))
	}

	categoryID := 0
	switch {
	case opts.CategoryID != nil:
		categoryID = *opts.CategoryID
	case candidate.SuggestedCategoryID != nil:
		categoryID = *candidate.SuggestedCategoryID
	default:
		return nil, common.NewValidationError("category", "no category resolved for approval")
	}
	if _, err := m.storage.GetCategoryByID(ctx, categoryID); err != nil {
		return nil, fmt.Errorf("resolving category %d: %w", categoryID, err)
	}

	description := candidate.Description
	if opts.DescriptionOverride != "" {
		description = opts.DescriptionOverride
	}

	direction := model.DirectionExpense
	amount := candidate.Amount
	if amount > 0 {
		direction = model.DirectionIncome
	} else {
		amount = -amount
	}

	entry := model.LedgerEntry{
		ID:                  uuid.NewString(),
		AccountID:           candidate.AccountID,
		Date:                candidate.Date,
		Amount:              amount,
		Description:         description,
		Direction:           direction,
		CategoryID:          categoryID,
		ExternalReferenceID: candidate.ExternalReferenceID,
	}

	booked, err := m.storage.ApproveCandidate(ctx, candidateID, entry)
	if err != nil {
		return nil, err
	}

	m.logger.Info("Approved candidate",
		"candidate_id", candidateID,
		"entry_id", booked.ID,
		"category_id", categoryID)
	return booked, nil
}

// Dismiss flips a pending candidate to dismissed. No ledger entry is
// created; the transition is reversible via Restore.
func (m *Manager) Dismiss(ctx context.Context, candidateID string) error {
	return m.storage.TransitionCandidate(ctx, candidateID,
		model.CandidatePending, model.CandidateDismissed)
}

// Restore flips a dismissed candidate back to pending.
func (m *Manager) Restore(ctx context.Context, candidateID string) error {
	return m.storage.TransitionCandidate(ctx, candidateID,
		model.CandidateDismissed, model.CandidatePending)
}

// BulkApprove processes each id independently: one row failing validation
// does not abort the others. Categories are resolved per candidate from the
// caller's per-id overrides or the stored suggestion; bulk approval never
// invents a category for a row that has none.
func (m *Manager) BulkApprove(ctx context.Context, candidateIDs []string, categoryOverrides map[string]int) *BulkResult {
	result := &BulkResult{}
	for _, id := range candidateIDs {
		opts := ApproveOptions{}
		if override, ok := categoryOverrides[id]; ok {
			categoryID := override
			opts.CategoryID = &categoryID
		}

		if _, err := m.Approve(ctx, id, opts); err != nil {
			m.logger.Warn("Skipping candidate in bulk approve", "candidate_id", id, "error", err)
			result.Skipped = append(result.Skipped, SkippedItem{ID: id, Reason: err.Error()})
			continue
		}
		result.SuccessCount++
	}
	return result
}

// BulkDismiss dismisses each id independently, reporting skips.
func (m *Manager) BulkDismiss(ctx context.Context, candidateIDs []string) *BulkResult {
	result := &BulkResult{}
	for _, id := range candidateIDs {
		if err := m.Dismiss(ctx, id); err != nil {
			m.logger.Warn("Skipping candidate in bulk dismiss", "candidate_id", id, "error", err)
			result.Skipped = append(result.Skipped, SkippedItem{ID: id, Reason: err.Error()})
			continue
		}
		result.SuccessCount++
	}
	return result
}
