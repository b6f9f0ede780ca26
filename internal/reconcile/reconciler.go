// Package reconcile consumes external transaction feeds and reconciles them
// against the ledger, staging whatever cannot be linked.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/thetombrider/Personal-Finance-Hub-sub001/internal/feed"
	"github.com/thetombrider/Personal-Finance-Hub-sub001/internal/model"
	"github.com/thetombrider/Personal-Finance-Hub-sub001/internal/service"
)

const (
	// amountTolerance absorbs float representation noise when comparing
	// feed amounts to booked amounts.
	amountTolerance = 0.001
	// linkWindowDays is how far an existing entry's date may sit from the
	// feed record's booking date and still be considered the same payment.
	linkWindowDays = 3
)

// Reconciler links feed records to existing ledger entries and stages the
// rest for review.
type Reconciler struct {
	storage    service.Storage
	source     feed.Source
	classifier service.CategorySuggester
	logger     *slog.Logger
}

// New creates a reconciler. The classifier may be nil, in which case staged
// candidates simply carry no suggestion.
func New(storage service.Storage, source feed.Source, classifier service.CategorySuggester) *Reconciler {
	return &Reconciler{
		storage:    storage,
		source:     source,
		classifier: classifier,
		logger:     slog.Default().With("component", "reconcile"),
	}
}

// RecordFailure reports one feed record that could not be processed.
type RecordFailure struct {
	ExternalReferenceID string
	Reason              string
}

// SyncSummary reports the outcome of one account sync.
type SyncSummary struct {
	Failures    []RecordFailure
	AccountID   string
	Fetched     int
	Linked      int
	Staged      int
	AlreadySeen int
}

// SyncAccount fetches the account's feed for [start, end] and processes each
// record: already-seen references are skipped, amount/date matches against
// unlinked entries are stamped in place, and everything else becomes a
// pending candidate. Safe to re-run; a second sync of the same window is a
// no-op. Feed authentication failures propagate after exactly one forced
// re-authentication retry; rate limits propagate as common.ErrRateLimit.
func (r *Reconciler) SyncAccount(ctx context.Context, accountID string, start, end time.Time) (*SyncSummary, error) {
	account, err := r.storage.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	records, err := feed.FetchWithReauth(ctx, r.source, account.FeedItemID, start, end)
	if err != nil {
		return nil, fmt.Errorf("feed fetch for account %s: %w", accountID, err)
	}

	categories, err := r.storage.GetCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading categories: %w", err)
	}

	// One windowed load instead of a query per record; entries stamped in
	// this run are removed from the pool so a second record can't claim them.
	unlinked, err := r.storage.ListUnlinkedEntries(ctx, accountID,
		truncateDay(start).AddDate(0, 0, -linkWindowDays),
		truncateDay(end).AddDate(0, 0, linkWindowDays))
	if err != nil {
		return nil, fmt.Errorf("loading unlinked entries: %w", err)
	}

	summary := &SyncSummary{AccountID: accountID, Fetched: len(records)}
	for _, record := range records {
		outcome, recErr := r.processRecord(ctx, accountID, record, categories, &unlinked)
		if recErr != nil {
			r.logger.Warn("Failed to process feed record",
				"account_id", accountID,
				"external_reference_id", record.ExternalReferenceID,
				"error", recErr)
			summary.Failures = append(summary.Failures, RecordFailure{
				ExternalReferenceID: record.ExternalReferenceID,
				Reason:              recErr.Error(),
			})
			continue
		}

		switch outcome {
		case outcomeLinked:
			summary.Linked++
		case outcomeStaged:
			summary.Staged++
		case outcomeSeen:
			summary.AlreadySeen++
		}
	}

	r.logger.Info("Account sync complete",
		"account_id", accountID,
		"fetched", summary.Fetched,
		"linked", summary.Linked,
		"staged", summary.Staged,
		"already_seen", summary.AlreadySeen,
		"failed", len(summary.Failures))
	return summary, nil
}

type recordOutcome int

const (
	outcomeSeen recordOutcome = iota
	outcomeLinked
	outcomeStaged
)

func (r *Reconciler) processRecord(ctx context.Context, accountID string, record feed.Transaction, categories []model.Category, unlinked *[]model.LedgerEntry) (recordOutcome, error) {
	if record.ExternalReferenceID == "" {
		return 0, fmt.Errorf("feed record has no external reference id")
	}

	seen, err := r.storage.HasExternalReference(ctx, accountID, record.ExternalReferenceID)
	if err != nil {
		return 0, err
	}
	if seen {
		return outcomeSeen, nil
	}

	if idx := findMatch(*unlinked, record); idx >= 0 {
		entry := (*unlinked)[idx]
		if err := r.storage.StampExternalReference(ctx, entry.ID, record.ExternalReferenceID); err != nil {
			return 0, err
		}
		*unlinked = append((*unlinked)[:idx], (*unlinked)[idx+1:]...)
		return outcomeLinked, nil
	}

	candidate := model.CandidateEntry{
		ID:                  uuid.NewString(),
		AccountID:           accountID,
		Date:                record.BookingDate,
		Amount:              record.Amount,
		Description:         record.Memo,
		ExternalReferenceID: record.ExternalReferenceID,
		Status:              model.CandidatePending,
	}

	// Classification is best-effort: an unavailable suggester never blocks
	// ingestion of the record.
	if r.classifier != nil {
		suggested, classErr := r.classifier.SuggestCategory(ctx, record.Memo, categories)
		if classErr != nil {
			r.logger.Warn("Classification lookup failed, staging without suggestion",
				"external_reference_id", record.ExternalReferenceID, "error", classErr)
		} else {
			candidate.SuggestedCategoryID = suggested
		}
	}

	if err := r.storage.CreateCandidate(ctx, &candidate); err != nil {
		return 0, err
	}
	return outcomeStaged, nil
}

// findMatch returns the index of the first unlinked entry whose absolute
// amount is within tolerance of the record's and whose date falls within
// three days of the booking date, or -1.
func findMatch(unlinked []model.LedgerEntry, record feed.Transaction) int {
	feedAmount := math.Abs(record.Amount)
	bookingDay := truncateDay(record.BookingDate)

	for i := range unlinked {
		if math.Abs(unlinked[i].Amount-feedAmount) >= amountTolerance {
			continue
		}
		delta := truncateDay(unlinked[i].Date).Sub(bookingDay)
		if delta < 0 {
			delta = -delta
		}
		if delta <= linkWindowDays*24*time.Hour {
			return i
		}
	}
	return -1
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
