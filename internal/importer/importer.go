// Package importer implements bulk ledger imports with windowed duplicate
// detection.
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/thetombrider/Personal-Finance-Hub-sub001/internal/model"
	"github.com/thetombrider/Personal-Finance-Hub-sub001/internal/service"
)

// windowBuffer widens the batch's own date span on each side when loading
// existing rows, so a duplicate dated just outside the span is still caught.
const windowBuffer = 30 * 24 * time.Hour

// Service inserts transaction batches, silently rejecting exact duplicates.
type Service struct {
	storage service.Storage
	logger  *slog.Logger
}

// New creates a bulk importer backed by the given storage.
func New(storage service.Storage) *Service {
	return &Service{
		storage: storage,
		logger:  slog.Default().With("component", "importer"),
	}
}

// ImportBatch inserts a batch of rows and returns only the ones actually
// inserted. Duplicate detection loads existing rows for the affected
// accounts within the batch's date span widened by 30 days each side, and
// compares canonical keys through a hash set; the UNIQUE constraint on the
// canonical key backs this up against concurrent overlapping imports.
func (s *Service) ImportBatch(ctx context.Context, rows []model.LedgerEntry) ([]model.LedgerEntry, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	start, end := rows[0].Date, rows[0].Date
	accounts := make(map[string]struct{})
	for i := range rows {
		if rows[i].Date.Before(start) {
			start = rows[i].Date
		}
		if rows[i].Date.After(end) {
			end = rows[i].Date
		}
		accounts[rows[i].AccountID] = struct{}{}
	}

	accountIDs := make([]string, 0, len(accounts))
	for id := range accounts {
		accountIDs = append(accountIDs, id)
	}
	sort.Strings(accountIDs)

	existing, err := s.storage.ListEntriesByAccounts(ctx, accountIDs,
		start.Add(-windowBuffer), end.Add(windowBuffer))
	if err != nil {
		return nil, fmt.Errorf("failed to load existing entries: %w", err)
	}

	seen := make(map[string]struct{}, len(existing)+len(rows))
	for i := range existing {
		seen[existing[i].CanonicalKey] = struct{}{}
	}

	fresh := make([]model.LedgerEntry, 0, len(rows))
	for i := range rows {
		row := rows[i]
		if row.ID == "" {
			row.ID = uuid.NewString()
		}
		key := row.GenerateCanonicalKey()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		fresh = append(fresh, row)
	}

	inserted, err := s.storage.InsertEntries(ctx, fresh)
	if err != nil {
		return nil, fmt.Errorf("failed to insert batch: %w", err)
	}

	s.logger.Info("Imported batch",
		"received", len(rows),
		"inserted", len(inserted),
		"duplicates", len(rows)-len(inserted),
		"accounts", len(accountIDs))

	return inserted, nil
}
