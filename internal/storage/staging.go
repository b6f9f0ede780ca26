package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/thetombrider/Personal-Finance-Hub-sub001/internal/common"
	"github.com/thetombrider/Personal-Finance-Hub-sub001/internal/model"
)

const candidateColumns = `id, account_id, date, amount, description,
	external_reference_id, suggested_category_id, status, created_at`

// CreateCandidate stores a new staged candidate. The unique constraint on
// (account_id, external_reference_id) makes re-syncs idempotent: a feed
// record that was already staged maps to ErrDuplicateEntry.
func (s *SQLiteStorage) CreateCandidate(ctx context.Context, candidate *model.CandidateEntry) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCandidate(candidate); err != nil {
		return err
	}
	if candidate.Status == "" {
		candidate.Status = model.CandidatePending
	}

	var suggested any
	if candidate.SuggestedCategoryID != nil {
		suggested = *candidate.SuggestedCategoryID
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO staged_candidates (
			id, account_id, date, amount, description,
			external_reference_id, suggested_category_id, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		candidate.ID,
		candidate.AccountID,
		candidate.Date,
		candidate.Amount,
		candidate.Description,
		candidate.ExternalReferenceID,
		suggested,
		string(candidate.Status),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("candidate for reference %s: %w",
				candidate.ExternalReferenceID, common.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create candidate: %w", err)
	}
	return nil
}

// GetCandidate fetches a staged candidate by id.
func (s *SQLiteStorage) GetCandidate(ctx context.Context, id string) (*model.CandidateEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+candidateColumns+` FROM staged_candidates WHERE id = ?`, id)
	candidate, err := scanCandidate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("candidate %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get candidate %s: %w", id, err)
	}
	return candidate, nil
}

// ListCandidates returns candidates for an account filtered by status.
// An empty status returns all of them.
func (s *SQLiteStorage) ListCandidates(ctx context.Context, accountID string, status model.CandidateStatus) ([]model.CandidateEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(accountID, "accountID"); err != nil {
		return nil, err
	}

	query := `SELECT ` + candidateColumns + ` FROM staged_candidates WHERE account_id = ?`
	args := []any{accountID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY date, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var candidates []model.CandidateEntry
	for rows.Next() {
		candidate, scanErr := scanCandidate(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", scanErr)
		}
		candidates = append(candidates, *candidate)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate candidates: %w", err)
	}
	return candidates, nil
}

// TransitionCandidate flips a candidate's status, but only from the expected
// current state. Operating on a row in any other state is rejected rather
// than silently ignored.
func (s *SQLiteStorage) TransitionCandidate(ctx context.Context, id string, from, to model.CandidateStatus) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE staged_candidates SET status = ? WHERE id = ? AND status = ?`,
		string(to), id, string(from))
	if err != nil {
		return fmt.Errorf("failed to transition candidate %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	// Distinguish an unknown id from a wrong-state row.
	var current string
	err = s.db.QueryRowContext(ctx,
		`SELECT status FROM staged_candidates WHERE id = ?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("candidate %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to inspect candidate %s: %w", id, err)
	}
	return common.NewValidationError("status",
		fmt.Sprintf("candidate is %s, expected %s", current, from))
}

// ApproveCandidate atomically marks a pending candidate reconciled and books
// the given ledger entry. If an entry already carries the candidate's
// external reference (e.g. a concurrent sync linked it), that entry is
// returned instead of creating a second one: a candidate and the entry for
// its external reference never coexist as independent live records.
func (s *SQLiteStorage) ApproveCandidate(ctx context.Context, candidateID string, entry model.LedgerEntry) (*model.LedgerEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(candidateID, "candidateID"); err != nil {
		return nil, err
	}
	if err := validateEntry(&entry); err != nil {
		return nil, err
	}
	entry.GenerateCanonicalKey()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE staged_candidates SET status = ? WHERE id = ? AND status = ?`,
		string(model.CandidateReconciled), candidateID, string(model.CandidatePending))
	if err != nil {
		return nil, fmt.Errorf("failed to mark candidate reconciled: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		var current string
		err = tx.QueryRowContext(ctx,
			`SELECT status FROM staged_candidates WHERE id = ?`, candidateID).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("candidate %s: %w", candidateID, common.ErrNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to inspect candidate %s: %w", candidateID, err)
		}
		return nil, common.NewValidationError("status",
			fmt.Sprintf("candidate is %s, expected pending", current))
	}

	res, err = tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO ledger_entries (
			id, account_id, date, amount, description, direction,
			category_id, canonical_key, external_reference_id, linked_entry_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		entry.ID,
		entry.AccountID,
		entry.Date,
		entry.Amount,
		entry.Description,
		string(entry.Direction),
		nullableInt(entry.CategoryID),
		entry.CanonicalKey,
		entry.ExternalReferenceID,
		entry.LinkedEntryID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert ledger entry: %w", err)
	}
	affected, err = res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read rows affected: %w", err)
	}

	result := entry
	if affected == 0 {
		// The external reference was already booked; discover that entry.
		row := tx.QueryRowContext(ctx,
			`SELECT `+entryColumns+` FROM ledger_entries
			 WHERE account_id = ? AND external_reference_id = ?`,
			entry.AccountID, entry.ExternalReferenceID)
		found, scanErr := scanEntry(row)
		if errors.Is(scanErr, sql.ErrNoRows) {
			// Ignored on canonical key rather than external reference.
			row = tx.QueryRowContext(ctx,
				`SELECT `+entryColumns+` FROM ledger_entries WHERE canonical_key = ?`,
				entry.CanonicalKey)
			found, scanErr = scanEntry(row)
		}
		if scanErr != nil {
			return nil, fmt.Errorf("failed to locate existing entry for %s: %w",
				entry.ExternalReferenceID, scanErr)
		}
		result = *found
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit approval: %w", err)
	}
	return &result, nil
}

func scanCandidate(row rowScanner) (*model.CandidateEntry, error) {
	var candidate model.CandidateEntry
	var status string
	var suggested sql.NullInt64

	err := row.Scan(
		&candidate.ID,
		&candidate.AccountID,
		&candidate.Date,
		&candidate.Amount,
		&candidate.Description,
		&candidate.ExternalReferenceID,
		&suggested,
		&status,
		&candidate.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	candidate.Status = model.CandidateStatus(status)
	if suggested.Valid {
		id := int(suggested.Int64)
		candidate.SuggestedCategoryID = &id
	}
	return &candidate, nil
}
