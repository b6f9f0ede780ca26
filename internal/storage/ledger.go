package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/thetombrider/Personal-Finance-Hub-sub001/internal/common"
	"github.com/thetombrider/Personal-Finance-Hub-sub001/internal/model"
)

const entryColumns = `id, account_id, date, amount, description, direction,
	category_id, canonical_key, external_reference_id, linked_entry_id, created_at`

// InsertEntries inserts a batch of ledger entries in a single transaction and
// returns the entries that were actually inserted. Rows whose canonical key
// already exists are silently ignored, so re-running an import is a no-op.
func (s *SQLiteStorage) InsertEntries(ctx context.Context, entries []model.LedgerEntry) ([]model.LedgerEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	for i := range entries {
		if err := validateEntry(&entries[i]); err != nil {
			return nil, err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO ledger_entries (
			id, account_id, date, amount, description, direction,
			category_id, canonical_key, external_reference_id, linked_entry_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	inserted := make([]model.LedgerEntry, 0, len(entries))
	for i := range entries {
		entry := entries[i]
		entry.GenerateCanonicalKey()

		res, execErr := stmt.ExecContext(ctx,
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
		if execErr != nil {
			return nil, fmt.Errorf("failed to insert entry %s: %w", entry.ID, execErr)
		}

		affected, raErr := res.RowsAffected()
		if raErr != nil {
			return nil, fmt.Errorf("failed to read rows affected: %w", raErr)
		}
		if affected > 0 {
			inserted = append(inserted, entry)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit entries: %w", err)
	}
	return inserted, nil
}

// GetEntry fetches a single ledger entry by id.
func (s *SQLiteStorage) GetEntry(ctx context.Context, id string) (*model.LedgerEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM ledger_entries WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("entry %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry %s: %w", id, err)
	}
	return entry, nil
}

// ListEntriesByAccounts returns entries for the given accounts within
// [start, end], ordered by date. Used by the importer's dedup window.
func (s *SQLiteStorage) ListEntriesByAccounts(ctx context.Context, accountIDs []string, start, end time.Time) ([]model.LedgerEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if len(accountIDs) == 0 {
		return nil, nil
	}
	if err := validateDateRange(start, end); err != nil {
		return nil, err
	}

	placeholders := strings.Repeat("?,", len(accountIDs)-1) + "?"
	args := make([]any, 0, len(accountIDs)+2)
	for _, id := range accountIDs {
		args = append(args, id)
	}
	args = append(args, start, end)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM ledger_entries
		 WHERE account_id IN (`+placeholders+`) AND date >= ? AND date <= ?
		 ORDER BY date, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanEntries(rows)
}

// ListEntriesByRange returns all entries within [start, end], ordered by
// date then id. Used by the recurring expense matcher's pre-fetch.
func (s *SQLiteStorage) ListEntriesByRange(ctx context.Context, start, end time.Time) ([]model.LedgerEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateDateRange(start, end); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM ledger_entries
		 WHERE date >= ? AND date <= ? ORDER BY date, id`, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanEntries(rows)
}

// ListUnlinkedEntries returns entries for one account within [start, end]
// that carry no external reference yet.
func (s *SQLiteStorage) ListUnlinkedEntries(ctx context.Context, accountID string, start, end time.Time) ([]model.LedgerEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(accountID, "accountID"); err != nil {
		return nil, err
	}
	if err := validateDateRange(start, end); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM ledger_entries
		 WHERE account_id = ? AND external_reference_id = '' AND date >= ? AND date <= ?
		 ORDER BY date, id`, accountID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query unlinked entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanEntries(rows)
}

// StampExternalReference records the feed's record id on an existing entry.
// The partial unique index on (account_id, external_reference_id) guarantees
// a reference is never stamped onto two entries, even across concurrent syncs.
func (s *SQLiteStorage) StampExternalReference(ctx context.Context, entryID, externalRef string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(entryID, "entryID"); err != nil {
		return err
	}
	if err := validateString(externalRef, "externalRef"); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE ledger_entries SET external_reference_id = ?
		 WHERE id = ? AND external_reference_id = ''`, externalRef, entryID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("external reference %s already linked: %w", externalRef, common.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to stamp external reference: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("entry %s not found or already linked: %w", entryID, common.ErrNotFound)
	}
	return nil
}

// DeleteEntry removes a ledger entry and clears back-references pointing at
// it (linked entries and recurring check matches) in one transaction.
func (s *SQLiteStorage) DeleteEntry(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`UPDATE ledger_entries SET linked_entry_id = '' WHERE linked_entry_id = ?`, id); err != nil {
		return fmt.Errorf("failed to clear linked entry references: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE recurring_checks SET matched_entry_id = '' WHERE matched_entry_id = ?`, id); err != nil {
		return fmt.Errorf("failed to clear recurring check references: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM ledger_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete entry %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("entry %s: %w", id, common.ErrNotFound)
	}

	return tx.Commit()
}

// HasExternalReference reports whether a feed record id has already been seen
// for this account, either on a ledger entry or on a staged candidate.
func (s *SQLiteStorage) HasExternalReference(ctx context.Context, accountID, externalRef string) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateString(accountID, "accountID"); err != nil {
		return false, err
	}
	if err := validateString(externalRef, "externalRef"); err != nil {
		return false, err
	}

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM ledger_entries
			 WHERE account_id = ? AND external_reference_id = ?) +
			(SELECT COUNT(*) FROM staged_candidates
			 WHERE account_id = ? AND external_reference_id = ?)
	`, accountID, externalRef, accountID, externalRef).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check external reference: %w", err)
	}
	return count > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*model.LedgerEntry, error) {
	var entry model.LedgerEntry
	var direction string
	var categoryID sql.NullInt64

	err := row.Scan(
		&entry.ID,
		&entry.AccountID,
		&entry.Date,
		&entry.Amount,
		&entry.Description,
		&direction,
		&categoryID,
		&entry.CanonicalKey,
		&entry.ExternalReferenceID,
		&entry.LinkedEntryID,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.Direction = model.EntryDirection(direction)
	if categoryID.Valid {
		entry.CategoryID = int(categoryID.Int64)
	}
	return &entry, nil
}

func scanEntries(rows *sql.Rows) ([]model.LedgerEntry, error) {
	var entries []model.LedgerEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entries: %w", err)
	}
	return entries, nil
}

func nullableInt(v int) any {
	if v == 0 {
		return nil
	}
	return v
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
