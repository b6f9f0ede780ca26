package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/thetombrider/Personal-Finance-Hub-sub001/internal/common"
	"github.com/thetombrider/Personal-Finance-Hub-sub001/internal/model"
)

const definitionColumns = `id, name, amount, interval, day_of_month,
	start_date, end_date, is_variable_amount, match_pattern, active`

// CreateDefinition stores a recurring expense definition.
func (s *SQLiteStorage) CreateDefinition(ctx context.Context, def *model.RecurringExpenseDefinition) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if def == nil {
		return fmt.Errorf("definition cannot be nil")
	}
	if err := validateString(def.ID, "definition ID"); err != nil {
		return err
	}
	if def.DayOfMonth < 1 || def.DayOfMonth > 31 {
		return common.NewValidationError("dayOfMonth",
			fmt.Sprintf("must be between 1 and 31, got %d", def.DayOfMonth))
	}
	switch def.Interval {
	case model.IntervalMonthly, model.IntervalWeekly, model.IntervalQuarterly, model.IntervalYearly:
	default:
		return common.NewValidationError("interval", fmt.Sprintf("unknown interval %q", def.Interval))
	}

	var endDate any
	if def.EndDate != nil {
		endDate = *def.EndDate
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO recurring_expenses (
			id, name, amount, interval, day_of_month,
			start_date, end_date, is_variable_amount, match_pattern, active
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		def.ID, def.Name, def.Amount, string(def.Interval), def.DayOfMonth,
		def.StartDate, endDate, def.IsVariableAmount, def.MatchPattern, def.Active,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("definition %s: %w", def.ID, common.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create definition: %w", err)
	}
	return nil
}

// GetDefinition fetches a recurring expense definition by id.
func (s *SQLiteStorage) GetDefinition(ctx context.Context, id string) (*model.RecurringExpenseDefinition, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+definitionColumns+` FROM recurring_expenses WHERE id = ?`, id)
	def, err := scanDefinition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("definition %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get definition %s: %w", id, err)
	}
	return def, nil
}

// ListActiveDefinitions returns all active recurring expense definitions.
func (s *SQLiteStorage) ListActiveDefinitions(ctx context.Context) ([]model.RecurringExpenseDefinition, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+definitionColumns+` FROM recurring_expenses WHERE active = 1 ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query definitions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var defs []model.RecurringExpenseDefinition
	for rows.Next() {
		def, scanErr := scanDefinition(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan definition: %w", scanErr)
		}
		defs = append(defs, *def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate definitions: %w", err)
	}
	return defs, nil
}

// UpsertCheck writes the result of one recurring-expense verification,
// keyed by (recurring_expense_id, year, month). Recomputation overwrites
// the previous result; it never accumulates rows.
func (s *SQLiteStorage) UpsertCheck(ctx context.Context, check *model.RecurringExpenseCheck) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if check == nil {
		return fmt.Errorf("check cannot be nil")
	}
	if err := validateString(check.RecurringExpenseID, "recurringExpenseID"); err != nil {
		return err
	}
	if check.Month < 1 || check.Month > 12 {
		return fmt.Errorf("invalid month: %d", check.Month)
	}

	var matchedDate, matchedAmount any
	if check.MatchedDate != nil {
		matchedDate = *check.MatchedDate
	}
	if check.MatchedAmount != nil {
		matchedAmount = *check.MatchedAmount
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO recurring_checks (
			recurring_expense_id, year, month, status,
			matched_entry_id, matched_date, matched_amount, checked_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(recurring_expense_id, year, month) DO UPDATE SET
			status = excluded.status,
			matched_entry_id = excluded.matched_entry_id,
			matched_date = excluded.matched_date,
			matched_amount = excluded.matched_amount,
			checked_at = CURRENT_TIMESTAMP
	`,
		check.RecurringExpenseID, check.Year, check.Month, string(check.Status),
		check.MatchedEntryID, matchedDate, matchedAmount,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert check: %w", err)
	}
	return nil
}

// GetCheck fetches one verification result.
func (s *SQLiteStorage) GetCheck(ctx context.Context, recurringExpenseID string, year, month int) (*model.RecurringExpenseCheck, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(recurringExpenseID, "recurringExpenseID"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT recurring_expense_id, year, month, status,
		       matched_entry_id, matched_date, matched_amount, checked_at
		FROM recurring_checks
		WHERE recurring_expense_id = ? AND year = ? AND month = ?
	`, recurringExpenseID, year, month)

	check, err := scanCheck(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("check for %s %d-%02d: %w", recurringExpenseID, year, month, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get check: %w", err)
	}
	return check, nil
}

// ListChecks returns all verification results for a period.
func (s *SQLiteStorage) ListChecks(ctx context.Context, year, month int) ([]model.RecurringExpenseCheck, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT recurring_expense_id, year, month, status,
		       matched_entry_id, matched_date, matched_amount, checked_at
		FROM recurring_checks
		WHERE year = ? AND month = ?
		ORDER BY recurring_expense_id
	`, year, month)
	if err != nil {
		return nil, fmt.Errorf("failed to query checks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var checks []model.RecurringExpenseCheck
	for rows.Next() {
		check, scanErr := scanCheck(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan check: %w", scanErr)
		}
		checks = append(checks, *check)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate checks: %w", err)
	}
	return checks, nil
}

func scanDefinition(row rowScanner) (*model.RecurringExpenseDefinition, error) {
	var def model.RecurringExpenseDefinition
	var interval string
	var endDate sql.NullTime

	err := row.Scan(
		&def.ID,
		&def.Name,
		&def.Amount,
		&interval,
		&def.DayOfMonth,
		&def.StartDate,
		&endDate,
		&def.IsVariableAmount,
		&def.MatchPattern,
		&def.Active,
	)
	if err != nil {
		return nil, err
	}

	def.Interval = model.RecurringInterval(interval)
	if endDate.Valid {
		d := endDate.Time
		def.EndDate = &d
	}
	return &def, nil
}

func scanCheck(row rowScanner) (*model.RecurringExpenseCheck, error) {
	var check model.RecurringExpenseCheck
	var status string
	var matchedDate sql.NullTime
	var matchedAmount sql.NullFloat64

	err := row.Scan(
		&check.RecurringExpenseID,
		&check.Year,
		&check.Month,
		&status,
		&check.MatchedEntryID,
		&matchedDate,
		&matchedAmount,
		&check.CheckedAt,
	)
	if err != nil {
		return nil, err
	}

	check.Status = model.CheckStatus(status)
	if matchedDate.Valid {
		d := matchedDate.Time
		check.MatchedDate = &d
	}
	if matchedAmount.Valid {
		a := matchedAmount.Float64
		check.MatchedAmount = &a
	}
	return &check, nil
}
