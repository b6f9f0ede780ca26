package recurring

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/thetombrider/Personal-Finance-Hub-sub001/internal/model"
	"github.com/thetombrider/Personal-Finance-Hub-sub001/internal/service"
)

const (
	// amountTolerance is deliberately loose, sized for slightly-variable
	// bills (a utility invoice a few currency units off still matches).
	amountTolerance = 12.0
	// matchWindowDays is how far a booked transaction may sit from the
	// expected occurrence date.
	matchWindowDays = 5
	// tokenMinLength filters short noise words out of the name-token
	// fallback match.
	tokenMinLength = 3
)

// Checker verifies recurring expense definitions against the ledger and
// upserts one result per (definition, year, month).
type Checker struct {
	storage service.Storage
	now     func() time.Time
	logger  *slog.Logger
}

// NewChecker creates a checker. The clock is injectable for tests; nil
// defaults to time.Now.
func NewChecker(storage service.Storage, now func() time.Time) *Checker {
	if now == nil {
		now = time.Now
	}
	return &Checker{
		storage: storage,
		now:     now,
		logger:  slog.Default().With("component", "recurring"),
	}
}

// Run recomputes the checks for every active definition for the given
// period. A definition that fails is logged and skipped so the rest
// complete; results are upserted, so re-running overwrites rather than
// accumulates.
func (c *Checker) Run(ctx context.Context, year int, month time.Month) ([]model.RecurringExpenseCheck, error) {
	defs, err := c.storage.ListActiveDefinitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading definitions: %w", err)
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	entries, err := c.storage.ListEntriesByRange(ctx,
		first.AddDate(0, 0, -matchWindowDays), last.AddDate(0, 0, matchWindowDays))
	if err != nil {
		return nil, fmt.Errorf("loading ledger entries: %w", err)
	}

	var checks []model.RecurringExpenseCheck
	for i := range defs {
		check := c.evaluate(defs[i], year, month, entries)
		if check == nil {
			continue
		}
		if err := c.storage.UpsertCheck(ctx, check); err != nil {
			c.logger.Warn("Failed to store recurring check",
				"definition_id", defs[i].ID, "error", err)
			continue
		}
		checks = append(checks, *check)
	}

	c.logger.Info("Recurring checks complete",
		"year", year, "month", int(month),
		"definitions", len(defs), "checks", len(checks))
	return checks, nil
}

// evaluate classifies one definition for the period, or returns nil when the
// period is out of the definition's life: ended before it, no occurrence in
// it, or the occurrence predates the start date.
//
// A month can hold several weekly occurrences, but results are keyed per
// (definition, year, month), so only the first occurrence is evaluated.
func (c *Checker) evaluate(def model.RecurringExpenseDefinition, year int, month time.Month, entries []model.LedgerEntry) *model.RecurringExpenseCheck {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	if def.EndDate != nil && truncateDay(*def.EndDate).Before(first) {
		return nil
	}

	occurrences := OccurrenceDates(def, year, month)
	if len(occurrences) == 0 {
		return nil
	}

	expected := occurrences[0]
	if expected.Before(truncateDay(def.StartDate)) {
		return nil
	}

	check := &model.RecurringExpenseCheck{
		RecurringExpenseID: def.ID,
		Year:               year,
		Month:              int(month),
	}

	if best := bestMatch(def, expected, entries); best != nil {
		matchedDate := best.Date
		matchedAmount := best.Amount
		check.Status = model.CheckMatched
		check.MatchedEntryID = best.ID
		check.MatchedDate = &matchedDate
		check.MatchedAmount = &matchedAmount
		return check
	}

	if truncateDay(c.now()).Before(expected) {
		check.Status = model.CheckPending
	} else {
		check.Status = model.CheckMissing
	}
	return check
}

// bestMatch scans the pre-fetched entries for rows satisfying the amount and
// description rules inside the ±5 day window and returns the one closest to
// the expected date. Equal distances break toward the lowest entry id so the
// result is deterministic regardless of scan order.
func bestMatch(def model.RecurringExpenseDefinition, expected time.Time, entries []model.LedgerEntry) *model.LedgerEntry {
	var best *model.LedgerEntry
	var bestDistance time.Duration

	for i := range entries {
		entry := &entries[i]
		delta := truncateDay(entry.Date).Sub(expected)
		if delta < 0 {
			delta = -delta
		}
		if delta > matchWindowDays*24*time.Hour {
			continue
		}
		if !amountMatches(def, entry.Amount) {
			continue
		}
		if !descriptionMatches(def, entry.Description) {
			continue
		}

		if best == nil || delta < bestDistance ||
			(delta == bestDistance && entry.ID < best.ID) {
			best = entry
			bestDistance = delta
		}
	}
	return best
}

func amountMatches(def model.RecurringExpenseDefinition, amount float64) bool {
	if def.IsVariableAmount {
		return true
	}
	return math.Abs(math.Abs(amount)-def.Amount) < amountTolerance
}

// descriptionMatches applies the match pattern if set, else a substring
// match on the definition name, else the token fallback: any name token
// longer than three characters found inside the description.
func descriptionMatches(def model.RecurringExpenseDefinition, description string) bool {
	haystack := strings.ToLower(description)

	if def.MatchPattern != "" {
		return strings.Contains(haystack, strings.ToLower(def.MatchPattern))
	}
	if strings.Contains(haystack, strings.ToLower(def.Name)) {
		return true
	}
	for _, token := range strings.Fields(strings.ToLower(def.Name)) {
		if len(token) > tokenMinLength && strings.Contains(haystack, token) {
			return true
		}
	}
	return false
}
