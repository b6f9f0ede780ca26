package recurring

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thetombrider/Personal-Finance-Hub-sub001/internal/model"
	"github.com/thetombrider/Personal-Finance-Hub-sub001/internal/storage"
	"github.com/thetombrider/Personal-Finance-Hub-sub001/internal/testutil"
)

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func seedDefinition(t *testing.T, store *storage.SQLiteStorage, def model.RecurringExpenseDefinition) {
	t.Helper()
	require.NoError(t, store.CreateDefinition(context.Background(), &def))
}

func seedEntry(t *testing.T, store *storage.SQLiteStorage, id string, date time.Time, amount float64, desc string) {
	t.Helper()
	inserted, err := store.InsertEntries(context.Background(), []model.LedgerEntry{{
		ID:          id,
		AccountID:   "acc1",
		Date:        date,
		Amount:      amount,
		Description: desc,
		Direction:   model.DirectionExpense,
	}})
	require.NoError(t, err)
	require.Len(t, inserted, 1)
}

func rentDefinition() model.RecurringExpenseDefinition {
	return model.RecurringExpenseDefinition{
		ID:         "rent",
		Name:       "Rent",
		Amount:     950,
		Interval:   model.IntervalMonthly,
		DayOfMonth: 10,
		StartDate:  day(2024, time.January, 1),
		Active:     true,
	}
}

func TestCheckerMatchesWithinTolerance(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	def := rentDefinition()
	def.Amount = 50
	seedDefinition(t, store, def)
	seedEntry(t, store, "e1", day(2025, time.March, 11), 58, "RENT PAYMENT")

	checker := NewChecker(store, fixedNow(day(2025, time.March, 25)))
	checks, err := checker.Run(ctx, 2025, time.March)
	require.NoError(t, err)
	require.Len(t, checks, 1)

	assert.Equal(t, model.CheckMatched, checks[0].Status)
	assert.Equal(t, "e1", checks[0].MatchedEntryID)
	require.NotNil(t, checks[0].MatchedAmount)
	assert.InDelta(t, 58, *checks[0].MatchedAmount, 0.0001)

	// The result is persisted under the period key.
	stored, err := store.GetCheck(ctx, "rent", 2025, 3)
	require.NoError(t, err)
	assert.Equal(t, model.CheckMatched, stored.Status)
}

func TestCheckerAmountOutsideTolerance(t *testing.T) {
	store := testutil.SetupTestDB(t)

	def := rentDefinition()
	def.Amount = 50
	seedDefinition(t, store, def)
	seedEntry(t, store, "e1", day(2025, time.March, 11), 65, "RENT PAYMENT")

	checker := NewChecker(store, fixedNow(day(2025, time.March, 25)))
	checks, err := checker.Run(context.Background(), 2025, time.March)
	require.NoError(t, err)
	require.Len(t, checks, 1)
	assert.Equal(t, model.CheckMissing, checks[0].Status)
}

func TestCheckerVariableAmountIgnoresTolerance(t *testing.T) {
	store := testutil.SetupTestDB(t)

	def := rentDefinition()
	def.Amount = 50
	def.IsVariableAmount = true
	seedDefinition(t, store, def)
	seedEntry(t, store, "e1", day(2025, time.March, 11), 500, "RENT PAYMENT")

	checker := NewChecker(store, fixedNow(day(2025, time.March, 25)))
	checks, err := checker.Run(context.Background(), 2025, time.March)
	require.NoError(t, err)
	require.Len(t, checks, 1)
	assert.Equal(t, model.CheckMatched, checks[0].Status)
}

func TestCheckerDateWindow(t *testing.T) {
	tests := []struct {
		name      string
		entryDate time.Time
		want      model.CheckStatus
	}{
		{"five days early", day(2025, time.March, 5), model.CheckMatched},
		{"five days late", day(2025, time.March, 15), model.CheckMatched},
		{"six days early", day(2025, time.March, 4), model.CheckMissing},
		{"six days late", day(2025, time.March, 16), model.CheckMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := testutil.SetupTestDB(t)
			seedDefinition(t, store, rentDefinition())
			seedEntry(t, store, "e1", tt.entryDate, 950, "RENT PAYMENT")

			checker := NewChecker(store, fixedNow(day(2025, time.March, 25)))
			checks, err := checker.Run(context.Background(), 2025, time.March)
			require.NoError(t, err)
			require.Len(t, checks, 1)
			assert.Equal(t, tt.want, checks[0].Status)
		})
	}
}

func TestCheckerPendingBeforeExpectedDate(t *testing.T) {
	store := testutil.SetupTestDB(t)
	seedDefinition(t, store, rentDefinition())

	// Expected on the 10th; today is the 5th, so the bill isn't late yet.
	checker := NewChecker(store, fixedNow(day(2025, time.March, 5)))
	checks, err := checker.Run(context.Background(), 2025, time.March)
	require.NoError(t, err)
	require.Len(t, checks, 1)
	assert.Equal(t, model.CheckPending, checks[0].Status)

	// Past the expected date with no payment it flips to missing.
	checker = NewChecker(store, fixedNow(day(2025, time.March, 20)))
	checks, err = checker.Run(context.Background(), 2025, time.March)
	require.NoError(t, err)
	require.Len(t, checks, 1)
	assert.Equal(t, model.CheckMissing, checks[0].Status)

	// Still one row after the recompute.
	stored, err := store.ListChecks(context.Background(), 2025, 3)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestCheckerDescriptionMatching(t *testing.T) {
	tests := []struct {
		name    string
		defName string
		pattern string
		desc    string
		want    model.CheckStatus
	}{
		{"name substring", "Netflix", "", "NETFLIX.COM SUBSCRIPTION", model.CheckMatched},
		{"pattern overrides name", "Streaming", "NFLX", "NFLX*PAYMENT", model.CheckMatched},
		{"pattern set but absent", "Netflix", "NFLX", "NETFLIX.COM SUBSCRIPTION", model.CheckMissing},
		{"token fallback", "Gym Membership Fees", "", "CITY GYMS MEMBERSHIP DD", model.CheckMatched},
		{"short tokens ignored", "Gas Co", "", "GAS", model.CheckMissing},
		{"no overlap", "Rent", "", "GROCERIES", model.CheckMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := testutil.SetupTestDB(t)
			def := rentDefinition()
			def.Name = tt.defName
			def.MatchPattern = tt.pattern
			seedDefinition(t, store, def)
			seedEntry(t, store, "e1", day(2025, time.March, 10), 950, tt.desc)

			checker := NewChecker(store, fixedNow(day(2025, time.March, 25)))
			checks, err := checker.Run(context.Background(), 2025, time.March)
			require.NoError(t, err)
			require.Len(t, checks, 1)
			assert.Equal(t, tt.want, checks[0].Status)
		})
	}
}

func TestCheckerPicksClosestEntry(t *testing.T) {
	store := testutil.SetupTestDB(t)
	seedDefinition(t, store, rentDefinition())

	seedEntry(t, store, "far", day(2025, time.March, 14), 950, "RENT PAYMENT LATE")
	seedEntry(t, store, "near", day(2025, time.March, 11), 950, "RENT PAYMENT")

	checker := NewChecker(store, fixedNow(day(2025, time.March, 25)))
	checks, err := checker.Run(context.Background(), 2025, time.March)
	require.NoError(t, err)
	require.Len(t, checks, 1)
	assert.Equal(t, "near", checks[0].MatchedEntryID)
}

func TestCheckerTieBreaksOnEntryID(t *testing.T) {
	store := testutil.SetupTestDB(t)
	seedDefinition(t, store, rentDefinition())

	// Equidistant from the expected 10th.
	seedEntry(t, store, "b-entry", day(2025, time.March, 12), 950, "RENT PAYMENT")
	seedEntry(t, store, "a-entry", day(2025, time.March, 8), 950, "RENT PAYMENT ALSO")

	checker := NewChecker(store, fixedNow(day(2025, time.March, 25)))
	checks, err := checker.Run(context.Background(), 2025, time.March)
	require.NoError(t, err)
	require.Len(t, checks, 1)
	assert.Equal(t, "a-entry", checks[0].MatchedEntryID)
}

func TestCheckerSkipsOutOfLifeDefinitions(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	// Ended before the period.
	ended := rentDefinition()
	ended.ID = "ended"
	end := day(2025, time.January, 31)
	ended.EndDate = &end
	seedDefinition(t, store, ended)

	// Starts after the period.
	future := rentDefinition()
	future.ID = "future"
	future.StartDate = day(2025, time.June, 1)
	seedDefinition(t, store, future)

	// Inactive definitions are never evaluated.
	inactive := rentDefinition()
	inactive.ID = "inactive"
	inactive.Active = false
	seedDefinition(t, store, inactive)

	checker := NewChecker(store, fixedNow(day(2025, time.March, 25)))
	checks, err := checker.Run(ctx, 2025, time.March)
	require.NoError(t, err)
	assert.Empty(t, checks)

	stored, err := store.ListChecks(ctx, 2025, 3)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestCheckerWeeklyEvaluatesFirstOccurrence(t *testing.T) {
	store := testutil.SetupTestDB(t)

	def := rentDefinition()
	def.ID = "gym"
	def.Name = "Gym"
	def.Amount = 25
	def.Interval = model.IntervalWeekly
	def.StartDate = day(2024, time.January, 1)
	seedDefinition(t, store, def)

	// Payment near the first January occurrence (the 1st).
	seedEntry(t, store, "e1", day(2024, time.January, 3), 25, "CITY GYM DD")

	checker := NewChecker(store, fixedNow(day(2024, time.January, 31)))
	checks, err := checker.Run(context.Background(), 2024, time.January)
	require.NoError(t, err)
	require.Len(t, checks, 1)
	assert.Equal(t, model.CheckMatched, checks[0].Status)
	assert.Equal(t, 1, checks[0].Month)
}
