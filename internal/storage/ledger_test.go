package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thetombrider/Personal-Finance-Hub-sub001/internal/common"
	"github.com/thetombrider/Personal-Finance-Hub-sub001/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStorage {
	t.Helper()

	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testEntry(id, accountID string, date time.Time, amount float64, desc string) model.LedgerEntry {
	return model.LedgerEntry{
		ID:          id,
		AccountID:   accountID,
		Date:        date,
		Amount:      amount,
		Description: desc,
		Direction:   model.DirectionExpense,
	}
}

func TestInsertEntriesDeduplicates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	first := testEntry("e1", "acc1", day, 12.50, "Coffee Shop")
	inserted, err := store.InsertEntries(ctx, []model.LedgerEntry{first})
	require.NoError(t, err)
	require.Len(t, inserted, 1)

	// Same normalized identity under a different id: silently ignored.
	dup := testEntry("e2", "acc1", day.Add(5*time.Hour), 12.50, "  coffee shop ")
	other := testEntry("e3", "acc1", day, 9.99, "Bakery")
	inserted, err = store.InsertEntries(ctx, []model.LedgerEntry{dup, other})
	require.NoError(t, err)
	require.Len(t, inserted, 1)
	assert.Equal(t, "e3", inserted[0].ID)

	// Re-running the whole batch is a no-op.
	inserted, err = store.InsertEntries(ctx, []model.LedgerEntry{first, dup, other})
	require.NoError(t, err)
	assert.Empty(t, inserted)

	entries, err := store.ListEntriesByAccounts(ctx, []string{"acc1"}, day.AddDate(0, 0, -1), day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestInsertEntriesValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		entry model.LedgerEntry
	}{
		{"missing id", testEntry("", "acc1", day, 1, "x")},
		{"missing account", testEntry("e1", "", day, 1, "x")},
		{"negative amount", testEntry("e1", "acc1", day, -1, "x")},
		{"bad direction", model.LedgerEntry{ID: "e1", AccountID: "acc1", Date: day, Amount: 1, Direction: "sideways"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.InsertEntries(ctx, []model.LedgerEntry{tt.entry})
			assert.Error(t, err)
		})
	}
}

func TestGetEntryNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetEntry(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestStampExternalReference(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	_, err := store.InsertEntries(ctx, []model.LedgerEntry{
		testEntry("e1", "acc1", day, 10, "one"),
		testEntry("e2", "acc1", day, 20, "two"),
	})
	require.NoError(t, err)

	require.NoError(t, store.StampExternalReference(ctx, "e1", "ext-1"))

	got, err := store.GetEntry(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "ext-1", got.ExternalReferenceID)

	// A stamped entry cannot be re-stamped.
	err = store.StampExternalReference(ctx, "e1", "ext-other")
	assert.ErrorIs(t, err, common.ErrNotFound)

	// The same reference cannot land on a second entry.
	err = store.StampExternalReference(ctx, "e2", "ext-1")
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)

	// Unknown entries are reported as such.
	err = store.StampExternalReference(ctx, "missing", "ext-2")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListUnlinkedEntries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	_, err := store.InsertEntries(ctx, []model.LedgerEntry{
		testEntry("e1", "acc1", day, 10, "one"),
		testEntry("e2", "acc1", day.AddDate(0, 0, 1), 20, "two"),
		testEntry("e3", "acc2", day, 30, "other account"),
	})
	require.NoError(t, err)
	require.NoError(t, store.StampExternalReference(ctx, "e2", "ext-2"))

	unlinked, err := store.ListUnlinkedEntries(ctx, "acc1", day.AddDate(0, 0, -7), day.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Len(t, unlinked, 1)
	assert.Equal(t, "e1", unlinked[0].ID)
}

func TestHasExternalReference(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	seen, err := store.HasExternalReference(ctx, "acc1", "ext-1")
	require.NoError(t, err)
	assert.False(t, seen)

	_, err = store.InsertEntries(ctx, []model.LedgerEntry{testEntry("e1", "acc1", day, 10, "one")})
	require.NoError(t, err)
	require.NoError(t, store.StampExternalReference(ctx, "e1", "ext-1"))

	seen, err = store.HasExternalReference(ctx, "acc1", "ext-1")
	require.NoError(t, err)
	assert.True(t, seen)

	// Staged candidates count as seen too.
	require.NoError(t, store.CreateCandidate(ctx, &model.CandidateEntry{
		ID: "c1", AccountID: "acc1", Date: day, Amount: -5, Description: "staged", ExternalReferenceID: "ext-2",
	}))
	seen, err = store.HasExternalReference(ctx, "acc1", "ext-2")
	require.NoError(t, err)
	assert.True(t, seen)

	// Scoped per account.
	seen, err = store.HasExternalReference(ctx, "acc2", "ext-1")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestDeleteEntryClearsBackReferences(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	target := testEntry("e1", "acc1", day, 10, "target")
	linked := testEntry("e2", "acc1", day, 20, "linked")
	linked.LinkedEntryID = "e1"
	_, err := store.InsertEntries(ctx, []model.LedgerEntry{target, linked})
	require.NoError(t, err)

	require.NoError(t, store.UpsertCheck(ctx, &model.RecurringExpenseCheck{
		RecurringExpenseID: "rent", Year: 2024, Month: 3,
		Status: model.CheckMatched, MatchedEntryID: "e1",
	}))

	require.NoError(t, store.DeleteEntry(ctx, "e1"))

	_, err = store.GetEntry(ctx, "e1")
	assert.ErrorIs(t, err, common.ErrNotFound)

	got, err := store.GetEntry(ctx, "e2")
	require.NoError(t, err)
	assert.Empty(t, got.LinkedEntryID)

	check, err := store.GetCheck(ctx, "rent", 2024, 3)
	require.NoError(t, err)
	assert.Empty(t, check.MatchedEntryID)

	err = store.DeleteEntry(ctx, "e1")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
