// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/thetombrider/Personal-Finance-Hub-sub001/internal/model"
)

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Ledger operations
	InsertEntries(ctx context.Context, entries []model.LedgerEntry) ([]model.LedgerEntry, error)
	GetEntry(ctx context.Context, id string) (*model.LedgerEntry, error)
	ListEntriesByAccounts(ctx context.Context, accountIDs []string, start, end time.Time) ([]model.LedgerEntry, error)
	ListEntriesByRange(ctx context.Context, start, end time.Time) ([]model.LedgerEntry, error)
	ListUnlinkedEntries(ctx context.Context, accountID string, start, end time.Time) ([]model.LedgerEntry, error)
	StampExternalReference(ctx context.Context, entryID, externalRef string) error
	DeleteEntry(ctx context.Context, id string) error
	HasExternalReference(ctx context.Context, accountID, externalRef string) (bool, error)

	// Staging operations
	CreateCandidate(ctx context.Context, candidate *model.CandidateEntry) error
	GetCandidate(ctx context.Context, id string) (*model.CandidateEntry, error)
	ListCandidates(ctx context.Context, accountID string, status model.CandidateStatus) ([]model.CandidateEntry, error)
	TransitionCandidate(ctx context.Context, id string, from, to model.CandidateStatus) error
	ApproveCandidate(ctx context.Context, candidateID string, entry model.LedgerEntry) (*model.LedgerEntry, error)

	// Recurring expense operations
	CreateDefinition(ctx context.Context, def *model.RecurringExpenseDefinition) error
	GetDefinition(ctx context.Context, id string) (*model.RecurringExpenseDefinition, error)
	ListActiveDefinitions(ctx context.Context) ([]model.RecurringExpenseDefinition, error)
	UpsertCheck(ctx context.Context, check *model.RecurringExpenseCheck) error
	GetCheck(ctx context.Context, recurringExpenseID string, year, month int) (*model.RecurringExpenseCheck, error)
	ListChecks(ctx context.Context, year, month int) ([]model.RecurringExpenseCheck, error)

	// Category operations
	CreateCategory(ctx context.Context, name string, categoryType model.CategoryType) (*model.Category, error)
	GetCategories(ctx context.Context) ([]model.Category, error)
	GetCategoryByID(ctx context.Context, id int) (*model.Category, error)

	// Account operations
	CreateAccount(ctx context.Context, account *model.Account) error
	GetAccount(ctx context.Context, id string) (*model.Account, error)
	ListAccounts(ctx context.Context) ([]model.Account, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// CategorySuggester is the external classification collaborator: description
// plus available categories in, optional suggested category id out. It must
// tolerate unavailability; callers treat errors as "no suggestion".
type CategorySuggester interface {
	SuggestCategory(ctx context.Context, description string, categories []model.Category) (*int, error)
}
