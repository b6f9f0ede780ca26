package model

import "time"

// RecurringInterval is the cadence of a recurring expense definition.
type RecurringInterval string

// Recurring interval constants.
const (
	IntervalMonthly   RecurringInterval = "monthly"
	IntervalWeekly    RecurringInterval = "weekly"
	IntervalQuarterly RecurringInterval = "quarterly"
	IntervalYearly    RecurringInterval = "yearly"
)

// RecurringExpenseDefinition is a user-declared schedule describing an
// expected periodic bill. Read-only to the reconciliation core.
type RecurringExpenseDefinition struct {
	StartDate        time.Time
	EndDate          *time.Time
	ID               string
	Name             string
	MatchPattern     string // optional substring used instead of the name
	Interval         RecurringInterval
	Amount           float64
	DayOfMonth       int // 1-31, clamped to the month's last day
	IsVariableAmount bool
	Active           bool
}

// CheckStatus is the outcome of matching one recurring expense for a period.
type CheckStatus string

// Check status constants.
const (
	CheckMatched CheckStatus = "MATCHED"
	CheckPending CheckStatus = "PENDING"
	CheckMissing CheckStatus = "MISSING"
)

// RecurringExpenseCheck is the derived result of one recurring-expense
// verification run. Unique per (RecurringExpenseID, Year, Month) and
// idempotently recomputed; it is a cache, not source of truth.
type RecurringExpenseCheck struct {
	CheckedAt          time.Time
	MatchedDate        *time.Time
	MatchedAmount      *float64
	RecurringExpenseID string
	MatchedEntryID     string
	Status             CheckStatus
	Year               int
	Month              int
}
