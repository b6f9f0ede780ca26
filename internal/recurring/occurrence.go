// Package recurring expands recurring expense definitions into expected
// dates and verifies whether the expected payments actually hit the ledger.
package recurring

import (
	"time"

	"github.com/thetombrider/Personal-Finance-Hub-sub001/internal/model"
)

// OccurrenceDates expands a definition into the ordered expected dates for
// one month. The result can be empty (quarterly/yearly off-months, weekly
// schedules starting after the month). Day-of-month values past the month's
// end clamp to the last day, so dayOfMonth=31 still yields a valid February
// date.
func OccurrenceDates(def model.RecurringExpenseDefinition, year int, month time.Month) []time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	clamped := func() time.Time {
		day := def.DayOfMonth
		if day > last.Day() {
			day = last.Day()
		}
		return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	}

	switch def.Interval {
	case model.IntervalMonthly:
		return []time.Time{clamped()}

	case model.IntervalWeekly:
		start := truncateDay(def.StartDate)
		if start.After(last) {
			return nil
		}
		occurrence := start
		if start.Before(first) {
			// First 7-day step from the start date landing inside the month.
			days := int(first.Sub(start).Hours() / 24)
			occurrence = start.AddDate(0, 0, ((days+6)/7)*7)
		}
		var dates []time.Time
		for !occurrence.After(last) {
			dates = append(dates, occurrence)
			occurrence = occurrence.AddDate(0, 0, 7)
		}
		return dates

	case model.IntervalQuarterly:
		elapsed := (year-def.StartDate.Year())*12 + int(month) - int(def.StartDate.Month())
		if elapsed < 0 || elapsed%3 != 0 {
			return nil
		}
		return []time.Time{clamped()}

	case model.IntervalYearly:
		if month != def.StartDate.Month() {
			return nil
		}
		return []time.Time{clamped()}
	}

	return nil
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
