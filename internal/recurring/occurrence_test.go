package recurring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thetombrider/Personal-Finance-Hub-sub001/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestOccurrenceDatesMonthly(t *testing.T) {
	tests := []struct {
		name       string
		dayOfMonth int
		year       int
		month      time.Month
		want       time.Time
	}{
		{"plain day", 15, 2024, time.March, day(2024, time.March, 15)},
		{"day 31 clamps to leap february", 31, 2024, time.February, day(2024, time.February, 29)},
		{"day 31 clamps to non-leap february", 31, 2025, time.February, day(2025, time.February, 28)},
		{"day 31 clamps to april", 31, 2024, time.April, day(2024, time.April, 30)},
		{"day 31 fits december", 31, 2024, time.December, day(2024, time.December, 31)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := model.RecurringExpenseDefinition{
				Interval:   model.IntervalMonthly,
				DayOfMonth: tt.dayOfMonth,
				StartDate:  day(2020, time.January, 1),
			}
			dates := OccurrenceDates(def, tt.year, tt.month)
			require.Len(t, dates, 1)
			assert.True(t, dates[0].Equal(tt.want), "got %s want %s", dates[0], tt.want)
		})
	}
}

func TestOccurrenceDatesWeekly(t *testing.T) {
	def := model.RecurringExpenseDefinition{
		Interval:  model.IntervalWeekly,
		StartDate: day(2024, time.January, 1),
	}

	// January 2024 starts on the schedule's start date: five Mondays.
	dates := OccurrenceDates(def, 2024, time.January)
	require.Len(t, dates, 5)
	want := []int{1, 8, 15, 22, 29}
	for i, d := range dates {
		assert.Equal(t, want[i], d.Day())
		assert.Equal(t, time.January, d.Month())
	}

	// February continues the 7-day rhythm from January 29.
	dates = OccurrenceDates(def, 2024, time.February)
	require.Len(t, dates, 4)
	assert.Equal(t, 5, dates[0].Day())

	// Months before the start date have no occurrences.
	assert.Empty(t, OccurrenceDates(def, 2023, time.December))
}

func TestOccurrenceDatesWeeklyMidMonthStart(t *testing.T) {
	def := model.RecurringExpenseDefinition{
		Interval:  model.IntervalWeekly,
		StartDate: day(2024, time.March, 20),
	}

	dates := OccurrenceDates(def, 2024, time.March)
	require.Len(t, dates, 2)
	assert.Equal(t, 20, dates[0].Day())
	assert.Equal(t, 27, dates[1].Day())
}

func TestOccurrenceDatesQuarterly(t *testing.T) {
	def := model.RecurringExpenseDefinition{
		Interval:   model.IntervalQuarterly,
		DayOfMonth: 10,
		StartDate:  day(2024, time.January, 10),
	}

	// On-cycle months.
	for _, m := range []time.Month{time.January, time.April, time.July, time.October} {
		dates := OccurrenceDates(def, 2024, m)
		require.Len(t, dates, 1, "month %s", m)
		assert.Equal(t, 10, dates[0].Day())
	}

	// Off-cycle months.
	for _, m := range []time.Month{time.February, time.March, time.May} {
		assert.Empty(t, OccurrenceDates(def, 2024, m), "month %s", m)
	}

	// The cycle carries into following years.
	dates := OccurrenceDates(def, 2025, time.January)
	require.Len(t, dates, 1)

	// Months before the schedule began yield nothing.
	assert.Empty(t, OccurrenceDates(def, 2023, time.October))
}

func TestOccurrenceDatesYearly(t *testing.T) {
	def := model.RecurringExpenseDefinition{
		Interval:   model.IntervalYearly,
		DayOfMonth: 15,
		StartDate:  day(2022, time.June, 15),
	}

	dates := OccurrenceDates(def, 2024, time.June)
	require.Len(t, dates, 1)
	assert.True(t, dates[0].Equal(day(2024, time.June, 15)))

	assert.Empty(t, OccurrenceDates(def, 2024, time.May))
	assert.Empty(t, OccurrenceDates(def, 2024, time.July))
}

func TestOccurrenceDatesUnknownInterval(t *testing.T) {
	def := model.RecurringExpenseDefinition{Interval: "fortnightly", DayOfMonth: 1}
	assert.Empty(t, OccurrenceDates(def, 2024, time.January))
}
