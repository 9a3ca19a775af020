// Package datemath provides calendar arithmetic over civil dates.
//
// Every date is represented as a time.Time at midnight UTC. The UTC location
// carries no meaning beyond making arithmetic immune to DST shifts; callers
// convert wall-clock input with Normalize or ParseISODate.
package datemath

import (
	"fmt"
	"time"

	"github.com/jinzhu/now"

	"github.com/julianstephens/perfassist/internal/constants"
	apperrors "github.com/julianstephens/perfassist/internal/errors"
	"github.com/julianstephens/perfassist/internal/locale"
)

// Weeks start on Monday (ISO 8601)
var calendar = &now.Config{
	WeekStartDay: time.Monday,
	TimeLocation: time.UTC,
}

// Normalize drops the time of day and zone, keeping the wall-clock date.
func Normalize(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseISODate parses a strict YYYY-MM-DD date.
func ParseISODate(s string) (time.Time, error) {
	t, err := time.Parse(constants.DateFormat, s)
	if err != nil {
		return time.Time{}, apperrors.NewInvalidDate(s, err)
	}
	return t, nil
}

// Validate returns an InvalidDate error for the zero time.
func Validate(d time.Time) error {
	if d.IsZero() {
		return apperrors.NewInvalidDate("", fmt.Errorf("zero date"))
	}
	return nil
}

// FormatISODate renders d as YYYY-MM-DD.
func FormatISODate(d time.Time) string {
	return d.Format(constants.DateFormat)
}

// FormatHuman renders d as "Weekday, Day Month Year" in the given locale.
func FormatHuman(d time.Time, loc locale.Locale) string {
	return fmt.Sprintf("%s, %d %s %d", loc.Weekday(d.Weekday()), d.Day(), loc.MonthOf(d.Month()), d.Year())
}

// StartOfWeek returns the Monday of the week containing d.
func StartOfWeek(d time.Time) time.Time {
	return Normalize(calendar.With(Normalize(d)).BeginningOfWeek())
}

// EndOfWeek returns the Sunday of the week containing d.
func EndOfWeek(d time.Time) time.Time {
	return AddDays(StartOfWeek(d), 6)
}

// StartOfMonth returns the first day of d's month.
func StartOfMonth(d time.Time) time.Time {
	return Normalize(calendar.With(Normalize(d)).BeginningOfMonth())
}

// EndOfMonth returns the last day of d's month.
func EndOfMonth(d time.Time) time.Time {
	return Normalize(calendar.With(Normalize(d)).EndOfMonth())
}

// StartOfQuarter returns the first day of the Jan/Apr/Jul/Oct block containing d.
func StartOfQuarter(d time.Time) time.Time {
	return Normalize(calendar.With(Normalize(d)).BeginningOfQuarter())
}

// EndOfQuarter returns the last day of the quarter containing d.
func EndOfQuarter(d time.Time) time.Time {
	return Normalize(calendar.With(Normalize(d)).EndOfQuarter())
}

// Quarter returns 1..4 for d's month.
func Quarter(d time.Time) int {
	return (int(d.Month())-1)/3 + 1
}

// AddDays offsets d by n calendar days.
func AddDays(d time.Time, n int) time.Time {
	return Normalize(d).AddDate(0, 0, n)
}

// AddWeeks offsets d by n weeks.
func AddWeeks(d time.Time, n int) time.Time {
	return AddDays(d, 7*n)
}

// AddMonths offsets d by n months. The day of month is clamped to the
// length of the target month, so Jan 31 + 1 month is the last day of
// February rather than a date in March.
func AddMonths(d time.Time, n int) time.Time {
	d = Normalize(d)
	first := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	day := d.Day()
	if last := DaysIn(first); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

// AddQuarters offsets d by n quarters with the same clamping as AddMonths.
func AddQuarters(d time.Time, n int) time.Time {
	return AddMonths(d, 3*n)
}

// DaysIn returns the number of days in d's month.
func DaysIn(d time.Time) int {
	return time.Date(d.Year(), d.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DaysBetween lists every date from start to end inclusive. It returns nil
// when end is before start.
func DaysBetween(start, end time.Time) []time.Time {
	start, end = Normalize(start), Normalize(end)
	if end.Before(start) {
		return nil
	}
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
