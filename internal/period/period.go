// Package period derives feed windows and labels from a reference date and
// a period unit.
package period

import (
	"fmt"
	"time"

	"github.com/julianstephens/perfassist/internal/constants"
	"github.com/julianstephens/perfassist/internal/datemath"
	"github.com/julianstephens/perfassist/internal/locale"
)

// Unit is the aggregation granularity of the feed
type Unit int

const (
	Week Unit = iota
	Month
	Quarter
)

// Units lists the selectable units in display order
var Units = []Unit{Week, Month, Quarter}

func (u Unit) String() string {
	switch u {
	case Week:
		return constants.PeriodWeek
	case Month:
		return constants.PeriodMonth
	case Quarter:
		return constants.PeriodQuarter
	default:
		return fmt.Sprintf("unit(%d)", int(u))
	}
}

// ParseUnit converts "week", "month" or "quarter" into a Unit
func ParseUnit(s string) (Unit, error) {
	switch s {
	case constants.PeriodWeek:
		return Week, nil
	case constants.PeriodMonth:
		return Month, nil
	case constants.PeriodQuarter:
		return Quarter, nil
	default:
		return Week, fmt.Errorf("invalid period %q (expected week, month or quarter)", s)
	}
}

// Direction is the navigation step sign
type Direction int

const (
	Prev Direction = -1
	Next Direction = 1
)

// Window is an inclusive range of civil dates
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether d falls inside the window, bounds included.
func (w Window) Contains(d time.Time) bool {
	d = datemath.Normalize(d)
	return !d.Before(w.Start) && !d.After(w.End)
}

// ContainsISO is Contains for a YYYY-MM-DD string; unparseable dates are
// never contained.
func (w Window) ContainsISO(s string) bool {
	d, err := datemath.ParseISODate(s)
	if err != nil {
		return false
	}
	return w.Contains(d)
}

// Days lists every date in the window.
func (w Window) Days() []time.Time {
	return datemath.DaysBetween(w.Start, w.End)
}

func (w Window) String() string {
	return datemath.FormatISODate(w.Start) + ".." + datemath.FormatISODate(w.End)
}

// DayWindow is the single-day window for d.
func DayWindow(d time.Time) Window {
	d = datemath.Normalize(d)
	return Window{Start: d, End: d}
}

// WindowFor computes the window of unit that contains ref.
func WindowFor(ref time.Time, unit Unit) (Window, error) {
	if err := datemath.Validate(ref); err != nil {
		return Window{}, err
	}
	switch unit {
	case Week:
		return Window{Start: datemath.StartOfWeek(ref), End: datemath.EndOfWeek(ref)}, nil
	case Month:
		return Window{Start: datemath.StartOfMonth(ref), End: datemath.EndOfMonth(ref)}, nil
	case Quarter:
		return Window{Start: datemath.StartOfQuarter(ref), End: datemath.EndOfQuarter(ref)}, nil
	default:
		return Window{}, fmt.Errorf("unknown period unit %d", int(unit))
	}
}

// TitleFor renders the label of the window of unit containing ref:
// "D Mon – D Mon" for weeks, "Month YYYY" for months and "Qn YYYY" for quarters.
func TitleFor(ref time.Time, unit Unit, loc locale.Locale) (string, error) {
	w, err := WindowFor(ref, unit)
	if err != nil {
		return "", err
	}
	switch unit {
	case Week:
		return WeekRangeTitle(w.Start, loc), nil
	case Month:
		return fmt.Sprintf("%s %d", loc.Month(w.Start.Month()), w.Start.Year()), nil
	default:
		return fmt.Sprintf("Q%d %d", datemath.Quarter(w.Start), w.Start.Year()), nil
	}
}

// WeekRangeTitle renders "D Mon – D Mon" for the week starting at weekStart.
// It is also used for the headings of week buckets.
func WeekRangeTitle(weekStart time.Time, loc locale.Locale) string {
	end := datemath.AddDays(weekStart, 6)
	return fmt.Sprintf("%d %s – %d %s",
		weekStart.Day(), loc.MonthShort(weekStart.Month()),
		end.Day(), loc.MonthShort(end.Month()))
}
