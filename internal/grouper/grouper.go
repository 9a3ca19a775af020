// Package grouper buckets entries by week and folds them into per-day
// plan/fact pairs. All functions are pure.
package grouper

import (
	"fmt"
	"sort"

	"github.com/julianstephens/perfassist/internal/datemath"
	"github.com/julianstephens/perfassist/internal/models"
	"github.com/julianstephens/perfassist/internal/period"
)

// GroupByWeek keys entries by the ISO date of their week's Monday. Each
// bucket keeps the input order. An entry with an unparseable date fails the
// whole grouping.
func GroupByWeek(entries []models.Entry) (map[string][]models.Entry, error) {
	grouped := make(map[string][]models.Entry)
	for _, e := range entries {
		d, err := datemath.ParseISODate(e.Date)
		if err != nil {
			return nil, err
		}
		key := datemath.FormatISODate(datemath.StartOfWeek(d))
		grouped[key] = append(grouped[key], e)
	}
	return grouped, nil
}

// WeekKeysDescending returns the bucket keys with the most recent week first.
func WeekKeysDescending(groups map[string][]models.Entry) []string {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	// ISO dates sort lexically
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	return keys
}

// GroupByDate folds entries into one DayPair per date. A duplicate
// (date, kind) overwrites the earlier one. An unparseable date or an
// unknown kind fails the whole grouping.
func GroupByDate(entries []models.Entry) (map[string]models.DayPair, error) {
	grouped := make(map[string]models.DayPair)
	for _, e := range entries {
		if _, err := datemath.ParseISODate(e.Date); err != nil {
			return nil, err
		}
		pair := grouped[e.Date]
		if !pair.Set(e) {
			return nil, fmt.Errorf("entry %s on %s: unknown kind %q", e.ID, e.Date, e.Kind)
		}
		grouped[e.Date] = pair
	}
	return grouped, nil
}

// DatesDescending returns the dates of pairs, newest first.
func DatesDescending(pairs map[string]models.DayPair) []string {
	dates := make([]string, 0, len(pairs))
	for d := range pairs {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates
}

// IsEmptyDay reports whether neither slot has a record. A record with empty
// text still counts as present.
func IsEmptyDay(pair models.DayPair) bool {
	return pair.Plan == nil && pair.Fact == nil
}

// FilterWindow keeps the entries whose date lies inside w, in input order.
// Entries with unparseable dates are dropped.
func FilterWindow(entries []models.Entry, w period.Window) []models.Entry {
	var kept []models.Entry
	for _, e := range entries {
		if w.ContainsISO(e.Date) {
			kept = append(kept, e)
		}
	}
	return kept
}

// Week is one bucket prepared for display
type Week struct {
	Start string   // ISO date of the Monday
	Dates []string // dates with at least one record, newest first
	Days  map[string]models.DayPair
}

// Feed groups entries into weeks, newest week first, each with its days
// newest first.
func Feed(entries []models.Entry) ([]Week, error) {
	byWeek, err := GroupByWeek(entries)
	if err != nil {
		return nil, err
	}
	weeks := make([]Week, 0, len(byWeek))
	for _, key := range WeekKeysDescending(byWeek) {
		days, err := GroupByDate(byWeek[key])
		if err != nil {
			return nil, err
		}
		weeks = append(weeks, Week{Start: key, Dates: DatesDescending(days), Days: days})
	}
	return weeks, nil
}
