package datemath

import (
	"fmt"
	"time"
)

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(timezone)
}

// Today returns today's civil date as seen in the given timezone.
// This ensures that "today" is determined by the user's configured timezone, not the system timezone.
func Today(timezone string) (time.Time, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return Normalize(time.Now().In(loc)), nil
}

// ValidateTimezone checks if the timezone name is valid.
func ValidateTimezone(timezone string) bool {
	_, err := LoadLocation(timezone)
	return err == nil
}

// ResolveDate accepts "today", "yesterday", "tomorrow" or a YYYY-MM-DD
// string and returns the civil date it names.
func ResolveDate(s, timezone string) (time.Time, error) {
	switch s {
	case "", "today", "yesterday", "tomorrow":
		today, err := Today(timezone)
		if err != nil {
			return time.Time{}, err
		}
		switch s {
		case "yesterday":
			return AddDays(today, -1), nil
		case "tomorrow":
			return AddDays(today, 1), nil
		}
		return today, nil
	default:
		return ParseISODate(s)
	}
}
