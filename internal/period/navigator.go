package period

import (
	"time"

	"github.com/julianstephens/perfassist/internal/datemath"
	"github.com/julianstephens/perfassist/internal/locale"
)

// Navigator is the (reference date, unit) pair that drives the feed. It is
// a plain value: every method returns a new Navigator and the window is
// re-derived on demand.
type Navigator struct {
	Reference time.Time
	Unit      Unit
}

// NewNavigator normalizes ref and pairs it with unit.
func NewNavigator(ref time.Time, unit Unit) Navigator {
	return Navigator{Reference: datemath.Normalize(ref), Unit: unit}
}

// Advance steps the reference date by one unit in dir.
func (n Navigator) Advance(dir Direction) Navigator {
	steps := int(dir)
	switch n.Unit {
	case Week:
		n.Reference = datemath.AddWeeks(n.Reference, steps)
	case Month:
		n.Reference = datemath.AddMonths(n.Reference, steps)
	case Quarter:
		n.Reference = datemath.AddQuarters(n.Reference, steps)
	}
	return n
}

// WithUnit switches the unit, keeping the reference date.
func (n Navigator) WithUnit(u Unit) Navigator {
	n.Unit = u
	return n
}

// WithReference moves to another reference date, keeping the unit.
func (n Navigator) WithReference(ref time.Time) Navigator {
	n.Reference = datemath.Normalize(ref)
	return n
}

// Window is WindowFor(n.Reference, n.Unit).
func (n Navigator) Window() (Window, error) {
	return WindowFor(n.Reference, n.Unit)
}

// Title is TitleFor(n.Reference, n.Unit, loc).
func (n Navigator) Title(loc locale.Locale) (string, error) {
	return TitleFor(n.Reference, n.Unit, loc)
}
