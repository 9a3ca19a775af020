package models

import (
	"fmt"

	"github.com/julianstephens/perfassist/internal/constants"
)

// Kind identifies which of the two day-slots an entry occupies
type Kind string

const (
	KindPlan Kind = constants.KindPlan
	KindFact Kind = constants.KindFact
)

// Kinds lists the day-slots in display order
var Kinds = []Kind{KindPlan, KindFact}

// ParseKind converts a wire or CLI value into a Kind
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindPlan, KindFact:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("invalid entry kind %q (expected %q or %q)", s, KindPlan, KindFact)
	}
}

// Sibling returns the other slot of the same day
func (k Kind) Sibling() Kind {
	if k == KindPlan {
		return KindFact
	}
	return KindPlan
}

// Entry represents a single plan or fact record for one user on one date
type Entry struct {
	ID        string `json:"id"`         // assigned by the store; empty for a placeholder
	UserID    string `json:"user_id"`    // owner
	Date      string `json:"date"`       // YYYY-MM-DD format, local wall-clock date
	Kind      Kind   `json:"type"`       // plan or fact
	Text      string `json:"raw_text"`   // opaque rich-text payload, empty means cleared
	CreatedAt string `json:"created_at"` // informational timestamp from the store
}

// IsPlaceholder reports whether the entry has not been persisted yet
func (e Entry) IsPlaceholder() bool {
	return e.ID == ""
}

// DayPair holds the two slots of a single date
type DayPair struct {
	Plan *Entry `json:"plan,omitempty"`
	Fact *Entry `json:"fact,omitempty"`
}

// Get returns the entry in the given slot, or nil
func (p DayPair) Get(kind Kind) *Entry {
	switch kind {
	case KindPlan:
		return p.Plan
	case KindFact:
		return p.Fact
	}
	return nil
}

// Set stores e in the slot matching its kind. It reports false and leaves
// the pair unchanged when the kind is neither plan nor fact.
func (p *DayPair) Set(e Entry) bool {
	switch e.Kind {
	case KindPlan:
		p.Plan = &e
	case KindFact:
		p.Fact = &e
	default:
		return false
	}
	return true
}
