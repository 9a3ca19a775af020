package lifecycle

import (
	"github.com/julianstephens/perfassist/internal/models"
)

// SlotState is the position of one day-slot in its lifecycle
type SlotState int

const (
	// StateEmpty means the slot shows no text. A record with blank text
	// may still exist.
	StateEmpty SlotState = iota
	StateEditing
	StateSaving
	StateSaved
	StatePendingDelete
	// StateDeleted means the record was removed with the rest of its day
	StateDeleted
)

func (s SlotState) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateEditing:
		return "editing"
	case StateSaving:
		return "saving"
	case StateSaved:
		return "saved"
	case StatePendingDelete:
		return "pending-delete"
	case StateDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

type slotKey struct {
	date string
	kind models.Kind
}

// Slot is a snapshot of one (date, kind) slot
type Slot struct {
	Date  string
	Kind  models.Kind
	State SlotState
	// Entry is the last record the store confirmed, nil when absent
	Entry *models.Entry
	// Buffer holds unsaved text while the slot is being edited
	Buffer string
	// Err annotates the last failed write for this slot
	Err error
}

// Text returns what the slot should display: the buffer while editing,
// otherwise the confirmed text.
func (s Slot) Text() string {
	switch s.State {
	case StateEditing, StateSaving:
		return s.Buffer
	}
	if s.Entry != nil {
		return s.Entry.Text
	}
	return ""
}

// slot is the mutable record kept for slots that are not simply a
// reflection of the loaded entries.
type slot struct {
	state  SlotState
	entry  *models.Entry
	buffer string
	err    error
}

// restingState is the state a slot falls back to when nothing is in flight
func restingState(e *models.Entry) SlotState {
	if e == nil || e.Text == "" {
		return StateEmpty
	}
	return StateSaved
}

func copyEntry(e *models.Entry) *models.Entry {
	if e == nil {
		return nil
	}
	c := *e
	return &c
}
