package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/julianstephens/perfassist/internal/models"
)

var (
	// ErrInvalidDate matches any InvalidDateError
	ErrInvalidDate = stderrors.New("invalid date")
	// ErrFetchFailed matches any FetchFailedError
	ErrFetchFailed = stderrors.New("fetch failed")
	// ErrPersistenceFailed matches any PersistenceFailedError
	ErrPersistenceFailed = stderrors.New("persistence failed")
	// ErrEmptyResult marks a window without any records. It is a display
	// state, not a failure, and is never returned by the store client.
	ErrEmptyResult = stderrors.New("no entries")
)

// Operation names a write against the entry store
type Operation string

const (
	OpCreate    Operation = "create"
	OpUpdate    Operation = "update"
	OpDeleteDay Operation = "delete-day"
)

// InvalidDateError is returned when a date cannot be parsed or computed.
// Nothing is sent to the store when it occurs.
type InvalidDateError struct {
	Input string
	Err   error
}

func (e *InvalidDateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid date %q: %v", e.Input, e.Err)
	}
	return fmt.Sprintf("invalid date %q", e.Input)
}

func (e *InvalidDateError) Is(target error) bool { return target == ErrInvalidDate }

func (e *InvalidDateError) Unwrap() error { return e.Err }

// NewInvalidDate builds an InvalidDateError for input
func NewInvalidDate(input string, err error) error {
	return &InvalidDateError{Input: input, Err: err}
}

// FetchFailedError is returned when reading entries fails at the transport
// level or with a 5xx status. Status is 0 for transport errors.
type FetchFailedError struct {
	Status int
	Err    error
}

func (e *FetchFailedError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("failed to fetch entries: status %d", e.Status)
	}
	return fmt.Sprintf("failed to fetch entries: %v", e.Err)
}

func (e *FetchFailedError) Is(target error) bool { return target == ErrFetchFailed }

func (e *FetchFailedError) Unwrap() error { return e.Err }

// PersistenceFailedError is returned when the store rejects a write.
// Entry is the entry the write was attempted for.
type PersistenceFailedError struct {
	Op    Operation
	Entry models.Entry
	Err   error
}

func (e *PersistenceFailedError) Error() string {
	return fmt.Sprintf("failed to %s %s entry for %s: %v", e.Op, e.Entry.Kind, e.Entry.Date, e.Err)
}

func (e *PersistenceFailedError) Is(target error) bool { return target == ErrPersistenceFailed }

func (e *PersistenceFailedError) Unwrap() error { return e.Err }

// UserMessage maps an error onto the message shown in the UI.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case stderrors.Is(err, ErrInvalidDate):
		return "Invalid date. Please pick a valid date."
	case stderrors.Is(err, ErrFetchFailed):
		return "Could not load entries. Showing the last known data; try again later."
	case stderrors.Is(err, ErrEmptyResult):
		return "No entries for this period."
	case stderrors.Is(err, ErrPersistenceFailed):
		var pf *PersistenceFailedError
		if stderrors.As(err, &pf) {
			return fmt.Sprintf("Could not save the %s for %s. Your text is kept; try again.", pf.Entry.Kind, pf.Entry.Date)
		}
		return "Could not save changes. Your text is kept; try again."
	default:
		return err.Error()
	}
}
