package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/julianstephens/perfassist/internal/logger"
)

// Replaced in tests
var (
	stderr io.Writer = os.Stderr
	exit             = os.Exit
)

// Category names the taxonomy class of err for log records, or "" for
// errors outside it.
func Category(err error) string {
	switch {
	case stderrors.Is(err, ErrInvalidDate):
		return "invalid-date"
	case stderrors.Is(err, ErrFetchFailed):
		return "fetch-failed"
	case stderrors.Is(err, ErrPersistenceFailed):
		return "persistence-failed"
	case stderrors.Is(err, ErrEmptyResult):
		return "empty-result"
	default:
		return ""
	}
}

// Format renders err for the terminal with an "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Fatal logs err, prints it to stderr and exits with status 1. cleanup runs
// before exiting because os.Exit skips deferred calls. A nil err is a no-op.
func Fatal(err error, cleanup ...func() error) {
	if err == nil {
		return
	}
	if cat := Category(err); cat != "" {
		logger.Error("command failed", "category", cat, "error", err)
	} else {
		logger.Error("command failed", "error", err)
	}
	for _, fn := range cleanup {
		if cerr := fn(); cerr != nil {
			logger.Warn("cleanup failed", "error", cerr)
		}
	}
	fmt.Fprintln(stderr, Format(err))
	exit(1)
}
