package constants

import "time"

// SessionState represents the current state of the TUI application
type SessionState int

const (
	AppName            = "perfassist"
	DefaultKeyringUser = "summary-api-token"
	DefaultConfigPath  = "~/.config/perfassist/perfassist.db"
	Version            = "v0.2.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// Entry kinds as they appear on the wire
	KindPlan = "plan"
	KindFact = "fact"

	// Period units
	PeriodWeek    = "week"
	PeriodMonth   = "month"
	PeriodQuarter = "quarter"

	// DefaultDeleteWindow is how long a single delete intent waits for its
	// sibling before it is settled as a blank update.
	DefaultDeleteWindow = 300 * time.Millisecond

	// HTTP client constants
	DefaultHTTPTimeout = 15 * time.Second
	RequestIDHeader    = "X-Request-ID"

	// Summary endpoint; the backend only exposes the mock generator for now.
	SummaryPath          = "/perf/summary:mock"
	DefaultSummaryPeriod = "6months"
)

// Session States
const (
	StateFeed SessionState = iota
	StateEditing
	StateConfirmation
)
