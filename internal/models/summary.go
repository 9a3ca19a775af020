package models

// SummaryRequest is the body sent to the summary generator
type SummaryRequest struct {
	UserID    string `json:"user_id"`
	Period    string `json:"period"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

// Goal is one section of a generated self-review draft
type Goal struct {
	ID       string   `json:"id" yaml:"id"`
	Title    string   `json:"title" yaml:"title"`
	Context  string   `json:"context" yaml:"context"`
	Outputs  []string `json:"outputs" yaml:"outputs"`
	Outcomes []string `json:"outcomes" yaml:"outcomes"`
}

// Summary is the generator response, passed through untouched
type Summary struct {
	Goals []Goal `json:"goals" yaml:"goals"`
}

// SummaryRecord is a generated summary kept in the local cache
type SummaryRecord struct {
	ID        int64          `json:"id" yaml:"id"`
	Request   SummaryRequest `json:"request" yaml:"request"`
	Summary   Summary        `json:"summary" yaml:"summary"`
	CreatedAt string         `json:"created_at" yaml:"created_at"`
}
