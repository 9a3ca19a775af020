// Package summary builds summary requests and renders generated goals for
// export.
package summary

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/julianstephens/perfassist/internal/datemath"
	"github.com/julianstephens/perfassist/internal/models"
)

// Review periods accepted by the generator
const (
	PeriodSixMonths = "6months"
	PeriodYear      = "year"
	PeriodCustom    = "custom"
)

// Export formats
const (
	FormatMarkdown = "markdown"
	FormatYAML     = "yaml"
	FormatJSON     = "json"
)

// NewRequest validates a review period. A custom period needs both dates,
// the others must not carry any.
func NewRequest(userID, period, start, end string) (models.SummaryRequest, error) {
	req := models.SummaryRequest{UserID: userID, Period: period}
	switch period {
	case PeriodSixMonths, PeriodYear:
		if start != "" || end != "" {
			return req, fmt.Errorf("start and end dates are only allowed with the %q period", PeriodCustom)
		}
		return req, nil
	case PeriodCustom:
		if start == "" || end == "" {
			return req, fmt.Errorf("the %q period needs both a start and an end date", PeriodCustom)
		}
		s, err := datemath.ParseISODate(start)
		if err != nil {
			return req, err
		}
		e, err := datemath.ParseISODate(end)
		if err != nil {
			return req, err
		}
		if e.Before(s) {
			return req, fmt.Errorf("end date %s is before start date %s", end, start)
		}
		req.StartDate = datemath.FormatISODate(s)
		req.EndDate = datemath.FormatISODate(e)
		return req, nil
	default:
		return req, fmt.Errorf("invalid period %q (expected %s, %s or %s)", period, PeriodSixMonths, PeriodYear, PeriodCustom)
	}
}

// Markdown renders goals as the copy/export text: one section per goal,
// separated by horizontal rules.
func Markdown(s models.Summary) string {
	sections := make([]string, 0, len(s.Goals))
	for _, g := range s.Goals {
		var b strings.Builder
		fmt.Fprintf(&b, "## %s\n\n", g.Title)
		fmt.Fprintf(&b, "**Context:**\n%s\n\n", g.Context)
		b.WriteString("**Outputs:**\n")
		b.WriteString(bullets(g.Outputs))
		b.WriteString("\n\n**Outcomes:**\n")
		b.WriteString(bullets(g.Outcomes))
		sections = append(sections, b.String())
	}
	return strings.Join(sections, "\n\n---\n\n")
}

func bullets(items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "- " + item
	}
	return strings.Join(lines, "\n")
}

// Render encodes s in the given export format
func Render(s models.Summary, format string) (string, error) {
	switch format {
	case "", FormatMarkdown:
		return Markdown(s), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return "", fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return "", err
		}
		return buf.String(), nil
	case FormatJSON:
		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encode json: %w", err)
		}
		return string(data) + "\n", nil
	default:
		return "", fmt.Errorf("unknown format %q", format)
	}
}
