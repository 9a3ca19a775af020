package summary

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/perfassist/internal/cli"
	"github.com/julianstephens/perfassist/internal/logger"
	"github.com/julianstephens/perfassist/internal/models"
	"github.com/julianstephens/perfassist/internal/storage/sqlite"
	review "github.com/julianstephens/perfassist/internal/summary"
)

type SummaryCmd struct {
	Period string `short:"p" enum:"6months,year,custom" default:"6months" help:"Review period: 6months, year or custom."`
	From   string `help:"Start date for a custom period (YYYY-MM-DD)."`
	To     string `help:"End date for a custom period (YYYY-MM-DD)."`
	Format string `short:"f" enum:"markdown,yaml,json" default:"markdown" help:"Output format: markdown, yaml or json."`
	Output string `short:"o" type:"path" help:"Write the summary to a file instead of stdout."`
	Last   bool   `help:"Show the last generated summary from the cache without calling the generator."`
}

func (c *SummaryCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Settings()
	if err != nil {
		return err
	}

	var s models.Summary
	if c.Last {
		rec, err := ctx.Store.LatestSummary(settings.UserID)
		if errors.Is(err, sqlite.ErrNoSummary) {
			return fmt.Errorf("no summary generated yet, run 'perfassist summary' first")
		}
		if err != nil {
			return fmt.Errorf("failed to read cached summary: %w", err)
		}
		s = rec.Summary
	} else {
		req, err := review.NewRequest(settings.UserID, c.Period, c.From, c.To)
		if err != nil {
			return err
		}
		s, err = ctx.Client(settings).GenerateSummary(context.Background(), req)
		if err != nil {
			return fmt.Errorf("failed to generate summary: %w", err)
		}
		if _, err := ctx.Store.SaveSummary(req, s); err != nil {
			logger.Warn("failed to cache summary", "period", req.Period, "error", err)
		}
		logger.Info("summary generated", "period", req.Period, "goals", len(s.Goals))
	}

	text, err := review.Render(s, c.Format)
	if err != nil {
		return err
	}
	if len(s.Goals) == 0 && c.Format == review.FormatMarkdown {
		text = "No goals were generated for this period.\n"
	}

	if c.Output == "" {
		ctx.Printf("%s", text)
		if text != "" && text[len(text)-1] != '\n' {
			ctx.Println()
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.Output), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(c.Output, []byte(text), 0644); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	ctx.Printf("Summary written to %s\n", c.Output)
	return nil
}
