package system

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/julianstephens/perfassist/internal/cli"
	"github.com/julianstephens/perfassist/internal/datemath"
	"github.com/julianstephens/perfassist/internal/models"
	"github.com/julianstephens/perfassist/internal/period"
	"github.com/julianstephens/perfassist/internal/storage/sqlite"
)

type DebugCmd struct {
	DBPath       *DebugDBPathCmd       `cmd:"" help:"Show database path."`
	DumpEntries  *DebugDumpEntriesCmd  `cmd:"" help:"Dump cached entries as JSON."`
	DumpSettings *DebugDumpSettingsCmd `cmd:"" help:"Dump settings as JSON."`
	DumpSummary  *DebugDumpSummaryCmd  `cmd:"" help:"Dump the last cached summary as JSON."`
}

func printJSON(ctx *cli.Context, v any) error {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	ctx.Println(string(jsonBytes))
	return nil
}

type DebugDBPathCmd struct{}

func (cmd *DebugDBPathCmd) Run(ctx *cli.Context) error {
	return printJSON(ctx, map[string]string{"path": ctx.Store.GetConfigPath()})
}

type DebugDumpEntriesCmd struct {
	Date   string `arg:"" optional:"" help:"Reference date (YYYY-MM-DD or 'today')." default:"today"`
	Period string `short:"p" enum:"day,week,month,quarter" default:"day" help:"Window around the date: day, week, month or quarter."`
}

func (cmd *DebugDumpEntriesCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Settings()
	if err != nil {
		return err
	}
	d, err := cli.ResolveDate(cmd.Date, settings)
	if err != nil {
		return err
	}

	w := period.DayWindow(d)
	if cmd.Period != "day" {
		unit, err := period.ParseUnit(cmd.Period)
		if err != nil {
			return err
		}
		if w, err = period.WindowFor(d, unit); err != nil {
			return err
		}
	}

	entries, err := ctx.Store.GetEntries(settings.UserID, datemath.FormatISODate(w.Start), datemath.FormatISODate(w.End))
	if err != nil {
		return fmt.Errorf("failed to read cached entries: %w", err)
	}
	if entries == nil {
		entries = []models.Entry{}
	}
	return printJSON(ctx, map[string]any{
		"window":  map[string]string{"from": datemath.FormatISODate(w.Start), "to": datemath.FormatISODate(w.End)},
		"entries": entries,
	})
}

type DebugDumpSettingsCmd struct{}

func (cmd *DebugDumpSettingsCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	return printJSON(ctx, settings)
}

type DebugDumpSummaryCmd struct{}

func (cmd *DebugDumpSummaryCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Settings()
	if err != nil {
		return err
	}
	rec, err := ctx.Store.LatestSummary(settings.UserID)
	if errors.Is(err, sqlite.ErrNoSummary) {
		return printJSON(ctx, map[string]any{"summary": nil})
	}
	if err != nil {
		return fmt.Errorf("failed to read cached summary: %w", err)
	}
	return printJSON(ctx, rec)
}
