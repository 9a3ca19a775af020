package entries

import (
	"context"
	"errors"
	"time"

	"github.com/julianstephens/perfassist/internal/cli"
	"github.com/julianstephens/perfassist/internal/datemath"
	apperrors "github.com/julianstephens/perfassist/internal/errors"
	"github.com/julianstephens/perfassist/internal/grouper"
	"github.com/julianstephens/perfassist/internal/locale"
	"github.com/julianstephens/perfassist/internal/models"
	"github.com/julianstephens/perfassist/internal/period"
)

type FeedCmd struct {
	Period string `arg:"" optional:"" enum:",week,month,quarter" help:"Period unit: week, month or quarter. Defaults to the configured period."`
	Date   string `short:"d" help:"Reference date inside the period." default:"today"`
	Offset int    `short:"o" help:"Periods to move from the reference date; negative goes back." default:"0"`
	Empty  bool   `help:"Also list days without entries."`
}

func (c *FeedCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Settings()
	if err != nil {
		return err
	}
	ref, err := cli.ResolveDate(c.Date, settings)
	if err != nil {
		return err
	}
	unit, err := cli.ResolveUnit(c.Period, settings)
	if err != nil {
		return err
	}

	nav := period.NewNavigator(ref, unit)
	dir, steps := period.Next, c.Offset
	if steps < 0 {
		dir, steps = period.Prev, -steps
	}
	for i := 0; i < steps; i++ {
		nav = nav.Advance(dir)
	}

	w, err := nav.Window()
	if err != nil {
		return err
	}
	loc := cli.Locale(settings)
	title, err := nav.Title(loc)
	if err != nil {
		return err
	}

	ctrl := ctx.Controller(settings)
	defer ctrl.Close()
	ctrl.Seed(w, ctx.CachedEntries(settings.UserID, w))

	entries, err := ctrl.Load(context.Background(), w)
	var fetchErr *apperrors.FetchFailedError
	switch {
	case err == nil:
		ctx.CacheEntries(settings.UserID, w, entries)
	case errors.As(err, &fetchErr):
		warn(ctx, apperrors.UserMessage(err)+" Showing cached entries.")
		entries = ctrl.Entries()
	default:
		return err
	}

	ctx.Println(titleStyle.Render(title))
	if c.Empty {
		return c.renderAllDays(ctx, w, entries, loc)
	}

	weeks, err := grouper.Feed(grouper.FilterWindow(entries, w))
	if err != nil {
		return err
	}
	if len(weeks) == 0 {
		ctx.Println(emptyStyle.Render(apperrors.UserMessage(apperrors.ErrEmptyResult)))
		return nil
	}
	for _, wk := range weeks {
		start, err := datemath.ParseISODate(wk.Start)
		if err != nil {
			return err
		}
		ctx.Println()
		ctx.Println(weekStyle.Render(period.WeekRangeTitle(start, loc)))
		for _, date := range wk.Dates {
			d, err := datemath.ParseISODate(date)
			if err != nil {
				return err
			}
			renderDay(ctx, d, wk.Days[date], loc)
		}
	}
	return nil
}

// renderAllDays lists every day of the window, newest first, including
// days without any record.
func (c *FeedCmd) renderAllDays(ctx *cli.Context, w period.Window, entries []models.Entry, loc locale.Locale) error {
	pairs, err := grouper.GroupByDate(grouper.FilterWindow(entries, w))
	if err != nil {
		return err
	}
	days := datemath.DaysBetween(w.Start, w.End)
	var week time.Time
	for i := len(days) - 1; i >= 0; i-- {
		d := days[i]
		if ws := datemath.StartOfWeek(d); !ws.Equal(week) {
			week = ws
			ctx.Println()
			ctx.Println(weekStyle.Render(period.WeekRangeTitle(ws, loc)))
		}
		renderDay(ctx, d, pairs[datemath.FormatISODate(d)], loc)
	}
	return nil
}
