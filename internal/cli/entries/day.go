package entries

import (
	"context"
	"errors"

	"github.com/julianstephens/perfassist/internal/cli"
	"github.com/julianstephens/perfassist/internal/datemath"
	apperrors "github.com/julianstephens/perfassist/internal/errors"
	"github.com/julianstephens/perfassist/internal/period"
)

type DayCmd struct {
	Date string `arg:"" optional:"" help:"Date to show (YYYY-MM-DD, today, yesterday, tomorrow)." default:"today"`
}

func (c *DayCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Settings()
	if err != nil {
		return err
	}
	d, err := cli.ResolveDate(c.Date, settings)
	if err != nil {
		return err
	}

	w := period.DayWindow(d)
	ctrl := ctx.Controller(settings)
	defer ctrl.Close()
	ctrl.Seed(w, ctx.CachedEntries(settings.UserID, w))

	entries, err := ctrl.Load(context.Background(), w)
	switch {
	case errors.Is(err, apperrors.ErrFetchFailed):
		warn(ctx, apperrors.UserMessage(err))
	case err != nil:
		return err
	default:
		ctx.CacheEntries(settings.UserID, w, entries)
	}

	renderDay(ctx, d, ctrl.DayPair(datemath.FormatISODate(d)), cli.Locale(settings))
	return nil
}
