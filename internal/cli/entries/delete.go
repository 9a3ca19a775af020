package entries

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/perfassist/internal/cli"
	"github.com/julianstephens/perfassist/internal/datemath"
	apperrors "github.com/julianstephens/perfassist/internal/errors"
	"github.com/julianstephens/perfassist/internal/lifecycle"
	"github.com/julianstephens/perfassist/internal/logger"
	"github.com/julianstephens/perfassist/internal/models"
	"github.com/julianstephens/perfassist/internal/period"
)

type DeleteCmd struct {
	Date  string   `arg:"" help:"Date whose entries to delete (YYYY-MM-DD, today, yesterday)."`
	Kinds []string `arg:"" optional:"" enum:"plan,fact" help:"Slots to delete. Both when omitted."`
	Yes   bool     `short:"y" help:"Do not ask for confirmation."`
}

func (c *DeleteCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Settings()
	if err != nil {
		return err
	}
	d, err := cli.ResolveDate(c.Date, settings)
	if err != nil {
		return err
	}
	date := datemath.FormatISODate(d)

	kinds := models.Kinds
	if len(c.Kinds) > 0 {
		kinds = nil
		for _, k := range c.Kinds {
			kind, err := models.ParseKind(k)
			if err != nil {
				return err
			}
			kinds = append(kinds, kind)
		}
	}

	ctrl := ctx.Controller(settings)
	defer ctrl.Close()

	w := period.DayWindow(d)
	if _, err := ctrl.Load(context.Background(), w); err != nil {
		return fmt.Errorf("cannot delete while entries are unavailable: %w", err)
	}

	pair := ctrl.DayPair(date)
	var targets []models.Entry
	for _, k := range kinds {
		if e := pair.Get(k); e != nil {
			targets = append(targets, *e)
		}
	}
	if len(targets) == 0 {
		ctx.Printf("No entries to delete for %s.\n", date)
		return nil
	}

	if !c.Yes {
		confirmed := false
		prompt := huh.NewConfirm().
			Title(fmt.Sprintf("Delete %d entr%s for %s?", len(targets), plural(len(targets)), date)).
			Value(&confirmed)
		if err := huh.NewForm(huh.NewGroup(prompt)).Run(); err != nil {
			return err
		}
		if !confirmed {
			ctx.Println("Cancelled.")
			return nil
		}
	}

	for _, e := range targets {
		if _, err := ctrl.RequestDelete(e); err != nil {
			return err
		}
	}
	flushErr := ctrl.Flush(context.Background())

	drain(ctrl.Events(), func(ev lifecycle.Event) { c.report(ctx, ev) })

	if flushErr != nil {
		return fmt.Errorf("%s: %w", apperrors.UserMessage(flushErr), flushErr)
	}
	return nil
}

// report prints a settlement. The controller already applied it to the cache.
func (c *DeleteCmd) report(ctx *cli.Context, ev lifecycle.Event) {
	if ev.Err != nil {
		var pf *apperrors.PersistenceFailedError
		if errors.As(ev.Err, &pf) {
			logger.Error("delete failed", "date", ev.Date, "op", pf.Op, "error", pf.Err)
		}
		return
	}
	switch ev.Outcome {
	case lifecycle.OutcomeDayDeleted:
		ctx.Printf("Deleted plan and fact for %s.\n", ev.Date)
	case lifecycle.OutcomeCleared:
		ctx.Printf("Cleared %s for %s.\n", ev.Kinds[0], ev.Date)
	}
}

func plural(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}

// drain hands every buffered event to fn without blocking
func drain(events <-chan lifecycle.Event, fn func(lifecycle.Event)) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			fn(ev)
		default:
			return
		}
	}
}
