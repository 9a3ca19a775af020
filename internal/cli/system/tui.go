package system

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/perfassist/internal/cli"
	"github.com/julianstephens/perfassist/internal/logger"
	"github.com/julianstephens/perfassist/internal/period"
	"github.com/julianstephens/perfassist/internal/tui"
)

type TuiCmd struct {
	Period string `arg:"" optional:"" enum:",week,month,quarter" help:"Initial period unit. Defaults to the configured period."`
}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Settings()
	if err != nil {
		return err
	}
	unit, err := cli.ResolveUnit(c.Period, settings)
	if err != nil {
		return err
	}
	today, err := cli.ResolveDate("today", settings)
	if err != nil {
		return err
	}

	ctrl := ctx.Controller(settings)
	defer ctrl.Close()

	nav := period.NewNavigator(today, unit)
	if w, err := nav.Window(); err == nil {
		ctrl.Seed(w, ctx.CachedEntries(settings.UserID, w))
	}

	model := tui.NewModel(tui.Options{
		Controller: ctrl,
		Cache:      ctx.Store,
		Navigator:  nav,
		Locale:     cli.Locale(settings),
		Today: func() time.Time {
			d, err := cli.ResolveDate("today", settings)
			if err != nil {
				return today
			}
			return d
		},
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("alas, there's been an error: %w", err)
	}

	// Apply deletes still waiting for their window
	if err := ctrl.Flush(context.Background()); err != nil {
		logger.Warn("pending deletes failed on exit", "error", err)
		return err
	}
	return nil
}
