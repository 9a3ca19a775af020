package entries

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/perfassist/internal/cli"
	"github.com/julianstephens/perfassist/internal/datemath"
	apperrors "github.com/julianstephens/perfassist/internal/errors"
	"github.com/julianstephens/perfassist/internal/logger"
	"github.com/julianstephens/perfassist/internal/models"
	"github.com/julianstephens/perfassist/internal/period"
	"github.com/julianstephens/perfassist/internal/richtext"
)

type SaveCmd struct {
	Kind string   `arg:"" enum:"plan,fact" help:"Which slot to write: plan or fact."`
	Text []string `arg:"" optional:"" help:"Entry text. Opens an editor prompt when omitted."`
	Date string   `short:"d" help:"Date of the entry (YYYY-MM-DD, today, yesterday)." default:"today"`
	Raw  bool     `help:"Send the text as-is instead of wrapping lines in paragraphs."`
}

func (c *SaveCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Settings()
	if err != nil {
		return err
	}
	d, err := cli.ResolveDate(c.Date, settings)
	if err != nil {
		return err
	}
	kind, err := models.ParseKind(c.Kind)
	if err != nil {
		return err
	}
	date := datemath.FormatISODate(d)

	ctrl := ctx.Controller(settings)
	defer ctrl.Close()

	// The current record decides between create and update, so a save
	// without a fresh load is refused
	w := period.DayWindow(d)
	entries, err := ctrl.Load(context.Background(), w)
	if err != nil {
		return fmt.Errorf("cannot save while entries are unavailable: %w", err)
	}
	ctx.CacheEntries(settings.UserID, w, entries)

	current := ctrl.Slot(date, kind)
	text := strings.Join(c.Text, " ")
	if len(c.Text) == 0 {
		text, err = promptText(kind, date, richtext.PlainText(current.Text()))
		if err != nil {
			return err
		}
	}
	if !c.Raw {
		text = richtext.Revise(current.Text(), text)
	}

	if err := ctrl.Edit(date, kind, text); err != nil {
		return err
	}
	if !ctrl.Dirty(date, kind) {
		ctx.Printf("Nothing to save for the %s of %s.\n", kind, date)
		return nil
	}

	saved, err := ctrl.Save(context.Background(), date, kind, text)
	if err != nil {
		var pf *apperrors.PersistenceFailedError
		if errors.As(err, &pf) {
			logger.Error("save failed", "date", date, "kind", kind, "error", pf.Err)
		}
		return fmt.Errorf("%s: %w", apperrors.UserMessage(err), err)
	}
	if err := ctx.Store.UpsertEntry(saved); err != nil {
		logger.Warn("failed to cache saved entry", "id", saved.ID, "error", err)
	}

	ctx.Printf("Saved %s for %s.\n", kind, datemath.FormatHuman(d, cli.Locale(settings)))
	return nil
}

func promptText(kind models.Kind, date, current string) (string, error) {
	text := current
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title(fmt.Sprintf("%s for %s", kindLabels[kind], date)).
				Value(&text),
		),
	)
	if err := form.Run(); err != nil {
		return "", err
	}
	return text, nil
}
