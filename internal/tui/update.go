package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/perfassist/internal/constants"
	"github.com/julianstephens/perfassist/internal/datemath"
	apperrors "github.com/julianstephens/perfassist/internal/errors"
	"github.com/julianstephens/perfassist/internal/lifecycle"
	"github.com/julianstephens/perfassist/internal/logger"
	"github.com/julianstephens/perfassist/internal/models"
	"github.com/julianstephens/perfassist/internal/period"
	"github.com/julianstephens/perfassist/internal/richtext"
)

var kindLabels = map[models.Kind]string{
	models.KindPlan: "Plan",
	models.KindFact: "Fact",
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.resize()
		return m, nil

	case loadedMsg:
		return m.handleLoaded(msg), nil

	case savedMsg:
		return m.handleSaved(msg), nil

	case settledMsg:
		m.handleSettled(lifecycle.Event(msg))
		return m, m.waitForEvent()

	case eventsClosedMsg:
		return m, nil
	}

	switch m.state {
	case constants.StateEditing:
		return m.updateEditing(msg)
	case constants.StateConfirmation:
		if msg, ok := msg.(tea.KeyMsg); ok {
			return m.updateConfirmation(msg)
		}
		return m, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		return m.updateFeed(msg)
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleLoaded(msg loadedMsg) Model {
	if errors.Is(msg.err, lifecycle.ErrStaleLoad) {
		// A newer load is in flight
		return m
	}
	m.loading = false
	if msg.err != nil {
		m.errMsg = apperrors.UserMessage(msg.err)
		return m
	}
	m.errMsg = ""
	if m.cache != nil {
		from, to := datemath.FormatISODate(msg.window.Start), datemath.FormatISODate(msg.window.End)
		if err := m.cache.ReplaceEntries(m.ctrl.UserID(), from, to, msg.entries); err != nil {
			logger.Warn("failed to cache entries", "window", msg.window.String(), "error", err)
		}
	}
	if len(msg.entries) == 0 {
		m.status = apperrors.UserMessage(apperrors.ErrEmptyResult)
	}
	return m
}

func (m Model) handleSaved(msg savedMsg) Model {
	if msg.err != nil {
		m.errMsg = apperrors.UserMessage(msg.err)
		return m
	}
	m.errMsg = ""
	if msg.entry.IsPlaceholder() {
		m.status = "Nothing to save."
		return m
	}
	m.status = fmt.Sprintf("Saved %s for %s.", msg.kind, msg.date)
	if m.cache != nil {
		if err := m.cache.UpsertEntry(msg.entry); err != nil {
			logger.Warn("failed to cache saved entry", "id", msg.entry.ID, "error", err)
		}
	}
	return m
}

// handleSettled reports a settlement. Cache writes for settlements are made
// by the controller's OnSettle hook, which also covers deletes flushed on exit.
func (m *Model) handleSettled(ev lifecycle.Event) {
	if ev.Err != nil {
		m.errMsg = apperrors.UserMessage(ev.Err)
		return
	}
	switch ev.Outcome {
	case lifecycle.OutcomeDayDeleted:
		m.status = fmt.Sprintf("Deleted plan and fact for %s.", ev.Date)
	case lifecycle.OutcomeCleared:
		m.status = fmt.Sprintf("Cleared %s for %s.", ev.Kinds[0], ev.Date)
	}
}

func (m Model) updateFeed(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resize()
		return m, nil
	case key.Matches(msg, m.keys.Prev):
		return m.navigate(m.nav.Advance(period.Prev))
	case key.Matches(msg, m.keys.Next):
		return m.navigate(m.nav.Advance(period.Next))
	case key.Matches(msg, m.keys.Week):
		return m.navigate(m.nav.WithUnit(period.Week))
	case key.Matches(msg, m.keys.Month):
		return m.navigate(m.nav.WithUnit(period.Month))
	case key.Matches(msg, m.keys.Quarter):
		return m.navigate(m.nav.WithUnit(period.Quarter))
	case key.Matches(msg, m.keys.Cycle):
		next := period.Units[(int(m.nav.Unit)+1)%len(period.Units)]
		return m.navigate(m.nav.WithUnit(next))
	case key.Matches(msg, m.keys.Today):
		return m.navigate(m.nav.WithReference(m.today()))
	case key.Matches(msg, m.keys.Reload):
		m.status = ""
		return m, m.loadCmd()
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		m.syncViewport()
		return m, nil
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.days)*len(models.Kinds)-1 {
			m.cursor++
		}
		m.syncViewport()
		return m, nil
	case key.Matches(msg, m.keys.Edit):
		return m.startEdit()
	case key.Matches(msg, m.keys.Delete):
		m.toggleDelete()
		return m, nil
	case key.Matches(msg, m.keys.Day):
		date, _, ok := m.selected()
		if !ok || !m.windowLoaded() {
			return m, nil
		}
		pair := m.ctrl.DayPair(date)
		if pair.Plan == nil && pair.Fact == nil {
			m.status = fmt.Sprintf("No entries to delete for %s.", date)
			return m, nil
		}
		m.confirmDate = date
		m.state = constants.StateConfirmation
		return m, nil
	}
	return m, nil
}

// navigate moves the feed to nav and starts loading its window
func (m Model) navigate(nav period.Navigator) (tea.Model, tea.Cmd) {
	m.nav = nav
	m.status = ""
	m.setWindow()
	m.cursor = m.todayRow()
	m.syncViewport()
	return m, m.loadCmd()
}

func (m Model) startEdit() (tea.Model, tea.Cmd) {
	date, kind, ok := m.selected()
	if !ok {
		return m, nil
	}
	if !m.windowLoaded() {
		m.status = "Still loading, try again in a moment."
		return m, nil
	}
	current := m.ctrl.Slot(date, kind)
	if current.State == lifecycle.StateSaving {
		m.status = "Save in progress."
		return m, nil
	}
	m.editForm = &EditFormModel{
		Date:     date,
		Kind:     kind,
		Original: current.Text(),
		Text:     richtext.PlainText(current.Text()),
	}
	if err := m.ctrl.Edit(date, kind, current.Text()); err != nil {
		m.errMsg = apperrors.UserMessage(err)
		return m, nil
	}

	d, _ := datemath.ParseISODate(date)
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title(fmt.Sprintf("%s for %s", kindLabels[kind], datemath.FormatHuman(d, m.loc))).
				Value(&m.editForm.Text),
		),
	)
	m.state = constants.StateEditing
	return m, m.form.Init()
}

func (m Model) updateEditing(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		return m.cancelEdit(), nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		return m.commitEdit()
	case huh.StateAborted:
		return m.cancelEdit(), nil
	}
	return m, cmd
}

// commitEdit hands the edited text to the controller and saves it when it
// changed anything.
func (m Model) commitEdit() (Model, tea.Cmd) {
	f := m.editForm
	m.state = constants.StateFeed
	m.form = nil
	m.editForm = nil
	if f == nil {
		return m, nil
	}

	text := richtext.Revise(f.Original, f.Text)
	if err := m.ctrl.Edit(f.Date, f.Kind, text); err != nil {
		m.errMsg = apperrors.UserMessage(err)
		return m, nil
	}
	if !m.ctrl.Dirty(f.Date, f.Kind) {
		m.ctrl.Discard(f.Date, f.Kind)
		m.status = "No changes."
		return m, nil
	}
	m.status = fmt.Sprintf("Saving %s for %s...", f.Kind, f.Date)
	return m, m.saveCmd(f.Date, f.Kind, text)
}

func (m Model) cancelEdit() Model {
	if f := m.editForm; f != nil {
		m.ctrl.Discard(f.Date, f.Kind)
	}
	m.state = constants.StateFeed
	m.form = nil
	m.editForm = nil
	return m
}

func (m *Model) toggleDelete() {
	date, kind, ok := m.selected()
	if !ok || !m.windowLoaded() {
		return
	}
	s := m.ctrl.Slot(date, kind)
	if s.Entry == nil {
		m.status = fmt.Sprintf("No %s to delete for %s.", kind, date)
		return
	}
	intent, err := m.ctrl.RequestDelete(*s.Entry)
	if err != nil {
		m.errMsg = apperrors.UserMessage(err)
		return
	}
	if intent.Pending {
		m.status = fmt.Sprintf("Deleting %s for %s. Press d again to undo.", kind, date)
	} else {
		m.status = fmt.Sprintf("Kept %s for %s.", kind, date)
	}
}

func (m Model) updateConfirmation(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	date := m.confirmDate
	switch msg.String() {
	case "y", "Y":
		m.state = constants.StateFeed
		m.confirmDate = ""
		pending := m.ctrl.PendingDeletes(date)
		pair := m.ctrl.DayPair(date)
		for _, k := range models.Kinds {
			e := pair.Get(k)
			if e == nil || contains(pending, k) {
				continue
			}
			if _, err := m.ctrl.RequestDelete(*e); err != nil {
				m.errMsg = apperrors.UserMessage(err)
				return m, nil
			}
		}
		m.status = fmt.Sprintf("Deleting %s...", date)
	case "n", "N", "esc":
		m.state = constants.StateFeed
		m.confirmDate = ""
	}
	return m, nil
}

func contains(kinds []models.Kind, k models.Kind) bool {
	for _, x := range kinds {
		if x == k {
			return true
		}
	}
	return false
}
