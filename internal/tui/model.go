// Package tui is the interactive feed: a period of days, each with its plan
// and fact slots, navigable by week, month or quarter.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/perfassist/internal/constants"
	"github.com/julianstephens/perfassist/internal/datemath"
	"github.com/julianstephens/perfassist/internal/lifecycle"
	"github.com/julianstephens/perfassist/internal/locale"
	"github.com/julianstephens/perfassist/internal/logger"
	"github.com/julianstephens/perfassist/internal/models"
	"github.com/julianstephens/perfassist/internal/period"
)

// Cache is the local copy of confirmed entries the feed reads while a load
// is in flight and writes after loads and saves.
type Cache interface {
	ReplaceEntries(userID, from, to string, entries []models.Entry) error
	GetEntries(userID, from, to string) ([]models.Entry, error)
	UpsertEntry(models.Entry) error
}

type Options struct {
	Controller *lifecycle.Controller
	// Cache is optional
	Cache     Cache
	Navigator period.Navigator
	Locale    locale.Locale
	// Today returns the current civil date
	Today func() time.Time
}

type EditFormModel struct {
	Date string
	Kind models.Kind
	// Original is the stored payload the plain text was derived from
	Original string
	Text     string
}

type loadedMsg struct {
	window  period.Window
	entries []models.Entry
	err     error
}

type savedMsg struct {
	date  string
	kind  models.Kind
	entry models.Entry
	err   error
}

type settledMsg lifecycle.Event

type eventsClosedMsg struct{}

type Model struct {
	ctrl  *lifecycle.Controller
	cache Cache
	nav   period.Navigator
	loc   locale.Locale
	today func() time.Time

	window period.Window
	days   []time.Time // newest first
	cached map[string]models.DayPair

	state       constants.SessionState
	keys        KeyMap
	help        help.Model
	viewport    viewport.Model
	form        *huh.Form
	editForm    *EditFormModel
	confirmDate string

	cursor   int
	loading  bool
	status   string
	errMsg   string
	width    int
	height   int
	quitting bool
}

func NewModel(opts Options) Model {
	today := opts.Today
	if today == nil {
		today = func() time.Time {
			d, err := datemath.Today(constants.DefaultTimezone)
			if err != nil {
				return datemath.Normalize(time.Now())
			}
			return d
		}
	}
	m := Model{
		ctrl:     opts.Controller,
		cache:    opts.Cache,
		nav:      opts.Navigator,
		loc:      opts.Locale,
		today:    today,
		state:    constants.StateFeed,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		viewport: viewport.New(80, 20),
	}
	if m.nav.Reference.IsZero() {
		m.nav = period.NewNavigator(today(), period.Month)
	}
	m.setWindow()
	m.cursor = m.todayRow()
	m.loading = true
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), m.waitForEvent())
}

// setWindow re-derives the window from the navigator and reads its cached
// entries for display until the load lands.
func (m *Model) setWindow() {
	w, err := m.nav.Window()
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.window = w
	days := datemath.DaysBetween(w.Start, w.End)
	m.days = make([]time.Time, len(days))
	for i, d := range days {
		m.days[len(days)-1-i] = d
	}
	m.cached = nil
	if m.cache == nil {
		return
	}
	from, to := datemath.FormatISODate(w.Start), datemath.FormatISODate(w.End)
	entries, err := m.cache.GetEntries(m.ctrl.UserID(), from, to)
	if err != nil {
		logger.Warn("failed to read cached entries", "window", w.String(), "error", err)
		return
	}
	m.cached = make(map[string]models.DayPair)
	for _, e := range entries {
		p := m.cached[e.Date]
		p.Set(e)
		m.cached[e.Date] = p
	}
}

// windowLoaded reports whether the controller holds the displayed window
func (m Model) windowLoaded() bool {
	w, ok := m.ctrl.Window()
	return ok && w.Start.Equal(m.window.Start) && w.End.Equal(m.window.End)
}

// slotAt returns the slot shown for (date, kind), falling back to the
// cache while the window has not been loaded.
func (m Model) slotAt(date string, kind models.Kind) lifecycle.Slot {
	if m.windowLoaded() {
		return m.ctrl.Slot(date, kind)
	}
	s := lifecycle.Slot{Date: date, Kind: kind, State: lifecycle.StateEmpty}
	if e := m.cached[date].Get(kind); e != nil {
		s.Entry = e
		if e.Text != "" {
			s.State = lifecycle.StateSaved
		}
	}
	return s
}

// selected returns the date and kind under the cursor
func (m Model) selected() (string, models.Kind, bool) {
	if len(m.days) == 0 {
		return "", "", false
	}
	n := len(models.Kinds)
	day := m.cursor / n
	if day >= len(m.days) {
		return "", "", false
	}
	return datemath.FormatISODate(m.days[day]), models.Kinds[m.cursor%n], true
}

// todayRow is the plan row of today when it is inside the window
func (m Model) todayRow() int {
	today := m.today()
	for i, d := range m.days {
		if d.Equal(today) {
			return i * len(models.Kinds)
		}
	}
	return 0
}

func (m *Model) loadCmd() tea.Cmd {
	m.loading = true
	ctrl, w := m.ctrl, m.window
	return func() tea.Msg {
		entries, err := ctrl.Load(context.Background(), w)
		return loadedMsg{window: w, entries: entries, err: err}
	}
}

func (m Model) saveCmd(date string, kind models.Kind, text string) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		e, err := ctrl.Save(context.Background(), date, kind, text)
		return savedMsg{date: date, kind: kind, entry: e, err: err}
	}
}

func (m Model) waitForEvent() tea.Cmd {
	events := m.ctrl.Events()
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return settledMsg(ev)
	}
}
