// Package lifecycle mediates between the views and the entry store. It owns
// the confirmed local copy of entries, the per-slot edit state and the
// deferred delete rule for plan/fact pairs.
package lifecycle

import (
	"context"
	stderrors "errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/julianstephens/perfassist/internal/constants"
	"github.com/julianstephens/perfassist/internal/datemath"
	apperrors "github.com/julianstephens/perfassist/internal/errors"
	"github.com/julianstephens/perfassist/internal/grouper"
	"github.com/julianstephens/perfassist/internal/logger"
	"github.com/julianstephens/perfassist/internal/models"
	"github.com/julianstephens/perfassist/internal/period"
)

var (
	// ErrStaleLoad is returned by Load when a newer load was issued before
	// this one finished. Its result has been discarded.
	ErrStaleLoad = stderrors.New("load superseded by a newer request")
	// ErrPlaceholder is returned when deleting a slot that was never saved
	ErrPlaceholder = stderrors.New("entry has not been saved")
	// ErrSaveInProgress is returned when a save for the same slot is in flight
	ErrSaveInProgress = stderrors.New("a save for this entry is already in progress")
	// ErrDeleteInProgress is returned while the delete of a date is being
	// sent to the store
	ErrDeleteInProgress = stderrors.New("a delete for this day is in progress")
	// ErrClosed is returned after Close
	ErrClosed = stderrors.New("controller closed")
)

// Store is the subset of the entry store the controller needs.
// *api.Client implements it.
type Store interface {
	ListEntries(ctx context.Context, userID, from, to string) ([]models.Entry, error)
	CreateEntry(ctx context.Context, e models.Entry) (models.Entry, error)
	UpdateEntry(ctx context.Context, e models.Entry) (models.Entry, error)
	DeleteDay(ctx context.Context, userID, date string) error
}

// Options tunes a Controller
type Options struct {
	// DeleteWindow is how long a single delete intent waits for its sibling.
	// Zero means constants.DefaultDeleteWindow.
	DeleteWindow time.Duration
	Logger       *log.Logger
	// OnSettle, when set, is called with every settlement before it is
	// offered on Events. It runs on the settling goroutine.
	OnSettle     func(Event)
}

// pendingDay collects the delete intents of one date
type pendingDay struct {
	kinds map[models.Kind]models.Entry
	timer *time.Timer
}

// Controller is safe for concurrent use. Store calls are made without
// holding the lock.
type Controller struct {
	store        Store
	userID       string
	deleteWindow time.Duration
	log          *log.Logger
	onSettle     func(Event)

	mu        sync.Mutex
	loadSeq   uint64
	committed bool
	window    period.Window
	hasWindow bool
	entries   map[slotKey]models.Entry
	slots     map[slotKey]*slot
	pending   map[string]*pendingDay
	// settling holds dates whose intents are being sent to the store
	settling  map[string]bool

	events       chan Event
	eventsClosed bool
	closed       bool
	wg           sync.WaitGroup
}

// New creates a controller for userID backed by store
func New(store Store, userID string, opts Options) *Controller {
	l := opts.Logger
	if l == nil {
		l = logger.With("component", "lifecycle")
	}
	if l == nil {
		l = log.New(io.Discard)
	}
	window := opts.DeleteWindow
	if window <= 0 {
		window = constants.DefaultDeleteWindow
	}
	return &Controller{
		store:        store,
		userID:       userID,
		deleteWindow: window,
		log:          l,
		onSettle:     opts.OnSettle,
		entries:      make(map[slotKey]models.Entry),
		slots:        make(map[slotKey]*slot),
		pending:      make(map[string]*pendingDay),
		settling:     make(map[string]bool),
		events:       make(chan Event, 64),
	}
}

// UserID returns the user the controller acts for
func (c *Controller) UserID() string {
	return c.userID
}

// Seed installs entries for w, typically from the local cache, so a failed
// first load still has something to show. It is ignored once a load has
// been committed.
func (c *Controller) Seed(w period.Window, entries []models.Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.committed {
		c.log.Debug("seed ignored after load", "window", w.String())
		return
	}
	c.window = w
	c.hasWindow = true
	c.replaceEntries(w, entries)
}

// Load fetches the entries of w and makes them the visible set. If another
// Load starts before this one returns, this result is dropped and
// ErrStaleLoad is returned. On a fetch failure the previous entries stay.
func (c *Controller) Load(ctx context.Context, w period.Window) ([]models.Entry, error) {
	if w.Start.IsZero() || w.End.IsZero() {
		return nil, apperrors.NewInvalidDate(w.String(), nil)
	}

	c.mu.Lock()
	c.loadSeq++
	token := c.loadSeq
	c.mu.Unlock()

	from, to := datemath.FormatISODate(w.Start), datemath.FormatISODate(w.End)
	list, err := c.store.ListEntries(ctx, c.userID, from, to)

	c.mu.Lock()
	defer c.mu.Unlock()
	if token != c.loadSeq {
		c.log.Debug("discarding stale load", "window", w.String(), "token", token, "latest", c.loadSeq)
		return nil, ErrStaleLoad
	}
	if err != nil {
		if !stderrors.Is(err, apperrors.ErrFetchFailed) {
			err = &apperrors.FetchFailedError{Err: err}
		}
		c.log.Warn("load failed, keeping previous entries", "window", w.String(), "error", err)
		return nil, err
	}

	c.window = w
	c.hasWindow = true
	c.committed = true
	c.replaceEntries(w, list)
	return c.visibleLocked(), nil
}

// replaceEntries swaps the confirmed set for the given entries. Slots
// with work in progress keep their state and see the new record.
func (c *Controller) replaceEntries(w period.Window, list []models.Entry) {
	c.entries = make(map[slotKey]models.Entry)
	for _, e := range grouper.FilterWindow(list, w) {
		c.entries[slotKey{e.Date, e.Kind}] = e
	}

	for key, s := range c.slots {
		if !w.ContainsISO(key.date) {
			continue
		}
		switch s.state {
		case StateEditing, StateSaving, StatePendingDelete:
			if e, ok := c.entries[key]; ok {
				s.entry = copyEntry(&e)
			} else if s.state != StateSaving {
				s.entry = nil
			}
		default:
			delete(c.slots, key)
		}
	}
}

// Entries returns the confirmed entries of the active window ordered by
// date, plan before fact.
func (c *Controller) Entries() []models.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visibleLocked()
}

func (c *Controller) visibleLocked() []models.Entry {
	out := make([]models.Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Kind == models.KindPlan && out[j].Kind != models.KindPlan
	})
	return out
}

// Window returns the active window, if any load or seed has set one
func (c *Controller) Window() (period.Window, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.window, c.hasWindow
}

// Slot returns a snapshot of the (date, kind) slot
func (c *Controller) Slot(date string, kind models.Kind) Slot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slotLocked(slotKey{date, kind})
}

func (c *Controller) slotLocked(key slotKey) Slot {
	out := Slot{Date: key.date, Kind: key.kind}
	if s, ok := c.slots[key]; ok {
		out.State = s.state
		out.Entry = copyEntry(s.entry)
		out.Buffer = s.buffer
		out.Err = s.err
		return out
	}
	if e, ok := c.entries[key]; ok {
		out.Entry = copyEntry(&e)
	}
	out.State = restingState(out.Entry)
	return out
}

// DayPair returns the confirmed records of date
func (c *Controller) DayPair(date string) models.DayPair {
	c.mu.Lock()
	defer c.mu.Unlock()
	var pair models.DayPair
	for _, k := range models.Kinds {
		if e := c.confirmedLocked(slotKey{date, k}); e != nil {
			pair.Set(*e)
		}
	}
	return pair
}

// confirmedLocked returns the latest confirmed record for key
func (c *Controller) confirmedLocked(key slotKey) *models.Entry {
	if s, ok := c.slots[key]; ok {
		return copyEntry(s.entry)
	}
	if e, ok := c.entries[key]; ok {
		return &e
	}
	return nil
}

// slotFor returns the mutable record for key, creating it from the
// confirmed state if needed.
func (c *Controller) slotFor(key slotKey) *slot {
	if s, ok := c.slots[key]; ok {
		return s
	}
	s := &slot{entry: c.confirmedLocked(key)}
	s.state = restingState(s.entry)
	c.slots[key] = s
	return s
}

// Edit puts the slot into editing with text as its buffer. Editing a slot
// with a pending delete cancels that intent.
func (c *Controller) Edit(date string, kind models.Kind, text string) error {
	if _, err := datemath.ParseISODate(date); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.settling[date] {
		return ErrDeleteInProgress
	}

	key := slotKey{date, kind}
	if day, ok := c.pending[date]; ok {
		if _, ok := day.kinds[kind]; ok {
			c.cancelIntentLocked(date, day, kind)
		}
	}
	s := c.slotFor(key)
	s.state = StateEditing
	s.buffer = text
	s.err = nil
	return nil
}

// Dirty reports whether saving the slot's buffer would change anything
func (c *Controller) Dirty(date string, kind models.Kind) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.slots[slotKey{date, kind}]
	if !ok || s.state != StateEditing {
		return false
	}
	return !isNoop(s.entry, s.buffer)
}

// Discard drops the unsaved buffer of an editing slot
func (c *Controller) Discard(date string, kind models.Kind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := slotKey{date, kind}
	s, ok := c.slots[key]
	if !ok || s.state != StateEditing {
		return
	}
	s.state = restingState(s.entry)
	s.buffer = ""
}

// isNoop reports whether saving text over current would change nothing:
// the text equals the confirmed text, or there is no record and the text
// is blank.
func isNoop(current *models.Entry, text string) bool {
	if current == nil {
		return strings.TrimSpace(text) == ""
	}
	return current.Text == text
}

// Save persists text into the (date, kind) slot, creating the record if it
// does not exist yet. Local state changes only after the store confirms.
// A save that would change nothing returns the current record without
// calling the store.
func (c *Controller) Save(ctx context.Context, date string, kind models.Kind, text string) (models.Entry, error) {
	if _, err := datemath.ParseISODate(date); err != nil {
		return models.Entry{}, err
	}
	if _, err := models.ParseKind(string(kind)); err != nil {
		return models.Entry{}, err
	}
	key := slotKey{date, kind}

	c.mu.Lock()
	if c.settling[date] {
		c.mu.Unlock()
		return models.Entry{}, ErrDeleteInProgress
	}
	current := c.confirmedLocked(key)
	if isNoop(current, text) {
		if s, ok := c.slots[key]; ok && s.state == StateEditing {
			s.state = restingState(s.entry)
			s.buffer = ""
			s.err = nil
		}
		c.mu.Unlock()
		if current == nil {
			return models.Entry{UserID: c.userID, Date: date, Kind: kind}, nil
		}
		return *current, nil
	}

	s := c.slotFor(key)
	if s.state == StateSaving {
		c.mu.Unlock()
		return models.Entry{}, ErrSaveInProgress
	}
	if s.state == StatePendingDelete {
		c.cancelIntentLocked(date, c.pending[date], kind)
	}
	s.state = StateSaving
	s.buffer = text
	s.err = nil
	c.mu.Unlock()

	op := apperrors.OpCreate
	attempt := models.Entry{UserID: c.userID, Date: date, Kind: kind, Text: text}
	if current != nil {
		op = apperrors.OpUpdate
		attempt = *current
		attempt.Text = text
	}

	var (
		saved models.Entry
		err   error
	)
	if op == apperrors.OpCreate {
		saved, err = c.store.CreateEntry(ctx, attempt)
	} else {
		saved, err = c.store.UpdateEntry(ctx, attempt)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	s = c.slotFor(key)
	if err != nil {
		pf := &apperrors.PersistenceFailedError{Op: op, Entry: attempt, Err: err}
		if s.state == StateSaving {
			s.state = StateEditing
		}
		s.err = pf
		c.log.Warn("save failed", "date", date, "kind", kind, "op", op, "error", err)
		return models.Entry{}, pf
	}

	c.confirmLocked(key, saved)
	if s.state == StateSaving {
		s.state = StateSaved
		s.buffer = ""
	}
	c.log.Debug("saved", "date", date, "kind", kind, "op", op, "id", saved.ID)
	return saved, nil
}

// confirmLocked records a store-confirmed entry under its own key. It is
// only visible in Entries when its date lies in the active window.
func (c *Controller) confirmLocked(key slotKey, e models.Entry) {
	if s, ok := c.slots[key]; ok {
		s.entry = copyEntry(&e)
	}
	if c.hasWindow && c.window.ContainsISO(key.date) {
		c.entries[key] = e
	}
}

// forgetLocked drops the record for key after its day was deleted
func (c *Controller) forgetLocked(key slotKey) {
	delete(c.entries, key)
	if s, ok := c.slots[key]; ok {
		s.entry = nil
		s.state = StateDeleted
		s.buffer = ""
		s.err = nil
	}
}
