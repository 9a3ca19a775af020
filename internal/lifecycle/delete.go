package lifecycle

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/julianstephens/perfassist/internal/datemath"
	apperrors "github.com/julianstephens/perfassist/internal/errors"
	"github.com/julianstephens/perfassist/internal/models"
)

// Outcome describes how a date's delete intents were settled
type Outcome int

const (
	// OutcomeDayDeleted means both records of the date were removed
	OutcomeDayDeleted Outcome = iota + 1
	// OutcomeCleared means a single record was kept with its text blanked
	OutcomeCleared
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDayDeleted:
		return "day-deleted"
	case OutcomeCleared:
		return "cleared"
	default:
		return "unknown"
	}
}

// Event reports a settled delete. Err is set when the store rejected it,
// in which case the records are unchanged.
type Event struct {
	Date    string
	Kinds   []models.Kind
	Outcome Outcome
	// Entry is the blanked record for OutcomeCleared
	Entry *models.Entry
	Err   error
}

// Intent is the delete state of one slot after RequestDelete
type Intent struct {
	Date    string
	Kind    models.Kind
	Pending bool
}

// RequestDelete toggles a delete intent for the entry's slot. When both
// slots of a date are pending, the whole day is deleted at once. A lone
// intent is settled after the delete window as a blank update that keeps
// the record. Requesting an already pending slot cancels its intent.
func (c *Controller) RequestDelete(entry models.Entry) (Intent, error) {
	if entry.IsPlaceholder() {
		return Intent{}, ErrPlaceholder
	}
	if _, err := datemath.ParseISODate(entry.Date); err != nil {
		return Intent{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return Intent{}, ErrClosed
	}
	if c.settling[entry.Date] {
		return Intent{}, ErrDeleteInProgress
	}

	date, kind := entry.Date, entry.Kind
	intent := Intent{Date: date, Kind: kind}
	day := c.pending[date]

	if day != nil {
		if _, ok := day.kinds[kind]; ok {
			c.cancelIntentLocked(date, day, kind)
			c.log.Debug("delete intent cancelled", "date", date, "kind", kind)
			return intent, nil
		}
	}

	key := slotKey{date, kind}
	s := c.slotFor(key)
	if s.state == StateSaving {
		return Intent{}, ErrSaveInProgress
	}
	target := entry
	if s.entry != nil {
		target = *s.entry
	}
	s.state = StatePendingDelete
	s.buffer = ""
	s.err = nil

	if day == nil {
		day = &pendingDay{kinds: make(map[models.Kind]models.Entry)}
		c.pending[date] = day
	}
	day.kinds[kind] = target
	intent.Pending = true

	if len(day.kinds) == len(models.Kinds) {
		c.takeLocked(date, day)
		c.settling[date] = true
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.settle(context.Background(), date, day.kinds)
		}()
		return intent, nil
	}

	if day.timer == nil {
		c.wg.Add(1)
		day.timer = c.armTimer(date, day)
	}
	c.log.Debug("delete intent pending", "date", date, "kind", kind, "window", c.deleteWindow)
	return intent, nil
}

// armTimer starts the delete window for day. The wait group slot taken by
// the caller is released by the callback or by a successful Stop.
func (c *Controller) armTimer(date string, day *pendingDay) *time.Timer {
	return time.AfterFunc(c.deleteWindow, func() {
		defer c.wg.Done()
		c.mu.Lock()
		if c.pending[date] != day {
			c.mu.Unlock()
			return
		}
		delete(c.pending, date)
		c.settling[date] = true
		kinds := day.kinds
		c.mu.Unlock()
		c.settle(context.Background(), date, kinds)
	})
}

// takeLocked removes day from the pending set and disarms its timer
func (c *Controller) takeLocked(date string, day *pendingDay) {
	delete(c.pending, date)
	if day.timer != nil && day.timer.Stop() {
		c.wg.Done()
	}
}

// cancelIntentLocked withdraws kind from day and restores the slot
func (c *Controller) cancelIntentLocked(date string, day *pendingDay, kind models.Kind) {
	if day == nil {
		return
	}
	delete(day.kinds, kind)
	if s, ok := c.slots[slotKey{date, kind}]; ok && s.state == StatePendingDelete {
		s.state = restingState(s.entry)
	}
	if len(day.kinds) == 0 {
		c.takeLocked(date, day)
	}
}

// settle applies the collected intents of one date to the store. The
// caller marks date as settling; settleDay and settleSingle clear the mark
// before their event is emitted.
func (c *Controller) settle(ctx context.Context, date string, kinds map[models.Kind]models.Entry) error {
	if len(kinds) == len(models.Kinds) {
		return c.settleDay(ctx, date, kinds)
	}
	for _, k := range models.Kinds {
		if e, ok := kinds[k]; ok {
			return c.settleSingle(ctx, e)
		}
	}
	c.mu.Lock()
	delete(c.settling, date)
	c.mu.Unlock()
	return nil
}

func (c *Controller) settleDay(ctx context.Context, date string, kinds map[models.Kind]models.Entry) error {
	err := c.store.DeleteDay(ctx, c.userID, date)

	c.mu.Lock()
	delete(c.settling, date)
	ev := Event{Date: date, Kinds: models.Kinds, Outcome: OutcomeDayDeleted}
	if err != nil {
		pf := &apperrors.PersistenceFailedError{Op: apperrors.OpDeleteDay, Entry: kinds[models.KindPlan], Err: err}
		for _, k := range models.Kinds {
			c.restoreLocked(slotKey{date, k}, pf)
		}
		ev.Err = pf
		c.log.Warn("day delete failed", "date", date, "error", err)
	} else {
		for _, k := range models.Kinds {
			c.forgetLocked(slotKey{date, k})
		}
		c.log.Debug("day deleted", "date", date)
	}
	c.mu.Unlock()

	c.emit(ev)
	return ev.Err
}

func (c *Controller) settleSingle(ctx context.Context, e models.Entry) error {
	blank := e
	blank.Text = ""
	updated, err := c.store.UpdateEntry(ctx, blank)

	key := slotKey{e.Date, e.Kind}
	c.mu.Lock()
	delete(c.settling, e.Date)
	ev := Event{Date: e.Date, Kinds: []models.Kind{e.Kind}, Outcome: OutcomeCleared}
	if err != nil {
		pf := &apperrors.PersistenceFailedError{Op: apperrors.OpUpdate, Entry: blank, Err: err}
		c.restoreLocked(key, pf)
		ev.Err = pf
		c.log.Warn("clearing entry failed", "date", e.Date, "kind", e.Kind, "error", err)
	} else {
		c.confirmLocked(key, updated)
		if s, ok := c.slots[key]; ok && s.state == StatePendingDelete {
			s.state = StateEmpty
		}
		ev.Entry = &updated
		c.log.Debug("entry cleared", "date", e.Date, "kind", e.Kind)
	}
	c.mu.Unlock()

	c.emit(ev)
	return ev.Err
}

// restoreLocked returns a slot whose delete failed to its resting state
func (c *Controller) restoreLocked(key slotKey, err error) {
	if s, ok := c.slots[key]; ok && s.state == StatePendingDelete {
		s.state = restingState(s.entry)
		s.err = err
	}
}

// PendingDeletes lists the slots of date with an outstanding intent
func (c *Controller) PendingDeletes(date string) []models.Kind {
	c.mu.Lock()
	defer c.mu.Unlock()
	day := c.pending[date]
	if day == nil {
		return nil
	}
	var out []models.Kind
	for _, k := range models.Kinds {
		if _, ok := day.kinds[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

// Flush settles every pending date immediately and waits for settlements
// already in flight. It returns the joined store errors.
func (c *Controller) Flush(ctx context.Context) error {
	c.mu.Lock()
	batch := make(map[string]map[models.Kind]models.Entry, len(c.pending))
	for date, day := range c.pending {
		c.takeLocked(date, day)
		c.settling[date] = true
		batch[date] = day.kinds
	}
	c.mu.Unlock()

	var errs []error
	for date, kinds := range batch {
		if err := c.settle(ctx, date, kinds); err != nil {
			errs = append(errs, err)
		}
	}
	c.wg.Wait()
	return stderrors.Join(errs...)
}

// Events delivers settlement outcomes. The channel is closed by Close.
func (c *Controller) Events() <-chan Event {
	return c.events
}

func (c *Controller) emit(ev Event) {
	if c.onSettle != nil {
		c.onSettle(ev)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.eventsClosed {
		return
	}
	select {
	case c.events <- ev:
	default:
		c.log.Warn("event dropped, no reader", "date", ev.Date, "outcome", ev.Outcome)
	}
}

// Close drops pending intents without settling them, waits for in-flight
// settlements and closes the Events channel. Call Flush first to keep them.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	for date, day := range c.pending {
		for k := range day.kinds {
			if s, ok := c.slots[slotKey{date, k}]; ok {
				s.state = restingState(s.entry)
			}
		}
		c.takeLocked(date, day)
	}
	c.mu.Unlock()

	c.wg.Wait()

	c.mu.Lock()
	c.eventsClosed = true
	close(c.events)
	c.mu.Unlock()
}
