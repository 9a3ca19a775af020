package lifecycle_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/julianstephens/perfassist/internal/api"
	"github.com/julianstephens/perfassist/internal/api/storetest"
	"github.com/julianstephens/perfassist/internal/datemath"
	apperrors "github.com/julianstephens/perfassist/internal/errors"
	"github.com/julianstephens/perfassist/internal/lifecycle"
	"github.com/julianstephens/perfassist/internal/models"
	"github.com/julianstephens/perfassist/internal/period"
)

const user = "u1"

func week(t *testing.T, ref string) period.Window {
	t.Helper()
	d, err := datemath.ParseISODate(ref)
	if err != nil {
		t.Fatalf("bad date %q: %v", ref, err)
	}
	w, err := period.WindowFor(d, period.Week)
	if err != nil {
		t.Fatalf("WindowFor() error = %v", err)
	}
	return w
}

func setup(t *testing.T, window time.Duration, seed ...models.Entry) (*lifecycle.Controller, *storetest.Server) {
	t.Helper()
	store := storetest.New(t)
	store.Seed(seed...)
	c := lifecycle.New(api.New(store.URL), user, lifecycle.Options{DeleteWindow: window})
	t.Cleanup(c.Close)
	return c, store
}

func waitEvent(t *testing.T, c *lifecycle.Controller) lifecycle.Event {
	t.Helper()
	select {
	case ev := <-c.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a settlement event")
		return lifecycle.Event{}
	}
}

func pair(date string) []models.Entry {
	return []models.Entry{
		{UserID: user, Date: date, Kind: models.KindPlan, Text: "<p>plan</p>"},
		{UserID: user, Date: date, Kind: models.KindFact, Text: "<p>fact</p>"},
	}
}

func TestLoad(t *testing.T) {
	c, _ := setup(t, time.Hour, pair("2026-01-29")...)

	got, err := c.Load(context.Background(), week(t, "2026-01-29"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != 2 || got[0].Kind != models.KindPlan || got[1].Kind != models.KindFact {
		t.Errorf("Load() = %+v, want plan then fact", got)
	}
	if s := c.Slot("2026-01-29", models.KindFact); s.State != lifecycle.StateSaved || s.Text() != "<p>fact</p>" {
		t.Errorf("fact slot = %+v", s)
	}
	if s := c.Slot("2026-01-30", models.KindPlan); s.State != lifecycle.StateEmpty || s.Entry != nil {
		t.Errorf("absent slot should be an empty placeholder, got %+v", s)
	}
}

func TestLoadEmptyResult(t *testing.T) {
	c, store := setup(t, time.Hour)
	store.SetListBody("null")

	got, err := c.Load(context.Background(), week(t, "2026-01-29"))
	if err != nil {
		t.Fatalf("Load() error = %v, want nil for an empty result", err)
	}
	if len(got) != 0 {
		t.Errorf("Load() = %+v, want no entries", got)
	}
}

func TestLoadLastRequestWins(t *testing.T) {
	c, store := setup(t, time.Hour,
		models.Entry{UserID: user, Date: "2026-01-27", Kind: models.KindPlan, Text: "week A"},
		models.Entry{UserID: user, Date: "2026-02-03", Kind: models.KindPlan, Text: "week B"},
	)
	weekA, weekB := week(t, "2026-01-27"), week(t, "2026-02-03")

	release := store.Hold(datemath.FormatISODate(weekA.Start))
	defer release()

	type result struct {
		entries []models.Entry
		err     error
	}
	done := make(chan result, 1)
	go func() {
		e, err := c.Load(context.Background(), weekA)
		done <- result{e, err}
	}()

	// wait until the first request reached the store
	deadline := time.Now().Add(2 * time.Second)
	for store.CallsTo(http.MethodGet) < 1 {
		if time.Now().After(deadline) {
			t.Fatal("first load never reached the store")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if _, err := c.Load(context.Background(), weekB); err != nil {
		t.Fatalf("Load(weekB) error = %v", err)
	}
	release()

	first := <-done
	if !errors.Is(first.err, lifecycle.ErrStaleLoad) {
		t.Errorf("Load(weekA) error = %v, want ErrStaleLoad", first.err)
	}

	entries := c.Entries()
	if len(entries) != 1 || entries[0].Text != "week B" {
		t.Errorf("Entries() = %+v, want week B's result", entries)
	}
	if w, _ := c.Window(); !w.Start.Equal(weekB.Start) {
		t.Errorf("active window = %s, want %s", w, weekB)
	}
}

func TestLoadFetchFailedKeepsPreviousEntries(t *testing.T) {
	c, store := setup(t, time.Hour)
	w := week(t, "2026-01-29")
	c.Seed(w, []models.Entry{{ID: "cached", UserID: user, Date: "2026-01-29", Kind: models.KindPlan, Text: "stale"}})

	store.FailNext(http.MethodGet, http.StatusServiceUnavailable)
	_, err := c.Load(context.Background(), w)
	if !errors.Is(err, apperrors.ErrFetchFailed) {
		t.Fatalf("Load() error = %v, want ErrFetchFailed", err)
	}
	if got := c.Entries(); len(got) != 1 || got[0].Text != "stale" {
		t.Errorf("Entries() = %+v, want the seeded entry", got)
	}
}

func TestSaveCreatesThenUpdates(t *testing.T) {
	c, store := setup(t, time.Hour)
	ctx := context.Background()
	if _, err := c.Load(ctx, week(t, "2026-01-29")); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	created, err := c.Save(ctx, "2026-01-29", models.KindPlan, "<p>first</p>")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if created.ID == "" {
		t.Fatal("created entry should carry a store id")
	}

	updated, err := c.Save(ctx, "2026-01-29", models.KindPlan, "<p>second</p>")
	if err != nil {
		t.Fatalf("second Save() error = %v", err)
	}
	if updated.ID != created.ID {
		t.Errorf("second save should update %s, got %s", created.ID, updated.ID)
	}
	if store.CallsTo(http.MethodPost) != 1 || store.CallsTo(http.MethodPut) != 1 {
		t.Errorf("calls = %+v, want one POST then one PUT", store.Calls())
	}
	if got := c.Entries(); len(got) != 1 || got[0].Text != "<p>second</p>" {
		t.Errorf("Entries() = %+v", got)
	}
	if s := c.Slot("2026-01-29", models.KindPlan); s.State != lifecycle.StateSaved {
		t.Errorf("slot state = %s, want saved", s.State)
	}
}

func TestSaveNoops(t *testing.T) {
	c, store := setup(t, time.Hour, models.Entry{UserID: user, Date: "2026-01-29", Kind: models.KindPlan, Text: "same"})
	ctx := context.Background()
	if _, err := c.Load(ctx, week(t, "2026-01-29")); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	before := len(store.Calls())

	got, err := c.Save(ctx, "2026-01-29", models.KindPlan, "same")
	if err != nil || got.Text != "same" || got.ID == "" {
		t.Errorf("unchanged Save() = %+v, %v", got, err)
	}
	got, err = c.Save(ctx, "2026-01-29", models.KindFact, "   ")
	if err != nil || !got.IsPlaceholder() {
		t.Errorf("blank Save() into an absent slot = %+v, %v", got, err)
	}
	if after := len(store.Calls()); after != before {
		t.Errorf("no-op saves made %d store calls", after-before)
	}
}

func TestSaveInvalidDate(t *testing.T) {
	c, store := setup(t, time.Hour)
	_, err := c.Save(context.Background(), "2026-02-30", models.KindPlan, "x")
	if !errors.Is(err, apperrors.ErrInvalidDate) {
		t.Errorf("Save() error = %v, want ErrInvalidDate", err)
	}
	if n := len(store.Calls()); n != 0 {
		t.Errorf("invalid date made %d store calls", n)
	}
}

func TestSaveFailureKeepsBuffer(t *testing.T) {
	c, store := setup(t, time.Hour)
	ctx := context.Background()
	if _, err := c.Load(ctx, week(t, "2026-01-29")); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := c.Edit("2026-01-29", models.KindFact, "<p>draft</p>"); err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	if !c.Dirty("2026-01-29", models.KindFact) {
		t.Error("edited slot should be dirty")
	}

	store.FailNext(http.MethodPost, http.StatusInternalServerError)
	_, err := c.Save(ctx, "2026-01-29", models.KindFact, "<p>draft</p>")

	var pf *apperrors.PersistenceFailedError
	if !errors.As(err, &pf) {
		t.Fatalf("Save() error = %v, want PersistenceFailedError", err)
	}
	if pf.Op != apperrors.OpCreate || pf.Entry.Kind != models.KindFact || pf.Entry.Date != "2026-01-29" {
		t.Errorf("PersistenceFailedError = %+v", pf)
	}

	s := c.Slot("2026-01-29", models.KindFact)
	if s.State != lifecycle.StateEditing || s.Buffer != "<p>draft</p>" || s.Err == nil {
		t.Errorf("slot after failure = %+v, want editing with buffer and error", s)
	}
	if got := c.Entries(); len(got) != 0 {
		t.Errorf("unconfirmed save leaked into entries: %+v", got)
	}

	if _, err := c.Save(ctx, "2026-01-29", models.KindFact, s.Buffer); err != nil {
		t.Fatalf("retry Save() error = %v", err)
	}
	if got := c.Entries(); len(got) != 1 {
		t.Errorf("Entries() after retry = %+v", got)
	}
}

func TestLateSaveKeyedByDateAndKind(t *testing.T) {
	c, _ := setup(t, time.Hour)
	ctx := context.Background()
	if _, err := c.Load(ctx, week(t, "2026-01-29")); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// The save belongs to a week that is no longer displayed
	saved, err := c.Save(ctx, "2026-03-10", models.KindPlan, "<p>elsewhere</p>")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if got := c.Entries(); len(got) != 0 {
		t.Errorf("out-of-window save should not join the visible entries, got %+v", got)
	}
	s := c.Slot("2026-03-10", models.KindPlan)
	if s.Entry == nil || s.Entry.ID != saved.ID {
		t.Errorf("slot for the saved key = %+v", s)
	}
	if other := c.Slot("2026-01-29", models.KindPlan); other.Entry != nil {
		t.Errorf("save leaked into another slot: %+v", other)
	}
}

func TestDeleteBothKindsDeletesDay(t *testing.T) {
	c, store := setup(t, time.Hour, pair("2026-01-29")...)
	ctx := context.Background()
	entries, err := c.Load(ctx, week(t, "2026-01-29"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	for _, e := range entries {
		intent, err := c.RequestDelete(e)
		if err != nil || !intent.Pending {
			t.Fatalf("RequestDelete(%s) = %+v, %v", e.Kind, intent, err)
		}
	}

	ev := waitEvent(t, c)
	if ev.Outcome != lifecycle.OutcomeDayDeleted || ev.Err != nil || ev.Date != "2026-01-29" {
		t.Errorf("event = %+v", ev)
	}

	var deletes []storetest.Call
	for _, call := range store.Calls() {
		if call.Method == http.MethodDelete {
			deletes = append(deletes, call)
		}
	}
	if len(deletes) != 1 || deletes[0].Path != "/entries/2026-01-29" {
		t.Errorf("DELETE calls = %+v, want exactly one for the date", deletes)
	}
	if n := store.CallsTo(http.MethodPut); n != 0 {
		t.Errorf("unexpected %d PUT calls", n)
	}
	if got := c.Entries(); len(got) != 0 {
		t.Errorf("Entries() = %+v, want none", got)
	}
	if s := c.Slot("2026-01-29", models.KindPlan); s.State != lifecycle.StateDeleted {
		t.Errorf("plan slot state = %s, want deleted", s.State)
	}
}

func TestDeleteSingleKindClearsText(t *testing.T) {
	c, store := setup(t, 10*time.Millisecond, pair("2026-01-29")...)
	ctx := context.Background()
	if _, err := c.Load(ctx, week(t, "2026-01-29")); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	plan := c.DayPair("2026-01-29").Plan

	if _, err := c.RequestDelete(*plan); err != nil {
		t.Fatalf("RequestDelete() error = %v", err)
	}
	if s := c.Slot(plan.Date, plan.Kind); s.State != lifecycle.StatePendingDelete {
		t.Errorf("slot state = %s, want pending-delete", s.State)
	}

	ev := waitEvent(t, c)
	if ev.Outcome != lifecycle.OutcomeCleared || ev.Err != nil {
		t.Fatalf("event = %+v", ev)
	}

	var puts []storetest.Call
	for _, call := range store.Calls() {
		if call.Method == http.MethodPut {
			puts = append(puts, call)
		}
	}
	if len(puts) != 1 || puts[0].Body.Text != "" || puts[0].Body.ID != plan.ID {
		t.Errorf("PUT calls = %+v, want one blank update of the plan", puts)
	}
	if n := store.CallsTo(http.MethodDelete); n != 0 {
		t.Errorf("unexpected %d DELETE calls", n)
	}

	got := c.DayPair("2026-01-29")
	if got.Plan == nil || got.Plan.Text != "" {
		t.Errorf("plan should be kept with empty text, got %+v", got.Plan)
	}
	if got.Fact == nil || got.Fact.Text != "<p>fact</p>" {
		t.Errorf("fact should be untouched, got %+v", got.Fact)
	}
}

func TestDeleteToggleCancels(t *testing.T) {
	c, store := setup(t, 20*time.Millisecond, pair("2026-01-29")...)
	if _, err := c.Load(context.Background(), week(t, "2026-01-29")); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	plan := *c.DayPair("2026-01-29").Plan

	if _, err := c.RequestDelete(plan); err != nil {
		t.Fatalf("RequestDelete() error = %v", err)
	}
	intent, err := c.RequestDelete(plan)
	if err != nil || intent.Pending {
		t.Fatalf("second RequestDelete() = %+v, %v, want cancelled", intent, err)
	}
	if got := c.PendingDeletes("2026-01-29"); len(got) != 0 {
		t.Errorf("PendingDeletes() = %v, want none", got)
	}

	time.Sleep(80 * time.Millisecond)
	if n := store.CallsTo(http.MethodPut) + store.CallsTo(http.MethodDelete); n != 0 {
		t.Errorf("cancelled intent reached the store %d times", n)
	}
	if s := c.Slot("2026-01-29", models.KindPlan); s.State != lifecycle.StateSaved {
		t.Errorf("slot state = %s, want saved", s.State)
	}
}

func TestDeletePlaceholder(t *testing.T) {
	c, _ := setup(t, time.Hour)
	_, err := c.RequestDelete(models.Entry{Date: "2026-01-29", Kind: models.KindPlan})
	if !errors.Is(err, lifecycle.ErrPlaceholder) {
		t.Errorf("RequestDelete() error = %v, want ErrPlaceholder", err)
	}
}

func TestFlushSettlesPendingIntents(t *testing.T) {
	c, store := setup(t, time.Hour, pair("2026-01-29")...)
	ctx := context.Background()
	if _, err := c.Load(ctx, week(t, "2026-01-29")); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, err := c.RequestDelete(*c.DayPair("2026-01-29").Fact); err != nil {
		t.Fatalf("RequestDelete() error = %v", err)
	}

	if err := c.Flush(ctx); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if n := store.CallsTo(http.MethodPut); n != 1 {
		t.Errorf("Flush() made %d PUT calls, want 1", n)
	}
	if ev := waitEvent(t, c); ev.Outcome != lifecycle.OutcomeCleared {
		t.Errorf("event = %+v", ev)
	}
}

func TestDeleteFailureKeepsRecords(t *testing.T) {
	c, store := setup(t, time.Hour, pair("2026-01-29")...)
	ctx := context.Background()
	entries, err := c.Load(ctx, week(t, "2026-01-29"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	store.FailNext(http.MethodDelete, http.StatusInternalServerError)
	for _, e := range entries {
		if _, err := c.RequestDelete(e); err != nil {
			t.Fatalf("RequestDelete() error = %v", err)
		}
	}

	ev := waitEvent(t, c)
	if !errors.Is(ev.Err, apperrors.ErrPersistenceFailed) {
		t.Fatalf("event error = %v, want ErrPersistenceFailed", ev.Err)
	}
	if got := c.Entries(); len(got) != 2 {
		t.Errorf("Entries() = %+v, want both records kept", got)
	}
	s := c.Slot("2026-01-29", models.KindPlan)
	if s.State != lifecycle.StateSaved || s.Err == nil {
		t.Errorf("slot = %+v, want saved with an error annotation", s)
	}
}

func TestEditCancelsPendingDelete(t *testing.T) {
	c, _ := setup(t, time.Hour, pair("2026-01-29")...)
	if _, err := c.Load(context.Background(), week(t, "2026-01-29")); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, err := c.RequestDelete(*c.DayPair("2026-01-29").Plan); err != nil {
		t.Fatalf("RequestDelete() error = %v", err)
	}
	if err := c.Edit("2026-01-29", models.KindPlan, "<p>plan</p>"); err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	if got := c.PendingDeletes("2026-01-29"); len(got) != 0 {
		t.Errorf("PendingDeletes() = %v, want none", got)
	}
	if c.Dirty("2026-01-29", models.KindPlan) {
		t.Error("buffer equal to the saved text should not be dirty")
	}
}

func TestRequestDeleteAfterClose(t *testing.T) {
	c, _ := setup(t, time.Hour)
	c.Close()
	_, err := c.RequestDelete(models.Entry{ID: "x", Date: "2026-01-29", Kind: models.KindPlan})
	if !errors.Is(err, lifecycle.ErrClosed) {
		t.Errorf("RequestDelete() error = %v, want ErrClosed", err)
	}
	if _, ok := <-c.Events(); ok {
		t.Error("Events() should be closed")
	}
}

func TestDiscardRestoresConfirmedText(t *testing.T) {
	c, _ := setup(t, time.Hour, models.Entry{UserID: user, Date: "2026-01-29", Kind: models.KindFact, Text: "kept"})
	if _, err := c.Load(context.Background(), week(t, "2026-01-29")); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if err := c.Edit("2026-01-29", models.KindFact, "draft"); err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	if !c.Dirty("2026-01-29", models.KindFact) {
		t.Fatal("edited slot should be dirty")
	}
	c.Discard("2026-01-29", models.KindFact)

	s := c.Slot("2026-01-29", models.KindFact)
	if s.State != lifecycle.StateSaved || s.Text() != "kept" {
		t.Errorf("slot after Discard = %s %q, want saved %q", s.State, s.Text(), "kept")
	}
	if c.Dirty("2026-01-29", models.KindFact) {
		t.Error("discarded slot should not be dirty")
	}
}

// gatedStore blocks DeleteDay until release is closed
type gatedStore struct {
	lifecycle.Store
	entered chan struct{}
	release chan struct{}
}

func (g *gatedStore) DeleteDay(ctx context.Context, userID, date string) error {
	g.entered <- struct{}{}
	<-g.release
	return g.Store.DeleteDay(ctx, userID, date)
}

func TestDayDeleteInFlightRejectsChanges(t *testing.T) {
	store := storetest.New(t)
	store.Seed(pair("2026-01-29")...)
	gate := &gatedStore{
		Store:   api.New(store.URL),
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	c := lifecycle.New(gate, user, lifecycle.Options{DeleteWindow: time.Hour})
	t.Cleanup(c.Close)
	var once sync.Once
	release := func() { once.Do(func() { close(gate.release) }) }
	t.Cleanup(release)

	ctx := context.Background()
	entries, err := c.Load(ctx, week(t, "2026-01-29"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	for _, e := range entries {
		if _, err := c.RequestDelete(e); err != nil {
			t.Fatalf("RequestDelete(%s) error = %v", e.Kind, err)
		}
	}
	select {
	case <-gate.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("DeleteDay was not called")
	}

	if _, err := c.RequestDelete(entries[0]); !errors.Is(err, lifecycle.ErrDeleteInProgress) {
		t.Errorf("RequestDelete() during day delete error = %v, want ErrDeleteInProgress", err)
	}
	if err := c.Edit("2026-01-29", models.KindFact, "<p>late</p>"); !errors.Is(err, lifecycle.ErrDeleteInProgress) {
		t.Errorf("Edit() during day delete error = %v, want ErrDeleteInProgress", err)
	}
	if _, err := c.Save(ctx, "2026-01-29", models.KindPlan, "<p>late</p>"); !errors.Is(err, lifecycle.ErrDeleteInProgress) {
		t.Errorf("Save() during day delete error = %v, want ErrDeleteInProgress", err)
	}

	release()
	ev := waitEvent(t, c)
	if ev.Outcome != lifecycle.OutcomeDayDeleted || ev.Err != nil {
		t.Fatalf("event = %+v, want day deleted", ev)
	}
	select {
	case ev := <-c.Events():
		t.Errorf("unexpected second event %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
	if n := store.CallsTo(http.MethodPut); n != 0 {
		t.Errorf("PUT calls = %d, want 0", n)
	}
	if n := store.CallsTo(http.MethodDelete); n != 1 {
		t.Errorf("DELETE calls = %d, want 1", n)
	}
	for _, k := range models.Kinds {
		if s := c.Slot("2026-01-29", k); s.State != lifecycle.StateDeleted {
			t.Errorf("%s slot state = %s, want deleted", k, s.State)
		}
	}
}
