package cli_test

import (
	"context"
	"testing"

	"github.com/julianstephens/perfassist/internal/cli/clitest"
	"github.com/julianstephens/perfassist/internal/datemath"
	"github.com/julianstephens/perfassist/internal/models"
	"github.com/julianstephens/perfassist/internal/period"
)

func entry(date string, kind models.Kind, text string) models.Entry {
	return models.Entry{UserID: "u1", Date: date, Kind: kind, Text: text}
}

// Deletes flushed on exit are applied to the cache even when nobody reads
// the events channel.
func TestFlushedDeletesReachCache(t *testing.T) {
	env := clitest.New(t)
	seeded := env.Server.Seed(
		entry("2024-03-05", models.KindPlan, "<p>plan</p>"),
		entry("2024-03-05", models.KindFact, "<p>fact</p>"),
		entry("2024-03-06", models.KindPlan, "<p>keep me</p>"),
		entry("2024-03-06", models.KindFact, "<p>clear me</p>"),
	)
	for _, e := range seeded {
		if err := env.Cache.UpsertEntry(e); err != nil {
			t.Fatalf("UpsertEntry() error = %v", err)
		}
	}

	settings, err := env.Ctx.Settings()
	if err != nil {
		t.Fatalf("Settings() error = %v", err)
	}
	ctrl := env.Ctx.Controller(settings)
	defer ctrl.Close()

	ref, err := datemath.ParseISODate("2024-03-05")
	if err != nil {
		t.Fatal(err)
	}
	w, err := period.WindowFor(ref, period.Week)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ctrl.Load(context.Background(), w); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	pair := ctrl.DayPair("2024-03-05")
	for _, e := range []*models.Entry{pair.Plan, pair.Fact, ctrl.DayPair("2024-03-06").Fact} {
		if _, err := ctrl.RequestDelete(*e); err != nil {
			t.Fatalf("RequestDelete(%s %s) error = %v", e.Date, e.Kind, err)
		}
	}
	if err := ctrl.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	if got, err := env.Cache.GetEntries("u1", "2024-03-05", "2024-03-05"); err != nil || len(got) != 0 {
		t.Errorf("cached 2024-03-05 = %+v, %v, want none", got, err)
	}
	got, err := env.Cache.GetEntries("u1", "2024-03-06", "2024-03-06")
	if err != nil {
		t.Fatalf("GetEntries() error = %v", err)
	}
	texts := map[models.Kind]string{}
	for _, e := range got {
		texts[e.Kind] = e.Text
	}
	if texts[models.KindPlan] != "<p>keep me</p>" || texts[models.KindFact] != "" {
		t.Errorf("cached 2024-03-06 = %+v, want plan kept and fact cleared", got)
	}
}
