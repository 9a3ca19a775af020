package api_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/julianstephens/perfassist/internal/api"
	"github.com/julianstephens/perfassist/internal/api/storetest"
	apperrors "github.com/julianstephens/perfassist/internal/errors"
	"github.com/julianstephens/perfassist/internal/models"
)

func TestListEntries(t *testing.T) {
	store := storetest.New(t)
	store.Seed(
		models.Entry{UserID: "u1", Date: "2026-01-29", Kind: models.KindPlan, Text: "A"},
		models.Entry{UserID: "u1", Date: "2026-02-10", Kind: models.KindPlan, Text: "outside"},
		models.Entry{UserID: "u2", Date: "2026-01-29", Kind: models.KindFact, Text: "other user"},
	)
	c := api.New(store.URL)

	got, err := c.ListEntries(context.Background(), "u1", "2026-01-26", "2026-02-01")
	if err != nil {
		t.Fatalf("ListEntries() error = %v", err)
	}
	if len(got) != 1 || got[0].Text != "A" {
		t.Errorf("ListEntries() = %+v, want the single in-range entry", got)
	}

	calls := store.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	if !strings.Contains(calls[0].Query, "from=2026-01-26") || !strings.Contains(calls[0].Query, "user_id=u1") {
		t.Errorf("unexpected query %q", calls[0].Query)
	}
	if calls[0].RequestID == "" {
		t.Error("request id header should be set")
	}
}

func TestListEntriesStatusHandling(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       *string
		wantFetch  bool
		wantStatus int
	}{
		{name: "server error", status: http.StatusInternalServerError, wantFetch: true, wantStatus: 500},
		{name: "bad gateway", status: http.StatusBadGateway, wantFetch: true, wantStatus: 502},
		{name: "not found is empty", status: http.StatusNotFound},
		{name: "unauthorized is empty", status: http.StatusUnauthorized},
		{name: "null body", body: strPtr("null")},
		{name: "object body", body: strPtr(`{"entries":[]}`)},
		{name: "empty body", body: strPtr("")},
		{name: "garbage body", body: strPtr("[{")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storetest.New(t)
			store.Seed(models.Entry{UserID: "u1", Date: "2026-01-29", Kind: models.KindPlan})
			if tt.status != 0 {
				store.FailNext(http.MethodGet, tt.status)
			}
			if tt.body != nil {
				store.SetListBody(*tt.body)
			}

			got, err := api.New(store.URL).ListEntries(context.Background(), "u1", "2026-01-01", "2026-12-31")
			if tt.wantFetch {
				var ff *apperrors.FetchFailedError
				if !errors.As(err, &ff) {
					t.Fatalf("error = %v, want FetchFailedError", err)
				}
				if ff.Status != tt.wantStatus {
					t.Errorf("Status = %d, want %d", ff.Status, tt.wantStatus)
				}
				return
			}
			if err != nil {
				t.Fatalf("ListEntries() error = %v, want nil", err)
			}
			if got == nil || len(got) != 0 {
				t.Errorf("ListEntries() = %#v, want empty non-nil slice", got)
			}
		})
	}
}

func TestListEntriesDropsUnknownTypes(t *testing.T) {
	store := storetest.New(t)
	store.SetListBody(`[
		{"id":"1","user_id":"u1","date":"2026-01-29","type":"plan","raw_text":"A"},
		{"id":"2","user_id":"u1","date":"2026-01-29","type":"note","raw_text":"B"}
	]`)

	got, err := api.New(store.URL).ListEntries(context.Background(), "u1", "2026-01-26", "2026-02-01")
	if err != nil {
		t.Fatalf("ListEntries() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != "1" {
		t.Errorf("ListEntries() = %+v, want only the plan entry", got)
	}
}

func TestListEntriesTransportFailure(t *testing.T) {
	store := storetest.New(t)
	url := store.URL
	store.Close()

	_, err := api.New(url).ListEntries(context.Background(), "u1", "2026-01-01", "2026-01-31")
	if !errors.Is(err, apperrors.ErrFetchFailed) {
		t.Fatalf("error = %v, want ErrFetchFailed", err)
	}
}

func TestCreateUpdateDelete(t *testing.T) {
	store := storetest.New(t)
	c := api.New(store.URL)
	ctx := context.Background()

	created, err := c.CreateEntry(ctx, models.Entry{UserID: "u1", Date: "2026-01-29", Kind: models.KindPlan, Text: "<p>A</p>"})
	if err != nil {
		t.Fatalf("CreateEntry() error = %v", err)
	}
	if created.ID == "" || created.CreatedAt == "" {
		t.Errorf("created entry missing store fields: %+v", created)
	}

	created.Text = ""
	updated, err := c.UpdateEntry(ctx, created)
	if err != nil {
		t.Fatalf("UpdateEntry() error = %v", err)
	}
	if updated.Text != "" || updated.ID != created.ID {
		t.Errorf("UpdateEntry() = %+v", updated)
	}
	if body := store.Calls()[1].Body; body.ID != created.ID || body.Kind != models.KindPlan {
		t.Errorf("PUT body should carry the full entry, got %+v", body)
	}

	if err := c.DeleteDay(ctx, "u1", "2026-01-29"); err != nil {
		t.Fatalf("DeleteDay() error = %v", err)
	}
	if n := len(store.Entries()); n != 0 {
		t.Errorf("store still holds %d entries", n)
	}
	last := store.Calls()[2]
	if last.Method != http.MethodDelete || last.Path != "/entries/2026-01-29" {
		t.Errorf("unexpected delete call %+v", last)
	}
}

func TestWriteFailures(t *testing.T) {
	store := storetest.New(t)
	c := api.New(store.URL)
	ctx := context.Background()

	store.FailNext(http.MethodPost, http.StatusInternalServerError)
	_, err := c.CreateEntry(ctx, models.Entry{UserID: "u1", Date: "2026-01-29", Kind: models.KindFact})
	var se *api.StatusError
	if !errors.As(err, &se) || se.Status != 500 {
		t.Fatalf("CreateEntry() error = %v, want StatusError 500", err)
	}

	if _, err := c.UpdateEntry(ctx, models.Entry{Date: "2026-01-29"}); err == nil {
		t.Error("UpdateEntry() without id should fail")
	}
}

func TestGenerateSummary(t *testing.T) {
	store := storetest.New(t)
	store.SetSummary(models.Summary{Goals: []models.Goal{{ID: "g1", Title: "Ship", Outputs: []string{"release"}}}})

	c := api.New(store.URL, api.WithToken("secret-token"))
	got, err := c.GenerateSummary(context.Background(), models.SummaryRequest{UserID: "u1", Period: "6months"})
	if err != nil {
		t.Fatalf("GenerateSummary() error = %v", err)
	}
	if len(got.Goals) != 1 || got.Goals[0].Title != "Ship" {
		t.Errorf("GenerateSummary() = %+v", got)
	}
	if auth := store.LastAuthorization(); auth != "Bearer secret-token" {
		t.Errorf("Authorization = %q", auth)
	}
}

func strPtr(s string) *string { return &s }
