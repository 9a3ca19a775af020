package system

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/julianstephens/perfassist/internal/cli"
	"github.com/julianstephens/perfassist/internal/cli/clitest"
	"github.com/julianstephens/perfassist/internal/keyring"
	"github.com/julianstephens/perfassist/internal/models"
	"github.com/julianstephens/perfassist/internal/storage/sqlite"
)

func setupTestInitDB(t *testing.T) (*cli.Context, string, func()) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "test.db")

	store := sqlite.NewStore(dbPath)

	ctx := &cli.Context{
		Store: store,
		Out:   &bytes.Buffer{},
	}

	cleanup := func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	}

	return ctx, dbPath, cleanup
}

func TestInitCmd_Success(t *testing.T) {
	ctx, dbPath, cleanup := setupTestInitDB(t)
	defer cleanup()

	cmd := &InitCmd{}
	if err := cmd.Run(ctx); err != nil {
		t.Errorf("init command failed: %v", err)
	}

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Errorf("database file was not created at %s", dbPath)
	}
}

func TestInitCmd_Idempotent(t *testing.T) {
	ctx, _, cleanup := setupTestInitDB(t)
	defer cleanup()

	cmd := &InitCmd{}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("first init failed: %v", err)
	}

	settings, _ := ctx.Store.GetSettings()
	settings.UserID = "alice"
	if err := ctx.Store.SaveSettings(settings); err != nil {
		t.Fatalf("failed to save settings: %v", err)
	}

	if err := cmd.Run(ctx); err != nil {
		t.Errorf("second init failed (should be idempotent): %v", err)
	}
	got, _ := ctx.Store.GetSettings()
	if got.UserID != "alice" {
		t.Errorf("re-running init reset settings: %+v", got)
	}
}

func TestInitCmd_ForceDeletesExisting(t *testing.T) {
	ctx, _, cleanup := setupTestInitDB(t)
	defer cleanup()

	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatalf("initial init failed: %v", err)
	}
	settings, _ := ctx.Store.GetSettings()
	settings.UserID = "alice"
	if err := ctx.Store.SaveSettings(settings); err != nil {
		t.Fatalf("failed to save settings: %v", err)
	}

	if err := (&InitCmd{Force: true}).Run(ctx); err != nil {
		t.Fatalf("force init failed: %v", err)
	}
	got, err := ctx.Store.GetSettings()
	if err != nil {
		t.Fatalf("failed to get settings: %v", err)
	}
	if got.UserID == "alice" {
		t.Error("expected --force to reset settings")
	}
	if out := ctx.Out.(*bytes.Buffer).String(); !strings.Contains(out, "Deleted existing database") {
		t.Errorf("output = %q", out)
	}
}

func TestDoctorCmd_Healthy(t *testing.T) {
	gokeyring.MockInit()
	env := clitest.New(t)

	cmd := &DoctorCmd{}
	if err := cmd.Run(env.Ctx); err != nil {
		t.Fatalf("doctor failed on a healthy setup: %v\n%s", err, env.Out.String())
	}
	out := env.Out.String()
	for _, want := range []string{"✓ Database reachable: OK", "✓ Schema version: OK", "✓ Entry store: OK", "All diagnostics passed!"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestDoctorCmd_StoreDown(t *testing.T) {
	gokeyring.MockInit()
	env := clitest.New(t)
	env.Server.Close()

	cmd := &DoctorCmd{}
	if err := cmd.Run(env.Ctx); err == nil {
		t.Fatal("expected doctor to fail when the entry store is down")
	}
	if !strings.Contains(env.Out.String(), "❌ Entry store: FAIL") {
		t.Errorf("output = %s", env.Out.String())
	}
}

func TestDoctorCmd_Offline(t *testing.T) {
	gokeyring.MockInit()
	env := clitest.New(t)
	env.Server.Close()

	cmd := &DoctorCmd{Offline: true}
	if err := cmd.Run(env.Ctx); err != nil {
		t.Fatalf("offline doctor failed: %v\n%s", err, env.Out.String())
	}
	if strings.Contains(env.Out.String(), "Entry store") {
		t.Errorf("offline run checked the entry store:\n%s", env.Out.String())
	}
}

func TestDoctorCmd_BadTimezone(t *testing.T) {
	gokeyring.MockInit()
	env := clitest.New(t)
	env.Ctx.Overrides.Timezone = "Nowhere/Special"

	cmd := &DoctorCmd{Offline: true}
	if err := cmd.Run(env.Ctx); err == nil {
		t.Fatal("expected doctor to fail with an unknown timezone")
	}
	if !strings.Contains(env.Out.String(), "❌ Timezone: FAIL") {
		t.Errorf("output = %s", env.Out.String())
	}
}

func TestDoctorCmd_MissingDatabase(t *testing.T) {
	gokeyring.MockInit()
	ctx := &cli.Context{
		Store: sqlite.NewStore(filepath.Join(t.TempDir(), "missing.db")),
		Out:   &bytes.Buffer{},
	}

	cmd := &DoctorCmd{Offline: true}
	if err := cmd.Run(ctx); err == nil {
		t.Fatal("expected doctor to fail without a database")
	}
	out := ctx.Out.(*bytes.Buffer).String()
	if !strings.Contains(out, "⊘ Schema version: SKIPPED") {
		t.Errorf("output = %s", out)
	}
}

func TestTokenCommands(t *testing.T) {
	gokeyring.MockInit()
	defer func() { _ = keyring.DeleteToken() }()

	out := &bytes.Buffer{}
	ctx := &cli.Context{Out: out}

	if err := (&TokenGetCmd{}).Run(ctx); err == nil {
		t.Error("expected an error before a token is stored")
	}

	if err := (&TokenSetCmd{Token: "  abcd1234efgh5678  "}).Run(ctx); err != nil {
		t.Fatalf("TokenSetCmd.Run() error = %v", err)
	}
	stored, err := keyring.GetToken()
	if err != nil || stored != "abcd1234efgh5678" {
		t.Fatalf("stored token = %q, %v", stored, err)
	}

	out.Reset()
	if err := (&TokenGetCmd{}).Run(ctx); err != nil {
		t.Fatalf("TokenGetCmd.Run() error = %v", err)
	}
	if !strings.Contains(out.String(), "abcd********5678") {
		t.Errorf("get output = %q, want masked token", out.String())
	}
	if strings.Contains(out.String(), "abcd1234efgh5678") {
		t.Error("get printed the token in clear")
	}

	if err := (&TokenStatusCmd{}).Run(ctx); err != nil {
		t.Errorf("TokenStatusCmd.Run() error = %v", err)
	}

	if err := (&TokenDeleteCmd{}).Run(ctx); err != nil {
		t.Fatalf("TokenDeleteCmd.Run() error = %v", err)
	}
	if err := (&TokenDeleteCmd{}).Run(ctx); err == nil {
		t.Error("expected an error deleting a missing token")
	}
}

func TestContextUsesKeyringToken(t *testing.T) {
	gokeyring.MockInit()
	defer func() { _ = keyring.DeleteToken() }()

	env := clitest.New(t)
	env.Ctx.Token = ""
	if got := env.Ctx.SummaryToken(); got != "" {
		t.Errorf("SummaryToken() = %q, want empty", got)
	}
	if err := keyring.SetToken("from-keyring"); err != nil {
		t.Fatalf("SetToken() error = %v", err)
	}
	if got := env.Ctx.SummaryToken(); got != "from-keyring" {
		t.Errorf("SummaryToken() = %q", got)
	}
}

func TestMigrateCmd(t *testing.T) {
	env := clitest.New(t)
	if err := (&MigrateCmd{}).Run(env.Ctx); err != nil {
		t.Fatalf("MigrateCmd.Run() error = %v", err)
	}
	if !strings.Contains(env.Out.String(), "up to date (schema version 2)") {
		t.Errorf("output = %q", env.Out.String())
	}
}

func TestDebugDumpEntries(t *testing.T) {
	env := clitest.New(t)
	for _, e := range []models.Entry{
		{ID: "a", UserID: "u1", Date: "2024-03-05", Kind: models.KindPlan, Text: "<p>in</p>"},
		{ID: "b", UserID: "u1", Date: "2024-04-05", Kind: models.KindPlan, Text: "<p>out</p>"},
	} {
		if err := env.Cache.UpsertEntry(e); err != nil {
			t.Fatalf("UpsertEntry() error = %v", err)
		}
	}

	cmd := &DebugDumpEntriesCmd{Date: "2024-03-10", Period: "month"}
	if err := cmd.Run(env.Ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	var got struct {
		Window  map[string]string `json:"window"`
		Entries []models.Entry    `json:"entries"`
	}
	if err := json.Unmarshal(env.Out.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, env.Out.String())
	}
	if got.Window["from"] != "2024-03-01" || got.Window["to"] != "2024-03-31" {
		t.Errorf("window = %v", got.Window)
	}
	if len(got.Entries) != 1 || got.Entries[0].ID != "a" {
		t.Errorf("entries = %+v", got.Entries)
	}
}

func TestDebugDumpSummaryEmpty(t *testing.T) {
	env := clitest.New(t)
	if err := (&DebugDumpSummaryCmd{}).Run(env.Ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(env.Out.String(), `"summary": null`) {
		t.Errorf("output = %q", env.Out.String())
	}
}
