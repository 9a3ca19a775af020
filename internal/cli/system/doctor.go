package system

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/julianstephens/perfassist/internal/cli"
	"github.com/julianstephens/perfassist/internal/datemath"
	"github.com/julianstephens/perfassist/internal/keyring"
	"github.com/julianstephens/perfassist/internal/models"
)

type DoctorCmd struct {
	Offline bool `help:"Skip the entry store connectivity check."`
}

type check struct {
	name string
	run  func() error
	// warnOnly checks report but do not fail the run
	warnOnly bool
	// needsDB checks are skipped when the database is unreachable
	needsDB bool
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	var settings models.Settings
	checks := []check{
		{name: "Database reachable", run: func() error { return checkDBReachable(ctx) }},
		{name: "Schema version", run: func() error { return checkSchemaVersion(ctx) }, needsDB: true},
		{name: "Settings", run: func() error {
			var err error
			settings, err = ctx.Settings()
			return err
		}, needsDB: true},
		{name: "Timezone", run: func() error { return checkTimezone(settings) }, needsDB: true},
		{name: "Clock", run: checkClock},
		{name: "Keyring", run: checkKeyring, warnOnly: true},
	}
	if !cmd.Offline {
		checks = append(checks, check{name: "Entry store", run: func() error { return checkEntryStore(ctx, settings) }, needsDB: true})
	}

	hasError := false
	dbReachable := true
	for i, c := range checks {
		if c.needsDB && !dbReachable {
			ctx.Printf("⊘ %s: SKIPPED (database not reachable)\n", c.name)
			continue
		}
		err := c.run()
		switch {
		case err == nil:
			ctx.Printf("✓ %s: OK\n", c.name)
		case c.warnOnly:
			ctx.Printf("⚠ %s: WARNING\n", c.name)
			ctx.Printf("   %v\n", err)
		default:
			ctx.Printf("❌ %s: FAIL\n", c.name)
			ctx.Printf("   Error: %v\n", err)
			hasError = true
			if i == 0 {
				dbReachable = false
			}
		}
	}

	ctx.Println()
	if hasError {
		ctx.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	ctx.Println("All diagnostics passed!")
	return nil
}

func checkDBReachable(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}
	return nil
}

func checkSchemaVersion(ctx *cli.Context) error {
	st, err := ctx.Store.SchemaStatus()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if st.Current > st.Latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", st.Current, st.Latest)
	}
	if !st.UpToDate() {
		return fmt.Errorf("%d pending migration(s), current version %d of %d", len(st.Pending), st.Current, st.Latest)
	}
	return nil
}

func checkTimezone(settings models.Settings) error {
	if !datemath.ValidateTimezone(settings.Timezone) {
		return fmt.Errorf("unknown timezone %q, set a valid IANA name with 'settings --timezone'", settings.Timezone)
	}
	return nil
}

func checkClock() error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	return nil
}

func checkKeyring() error {
	if !keyring.IsAvailable() {
		return fmt.Errorf("OS keyring is not available; summary requests will be sent without a token")
	}
	return nil
}

func checkEntryStore(ctx *cli.Context, settings models.Settings) error {
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	status, err := ctx.Client(settings).Ping(pingCtx)
	if err != nil {
		return fmt.Errorf("cannot reach %s: %w", settings.BaseURL, err)
	}
	if status >= http.StatusInternalServerError {
		return fmt.Errorf("%s answered with status %d", settings.BaseURL, status)
	}
	return nil
}
