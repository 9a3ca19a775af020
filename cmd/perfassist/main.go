package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/julianstephens/perfassist/internal/cli"
	"github.com/julianstephens/perfassist/internal/cli/entries"
	"github.com/julianstephens/perfassist/internal/cli/settings"
	"github.com/julianstephens/perfassist/internal/cli/summary"
	"github.com/julianstephens/perfassist/internal/cli/system"
	"github.com/julianstephens/perfassist/internal/constants"
	apperrors "github.com/julianstephens/perfassist/internal/errors"
	"github.com/julianstephens/perfassist/internal/logger"
	"github.com/julianstephens/perfassist/internal/storage"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Path of the local cache database." type:"path" default:"${config}" env:"PERFASSIST_CONFIG"`
	Verbose bool   `help:"Write debug logs." env:"PERFASSIST_DEBUG"`

	BaseURL  string        `name:"base-url" help:"Entry store base URL, overrides the stored setting." env:"PERFASSIST_BASE_URL"`
	UserID   string        `name:"user-id" help:"User id, overrides the stored setting." env:"PERFASSIST_USER_ID"`
	Locale   string        `help:"Locale for date labels, overrides the stored setting." env:"PERFASSIST_LOCALE"`
	Timezone string        `help:"Timezone used to resolve today, overrides the stored setting." env:"PERFASSIST_TIMEZONE"`
	Timeout  time.Duration `help:"HTTP timeout for entry store requests." env:"PERFASSIST_TIMEOUT"`
	APIToken string        `name:"api-token" help:"Summary API token, instead of the keyring." env:"PERFASSIST_TOKEN" hidden:""`

	Init     system.InitCmd       `cmd:"" help:"Initialize perfassist storage."`
	Migrate  system.MigrateCmd    `cmd:"" help:"Run database migrations."`
	Doctor   system.DoctorCmd     `cmd:"" help:"Run health checks and diagnostics."`
	Tui      system.TuiCmd        `cmd:"" help:"Launch the interactive feed." default:"1"`
	Day      entries.DayCmd       `cmd:"" help:"Show the plan and fact of a day."`
	Save     entries.SaveCmd      `cmd:"" help:"Write the plan or fact of a day."`
	Delete   entries.DeleteCmd    `cmd:"" help:"Delete entries of a day."`
	Feed     entries.FeedCmd      `cmd:"" help:"List entries of a week, month or quarter."`
	Summary  summary.SummaryCmd   `cmd:"" help:"Generate a self-review summary."`
	Settings settings.SettingsCmd `cmd:"" help:"Manage application settings."`
	Debug    system.DebugCmd      `cmd:"" help:"Debug commands for troubleshooting."`
	TokenCmd struct {
		Set    system.TokenSetCmd    `cmd:"" help:"Store the summary API token."`
		Get    system.TokenGetCmd    `cmd:"" help:"Show the stored token, masked."`
		Delete system.TokenDeleteCmd `cmd:"" help:"Remove the stored token."`
		Status system.TokenStatusCmd `cmd:"" help:"Check the OS keyring." default:"1"`
	} `cmd:"" name:"token" help:"Manage the summary API token in the OS keyring."`
}

func main() {
	// A missing .env file is fine
	_ = godotenv.Load()

	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Perf-review journal: daily plans and facts, feeds and summaries"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version": constants.Version,
			"config":  constants.DefaultConfigPath,
		},
	)

	if err := logger.Init(logger.Config{Debug: CLI.Verbose, ConfigDir: filepath.Dir(CLI.Config)}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logging: %v\n", err)
	}

	store := storage.NewSQLite(CLI.Config)
	defer store.Close()

	appCtx := &cli.Context{
		Store: store,
		Overrides: cli.Overrides{
			BaseURL:  CLI.BaseURL,
			UserID:   CLI.UserID,
			Locale:   CLI.Locale,
			Timezone: CLI.Timezone,
			Timeout:  CLI.Timeout,
		},
		Token: CLI.APIToken,
	}

	// Init and doctor handle their own loading
	if selected := ctx.Selected(); selected == nil || (selected.Name != "init" && selected.Name != "doctor") {
		apperrors.Fatal(store.Load(), store.Close)
	}

	apperrors.Fatal(ctx.Run(appCtx), store.Close)
}
