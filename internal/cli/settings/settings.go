package settings

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/julianstephens/perfassist/internal/cli"
	"github.com/julianstephens/perfassist/internal/datemath"
	"github.com/julianstephens/perfassist/internal/locale"
	"github.com/julianstephens/perfassist/internal/period"
)

type SettingsCmd struct {
	List bool `help:"List current settings."`

	BaseURL        *string `name:"base-url" help:"Entry store base URL."`
	UserID         *string `name:"user-id" help:"User id sent with every entry request."`
	Locale         *string `help:"Locale used for date labels (BCP 47, e.g. ru-RU)."`
	DefaultPeriod  *string `name:"default-period" help:"Feed period when none is given: week, month or quarter."`
	Timezone       *string `help:"IANA timezone used to resolve today, or Local."`
	DeleteWindowMs *int    `name:"delete-window-ms" help:"Milliseconds a single delete waits for its sibling."`
}

func (c *SettingsCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	if c.List {
		ctx.Println("Current Settings:")
		ctx.Printf("  Base URL:              %s\n", settings.BaseURL)
		ctx.Printf("  User ID:               %s\n", settings.UserID)
		ctx.Printf("  Locale:                %s\n", settings.Locale)
		ctx.Printf("  Default Period:        %s\n", settings.DefaultPeriod)
		ctx.Printf("  Timezone:              %s\n", settings.Timezone)
		ctx.Printf("  Delete Window:         %d ms\n", settings.DeleteWindowMs)
		return nil
	}

	updated := false
	if c.BaseURL != nil {
		u, err := url.Parse(strings.TrimSpace(*c.BaseURL))
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid base URL %q: expected http(s)://host[/path]", *c.BaseURL)
		}
		settings.BaseURL = strings.TrimRight(u.String(), "/")
		updated = true
	}
	if c.UserID != nil {
		id := strings.TrimSpace(*c.UserID)
		if id == "" {
			return fmt.Errorf("user id cannot be empty")
		}
		settings.UserID = id
		updated = true
	}
	if c.Locale != nil {
		if err := locale.Validate(*c.Locale); err != nil {
			return err
		}
		settings.Locale = *c.Locale
		updated = true
	}
	if c.DefaultPeriod != nil {
		unit, err := period.ParseUnit(*c.DefaultPeriod)
		if err != nil {
			return err
		}
		settings.DefaultPeriod = unit.String()
		updated = true
	}
	if c.Timezone != nil {
		if !datemath.ValidateTimezone(*c.Timezone) {
			return fmt.Errorf("invalid timezone %q", *c.Timezone)
		}
		settings.Timezone = *c.Timezone
		updated = true
	}
	if c.DeleteWindowMs != nil {
		if *c.DeleteWindowMs < 0 {
			return fmt.Errorf("delete window cannot be negative")
		}
		settings.DeleteWindowMs = *c.DeleteWindowMs
		updated = true
	}

	if updated {
		if err := ctx.Store.SaveSettings(settings); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		ctx.Println("Settings updated successfully.")
	} else {
		ctx.Println("No changes specified. Use --list to view settings or flags to update them.")
	}

	return nil
}
