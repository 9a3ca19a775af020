package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/julianstephens/perfassist/internal/api"
	"github.com/julianstephens/perfassist/internal/constants"
	"github.com/julianstephens/perfassist/internal/datemath"
	"github.com/julianstephens/perfassist/internal/keyring"
	"github.com/julianstephens/perfassist/internal/lifecycle"
	"github.com/julianstephens/perfassist/internal/locale"
	"github.com/julianstephens/perfassist/internal/logger"
	"github.com/julianstephens/perfassist/internal/models"
	"github.com/julianstephens/perfassist/internal/period"
	"github.com/julianstephens/perfassist/internal/storage"
)

// Overrides carries flag and environment values that take precedence over
// stored settings. Empty fields are ignored.
type Overrides struct {
	BaseURL  string
	UserID   string
	Locale   string
	Timezone string
	Timeout  time.Duration
}

type Context struct {
	Store     storage.Provider
	Overrides Overrides
	// Out receives command output; nil means stdout
	Out io.Writer
	// Token, when set, is used instead of the keyring
	Token string
}

// Writer returns the command output stream
func (c *Context) Writer() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

// Printf writes formatted command output
func (c *Context) Printf(format string, args ...any) {
	fmt.Fprintf(c.Writer(), format, args...)
}

// Println writes a line of command output
func (c *Context) Println(args ...any) {
	fmt.Fprintln(c.Writer(), args...)
}

// Settings returns the stored settings with overrides applied
func (c *Context) Settings() (models.Settings, error) {
	settings, err := c.Store.GetSettings()
	if err != nil {
		return models.Settings{}, fmt.Errorf("failed to get settings: %w", err)
	}
	o := c.Overrides
	if o.BaseURL != "" {
		settings.BaseURL = o.BaseURL
	}
	if o.UserID != "" {
		settings.UserID = o.UserID
	}
	if o.Locale != "" {
		settings.Locale = o.Locale
	}
	if o.Timezone != "" {
		settings.Timezone = o.Timezone
	}
	return settings, nil
}

// SummaryToken returns the API token for summary requests, or "" when none
// is configured.
func (c *Context) SummaryToken() string {
	if c.Token != "" {
		return c.Token
	}
	token, err := keyring.GetToken()
	if err != nil {
		if !errors.Is(err, keyring.ErrNotFound) {
			logger.Warn("could not read token from keyring", "error", err)
		}
		return ""
	}
	return token
}

// Client builds an entry store client from the resolved settings
func (c *Context) Client(settings models.Settings) *api.Client {
	opts := []api.Option{}
	if c.Overrides.Timeout > 0 {
		opts = append(opts, api.WithTimeout(c.Overrides.Timeout))
	}
	if token := c.SummaryToken(); token != "" {
		opts = append(opts, api.WithToken(token))
	}
	return api.New(settings.BaseURL, opts...)
}

// Controller builds an entry controller for the resolved settings
func (c *Context) Controller(settings models.Settings) *lifecycle.Controller {
	return lifecycle.New(c.Client(settings), settings.UserID, lifecycle.Options{
		DeleteWindow: time.Duration(settings.DeleteWindowMs) * time.Millisecond,
		Logger:       logger.With("user", settings.UserID),
		OnSettle:     func(ev lifecycle.Event) { c.ApplySettlement(settings.UserID, ev) },
	})
}

// ApplySettlement mirrors a settled delete into the local cache. Failed
// settlements leave the cache as it is.
func (c *Context) ApplySettlement(userID string, ev lifecycle.Event) {
	if ev.Err != nil {
		return
	}
	switch ev.Outcome {
	case lifecycle.OutcomeDayDeleted:
		if err := c.Store.DeleteDay(userID, ev.Date); err != nil {
			logger.Warn("failed to drop cached day", "date", ev.Date, "error", err)
		}
	case lifecycle.OutcomeCleared:
		if ev.Entry == nil {
			return
		}
		if err := c.Store.UpsertEntry(*ev.Entry); err != nil {
			logger.Warn("failed to cache cleared entry", "id", ev.Entry.ID, "error", err)
		}
	}
}

// Locale resolves the display locale of settings
func Locale(settings models.Settings) locale.Locale {
	return locale.Parse(settings.Locale)
}

// ResolveDate parses a date argument ("today", "yesterday", ISO date) in
// the configured timezone.
func ResolveDate(arg string, settings models.Settings) (time.Time, error) {
	return datemath.ResolveDate(strings.TrimSpace(arg), settings.Timezone)
}

// ResolveUnit parses a period unit, falling back to the configured default
func ResolveUnit(arg string, settings models.Settings) (period.Unit, error) {
	if arg == "" {
		arg = settings.DefaultPeriod
	}
	if arg == "" {
		arg = constants.DefaultPeriod
	}
	return period.ParseUnit(arg)
}

// CacheEntries writes a confirmed window into the local cache. Failures
// are logged; the cache is best effort.
func (c *Context) CacheEntries(userID string, w period.Window, entries []models.Entry) {
	from, to := datemath.FormatISODate(w.Start), datemath.FormatISODate(w.End)
	if err := c.Store.ReplaceEntries(userID, from, to, entries); err != nil {
		logger.Warn("failed to cache entries", "window", w.String(), "error", err)
	}
}

// CachedEntries reads a window from the local cache
func (c *Context) CachedEntries(userID string, w period.Window) []models.Entry {
	from, to := datemath.FormatISODate(w.Start), datemath.FormatISODate(w.End)
	entries, err := c.Store.GetEntries(userID, from, to)
	if err != nil {
		logger.Warn("failed to read cached entries", "window", w.String(), "error", err)
		return nil
	}
	return entries
}
