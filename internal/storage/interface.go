package storage

import (
	"github.com/julianstephens/perfassist/internal/migration"
	"github.com/julianstephens/perfassist/internal/models"
)

// Provider is the local cache behind the CLI. The entry store stays the
// source of truth; the cache only keeps the last confirmed copy.
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Settings
	GetSettings() (models.Settings, error)
	SaveSettings(models.Settings) error

	// Entries
	// ReplaceEntries makes entries the cached content of [from, to] for userID
	ReplaceEntries(userID, from, to string, entries []models.Entry) error
	GetEntries(userID, from, to string) ([]models.Entry, error)
	UpsertEntry(models.Entry) error
	DeleteDay(userID, date string) error

	// Summaries
	SaveSummary(models.SummaryRequest, models.Summary) (models.SummaryRecord, error)
	LatestSummary(userID string) (models.SummaryRecord, error)

	// Utils
	SchemaStatus() (migration.Status, error)
	GetConfigPath() string
}
