// Package storage defines the local cache and its sqlite implementation.
package storage

import (
	"github.com/julianstephens/perfassist/internal/storage/sqlite"
)

var _ Provider = (*sqlite.Store)(nil)

// NewSQLite returns a sqlite-backed provider for the database at path
func NewSQLite(path string) Provider {
	return sqlite.NewStore(path)
}
