// Package migrations embeds the schema migrations of the local cache.
package migrations

import "embed"

// FS holds the migration files, one directory per database driver
//
//go:embed sqlite/*.sql
var FS embed.FS
