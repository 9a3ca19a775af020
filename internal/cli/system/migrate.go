package system

import (
	"fmt"

	"github.com/julianstephens/perfassist/internal/cli"
)

// MigrateCmd applies pending cache migrations. Loading the store applies
// them, so this reports what was done.
type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}

	st, err := ctx.Store.SchemaStatus()
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	if !st.UpToDate() {
		return fmt.Errorf("database is at version %d of %d with %d pending migration(s)", st.Current, st.Latest, len(st.Pending))
	}
	ctx.Printf("Database is up to date (schema version %d).\n", st.Current)
	return nil
}
