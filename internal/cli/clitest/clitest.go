// Package clitest builds a command context backed by a temporary cache and a
// fake entry store.
package clitest

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/julianstephens/perfassist/internal/api/storetest"
	"github.com/julianstephens/perfassist/internal/cli"
	"github.com/julianstephens/perfassist/internal/storage/sqlite"
)

// Env is a ready-to-run command environment
type Env struct {
	Ctx    *cli.Context
	Server *storetest.Server
	Cache  *sqlite.Store
	Out    *bytes.Buffer
}

// New initializes a cache in t.TempDir and points the context at a fresh
// fake store. Dates are resolved in UTC and labels rendered in English.
func New(t *testing.T) *Env {
	t.Helper()
	server := storetest.New(t)
	cache := sqlite.NewStore(filepath.Join(t.TempDir(), "perfassist.db"))
	if err := cache.Init(); err != nil {
		t.Fatalf("failed to init cache: %v", err)
	}
	t.Cleanup(func() { cache.Close() })

	out := &bytes.Buffer{}
	ctx := &cli.Context{
		Store: cache,
		Overrides: cli.Overrides{
			BaseURL:  server.URL,
			UserID:   "u1",
			Locale:   "en-US",
			Timezone: "UTC",
		},
		Out:   out,
		Token: "test-token",
	}
	return &Env{Ctx: ctx, Server: server, Cache: cache, Out: out}
}
