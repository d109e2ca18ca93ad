// Package testutil holds helpers shared by package tests.
package testutil

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/roach88/triplestore/internal/store"
)

// Drivers lists every supported SQLite driver. Store-level behaviour must
// be identical across them, so tests iterate this list.
var Drivers = []store.Driver{store.DriverCGO, store.DriverPureGo}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// OpenStore opens a file-backed store in a fresh temp dir and closes it
// when the test ends. A zero Path in opts is replaced by the temp file;
// pass store.MemoryPath explicitly for an in-memory store.
func OpenStore(t testing.TB, opts store.Options) *store.Store {
	t.Helper()

	if opts.Path == "" {
		opts.Path = filepath.Join(t.TempDir(), "test.db")
	}
	if opts.Logger == nil {
		opts.Logger = DiscardLogger()
	}

	s, err := store.OpenWith(opts)
	if err != nil {
		t.Fatalf("OpenWith() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// ForEachDriver runs fn as a subtest once per driver.
func ForEachDriver(t *testing.T, fn func(t *testing.T, driver store.Driver)) {
	t.Helper()
	for _, d := range Drivers {
		t.Run(string(d), func(t *testing.T) {
			fn(t, d)
		})
	}
}
