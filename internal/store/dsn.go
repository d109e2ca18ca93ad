package store

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

func isMemory(path string) bool {
	return path == "" || path == MemoryPath
}

// uriPathEscaper percent-encodes the characters SQLite's URI parser treats
// as delimiters, so "graph#1.db" names that file and not "graph".
var uriPathEscaper = strings.NewReplacer("%", "%25", "?", "%3F", "#", "%23")

// fileURI renders path as a SQLite "file:" URI carrying query q.
func fileURI(path string, q url.Values) string {
	return "file:" + uriPathEscaper.Replace(path) + "?" + q.Encode()
}

// buildDSN renders the driver-specific connection string and a
// human-readable location for the store.
//
// In-memory databases get a random name. On the CGO driver the name is
// part of a shared-cache URI, so two stores in one process never see each
// other's data; the pure-Go driver opens a private ":memory:" database and
// the name only identifies the store in logs.
//
// File paths are always passed as escaped "file:" URIs; both drivers hand
// those to SQLite unchanged and read their own parameters from the query.
func buildDSN(opts Options) (dsn, loc string, err error) {
	busy := opts.BusyTimeout.Milliseconds()
	fk := 1
	if opts.DisableForeignKeys {
		fk = 0
	}
	memory := isMemory(opts.Path)

	switch opts.Driver {
	case DriverCGO:
		q := url.Values{}
		q.Set("_foreign_keys", fmt.Sprint(fk))
		q.Set("_busy_timeout", fmt.Sprint(busy))
		q.Set("_txlock", "immediate")
		if memory {
			name := uuid.NewString()
			q.Set("mode", "memory")
			q.Set("cache", "shared")
			return "file:" + name + "?" + q.Encode(), "memory:" + name, nil
		}
		q.Set("_journal_mode", "WAL")
		q.Set("_synchronous", "NORMAL")
		return fileURI(opts.Path, q), opts.Path, nil

	case DriverPureGo:
		q := url.Values{}
		q.Add("_pragma", fmt.Sprintf("foreign_keys(%d)", fk))
		q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busy))
		q.Set("_txlock", "immediate")
		if memory {
			return MemoryPath + "?" + q.Encode(), "memory:" + uuid.NewString(), nil
		}
		q.Add("_pragma", "journal_mode(WAL)")
		q.Add("_pragma", "synchronous(NORMAL)")
		return fileURI(opts.Path, q), opts.Path, nil

	default:
		return "", "", fmt.Errorf("unknown driver %q", opts.Driver)
	}
}
