package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - empty database
// 1 - node and triple tables, label index, triple indexes
const currentSchemaVersion = 1

// Driver names a registered database/sql SQLite driver.
type Driver string

const (
	// DriverCGO is github.com/mattn/go-sqlite3.
	DriverCGO Driver = "sqlite3"

	// DriverPureGo is modernc.org/sqlite.
	DriverPureGo Driver = "sqlite"
)

// MemoryPath selects an ephemeral in-memory database.
const MemoryPath = ":memory:"

const (
	defaultBusyTimeout = 5 * time.Second
	defaultMaxConns    = 4
)

// Options configures Open.
//
// The zero value opens an in-memory database on the CGO driver with
// foreign keys enforced and node labels unique.
type Options struct {
	// Path is the database file. Empty or MemoryPath selects an in-memory store.
	Path string

	// Driver selects the SQLite driver. Defaults to DriverCGO.
	Driver Driver

	// BusyTimeout bounds how long a connection waits on a locked database.
	BusyTimeout time.Duration

	// MaxConns caps the pool for file-backed stores. In-memory stores
	// always use a single connection.
	MaxConns int

	// DisableForeignKeys turns off referential-integrity enforcement.
	DisableForeignKeys bool

	// AllowDuplicateLabels drops the unique index on node labels.
	AllowDuplicateLabels bool

	// Logger receives store diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Path == "" {
		o.Path = MemoryPath
	}
	if o.Driver == "" {
		o.Driver = DriverCGO
	}
	if o.BusyTimeout <= 0 {
		o.BusyTimeout = defaultBusyTimeout
	}
	if o.MaxConns <= 0 {
		o.MaxConns = defaultMaxConns
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Store is the backing-store handle shared by the node and triple stores.
//
// A Store is opened once, passed explicitly to its consumers and released
// with Close. Writes are serialized through WriteTx; reads go straight to
// the pool and may run concurrently on file-backed stores.
type Store struct {
	db     *sql.DB
	opts   Options
	loc    string
	logger *slog.Logger

	// mu serializes writers within this process.
	mu        sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// Open creates or opens a file-backed store at path with default options.
// Pass MemoryPath (or "") for an ephemeral store.
func Open(path string) (*Store, error) {
	return OpenWith(Options{Path: path})
}

// OpenWith creates or opens a store.
//
// The database is configured through the DSN so that every pooled
// connection gets the same settings:
//   - foreign_keys ON (unless DisableForeignKeys), verified after connecting
//   - busy_timeout from Options
//   - WAL journal and NORMAL synchronous for file-backed stores
//   - immediate write transactions
//
// Schema bootstrap is idempotent; opening the same file repeatedly or
// from racing processes is safe.
func OpenWith(opts Options) (*Store, error) {
	opts = opts.withDefaults()

	dsn, loc, err := buildDSN(opts)
	if err != nil {
		return nil, unavailable("open", "invalid store options", err)
	}

	db, err := sql.Open(string(opts.Driver), dsn)
	if err != nil {
		return nil, unavailable("open", "failed to open database", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, unavailable("open", "failed to connect to database", err)
	}

	if isMemory(opts.Path) {
		// Each connection to an in-memory database would otherwise see its
		// own empty database.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		db.SetMaxOpenConns(opts.MaxConns)
		db.SetMaxIdleConns(opts.MaxConns)
	}

	s := &Store{db: db, opts: opts, loc: loc, logger: opts.Logger}

	if err := s.checkForeignKeys(); err != nil {
		db.Close()
		return nil, unavailable("open", "failed to configure foreign keys", err)
	}

	if err := applySchema(db, opts); err != nil {
		db.Close()
		if IsConflict(err) {
			return nil, err
		}
		return nil, unavailable("open", "failed to apply schema", err)
	}

	s.logger.Debug("store opened",
		"location", loc,
		"driver", string(opts.Driver),
		"foreign_keys", !opts.DisableForeignKeys,
		"unique_labels", !opts.AllowDuplicateLabels,
	)

	return s, nil
}

// Close releases the database. Safe to call more than once.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	s.closeOnce.Do(func() {
		s.closeErr = s.db.Close()
		s.logger.Debug("store closed", "location", s.loc)
	})
	return s.closeErr
}

// DB returns the underlying sql.DB for reads.
// Writes must go through WriteTx.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Location describes where the data lives: the file path, or
// "memory:<name>" for an ephemeral store.
func (s *Store) Location() string {
	return s.loc
}

// Ephemeral reports whether the store is in-memory.
func (s *Store) Ephemeral() bool {
	return isMemory(s.opts.Path)
}

// ForeignKeys reports whether referential integrity is enforced.
func (s *Store) ForeignKeys() bool {
	return !s.opts.DisableForeignKeys
}

// UniqueLabels reports whether node labels must be unique.
func (s *Store) UniqueLabels() bool {
	return !s.opts.AllowDuplicateLabels
}

// Logger returns the store's logger.
func (s *Store) Logger() *slog.Logger {
	return s.logger
}

// WriteTx runs fn inside a write transaction.
//
// Writers are serialized by the store; the transaction begins IMMEDIATE
// so the SQLite write lock is held from the first statement. fn's error
// is returned as is and rolls the transaction back. Errors from begin and
// commit are classified under op.
func (s *Store) WriteTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Classify(op, fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback() // No-op if committed

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return Classify(op, fmt.Errorf("commit: %w", err))
	}
	return nil
}

// checkForeignKeys confirms the connection honours the requested
// foreign_keys setting. A driver that silently ignores the DSN would
// otherwise disable referential integrity without notice.
func (s *Store) checkForeignKeys() error {
	want := "1"
	if s.opts.DisableForeignKeys {
		want = "0"
	}
	return s.verifyPragma("foreign_keys", want)
}

// verifyPragma checks that a pragma is set to the expected value.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}

// applySchema creates tables if they don't exist, runs migrations and
// applies the label uniqueness policy.
func applySchema(db *sql.DB, opts Options) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return applyLabelPolicy(db, opts.AllowDuplicateLabels)
}

// runMigrations brings user_version up to currentSchemaVersion. A database
// written by a newer schema is refused rather than silently downgraded.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version > currentSchemaVersion {
		return fmt.Errorf("schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}
	if version == currentSchemaVersion {
		return nil
	}

	// Version 1 is fully described by schema.sql.

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// applyLabelPolicy creates or drops the unique label index. Enabling the
// policy on a database that already holds duplicate labels fails with a
// Conflict error and leaves the database unchanged.
func applyLabelPolicy(db *sql.DB, allowDuplicates bool) error {
	if allowDuplicates {
		if _, err := db.Exec(`DROP INDEX IF EXISTS idx_node_label_unique`); err != nil {
			return fmt.Errorf("drop unique label index: %w", err)
		}
		return nil
	}

	_, err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_node_label_unique ON node(label)`)
	if err != nil {
		if IsConflict(Classify("open", err)) {
			return &Error{
				Code:    CodeConflict,
				Op:      "open",
				Message: "existing nodes share labels; cannot enforce unique labels",
				Err:     err,
			}
		}
		return fmt.Errorf("create unique label index: %w", err)
	}
	return nil
}
