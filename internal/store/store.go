package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"github.com/roach88/polydb/internal/logging"
)

//go:embed schema.sql
var schemaSQL string

// Supported database/sql driver names.
const (
	DriverMattn   = "sqlite3" // github.com/mattn/go-sqlite3 (cgo)
	DriverModernc = "sqlite"  // modernc.org/sqlite (pure Go)
)

const (
	defaultBusyTimeout  = 5 * time.Second
	defaultMaxOpenConns = 4
)

// ErrUnknownDriver is returned by Open for a driver name other than
// DriverMattn or DriverModernc.
var ErrUnknownDriver = errors.New("unknown sqlite driver")

// Store is the handle to one polygon database.
// It is safe for concurrent use; write transactions are serialized by mu.
type Store struct {
	db      *sql.DB
	path    string
	driver  string
	mu      sync.Mutex
	logger  *slog.Logger
	metrics *Metrics
	txIDs   TxIDGenerator
}

type options struct {
	driver       string
	busyTimeout  time.Duration
	maxOpenConns int
	logger       *slog.Logger
	metrics      *Metrics
	txIDs        TxIDGenerator
}

// Option configures Open.
type Option func(*options)

// WithDriver selects the database/sql driver (DriverMattn or DriverModernc).
func WithDriver(name string) Option {
	return func(o *options) { o.driver = name }
}

// WithBusyTimeout sets how long a connection waits on a locked database.
func WithBusyTimeout(d time.Duration) Option {
	return func(o *options) { o.busyTimeout = d }
}

// WithMaxOpenConns caps the pool. One connection is enough for writes;
// extra connections let reads outside a transaction run beside the writer.
func WithMaxOpenConns(n int) Option {
	return func(o *options) { o.maxOpenConns = n }
}

// WithLogger sets the logger for transaction and schema events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics records transaction outcomes and lock waits on m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithTxIDGenerator overrides how transaction ids are made (UUIDv7 by default).
func WithTxIDGenerator(g TxIDGenerator) Option {
	return func(o *options) { o.txIDs = g }
}

// Open creates or opens a SQLite database at the given path.
// The polygons table is not created; call CreateTable once after opening.
func Open(path string, opts ...Option) (*Store, error) {
	o := options{
		driver:       DriverMattn,
		busyTimeout:  defaultBusyTimeout,
		maxOpenConns: defaultMaxOpenConns,
		txIDs:        UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.Discard()
	}
	if o.txIDs == nil {
		o.txIDs = UUIDv7Generator{}
	}
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("open database: empty path")
	}
	if o.maxOpenConns < 1 {
		o.maxOpenConns = 1
	}

	dsn, err := buildDSN(o.driver, path, o.busyTimeout)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(o.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify connection works; this is where a bad path surfaces
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(o.maxOpenConns)
	db.SetMaxIdleConns(o.maxOpenConns)

	o.logger.Debug("database opened", "path", path, "driver", o.driver)

	return &Store{
		db:      db,
		path:    path,
		driver:  o.driver,
		logger:  o.logger,
		metrics: o.metrics,
		txIDs:   o.txIDs,
	}, nil
}

// buildDSN renders the connection string for driver. Each driver spells
// per-connection pragmas differently.
func buildDSN(driver, path string, busyTimeout time.Duration) (string, error) {
	ms := strconv.FormatInt(busyTimeout.Milliseconds(), 10)
	q := url.Values{}

	switch driver {
	case DriverMattn:
		q.Set("_busy_timeout", ms)
		q.Set("_journal_mode", "WAL")
		q.Set("_synchronous", "NORMAL")
		q.Set("_foreign_keys", "on")
		q.Set("_txlock", "immediate")
	case DriverModernc:
		q.Add("_pragma", "busy_timeout("+ms+")")
		q.Add("_pragma", "journal_mode(WAL)")
		q.Add("_pragma", "synchronous(NORMAL)")
		q.Add("_pragma", "foreign_keys(1)")
		q.Set("_txlock", "immediate")
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	return "file:" + uriPathEscaper.Replace(path) + "?" + q.Encode(), nil
}

// uriPathEscaper escapes the characters SQLite's URI parser treats
// specially in the path part of a file: URI.
var uriPathEscaper = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

// CreateTable creates the polygons table if it does not exist.
// Safe to call any number of times.
func (s *Store) CreateTable(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	s.logger.DebugContext(ctx, "polygons table ready")
	return nil
}

// Close closes the database connection.
// Should be called when the store is no longer needed.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Writes issued here bypass the transaction mutex.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database file path given to Open.
func (s *Store) Path() string {
	return s.path
}

// Driver returns the database/sql driver name in use.
func (s *Store) Driver() string {
	return s.driver
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
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
