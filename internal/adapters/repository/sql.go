package repository

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/okian/pwnwatch/pkg/metrics"
)

const defaultQueryTimeout = 10 * time.Second

type dialect struct {
	driver string
	serial string
}

var (
	dialectSQLite   = dialect{driver: "sqlite", serial: "INTEGER PRIMARY KEY AUTOINCREMENT"}
	dialectPostgres = dialect{driver: "postgres", serial: "BIGSERIAL PRIMARY KEY"}
)

// parseDSN maps a store DSN onto a driver and its data source.
//
//	:memory:, memory://          in-memory sqlite
//	sqlite://path, file:path     sqlite file
//	path                         sqlite file
//	postgres://, postgresql://   PostgreSQL via lib/pq
func parseDSN(dsn string) (dialect, string, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return dialect{}, "", fmt.Errorf("%w: empty", ErrUnsupportedDSN)
	}
	if dsn == ":memory:" {
		return dialectSQLite, ":memory:", nil
	}
	if strings.HasPrefix(dsn, "file:") {
		return dialectSQLite, dsn, nil
	}
	if !strings.Contains(dsn, "://") {
		return dialectSQLite, dsn, nil
	}

	u, err := url.Parse(dsn)
	if err != nil {
		return dialect{}, "", fmt.Errorf("%w: %v", ErrUnsupportedDSN, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "memory", "mem", "inmem":
		return dialectSQLite, ":memory:", nil
	case "sqlite", "sqlite3":
		path := strings.TrimPrefix(dsn, u.Scheme+"://")
		if path == "" {
			return dialect{}, "", fmt.Errorf("%w: sqlite path is empty", ErrUnsupportedDSN)
		}
		return dialectSQLite, path, nil
	case "postgres", "postgresql":
		return dialectPostgres, dsn, nil
	default:
		return dialect{}, "", fmt.Errorf("%w: scheme %q", ErrUnsupportedDSN, u.Scheme)
	}
}

// SQLStore implements Store over sqlx for SQLite and PostgreSQL.
type SQLStore struct {
	db           *sqlx.DB
	dialect      dialect
	queryTimeout time.Duration
	now          func() time.Time
}

var _ Store = (*SQLStore)(nil)

// Open connects to dsn and applies pending migrations.
func Open(ctx context.Context, dsn string, opts ...Option) (*SQLStore, error) {
	d, source, err := parseDSN(dsn)
	if err != nil {
		return nil, err
	}
	db, err := sqlx.Open(d.driver, source)
	if err != nil {
		return nil, fmt.Errorf("opening %s db: %w", d.driver, err)
	}

	s := &SQLStore{
		db:           db,
		dialect:      d,
		queryTimeout: defaultQueryTimeout,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if d == dialectSQLite {
		// single writer; also keeps one :memory: database per store
		db.SetMaxOpenConns(1)
		for _, pragma := range []string{
			"PRAGMA journal_mode=WAL",
			"PRAGMA foreign_keys=ON",
			"PRAGMA busy_timeout=5000",
		} {
			if _, err := db.ExecContext(ctx, pragma); err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("%s: %w", pragma, err)
			}
		}
	}

	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Driver returns the database/sql driver name in use.
func (s *SQLStore) Driver() string { return s.dialect.driver }

func (s *SQLStore) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("%w: schema_version: %v", ErrMigrationFailed, err)
	}
	var current int
	if err := s.db.GetContext(ctx, &current, `SELECT COALESCE(MAX(version), 0) FROM schema_version`); err != nil {
		return fmt.Errorf("%w: reading version: %v", ErrMigrationFailed, err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		tx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("%w: v%d: %v", ErrMigrationFailed, m.version, err)
		}
		for _, stmt := range splitStatements(s.dialect.render(m.sql)) {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("%w: v%d: %v", ErrMigrationFailed, m.version, err)
			}
		}
		if _, err := tx.ExecContext(ctx, s.db.Rebind(`INSERT INTO schema_version (version) VALUES (?)`), m.version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("%w: v%d: %v", ErrMigrationFailed, m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("%w: v%d: %v", ErrMigrationFailed, m.version, err)
		}
	}
	return nil
}

// SchemaVersion returns the highest applied migration.
func (s *SQLStore) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	err := s.db.GetContext(ctx, &v, `SELECT COALESCE(MAX(version), 0) FROM schema_version`)
	return v, err
}

func splitStatements(sql string) []string {
	var out []string
	for _, stmt := range strings.Split(sql, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

func (s *SQLStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.queryTimeout)
}

func (s *SQLStore) fail(op string, err error) error {
	metrics.RecordStoreError(op)
	return fmt.Errorf("%s: %w", op, err)
}
