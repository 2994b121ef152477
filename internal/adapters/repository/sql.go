package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/tursodatabase/libsql-client-go/libsql" // registers "libsql"
	_ "modernc.org/sqlite"                               // registers "sqlite"

	"github.com/okian/scout/pkg/logger"
)

// Driver names registered by the imported database drivers.
const (
	DriverSQLite = "sqlite"
	DriverLibSQL = "libsql"
)

const (
	seenTable     = "seen_items"
	insertBatch   = 500
	busyTimeoutMS = 5000
)

// SQLStore keeps the registry in a seen_items table.
type SQLStore struct {
	db  *sql.DB
	log logger.Logger
}

// OpenSQLite opens (or creates) a local SQLite database at dsn.
// Pass ":memory:" for a throwaway database.
func OpenSQLite(ctx context.Context, dsn string, opts ...Option) (*SQLStore, error) {
	db, err := sql.Open(DriverSQLite, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// A single connection avoids "database is locked" between the reader and the writer.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeoutMS)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	return NewSQLStore(ctx, db, opts...)
}

// OpenLibSQL connects to a remote libSQL database, e.g. "libsql://db.turso.io?authToken=...".
func OpenLibSQL(ctx context.Context, dsn string, opts ...Option) (*SQLStore, error) {
	db, err := sql.Open(DriverLibSQL, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return NewSQLStore(ctx, db, opts...)
}

// NewSQLStore wraps an open database and creates the table if needed.
func NewSQLStore(ctx context.Context, db *sql.DB, opts ...Option) (*SQLStore, error) {
	o := buildOptions(opts)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	s := &SQLStore{db: db, log: o.log}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func (s *SQLStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+seenTable+` (
		id      TEXT PRIMARY KEY,
		seen_at INTEGER NOT NULL
	)`)
	return err
}

// Close closes the underlying database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Load reads every row.
func (s *SQLStore) Load(ctx context.Context) (map[string]time.Time, error) {
	query, args, err := sq.Select("id", "seen_at").From(seenTable).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", seenTable, err)
	}
	defer rows.Close()

	out := make(map[string]time.Time)
	for rows.Next() {
		var (
			id  string
			sec int64
		)
		if err := rows.Scan(&id, &sec); err != nil {
			return nil, fmt.Errorf("scan %s: %w", seenTable, err)
		}
		out[id] = time.Unix(sec, 0)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", seenTable, err)
	}
	return out, nil
}

// Save replaces the table contents in one transaction.
func (s *SQLStore) Save(ctx context.Context, seen map[string]time.Time) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query, args, err := sq.Delete(seenTable).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clear %s: %w", seenTable, err)
	}

	insert := sq.Insert(seenTable).Columns("id", "seen_at")
	pending := 0
	flush := func() error {
		if pending == 0 {
			return nil
		}
		q, a, err := insert.ToSql()
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, q, a...); err != nil {
			return fmt.Errorf("insert %s: %w", seenTable, err)
		}
		insert = sq.Insert(seenTable).Columns("id", "seen_at")
		pending = 0
		return nil
	}
	for id, ts := range seen {
		insert = insert.Values(id, ts.Unix())
		pending++
		if pending == insertBatch {
			if err = flush(); err != nil {
				return err
			}
		}
	}
	if err = flush(); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.log.Debug(ctx, "registry saved", logger.Int("rows", len(seen)))
	return nil
}
