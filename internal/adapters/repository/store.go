package repository

import (
	"context"
	"fmt"

	"github.com/okian/scout/internal/domain/dedupe"
)

var (
	_ dedupe.Store = (*FileStore)(nil)
	_ dedupe.Store = (*SQLStore)(nil)
)

// Backend selects a registry store implementation.
type Backend struct {
	// Kind is one of "json", "sqlite" or "libsql".
	Kind string
	// Path is the JSON file, or the SQLite file when DSN is empty.
	Path string
	// DSN is the database connection string for the SQL backends.
	DSN string
}

// Closer releases a store. JSON stores return a no-op.
type Closer func() error

// OpenRegistry opens the registry store for b.
func OpenRegistry(ctx context.Context, b Backend, opts ...Option) (dedupe.Store, Closer, error) {
	noop := func() error { return nil }
	switch b.Kind {
	case "json":
		return NewFileStore(b.Path, opts...), noop, nil
	case DriverSQLite:
		dsn := b.DSN
		if dsn == "" {
			dsn = b.Path
		}
		s, err := OpenSQLite(ctx, dsn, opts...)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	case DriverLibSQL:
		s, err := OpenLibSQL(ctx, b.DSN, opts...)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	default:
		return nil, noop, fmt.Errorf("%w: %q", ErrUnknownBackend, b.Kind)
	}
}
