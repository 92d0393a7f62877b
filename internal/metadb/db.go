package metadb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"mogtools/internal/logging"
)

// Options describes how to reach the metadata database.
type Options struct {
	DSN            string
	User           string
	Password       string
	PostgresDriver string
}

// DB is a single read-only session against the metadata database. Open it
// once per run and pass it to every consumer.
type DB struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
}

// Open resolves the DSN, connects, and verifies the connection with a ping.
// There is no retry; the backend's error is returned as-is.
func Open(ctx context.Context, opts Options, logger *slog.Logger) (*DB, error) {
	target, err := ParseDSN(opts.DSN, Credentials{User: opts.User, Password: opts.Password}, opts.PostgresDriver)
	if err != nil {
		return nil, err
	}
	logger = logging.NewComponentLogger(logger, "metadb")

	db, err := sql.Open(target.Dialect.DriverName(), target.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", target.Dialect.Name(), err)
	}
	// One session per run; queries are issued sequentially.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect to %s database: %w", target.Dialect.Name(), err)
	}
	logger.Debug("metadata database connected",
		logging.String("dialect", target.Dialect.Name()),
		logging.String("driver", target.Dialect.DriverName()),
	)

	return &DB{db: db, dialect: target.Dialect, logger: logger}, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

// Dialect reports the backend selected from the DSN.
func (d *DB) Dialect() Dialect {
	return d.dialect
}
