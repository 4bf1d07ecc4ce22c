// Package store opens the SQLite database shared by the training corpus and
// the rule set repository.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/avast/retry-go/v4"

	_ "modernc.org/sqlite"
)

// Options tunes Open.
type Options struct {
	// Attempts bounds how often opening is retried while the file is locked.
	Attempts uint
	// Delay is the initial backoff between attempts.
	Delay  time.Duration
	Logger *slog.Logger
}

// Open opens or creates the SQLite database at path and runs migrations.
// The parent directory is created if it does not exist.
func Open(ctx context.Context, path string, opts Options) (*sql.DB, error) {
	if opts.Attempts == 0 {
		opts.Attempts = 5
	}
	if opts.Delay == 0 {
		opts.Delay = 200 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	// busy_timeout lets concurrent writers wait instead of failing outright.
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
	var db *sql.DB
	err := retry.Do(
		func() error {
			var err error
			db, err = sql.Open("sqlite", dsn)
			if err != nil {
				return err
			}
			if err := db.PingContext(ctx); err != nil {
				_ = db.Close()
				return fmt.Errorf("ping sqlite: %w", err)
			}
			if err := migrate(ctx, db); err != nil {
				_ = db.Close()
				return err
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(opts.Attempts),
		retry.Delay(opts.Delay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			opts.Logger.Warn("retrying store open", "path", path, "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	return db, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	var tableCount int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableCount)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableCount == 0 {
		return freshInstall(ctx, db)
	}

	var v int
	err = db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return freshInstall(ctx, db)
	}
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	switch v {
	case schemaVersion:
		return nil
	default:
		return retry.Unrecoverable(fmt.Errorf("unknown schema version %d", v))
	}
}

func freshInstall(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaV1); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM schema_version"); err != nil {
		return fmt.Errorf("reset schema version: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version(version) VALUES(?)", schemaVersion); err != nil {
		return fmt.Errorf("set schema version: %w", err)
	}
	return tx.Commit()
}
