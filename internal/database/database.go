// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

// Package database is the relational store for users, companies, reviews,
// comments and notifications.
//
// DuckDB is the production engine; SQLite (pure Go) serves lightweight
// deployments and the test suite. All SQL is written to run unchanged on both.
package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/ahmed2za/shaip-sub002/internal/config"
	"github.com/ahmed2za/shaip-sub002/internal/logging"
)

const (
	DriverDuckDB = "duckdb"
	DriverSQLite = "sqlite"

	defaultQueryTimeout = 30 * time.Second
	maxTxAttempts       = 3
)

// DB is the store handle. Repository methods come from the embedded Queries
// bound to the connection pool; WithTx exposes the same methods bound to a
// transaction.
type DB struct {
	*Queries

	conn         *sqlx.DB
	driver       string
	queryTimeout time.Duration
}

// New opens the configured database and applies pending migrations.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	dsn, err := buildDSN(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := sqlx.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{
		conn:         conn,
		driver:       cfg.Driver,
		queryTimeout: cfg.QueryTimeout,
	}
	if db.queryTimeout <= 0 {
		db.queryTimeout = defaultQueryTimeout
	}
	db.Queries = &Queries{ext: conn, ensure: db.ensureContext}

	db.configureConnectionPool()

	if err := db.migrate(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	logging.Info().
		Str("driver", cfg.Driver).
		Str("path", cfg.Path).
		Msg("Database opened")
	return db, nil
}

func buildDSN(cfg *config.DatabaseConfig) (string, error) {
	inMemory := cfg.Path == ":memory:"
	if !inMemory {
		if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return "", fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
	}

	switch cfg.Driver {
	case DriverDuckDB:
		threads := cfg.Threads
		if threads <= 0 {
			threads = runtime.NumCPU()
		}
		path := cfg.Path
		if inMemory {
			path = ""
		}
		params := []string{fmt.Sprintf("threads=%d", threads)}
		if cfg.MaxMemory != "" {
			params = append(params, "max_memory="+cfg.MaxMemory)
		}
		return path + "?" + strings.Join(params, "&"), nil
	case DriverSQLite:
		if inMemory {
			return ":memory:", nil
		}
		return "file:" + cfg.Path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func (db *DB) configureConnectionPool() {
	if db.driver == DriverSQLite {
		// One writer; also keeps a :memory: database on a single connection.
		db.conn.SetMaxOpenConns(1)
		return
	}
	db.conn.SetMaxOpenConns(runtime.NumCPU())
	db.conn.SetMaxIdleConns(2)
	db.conn.SetConnMaxLifetime(time.Hour)
	db.conn.SetConnMaxIdleTime(5 * time.Minute)
}

// Driver returns the SQL driver name in use.
func (db *DB) Driver() string {
	return db.driver
}

// Ping checks the connection.
func (db *DB) Ping(ctx context.Context) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	return db.conn.PingContext(ctx)
}

// Close checkpoints DuckDB and closes the pool.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	if db.driver == DriverDuckDB {
		ctx, cancel := context.WithTimeout(context.Background(), db.queryTimeout)
		if _, err := db.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
			logging.Warn().Err(err).Msg("Failed to checkpoint database before close")
		}
		cancel()
	}
	return db.conn.Close()
}

// ensureContext applies the default query timeout when ctx carries no deadline.
func (db *DB) ensureContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); !ok {
		return context.WithTimeout(ctx, db.queryTimeout)
	}
	return ctx, func() {}
}

// Tx is a transaction-bound view of the repository methods.
type Tx struct {
	*Queries
	tx *sqlx.Tx
}

// WithTx runs fn inside a transaction, committing when fn returns nil.
// DuckDB write-write conflicts are retried.
func (db *DB) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = db.runTx(ctx, fn)
		if err == nil || !isTransactionConflict(err) {
			return err
		}
		logging.Debug().Int("attempt", attempt).Err(err).Msg("Retrying conflicting transaction")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt*25) * time.Millisecond):
		}
	}
	return err
}

func (db *DB) runTx(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	tx := &Tx{tx: sqlTx, Queries: &Queries{ext: sqlTx, ensure: passContext}}
	if err := fn(tx); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			logging.Warn().Err(rbErr).Msg("Failed to roll back transaction")
		}
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func passContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return ctx, func() {}
}
