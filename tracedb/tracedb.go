// SPDX-License-Identifier: MIT

// Package tracedb indexes the saved iterations of an EEMS run in SQLite.
//
// The text traces written at the end of a run are the primary output; the
// index is filled while the chain runs, so a long run can be inspected
// (or plotted) before it finishes. One row is stored per saved iteration,
// keyed by its save slot, together with free-form run metadata.
package tracedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ErrClosed is returned by every method after Close.
var ErrClosed = errors.New("tracedb: closed")

// Row is one saved iteration.
type Row struct {
	Slot          int
	Iter          int
	LogPrior      float64
	LogLikelihood float64
	Sigma2        float64
	Df            float64
	MrateMu       float64
	MTiles        int
	QTiles        int
}

// DB is an open trace index. It is not safe for concurrent use.
type DB struct {
	db *sql.DB
}

// Open opens or creates the index at path, creating the parent directory.
func Open(path string) (*DB, error) {
	if path == "" {
		return nil, errors.New("tracedb: empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("tracedb: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("tracedb: %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("tracedb: %s: %w", path, err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("tracedb: %s: %w", path, err)
	}
	return &DB{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	for _, p := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	} {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	for _, s := range []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS iterations (
			slot INTEGER PRIMARY KEY,
			iter INTEGER NOT NULL,
			pi REAL NOT NULL,
			ll REAL NOT NULL,
			sigma2 REAL NOT NULL,
			df REAL NOT NULL,
			mrate_mu REAL NOT NULL,
			mtiles INTEGER NOT NULL,
			qtiles INTEGER NOT NULL
		);`,
	} {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the database. Closing twice is a no-op.
func (d *DB) Close() error {
	if d.db == nil {
		return nil
	}
	err := d.db.Close()
	d.db = nil
	return err
}

// Append stores r. A row already stored under r.Slot is replaced, so a
// resumed run may rewrite the slots it repeats.
func (d *DB) Append(ctx context.Context, r Row) error {
	if d.db == nil {
		return ErrClosed
	}
	_, err := d.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO iterations (slot, iter, pi, ll, sigma2, df, mrate_mu, mtiles, qtiles)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Slot, r.Iter, r.LogPrior, r.LogLikelihood, r.Sigma2, r.Df, r.MrateMu, r.MTiles, r.QTiles)
	if err != nil {
		return fmt.Errorf("tracedb: append slot %d: %w", r.Slot, err)
	}
	return nil
}

// Rows returns every stored iteration in slot order.
func (d *DB) Rows(ctx context.Context) ([]Row, error) {
	if d.db == nil {
		return nil, ErrClosed
	}
	rows, err := d.db.QueryContext(ctx,
		`SELECT slot, iter, pi, ll, sigma2, df, mrate_mu, mtiles, qtiles
		 FROM iterations ORDER BY slot`)
	if err != nil {
		return nil, fmt.Errorf("tracedb: rows: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.Slot, &r.Iter, &r.LogPrior, &r.LogLikelihood,
			&r.Sigma2, &r.Df, &r.MrateMu, &r.MTiles, &r.QTiles); err != nil {
			return nil, fmt.Errorf("tracedb: rows: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("tracedb: rows: %w", err)
	}
	return out, nil
}

// SetMeta stores value under key, replacing any previous value.
func (d *DB) SetMeta(ctx context.Context, key, value string) error {
	if d.db == nil {
		return ErrClosed
	}
	if _, err := d.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)`, key, value); err != nil {
		return fmt.Errorf("tracedb: meta %s: %w", key, err)
	}
	return nil
}

// Meta returns the value stored under key and whether it exists.
func (d *DB) Meta(ctx context.Context, key string) (string, bool, error) {
	if d.db == nil {
		return "", false, ErrClosed
	}
	var v string
	err := d.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key).Scan(&v)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", false, nil
	case err != nil:
		return "", false, fmt.Errorf("tracedb: meta %s: %w", key, err)
	}
	return v, true, nil
}
