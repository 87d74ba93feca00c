// Package history records heap statistics snapshots in a SQLite database so
// that runs can be compared over time.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/chazu/owiz/gc"
)

const schema = `
CREATE TABLE IF NOT EXISTS gc_stats (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	machine          TEXT    NOT NULL,
	recorded_at      INTEGER NOT NULL,
	label            TEXT    NOT NULL,
	collections      INTEGER NOT NULL,
	fast_collections INTEGER NOT NULL,
	full_collections INTEGER NOT NULL,
	total_allocated  INTEGER NOT NULL,
	total_freed      INTEGER NOT NULL,
	allocated        INTEGER NOT NULL,
	threshold        INTEGER NOT NULL,
	objects          INTEGER NOT NULL,
	last_pause_ns    INTEGER NOT NULL,
	snapshot         BLOB    NOT NULL
)`

// DB is a stats history database.
type DB struct {
	db *sql.DB
}

// Entry is one recorded snapshot.
type Entry struct {
	ID         int64
	Machine    uuid.UUID
	RecordedAt time.Time
	Label      string
	Stats      gc.Stats
}

// Open opens or creates the database at dsn.
func Open(ctx context.Context, dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", dsn, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", dsn, err)
	}
	// single writer
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &DB{db: db}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Record stores a snapshot for machine under label.
func (d *DB) Record(ctx context.Context, machine uuid.UUID, label string, st gc.Stats) (int64, error) {
	blob, err := gc.EncodeStats(st)
	if err != nil {
		return 0, err
	}
	res, err := d.db.ExecContext(ctx, `
		INSERT INTO gc_stats (machine, recorded_at, label, collections, fast_collections,
			full_collections, total_allocated, total_freed, allocated, threshold, objects,
			last_pause_ns, snapshot)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		machine.String(), time.Now().UnixNano(), label,
		int64(st.Collections), int64(st.FastCollections), int64(st.FullCollections),
		int64(st.TotalAllocated), int64(st.TotalFreed), st.Allocated, st.Threshold,
		st.Objects(), int64(st.LastPause), blob)
	if err != nil {
		return 0, fmt.Errorf("insert failed: %w", err)
	}
	return res.LastInsertId()
}

// Recent returns up to limit snapshots, newest first.
func (d *DB) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, machine, recorded_at, label, snapshot
		FROM gc_stats ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			machine string
			at      int64
			blob    []byte
		)
		if err := rows.Scan(&e.ID, &machine, &at, &e.Label, &blob); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		if e.Machine, err = uuid.Parse(machine); err != nil {
			return nil, fmt.Errorf("entry %d: bad machine id: %w", e.ID, err)
		}
		if e.Stats, err = gc.DecodeStats(blob); err != nil {
			return nil, fmt.Errorf("entry %d: %w", e.ID, err)
		}
		e.RecordedAt = time.Unix(0, at)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Summary describes the snapshots of one machine. Collections and
// TotalAllocated are running totals in each snapshot, so the summary holds
// their maximum, which is the latest value.
type Summary struct {
	Snapshots      int
	Collections    int64 // latest
	TotalAllocated int64 // latest
	MaxAllocated   int64
	MaxPause       time.Duration
}

// Summarize reports the snapshot count, the latest running totals and the
// peak live size and pause recorded for machine.
func (d *DB) Summarize(ctx context.Context, machine uuid.UUID) (Summary, error) {
	var s Summary
	var pause int64
	err := d.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(MAX(collections), 0), COALESCE(MAX(total_allocated), 0),
			COALESCE(MAX(allocated), 0), COALESCE(MAX(last_pause_ns), 0)
		FROM gc_stats WHERE machine = ?`, machine.String()).
		Scan(&s.Snapshots, &s.Collections, &s.TotalAllocated, &s.MaxAllocated, &pause)
	if err != nil {
		return Summary{}, fmt.Errorf("summary failed: %w", err)
	}
	s.MaxPause = time.Duration(pause)
	return s, nil
}
