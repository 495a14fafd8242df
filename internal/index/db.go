package index

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ThatOtherAndrew/ESMSBusTimetable/internal/parse"
)

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS timetable (
    departure_time INTEGER NOT NULL,
    vehicle        TEXT NOT NULL,
    location       TEXT NOT NULL,
    target_group   TEXT NOT NULL,
    destination    TEXT NOT NULL,
    comments       TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (departure_time, vehicle, location, target_group, destination, comments)
);

CREATE INDEX IF NOT EXISTS timetable_departure ON timetable (departure_time);

CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);
`

// schemaVersion is recorded in meta so doctor can report it.
const schemaVersion = "1"

// DB is the timetable store. Writes go through one connection under writeMu,
// so a key is accepted at most once however many inserts race for it.
type DB struct {
	db      *sql.DB
	writeMu sync.Mutex
	loc     *time.Location
}

// OpenDB opens (creating if needed) the store at dbPath. Departure times
// read back are expressed in loc.
func OpenDB(dbPath string, loc *time.Location) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	if _, err := db.Exec("INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?)", schemaVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("record schema version: %w", err)
	}

	if loc == nil {
		loc = time.Local
	}
	return &DB{db: db, loc: loc}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Raw() *sql.DB {
	return d.db
}

func (d *DB) Location() *time.Location {
	return d.loc
}

func (d *DB) SchemaVersion() (string, error) {
	var v string
	err := d.db.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&v)
	return v, err
}

// Insert adds rec unless its natural key is already stored. It reports
// whether a row was added.
func (d *DB) Insert(ctx context.Context, rec parse.Record) (bool, error) {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()
	return d.insertLocked(ctx, rec)
}

func (d *DB) insertLocked(ctx context.Context, rec parse.Record) (bool, error) {
	res, err := d.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO timetable (departure_time, vehicle, location, target_group, destination, comments)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.DepartureTime.Unix(),
		rec.Vehicle,
		rec.Location,
		rec.TargetGroup,
		rec.Destination,
		rec.Comments,
	)
	if err != nil {
		return false, fmt.Errorf("insert departure %s %s: %w", rec.DepartureTime.Format(time.RFC3339), rec.Vehicle, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// InsertBatch inserts records in order. Each row commits on its own: a
// duplicate is counted as rejected and the batch carries on, and an error
// stops the batch without undoing rows already accepted.
func (d *DB) InsertBatch(ctx context.Context, records []parse.Record) (accepted, rejected int, err error) {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return accepted, rejected, err
		}
		added, err := d.insertLocked(ctx, rec)
		if err != nil {
			return accepted, rejected, err
		}
		if added {
			accepted++
		} else {
			rejected++
		}
	}
	return accepted, rejected, nil
}

// CeilUnix is t in whole seconds, rounded up. Departures are stored to the
// second, so comparing against the ceiling keeps a departure 0.5s in the past
// out of a ">= now" query.
func CeilUnix(t time.Time) int64 {
	s := t.Unix()
	if t.Nanosecond() > 0 {
		s++
	}
	return s
}

// Upcoming returns departures at or after now, soonest first. Departures
// sharing a time come back in insertion order. limit <= 0 means no limit.
func (d *DB) Upcoming(ctx context.Context, now time.Time, limit int) ([]parse.Record, error) {
	query := `SELECT departure_time, vehicle, location, target_group, destination, comments
		FROM timetable
		WHERE departure_time >= ?
		ORDER BY departure_time ASC, rowid ASC`
	args := []any{CeilUnix(now)}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return d.query(ctx, query, args...)
}

// Between returns departures in [from, to), soonest first.
func (d *DB) Between(ctx context.Context, from, to time.Time) ([]parse.Record, error) {
	return d.query(ctx, `SELECT departure_time, vehicle, location, target_group, destination, comments
		FROM timetable
		WHERE departure_time >= ? AND departure_time < ?
		ORDER BY departure_time ASC, rowid ASC`, CeilUnix(from), CeilUnix(to))
}

func (d *DB) query(ctx context.Context, query string, args ...any) ([]parse.Record, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query timetable: %w", err)
	}
	defer rows.Close()

	var records []parse.Record
	for rows.Next() {
		var r parse.Record
		var departure int64
		if err := rows.Scan(&departure, &r.Vehicle, &r.Location, &r.TargetGroup, &r.Destination, &r.Comments); err != nil {
			return nil, err
		}
		r.DepartureTime = time.Unix(departure, 0).In(d.loc)
		records = append(records, r)
	}
	return records, rows.Err()
}

func (d *DB) Count(ctx context.Context) (int, error) {
	var n int
	err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM timetable").Scan(&n)
	return n, err
}

// Span returns the earliest and latest stored departures. ok is false when
// the table is empty.
func (d *DB) Span(ctx context.Context) (first, last time.Time, ok bool, err error) {
	var lo, hi sql.NullInt64
	err = d.db.QueryRowContext(ctx, "SELECT MIN(departure_time), MAX(departure_time) FROM timetable").Scan(&lo, &hi)
	if err != nil || !lo.Valid {
		return time.Time{}, time.Time{}, false, err
	}
	return time.Unix(lo.Int64, 0).In(d.loc), time.Unix(hi.Int64, 0).In(d.loc), true, nil
}

// DeleteBefore removes departures strictly before cutoff and returns how
// many went.
func (d *DB) DeleteBefore(ctx context.Context, cutoff time.Time) (int, error) {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	res, err := d.db.ExecContext(ctx, "DELETE FROM timetable WHERE departure_time < ?", CeilUnix(cutoff))
	if err != nil {
		return 0, fmt.Errorf("delete departures: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}
