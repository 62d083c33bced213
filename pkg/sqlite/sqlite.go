// Package sqlite provides a single-file store implementing db.Database, for
// running the roster CLI without a PostgreSQL server. The schema is migrated
// when the store is opened.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jakechorley/duty-roster/pkg/db"
)

const schema = `
CREATE TABLE IF NOT EXISTS roster_session (
	id TEXT PRIMARY KEY,
	previous_id TEXT REFERENCES roster_session (id),
	range_start TEXT NOT NULL,
	range_end TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS carry_over (
	session_id TEXT NOT NULL REFERENCES roster_session (id),
	staff_id TEXT NOT NULL,
	hours REAL NOT NULL,
	PRIMARY KEY (session_id, staff_id)
);

CREATE TABLE IF NOT EXISTS roster (
	id TEXT PRIMARY KEY,
	session_id TEXT REFERENCES roster_session (id),
	kind TEXT NOT NULL CHECK (kind IN ('unit', 'staff')),
	range_start TEXT NOT NULL,
	range_end TEXT NOT NULL,
	posts TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS roster_cell (
	roster_id TEXT NOT NULL REFERENCES roster (id) ON DELETE CASCADE,
	shift_date TEXT NOT NULL,
	post TEXT NOT NULL,
	value TEXT NOT NULL,
	PRIMARY KEY (roster_id, shift_date, post)
);

CREATE TABLE IF NOT EXISTS replacement (
	id TEXT PRIMARY KEY,
	roster_id TEXT NOT NULL REFERENCES roster (id) ON DELETE CASCADE,
	shift_date TEXT NOT NULL,
	post TEXT NOT NULL,
	original TEXT NOT NULL,
	substitute TEXT NOT NULL,
	reason TEXT NOT NULL,
	detail TEXT,
	fallback TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS monthly_norm (
	session_id TEXT NOT NULL REFERENCES roster_session (id),
	staff_id TEXT NOT NULL,
	month TEXT NOT NULL,
	applicable INTEGER NOT NULL,
	norm REAL NOT NULL,
	worked REAL NOT NULL,
	expected REAL NOT NULL,
	delta REAL NOT NULL,
	PRIMARY KEY (session_id, staff_id, month)
);
`

// DB implements db.Database on SQLite
type DB struct {
	conn *sql.DB
	mu   sync.RWMutex
}

var _ db.Database = (*DB)(nil)

// New opens (or creates) the database file and migrates the schema.
// Use ":memory:" for a throwaway database.
func New(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases alive across queries
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Close closes the database
func (d *DB) Close() error {
	return d.conn.Close()
}

// GetLatestSession returns the most recently inserted session, or nil if there is none
func (d *DB) GetLatestSession(ctx context.Context) (*db.Session, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var s db.Session
	var previousID sql.NullString
	err := d.conn.QueryRowContext(ctx, `
		SELECT id, previous_id, range_start, range_end, created_at
		FROM roster_session
		ORDER BY rowid DESC
		LIMIT 1
	`).Scan(&s.ID, &previousID, &s.RangeStart, &s.RangeEnd, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest session: %w", err)
	}
	s.PreviousID = previousID.String

	return &s, nil
}

// GetSession returns the session with the given ID, or db.ErrNotFound
func (d *DB) GetSession(ctx context.Context, id string) (*db.Session, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var s db.Session
	var previousID sql.NullString
	err := d.conn.QueryRowContext(ctx, `
		SELECT id, previous_id, range_start, range_end, created_at
		FROM roster_session
		WHERE id = ?
	`, id).Scan(&s.ID, &previousID, &s.RangeStart, &s.RangeEnd, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", id, db.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	s.PreviousID = previousID.String

	return &s, nil
}

// InsertSession inserts a new session record
func (d *DB) InsertSession(ctx context.Context, session *db.Session) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, err := d.conn.ExecContext(ctx, `
		INSERT INTO roster_session (id, previous_id, range_start, range_end, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, session.ID, nullable(session.PreviousID), session.RangeStart, session.RangeEnd, now())
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// GetCarryOver retrieves the carry-over balances recorded for a session
func (d *DB) GetCarryOver(ctx context.Context, sessionID string) ([]db.CarryOver, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rows, err := d.conn.QueryContext(ctx, `
		SELECT session_id, staff_id, hours
		FROM carry_over
		WHERE session_id = ?
		ORDER BY staff_id
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query carry-over: %w", err)
	}
	defer rows.Close()

	var balances []db.CarryOver
	for rows.Next() {
		var c db.CarryOver
		if err := rows.Scan(&c.SessionID, &c.StaffID, &c.Hours); err != nil {
			return nil, fmt.Errorf("failed to scan carry-over: %w", err)
		}
		balances = append(balances, c)
	}

	return balances, rows.Err()
}

// InsertCarryOver inserts carry-over balances in one transaction
func (d *DB) InsertCarryOver(ctx context.Context, balances []db.CarryOver) error {
	return d.inTx(ctx, "carry-over", func(tx *sql.Tx) error {
		for _, c := range balances {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO carry_over (session_id, staff_id, hours) VALUES (?, ?, ?)
			`, c.SessionID, c.StaffID, c.Hours); err != nil {
				return err
			}
		}
		return nil
	})
}

// InsertRoster inserts a roster header and its cells in one transaction
func (d *DB) InsertRoster(ctx context.Context, roster *db.Roster, cells []db.RosterCell) error {
	posts, err := json.Marshal(roster.Posts)
	if err != nil {
		return fmt.Errorf("failed to encode roster posts: %w", err)
	}

	return d.inTx(ctx, "roster", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO roster (id, session_id, kind, range_start, range_end, posts, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, roster.ID, nullable(roster.SessionID), roster.Kind, roster.Start, roster.End, string(posts), now()); err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO roster_cell (roster_id, shift_date, post, value) VALUES (?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, c := range cells {
			if _, err := stmt.ExecContext(ctx, roster.ID, c.ShiftDate, c.Post, c.Value); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetRoster retrieves a roster and its cells by ID
func (d *DB) GetRoster(ctx context.Context, id string) (*db.Roster, []db.RosterCell, error) {
	return d.getRoster(ctx, `WHERE id = ?`, id)
}

// GetLatestRoster retrieves the most recently inserted roster of the given kind
func (d *DB) GetLatestRoster(ctx context.Context, kind string) (*db.Roster, []db.RosterCell, error) {
	return d.getRoster(ctx, `WHERE kind = ? ORDER BY rowid DESC LIMIT 1`, kind)
}

func (d *DB) getRoster(ctx context.Context, where string, arg string) (*db.Roster, []db.RosterCell, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var r db.Roster
	var sessionID sql.NullString
	var posts string
	err := d.conn.QueryRowContext(ctx, `
		SELECT id, session_id, kind, range_start, range_end, posts, created_at
		FROM roster `+where, arg).
		Scan(&r.ID, &sessionID, &r.Kind, &r.Start, &r.End, &posts, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("roster %s: %w", arg, db.ErrNotFound)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query roster: %w", err)
	}
	r.SessionID = sessionID.String
	if err := json.Unmarshal([]byte(posts), &r.Posts); err != nil {
		return nil, nil, fmt.Errorf("failed to decode roster posts: %w", err)
	}

	rows, err := d.conn.QueryContext(ctx, `
		SELECT roster_id, shift_date, post, value
		FROM roster_cell
		WHERE roster_id = ?
		ORDER BY shift_date
	`, r.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query roster cells: %w", err)
	}
	defer rows.Close()

	var cells []db.RosterCell
	for rows.Next() {
		var c db.RosterCell
		if err := rows.Scan(&c.RosterID, &c.ShiftDate, &c.Post, &c.Value); err != nil {
			return nil, nil, fmt.Errorf("failed to scan roster cell: %w", err)
		}
		cells = append(cells, c)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating roster cells: %w", err)
	}

	return &r, cells, nil
}

// InsertReplacements inserts replacement history entries, keeping their order
func (d *DB) InsertReplacements(ctx context.Context, replacements []db.Replacement) error {
	return d.inTx(ctx, "replacements", func(tx *sql.Tx) error {
		for _, r := range replacements {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO replacement (id, roster_id, shift_date, post, original, substitute, reason, detail, fallback)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, r.ID, r.RosterID, r.ShiftDate, r.Post, r.Original, r.Substitute, r.Reason, nullable(r.Detail), r.Fallback); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetReplacements retrieves the replacement history of a roster in insertion order
func (d *DB) GetReplacements(ctx context.Context, rosterID string) ([]db.Replacement, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rows, err := d.conn.QueryContext(ctx, `
		SELECT id, roster_id, shift_date, post, original, substitute, reason, detail, fallback
		FROM replacement
		WHERE roster_id = ?
		ORDER BY rowid
	`, rosterID)
	if err != nil {
		return nil, fmt.Errorf("failed to query replacements: %w", err)
	}
	defer rows.Close()

	var replacements []db.Replacement
	for rows.Next() {
		var r db.Replacement
		var detail sql.NullString
		if err := rows.Scan(&r.ID, &r.RosterID, &r.ShiftDate, &r.Post, &r.Original, &r.Substitute, &r.Reason, &detail, &r.Fallback); err != nil {
			return nil, fmt.Errorf("failed to scan replacement: %w", err)
		}
		r.Detail = detail.String
		replacements = append(replacements, r)
	}

	return replacements, rows.Err()
}

// InsertMonthlyNorms inserts reconciled monthly records
func (d *DB) InsertMonthlyNorms(ctx context.Context, norms []db.MonthlyNorm) error {
	return d.inTx(ctx, "monthly norms", func(tx *sql.Tx) error {
		for _, n := range norms {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO monthly_norm (session_id, staff_id, month, applicable, norm, worked, expected, delta)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`, n.SessionID, n.StaffID, n.Month, n.Applicable, n.Norm, n.Worked, n.Expected, n.Delta); err != nil {
				return err
			}
		}
		return nil
	})
}

// inTx runs fn in a write transaction
func (d *DB) inTx(ctx context.Context, what string, fn func(tx *sql.Tx) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return fmt.Errorf("failed to insert %s: %w", what, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", what, err)
	}
	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
