package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/duty-roster/pkg/db"
)

const dateLayout = "2006-01-02"

// GetLatestSession returns the most recently created session, or nil if there is none
func (d *DB) GetLatestSession(ctx context.Context) (*db.Session, error) {
	var s db.Session
	var previousID *string
	var rangeStart, rangeEnd, createdAt time.Time

	err := d.pool.QueryRow(ctx, `
		SELECT id, previous_id, range_start, range_end, created_at
		FROM roster_session
		ORDER BY created_at DESC
		LIMIT 1
	`).Scan(&s.ID, &previousID, &rangeStart, &rangeEnd, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest session: %w", err)
	}

	if previousID != nil {
		s.PreviousID = *previousID
	}
	s.RangeStart = rangeStart.Format(dateLayout)
	s.RangeEnd = rangeEnd.Format(dateLayout)
	s.CreatedAt = createdAt.UTC().Format(time.RFC3339)

	return &s, nil
}

// GetSession returns the session with the given ID, or db.ErrNotFound
func (d *DB) GetSession(ctx context.Context, id string) (*db.Session, error) {
	var s db.Session
	var previousID *string
	var rangeStart, rangeEnd, createdAt time.Time

	err := d.pool.QueryRow(ctx, `
		SELECT id, previous_id, range_start, range_end, created_at
		FROM roster_session
		WHERE id = $1
	`, id).Scan(&s.ID, &previousID, &rangeStart, &rangeEnd, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", id, db.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	if previousID != nil {
		s.PreviousID = *previousID
	}
	s.RangeStart = rangeStart.Format(dateLayout)
	s.RangeEnd = rangeEnd.Format(dateLayout)
	s.CreatedAt = createdAt.UTC().Format(time.RFC3339)

	return &s, nil
}

// InsertSession inserts a new session record
func (d *DB) InsertSession(ctx context.Context, session *db.Session) error {
	var previousID *string
	if session.PreviousID != "" {
		previousID = &session.PreviousID
	}

	_, err := d.pool.Exec(ctx, `
		INSERT INTO roster_session (id, previous_id, range_start, range_end)
		VALUES ($1, $2, $3, $4)
	`, session.ID, previousID, session.RangeStart, session.RangeEnd)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// GetCarryOver retrieves the carry-over balances recorded for a session
func (d *DB) GetCarryOver(ctx context.Context, sessionID string) ([]db.CarryOver, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT session_id, staff_id, hours
		FROM carry_over
		WHERE session_id = $1
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

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating carry-over: %w", err)
	}

	return balances, nil
}

// InsertCarryOver inserts carry-over balances in a single transaction
func (d *DB) InsertCarryOver(ctx context.Context, balances []db.CarryOver) error {
	if len(balances) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, c := range balances {
		batch.Queue(`
			INSERT INTO carry_over (session_id, staff_id, hours)
			VALUES ($1, $2, $3)
		`, c.SessionID, c.StaffID, c.Hours)
	}

	return d.sendBatch(ctx, batch, "carry-over")
}

// sendBatch runs a batch inside a transaction
func (d *DB) sendBatch(ctx context.Context, batch *pgx.Batch, what string) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert %s: %w", what, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit %s: %w", what, err)
	}
	return nil
}

var _ db.Database = (*DB)(nil)
