package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/duty-roster/pkg/db"
)

// InsertRoster inserts a roster header and all of its cells in one transaction
func (d *DB) InsertRoster(ctx context.Context, roster *db.Roster, cells []db.RosterCell) error {
	var sessionID *string
	if roster.SessionID != "" {
		sessionID = &roster.SessionID
	}

	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO roster (id, session_id, kind, range_start, range_end, posts)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, roster.ID, sessionID, roster.Kind, roster.Start, roster.End, roster.Posts)
	for _, c := range cells {
		batch.Queue(`
			INSERT INTO roster_cell (roster_id, shift_date, post, value)
			VALUES ($1, $2, $3, $4)
		`, roster.ID, c.ShiftDate, c.Post, c.Value)
	}

	return d.sendBatch(ctx, batch, "roster")
}

// GetRoster retrieves a roster and its cells by ID
func (d *DB) GetRoster(ctx context.Context, id string) (*db.Roster, []db.RosterCell, error) {
	return d.getRoster(ctx, `
		SELECT id, session_id, kind, range_start, range_end, posts, created_at
		FROM roster
		WHERE id = $1
	`, id)
}

// GetLatestRoster retrieves the most recently created roster of the given kind
func (d *DB) GetLatestRoster(ctx context.Context, kind string) (*db.Roster, []db.RosterCell, error) {
	return d.getRoster(ctx, `
		SELECT id, session_id, kind, range_start, range_end, posts, created_at
		FROM roster
		WHERE kind = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, kind)
}

func (d *DB) getRoster(ctx context.Context, query string, arg string) (*db.Roster, []db.RosterCell, error) {
	var r db.Roster
	var sessionID *string
	var start, end, createdAt time.Time

	err := d.pool.QueryRow(ctx, query, arg).Scan(&r.ID, &sessionID, &r.Kind, &start, &end, &r.Posts, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, fmt.Errorf("roster %s: %w", arg, db.ErrNotFound)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query roster: %w", err)
	}

	if sessionID != nil {
		r.SessionID = *sessionID
	}
	r.Start = start.Format(dateLayout)
	r.End = end.Format(dateLayout)
	r.CreatedAt = createdAt.UTC().Format(time.RFC3339)

	rows, err := d.pool.Query(ctx, `
		SELECT roster_id, shift_date, post, value
		FROM roster_cell
		WHERE roster_id = $1
		ORDER BY shift_date
	`, r.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query roster cells: %w", err)
	}
	defer rows.Close()

	var cells []db.RosterCell
	for rows.Next() {
		var c db.RosterCell
		var shiftDate time.Time
		if err := rows.Scan(&c.RosterID, &shiftDate, &c.Post, &c.Value); err != nil {
			return nil, nil, fmt.Errorf("failed to scan roster cell: %w", err)
		}
		c.ShiftDate = shiftDate.Format(dateLayout)
		cells = append(cells, c)
	}

	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating roster cells: %w", err)
	}

	return &r, cells, nil
}
