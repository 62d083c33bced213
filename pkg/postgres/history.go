package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/duty-roster/pkg/db"
)

// InsertReplacements inserts replacement history entries, keeping their order
func (d *DB) InsertReplacements(ctx context.Context, replacements []db.Replacement) error {
	if len(replacements) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, r := range replacements {
		var detail *string
		if r.Detail != "" {
			detail = &r.Detail
		}
		batch.Queue(`
			INSERT INTO replacement (id, roster_id, shift_date, post, original, substitute, reason, detail, fallback)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, r.ID, r.RosterID, r.ShiftDate, r.Post, r.Original, r.Substitute, r.Reason, detail, r.Fallback)
	}

	return d.sendBatch(ctx, batch, "replacements")
}

// GetReplacements retrieves the replacement history of a roster in insertion order
func (d *DB) GetReplacements(ctx context.Context, rosterID string) ([]db.Replacement, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, roster_id, shift_date, post, original, substitute, reason, detail, fallback
		FROM replacement
		WHERE roster_id = $1
		ORDER BY position
	`, rosterID)
	if err != nil {
		return nil, fmt.Errorf("failed to query replacements: %w", err)
	}
	defer rows.Close()

	var replacements []db.Replacement
	for rows.Next() {
		var r db.Replacement
		var shiftDate time.Time
		var detail *string
		if err := rows.Scan(&r.ID, &r.RosterID, &shiftDate, &r.Post, &r.Original, &r.Substitute, &r.Reason, &detail, &r.Fallback); err != nil {
			return nil, fmt.Errorf("failed to scan replacement: %w", err)
		}
		r.ShiftDate = shiftDate.Format(dateLayout)
		if detail != nil {
			r.Detail = *detail
		}
		replacements = append(replacements, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating replacements: %w", err)
	}

	return replacements, nil
}

// InsertMonthlyNorms inserts reconciled monthly records
func (d *DB) InsertMonthlyNorms(ctx context.Context, norms []db.MonthlyNorm) error {
	if len(norms) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, n := range norms {
		batch.Queue(`
			INSERT INTO monthly_norm (session_id, staff_id, month, applicable, norm, worked, expected, delta)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, n.SessionID, n.StaffID, n.Month, n.Applicable, n.Norm, n.Worked, n.Expected, n.Delta)
	}

	return d.sendBatch(ctx, batch, "monthly norms")
}
