package db

import (
	"errors"
	"fmt"
	"time"

	"github.com/jakechorley/duty-roster/pkg/core/allocator"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("record not found")

// GridToCells flattens a roster grid into storable cells
func GridToCells(rosterID string, grid *allocator.RosterGrid) []RosterCell {
	cells := make([]RosterCell, 0, len(grid.Rows)*len(grid.Posts))
	for _, row := range grid.Rows {
		for c, post := range grid.Posts {
			cells = append(cells, RosterCell{
				RosterID:  rosterID,
				ShiftDate: row.Date.Format(allocator.DateLayout),
				Post:      post,
				Value:     row.Cells[c],
			})
		}
	}
	return cells
}

// CellsToGrid rebuilds a grid covering the roster's full range. Missing cells are empty.
func CellsToGrid(roster *Roster, cells []RosterCell) (*allocator.RosterGrid, error) {
	start, err := time.Parse(allocator.DateLayout, roster.Start)
	if err != nil {
		return nil, fmt.Errorf("failed to parse roster start %q: %w", roster.Start, err)
	}
	end, err := time.Parse(allocator.DateLayout, roster.End)
	if err != nil {
		return nil, fmt.Errorf("failed to parse roster end %q: %w", roster.End, err)
	}

	grid := allocator.NewRosterGrid(roster.Posts, start, end)

	rowIndex := make(map[string]int, len(grid.Rows))
	for i, row := range grid.Rows {
		rowIndex[row.Date.Format(allocator.DateLayout)] = i
	}
	colIndex := make(map[string]int, len(grid.Posts))
	for i, post := range grid.Posts {
		colIndex[post] = i
	}

	for _, cell := range cells {
		r, ok := rowIndex[cell.ShiftDate]
		if !ok {
			return nil, fmt.Errorf("cell date %s outside roster range %s..%s", cell.ShiftDate, roster.Start, roster.End)
		}
		c, ok := colIndex[cell.Post]
		if !ok {
			return nil, fmt.Errorf("cell post %q not in roster header", cell.Post)
		}
		grid.Rows[r].Cells[c] = cell.Value
	}

	return grid, nil
}

// ReplacementsFromHistory converts a replacement history into rows for rosterID.
// newID supplies the row IDs.
func ReplacementsFromHistory(rosterID string, history []allocator.ReplacementHistoryEntry, newID func() string) []Replacement {
	rows := make([]Replacement, len(history))
	for i, h := range history {
		rows[i] = Replacement{
			ID:         newID(),
			RosterID:   rosterID,
			ShiftDate:  h.Date.Format(allocator.DateLayout),
			Post:       h.Post,
			Original:   h.Original,
			Substitute: h.Substitute,
			Reason:     string(h.Reason),
			Detail:     h.Detail,
			Fallback:   string(h.Fallback),
		}
	}
	return rows
}

// HistoryFromReplacements converts stored rows back into a replacement history
func HistoryFromReplacements(rows []Replacement) ([]allocator.ReplacementHistoryEntry, error) {
	history := make([]allocator.ReplacementHistoryEntry, len(rows))
	for i, r := range rows {
		date, err := time.Parse(allocator.DateLayout, r.ShiftDate)
		if err != nil {
			return nil, fmt.Errorf("failed to parse replacement date %q: %w", r.ShiftDate, err)
		}
		history[i] = allocator.ReplacementHistoryEntry{
			Date:       date,
			Post:       r.Post,
			Original:   r.Original,
			Substitute: r.Substitute,
			Reason:     allocator.ReplacementReason(r.Reason),
			Detail:     r.Detail,
			Fallback:   allocator.FallbackLevel(r.Fallback),
		}
	}
	return history, nil
}

// MonthlyNormsFromRecords converts reconciliation records into rows for sessionID
func MonthlyNormsFromRecords(sessionID string, records []allocator.MonthlyNormRecord) []MonthlyNorm {
	rows := make([]MonthlyNorm, len(records))
	for i, r := range records {
		rows[i] = MonthlyNorm{
			SessionID:  sessionID,
			StaffID:    r.StaffID,
			Month:      r.Month.ConfigKey(),
			Applicable: r.Applicable,
			Norm:       r.Norm,
			Worked:     r.Worked,
			Expected:   r.Expected,
			Delta:      r.Delta,
		}
	}
	return rows
}

// CarryOverMap keys stored balances by staff ID
func CarryOverMap(balances []CarryOver) map[string]float64 {
	carry := make(map[string]float64, len(balances))
	for _, b := range balances {
		carry[b.StaffID] = b.Hours
	}
	return carry
}
