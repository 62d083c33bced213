package allocator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func staff(id, unit string) StaffMember {
	return StaffMember{ID: id, Rank: "Sergeant", Name: "Member " + id, Unit: unit}
}

func officer(id, unit string) StaffMember {
	return StaffMember{ID: id, Rank: "Captain", Name: "Officer " + id, Unit: unit}
}

func newTestAllocator(t *testing.T, snapshot Snapshot) *Allocator {
	t.Helper()
	if snapshot.Ranks.Scale == nil {
		snapshot.Ranks = DefaultRankPolicy()
	}
	a, err := NewAllocator(snapshot)
	require.NoError(t, err)
	return a
}

// gridOf builds a single-post grid with one row per consecutive day from start
func gridOf(post string, start time.Time, cells ...string) *RosterGrid {
	grid := &RosterGrid{Posts: []string{post}}
	for i, cell := range cells {
		grid.Rows = append(grid.Rows, RosterRow{Date: start.AddDate(0, 0, i), Cells: []string{cell}})
	}
	return grid
}

func column(grid *RosterGrid, col int) []string {
	values := make([]string, len(grid.Rows))
	for i, row := range grid.Rows {
		values[i] = row.Cells[col]
	}
	return values
}
