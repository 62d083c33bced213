package db

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/duty-roster/pkg/core/allocator"
)

func TestGridToCellsAndBack(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	grid := allocator.NewRosterGrid([]string{"Gate", "Yard"}, start, start.AddDate(0, 0, 2))
	grid.Rows[0].Cells[0] = "s1"
	grid.Rows[2].Cells[1] = "s2"

	cells := GridToCells("roster-1", grid)
	require.Len(t, cells, 6)
	assert.Equal(t, RosterCell{RosterID: "roster-1", ShiftDate: "2024-03-01", Post: "Gate", Value: "s1"}, cells[0])

	roster := &Roster{ID: "roster-1", Start: "2024-03-01", End: "2024-03-03", Posts: []string{"Gate", "Yard"}}
	rebuilt, err := CellsToGrid(roster, cells)
	require.NoError(t, err)
	assert.Equal(t, grid, rebuilt)
}

func TestCellsToGrid_MissingCellsAreEmpty(t *testing.T) {
	roster := &Roster{Start: "2024-03-01", End: "2024-03-02", Posts: []string{"Gate"}}

	grid, err := CellsToGrid(roster, []RosterCell{{ShiftDate: "2024-03-02", Post: "Gate", Value: "s1"}})
	require.NoError(t, err)

	assert.Equal(t, allocator.EmptyMarker, grid.Rows[0].Cells[0])
	assert.Equal(t, "s1", grid.Rows[1].Cells[0])
}

func TestCellsToGrid_RejectsForeignCells(t *testing.T) {
	roster := &Roster{Start: "2024-03-01", End: "2024-03-02", Posts: []string{"Gate"}}

	_, err := CellsToGrid(roster, []RosterCell{{ShiftDate: "2024-04-01", Post: "Gate"}})
	assert.Error(t, err)

	_, err = CellsToGrid(roster, []RosterCell{{ShiftDate: "2024-03-01", Post: "Yard"}})
	assert.Error(t, err)

	_, err = CellsToGrid(&Roster{Start: "bad", End: "2024-03-02"}, nil)
	assert.Error(t, err)
}

func TestReplacementsRoundTrip(t *testing.T) {
	history := []allocator.ReplacementHistoryEntry{
		{
			Date:       time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
			Post:       "Gate",
			Original:   "s1",
			Substitute: "s2",
			Reason:     allocator.ReasonLeave,
			Detail:     "vacation",
			Fallback:   allocator.FallbackStrict,
		},
		{
			Date:       time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC),
			Post:       "Yard",
			Original:   allocator.EmptyMarker,
			Substitute: allocator.EmptyMarker,
			Reason:     allocator.ReasonUnfilled,
			Fallback:   allocator.FallbackNone,
		},
	}

	n := 0
	rows := ReplacementsFromHistory("roster-1", history, func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	})
	require.Len(t, rows, 2)
	assert.Equal(t, "id-1", rows[0].ID)
	assert.Equal(t, "roster-1", rows[1].RosterID)
	assert.Equal(t, "2024-03-02", rows[0].ShiftDate)
	assert.Equal(t, "leave", rows[0].Reason)

	back, err := HistoryFromReplacements(rows)
	require.NoError(t, err)
	assert.Equal(t, history, back)

	_, err = HistoryFromReplacements([]Replacement{{ShiftDate: "02.03.2024"}})
	assert.Error(t, err)
}

func TestMonthlyNormsFromRecords(t *testing.T) {
	rows := MonthlyNormsFromRecords("s1", []allocator.MonthlyNormRecord{
		{StaffID: "a", Month: allocator.MonthKey{Year: 2024, Month: time.April}, Applicable: true, Norm: 160, Worked: 90, Expected: 80, Delta: 10},
	})

	require.Len(t, rows, 1)
	assert.Equal(t, MonthlyNorm{SessionID: "s1", StaffID: "a", Month: "2024-04", Applicable: true, Norm: 160, Worked: 90, Expected: 80, Delta: 10}, rows[0])
}

func TestCarryOverMap(t *testing.T) {
	carry := CarryOverMap([]CarryOver{{SessionID: "s1", StaffID: "a", Hours: -4}, {SessionID: "s1", StaffID: "b", Hours: 12}})
	assert.Equal(t, map[string]float64{"a": -4, "b": 12}, carry)
}
