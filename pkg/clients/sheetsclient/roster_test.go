package sheetsclient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jakechorley/duty-roster/pkg/core/allocator"
)

func TestRosterTabTitle(t *testing.T) {
	start := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.April, 30, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "01.04.2024 - 30.04.2024", RosterTabTitle(start, end))
}

func TestRosterValues(t *testing.T) {
	grid := allocator.NewRosterGrid([]string{"Gate", "Patrol"},
		time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.April, 2, 0, 0, 0, 0, time.UTC))
	grid.Rows[0].Cells = []string{"a1", "a2"}

	display := func(v string) string {
		if v == "a1" {
			return "Captain Ivanov"
		}
		return v
	}

	assert.Equal(t, [][]interface{}{
		{"Date", "Gate", "Patrol"},
		{"01.04.2024", "Captain Ivanov", "a2"},
		{"02.04.2024", allocator.EmptyMarker, allocator.EmptyMarker},
	}, RosterValues(grid, display))

	raw := RosterValues(grid, nil)
	assert.Equal(t, "a1", raw[1][1])
}

func TestQuoteTitle(t *testing.T) {
	assert.Equal(t, "'01.04.2024 - 30.04.2024'", quoteTitle("01.04.2024 - 30.04.2024"))
	assert.Equal(t, "'O''Brien'", quoteTitle("O'Brien"))
}
