package allocator

import (
	"fmt"
	"strings"
	"time"
)

// RosterRow is one dated row of a roster
type RosterRow struct {
	Date  time.Time
	Cells []string
}

// RosterGrid is a roster with one column per post and one row per date.
// Cells hold a staff ID (person layer), a unit name (unit layer), EmptyMarker
// or an absence code.
type RosterGrid struct {
	Posts []string
	Rows  []RosterRow
}

// NewRosterGrid creates a grid covering every date from start to end with empty cells
func NewRosterGrid(posts []string, start, end time.Time) *RosterGrid {
	dates := DateRange(start, end)
	grid := &RosterGrid{
		Posts: append([]string(nil), posts...),
		Rows:  make([]RosterRow, len(dates)),
	}
	for i, d := range dates {
		cells := make([]string, len(posts))
		for j := range cells {
			cells[j] = EmptyMarker
		}
		grid.Rows[i] = RosterRow{Date: d, Cells: cells}
	}
	return grid
}

// IsEmptyCell reports whether a cell value means "nobody"
func IsEmptyCell(value string) bool {
	v := strings.TrimSpace(value)
	return v == "" || v == EmptyMarker || v == "-"
}

// Validate checks that there is one row per consecutive calendar day and every row
// has one cell per post
func (g *RosterGrid) Validate() error {
	for i, row := range g.Rows {
		if len(row.Cells) != len(g.Posts) {
			return fmt.Errorf("%w: row %s has %d cells, expected %d",
				ErrInvalidGrid, row.Date.Format(DateLayout), len(row.Cells), len(g.Posts))
		}
		if i == 0 {
			continue
		}
		prev := g.Rows[i-1].Date
		switch gap := DaysBetween(prev, row.Date); {
		case gap < 1:
			return fmt.Errorf("%w: date %s does not follow %s",
				ErrInvalidGrid, row.Date.Format(DateLayout), prev.Format(DateLayout))
		case gap > 1:
			return fmt.Errorf("%w: %d days missing between %s and %s",
				ErrInvalidGrid, gap-1, prev.Format(DateLayout), row.Date.Format(DateLayout))
		}
	}
	return nil
}

// Clone returns a deep copy of the grid
func (g *RosterGrid) Clone() *RosterGrid {
	clone := &RosterGrid{
		Posts: append([]string(nil), g.Posts...),
		Rows:  make([]RosterRow, len(g.Rows)),
	}
	for i, row := range g.Rows {
		clone.Rows[i] = RosterRow{Date: row.Date, Cells: append([]string(nil), row.Cells...)}
	}
	return clone
}

// Start returns the first date of the grid (zero if empty)
func (g *RosterGrid) Start() time.Time {
	if len(g.Rows) == 0 {
		return time.Time{}
	}
	return g.Rows[0].Date
}

// End returns the last date of the grid (zero if empty)
func (g *RosterGrid) End() time.Time {
	if len(g.Rows) == 0 {
		return time.Time{}
	}
	return g.Rows[len(g.Rows)-1].Date
}

// Months returns the distinct months covered by the grid in order
func (g *RosterGrid) Months() []MonthKey {
	var months []MonthKey
	for _, row := range g.Rows {
		m := MonthOf(row.Date)
		if len(months) == 0 || months[len(months)-1] != m {
			months = append(months, m)
		}
	}
	return months
}

// SplitByMonth returns one sub-grid per month, sharing no cell storage with g
func (g *RosterGrid) SplitByMonth() map[MonthKey]*RosterGrid {
	parts := make(map[MonthKey]*RosterGrid)
	for _, row := range g.Rows {
		m := MonthOf(row.Date)
		part, ok := parts[m]
		if !ok {
			part = &RosterGrid{Posts: append([]string(nil), g.Posts...)}
			parts[m] = part
		}
		part.Rows = append(part.Rows, RosterRow{Date: row.Date, Cells: append([]string(nil), row.Cells...)})
	}
	return parts
}

// Slot identifies one cell of a grid
type Slot struct {
	Date time.Time
	Post string
}

func (s Slot) String() string {
	return fmt.Sprintf("%s/%s", s.Date.Format(DateLayout), s.Post)
}
