package commands

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jakechorley/duty-roster/pkg/core/allocator"
	"github.com/jakechorley/duty-roster/pkg/workbook"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBold   = "\033[1m"
)

// parseDateArg accepts "2006-01-02" or "02.01.2006"
func parseDateArg(s string) (time.Time, error) {
	for _, layout := range []string{allocator.DateLayout, workbook.DateLayout} {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD or DD.MM.YYYY)", s)
}

// optionalArg returns args[0], or "" when there is none
func optionalArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}

// deltaColor picks a color for an hour delta: green within tolerance of the norm,
// yellow when over, red when under
func deltaColor(delta, tolerance float64, green, yellow, red string) string {
	switch {
	case delta < -tolerance:
		return red
	case delta > tolerance:
		return yellow
	default:
		return green
	}
}

// padRight pads s to width runes
func padRight(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

// printGrid writes the roster as a table, one row per date
func printGrid(w io.Writer, grid *allocator.RosterGrid, display func(string) string) {
	if display == nil {
		display = func(s string) string { return s }
	}

	const dateColWidth = 12
	widths := make([]int, len(grid.Posts))
	for c, post := range grid.Posts {
		widths[c] = utf8.RuneCountInString(post)
		for _, row := range grid.Rows {
			widths[c] = max(widths[c], utf8.RuneCountInString(display(row.Cells[c])))
		}
	}

	// Print header
	fmt.Fprintf(w, "%s%s", colorBold, padRight("Date", dateColWidth))
	for c, post := range grid.Posts {
		fmt.Fprintf(w, "  %s", padRight(post, widths[c]))
	}
	fmt.Fprintf(w, "%s\n", colorReset)

	// Print separator
	fmt.Fprint(w, strings.Repeat("-", dateColWidth))
	for _, width := range widths {
		fmt.Fprintf(w, "  %s", strings.Repeat("-", width))
	}
	fmt.Fprintln(w)

	// Print each date
	for _, row := range grid.Rows {
		fmt.Fprint(w, padRight(row.Date.Format(workbook.DateLayout), dateColWidth))
		for c, cell := range row.Cells {
			fmt.Fprintf(w, "  %s", padRight(display(cell), widths[c]))
		}
		fmt.Fprintln(w)
	}
}

// printHistory writes one line per replacement
func printHistory(w io.Writer, history []allocator.ReplacementHistoryEntry, display func(string) string) {
	for _, h := range history {
		reason := string(h.Reason)
		if h.Detail != "" {
			reason += ": " + h.Detail
		}
		fmt.Fprintf(w, "  • %s %s: %s → %s (%s, %s)\n",
			h.Date.Format(workbook.DateLayout),
			h.Post,
			display(h.Original),
			display(h.Substitute),
			reason,
			h.Fallback)
	}
}

// printUnfilled writes one line per empty slot
func printUnfilled(w io.Writer, unfilled []allocator.UnfilledSlot) {
	if len(unfilled) == 0 {
		return
	}
	fmt.Fprintf(w, "⚠️  Unfilled Slots (%d):\n", len(unfilled))
	for _, u := range unfilled {
		fmt.Fprintf(w, "  • %s %s: %s\n", u.Date.Format(workbook.DateLayout), u.Post, u.Reason)
	}
	fmt.Fprintln(w)
}

// printBalances writes each member's carry-over in staff order
func printBalances(w io.Writer, staff []allocator.StaffMember, totals map[string]float64) {
	for _, m := range staff {
		delta := totals[m.ID]
		color := deltaColor(delta, 0, colorGreen, colorYellow, colorRed)
		fmt.Fprintf(w, "  %s  %s  %s%+.0f%s\n", padRight(m.Unit, 12), padRight(m.DisplayName(), 30), color, delta, colorReset)
	}
}
