package workbook

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/jakechorley/duty-roster/pkg/core/allocator"
)

// Sheet names of the output workbook
const (
	ScheduleSheet = "Schedule"
	SummarySheet  = "Summary"
	HistorySheet  = "History"
)

var (
	summaryColumns = []string{"Rank", "Name", "Unit", "Duties", "Hours"}
	historyColumns = []string{"Date", "Post", "Original", "Substitute", "Reason", "Detail", "Fallback"}
)

// Output is the report produced after a roster run
type Output struct {
	Grid    *allocator.RosterGrid
	Summary []allocator.HoursSummary
	History []allocator.ReplacementHistoryEntry

	// Display renders staff IDs for people. Nil writes cell values unchanged.
	Display func(value string) string
}

// WriteOutput writes the schedule, summary and history sheets
func WriteOutput(w io.Writer, out Output) error {
	f, err := newWorkbook(ScheduleSheet, SummarySheet, HistorySheet)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := writeGrid(f, ScheduleSheet, out.Grid, out.Display); err != nil {
		return err
	}

	summary := make([][]any, len(out.Summary))
	for i, s := range out.Summary {
		summary[i] = []any{s.Rank, s.Name, s.Unit, s.Duties, s.Hours}
	}
	if err := writeTable(f, SummarySheet, summaryColumns, summary); err != nil {
		return err
	}
	setWidths(f, SummarySheet, len(summaryColumns), 20, 16)

	display := out.Display
	if display == nil {
		display = func(v string) string { return v }
	}
	history := make([][]any, len(out.History))
	for i, h := range out.History {
		history[i] = []any{
			formatDate(h.Date),
			h.Post,
			display(h.Original),
			display(h.Substitute),
			string(h.Reason),
			h.Detail,
			string(h.Fallback),
		}
	}
	if err := writeTable(f, HistorySheet, historyColumns, history); err != nil {
		return err
	}
	setWidths(f, HistorySheet, len(historyColumns), dateColWidth, valueColWidth)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write output workbook: %w", err)
	}
	return nil
}

// WriteOutputFile writes the output workbook to path
func WriteOutputFile(path string, out Output) error {
	return writeFile(path, func(w io.Writer) error { return WriteOutput(w, out) })
}

// MonthlyFileName is the file a month of the roster is written to
func MonthlyFileName(month allocator.MonthKey) string {
	return fmt.Sprintf("roster_%02d.%d.xlsx", int(month.Month), month.Year)
}

// WriteMonthly splits the grid by calendar month and writes one workbook per month
// into dir. It returns the written paths in month order.
func WriteMonthly(dir string, grid *allocator.RosterGrid, display func(string) string) ([]string, error) {
	parts := grid.SplitByMonth()

	var paths []string
	for _, month := range grid.Months() {
		part := parts[month]
		path := filepath.Join(dir, MonthlyFileName(month))

		err := writeFile(path, func(w io.Writer) error {
			f, err := newWorkbook(ScheduleSheet)
			if err != nil {
				return err
			}
			defer f.Close()

			if err := writeGrid(f, ScheduleSheet, part, display); err != nil {
				return err
			}
			return f.Write(w)
		})
		if err != nil {
			return paths, fmt.Errorf("failed to write %s: %w", MonthlyFileName(month), err)
		}
		paths = append(paths, path)
	}

	return paths, nil
}
