// Package workbook reads and writes the Excel files the roster works with:
// staff and leave lists, roster grids, the output report and monthly splits.
package workbook

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

var (
	ErrNoData    = errors.New("workbook has no data rows")
	ErrBadHeader = errors.New("workbook header is missing a required column")
)

// DateLayout is how dates are written into workbooks
const DateLayout = "02.01.2006"

const (
	defaultSheet  = "Sheet1"
	maxSheetName  = 31
	dateColWidth  = 12
	valueColWidth = 24
)

// column identifies a field regardless of the header language
type column string

const (
	colID       column = "id"
	colRank     column = "rank"
	colName     column = "name"
	colBase     column = "base"
	colCurrent  column = "current"
	colHired    column = "hired"
	colFired    column = "fired"
	colStaff    column = "staff"
	colStart    column = "start"
	colEnd      column = "end"
	colCategory column = "category"
	colDate     column = "date"
)

// headerRule matches a header cell either exactly or by substring (both lowercased)
type headerRule struct {
	col      column
	exact    []string
	contains []string
}

func (r headerRule) matches(header string) bool {
	if slices.Contains(r.exact, header) {
		return true
	}
	for _, kw := range r.contains {
		if strings.Contains(header, kw) {
			return true
		}
	}
	return false
}

// indexHeader maps each column to the first header cell that matches it.
// Rules are tried in order and a header cell is claimed by at most one rule.
func indexHeader(header []string, rules []headerRule) map[column]int {
	idx := make(map[column]int, len(rules))
	for i, h := range header {
		lower := strings.ToLower(strings.TrimSpace(h))
		if lower == "" {
			continue
		}
		for _, rule := range rules {
			if _, seen := idx[rule.col]; seen {
				continue
			}
			if rule.matches(lower) {
				idx[rule.col] = i
				break
			}
		}
	}
	return idx
}

// cellAt returns the trimmed value of column col, or "" if the row is short or the column absent
func cellAt(row []string, idx map[column]int, col column) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parseDate accepts DD.MM.YYYY, YYYY-MM-DD or a raw Excel serial date
func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range []string{"2.1.2006", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}

	if serial, err := strconv.ParseFloat(value, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid excel date %q: %w", value, err)
		}
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}

	return time.Time{}, fmt.Errorf("invalid date %q (expected DD.MM.YYYY)", value)
}

// parseOptionalDate returns the zero time for a blank cell
func parseOptionalDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return parseDate(value)
}

// parseHours accepts both "12.5" and "12,5"
func parseHours(value string) (float64, error) {
	hours, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", "."), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid hours %q", value)
	}
	return hours, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// newWorkbook creates a file holding the named sheets, in order, with the first one active
func newWorkbook(sheets ...string) (*excelize.File, error) {
	f := excelize.NewFile()
	for i, name := range sheets {
		idx, err := f.NewSheet(name)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create sheet %q: %w", name, err)
		}
		if i == 0 {
			f.SetActiveSheet(idx)
		}
	}
	if len(sheets) > 0 && !slices.Contains(sheets, defaultSheet) {
		if err := f.DeleteSheet(defaultSheet); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to delete default sheet: %w", err)
		}
	}
	return f, nil
}

// writeTable writes a bold header row followed by data rows
func writeTable(f *excelize.File, sheet string, header []string, rows [][]any) error {
	style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("failed to write header of %q: %w", sheet, err)
	}

	if len(header) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(header), 1)
		if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
			return fmt.Errorf("failed to style header of %q: %w", sheet, err)
		}
	}

	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d of %q: %w", i+2, sheet, err)
		}
	}

	return nil
}

// setWidths sizes the first column and the n-1 columns after it
func setWidths(f *excelize.File, sheet string, n int, first, rest float64) {
	f.SetColWidth(sheet, "A", "A", first)
	if n > 1 {
		last, _ := excelize.ColumnNumberToName(n)
		f.SetColWidth(sheet, "B", last, rest)
	}
}

// sheetName makes s usable as a worksheet name
func sheetName(s string) string {
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(s))

	runes := []rune(s)
	if len(runes) > maxSheetName {
		s = string(runes[:maxSheetName])
	}
	if s == "" {
		return "Sheet"
	}
	return s
}

// readSheets opens every non-empty sheet as raw rows, in workbook order
func readSheets(f *excelize.File) (map[string][][]string, []string, error) {
	rowsBySheet := make(map[string][][]string)
	var order []string
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
		}
		if len(rows) == 0 {
			continue
		}
		rowsBySheet[sheet] = rows
		order = append(order, sheet)
	}
	return rowsBySheet, order, nil
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
