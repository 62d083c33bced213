package workbook

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/jakechorley/duty-roster/pkg/core/allocator"
)

// RosterSheet is the sheet name used for roster grids
const RosterSheet = "Roster"

// ReadRosterFile reads the roster workbook at path
func ReadRosterFile(path string) (*allocator.RosterGrid, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open roster workbook: %w", err)
	}
	defer f.Close()

	return readRoster(f)
}

// ReadRoster reads a roster grid from the first sheet of a workbook. The header is
// "Date" followed by one column per post. Blank cells become EmptyMarker.
func ReadRoster(r io.Reader) (*allocator.RosterGrid, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open roster workbook: %w", err)
	}
	defer f.Close()

	return readRoster(f)
}

func readRoster(f *excelize.File) (*allocator.RosterGrid, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoData
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(rows) < 2 {
		return nil, ErrNoData
	}

	header := rows[0]
	if len(header) == 0 || !isDateHeader(header[0]) {
		return nil, fmt.Errorf("first column must be the date: %w", ErrBadHeader)
	}

	var posts []string
	for _, h := range header[1:] {
		posts = append(posts, strings.TrimSpace(h))
	}
	// Trailing blank header cells are formatting leftovers
	for len(posts) > 0 && posts[len(posts)-1] == "" {
		posts = posts[:len(posts)-1]
	}
	if len(posts) == 0 {
		return nil, fmt.Errorf("no post columns: %w", ErrBadHeader)
	}
	for i, p := range posts {
		if p == "" {
			return nil, fmt.Errorf("post column %d has no name: %w", i+2, ErrBadHeader)
		}
	}

	grid := &allocator.RosterGrid{Posts: posts}
	for i, row := range rows[1:] {
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}

		date, err := parseDate(row[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}

		cells := make([]string, len(posts))
		for j := range posts {
			value := ""
			if j+1 < len(row) {
				value = strings.TrimSpace(row[j+1])
			}
			if value == "" {
				value = allocator.EmptyMarker
			}
			cells[j] = value
		}
		grid.Rows = append(grid.Rows, allocator.RosterRow{Date: date, Cells: cells})
	}

	if len(grid.Rows) == 0 {
		return nil, ErrNoData
	}
	if err := grid.Validate(); err != nil {
		return nil, err
	}

	return grid, nil
}

func isDateHeader(h string) bool {
	h = strings.ToLower(strings.TrimSpace(h))
	return h == "date" || h == "дата"
}

// WriteRoster writes the grid with raw cell values so it can be read back with ReadRoster
func WriteRoster(w io.Writer, grid *allocator.RosterGrid) error {
	f, err := newWorkbook(RosterSheet)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := writeGrid(f, RosterSheet, grid, nil); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write roster workbook: %w", err)
	}
	return nil
}

// WriteRosterFile writes the grid to path
func WriteRosterFile(path string, grid *allocator.RosterGrid) error {
	return writeFile(path, func(w io.Writer) error { return WriteRoster(w, grid) })
}

// writeGrid writes the date header, the posts and one row per date.
// display renders cell values and may be nil.
func writeGrid(f *excelize.File, sheet string, grid *allocator.RosterGrid, display func(string) string) error {
	header := append([]string{"Date"}, grid.Posts...)

	rows := make([][]any, len(grid.Rows))
	for i, r := range grid.Rows {
		row := make([]any, 0, len(r.Cells)+1)
		row = append(row, formatDate(r.Date))
		for _, cell := range r.Cells {
			if display != nil {
				cell = display(cell)
			}
			row = append(row, cell)
		}
		rows[i] = row
	}

	if err := writeTable(f, sheet, header, rows); err != nil {
		return err
	}
	setWidths(f, sheet, len(header), dateColWidth, valueColWidth)
	return nil
}

// writeFile creates path and hands it to write
func writeFile(path string, write func(w io.Writer) error) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := write(out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
