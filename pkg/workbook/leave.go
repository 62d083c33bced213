package workbook

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/jakechorley/duty-roster/pkg/core/allocator"
)

var leaveHeader = []headerRule{
	{col: colStart, exact: []string{"from", "с"}, contains: []string{"start", "начал"}},
	{col: colEnd, exact: []string{"to", "по"}, contains: []string{"end", "конец", "оконч"}},
	{col: colCategory, exact: []string{"type", "тип", "вид"}, contains: []string{"category", "причин", "категор"}},
	{col: colStaff, exact: []string{"id"}, contains: []string{"staff", "member", "name", "сотрудник", "фио"}},
}

// ReadLeaveFile reads the leave workbook at path
func ReadLeaveFile(path string, staff []allocator.StaffMember) ([]allocator.LeaveRange, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open leave workbook: %w", err)
	}
	defer f.Close()

	return readLeave(f, staff)
}

// ReadLeave reads leave ranges from every sheet of a workbook. The staff column may hold
// a staff ID, a name or "rank name". A blank end means a single day and a blank category
// means vacation.
func ReadLeave(r io.Reader, staff []allocator.StaffMember) ([]allocator.LeaveRange, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open leave workbook: %w", err)
	}
	defer f.Close()

	return readLeave(f, staff)
}

func readLeave(f *excelize.File, staff []allocator.StaffMember) ([]allocator.LeaveRange, error) {
	resolve := newStaffResolver(staff)

	rowsBySheet, sheets, err := readSheets(f)
	if err != nil {
		return nil, err
	}

	var leave []allocator.LeaveRange
	for _, sheet := range sheets {
		rows := rowsBySheet[sheet]
		idx := indexHeader(rows[0], leaveHeader)
		for _, col := range []column{colStaff, colStart} {
			if _, ok := idx[col]; !ok {
				return nil, fmt.Errorf("sheet %q: %s column: %w", sheet, col, ErrBadHeader)
			}
		}

		for i, row := range rows[1:] {
			if isBlankRow(row) {
				continue
			}
			lr, err := parseLeaveRow(row, idx, resolve)
			if err != nil {
				return nil, fmt.Errorf("sheet %q row %d: %w", sheet, i+2, err)
			}
			leave = append(leave, lr)
		}
	}

	return leave, nil
}

func parseLeaveRow(row []string, idx map[column]int, resolve staffResolver) (allocator.LeaveRange, error) {
	who := cellAt(row, idx, colStaff)
	id, err := resolve(who)
	if err != nil {
		return allocator.LeaveRange{}, err
	}

	start, err := parseDate(cellAt(row, idx, colStart))
	if err != nil {
		return allocator.LeaveRange{}, err
	}
	end := start
	if v := cellAt(row, idx, colEnd); v != "" {
		if end, err = parseDate(v); err != nil {
			return allocator.LeaveRange{}, err
		}
	}
	if end.Before(start) {
		return allocator.LeaveRange{}, fmt.Errorf("leave for %q ends before it starts", who)
	}

	category, err := parseCategory(cellAt(row, idx, colCategory))
	if err != nil {
		return allocator.LeaveRange{}, err
	}

	return allocator.LeaveRange{StaffID: id, Start: start, End: end, Category: category}, nil
}

// parseCategory understands the stored category names and their Russian equivalents
func parseCategory(value string) (allocator.LeaveCategory, error) {
	lower := strings.ToLower(strings.TrimSpace(value))
	if lower == "" {
		return allocator.LeaveVacation, nil
	}
	if c := allocator.LeaveCategory(lower); c.Valid() {
		return c, nil
	}

	switch {
	case strings.Contains(lower, "отпуск"), lower == "vacation leave":
		return allocator.LeaveVacation, nil
	case strings.Contains(lower, "больн"), strings.Contains(lower, "sick"):
		return allocator.LeaveSick, nil
	case strings.Contains(lower, "выходн"), strings.Contains(lower, "отгул"), strings.Contains(lower, "day off"):
		return allocator.LeaveDayOff, nil
	}
	return "", fmt.Errorf("unknown leave category %q", value)
}

// staffResolver maps a staff cell to a staff ID
type staffResolver func(value string) (string, error)

func newStaffResolver(staff []allocator.StaffMember) staffResolver {
	byID := make(map[string]bool, len(staff))
	byName := make(map[string][]string, len(staff)*2)
	for _, m := range staff {
		byID[m.ID] = true
		for _, label := range []string{m.Name, m.DisplayName()} {
			key := normalizeName(label)
			if key == "" {
				continue
			}
			if ids := byName[key]; len(ids) == 0 || ids[len(ids)-1] != m.ID {
				byName[key] = append(ids, m.ID)
			}
		}
	}

	return func(value string) (string, error) {
		value = strings.TrimSpace(value)
		if value == "" {
			return "", fmt.Errorf("staff cell is empty")
		}
		if byID[value] {
			return value, nil
		}
		switch ids := byName[normalizeName(value)]; len(ids) {
		case 0:
			return "", fmt.Errorf("unknown staff member %q", value)
		case 1:
			return ids[0], nil
		default:
			return "", fmt.Errorf("staff member %q is ambiguous, use the ID", value)
		}
	}
}

func normalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
