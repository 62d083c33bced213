package workbook

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/jakechorley/duty-roster/pkg/core/allocator"
)

// StaffRecord is one row of the staff workbook
type StaffRecord struct {
	Member allocator.StaffMember

	// CurrentHours is the carry-over balance brought in from the previous session
	CurrentHours float64
}

var staffHeader = []headerRule{
	{col: colID, exact: []string{"id", "staff id", "№"}, contains: []string{"табел"}},
	{col: colBase, contains: []string{"base", "базов"}},
	{col: colCurrent, contains: []string{"current", "carry", "текущ"}},
	{col: colHired, contains: []string{"hired", "принят"}},
	{col: colFired, contains: []string{"fired", "уволен"}},
	{col: colRank, contains: []string{"rank", "звание"}},
	{col: colName, contains: []string{"name", "фио", "имя"}},
}

var staffColumns = []string{"ID", "Rank", "Name", "Base hours", "Current hours", "Hired", "Fired"}

// StaffID derives a stable ID for a member listed without one
func StaffID(unit, name string) string {
	key := strings.ToLower(strings.TrimSpace(unit)) + "/" + strings.ToLower(strings.Join(strings.Fields(name), " "))
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
}

// ReadStaffFile reads the staff workbook at path
func ReadStaffFile(path string, baseHours float64) ([]StaffRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open staff workbook: %w", err)
	}
	defer f.Close()

	return readStaff(f, baseHours)
}

// ReadStaff reads a staff workbook. Every sheet is a unit named after the sheet.
// Members with a blank base column get baseHours.
func ReadStaff(r io.Reader, baseHours float64) ([]StaffRecord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open staff workbook: %w", err)
	}
	defer f.Close()

	return readStaff(f, baseHours)
}

func readStaff(f *excelize.File, baseHours float64) ([]StaffRecord, error) {
	rowsBySheet, sheets, err := readSheets(f)
	if err != nil {
		return nil, err
	}

	var records []StaffRecord
	for _, sheet := range sheets {
		rows := rowsBySheet[sheet]
		idx := indexHeader(rows[0], staffHeader)
		if _, ok := idx[colName]; !ok {
			return nil, fmt.Errorf("sheet %q: name column: %w", sheet, ErrBadHeader)
		}

		unit := strings.TrimSpace(sheet)
		for i, row := range rows[1:] {
			record, ok, err := parseStaffRow(row, idx, unit, baseHours)
			if err != nil {
				return nil, fmt.Errorf("sheet %q row %d: %w", sheet, i+2, err)
			}
			if ok {
				records = append(records, record)
			}
		}
	}

	if len(records) == 0 {
		return nil, ErrNoData
	}
	return records, nil
}

// parseStaffRow returns false for rows without a name
func parseStaffRow(row []string, idx map[column]int, unit string, baseHours float64) (StaffRecord, bool, error) {
	name := cellAt(row, idx, colName)
	if name == "" {
		return StaffRecord{}, false, nil
	}

	member := allocator.StaffMember{
		ID:        cellAt(row, idx, colID),
		Rank:      cellAt(row, idx, colRank),
		Name:      name,
		Unit:      unit,
		BaseHours: baseHours,
	}
	if member.ID == "" {
		member.ID = StaffID(unit, name)
	}

	var err error
	if v := cellAt(row, idx, colBase); v != "" {
		if member.BaseHours, err = parseHours(v); err != nil {
			return StaffRecord{}, false, err
		}
	}
	if member.Hired, err = parseOptionalDate(cellAt(row, idx, colHired)); err != nil {
		return StaffRecord{}, false, err
	}
	if member.Fired, err = parseOptionalDate(cellAt(row, idx, colFired)); err != nil {
		return StaffRecord{}, false, err
	}

	record := StaffRecord{Member: member}
	if v := cellAt(row, idx, colCurrent); v != "" {
		if record.CurrentHours, err = parseHours(v); err != nil {
			return StaffRecord{}, false, err
		}
	}

	return record, true, nil
}

// Members returns the staff members in workbook order
func Members(records []StaffRecord) []allocator.StaffMember {
	members := make([]allocator.StaffMember, len(records))
	for i, r := range records {
		members[i] = r.Member
	}
	return members
}

// CarryOver returns the current hours keyed by staff ID
func CarryOver(records []StaffRecord) map[string]float64 {
	carry := make(map[string]float64, len(records))
	for _, r := range records {
		carry[r.Member.ID] = r.CurrentHours
	}
	return carry
}

// WriteStaffCarryOver writes the staff workbook back out with the current hours replaced
// by the new carry-over balances, ready to feed the next session.
// Members missing from carry keep their previous balance.
func WriteStaffCarryOver(w io.Writer, records []StaffRecord, carry map[string]float64) error {
	var units []string
	byUnit := make(map[string][][]any)
	for _, r := range records {
		unit := sheetName(r.Member.Unit)
		if _, ok := byUnit[unit]; !ok {
			units = append(units, unit)
		}

		current := r.CurrentHours
		if v, ok := carry[r.Member.ID]; ok {
			current = v
		}

		byUnit[unit] = append(byUnit[unit], []any{
			r.Member.ID,
			r.Member.Rank,
			r.Member.Name,
			r.Member.BaseHours,
			current,
			formatDate(r.Member.Hired),
			formatDate(r.Member.Fired),
		})
	}
	if len(units) == 0 {
		return ErrNoData
	}

	f, err := newWorkbook(units...)
	if err != nil {
		return err
	}
	defer f.Close()

	for _, unit := range units {
		if err := writeTable(f, unit, staffColumns, byUnit[unit]); err != nil {
			return err
		}
		setWidths(f, unit, len(staffColumns), 38, 16)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write staff workbook: %w", err)
	}
	return nil
}

// WriteStaffCarryOverFile writes the carry-over staff workbook to path
func WriteStaffCarryOverFile(path string, records []StaffRecord, carry map[string]float64) error {
	return writeFile(path, func(w io.Writer) error { return WriteStaffCarryOver(w, records, carry) })
}
