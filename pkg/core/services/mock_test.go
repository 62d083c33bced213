package services

import (
	"context"
	"fmt"
	"time"

	"github.com/jakechorley/duty-roster/internal/config"
	"github.com/jakechorley/duty-roster/pkg/core/allocator"
	"github.com/jakechorley/duty-roster/pkg/db"
	"github.com/jakechorley/duty-roster/pkg/workbook"
)

type storedRoster struct {
	roster *db.Roster
	cells  []db.RosterCell
}

// mockDB implements an in-memory test double for db.Database
type mockDB struct {
	sessions     []db.Session
	carryOver    map[string][]db.CarryOver
	rosters      []storedRoster
	replacements []db.Replacement
	norms        []db.MonthlyNorm

	insertRosterErr  error
	getLatestSessErr error
}

var _ db.Database = (*mockDB)(nil)

func newMockDB() *mockDB {
	return &mockDB{carryOver: make(map[string][]db.CarryOver)}
}

func (m *mockDB) GetLatestSession(ctx context.Context) (*db.Session, error) {
	if m.getLatestSessErr != nil {
		return nil, m.getLatestSessErr
	}
	if len(m.sessions) == 0 {
		return nil, nil
	}
	s := m.sessions[len(m.sessions)-1]
	return &s, nil
}

func (m *mockDB) GetSession(ctx context.Context, id string) (*db.Session, error) {
	for _, s := range m.sessions {
		if s.ID == id {
			return &s, nil
		}
	}
	return nil, fmt.Errorf("session %s: %w", id, db.ErrNotFound)
}

func (m *mockDB) InsertSession(ctx context.Context, session *db.Session) error {
	m.sessions = append(m.sessions, *session)
	return nil
}

func (m *mockDB) GetCarryOver(ctx context.Context, sessionID string) ([]db.CarryOver, error) {
	return m.carryOver[sessionID], nil
}

func (m *mockDB) InsertCarryOver(ctx context.Context, balances []db.CarryOver) error {
	for _, b := range balances {
		m.carryOver[b.SessionID] = append(m.carryOver[b.SessionID], b)
	}
	return nil
}

func (m *mockDB) InsertRoster(ctx context.Context, roster *db.Roster, cells []db.RosterCell) error {
	if m.insertRosterErr != nil {
		return m.insertRosterErr
	}
	m.rosters = append(m.rosters, storedRoster{roster: roster, cells: cells})
	return nil
}

func (m *mockDB) GetRoster(ctx context.Context, id string) (*db.Roster, []db.RosterCell, error) {
	for _, r := range m.rosters {
		if r.roster.ID == id {
			return r.roster, r.cells, nil
		}
	}
	return nil, nil, fmt.Errorf("roster %s: %w", id, db.ErrNotFound)
}

func (m *mockDB) GetLatestRoster(ctx context.Context, kind string) (*db.Roster, []db.RosterCell, error) {
	for i := len(m.rosters) - 1; i >= 0; i-- {
		if m.rosters[i].roster.Kind == kind {
			return m.rosters[i].roster, m.rosters[i].cells, nil
		}
	}
	return nil, nil, fmt.Errorf("roster %s: %w", kind, db.ErrNotFound)
}

func (m *mockDB) InsertReplacements(ctx context.Context, replacements []db.Replacement) error {
	m.replacements = append(m.replacements, replacements...)
	return nil
}

func (m *mockDB) GetReplacements(ctx context.Context, rosterID string) ([]db.Replacement, error) {
	var out []db.Replacement
	for _, r := range m.replacements {
		if r.RosterID == rosterID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockDB) InsertMonthlyNorms(ctx context.Context, norms []db.MonthlyNorm) error {
	m.norms = append(m.norms, norms...)
	return nil
}

// addRoster stores grid under a roster header built from it
func (m *mockDB) addRoster(id, sessionID, kind string, grid *allocator.RosterGrid) *db.Roster {
	roster := &db.Roster{
		ID:        id,
		SessionID: sessionID,
		Kind:      kind,
		Start:     grid.Start().Format(allocator.DateLayout),
		End:       grid.End().Format(allocator.DateLayout),
		Posts:     grid.Posts,
	}
	m.rosters = append(m.rosters, storedRoster{roster: roster, cells: db.GridToCells(id, grid)})
	return roster
}

func date(month time.Month, day int) time.Time {
	return time.Date(2024, month, day, 0, 0, 0, 0, time.UTC)
}

func testConfig() *config.Config {
	return &config.Config{
		Storage:       config.StorageConfig{Driver: "sqlite", DSN: "roster.db"},
		StaffWorkbook: "staff.xlsx",
		DutyTypes:     []config.DutyTypeConfig{{Name: "Gate", Hours: 8}},
		MonthlyNorm:   30,
		RosterSheetID: "sheet-1",
	}
}

// testInputs has two units of two. Current hours order the ledger a2 < a1 and b2 < b1.
func testInputs() *Inputs {
	member := func(id, unit string, current float64) workbook.StaffRecord {
		return workbook.StaffRecord{
			Member: allocator.StaffMember{
				ID:        id,
				Rank:      "Sergeant",
				Name:      "Name " + id,
				Unit:      unit,
				BaseHours: 30,
			},
			CurrentHours: current,
		}
	}
	return &Inputs{Staff: []workbook.StaffRecord{
		member("a1", "Alpha", 10),
		member("a2", "Alpha", 0),
		member("b1", "Bravo", 0),
		member("b2", "Bravo", -5),
	}}
}

// gateGrid builds a single-post grid starting on 1 April with one cell per value
func gateGrid(values ...string) *allocator.RosterGrid {
	grid := allocator.NewRosterGrid([]string{"Gate"}, date(time.April, 1), date(time.April, len(values)))
	for i, v := range values {
		grid.Rows[i].Cells[0] = v
	}
	return grid
}
