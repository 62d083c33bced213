package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/duty-roster/pkg/core/allocator"
	"github.com/jakechorley/duty-roster/pkg/db"
	"github.com/jakechorley/duty-roster/pkg/workbook"
)

func TestOpeningSession(t *testing.T) {
	mock := newMockDB()
	mock.sessions = []db.Session{
		{ID: "s1"},
		{ID: "s2", PreviousID: "s1"},
	}
	mock.carryOver["s1"] = []db.CarryOver{{SessionID: "s1", StaffID: "a1", Hours: 42}}
	inputs := testInputs()
	ctx := context.Background()
	logger := zap.NewNop()

	tests := []struct {
		name      string
		roster    *db.Roster
		wantID    string
		wantCarry float64
	}{
		{name: "no roster", roster: nil, wantID: "", wantCarry: 10},
		{name: "roster without session", roster: &db.Roster{ID: "r"}, wantID: "", wantCarry: 10},
		{name: "first session", roster: &db.Roster{ID: "r", SessionID: "s1"}, wantID: "s1", wantCarry: 10},
		{name: "later session", roster: &db.Roster{ID: "r", SessionID: "s2"}, wantID: "s2", wantCarry: 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, err := openingSession(ctx, mock, logger, tt.roster, inputs)
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, session.ID)
			assert.Equal(t, tt.wantCarry, session.CarryOverFor("a1"))
		})
	}
}

func TestReconcile(t *testing.T) {
	mock := newMockDB()
	mock.sessions = []db.Session{{ID: "s1"}}
	mock.addRoster("r1", "s1", db.RosterKindStaff, gateGrid("a1", "b1"))

	result, err := Reconcile(context.Background(), mock, testConfig(), testInputs(), zap.NewNop(), "")
	require.NoError(t, err)

	assert.Equal(t, "r1", result.Roster.ID)
	assert.Len(t, result.Outcome.Records, 4)
	assert.Equal(t, map[string]float64{"a1": -22, "a2": -30, "b1": -22, "b2": -30}, result.Outcome.Totals)
	assert.Len(t, result.Staff, 4)

	require.Len(t, result.Summary, 4)
	assert.Equal(t, "a1", result.Summary[0].StaffID)
	assert.Equal(t, 1, result.Summary[0].Duties)
	assert.Equal(t, 8.0, result.Summary[0].Hours)
	assert.Equal(t, 0, result.Summary[1].Duties)

	assert.Empty(t, mock.norms, "reconcile does not store anything")
}

func TestReconcile_RosterNotFound(t *testing.T) {
	_, err := Reconcile(context.Background(), newMockDB(), testConfig(), testInputs(), zap.NewNop(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, db.ErrNotFound))
}

func TestAuditRoster_SuppliedGrid(t *testing.T) {
	result, err := AuditRoster(context.Background(), newMockDB(), testConfig(), inputsWithLeave(), zap.NewNop(), "", gateGrid("a1", "a1"))
	require.NoError(t, err)

	assert.Nil(t, result.Roster)
	require.Len(t, result.Violations, 1)
	v := result.Violations[0]
	assert.Equal(t, date(time.April, 2), v.Date)
	assert.Equal(t, "a1", v.Occupant)
	assert.Equal(t, allocator.ReasonLeave, v.Reason)
	assert.Equal(t, "Sergeant Name a1", result.Display(v.Occupant))
}

func TestAuditRoster_StoredRosterIsClean(t *testing.T) {
	mock := newMockDB()
	mock.addRoster("r1", "", db.RosterKindStaff, gateGrid("a1", "b1"))

	result, err := AuditRoster(context.Background(), mock, testConfig(), testInputs(), zap.NewNop(), "r1", nil)
	require.NoError(t, err)

	assert.Equal(t, "r1", result.Roster.ID)
	assert.Empty(t, result.Violations)
}

func TestExportRoster(t *testing.T) {
	mock := newMockDB()
	mock.sessions = []db.Session{{ID: "s1"}}
	mock.addRoster("r1", "s1", db.RosterKindStaff, gateGrid("a1", "b1"))
	mock.replacements = []db.Replacement{
		{ID: "x", RosterID: "r1", ShiftDate: "2024-04-02", Post: "Gate", Original: "b2", Substitute: "b1", Reason: "leave", Detail: "vacation", Fallback: "strict"},
	}
	outDir := filepath.Join(t.TempDir(), "out")

	result, err := ExportRoster(context.Background(), mock, testConfig(), testInputs(), zap.NewNop(), "r1", outDir)
	require.NoError(t, err)

	require.Equal(t, []string{
		filepath.Join(outDir, "roster_01.04.2024-02.04.2024.xlsx"),
		filepath.Join(outDir, "roster_04.2024.xlsx"),
		filepath.Join(outDir, CarryOverFileName),
	}, result.Files)
	for _, path := range result.Files {
		_, err := os.Stat(path)
		assert.NoError(t, err, path)
	}

	records, err := workbook.ReadStaffFile(result.Files[2], 160)
	require.NoError(t, err)
	require.Len(t, records, 4)
	carry := workbook.CarryOver(records)
	assert.Equal(t, -22.0, carry["a1"])
	assert.Equal(t, -30.0, carry["a2"])
}

func TestExportRoster_BadReplacementDate(t *testing.T) {
	mock := newMockDB()
	mock.addRoster("r1", "", db.RosterKindStaff, gateGrid("a1"))
	mock.replacements = []db.Replacement{{ID: "x", RosterID: "r1", ShiftDate: "April"}}

	_, err := ExportRoster(context.Background(), mock, testConfig(), testInputs(), zap.NewNop(), "", t.TempDir())
	assert.Error(t, err)
}

// mockPublisher records what it was asked to publish
type mockPublisher struct {
	spreadsheetID string
	grid          *allocator.RosterGrid
	display       func(string) string
	err           error
}

func (m *mockPublisher) PublishRoster(spreadsheetID string, grid *allocator.RosterGrid, display func(string) string, logger *zap.Logger) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.spreadsheetID = spreadsheetID
	m.grid = grid
	m.display = display
	return "01.04.2024 - 02.04.2024", nil
}

func TestPublishRoster(t *testing.T) {
	mock := newMockDB()
	mock.addRoster("r1", "", db.RosterKindStaff, gateGrid("a1", "b1"))
	publisher := &mockPublisher{}

	result, err := PublishRoster(context.Background(), mock, publisher, testConfig(), testInputs(), zap.NewNop(), "")
	require.NoError(t, err)

	assert.Equal(t, "r1", result.Roster.ID)
	assert.Equal(t, "01.04.2024 - 02.04.2024", result.Tab)
	assert.Equal(t, "sheet-1", publisher.spreadsheetID)
	assert.Equal(t, "b1", publisher.grid.Rows[1].Cells[0])
	assert.Equal(t, "Sergeant Name b1", publisher.display("b1"))
	assert.Equal(t, allocator.EmptyMarker, publisher.display(allocator.EmptyMarker))
}

func TestPublishRoster_Errors(t *testing.T) {
	mock := newMockDB()
	mock.addRoster("r1", "", db.RosterKindStaff, gateGrid("a1"))

	cfg := testConfig()
	cfg.RosterSheetID = ""
	_, err := PublishRoster(context.Background(), mock, &mockPublisher{}, cfg, testInputs(), zap.NewNop(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rosterSheetID")

	_, err = PublishRoster(context.Background(), mock, &mockPublisher{err: errors.New("quota exceeded")}, testConfig(), testInputs(), zap.NewNop(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to publish roster")
}
