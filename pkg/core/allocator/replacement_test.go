package allocator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func replacementSnapshot() Snapshot {
	return Snapshot{
		Staff: []StaffMember{
			staff("s1", "A"), staff("s2", "A"), staff("s3", "B"),
		},
		DutyTypes: []DutyType{{Name: "Gate", Hours: 8}},
	}
}

func TestReplaceAbsences_ValidRosterUnchanged(t *testing.T) {
	a := newTestAllocator(t, replacementSnapshot())
	grid := gridOf("Gate", date(2024, 3, 1), "s1", "s2", "s3", "s1", "s2", "s3")

	first, err := a.ReplaceAbsences(NewSession("s", nil), grid)
	require.NoError(t, err)
	assert.Empty(t, first.History)
	assert.Equal(t, grid, first.Grid)

	second, err := a.ReplaceAbsences(NewSession("s", nil), first.Grid)
	require.NoError(t, err)
	assert.Empty(t, second.History)
	assert.Equal(t, first.Grid, second.Grid)
}

func TestReplaceAbsences_IdempotentAfterRepair(t *testing.T) {
	a := newTestAllocator(t, replacementSnapshot())
	grid := gridOf("Gate", date(2024, 3, 1), "s1", "Б", "s3", EmptyMarker, "О", "s3")

	repaired, err := a.ReplaceAbsences(NewSession("s", nil), grid)
	require.NoError(t, err)
	require.Len(t, repaired.History, 3)
	for _, entry := range repaired.History {
		assert.Equal(t, FallbackStrict, entry.Fallback)
	}

	again, err := a.ReplaceAbsences(NewSession("s", nil), repaired.Grid)
	require.NoError(t, err)
	assert.Empty(t, again.History)
	assert.Equal(t, repaired.Grid, again.Grid)
}

func TestReplaceAbsences_AbsenceCode(t *testing.T) {
	a := newTestAllocator(t, replacementSnapshot())
	grid := gridOf("Gate", date(2024, 3, 1), "s1", "Б")

	outcome, err := a.ReplaceAbsences(NewSession("s", nil), grid)
	require.NoError(t, err)

	require.Len(t, outcome.History, 1)
	entry := outcome.History[0]
	assert.Equal(t, date(2024, 3, 2), entry.Date)
	assert.Equal(t, "Gate", entry.Post)
	assert.Equal(t, "Б", entry.Original)
	// s1 already has 8 hours, s2 is first among the least loaded
	assert.Equal(t, "s2", entry.Substitute)
	assert.Equal(t, ReasonAbsence, entry.Reason)
	assert.Equal(t, string(LeaveSick), entry.Detail)
	assert.Equal(t, FallbackStrict, entry.Fallback)

	assert.Equal(t, []string{"s1", "s2"}, column(outcome.Grid, 0))
	// The input grid is left alone
	assert.Equal(t, "Б", grid.Rows[1].Cells[0])
}

func TestReplaceAbsences_Reasons(t *testing.T) {
	ranks := DefaultRankPolicy()
	ranks.Privileged = PrivilegedPosts("Duty Officer")

	tests := []struct {
		name     string
		snapshot Snapshot
		grid     *RosterGrid
		reason   ReplacementReason
		slot     int
	}{
		{
			name: "leave",
			snapshot: Snapshot{
				Staff:     []StaffMember{staff("s1", "A"), staff("s2", "A")},
				DutyTypes: []DutyType{{Name: "Gate", Hours: 8}},
				Leave:     []LeaveRange{{StaffID: "s1", Start: date(2024, 3, 1), End: date(2024, 3, 5), Category: LeaveVacation}},
			},
			grid:   gridOf("Gate", date(2024, 3, 1), "s1"),
			reason: ReasonLeave,
		},
		{
			name: "rest interval after long shift",
			snapshot: Snapshot{
				Staff:     []StaffMember{staff("s1", "A"), staff("s2", "A")},
				DutyTypes: []DutyType{{Name: "Guard", Hours: 24}},
			},
			grid:   gridOf("Guard", date(2024, 3, 1), "s1", "s1"),
			reason: ReasonRestInterval,
			slot:   1,
		},
		{
			name: "cadence",
			snapshot: Snapshot{
				Staff:     []StaffMember{staff("s1", "A"), staff("s2", "A")},
				DutyTypes: []DutyType{{Name: "Patrol", Hours: 8, Cycle: []int{3}}},
			},
			grid:   gridOf("Patrol", date(2024, 3, 1), "s1", "s1"),
			reason: ReasonRestInterval,
			slot:   1,
		},
		{
			name: "unknown staff",
			snapshot: Snapshot{
				Staff:     []StaffMember{staff("s1", "A")},
				DutyTypes: []DutyType{{Name: "Gate", Hours: 8}},
			},
			grid:   gridOf("Gate", date(2024, 3, 1), "ghost"),
			reason: ReasonIneligible,
		},
		{
			name: "rank below threshold",
			snapshot: Snapshot{
				Staff:     []StaffMember{staff("s1", "A"), officer("o1", "A")},
				DutyTypes: []DutyType{{Name: "Duty Officer", Hours: 24}},
				Ranks:     ranks,
			},
			grid:   gridOf("Duty Officer", date(2024, 3, 1), "s1"),
			reason: ReasonIneligible,
		},
		{
			name: "unfilled",
			snapshot: Snapshot{
				Staff:     []StaffMember{staff("s1", "A")},
				DutyTypes: []DutyType{{Name: "Gate", Hours: 8}},
			},
			grid:   gridOf("Gate", date(2024, 3, 1), EmptyMarker),
			reason: ReasonUnfilled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAllocator(t, tt.snapshot)

			outcome, err := a.ReplaceAbsences(NewSession("s", nil), tt.grid)
			require.NoError(t, err)

			require.Len(t, outcome.History, 1)
			assert.Equal(t, tt.reason, outcome.History[0].Reason)
			assert.Equal(t, tt.grid.Rows[tt.slot].Date, outcome.History[0].Date)
			assert.NotEqual(t, tt.grid.Rows[tt.slot].Cells[0], outcome.Grid.Rows[tt.slot].Cells[0])
			assert.False(t, IsEmptyCell(outcome.Grid.Rows[tt.slot].Cells[0]))
		})
	}
}

func TestReplaceAbsences_DuplicateOnSameDay(t *testing.T) {
	a := newTestAllocator(t, Snapshot{
		Staff: []StaffMember{staff("s1", "A"), staff("s2", "A")},
		DutyTypes: []DutyType{
			{Name: "Gate", Hours: 8},
			{Name: "Yard", Hours: 8},
		},
	})
	grid := &RosterGrid{
		Posts: []string{"Gate", "Yard"},
		Rows:  []RosterRow{{Date: date(2024, 3, 1), Cells: []string{"s1", "s1"}}},
	}

	outcome, err := a.ReplaceAbsences(NewSession("s", nil), grid)
	require.NoError(t, err)

	require.Len(t, outcome.History, 1)
	assert.Equal(t, ReasonDuplicate, outcome.History[0].Reason)
	assert.Equal(t, "Yard", outcome.History[0].Post)
	assert.Equal(t, []string{"s1", "s2"}, outcome.Grid.Rows[0].Cells)
}

func holidaySnapshot(holiday HolidayKey) Snapshot {
	snapshot := replacementSnapshot()
	snapshot.Holidays = NewHolidaySet(holiday)
	return snapshot
}

func TestReplaceAbsences_HolidayRotation(t *testing.T) {
	a := newTestAllocator(t, holidaySnapshot(HolidayKey{Day: 8, Month: 3}))
	// s1 already has 8 hours when the holiday comes round
	grid := gridOf("Gate", date(2024, 3, 7), "s1", "s1", "s2")

	outcome, err := a.ReplaceAbsences(NewSession("s", nil), grid)
	require.NoError(t, err)

	require.Len(t, outcome.History, 1)
	entry := outcome.History[0]
	assert.Equal(t, date(2024, 3, 8), entry.Date)
	assert.Equal(t, "s1", entry.Original)
	assert.Equal(t, "s2", entry.Substitute)
	assert.Equal(t, ReasonHoliday, entry.Reason)
	assert.Equal(t, "rotated to s2", entry.Detail)
	assert.Equal(t, FallbackStrict, entry.Fallback)
	assert.Equal(t, []string{"s1", "s2", "s2"}, column(outcome.Grid, 0))

	again, err := a.ReplaceAbsences(NewSession("s", nil), outcome.Grid)
	require.NoError(t, err)
	assert.Empty(t, again.History)
	assert.Equal(t, outcome.Grid, again.Grid)
}

func TestReplaceAbsences_HolidayKeepsLeastLoaded(t *testing.T) {
	a := newTestAllocator(t, holidaySnapshot(HolidayKey{Day: 8, Month: 3}))
	// s1 and s3 are tied on the holiday and s1 comes first in the staff list
	grid := gridOf("Gate", date(2024, 3, 7), "s2", "s1", "s2")

	outcome, err := a.ReplaceAbsences(NewSession("s", nil), grid)
	require.NoError(t, err)
	assert.Empty(t, outcome.History)
	assert.Equal(t, grid, outcome.Grid)

	violations, err := a.Audit(NewSession("s", nil), gridOf("Gate", date(2024, 3, 7), "s1", "s1", "s2"))
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Equal(t, ReasonHoliday, violations[0].Reason)
}

func TestReplaceAbsences_HolidayAlreadyServed(t *testing.T) {
	a := newTestAllocator(t, Snapshot{
		Staff:     []StaffMember{staff("s1", "A"), staff("s2", "A")},
		DutyTypes: []DutyType{{Name: "Gate", Hours: 8}},
		Holidays:  NewHolidaySet(HolidayKey{Day: 1, Month: 1}),
	})

	// s1 and s2 alternate from 1 January 2024 to 1 January 2025
	cells := make([]string, DaysBetween(date(2024, 1, 1), date(2025, 1, 1))+1)
	for i := range cells {
		cells[i] = "s1"
		if i%2 == 1 {
			cells[i] = "s2"
		}
	}
	grid := gridOf("Gate", date(2024, 1, 1), cells...)

	outcome, err := a.ReplaceAbsences(NewSession("s", nil), grid)
	require.NoError(t, err)

	require.Len(t, outcome.History, 1)
	entry := outcome.History[0]
	assert.Equal(t, date(2025, 1, 1), entry.Date)
	assert.Equal(t, ReasonHoliday, entry.Reason)
	assert.Equal(t, "already served 01.01", entry.Detail)
	assert.Equal(t, "s2", entry.Substitute)
}

func TestReplaceAbsences_LeastRecentFallback(t *testing.T) {
	s1 := staff("s1", "A")
	s1.Fired = date(2024, 3, 2)
	s2 := staff("s2", "A")
	s2.Fired = date(2024, 3, 2)

	a := newTestAllocator(t, Snapshot{
		Staff:     []StaffMember{s1, s2},
		DutyTypes: []DutyType{{Name: "Gate", Hours: 8}},
	})

	outcome, err := a.ReplaceAbsences(NewSession("s", nil), gridOf("Gate", date(2024, 3, 1), "s1", "Б"))
	require.NoError(t, err)

	require.Len(t, outcome.History, 1)
	assert.Equal(t, FallbackLeastRecent, outcome.History[0].Fallback)
	// s2 has never served, so it is less recent than s1
	assert.Equal(t, "s2", outcome.History[0].Substitute)
}

func TestReplaceAbsences_RelaxedRestFallback(t *testing.T) {
	a := newTestAllocator(t, Snapshot{
		Staff:     []StaffMember{staff("s1", "A")},
		DutyTypes: []DutyType{{Name: "Guard", Hours: 24}},
	})

	outcome, err := a.ReplaceAbsences(NewSession("s", nil), gridOf("Guard", date(2024, 3, 1), "s1", "О"))
	require.NoError(t, err)

	require.Len(t, outcome.History, 1)
	assert.Equal(t, "s1", outcome.History[0].Substitute)
	assert.Equal(t, FallbackRelaxedRest, outcome.History[0].Fallback)
}

func TestReplaceAbsences_Summary(t *testing.T) {
	a := newTestAllocator(t, replacementSnapshot())

	outcome, err := a.ReplaceAbsences(NewSession("s", nil), gridOf("Gate", date(2024, 3, 1), "s1", "s2", "s1"))
	require.NoError(t, err)

	require.Len(t, outcome.Summary, 3)
	assert.Equal(t, HoursSummary{StaffID: "s1", Rank: "Sergeant", Name: "Member s1", Unit: "A", Duties: 2, Hours: 16}, outcome.Summary[0])
	assert.Equal(t, 8.0, outcome.Summary[1].Hours)
	assert.Equal(t, 0, outcome.Summary[2].Duties)
}

func TestAudit_ReportsWithoutChanging(t *testing.T) {
	a := newTestAllocator(t, replacementSnapshot())
	grid := gridOf("Gate", date(2024, 3, 1), "s1", "Б", "ghost")

	violations, err := a.Audit(NewSession("s", nil), grid)
	require.NoError(t, err)

	require.Len(t, violations, 2)
	assert.Equal(t, ReasonAbsence, violations[0].Reason)
	assert.Equal(t, date(2024, 3, 2), violations[0].Date)
	assert.Equal(t, ReasonIneligible, violations[1].Reason)
	assert.Equal(t, "ghost", violations[1].Occupant)
	assert.Equal(t, "Б", grid.Rows[1].Cells[0])
}
