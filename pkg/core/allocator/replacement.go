package allocator

import (
	"fmt"
	"strings"
	"time"
)

// ReplacementReason explains why an occupant was replaced
type ReplacementReason string

const (
	ReasonUnfilled     ReplacementReason = "unfilled"
	ReasonAbsence      ReplacementReason = "absence"
	ReasonLeave        ReplacementReason = "leave"
	ReasonIneligible   ReplacementReason = "ineligible"
	ReasonDuplicate    ReplacementReason = "duplicate"
	ReasonHoliday      ReplacementReason = "holiday"
	ReasonRestInterval ReplacementReason = "rest_interval"
)

// FallbackLevel records how far the substitute search had to relax
type FallbackLevel string

const (
	FallbackStrict      FallbackLevel = "strict"
	FallbackRelaxedRest FallbackLevel = "relaxed_rest"
	FallbackAnyActive   FallbackLevel = "any_active"
	FallbackLeastRecent FallbackLevel = "least_recent"
	FallbackNone        FallbackLevel = "none"
)

// ReplacementHistoryEntry is one substitution
type ReplacementHistoryEntry struct {
	Date time.Time
	Post string

	// Original is the replaced cell value (staff ID, absence code or EmptyMarker)
	Original string

	// Substitute is the new staff ID, or EmptyMarker when nobody could be found
	Substitute string

	Reason   ReplacementReason
	Detail   string
	Fallback FallbackLevel
}

// SlotViolation is an invalid occupant found by Audit
type SlotViolation struct {
	Slot
	Occupant string
	Reason   ReplacementReason
	Detail   string
}

func (v SlotViolation) Error() string {
	if v.Detail == "" {
		return fmt.Sprintf("%s: %s (%s)", v.Slot, v.Occupant, v.Reason)
	}
	return fmt.Sprintf("%s: %s (%s: %s)", v.Slot, v.Occupant, v.Reason, v.Detail)
}

// HoursSummary is a member's workload in a roster
type HoursSummary struct {
	StaffID string
	Rank    string
	Name    string
	Unit    string
	Duties  int
	Hours   float64
}

// ReplacementOutcome is the result of a replacement pass
type ReplacementOutcome struct {
	Grid    *RosterGrid
	History []ReplacementHistoryEntry
	Summary []HoursSummary
	Ledger  *HourLedger
}

// ReplaceAbsences walks the roster in date order and substitutes every invalid
// occupant. Valid occupants are kept. A substitute is never someone already
// serving that day, nor on a holiday someone already used for that holiday.
// A holiday slot keeps its occupant only if they are the least loaded strict
// candidate, so a repaired roster passes through unchanged.
func (a *Allocator) ReplaceAbsences(session *Session, grid *RosterGrid) (*ReplacementOutcome, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}

	out := grid.Clone()
	walk := a.newRosterWalk(session)
	outcome := &ReplacementOutcome{Grid: out, Ledger: walk.ledger}

	for r := range out.Rows {
		row := &out.Rows[r]
		walk.startDay()

		for c, post := range out.Posts {
			occupant := strings.TrimSpace(row.Cells[c])
			reason, detail, invalid := walk.classify(row.Date, post, occupant)
			if !invalid {
				walk.record(occupant, row.Date, post)
				continue
			}

			substitute, level := walk.substitute(row.Date, post, occupant)
			entry := ReplacementHistoryEntry{
				Date:       row.Date,
				Post:       post,
				Original:   row.Cells[c],
				Substitute: EmptyMarker,
				Reason:     reason,
				Detail:     detail,
				Fallback:   level,
			}
			if substitute != "" {
				entry.Substitute = substitute
				walk.record(substitute, row.Date, post)
			}
			row.Cells[c] = entry.Substitute
			outcome.History = append(outcome.History, entry)
		}
	}

	outcome.Summary = a.Summarize(out)
	return outcome, nil
}

// Audit reports every invalid occupant without changing the roster
func (a *Allocator) Audit(session *Session, grid *RosterGrid) ([]SlotViolation, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}

	walk := a.newRosterWalk(session)
	var violations []SlotViolation

	for _, row := range grid.Rows {
		walk.startDay()
		for c, post := range grid.Posts {
			occupant := strings.TrimSpace(row.Cells[c])
			if reason, detail, invalid := walk.classify(row.Date, post, occupant); invalid {
				violations = append(violations, SlotViolation{
					Slot:     Slot{Date: row.Date, Post: post},
					Occupant: occupant,
					Reason:   reason,
					Detail:   detail,
				})
			}
			// The occupant still serves, so later checks must see the duty
			walk.record(occupant, row.Date, post)
		}
	}

	return violations, nil
}

// Summarize totals duties and hours per member in staff order
func (a *Allocator) Summarize(grid *RosterGrid) []HoursSummary {
	index := make(map[string]int, len(a.snapshot.Staff))
	summary := make([]HoursSummary, len(a.snapshot.Staff))
	for i, s := range a.snapshot.Staff {
		index[s.ID] = i
		summary[i] = HoursSummary{StaffID: s.ID, Rank: s.Rank, Name: s.Name, Unit: s.Unit}
	}

	for _, row := range grid.Rows {
		for c, post := range grid.Posts {
			i, ok := index[strings.TrimSpace(row.Cells[c])]
			if !ok {
				continue
			}
			summary[i].Duties++
			summary[i].Hours += a.DutyHours(post)
		}
	}

	return summary
}

// rosterWalk is the chronological state shared by replacement and audit
type rosterWalk struct {
	a           *Allocator
	ledger      *HourLedger
	history     map[string][]DutyRecord
	lastUsed    map[string]time.Time
	holidayUsed map[HolidayKey]map[string]bool
	serving     map[string]bool
}

func (a *Allocator) newRosterWalk(session *Session) *rosterWalk {
	return &rosterWalk{
		a:           a,
		ledger:      SeedLedger(a.snapshot.Staff, session.carryOver()),
		history:     make(map[string][]DutyRecord),
		lastUsed:    make(map[string]time.Time),
		holidayUsed: make(map[HolidayKey]map[string]bool),
	}
}

func (w *rosterWalk) startDay() {
	w.serving = make(map[string]bool)
}

// classify decides whether occupant may keep the slot
func (w *rosterWalk) classify(date time.Time, post, occupant string) (ReplacementReason, string, bool) {
	if IsEmptyCell(occupant) {
		return ReasonUnfilled, "", true
	}
	if cat, ok := w.a.absenceCode(occupant); ok {
		return ReasonAbsence, string(cat), true
	}

	member, ok := w.a.Member(occupant)
	if !ok {
		return ReasonIneligible, "unknown staff member", true
	}

	c := w.a.constraints
	if c.OnLeave(member.ID, date) {
		if l, ok := c.LeaveOn(member.ID, date); ok {
			return ReasonLeave, string(l.Category), true
		}
		return ReasonLeave, "return buffer", true
	}
	if !c.IsActive(member, date) {
		return ReasonIneligible, "not employed on this date", true
	}
	if !c.IsEligible(member, date, post) {
		return ReasonIneligible, "rank below officer threshold", true
	}
	if w.serving[member.ID] {
		return ReasonDuplicate, "already serving this date", true
	}
	if !c.CanServeToday(member, date, w.history[member.ID]) ||
		!c.RespectsCadence(member, date, w.a.dutyType(post), w.history[member.ID]) {
		return ReasonRestInterval, "", true
	}

	if w.a.snapshot.Holidays.Contains(date) {
		key := HolidayKeyOf(date)
		if w.holidayUsed[key][member.ID] {
			return ReasonHoliday, "already served " + key.String(), true
		}
		// Holiday slots rotate to the least loaded strict candidate
		if pick := w.strictPick(w.pool(date, ""), date, post); pick != member.ID {
			return ReasonHoliday, "rotated to " + pick, true
		}
	}

	return "", "", false
}

// record books a duty for a known member. Other values are ignored.
func (w *rosterWalk) record(occupant string, date time.Time, post string) {
	member, ok := w.a.Member(occupant)
	if !ok {
		return
	}

	hours := w.a.DutyHours(post)
	w.ledger.Credit(member.ID, hours)
	w.history[member.ID] = append(w.history[member.ID], DutyRecord{Date: date, Post: post, Hours: hours})
	w.lastUsed[member.ID] = date
	w.serving[member.ID] = true

	if w.a.snapshot.Holidays.Contains(date) {
		key := HolidayKeyOf(date)
		if w.holidayUsed[key] == nil {
			w.holidayUsed[key] = make(map[string]bool)
		}
		w.holidayUsed[key][member.ID] = true
	}
}

// substitute finds a replacement for a slot, relaxing step by step
func (w *rosterWalk) substitute(date time.Time, post, exclude string) (string, FallbackLevel) {
	c := w.a.constraints
	pool := w.pool(date, exclude)

	stages := []struct {
		level  FallbackLevel
		accept func(m *StaffMember) bool
	}{
		{FallbackStrict, func(m *StaffMember) bool {
			return w.strict(m, date, post)
		}},
		{FallbackRelaxedRest, func(m *StaffMember) bool {
			return c.IsEligible(m, date, post)
		}},
		{FallbackAnyActive, func(m *StaffMember) bool {
			return c.IsActive(m, date)
		}},
	}

	for _, stage := range stages {
		var ids []string
		for _, m := range pool {
			if stage.accept(m) {
				ids = append(ids, m.ID)
			}
		}
		if id, ok := w.ledger.Lowest(ids); ok {
			return id, stage.level
		}
	}

	if id, ok := w.leastRecent(pool); ok {
		return id, FallbackLeastRecent
	}

	// Everyone is excluded for the day, so fall back to the whole staff
	var everyone []*StaffMember
	for i := range w.a.snapshot.Staff {
		if w.a.snapshot.Staff[i].ID != exclude {
			everyone = append(everyone, &w.a.snapshot.Staff[i])
		}
	}
	if id, ok := w.leastRecent(everyone); ok {
		return id, FallbackLeastRecent
	}

	return "", FallbackNone
}

// pool lists the members who may take a slot on date: not excluded, not already
// serving that day and, on a holiday, not yet used for it
func (w *rosterWalk) pool(date time.Time, exclude string) []*StaffMember {
	holiday := w.a.snapshot.Holidays.Contains(date)
	usedOnHoliday := w.holidayUsed[HolidayKeyOf(date)]

	var pool []*StaffMember
	for i := range w.a.snapshot.Staff {
		m := &w.a.snapshot.Staff[i]
		if m.ID == exclude || w.serving[m.ID] || (holiday && usedOnHoliday[m.ID]) {
			continue
		}
		pool = append(pool, m)
	}
	return pool
}

// strict reports whether m passes eligibility and both rest checks for the slot
func (w *rosterWalk) strict(m *StaffMember, date time.Time, post string) bool {
	c := w.a.constraints
	return c.IsEligible(m, date, post) &&
		c.CanServeToday(m, date, w.history[m.ID]) &&
		c.RespectsCadence(m, date, w.a.dutyType(post), w.history[m.ID])
}

// strictPick returns the lowest balance strict candidate in pool, or "" if there is none
func (w *rosterWalk) strictPick(pool []*StaffMember, date time.Time, post string) string {
	var ids []string
	for _, m := range pool {
		if w.strict(m, date, post) {
			ids = append(ids, m.ID)
		}
	}
	id, _ := w.ledger.Lowest(ids)
	return id
}

// leastRecent returns the member whose last duty is oldest. Members who have not
// served yet come first, in staff order.
func (w *rosterWalk) leastRecent(pool []*StaffMember) (string, bool) {
	if len(pool) == 0 {
		return "", false
	}

	best := pool[0]
	bestLast, bestUsed := w.lastUsed[best.ID]
	for _, m := range pool[1:] {
		last, used := w.lastUsed[m.ID]
		switch {
		case !bestUsed:
			return best.ID, true
		case !used:
			best, bestLast, bestUsed = m, last, used
		case last.Before(bestLast):
			best, bestLast = m, last
		}
	}
	return best.ID, true
}
