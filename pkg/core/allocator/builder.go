package allocator

import (
	"fmt"
	"time"
)

// UnfilledSlot is a slot left at EmptyMarker, with the reason
type UnfilledSlot struct {
	Slot
	Reason string
}

// UnitRosterOutcome is the result of the unit layer
type UnitRosterOutcome struct {
	// Grid holds unit names
	Grid *RosterGrid

	// Allocations are the static targets the greedy pass approximates
	Allocations []UnitAllocationRecord

	// Realized counts the slots each unit actually received
	Realized map[string]int

	Unfilled []UnfilledSlot
}

// AssignmentOutcome is the result of the person layer
type AssignmentOutcome struct {
	// Grid holds staff IDs
	Grid *RosterGrid

	Ledger *HourLedger

	Unfilled []UnfilledSlot

	// Relaxed lists slots filled without the rest rules
	Relaxed []Slot
}

// BuildUnitRoster assigns each (date, post) slot to a unit. For every slot the
// permitted units with an eligible member compete on target share minus actual
// share; the largest deficit wins and ties go to the earlier unit.
func (a *Allocator) BuildUnitRoster(start, end time.Time) (*UnitRosterOutcome, error) {
	start, end = Day(start), Day(end)
	if end.Before(start) {
		return nil, fmt.Errorf("%w: %s is after %s", ErrInvalidRange, start.Format(DateLayout), end.Format(DateLayout))
	}

	posts := a.snapshot.Posts()
	grid := NewRosterGrid(posts, start, end)
	totalSlots := len(grid.Rows) * len(posts)

	// Headcount is taken on the first day of the range
	counts := make([]UnitHeadcount, len(a.units))
	for i, unit := range a.units {
		counts[i] = UnitHeadcount{Unit: unit}
		for _, m := range a.membersByUnit[unit] {
			if a.constraints.IsActive(m, start) {
				counts[i].Count++
			}
		}
	}
	allocations := AllocateUnits(counts, totalSlots)

	targetShare := make(map[string]float64, len(allocations))
	for _, rec := range allocations {
		if totalSlots > 0 {
			targetShare[rec.Unit] = rec.TargetDuties / float64(totalSlots)
		}
	}

	outcome := &UnitRosterOutcome{
		Grid:        grid,
		Allocations: allocations,
		Realized:    make(map[string]int, len(a.units)),
	}
	assigned := 0

	for r := range grid.Rows {
		row := &grid.Rows[r]
		for c, post := range posts {
			best := ""
			bestScore := 0.0
			for _, unit := range a.units {
				if !a.permits(unit, post) || !a.unitHasEligible(unit, row.Date, post) {
					continue
				}
				actualShare := float64(outcome.Realized[unit]) / float64(max(1, assigned))
				score := targetShare[unit] - actualShare
				if best == "" || score > bestScore {
					best, bestScore = unit, score
				}
			}

			if best == "" {
				outcome.Unfilled = append(outcome.Unfilled, UnfilledSlot{
					Slot:   Slot{Date: row.Date, Post: post},
					Reason: "no permitted unit has an eligible member",
				})
				continue
			}

			row.Cells[c] = best
			outcome.Realized[best]++
			assigned++
		}
	}

	return outcome, nil
}

func (a *Allocator) unitHasEligible(unit string, date time.Time, post string) bool {
	for _, m := range a.membersByUnit[unit] {
		if a.constraints.IsEligible(m, date, post) {
			return true
		}
	}
	return false
}

// AssignStaff picks a member of the chosen unit for every slot of a unit grid.
// Candidates must be eligible, rested and not already serving that day. When
// nobody qualifies the rest rules are dropped; when still nobody qualifies the
// slot stays empty. The lowest ledger balance wins.
func (a *Allocator) AssignStaff(session *Session, unitGrid *RosterGrid) (*AssignmentOutcome, error) {
	if err := unitGrid.Validate(); err != nil {
		return nil, err
	}

	grid := unitGrid.Clone()
	ledger := SeedLedger(a.snapshot.Staff, session.carryOver())
	history := make(map[string][]DutyRecord)
	outcome := &AssignmentOutcome{Grid: grid, Ledger: ledger}

	for r := range grid.Rows {
		row := &grid.Rows[r]
		serving := make(map[string]bool)

		for c, post := range grid.Posts {
			slot := Slot{Date: row.Date, Post: post}
			unit := row.Cells[c]
			row.Cells[c] = EmptyMarker

			if IsEmptyCell(unit) {
				outcome.Unfilled = append(outcome.Unfilled, UnfilledSlot{Slot: slot, Reason: "no unit assigned"})
				continue
			}
			members, ok := a.membersByUnit[unit]
			if !ok {
				outcome.Unfilled = append(outcome.Unfilled, UnfilledSlot{Slot: slot, Reason: fmt.Sprintf("unknown unit %q", unit)})
				continue
			}

			var strict, eligible []string
			for _, m := range members {
				if !a.constraints.IsEligible(m, row.Date, post) {
					continue
				}
				eligible = append(eligible, m.ID)
				if !serving[m.ID] && a.constraints.CanServeToday(m, row.Date, history[m.ID]) {
					strict = append(strict, m.ID)
				}
			}

			candidates := strict
			if len(candidates) == 0 && len(eligible) > 0 {
				candidates = eligible
				outcome.Relaxed = append(outcome.Relaxed, slot)
			}

			chosen, ok := ledger.Lowest(candidates)
			if !ok {
				outcome.Unfilled = append(outcome.Unfilled, UnfilledSlot{Slot: slot, Reason: fmt.Sprintf("no eligible member in %s", unit)})
				continue
			}

			hours := a.DutyHours(post)
			row.Cells[c] = chosen
			ledger.Credit(chosen, hours)
			history[chosen] = append(history[chosen], DutyRecord{Date: row.Date, Post: post, Hours: hours})
			serving[chosen] = true
		}
	}

	return outcome, nil
}
