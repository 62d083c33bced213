package allocator

import (
	"sort"
	"time"
)

// LeaveBufferDays is the number of days after a leave range during which the
// returning member is still not assignable
const LeaveBufferDays = 1

// Constraints evaluates eligibility and rest rules. It holds only immutable
// indexes, so it is safe for concurrent use once built.
type Constraints struct {
	leaveByStaff map[string][]LeaveRange
	ranks        RankPolicy
}

// NewConstraints indexes leave ranges by member
func NewConstraints(leave []LeaveRange, ranks RankPolicy) *Constraints {
	byStaff := make(map[string][]LeaveRange)
	for _, l := range leave {
		l.Start, l.End = Day(l.Start), Day(l.End)
		byStaff[l.StaffID] = append(byStaff[l.StaffID], l)
	}
	for _, ranges := range byStaff {
		sort.SliceStable(ranges, func(i, j int) bool {
			return ranges[i].Start.Before(ranges[j].Start)
		})
	}

	return &Constraints{leaveByStaff: byStaff, ranks: ranks}
}

// Ranks returns the rank policy in use
func (c *Constraints) Ranks() RankPolicy {
	return c.ranks
}

// IsActive reports whether the member is employed on date.
// The termination date itself is not a working day.
func (c *Constraints) IsActive(member *StaffMember, date time.Time) bool {
	date = Day(date)
	if !member.Hired.IsZero() && date.Before(Day(member.Hired)) {
		return false
	}
	if !member.Fired.IsZero() && !date.Before(Day(member.Fired)) {
		return false
	}
	return true
}

// OnLeave reports whether date falls inside one of the member's leave ranges
// or inside the buffer day that follows one
func (c *Constraints) OnLeave(staffID string, date time.Time) bool {
	_, ok := c.leaveCovering(staffID, date, LeaveBufferDays)
	return ok
}

// LeaveOn returns the leave range covering date, excluding the buffer
func (c *Constraints) LeaveOn(staffID string, date time.Time) (LeaveRange, bool) {
	return c.leaveCovering(staffID, date, 0)
}

// LeaveDays counts the distinct days in [from, to] covered by the member's leave.
// The return buffer is not counted.
func (c *Constraints) LeaveDays(staffID string, from, to time.Time) int {
	count := 0
	for _, d := range DateRange(from, to) {
		if _, ok := c.leaveCovering(staffID, d, 0); ok {
			count++
		}
	}
	return count
}

// IsEligible reports whether the member may work post on date
func (c *Constraints) IsEligible(member *StaffMember, date time.Time, post string) bool {
	if !c.IsActive(member, date) {
		return false
	}
	if c.OnLeave(member.ID, date) {
		return false
	}
	if c.ranks.IsPrivileged(post) && !c.ranks.IsOfficer(member.Rank) {
		return false
	}
	return true
}

func (c *Constraints) leaveCovering(staffID string, date time.Time, buffer int) (LeaveRange, bool) {
	date = Day(date)
	for _, l := range c.leaveByStaff[staffID] {
		if date.Before(l.Start) {
			// Ranges are sorted by start
			break
		}
		if !date.After(l.End.AddDate(0, 0, buffer)) {
			return l, true
		}
	}
	return LeaveRange{}, false
}
