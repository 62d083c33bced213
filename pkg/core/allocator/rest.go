package allocator

import "time"

const (
	// ReturnWindowDays is how many days after leave a member is kept off the roster
	ReturnWindowDays = 2

	// LongShiftHours marks a duty that needs a multi-day recovery
	LongShiftHours = 24.0
	// LongShiftRestDays is the minimum gap after a long shift
	LongShiftRestDays = 4

	// HalfShiftHours marks a duty that needs recovery when served on consecutive days
	HalfShiftHours = 12.0
	// HalfShiftRestDays is the minimum gap after two consecutive half shifts
	HalfShiftRestDays = 2
)

// CanServeToday applies the rest rules to a member's chronological duty history.
// A member fails if any of these hold:
//  1. they were on leave, or in its buffer day, on either of the two preceding days
//  2. their last duty was at least LongShiftHours and fewer than LongShiftRestDays have passed
//  3. their last two duties were HalfShiftHours each on consecutive days and fewer than
//     HalfShiftRestDays have passed since the second
func (c *Constraints) CanServeToday(member *StaffMember, date time.Time, history []DutyRecord) bool {
	date = Day(date)

	for back := 1; back <= ReturnWindowDays; back++ {
		if c.OnLeave(member.ID, date.AddDate(0, 0, -back)) {
			return false
		}
	}

	if len(history) == 0 {
		return true
	}

	last := history[len(history)-1]
	sinceLast := DaysBetween(last.Date, date)

	if last.Hours >= LongShiftHours && sinceLast < LongShiftRestDays {
		return false
	}

	if len(history) >= 2 {
		prev := history[len(history)-2]
		if last.Hours == HalfShiftHours && prev.Hours == HalfShiftHours &&
			DaysBetween(prev.Date, last.Date) == 1 && sinceLast < HalfShiftRestDays {
			return false
		}
	}

	return true
}

// RespectsCadence reports whether enough days have passed since the member's last
// duty to serve dutyType again. Officers only need a single day.
func (c *Constraints) RespectsCadence(member *StaffMember, date time.Time, dutyType DutyType, history []DutyRecord) bool {
	if len(history) == 0 {
		return true
	}

	interval := dutyType.MinInterval()
	if c.ranks.IsOfficer(member.Rank) {
		interval = 1
	}

	last := history[len(history)-1]
	return DaysBetween(last.Date, date) >= interval
}
