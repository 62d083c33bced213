package allocator

import (
	"maps"
	"strings"
	"time"
)

// EmptyMarker is written into slots that could not be filled
const EmptyMarker = "—"

// DefaultBaseHours is the hourly allotment assumed when a staff record carries none
const DefaultBaseHours = 160.0

// LeaveCategory describes why a member is away. All categories block assignment identically.
type LeaveCategory string

const (
	LeaveVacation LeaveCategory = "vacation"
	LeaveSick     LeaveCategory = "sick_leave"
	LeaveDayOff   LeaveCategory = "day_off"
)

// Valid reports whether c is one of the known leave categories
func (c LeaveCategory) Valid() bool {
	switch c {
	case LeaveVacation, LeaveSick, LeaveDayOff:
		return true
	}
	return false
}

// DefaultAbsenceCodes are the placeholder cell values that mark an absent occupant
var DefaultAbsenceCodes = map[string]LeaveCategory{
	"Б": LeaveSick,
	"О": LeaveVacation,
}

// StaffMember represents a person who can be rostered
type StaffMember struct {
	// ID is the stable identity used in grids, ledgers and history
	ID string

	// Rank is a label on the configured rank scale
	Rank string

	Name string

	// Unit is the organisational unit the member belongs to
	Unit string

	// BaseHours is subtracted from the ledger once per session
	BaseHours float64

	// Hired is the first working day (zero means always active from the start)
	Hired time.Time

	// Fired is the termination date, which is itself not a working day (zero means never)
	Fired time.Time
}

// DisplayName renders the member as "rank name"
func (s StaffMember) DisplayName() string {
	return strings.TrimSpace(s.Rank + " " + s.Name)
}

// DutyType defines a post that is filled once per day
type DutyType struct {
	// Name is the post name and the grid column key
	Name string

	// Hours credited to the ledger per assignment
	Hours float64

	// Cycle is the rest cadence. Only the first value is used, as the minimum
	// number of days before the same person may serve again.
	Cycle []int
}

// MinInterval returns the minimum number of days between duties for this post
func (d DutyType) MinInterval() int {
	if len(d.Cycle) > 0 && d.Cycle[0] > 0 {
		return d.Cycle[0]
	}
	return 1
}

// LeaveRange is an inclusive period of absence
type LeaveRange struct {
	StaffID  string
	Start    time.Time
	End      time.Time
	Category LeaveCategory
}

// Contains reports whether date is inside the range
func (l LeaveRange) Contains(date time.Time) bool {
	date = Day(date)
	return !date.Before(Day(l.Start)) && !date.After(Day(l.End))
}

// DutyRecord is one past assignment in a member's rest history
type DutyRecord struct {
	Date  time.Time
	Post  string
	Hours float64
}

// Session carries state from one scheduling run into the next
type Session struct {
	ID string

	// CarryOver holds each member's net hour surplus or deficit from the previous session
	CarryOver map[string]float64
}

// NewSession creates a session with a private copy of the carry-over balances
func NewSession(id string, carryOver map[string]float64) *Session {
	co := make(map[string]float64, len(carryOver))
	maps.Copy(co, carryOver)
	return &Session{ID: id, CarryOver: co}
}

// CarryOverFor returns the carry-over balance of a member (zero if unknown)
func (s *Session) CarryOverFor(staffID string) float64 {
	if s == nil {
		return 0
	}
	return s.CarryOver[staffID]
}

func (s *Session) carryOver() map[string]float64 {
	if s == nil {
		return nil
	}
	return s.CarryOver
}

// Snapshot is the immutable reference data for one engine invocation
type Snapshot struct {
	// Staff in input order, which is also the tie-break order everywhere
	Staff []StaffMember

	// DutyTypes in post (column) order
	DutyTypes []DutyType

	Leave []LeaveRange

	Holidays HolidaySet

	// Permissions maps unit -> posts the unit may cover. A nil map permits everything.
	Permissions map[string][]string

	Ranks RankPolicy

	// AbsenceCodes maps placeholder cell values to the leave they stand for.
	// Nil means DefaultAbsenceCodes.
	AbsenceCodes map[string]LeaveCategory
}

// Posts returns the post names in column order
func (s Snapshot) Posts() []string {
	posts := make([]string, len(s.DutyTypes))
	for i, dt := range s.DutyTypes {
		posts[i] = dt.Name
	}
	return posts
}
