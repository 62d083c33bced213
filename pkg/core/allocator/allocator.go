package allocator

import (
	"fmt"
	"strings"
	"time"
)

// Allocator builds, repairs and reconciles rosters over one snapshot of reference data
type Allocator struct {
	snapshot    Snapshot
	constraints *Constraints

	staffByID     map[string]*StaffMember
	units         []string
	membersByUnit map[string][]*StaffMember
	dutyByName    map[string]DutyType
	absenceCodes  map[string]LeaveCategory
}

// NewAllocator validates the snapshot and builds the lookup indexes
func NewAllocator(snapshot Snapshot) (*Allocator, error) {
	if err := validateSnapshot(snapshot); err != nil {
		return nil, err
	}

	snapshot.Staff = append([]StaffMember(nil), snapshot.Staff...)

	a := &Allocator{
		snapshot:      snapshot,
		constraints:   NewConstraints(snapshot.Leave, snapshot.Ranks),
		staffByID:     make(map[string]*StaffMember, len(snapshot.Staff)),
		membersByUnit: make(map[string][]*StaffMember),
		dutyByName:    make(map[string]DutyType, len(snapshot.DutyTypes)),
		absenceCodes:  snapshot.AbsenceCodes,
	}
	if a.absenceCodes == nil {
		a.absenceCodes = DefaultAbsenceCodes
	}

	// Staff order decides unit order and every tie-break
	for i := range snapshot.Staff {
		member := &a.snapshot.Staff[i]
		member.Hired, member.Fired = dayOrZero(member.Hired), dayOrZero(member.Fired)
		a.staffByID[member.ID] = member
		if _, seen := a.membersByUnit[member.Unit]; !seen {
			a.units = append(a.units, member.Unit)
		}
		a.membersByUnit[member.Unit] = append(a.membersByUnit[member.Unit], member)
	}

	for _, dt := range snapshot.DutyTypes {
		a.dutyByName[dt.Name] = dt
	}

	return a, nil
}

// Constraints returns the eligibility and rest rules in use
func (a *Allocator) Constraints() *Constraints {
	return a.constraints
}

// Staff returns the members in input order
func (a *Allocator) Staff() []StaffMember {
	return a.snapshot.Staff
}

// Units returns the unit names in first-appearance order
func (a *Allocator) Units() []string {
	return a.units
}

// Member looks up a member by ID
func (a *Allocator) Member(id string) (*StaffMember, bool) {
	m, ok := a.staffByID[strings.TrimSpace(id)]
	return m, ok
}

// DutyHours returns the hours credited for post. Unknown posts credit nothing.
func (a *Allocator) DutyHours(post string) float64 {
	return a.dutyByName[post].Hours
}

// dutyType returns the definition of post, falling back to a zero-hour type
func (a *Allocator) dutyType(post string) DutyType {
	if dt, ok := a.dutyByName[post]; ok {
		return dt
	}
	return DutyType{Name: post}
}

// permits reports whether unit may cover post
func (a *Allocator) permits(unit, post string) bool {
	if a.snapshot.Permissions == nil {
		return true
	}
	for _, p := range a.snapshot.Permissions[unit] {
		if p == post {
			return true
		}
	}
	return false
}

// absenceCode returns the leave category for a placeholder cell value
func (a *Allocator) absenceCode(value string) (LeaveCategory, bool) {
	cat, ok := a.absenceCodes[strings.TrimSpace(value)]
	return cat, ok
}

func validateSnapshot(snapshot Snapshot) error {
	seen := make(map[string]bool, len(snapshot.Staff))
	for i, s := range snapshot.Staff {
		if strings.TrimSpace(s.ID) == "" {
			return fmt.Errorf("%w: staff[%d] (%s) has no ID", ErrInvalidInput, i, s.DisplayName())
		}
		if seen[s.ID] {
			return fmt.Errorf("%w: duplicate staff ID %q", ErrInvalidInput, s.ID)
		}
		seen[s.ID] = true

		if !s.Hired.IsZero() && !s.Fired.IsZero() && Day(s.Fired).Before(Day(s.Hired)) {
			return fmt.Errorf("%w: staff %q fired before hired", ErrInvalidInput, s.ID)
		}
	}

	for i, l := range snapshot.Leave {
		if Day(l.End).Before(Day(l.Start)) {
			return fmt.Errorf("%w: leave[%d] for %q ends before it starts", ErrInvalidInput, i, l.StaffID)
		}
	}

	posts := make(map[string]bool, len(snapshot.DutyTypes))
	for _, dt := range snapshot.DutyTypes {
		if strings.TrimSpace(dt.Name) == "" {
			return fmt.Errorf("%w: duty type with empty name", ErrInvalidInput)
		}
		if posts[dt.Name] {
			return fmt.Errorf("%w: duplicate duty type %q", ErrInvalidInput, dt.Name)
		}
		if dt.Hours < 0 {
			return fmt.Errorf("%w: duty type %q has negative hours", ErrInvalidInput, dt.Name)
		}
		posts[dt.Name] = true
	}

	return nil
}

func dayOrZero(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return Day(t)
}
