package db

// Roster kinds
const (
	RosterKindUnit  = "unit"
	RosterKindStaff = "staff"
)

// Session represents one scheduling run. Dates are stored as "2006-01-02".
type Session struct {
	ID         string
	PreviousID string
	RangeStart string
	RangeEnd   string
	CreatedAt  string
}

// CarryOver is a member's hour balance handed to the next session
type CarryOver struct {
	SessionID string
	StaffID   string
	Hours     float64
}

// Roster represents a stored roster grid header
type Roster struct {
	ID        string
	SessionID string
	Kind      string
	Start     string
	End       string
	Posts     []string
	CreatedAt string
}

// RosterCell represents a single (date, post) cell of a stored roster
type RosterCell struct {
	RosterID  string
	ShiftDate string
	Post      string
	Value     string
}

// Replacement represents one substitution made on a roster
type Replacement struct {
	ID         string
	RosterID   string
	ShiftDate  string
	Post       string
	Original   string
	Substitute string
	Reason     string
	Detail     string
	Fallback   string
}

// MonthlyNorm represents a reconciled month for one member
type MonthlyNorm struct {
	SessionID  string
	StaffID    string
	Month      string
	Applicable bool
	Norm       float64
	Worked     float64
	Expected   float64
	Delta      float64
}
