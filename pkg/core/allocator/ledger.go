package allocator

// LedgerEntry is one member's balance
type LedgerEntry struct {
	StaffID string
	Balance float64
}

// HourLedger tracks each member's running hour balance for one session.
// Negative balances mean the member is behind their allotment.
type HourLedger struct {
	balances map[string]float64
	order    []string
}

// NewHourLedger creates an empty ledger
func NewHourLedger() *HourLedger {
	return &HourLedger{balances: make(map[string]float64)}
}

// SeedLedger creates a ledger with balance = carry-over - base hours for every member
func SeedLedger(staff []StaffMember, carryOver map[string]float64) *HourLedger {
	ledger := NewHourLedger()
	for _, s := range staff {
		ledger.Seed(s.ID, carryOver[s.ID], s.BaseHours)
	}
	return ledger
}

// Seed sets a member's opening balance
func (l *HourLedger) Seed(staffID string, carryOver, baseHours float64) {
	l.touch(staffID)
	l.balances[staffID] = carryOver - baseHours
}

// Credit adds worked hours to a member's balance
func (l *HourLedger) Credit(staffID string, hours float64) {
	l.touch(staffID)
	l.balances[staffID] += hours
}

// Balance returns a member's current balance (zero if never seen)
func (l *HourLedger) Balance(staffID string) float64 {
	return l.balances[staffID]
}

// Lowest returns the candidate with the lowest balance.
// Ties go to the candidate that appears first in ids.
func (l *HourLedger) Lowest(ids []string) (string, bool) {
	if len(ids) == 0 {
		return "", false
	}

	best := ids[0]
	bestBalance := l.Balance(best)
	for _, id := range ids[1:] {
		if b := l.Balance(id); b < bestBalance {
			best, bestBalance = id, b
		}
	}
	return best, true
}

// Entries returns all balances in first-seen order
func (l *HourLedger) Entries() []LedgerEntry {
	entries := make([]LedgerEntry, len(l.order))
	for i, id := range l.order {
		entries[i] = LedgerEntry{StaffID: id, Balance: l.balances[id]}
	}
	return entries
}

func (l *HourLedger) touch(staffID string) {
	if _, ok := l.balances[staffID]; !ok {
		l.balances[staffID] = 0
		l.order = append(l.order, staffID)
	}
}
