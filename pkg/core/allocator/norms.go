package allocator

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultMonthlyNorm is the expected hours for a full month
const DefaultMonthlyNorm = 160.0

// MonthlyNorms holds the expected hours per month
type MonthlyNorms struct {
	Default float64
	ByMonth map[MonthKey]float64
}

// NormFor returns the norm for month, falling back to the default
func (n MonthlyNorms) NormFor(month MonthKey) float64 {
	if v, ok := n.ByMonth[month]; ok {
		return v
	}
	if n.Default > 0 {
		return n.Default
	}
	return DefaultMonthlyNorm
}

// MonthlyNormRecord is a member's worked hours against the prorated norm for one month
type MonthlyNormRecord struct {
	StaffID string
	Month   MonthKey

	// Applicable is false for months entirely outside the member's employment
	Applicable bool

	Norm       float64
	ActiveDays int
	LeaveDays  int
	Worked     float64
	Expected   float64
	Delta      float64
}

// ReconciliationOutcome is the result of reconciling a finished roster
type ReconciliationOutcome struct {
	Records []MonthlyNormRecord

	// Totals is the sum of applicable deltas per member
	Totals map[string]float64

	// Session carries Totals into the next scheduling run
	Session *Session
}

// Reconcile computes worked hours against the prorated monthly norm for every
// member and every month in the roster. The expected quota is
// round(norm * (active days - leave days) / days in month) and the delta is
// round(worked - expected), with halves rounded up.
func (a *Allocator) Reconcile(session *Session, grid *RosterGrid, norms MonthlyNorms) (*ReconciliationOutcome, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}

	worked := a.workedHours(grid)
	months := grid.Months()

	outcome := &ReconciliationOutcome{Totals: make(map[string]float64, len(a.snapshot.Staff))}
	for i := range a.snapshot.Staff {
		member := &a.snapshot.Staff[i]
		total := decimal.Zero

		for _, month := range months {
			rec := a.reconcileMonth(member, month, norms.NormFor(month), worked[member.ID][month])
			outcome.Records = append(outcome.Records, rec)
			if rec.Applicable {
				total = total.Add(decimal.NewFromFloat(rec.Delta))
			}
		}

		outcome.Totals[member.ID] = total.InexactFloat64()
	}

	id := ""
	if session != nil {
		id = session.ID
	}
	outcome.Session = NewSession(id, outcome.Totals)

	return outcome, nil
}

func (a *Allocator) reconcileMonth(member *StaffMember, month MonthKey, norm, worked float64) MonthlyNormRecord {
	rec := MonthlyNormRecord{StaffID: member.ID, Month: month, Norm: norm, Worked: worked}

	first, last := month.First(), month.Last()
	if !member.Hired.IsZero() && last.Before(member.Hired) {
		return rec
	}
	if !member.Fired.IsZero() && !first.Before(member.Fired) {
		return rec
	}

	windowStart, windowEnd := first, last
	if !member.Hired.IsZero() {
		windowStart = maxDate(windowStart, member.Hired)
	}
	if !member.Fired.IsZero() {
		windowEnd = minDate(windowEnd, member.Fired.AddDate(0, 0, -1))
	}
	// Hired and fired on the same day leaves no active day
	if windowEnd.Before(windowStart) {
		return rec
	}
	rec.Applicable = true

	rec.ActiveDays = max(0, DaysBetween(windowStart, windowEnd)+1)
	rec.LeaveDays = a.constraints.LeaveDays(member.ID, windowStart, windowEnd)
	workingDays := max(0, rec.ActiveDays-rec.LeaveDays)

	expected := roundHalfUp(decimal.NewFromFloat(norm).
		Mul(decimal.NewFromInt(int64(workingDays))).
		Div(decimal.NewFromInt(int64(month.Days()))))
	delta := roundHalfUp(decimal.NewFromFloat(worked).Sub(expected))

	rec.Expected = expected.InexactFloat64()
	rec.Delta = delta.InexactFloat64()
	return rec
}

// roundHalfUp rounds to the nearest whole hour with halves going up, so -0.5 becomes 0
func roundHalfUp(d decimal.Decimal) decimal.Decimal {
	return d.Add(decimal.New(5, -1)).Floor()
}

// workedHours sums credited hours per member per month, counting only days the
// member was employed
func (a *Allocator) workedHours(grid *RosterGrid) map[string]map[MonthKey]float64 {
	worked := make(map[string]map[MonthKey]float64)
	for _, row := range grid.Rows {
		month := MonthOf(row.Date)
		for c, post := range grid.Posts {
			member, ok := a.Member(strings.TrimSpace(row.Cells[c]))
			if !ok || !a.constraints.IsActive(member, row.Date) {
				continue
			}
			if worked[member.ID] == nil {
				worked[member.ID] = make(map[MonthKey]float64)
			}
			worked[member.ID][month] += a.DutyHours(post)
		}
	}
	return worked
}
