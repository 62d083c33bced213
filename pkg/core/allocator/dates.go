package allocator

import (
	"fmt"
	"time"
)

// DateLayout is the ISO layout used for civil dates in logs and storage
const DateLayout = "2006-01-02"

// Day truncates t to midnight UTC of its calendar date
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole calendar days from `from` to `to`.
// The result is negative when `to` is before `from`.
func DaysBetween(from, to time.Time) int {
	return int(Day(to).Sub(Day(from)).Hours() / 24)
}

// DateRange returns every calendar date from start to end inclusive
func DateRange(start, end time.Time) []time.Time {
	start, end = Day(start), Day(end)
	if end.Before(start) {
		return nil
	}

	dates := make([]time.Time, 0, DaysBetween(start, end)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

// DaysInMonth returns the number of days in the given month
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthKey identifies a calendar month
type MonthKey struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month containing t
func MonthOf(t time.Time) MonthKey {
	return MonthKey{Year: t.Year(), Month: t.Month()}
}

// ParseMonthKey parses a "YYYY-MM" month key
func ParseMonthKey(s string) (MonthKey, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return MonthKey{}, fmt.Errorf("invalid month key %q (expected YYYY-MM): %w", s, err)
	}
	return MonthOf(t), nil
}

// First returns the first day of the month
func (k MonthKey) First() time.Time {
	return time.Date(k.Year, k.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Last returns the last day of the month
func (k MonthKey) Last() time.Time {
	return time.Date(k.Year, k.Month, k.Days(), 0, 0, 0, 0, time.UTC)
}

// Days returns the number of days in the month
func (k MonthKey) Days() int {
	return DaysInMonth(k.Year, k.Month)
}

// Before reports whether k is an earlier month than other
func (k MonthKey) Before(other MonthKey) bool {
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	return k.Month < other.Month
}

// String renders the key as the first day of the month, e.g. "01.03.2024"
func (k MonthKey) String() string {
	return fmt.Sprintf("01.%02d.%04d", int(k.Month), k.Year)
}

// ConfigKey renders the key in the "YYYY-MM" form used by configuration
func (k MonthKey) ConfigKey() string {
	return fmt.Sprintf("%04d-%02d", k.Year, int(k.Month))
}

func maxDate(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minDate(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
