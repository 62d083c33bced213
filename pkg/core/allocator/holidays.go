package allocator

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// HolidayKey is a year-independent day.month date
type HolidayKey struct {
	Day   int
	Month time.Month
}

// HolidayKeyOf returns the key for a calendar date
func HolidayKeyOf(t time.Time) HolidayKey {
	return HolidayKey{Day: t.Day(), Month: t.Month()}
}

// ParseHolidayKey parses a "DD.MM" key. Leading zeros are optional.
func ParseHolidayKey(s string) (HolidayKey, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 2 {
		return HolidayKey{}, fmt.Errorf("invalid holiday key %q (expected DD.MM)", s)
	}

	day, err := strconv.Atoi(parts[0])
	if err != nil {
		return HolidayKey{}, fmt.Errorf("invalid day in holiday key %q: %w", s, err)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return HolidayKey{}, fmt.Errorf("invalid month in holiday key %q: %w", s, err)
	}

	if month < 1 || month > 12 {
		return HolidayKey{}, fmt.Errorf("invalid month in holiday key %q", s)
	}
	// 2024 is a leap year so 29.02 is accepted
	if day < 1 || day > DaysInMonth(2024, time.Month(month)) {
		return HolidayKey{}, fmt.Errorf("invalid day in holiday key %q", s)
	}

	return HolidayKey{Day: day, Month: time.Month(month)}, nil
}

func (k HolidayKey) String() string {
	return fmt.Sprintf("%02d.%02d", k.Day, int(k.Month))
}

// HolidaySet is a set of holiday keys
type HolidaySet map[HolidayKey]struct{}

// NewHolidaySet builds a set from keys
func NewHolidaySet(keys ...HolidayKey) HolidaySet {
	set := make(HolidaySet, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

// Add inserts a key
func (h HolidaySet) Add(k HolidayKey) {
	h[k] = struct{}{}
}

// Merge adds every key of other into h
func (h HolidaySet) Merge(other HolidaySet) {
	for k := range other {
		h[k] = struct{}{}
	}
}

// Contains reports whether the date falls on a holiday
func (h HolidaySet) Contains(date time.Time) bool {
	if h == nil {
		return false
	}
	_, ok := h[HolidayKeyOf(date)]
	return ok
}

// Keys returns the keys ordered by month then day
func (h HolidaySet) Keys() []HolidayKey {
	keys := make([]HolidayKey, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Month != keys[j].Month {
			return keys[i].Month < keys[j].Month
		}
		return keys[i].Day < keys[j].Day
	})
	return keys
}
