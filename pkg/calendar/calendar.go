// Package calendar resolves public holidays from config keys, recurrence rules
// and iCalendar files into an allocator.HolidaySet.
package calendar

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"github.com/jakechorley/duty-roster/pkg/core/allocator"
)

// Sources lists every place holidays can be declared
type Sources struct {
	// Keys are "DD.MM" dates that repeat every year
	Keys []string

	// Rules are RRULE strings expanded over the roster range
	Rules []string

	// ICSPath is an optional iCalendar file whose events are holidays
	ICSPath string
}

// Resolve merges all sources into one set. Rules are expanded over [start, end].
func Resolve(src Sources, start, end time.Time) (allocator.HolidaySet, error) {
	holidays, err := FromKeys(src.Keys)
	if err != nil {
		return nil, err
	}

	fromRules, err := FromRules(src.Rules, start, end)
	if err != nil {
		return nil, err
	}
	holidays.Merge(fromRules)

	if src.ICSPath != "" {
		f, err := os.Open(src.ICSPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open holiday calendar: %w", err)
		}
		defer f.Close()

		fromICS, err := ParseICS(f)
		if err != nil {
			return nil, err
		}
		holidays.Merge(fromICS)
	}

	return holidays, nil
}

// FromKeys parses "DD.MM" keys
func FromKeys(keys []string) (allocator.HolidaySet, error) {
	holidays := allocator.NewHolidaySet()
	for _, key := range keys {
		k, err := allocator.ParseHolidayKey(key)
		if err != nil {
			return nil, err
		}
		holidays.Add(k)
	}
	return holidays, nil
}

// FromRules expands each RRULE between start and end inclusive.
// The rule's DTSTART is moved to start so that yearly rules fire inside the range.
func FromRules(rules []string, start, end time.Time) (allocator.HolidaySet, error) {
	holidays := allocator.NewHolidaySet()
	start, end = allocator.Day(start), allocator.Day(end)

	for i, r := range rules {
		rule, err := rrule.StrToRRule(r)
		if err != nil {
			return nil, fmt.Errorf("failed to parse holiday rule %d: %w", i, err)
		}

		rule.DTStart(start)
		for _, occurrence := range rule.Between(start, end, true) {
			holidays.Add(allocator.HolidayKeyOf(occurrence))
		}
	}

	return holidays, nil
}

// ParseICS reads every VEVENT as a holiday. All-day events spanning several days
// contribute each day up to, but excluding, DTEND.
func ParseICS(r io.Reader) (allocator.HolidaySet, error) {
	cal, err := ics.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse holiday calendar: %w", err)
	}

	holidays := allocator.NewHolidaySet()
	for _, evt := range cal.Events() {
		start, err := eventDate(evt, ics.ComponentPropertyDtStart)
		if err != nil {
			return nil, fmt.Errorf("failed to read holiday event %s: %w", evt.Id(), err)
		}
		holidays.Add(allocator.HolidayKeyOf(start))

		end, err := eventDate(evt, ics.ComponentPropertyDtEnd)
		if err != nil {
			// DTEND is optional
			continue
		}
		for d := start.AddDate(0, 0, 1); d.Before(end); d = d.AddDate(0, 0, 1) {
			holidays.Add(allocator.HolidayKeyOf(d))
		}
	}

	return holidays, nil
}

// eventDate reads a DATE or DATE-TIME property as a calendar day
func eventDate(evt *ics.VEvent, prop ics.ComponentProperty) (time.Time, error) {
	p := evt.GetProperty(prop)
	if p == nil {
		return time.Time{}, fmt.Errorf("missing property %s", prop)
	}

	value := strings.TrimSpace(p.Value)
	for _, layout := range []string{"20060102T150405Z", "20060102T150405", "20060102"} {
		if t, err := time.Parse(layout, value); err == nil {
			return allocator.Day(t), nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid date %q in %s", value, prop)
}
