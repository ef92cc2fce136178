// Package availability manages doctors' weekly consultation windows.
package availability

import (
	"fmt"
	"sort"
	"strings"
)

// WeeklySchedule maps lowercase 3-letter weekday abbreviations to
// "HH:MM-HH:MM" windows. Days without windows may be absent or empty.
type WeeklySchedule map[string][]string

var validDays = map[string]struct{}{
	"mon": {}, "tue": {}, "wed": {}, "thu": {}, "fri": {}, "sat": {}, "sun": {},
}

// DefaultWeeklySchedule is returned for doctors who have not saved a
// schedule yet. It is never auto-persisted.
func DefaultWeeklySchedule() WeeklySchedule {
	return WeeklySchedule{
		"mon": {"09:00-12:00", "13:00-16:00"},
		"tue": {"09:00-12:00", "13:00-16:00"},
		"wed": {"09:00-12:00"},
		"thu": {"09:00-12:00", "13:00-16:00"},
		"fri": {"09:00-12:00"},
		"sat": {},
		"sun": {},
	}
}

// Validate checks day keys and window formats. A nil schedule is invalid.
func (s WeeklySchedule) Validate() error {
	if s == nil {
		return fmt.Errorf("schedule must be an object")
	}

	var unknown []string
	for day := range s {
		if _, ok := validDays[day]; !ok {
			unknown = append(unknown, day)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("unknown day keys: %s", strings.Join(unknown, ", "))
	}

	for day, windows := range s {
		for _, w := range windows {
			if !isValidWindow(w) {
				return fmt.Errorf("invalid time window %q in %q, use HH:MM-HH:MM", w, day)
			}
		}
	}
	return nil
}

func isValidWindow(s string) bool {
	start, end, ok := strings.Cut(s, "-")
	if !ok {
		return false
	}
	return isClockTime(start) && isClockTime(end)
}

func isClockTime(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	for _, i := range []int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
