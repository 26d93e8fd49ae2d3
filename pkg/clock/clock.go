// Package clock models in-world game time as a day counter plus minutes
// since midnight.
package clock

import (
	"fmt"
	"strconv"
	"strings"
)

const minutesPerDay = 24 * 60

// Time is a point in game time. The zero value is invalid; use New.
type Time struct {
	Day    int `json:"day"`    // 1-based
	Minute int `json:"minute"` // 0..1439
}

// New returns the time at day and hh:mm, normalising overflow.
func New(day, hour, minute int) Time {
	return Time{Day: day}.Add(hour*60 + minute)
}

// Add returns t advanced by n minutes. Negative n is ignored; game time
// only moves forward.
func (t Time) Add(n int) Time {
	if t.Day < 1 {
		t.Day = 1
	}
	if n <= 0 {
		return t
	}
	total := t.Minute + n
	t.Day += total / minutesPerDay
	t.Minute = total % minutesPerDay
	return t
}

// Before reports whether t is earlier than u.
func (t Time) Before(u Time) bool {
	if t.Day != u.Day {
		return t.Day < u.Day
	}
	return t.Minute < u.Minute
}

// Sub returns the number of minutes from u to t.
func (t Time) Sub(u Time) int {
	return (t.Day-u.Day)*minutesPerDay + (t.Minute - u.Minute)
}

// Clock renders the time of day as HH:MM.
func (t Time) Clock() string {
	return fmt.Sprintf("%02d:%02d", t.Minute/60, t.Minute%60)
}

// TimeOfDay buckets the minute into a coarse period used in narration.
func (t Time) TimeOfDay() string {
	h := t.Minute / 60
	switch {
	case h < 5:
		return "night"
	case h < 12:
		return "morning"
	case h < 17:
		return "afternoon"
	case h < 21:
		return "evening"
	default:
		return "night"
	}
}

func (t Time) String() string {
	return fmt.Sprintf("Day %d, %s", t.Day, t.Clock())
}

// IsZero reports whether t has never been set.
func (t Time) IsZero() bool {
	return t.Day == 0 && t.Minute == 0
}

// ParseClock parses "HH:MM" into minutes since midnight.
func ParseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock %q: want HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h*60 + m, nil
}
