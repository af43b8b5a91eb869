package scheduling

import (
	"fmt"
	"time"

	_ "time/tzdata"
)

const (
	DefaultTimezone = "Asia/Kolkata"

	// Interviews are held inside business hours of the configured timezone.
	windowStartHour = 9
	windowEndHour   = 17
	interviewHour   = 11

	// Zoom takes a local wall-clock time and the timezone name separately.
	startTimeLayout = "2006-01-02T15:04:05"
)

// NextSlot returns 11:00 on the calendar day after now, in loc.
func NextSlot(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day()+1, interviewHour, 0, 0, 0, loc)
}

// InWindow reports whether t starts inside the interview window of its location.
func InWindow(t time.Time) bool {
	return t.Hour() >= windowStartHour && t.Hour() < windowEndHour
}

// LoadLocation resolves a timezone name, defaulting to Asia/Kolkata.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return loc, nil
}
