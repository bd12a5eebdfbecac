package compliance

import (
	"fmt"
	"time"
)

// QuietHours represents the nightly window (local time) when automated SMS
// sends are suppressed. The window always crosses midnight: sends stop at
// StartHour in the evening and resume at EndHour the next morning.
type QuietHours struct {
	StartHour int
	EndHour   int
}

// DefaultQuietHours is the TCPA-conservative 9pm-8am window.
var DefaultQuietHours = QuietHours{StartHour: 21, EndHour: 8}

// NewQuietHours validates hour bounds and returns a window.
func NewQuietHours(startHour, endHour int) (QuietHours, error) {
	if startHour < 0 || startHour > 23 {
		return QuietHours{}, fmt.Errorf("compliance: quiet hours start %d out of range", startHour)
	}
	if endHour < 0 || endHour > 23 {
		return QuietHours{}, fmt.Errorf("compliance: quiet hours end %d out of range", endHour)
	}
	return QuietHours{StartHour: startHour, EndHour: endHour}, nil
}

// IsQuiet reports whether the local hour of now falls inside the window.
func (q QuietHours) IsQuiet(now time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.UTC
	}
	h := now.In(loc).Hour()
	if q.StartHour == q.EndHour {
		return false
	}
	if q.StartHour > q.EndHour {
		return h >= q.StartHour || h < q.EndHour
	}
	return h >= q.StartHour && h < q.EndHour
}

// NextAllowed returns the next instant at or after now+minLead when automated
// sends may resume: the next local EndHour:00, pushed one day forward if the
// min-lead clamp lands the candidate back inside the window.
func (q QuietHours) NextAllowed(now time.Time, loc *time.Location, minLead time.Duration) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	earliest := now.Add(minLead)
	local := earliest.In(loc)
	candidate := time.Date(local.Year(), local.Month(), local.Day(), q.EndHour, 0, 0, 0, loc)
	for candidate.Before(earliest) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}
