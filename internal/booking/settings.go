package booking

import (
	"strings"
	"time"
)

const (
	defaultSlotLengthMinutes = 30
	defaultBufferMinutes     = 0
)

// Window is a working-hours span for a single weekday, local clock strings
// in "15:04" form.
type Window struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Settings are the per-agent booking constraints. Configured through the
// admin API and read-only to the enforcement engine.
type Settings struct {
	Timezone              string            `json:"timezone"`
	SlotLengthMinutes     int               `json:"slot_length_minutes"`
	BufferMinutes         int               `json:"buffer_minutes"`
	WorkingHours          map[string]Window `json:"working_hours"`
	MaxAppointmentsPerDay int               `json:"max_appointments_per_day"`
}

// Location resolves the agent timezone, falling back to UTC.
func (s *Settings) Location() *time.Location {
	if s == nil || s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SlotMinutes returns the slot length with the non-positive default applied.
func (s *Settings) SlotMinutes() int {
	if s == nil || s.SlotLengthMinutes <= 0 {
		return defaultSlotLengthMinutes
	}
	return s.SlotLengthMinutes
}

// PadMinutes returns the buffer with the negative/missing default applied.
func (s *Settings) PadMinutes() int {
	if s == nil || s.BufferMinutes < 0 {
		return defaultBufferMinutes
	}
	return s.BufferMinutes
}

// StepMinutes is the quantization granularity valid starts must align to.
func (s *Settings) StepMinutes() int {
	return s.SlotMinutes() + s.PadMinutes()
}

// WindowFor returns the working-hours window for a weekday as minutes past
// local midnight. ok is false when the day has no window or it is malformed.
func (s *Settings) WindowFor(day time.Weekday) (startMin, endMin int, ok bool) {
	if s == nil || len(s.WorkingHours) == 0 {
		return 0, 0, false
	}
	w, found := s.WorkingHours[strings.ToLower(day.String())]
	if !found {
		return 0, 0, false
	}
	startMin, err := clockMinutes(w.Start)
	if err != nil {
		return 0, 0, false
	}
	endMin, err = clockMinutes(w.End)
	if err != nil || endMin <= startMin {
		return 0, 0, false
	}
	return startMin, endMin, true
}

func clockMinutes(v string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(v))
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}
