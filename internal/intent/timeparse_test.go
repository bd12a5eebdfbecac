package intent

import (
	"testing"
	"time"
)

func chicago(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Fatal(err)
	}
	return loc
}

func TestResolveZone(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		state   string
		defTZ   string
		wantLoc string
	}{
		{"abbrev wins over state", "can we do 3pm ct", "NY", "", "America/Chicago"},
		{"spelled out zone", "3pm eastern works", "TX", "", "America/New_York"},
		{"state code", "tomorrow 3pm", "TX", "", "America/Chicago"},
		{"state full name", "tomorrow 3pm", "texas", "", "America/Chicago"},
		{"default fallback", "hello", "", "America/Denver", "America/Denver"},
		{"utc last resort", "hello", "", "", "UTC"},
		{"unknown state and bad default", "hello", "ZZ", "Not/AZone", "UTC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveZone(tt.body, tt.state, tt.defTZ)
			if got.String() != tt.wantLoc {
				t.Fatalf("ResolveZone = %s, want %s", got, tt.wantLoc)
			}
		})
	}
}

func TestParseTimePhrase(t *testing.T) {
	loc := chicago(t)
	// Monday noon.
	now := time.Date(2026, 3, 9, 12, 0, 0, 0, loc)

	tests := []struct {
		name string
		body string
		want time.Time
	}{
		{"tomorrow with clock", "tomorrow at 3pm", time.Date(2026, 3, 10, 15, 0, 0, 0, loc)},
		{"tomorrow defaults mid morning", "tomorrow works", time.Date(2026, 3, 10, 10, 0, 0, 0, loc)},
		{"weekday no clock", "friday is fine", time.Date(2026, 3, 13, 10, 0, 0, 0, loc)},
		{"weekday with bare at-hour", "friday at 2", time.Date(2026, 3, 13, 14, 0, 0, 0, loc)},
		{"same weekday already past rolls a week", "monday at 9am", time.Date(2026, 3, 16, 9, 0, 0, 0, loc)},
		{"month day", "june 5 at 3pm", time.Date(2026, 6, 5, 15, 0, 0, 0, loc)},
		{"numeric date", "6/5 3pm", time.Date(2026, 6, 5, 15, 0, 0, 0, loc)},
		{"today with clock", "today at 4", time.Date(2026, 3, 9, 16, 0, 0, 0, loc)},
		{"bare clock next occurrence", "3:30 maybe?", time.Date(2026, 3, 9, 15, 30, 0, 0, loc)},
		{"morning clock already past rolls a day", "9:00 works", time.Date(2026, 3, 10, 9, 0, 0, 0, loc)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTimePhrase(tt.body, now, loc)
			if !ok {
				t.Fatalf("ParseTimePhrase(%q): no time found", tt.body)
			}
			if !got.Equal(tt.want) {
				t.Fatalf("ParseTimePhrase(%q) = %v, want %v", tt.body, got, tt.want)
			}
		})
	}
}

func TestParseTimePhraseNoTime(t *testing.T) {
	loc := chicago(t)
	now := time.Date(2026, 3, 9, 12, 0, 0, 0, loc)
	bodies := []string{
		"",
		"tell me more",
		"I have 2 kids",       // bare number, not a clock
		"my plan costs 80 now", // bare number mid-sentence
	}
	for _, body := range bodies {
		if got, ok := ParseTimePhrase(body, now, loc); ok {
			t.Errorf("ParseTimePhrase(%q) = %v, want none", body, got)
		}
	}
}

func TestParseTimePhraseMeridiemEdges(t *testing.T) {
	loc := chicago(t)
	now := time.Date(2026, 3, 9, 8, 0, 0, 0, loc)

	got, ok := ParseTimePhrase("tomorrow at 12pm", now, loc)
	if !ok || got.Hour() != 12 {
		t.Fatalf("12pm parsed as hour %d", got.Hour())
	}
	got, ok = ParseTimePhrase("tomorrow at 12am", now, loc)
	if !ok || got.Hour() != 0 {
		t.Fatalf("12am parsed as hour %d", got.Hour())
	}
	// No meridiem: small hours read as afternoon.
	got, ok = ParseTimePhrase("tomorrow at 3", now, loc)
	if !ok || got.Hour() != 15 {
		t.Fatalf("bare 'at 3' parsed as hour %d, want 15", got.Hour())
	}
}

func TestIsConfirmation(t *testing.T) {
	tests := []struct {
		body string
		want bool
	}{
		{"sounds good", true},
		{"yes that works", true},
		{"perfect, see you then", true},
		{"ok", true},
		{"3pm works", false},    // carries its own time
		{"friday works", false}, // carries its own day
		{"no thanks", false},
		{"tell me more", false},
	}
	for _, tt := range tests {
		if got := IsConfirmation(tt.body); got != tt.want {
			t.Errorf("IsConfirmation(%q) = %v, want %v", tt.body, got, tt.want)
		}
	}
}

func TestHasMeridiem(t *testing.T) {
	if !HasMeridiem("see you at 3pm") {
		t.Fatal("3pm should report a meridiem")
	}
	if HasMeridiem("see you at 3:30") {
		t.Fatal("3:30 should not report a meridiem")
	}
}
