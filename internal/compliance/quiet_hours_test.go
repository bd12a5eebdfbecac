package compliance

import (
	"testing"
	"time"
)

func TestIsQuietDefaultWindow(t *testing.T) {
	loc, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Fatal(err)
	}
	q := DefaultQuietHours
	for h := 0; h < 24; h++ {
		now := time.Date(2026, 3, 10, h, 30, 0, 0, loc)
		want := h >= 21 || h < 8
		if got := q.IsQuiet(now, loc); got != want {
			t.Fatalf("IsQuiet at hour %d = %v, want %v", h, got, want)
		}
	}
}

func TestIsQuietDegenerateWindow(t *testing.T) {
	q := QuietHours{StartHour: 9, EndHour: 9}
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	if q.IsQuiet(now, time.UTC) {
		t.Fatal("equal start/end hours must disable the window")
	}
}

func TestNextAllowed(t *testing.T) {
	loc, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Fatal(err)
	}
	q := DefaultQuietHours
	minLead := 15 * time.Minute

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "late evening rolls to next morning",
			now:  time.Date(2026, 3, 10, 22, 0, 0, 0, loc),
			want: time.Date(2026, 3, 11, 8, 0, 0, 0, loc),
		},
		{
			name: "early morning resumes same day",
			now:  time.Date(2026, 3, 10, 5, 0, 0, 0, loc),
			want: time.Date(2026, 3, 10, 8, 0, 0, 0, loc),
		},
		{
			// 07:50 + 15m = 08:05; the same-day 08:00 candidate is before
			// the earliest allowed instant, so the next morning wins.
			name: "min lead pushes past the morning boundary",
			now:  time.Date(2026, 3, 10, 7, 50, 0, 0, loc),
			want: time.Date(2026, 3, 11, 8, 0, 0, 0, loc),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := q.NextAllowed(tt.now, loc, minLead)
			if !got.Equal(tt.want) {
				t.Fatalf("NextAllowed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNextAllowedNeverBeforeMinLead(t *testing.T) {
	loc := time.UTC
	q := DefaultQuietHours
	now := time.Date(2026, 3, 10, 23, 45, 0, 0, loc)
	got := q.NextAllowed(now, loc, time.Hour)
	if got.Before(now.Add(time.Hour)) {
		t.Fatalf("NextAllowed %v earlier than now+minLead", got)
	}
	if got.In(loc).Hour() != 8 {
		t.Fatalf("NextAllowed hour = %d, want 8", got.In(loc).Hour())
	}
}

func TestNewQuietHoursBounds(t *testing.T) {
	if _, err := NewQuietHours(-1, 8); err == nil {
		t.Fatal("expected error for negative start")
	}
	if _, err := NewQuietHours(21, 24); err == nil {
		t.Fatal("expected error for end out of range")
	}
	if _, err := NewQuietHours(21, 8); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
