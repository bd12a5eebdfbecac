// Package booking enforces per-agent scheduling constraints (working hours,
// slot quantization, daily caps, free/busy conflicts) against an opaque
// calendar provider, and searches for alternative slots on rejection.
package booking

import (
	"context"
	"time"
)

// Interval is an opaque busy block returned by a calendar provider.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two half-open intervals intersect.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

// Calendar is the external provider collaborator: free/busy over a range and
// an event count for daily-capacity checks. Implementations block on network
// calls; callers bound them with ctx.
type Calendar interface {
	FreeBusy(ctx context.Context, start, end time.Time) ([]Interval, error)
	CountDayEvents(ctx context.Context, dayStart, dayEnd time.Time) (int, error)
}
