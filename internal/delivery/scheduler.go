package delivery

import (
	"math/rand"
	"time"

	"github.com/coverlinehq/coverline/internal/compliance"
)

// Plan is the pacing decision for one outbound reply.
type Plan struct {
	// Delay is how long the dispatch job stays invisible on the queue.
	Delay time.Duration
	// SendAt, when set, pushes the actual send past quiet hours via the
	// provider's scheduled dispatch.
	SendAt *time.Time
}

// Scheduler decides when an automated reply may go out: a short randomized
// delay so the thread reads as human, plus quiet-hours deferral.
type Scheduler struct {
	minDelay time.Duration
	maxDelay time.Duration
	quiet    compliance.QuietHours
	minLead  time.Duration
	now      func() time.Time
	randIntn func(n int) int
}

// NewScheduler builds a Scheduler. minDelay and maxDelay bound the
// randomized pacing window; minLead is the minimum headroom a provider
// needs for scheduled dispatch.
func NewScheduler(minDelay, maxDelay time.Duration, quiet compliance.QuietHours, minLead time.Duration) *Scheduler {
	if minDelay <= 0 {
		minDelay = 25 * time.Second
	}
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &Scheduler{
		minDelay: minDelay,
		maxDelay: maxDelay,
		quiet:    quiet,
		minLead:  minLead,
		now:      time.Now,
		randIntn: rand.Intn,
	}
}

// Plan computes the pacing for a reply to a lead in loc.
func (s *Scheduler) Plan(loc *time.Location) Plan {
	if loc == nil {
		loc = time.UTC
	}

	delay := s.minDelay
	if spread := int(s.maxDelay - s.minDelay); spread > 0 {
		delay += time.Duration(s.randIntn(spread))
	}

	fireAt := s.now().Add(delay)
	if !s.quiet.IsQuiet(fireAt, loc) {
		return Plan{Delay: delay}
	}

	sendAt := s.quiet.NextAllowed(fireAt, loc, s.minLead)
	return Plan{Delay: delay, SendAt: &sendAt}
}
