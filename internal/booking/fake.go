package booking

import (
	"context"
	"sync"
	"time"
)

// FakeCalendar is an in-memory Calendar for tests and local demos.
type FakeCalendar struct {
	mu     sync.Mutex
	busy   []Interval
	counts map[string]int
	err    error
}

// NewFakeCalendar returns an empty fake provider.
func NewFakeCalendar() *FakeCalendar {
	return &FakeCalendar{counts: make(map[string]int)}
}

// AddBusy registers a busy block.
func (f *FakeCalendar) AddBusy(start, end time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy = append(f.busy, Interval{Start: start, End: end})
}

// SetDayCount fixes the event count for the given local day.
func (f *FakeCalendar) SetDayCount(day time.Time, count int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[day.Format("2006-01-02")] = count
}

// Fail makes every subsequent call return err.
func (f *FakeCalendar) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// FreeBusy returns registered busy blocks overlapping [start, end).
func (f *FakeCalendar) FreeBusy(_ context.Context, start, end time.Time) ([]Interval, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	window := Interval{Start: start, End: end}
	var out []Interval
	for _, b := range f.busy {
		if window.Overlaps(b) {
			out = append(out, b)
		}
	}
	return out, nil
}

// CountDayEvents returns the fixed count for the day, defaulting to the
// number of busy blocks starting inside it.
func (f *FakeCalendar) CountDayEvents(_ context.Context, dayStart, dayEnd time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	if c, ok := f.counts[dayStart.Format("2006-01-02")]; ok {
		return c, nil
	}
	count := 0
	for _, b := range f.busy {
		if !b.Start.Before(dayStart) && b.Start.Before(dayEnd) {
			count++
		}
	}
	return count, nil
}

var _ Calendar = (*FakeCalendar)(nil)
