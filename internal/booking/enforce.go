package booking

import (
	"context"
	"time"
)

// Reason is the structural cause of a booking rejection.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonMissingSettings Reason = "missing_settings"
	ReasonOutsideHours    Reason = "outside_working_hours"
	ReasonInvalidStep     Reason = "invalid_step"
	ReasonBusy            Reason = "busy"
	ReasonMaxed           Reason = "maxed"
	ReasonInvalid         Reason = "invalid"
)

// Result is the per-request outcome of an enforcement evaluation.
type Result struct {
	OK          bool
	Reason      Reason
	Suggestions []time.Time
}

// Options tunes the alternative-slot search on rejection.
type Options struct {
	// SuggestionLimit caps collected alternatives; 0 disables the search.
	SuggestionLimit int
	// SuggestInUTC emits suggestions in UTC instead of the agent's zone.
	SuggestInUTC bool
}

// suggestionScanDays bounds the alternative-slot search; the scan is
// inclusive so an agent working a single weekday still reaches the next
// occurrence of that day.
const suggestionScanDays = 7

// Evaluate validates a requested appointment start against the agent's
// settings and calendar. Checks run in order: settings presence, working
// hours, step alignment, daily capacity, free/busy conflict. Every
// structural rejection carries alternative suggestions when the search is
// enabled.
func Evaluate(ctx context.Context, cal Calendar, settings *Settings, start time.Time, durationMinutes int, opts Options) Result {
	if settings == nil || len(settings.WorkingHours) == 0 {
		return Result{Reason: ReasonMissingSettings}
	}
	if start.IsZero() {
		return Result{Reason: ReasonInvalid}
	}

	loc := settings.Location()
	local := start.In(loc)
	if durationMinutes <= 0 {
		durationMinutes = settings.SlotMinutes()
	}

	winStart, winEnd, ok := settings.WindowFor(local.Weekday())
	startMin := local.Hour()*60 + local.Minute()
	if !ok || startMin < winStart || startMin+durationMinutes > winEnd {
		return Result{
			Reason:      ReasonOutsideHours,
			Suggestions: suggest(ctx, cal, settings, start, durationMinutes, opts, false),
		}
	}

	if (startMin-winStart)%settings.StepMinutes() != 0 {
		return Result{
			Reason:      ReasonInvalidStep,
			Suggestions: suggest(ctx, cal, settings, start, durationMinutes, opts, false),
		}
	}

	if settings.MaxAppointmentsPerDay > 0 {
		dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
		count, err := countWithRetry(ctx, cal, dayStart, dayStart.AddDate(0, 0, 1))
		if err != nil {
			// Calendar outage: fail open so the composer proposes without confirming.
			return Result{Reason: ReasonInvalid}
		}
		if count >= settings.MaxAppointmentsPerDay {
			return Result{
				Reason:      ReasonMaxed,
				Suggestions: suggest(ctx, cal, settings, start, durationMinutes, opts, true),
			}
		}
	}

	pad := time.Duration(settings.PadMinutes()) * time.Minute
	reqStart := start.Add(-pad)
	reqEnd := start.Add(time.Duration(durationMinutes) * time.Minute).Add(pad)
	busy, err := freeBusyWithRetry(ctx, cal, reqStart, reqEnd)
	if err != nil {
		return Result{Reason: ReasonInvalid}
	}
	requested := Interval{Start: reqStart, End: reqEnd}
	for _, b := range busy {
		if requested.Overlaps(b) {
			return Result{
				Reason:      ReasonBusy,
				Suggestions: suggest(ctx, cal, settings, start, durationMinutes, opts, false),
			}
		}
	}

	return Result{OK: true}
}

// suggest walks forward through the following week, including the same
// weekday seven days out, collecting aligned starts that clear the same
// window/step/capacity/free-busy checks. On the first scanned day the walk
// begins at the next aligned step at or after the requested time, so a
// request past the day's window finds the next occurrence of that window
// instead of an empty list; fromNextDay shifts the whole scan one day
// forward (used when the requested day is already at capacity).
func suggest(ctx context.Context, cal Calendar, settings *Settings, from time.Time, durationMinutes int, opts Options, fromNextDay bool) []time.Time {
	if opts.SuggestionLimit <= 0 {
		return nil
	}

	loc := settings.Location()
	outLoc := loc
	if opts.SuggestInUTC {
		outLoc = time.UTC
	}
	step := settings.StepMinutes()
	pad := time.Duration(settings.PadMinutes()) * time.Minute
	duration := time.Duration(durationMinutes) * time.Minute

	local := from.In(loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	firstDay := !fromNextDay
	if fromNextDay {
		day = day.AddDate(0, 0, 1)
	}

	var out []time.Time
	for i := 0; i <= suggestionScanDays && len(out) < opts.SuggestionLimit; i++ {
		if i > 0 {
			day = day.AddDate(0, 0, 1)
			firstDay = false
		}
		winStart, winEnd, ok := settings.WindowFor(day.Weekday())
		if !ok {
			continue
		}
		if settings.MaxAppointmentsPerDay > 0 {
			count, err := countWithRetry(ctx, cal, day, day.AddDate(0, 0, 1))
			if err != nil || count >= settings.MaxAppointmentsPerDay {
				continue
			}
		}

		walkFrom := winStart
		if firstDay {
			sinceMidnight := local.Hour()*60 + local.Minute()
			if sinceMidnight > walkFrom {
				offset := sinceMidnight - winStart
				aligned := winStart + ((offset + step - 1) / step * step)
				walkFrom = aligned
			}
		}

		windowStart := day.Add(time.Duration(winStart) * time.Minute)
		windowEnd := day.Add(time.Duration(winEnd) * time.Minute)
		busy, err := freeBusyWithRetry(ctx, cal, windowStart.Add(-pad), windowEnd.Add(pad))
		if err != nil {
			continue
		}

		for m := walkFrom; m+durationMinutes <= winEnd && len(out) < opts.SuggestionLimit; m += step {
			candidateStart := day.Add(time.Duration(m) * time.Minute)
			candidate := Interval{Start: candidateStart.Add(-pad), End: candidateStart.Add(duration).Add(pad)}
			conflict := false
			for _, b := range busy {
				if candidate.Overlaps(b) {
					conflict = true
					break
				}
			}
			if !conflict {
				out = append(out, candidateStart.In(outLoc))
			}
		}
	}
	return out
}

// The provider calls get one bounded retry; anything longer stalls the
// webhook path. A nil calendar means no calendar is connected and every
// interval reads as free.
func freeBusyWithRetry(ctx context.Context, cal Calendar, start, end time.Time) ([]Interval, error) {
	if cal == nil {
		return nil, nil
	}
	busy, err := cal.FreeBusy(ctx, start, end)
	if err == nil {
		return busy, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}
	return cal.FreeBusy(ctx, start, end)
}

func countWithRetry(ctx context.Context, cal Calendar, dayStart, dayEnd time.Time) (int, error) {
	if cal == nil {
		return 0, nil
	}
	count, err := cal.CountDayEvents(ctx, dayStart, dayEnd)
	if err == nil {
		return count, nil
	}
	if ctx.Err() != nil {
		return 0, err
	}
	return cal.CountDayEvents(ctx, dayStart, dayEnd)
}
