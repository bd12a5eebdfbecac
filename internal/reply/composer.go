package reply

import (
	"fmt"
	"strings"
	"time"

	"github.com/coverlinehq/coverline/internal/booking"
)

// GenericSchedulingPrompt is the fallback when neither tier produced a reply
// or a time; ambiguity is never surfaced to the lead as an error.
const GenericSchedulingPrompt = "Happy to go over your options whenever suits you. What day and time works best for a quick call?"

// Confirmation names the booked slot in the lead's clock and invites a
// reschedule reply.
func Confirmation(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return fmt.Sprintf("You're all set for %s at %s %s. If anything comes up, just reply \"reschedule\".",
		t.Format("Monday, January 2"), t.Format("3:04 PM"), t.Format("MST"))
}

// FromRejection converts a structural booking failure into a
// suggestion-bearing reply. It never exposes the failure reason as an error.
func FromRejection(res booking.Result, loc *time.Location) string {
	lead := rejectionLead(res.Reason)
	if len(res.Suggestions) == 0 {
		return lead + " What other day and time could work for you?"
	}
	return fmt.Sprintf("%s I do have %s - would either work?", lead, FormatSuggestions(res.Suggestions, loc))
}

func rejectionLead(reason booking.Reason) string {
	switch reason {
	case booking.ReasonOutsideHours:
		return "I'm not taking calls at that hour."
	case booking.ReasonBusy:
		return "I'm already booked at that time."
	case booking.ReasonMaxed:
		return "That day is completely full."
	case booking.ReasonInvalidStep, booking.ReasonInvalid:
		return "That exact time doesn't line up with my calendar."
	default:
		return "I couldn't lock in that time."
	}
}

// FormatSuggestions renders up to two alternatives for SMS, joining with
// "or" and shortening the second when it shares the first one's day.
func FormatSuggestions(suggestions []time.Time, loc *time.Location) string {
	if len(suggestions) == 0 {
		return ""
	}
	if loc == nil {
		loc = time.UTC
	}
	first := suggestions[0].In(loc)
	out := first.Format("Monday 3:04 PM")
	if len(suggestions) > 1 {
		second := suggestions[1].In(loc)
		if second.YearDay() == first.YearDay() && second.Year() == first.Year() {
			out += " or " + second.Format("3:04 PM")
		} else {
			out += " or " + second.Format("Monday 3:04 PM")
		}
	}
	return out
}

// VaryForRepeatTopic softens a canned reply when the same topic was raised
// on the previous turn, so the lead does not get a verbatim repeat.
func VaryForRepeatTopic(text string, lastTopics []string, topic string) string {
	for _, t := range lastTopics {
		if t == topic {
			return "Just to add to what I mentioned - " + lowerFirst(text)
		}
	}
	return text
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
