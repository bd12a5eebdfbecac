package compliance

import (
	"regexp"
	"strings"
)

// Keyword is the compliance family an inbound body matched.
type Keyword string

const (
	KeywordNone  Keyword = ""
	KeywordStop  Keyword = "stop"
	KeywordHelp  Keyword = "help"
	KeywordStart Keyword = "start"
)

// Detector classifies inbound bodies against the STOP/HELP/START keyword
// families. Carrier keywords anchor at the start of the message; the soft
// stop phrases match anywhere because leads bury them mid-sentence.
type Detector struct {
	stopRegex     *regexp.Regexp
	softStopRegex *regexp.Regexp
	helpRegex     *regexp.Regexp
	startRegex    *regexp.Regexp
}

// NewDetector returns a keyword detector with sane defaults.
func NewDetector() *Detector {
	return &Detector{
		stopRegex:     regexp.MustCompile(`(?i)^(?:please\s+)?(stop|stopall|unsubscribe|cancel|end|quit)\b`),
		softStopRegex: regexp.MustCompile(`(?i)(remove\s+me|take\s+me\s+off|not\s+interested|no\s+longer\s+interested|don'?t\s+(?:text|contact|message)\s+me|wrong\s+number|leave\s+me\s+alone)`),
		helpRegex:     regexp.MustCompile(`(?i)^(?:please\s+)?(help|info)\b`),
		startRegex:    regexp.MustCompile(`(?i)^(?:please\s+)?(start|unstop|subscribe|resubscribe)\b|(?i)\bopt\s*(?:me\s+)?(?:back\s+)?in\b`),
	}
}

// Classify returns the first keyword family the body belongs to. Stop wins
// over everything else so a message like "stop, need help" still opts out.
func (d *Detector) Classify(body string) Keyword {
	if d == nil {
		return KeywordNone
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return KeywordNone
	}
	if d.IsStop(body) {
		return KeywordStop
	}
	if d.helpRegex.MatchString(body) {
		return KeywordHelp
	}
	if d.startRegex.MatchString(body) {
		return KeywordStart
	}
	return KeywordNone
}

// IsStop returns true when body contains a STOP keyword or a soft opt-out phrase.
func (d *Detector) IsStop(body string) bool {
	if d == nil || d.stopRegex == nil {
		return false
	}
	body = strings.TrimSpace(body)
	return d.stopRegex.MatchString(body) || d.softStopRegex.MatchString(body)
}

// IsHelp returns true when body contains a HELP keyword.
func (d *Detector) IsHelp(body string) bool {
	if d == nil || d.helpRegex == nil {
		return false
	}
	return d.helpRegex.MatchString(strings.TrimSpace(body))
}

// IsStart returns true when body contains a START/opt-in keyword.
func (d *Detector) IsStart(body string) bool {
	if d == nil || d.startRegex == nil {
		return false
	}
	return d.startRegex.MatchString(strings.TrimSpace(body))
}
