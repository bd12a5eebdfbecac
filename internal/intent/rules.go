// Package intent classifies inbound lead messages: an ordered deterministic
// rule table with compliance-reviewed replies, a deterministic time parser,
// and a Gemini-backed fallback for everything the rules miss.
package intent

import (
	"regexp"
	"strings"
)

// Rule maps an objection/question pattern to its vetted canned reply. The
// table is ordered; the first match wins and the reply text is never altered
// by the model tier.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Reply   string
}

// Topic returns the discussion topic this rule raises, used to vary phrasing
// on repeat objections.
func (r Rule) Topic() string { return r.Name }

// Rules is the audit-ordered canned-reply table.
var Rules = []Rule{
	{
		Name:    "already_covered",
		Pattern: regexp.MustCompile(`(?i)(already\s+(?:have|got|covered)|i'?m\s+covered|have\s+(?:a\s+)?(?:policy|plan|coverage|insurance))`),
		Reply:   "Totally fair - most folks I help already have something in place. A quick review often finds the same coverage for less. Would a 10-minute call this week work?",
	},
	{
		Name:    "price",
		Pattern: regexp.MustCompile(`(?i)(how\s+much|what(?:'s|\s+is)\s+the\s+(?:price|cost|rate)|price|cost|expensive|afford)`),
		Reply:   "Rates depend on age and health, so I'd be guessing over text. Plans often start under $2/day. Want to grab a quick call so I can give you a real number?",
	},
	{
		Name:    "busy_reschedule",
		Pattern: regexp.MustCompile(`(?i)((?:i'?m|im|really)\s+busy|(?:can|could)\s+we\s+(?:do|talk)\s+(?:it\s+)?later|not\s+a\s+good\s+time|call\s+me\s+later|reschedul)`),
		Reply:   "No problem at all. What day and time usually works best for you? Even a quick 10 minutes is plenty.",
	},
	{
		Name:    "identity",
		Pattern: regexp.MustCompile(`(?i)(who\s+(?:is|are)\s+(?:this|you)|how\s+did\s+you\s+get\s+my|is\s+this\s+a\s+scam|scam|spam)`),
		Reply:   "Good question! You recently requested information about life insurance options, and I'm the licensed agent assigned to your request. Happy to verify anything on a quick call.",
	},
	{
		Name:    "send_info",
		Pattern: regexp.MustCompile(`(?i)((?:just\s+)?(?:send|email|text)\s+(?:me\s+)?(?:the\s+)?(?:info|information|details|quote)|can\s+you\s+(?:send|email))`),
		Reply:   "I wish I could, but quotes are personal to your age and health, so a blast email would just be wrong numbers. A 10-minute call gets you the real ones - what time works?",
	},
	{
		Name:    "language_spanish",
		Pattern: regexp.MustCompile(`(?i)(habla\s+espanol|hablas\s+espanol|en\s+espanol|no\s+hablo\s+ingles|prefiero\s+espanol)`),
		Reply:   "Si, claro! Con gusto le ayudo en espanol. Que dia y hora le funciona para una llamada corta?",
	},
	{
		Name:    "hostile",
		Pattern: regexp.MustCompile(`(?i)(f+u+c*k+|screw\s+you|piss\s+off|go\s+away|stop\s+bothering)`),
		Reply:   "Understood - I'll leave it here. If anything changes, you have my number. Take care.",
	},
}

// MatchRule returns the first canned rule the body matches.
func MatchRule(body string) (Rule, bool) {
	body = strings.TrimSpace(body)
	if body == "" {
		return Rule{}, false
	}
	for _, r := range Rules {
		if r.Pattern.MatchString(body) {
			return r, true
		}
	}
	return Rule{}, false
}
