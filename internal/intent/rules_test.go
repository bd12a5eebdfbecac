package intent

import (
	"testing"
	"unicode"
)

func TestMatchRule(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{"I already have insurance", "already_covered"},
		{"i'm covered thanks", "already_covered"},
		{"how much does it cost", "price"},
		{"is it expensive?", "price"},
		{"I'm really busy right now", "busy_reschedule"},
		{"can we talk later", "busy_reschedule"},
		{"who is this??", "identity"},
		{"how did you get my number", "identity"},
		{"is this a scam", "identity"},
		{"just send me the info", "send_info"},
		{"can you email the quote", "send_info"},
		{"habla espanol?", "language_spanish"},
		{"stop bothering me", "hostile"},
	}
	for _, tt := range tests {
		rule, ok := MatchRule(tt.body)
		if !ok {
			t.Errorf("MatchRule(%q): no match, want %s", tt.body, tt.want)
			continue
		}
		if rule.Name != tt.want {
			t.Errorf("MatchRule(%q) = %s, want %s", tt.body, rule.Name, tt.want)
		}
		if rule.Reply == "" {
			t.Errorf("rule %s has an empty reply", rule.Name)
		}
	}
}

func TestMatchRuleOrderAlreadyCoveredBeatsPrice(t *testing.T) {
	// "already have a plan, what's the price" matches two rules; the earlier
	// table entry wins.
	rule, ok := MatchRule("I already have a plan, what's the price difference")
	if !ok || rule.Name != "already_covered" {
		t.Fatalf("got %v/%v, want already_covered", rule.Name, ok)
	}
}

func TestMatchRuleNoMatch(t *testing.T) {
	for _, body := range []string{"", "   ", "tuesday at 3 works", "tell me more"} {
		if rule, ok := MatchRule(body); ok {
			t.Errorf("MatchRule(%q) matched %s, want none", body, rule.Name)
		}
	}
}

// Non-ASCII punctuation flips Twilio to UCS-2 and cuts segments 160 to 70
// characters, so the canned copy must stay plain ASCII.
func TestRuleRepliesStayASCII(t *testing.T) {
	for _, rule := range Rules {
		for _, r := range rule.Reply {
			if r > unicode.MaxASCII {
				t.Errorf("rule %s reply contains non-ASCII %q", rule.Name, r)
			}
		}
	}
}
