package compliance

import "testing"

func TestClassifyStopFamily(t *testing.T) {
	d := NewDetector()
	bodies := []string{
		"STOP",
		"stop",
		"Stop texting",
		"please stop",
		"UNSUBSCRIBE",
		"cancel",
		"End",
		"quit",
		"stopall",
		"remove me from your list",
		"I'm not interested, thanks",
		"don't text me again",
		"dont contact me",
		"you have the wrong number",
		"take me off the list",
		"leave me alone",
	}
	for _, body := range bodies {
		if got := d.Classify(body); got != KeywordStop {
			t.Fatalf("Classify(%q) = %q, want stop", body, got)
		}
	}
}

func TestClassifyHelpAndStart(t *testing.T) {
	d := NewDetector()
	tests := []struct {
		body string
		want Keyword
	}{
		{"HELP", KeywordHelp},
		{"help me understand", KeywordHelp},
		{"info", KeywordHelp},
		{"START", KeywordStart},
		{"unstop", KeywordStart},
		{"resubscribe", KeywordStart},
		{"opt me back in", KeywordStart},
		{"sure, tomorrow at 3 works", KeywordNone},
		{"", KeywordNone},
		{"what does this cost?", KeywordNone},
	}
	for _, tt := range tests {
		if got := d.Classify(tt.body); got != tt.want {
			t.Fatalf("Classify(%q) = %q, want %q", tt.body, got, tt.want)
		}
	}
}

func TestStopWinsOverHelp(t *testing.T) {
	d := NewDetector()
	if got := d.Classify("stop, I need help"); got != KeywordStop {
		t.Fatalf("expected stop to win, got %q", got)
	}
}

func TestNonKeywordBodiesAreNotStop(t *testing.T) {
	d := NewDetector()
	// "stop" inside a scheduling sentence must not opt the lead out.
	bodies := []string{
		"can we stop by 4pm?",
		"my bus stop is on main street",
	}
	for _, body := range bodies {
		if d.IsStop(body) {
			t.Fatalf("IsStop(%q) = true, want false", body)
		}
	}
}
