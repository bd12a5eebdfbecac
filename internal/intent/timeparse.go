package intent

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Timezone abbreviations leads actually type. Daylight variants map to the
// same IANA zone; the zone database picks the correct offset for the date.
var zoneAbbrevs = map[string]string{
	"et": "America/New_York", "est": "America/New_York", "edt": "America/New_York",
	"eastern": "America/New_York",
	"ct": "America/Chicago", "cst": "America/Chicago", "cdt": "America/Chicago",
	"central": "America/Chicago",
	"mt": "America/Denver", "mst": "America/Denver", "mdt": "America/Denver",
	"mountain": "America/Denver",
	"pt": "America/Los_Angeles", "pst": "America/Los_Angeles", "pdt": "America/Los_Angeles",
	"pacific": "America/Los_Angeles",
	"akt": "America/Anchorage", "akst": "America/Anchorage", "akdt": "America/Anchorage",
	"hst": "Pacific/Honolulu",
}

var zoneAbbrevRegex = regexp.MustCompile(`(?i)\b(eastern|central|mountain|pacific|est|edt|cst|cdt|mst|mdt|pst|pdt|akst|akdt|hst|et|ct|mt|pt)\b`)

// US state to primary IANA zone. Split-zone states get the zone covering the
// bulk of their population.
var stateZones = map[string]string{
	"AL": "America/Chicago", "AK": "America/Anchorage", "AZ": "America/Phoenix",
	"AR": "America/Chicago", "CA": "America/Los_Angeles", "CO": "America/Denver",
	"CT": "America/New_York", "DE": "America/New_York", "FL": "America/New_York",
	"GA": "America/New_York", "HI": "Pacific/Honolulu", "ID": "America/Boise",
	"IL": "America/Chicago", "IN": "America/Indiana/Indianapolis", "IA": "America/Chicago",
	"KS": "America/Chicago", "KY": "America/New_York", "LA": "America/Chicago",
	"ME": "America/New_York", "MD": "America/New_York", "MA": "America/New_York",
	"MI": "America/Detroit", "MN": "America/Chicago", "MS": "America/Chicago",
	"MO": "America/Chicago", "MT": "America/Denver", "NE": "America/Chicago",
	"NV": "America/Los_Angeles", "NH": "America/New_York", "NJ": "America/New_York",
	"NM": "America/Denver", "NY": "America/New_York", "NC": "America/New_York",
	"ND": "America/Chicago", "OH": "America/New_York", "OK": "America/Chicago",
	"OR": "America/Los_Angeles", "PA": "America/New_York", "RI": "America/New_York",
	"SC": "America/New_York", "SD": "America/Chicago", "TN": "America/Chicago",
	"TX": "America/Chicago", "UT": "America/Denver", "VT": "America/New_York",
	"VA": "America/New_York", "WA": "America/Los_Angeles", "WV": "America/New_York",
	"WI": "America/Chicago", "WY": "America/Denver", "DC": "America/New_York",
}

var stateNames = map[string]string{
	"alabama": "AL", "alaska": "AK", "arizona": "AZ", "arkansas": "AR",
	"california": "CA", "colorado": "CO", "connecticut": "CT", "delaware": "DE",
	"florida": "FL", "georgia": "GA", "hawaii": "HI", "idaho": "ID",
	"illinois": "IL", "indiana": "IN", "iowa": "IA", "kansas": "KS",
	"kentucky": "KY", "louisiana": "LA", "maine": "ME", "maryland": "MD",
	"massachusetts": "MA", "michigan": "MI", "minnesota": "MN", "mississippi": "MS",
	"missouri": "MO", "montana": "MT", "nebraska": "NE", "nevada": "NV",
	"new hampshire": "NH", "new jersey": "NJ", "new mexico": "NM", "new york": "NY",
	"north carolina": "NC", "north dakota": "ND", "ohio": "OH", "oklahoma": "OK",
	"oregon": "OR", "pennsylvania": "PA", "rhode island": "RI", "south carolina": "SC",
	"south dakota": "SD", "tennessee": "TN", "texas": "TX", "utah": "UT",
	"vermont": "VT", "virginia": "VA", "washington": "WA", "west virginia": "WV",
	"wisconsin": "WI", "wyoming": "WY", "district of columbia": "DC",
}

// ResolveZone picks the timezone for interpreting a lead's time expression:
// an explicit abbreviation in the text wins, then the lead's state, then the
// configured default.
func ResolveZone(body, usState, defaultTZ string) *time.Location {
	if m := zoneAbbrevRegex.FindString(body); m != "" {
		if name, ok := zoneAbbrevs[strings.ToLower(m)]; ok {
			if loc, err := time.LoadLocation(name); err == nil {
				return loc
			}
		}
	}
	if loc := stateLocation(usState); loc != nil {
		return loc
	}
	if defaultTZ != "" {
		if loc, err := time.LoadLocation(defaultTZ); err == nil {
			return loc
		}
	}
	return time.UTC
}

func stateLocation(usState string) *time.Location {
	s := strings.ToLower(strings.TrimSpace(usState))
	if s == "" {
		return nil
	}
	code := strings.ToUpper(s)
	if len(s) != 2 {
		c, ok := stateNames[s]
		if !ok {
			return nil
		}
		code = c
	}
	name, ok := stateZones[code]
	if !ok {
		return nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil
	}
	return loc
}

var (
	clockRegex    = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*(am|pm|a\.m\.|p\.m\.)?\b`)
	meridiemRegex = regexp.MustCompile(`(?i)\b\d{1,2}(?::\d{2})?\s*(am|pm|a\.m\.|p\.m\.)`)
	tomorrowRegex = regexp.MustCompile(`(?i)\btomorrow\b`)
	todayRegex    = regexp.MustCompile(`(?i)\b(today|tonight|this\s+(?:morning|afternoon|evening))\b`)
	weekdayRegex  = regexp.MustCompile(`(?i)\b(monday|mon|tuesday|tues?|wednesday|wed|thursday|thur?s?|friday|fri|saturday|sat|sunday|sun)\b`)
	monthDayRegex = regexp.MustCompile(`(?i)\b(january|jan|february|feb|march|mar|april|apr|may|june|jun|july|jul|august|aug|september|sept?|october|oct|november|nov|december|dec)\s+(\d{1,2})(?:st|nd|rd|th)?\b`)
	numericRegex  = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})\b`)
	confirmRegex  = regexp.MustCompile(`(?i)\b(sounds\s+good|that\s+works|works\s+for\s+me|perfect|yes|yep|yeah|sure|ok(?:ay)?|confirmed?|let'?s\s+do\s+it|see\s+you\s+then)\b`)
)

var weekdayIndex = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

var monthIndex = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may": time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September, "sept": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

// ParseTimePhrase extracts an explicit appointment instant from body,
// resolved in loc. Supported shapes: "tomorrow 3pm", "today at 10",
// weekday names (next occurrence), "june 5 at 3pm", "6/5 3pm", and a bare
// clock time (next occurrence of that clock). Returns false when the body
// carries no parseable time.
func ParseTimePhrase(body string, now time.Time, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return time.Time{}, false
	}
	local := now.In(loc)

	hour, minute, hasClock := extractClock(body)

	// Month/day forms carry their own date; a missing clock defaults to
	// mid-morning so the booking engine has a concrete instant to evaluate.
	if m := monthDayRegex.FindStringSubmatch(body); m != nil {
		month := monthIndex[strings.ToLower(m[1])]
		day, _ := strconv.Atoi(m[2])
		if !hasClock {
			hour, minute = 10, 0
		}
		candidate := time.Date(local.Year(), month, day, hour, minute, 0, 0, loc)
		if candidate.Before(local) {
			candidate = candidate.AddDate(1, 0, 0)
		}
		return candidate, true
	}
	if m := numericRegex.FindStringSubmatch(body); m != nil {
		monthNum, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		if monthNum >= 1 && monthNum <= 12 && day >= 1 && day <= 31 {
			// Re-extract the clock from the text after the date token so the
			// date digits cannot be mistaken for an "at N" hour.
			rest := strings.Replace(body, m[0], "", 1)
			hour, minute, hasClock = extractClock(rest)
			if !hasClock {
				hour, minute = 10, 0
			}
			candidate := time.Date(local.Year(), time.Month(monthNum), day, hour, minute, 0, 0, loc)
			if candidate.Before(local) {
				candidate = candidate.AddDate(1, 0, 0)
			}
			return candidate, true
		}
	}

	if tomorrowRegex.MatchString(body) {
		if !hasClock {
			hour, minute = 10, 0
		}
		d := local.AddDate(0, 0, 1)
		return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, loc), true
	}

	if m := weekdayRegex.FindStringSubmatch(body); m != nil {
		target := weekdayIndex[strings.ToLower(m[1])]
		if !hasClock {
			hour, minute = 10, 0
		}
		days := (int(target) - int(local.Weekday()) + 7) % 7
		candidate := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc).AddDate(0, 0, days)
		if !candidate.After(local) {
			candidate = candidate.AddDate(0, 0, 7)
		}
		return candidate, true
	}

	if todayRegex.MatchString(body) && hasClock {
		candidate := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
		if candidate.Before(local) {
			candidate = candidate.AddDate(0, 0, 1)
		}
		return candidate, true
	}

	// Bare clock: next occurrence.
	if hasClock {
		candidate := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
		if !candidate.After(local) {
			candidate = candidate.AddDate(0, 0, 1)
		}
		return candidate, true
	}

	return time.Time{}, false
}

var atClockRegex = regexp.MustCompile(`(?i)\bat\s+(\d{1,2})(?::(\d{2}))?\s*(am|pm|a\.m\.|p\.m\.)?\b`)

// extractClock pulls the first plausible clock expression. Without a
// meridiem, small hours are read as afternoon since nobody books a 3am
// insurance call.
func extractClock(body string) (hour, minute int, ok bool) {
	// "at 4" is explicit enough to accept a bare hour.
	if m := atClockRegex.FindStringSubmatch(body); m != nil {
		if h, min, valid := normalizeClock(m[1], m[2], m[3], true); valid {
			return h, min, true
		}
	}
	for _, m := range clockRegex.FindAllStringSubmatch(body, -1) {
		if h, min, valid := normalizeClock(m[1], m[2], m[3], false); valid {
			return h, min, true
		}
	}
	return 0, 0, false
}

func normalizeClock(hourStr, minStr, meridiemStr string, allowBare bool) (int, int, bool) {
	h, err := strconv.Atoi(hourStr)
	if err != nil || h > 23 {
		return 0, 0, false
	}
	min := 0
	if minStr != "" {
		min, err = strconv.Atoi(minStr)
		if err != nil || min > 59 {
			return 0, 0, false
		}
	}
	meridiem := strings.ToLower(strings.ReplaceAll(meridiemStr, ".", ""))
	switch meridiem {
	case "pm":
		if h < 12 {
			h += 12
		}
	case "am":
		if h == 12 {
			h = 0
		}
	default:
		// A bare number with no colon and no meridiem is too ambiguous to
		// trust ("I have 2 kids") unless it follows "at".
		if minStr == "" && !allowBare {
			return 0, 0, false
		}
		if h >= 1 && h <= 7 {
			h += 12
		}
	}
	return h, min, true
}

// IsConfirmation reports whether body is agreement language with no explicit
// time of its own; such a reply binds to the system's last proposed slot.
func IsConfirmation(body string) bool {
	if _, _, hasClock := extractClock(body); hasClock {
		return false
	}
	if tomorrowRegex.MatchString(body) || weekdayRegex.MatchString(body) || monthDayRegex.MatchString(body) {
		return false
	}
	return confirmRegex.MatchString(body)
}

// HasMeridiem reports whether the body spells out am/pm anywhere.
func HasMeridiem(body string) bool {
	return meridiemRegex.MatchString(body)
}
