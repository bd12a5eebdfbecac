// Package reply composes and sanitizes outbound SMS text. Every reply,
// whatever produced it, passes through Sanitize before dispatch.
package reply

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	maxSentences = 2
	maxChars     = 240
)

var (
	urlRegex      = regexp.MustCompile(`(?i)\b(?:https?://|www\.)\S+`)
	spaceRegex    = regexp.MustCompile(`[ \t]{2,}`)
	sentenceRegex = regexp.MustCompile(`[^.!?]+[.!?]*\s*`)
)

// Sanitize strips URLs and emoji, truncates to at most two sentences, and
// hard-caps the result at 240 characters.
func Sanitize(text string) string {
	text = urlRegex.ReplaceAllString(text, "")
	text = stripEmoji(text)
	text = spaceRegex.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)

	if text == "" {
		return ""
	}

	sentences := sentenceRegex.FindAllString(text, -1)
	if len(sentences) > maxSentences {
		text = strings.TrimSpace(strings.Join(sentences[:maxSentences], ""))
	}

	if len(text) > maxChars {
		cut := truncateRunes(text, maxChars)
		if idx := strings.LastIndex(cut, " "); idx > maxChars/2 {
			cut = cut[:idx]
		}
		text = strings.TrimSpace(cut)
	}
	return text
}

// truncateRunes cuts s to at most max bytes without splitting a rune.
func truncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

func stripEmoji(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isEmoji(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isEmoji(r rune) bool {
	switch {
	case r >= 0x1F000 && r <= 0x1FAFF: // Mahjong through Symbols-Extended
		return true
	case r >= 0x2600 && r <= 0x27BF: // Misc symbols, dingbats
		return true
	case r >= 0x2B00 && r <= 0x2BFF: // arrows, stars
		return true
	case r >= 0xFE00 && r <= 0xFE0F: // variation selectors
		return true
	case r == 0x200D: // zero-width joiner
		return true
	case r >= 0x1F1E6 && r <= 0x1F1FF: // regional indicators
		return true
	}
	return false
}
