// Package strings holds the text normalization shared by audit entries and
// the string utilities surface.
package strings

import (
	"strings"
	"unicode"
)

// NormalizeTags lowercases and trims tags, joins inner whitespace with a
// dash and drops empties and duplicates. Order of first appearance is kept.
// A nil result means no usable tags.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(tags))
	var out []string
	for _, tag := range tags {
		t := strings.Join(strings.Fields(strings.ToLower(tag)), "-")
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Slugify turns a display name like "Bella's Bath & Brush" into
// "bellas-bath-brush". Letters and digits are kept, apostrophes vanish and
// every other run of characters becomes a single dash.
func Slugify(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pendingDash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		case r == '\'' || r == '’':
		default:
			pendingDash = true
		}
	}
	return b.String()
}

// Truncate shortens s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(runes[:n-1]) + "…"
}
