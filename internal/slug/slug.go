// Package slug derives deterministic ASCII tokens from arbitrary display
// strings. The same input always yields the same token, which makes slugs
// usable as stable natural keys for channels and programs.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripDiacritics decomposes characters and removes combining marks,
// so "Café" becomes "Cafe".
var stripDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

const separator = '-'

// Make converts s into a lowercase ASCII token: diacritics are stripped,
// runs of non-alphanumeric characters collapse into a single separator,
// and leading/trailing separators are trimmed.
func Make(s string) string {
	normalized, _, err := transform.String(stripDiacritics, s)
	if err != nil {
		// Fall back to the raw input; the collapse below still
		// produces a usable token.
		normalized = s
	}

	var b strings.Builder
	b.Grow(len(normalized))
	pendingSep := false
	for _, r := range strings.ToLower(normalized) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSep && b.Len() > 0 {
				b.WriteRune(separator)
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}

// MakeN behaves like Make but truncates the token to at most max bytes,
// trimming any separator left dangling at the cut point.
func MakeN(s string, max int) string {
	token := Make(s)
	if max <= 0 || len(token) <= max {
		return token
	}
	return strings.TrimRight(token[:max], string(separator))
}
