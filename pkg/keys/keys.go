// Package keys derives cache keys and artifact names from free-text titles.
package keys

import (
	"strings"
	"unicode"
)

// Normalize maps a title to its canonical cache key: lower-cased, stripped of
// everything outside [a-z0-9], whitespace and '-', with whitespace runs collapsed
// to a single space and the ends trimmed.
//
// Titles that normalize to the same key share one cache entry.
func Normalize(title string) string {
	var b strings.Builder
	b.Grow(len(title))

	pendingSpace := false
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsSpace(r):
			pendingSpace = b.Len() > 0
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			if pendingSpace {
				b.WriteByte(' ')
				pendingSpace = false
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ArtifactName turns a normalized key into a filesystem-safe object name.
func ArtifactName(normalizedKey string) string {
	return strings.ReplaceAll(normalizedKey, " ", "-")
}
