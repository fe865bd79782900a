// Package slug derives bot identifiers from human-readable display names.
package slug

import (
	"strings"
	"unicode"
)

const (
	// MaxLength is the hard cap on a derived or manually entered identifier.
	MaxLength = 60
)

// translit maps Cyrillic letters to their Latin spelling. Some letters expand
// to digraphs, the hard and soft signs vanish entirely.
var translit = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d",
	'е': "e", 'ё': "yo", 'ж': "zh", 'з': "z", 'и': "i",
	'й': "i", 'к': "k", 'л': "l", 'м': "m", 'н': "n",
	'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t",
	'у': "u", 'ф': "f", 'х': "kh", 'ц': "ts", 'ч': "ch",
	'ш': "sh", 'щ': "sch", 'ъ': "", 'ы': "y", 'ь': "",
	'э': "e", 'ю': "yu", 'я': "ya",
}

// Derive turns a display name into an identifier candidate: lowercase,
// transliterate, strip everything outside [a-z0-9 _-], hyphenate.
// An input with nothing usable yields "", meaning "not yet derivable" —
// callers must not confuse that with a deliberately empty identifier.
func Derive(name string) string {
	lowered := strings.ToLower(name)

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if mapped, ok := translit[r]; ok {
			b.WriteString(mapped)
			continue
		}
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || unicode.IsSpace(r):
			b.WriteRune(r)
		}
		// Anything else, underscores included, is dropped.
	}

	s := strings.TrimSpace(b.String())
	s = collapseSeparators(s)
	return truncate(s, MaxLength)
}

// SanitizeManual normalizes a hand-edited identifier. Manual edits are
// assumed to already be Latin, so no transliteration happens here: the input
// is lowercased and restricted to [a-z0-9-].
func SanitizeManual(id string) string {
	lowered := strings.ToLower(id)

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	return truncate(b.String(), MaxLength)
}

// Valid reports whether id is a well-formed identifier: non-empty, within
// the length cap, and containing only lowercase letters, digits and hyphens.
func Valid(id string) bool {
	if id == "" || len(id) > MaxLength {
		return false
	}
	for _, r := range id {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' {
			return false
		}
	}
	return true
}

// collapseSeparators folds runs of whitespace/underscores into a single
// hyphen, then folds repeated hyphens.
func collapseSeparators(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastHyphen := false
	for _, r := range s {
		if r == '-' || r == '_' || unicode.IsSpace(r) {
			if !lastHyphen {
				b.WriteRune('-')
				lastHyphen = true
			}
			continue
		}
		b.WriteRune(r)
		lastHyphen = false
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
