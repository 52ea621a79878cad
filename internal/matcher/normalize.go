package matcher

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var featTokens = map[string]bool{
	"feat":      true,
	"ft":        true,
	"featuring": true,
}

// Normalize folds text into the comparable form used for scoring:
// accents stripped, lowercase, bracketed segments and feat tokens removed,
// punctuation dropped, whitespace collapsed.
func Normalize(s string) string {
	return normalize(s, true)
}

// normalizeKeepBrackets is Normalize without dropping bracket contents,
// so hints like "(Karaoke Version)" stay visible.
func normalizeKeepBrackets(s string) string {
	return normalize(s, false)
}

func normalize(s string, dropBrackets bool) string {
	s = foldAccents(s)
	s = strings.ToLower(s)
	if dropBrackets {
		s = stripBrackets(s)
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}

	words := strings.Fields(b.String())
	kept := words[:0]
	for _, w := range words {
		if featTokens[w] {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

func foldAccents(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// stripBrackets removes (...), [...] and {...} segments, nesting aware
func stripBrackets(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	depth := 0
	for _, r := range s {
		switch r {
		case '(', '[', '{':
			depth++
			b.WriteByte(' ')
			continue
		case ')', ']', '}':
			if depth > 0 {
				depth--
			}
			b.WriteByte(' ')
			continue
		}
		if depth == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// containsPhrase reports whether phrase occurs in text on word boundaries.
// Both arguments must already be normalized.
func containsPhrase(text, phrase string) bool {
	if phrase == "" || text == "" {
		return false
	}
	return strings.Contains(" "+text+" ", " "+phrase+" ")
}
