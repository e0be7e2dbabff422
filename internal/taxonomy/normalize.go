// Package taxonomy builds the keyword dictionary and evidence index used to
// score product text against the catalog taxonomy.
package taxonomy

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripAccents decomposes characters and removes combining marks, so
// "Pantalón" and "pantalon" normalize identically.
var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lower-cases, strips accents and collapses non-alphanumeric runs
// to single spaces. Keywords and input text must pass through the exact same
// normalization or matches silently fail.
func Normalize(s string) string {
	lowered := strings.ToLower(s)

	folded, _, err := transform.String(stripAccents, lowered)
	if err != nil {
		folded = lowered
	}

	var b strings.Builder
	b.Grow(len(folded))
	pendingSpace := false
	for _, r := range folded {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
		default:
			pendingSpace = true
		}
	}
	return b.String()
}

// Tokens normalizes s and splits it into tokens.
func Tokens(s string) []string {
	n := Normalize(s)
	if n == "" {
		return nil
	}
	return strings.Fields(n)
}

// labelTokens splits a taxonomy label like "camisa_de_lino" into normalized
// tokens.
func labelTokens(label string) []string {
	return Tokens(strings.ReplaceAll(label, "_", " "))
}

// labelStopwords are connective words that carry no evidence on their own.
var labelStopwords = map[string]struct{}{
	"de":  {},
	"del": {},
	"la":  {},
	"el":  {},
	"los": {},
	"las": {},
	"y":   {},
	"en":  {},
}

// meaningfulLabelTokens drops connective stopwords from label tokens.
func meaningfulLabelTokens(label string) []string {
	toks := labelTokens(label)
	out := make([]string, 0, len(toks))
	for _, t := range toks {
		if _, stop := labelStopwords[t]; stop {
			continue
		}
		out = append(out, t)
	}
	return out
}
