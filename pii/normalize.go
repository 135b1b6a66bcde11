package pii

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeText is the minimal cleanup applied to every record before
// detection: trim plus NBSP replacement. Anything heavier would shift the
// character offsets the detectors report.
func NormalizeText(text string) string {
	return strings.TrimSpace(strings.ReplaceAll(text, "\u00a0", " "))
}

// FoldDiacritics strips accents and compatibility marks (ç→c, ã→a, ª→a).
// NFKD is used so ordinal indicators in formal treatments fold too.
func FoldDiacritics(s string) string {
	// transformers carry state, so the chain is built per call
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeValue produces the comparison key used for dedup: lowercase,
// accent-folded, punctuation and whitespace insensitive. '210.201.140-24'
// and '21020114024' share a key; the literal form stored is whichever was
// seen first.
func NormalizeValue(s string) string {
	folded := strings.ToLower(FoldDiacritics(s))

	var b strings.Builder
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
