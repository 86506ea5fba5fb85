package text

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Clean applies the surface normalization steps shared by every matching path:
// Unicode NFKC, case folding and trimming, hyphens to spaces, removal of
// everything that is not a letter, digit or whitespace, and whitespace collapse.
// Clean never fails and is idempotent.
func Clean(s string) string {
	s = norm.NFKC.String(s)
	s = strings.ToLower(s)
	s = strings.TrimSpace(s)
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '-' || unicode.Is(unicode.Hyphen, r):
			return ' '
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			return r
		case unicode.IsSpace(r):
			return ' '
		default:
			return -1
		}
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// Tokens splits cleaned text into whitespace-separated tokens.
func Tokens(s string) []string {
	return strings.Fields(Clean(s))
}
