package etl

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const productIDSeparator = "__"

var (
	nonAlnumRun = regexp.MustCompile(`[^a-z0-9]+`)

	// Letters that do not decompose into an ASCII base plus combining marks.
	ligatures = strings.NewReplacer(
		"ß", "ss", "æ", "ae", "Æ", "ae", "œ", "oe", "Œ", "oe",
		"ø", "o", "Ø", "o", "ł", "l", "Ł", "l", "đ", "d", "Đ", "d",
		"þ", "th", "Þ", "th", "ı", "i",
	)
)

// ResolveProductID derives the canonical product key "{brand}__{name}__{variant}".
// Pure and deterministic: differently worded listings of the same physical item
// get different keys.
func ResolveProductID(brand, name, variant string) string {
	return Normalize(brand) + productIDSeparator + Normalize(name) + productIDSeparator + Normalize(variant)
}

// Normalize lower-cases s, folds it to ASCII where possible and collapses every run of
// other characters into a single hyphen. Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = ligatures.Replace(s)
	// NFKD splits "é" into "e" + U+0301 and folds compatibility forms like "ﬁ" and "²".
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}
	s = strings.ToLower(s)
	s = nonAlnumRun.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
