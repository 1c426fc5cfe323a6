package etl

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// MaxRating is the top of the rating scale every retailer reports on.
const MaxRating = 5

var (
	// maxPrice is the smallest value that no longer fits the numeric(10,2) price columns.
	maxPrice = decimal.New(1, 8)

	rangeDelimiters = []string{" - ", " – ", " — ", " to ", "–", "—"}
	decimalComma    = regexp.MustCompile(`^\d+,\d{1,2}$`)
)

// CleanPrice parses a scraped price string. Currency symbols, currency codes and
// whitespace are stripped; for a range such as "25.00 - 89.00" only the first value
// is kept. Unparsable input yields an invalid (absent) NullDecimal, never an error.
func CleanPrice(raw string) decimal.NullDecimal {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.NullDecimal{}
	}
	for _, delim := range rangeDelimiters {
		if i := strings.Index(s, delim); i > 0 {
			s = s[:i]
			break
		}
	}

	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.Is(unicode.Sc, r) || unicode.IsLetter(r) {
			return -1
		}
		return r
	}, s)
	// "25.00-89.00" once the spaces are gone
	if i := strings.Index(s, "-"); i > 0 {
		s = s[:i]
	}
	if decimalComma.MatchString(s) {
		s = strings.Replace(s, ",", ".", 1)
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}

	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// CleanRating parses a rating string. Blank or non-numeric input ("N/A") is absent.
func CleanRating(raw string) decimal.NullDecimal {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// inRatingScale reports whether a cleaned rating fits the 0..MaxRating scale.
func inRatingScale(r decimal.NullDecimal) bool {
	if !r.Valid {
		return true
	}
	return !r.Decimal.IsNegative() && r.Decimal.LessThanOrEqual(decimal.NewFromInt(MaxRating))
}

// inPriceRange reports whether a cleaned price can be stored once rounded to cents.
func inPriceRange(p decimal.NullDecimal) bool {
	if !p.Valid {
		return true
	}
	return p.Decimal.Round(2).LessThan(maxPrice)
}
