package validate

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	reCountry  = regexp.MustCompile(`^[A-Z]{2}$`)
	reID       = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	reCurrency = regexp.MustCompile(`^[A-Z]{3}$`)
	reSKU      = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)
	reCode     = regexp.MustCompile(`^[A-Za-z0-9-]{1,32}$`)
	reEmail    = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
)

// Country normalizes and validates a 2-letter ISO country code.
func Country(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	return s, reCountry.MatchString(s)
}

// Qty parses a positive quantity, clamped to a sane upper bound.
func Qty(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, false
	}
	if n > 999 {
		return 0, false
	}
	return n, true
}

// ID validates a simple resource identifier (variant/offer/location ids).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// Currency validates a 3-letter ISO currency code.
func Currency(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	return s, reCurrency.MatchString(s)
}

// SKU validates a merchant-local SKU.
func SKU(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reSKU.MatchString(s)
}

// Code validates a discount code.
func Code(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reCode.MatchString(s)
}

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 50 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// Countries validates a listing-country set, normalizing to upper case.
func Countries(in []string) ([]string, bool) {
	if len(in) == 0 {
		return nil, false
	}
	out := make([]string, 0, len(in))
	seen := map[string]bool{}
	for _, c := range in {
		c, ok := Country(c)
		if !ok {
			return nil, false
		}
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out, true
}
