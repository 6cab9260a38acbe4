package selection

import (
	"regexp"
	"strconv"
	"strings"
)

// Price text arrives in several shapes: a bare decimal ("3.7"), a
// fraction ("5/2", "5 / 2"), or free text with a source tag wrapped
// around either ("EXC 4.8", "SP 11/4"). Parsing order matters: the
// fraction pattern runs before fragment extraction so "5/2" is never
// misread as the decimal 5.
var (
	decimalPattern  = regexp.MustCompile(`^\d+(\.\d+)?$`)
	fractionPattern = regexp.MustCompile(`^(\d+)\s*/\s*(\d+)$`)
	fragmentPattern = regexp.MustCompile(`(\d+(\.\d+)?)(\s*/\s*(\d+))?`)
)

// NormalizeOdds parses a raw odds string into decimal odds. It returns
// nil when the text carries no usable price. Decimal odds always exceed
// 1: a fraction a/b maps to a/b + 1, and a non-positive denominator is
// rejected.
func NormalizeOdds(raw string) *float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}

	if decimalPattern.MatchString(s) {
		return asOdds(parseFloat(s))
	}

	if m := fractionPattern.FindStringSubmatch(s); m != nil {
		return fractionOdds(m[1], m[2])
	}

	if m := fragmentPattern.FindStringSubmatch(s); m != nil {
		if m[4] != "" {
			return fractionOdds(m[1], m[4])
		}
		return asOdds(parseFloat(m[1]))
	}

	return nil
}

func fractionOdds(num, den string) *float64 {
	n := parseFloat(num)
	d := parseFloat(den)
	if d <= 0 {
		return nil
	}
	return asOdds(n/d + 1)
}

// asOdds enforces the decimal-odds invariant: a payout multiplier must
// exceed the stake.
func asOdds(v float64) *float64 {
	if v <= 1 {
		return nil
	}
	return &v
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}
