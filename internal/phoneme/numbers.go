package phoneme

import (
	"fmt"
	"strconv"
	"strings"
)

// Number converter directives accepted in the N_converter input form.
const (
	converterCardinal   = "cardinal"
	converterOrdinal    = "ordinal"
	converterOrdinalNum = "ordinal_num"
	converterYear       = "year"
	converterCurrency   = "currency"
)

// convertNumber expands a digit string into spoken words using the named
// converter. An unrecognized converter is a configuration error and is
// surfaced before any inference work starts.
func convertNumber(digits, converter string) ([]string, error) {
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse number %q: %w", digits, err)
	}

	switch converter {
	case converterCardinal:
		return strings.Fields(cardinal(n)), nil
	case converterOrdinal, converterOrdinalNum:
		return strings.Fields(ordinal(n)), nil
	case converterYear:
		return strings.Fields(yearWords(n)), nil
	case converterCurrency:
		return expandCurrency(digits)
	default:
		return nil, fmt.Errorf("unknown number converter %q (want cardinal, ordinal, ordinal_num, year, or currency)", converter)
	}
}

// expandCurrency turns an amount like 5.50 into "five dollars fifty cents".
func expandCurrency(amount string) ([]string, error) {
	whole, frac, _ := strings.Cut(amount, ".")
	if whole == "" {
		whole = "0"
	}
	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse currency amount %q: %w", amount, err)
	}

	unit := "dollars"
	if n == 1 {
		unit = "dollar"
	}
	words := strings.Fields(cardinal(n) + " " + unit)

	if frac != "" {
		if len(frac) == 1 {
			frac += "0"
		}
		cents, err := strconv.ParseInt(frac[:2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse cents in %q: %w", amount, err)
		}
		if cents > 0 {
			centUnit := "cents"
			if cents == 1 {
				centUnit = "cent"
			}
			words = append(words, strings.Fields(cardinal(cents))...)
			words = append(words, centUnit)
		}
	}
	return words, nil
}

var ones = []string{
	"zero", "one", "two", "three", "four", "five", "six", "seven", "eight",
	"nine", "ten", "eleven", "twelve", "thirteen", "fourteen", "fifteen",
	"sixteen", "seventeen", "eighteen", "nineteen",
}

var tens = []string{
	"", "", "twenty", "thirty", "forty", "fifty", "sixty", "seventy",
	"eighty", "ninety",
}

var scales = []struct {
	value int64
	name  string
}{
	{1_000_000_000_000, "trillion"},
	{1_000_000_000, "billion"},
	{1_000_000, "million"},
	{1_000, "thousand"},
}

func cardinal(n int64) string {
	if n < 0 {
		return "minus " + cardinal(-n)
	}
	if n < 20 {
		return ones[n]
	}
	if n < 100 {
		s := tens[n/10]
		if n%10 != 0 {
			s += " " + ones[n%10]
		}
		return s
	}
	if n < 1000 {
		s := ones[n/100] + " hundred"
		if n%100 != 0 {
			s += " " + cardinal(n%100)
		}
		return s
	}
	for _, scale := range scales {
		if n >= scale.value {
			s := cardinal(n/scale.value) + " " + scale.name
			if n%scale.value != 0 {
				s += " " + cardinal(n%scale.value)
			}
			return s
		}
	}
	return ones[0]
}

var irregularOrdinals = map[string]string{
	"one":    "first",
	"two":    "second",
	"three":  "third",
	"five":   "fifth",
	"eight":  "eighth",
	"nine":   "ninth",
	"twelve": "twelfth",
}

func ordinal(n int64) string {
	words := strings.Fields(cardinal(n))
	last := words[len(words)-1]
	switch {
	case irregularOrdinals[last] != "":
		last = irregularOrdinals[last]
	case strings.HasSuffix(last, "y"):
		last = strings.TrimSuffix(last, "y") + "ieth"
	default:
		last += "th"
	}
	words[len(words)-1] = last
	return strings.Join(words, " ")
}

// yearWords speaks a four-digit year in pairs (1984 -> nineteen eighty four);
// years with a zero tens digit and other values fall back to cardinal.
func yearWords(n int64) string {
	if n >= 1000 && n <= 9999 {
		hi, lo := n/100, n%100
		switch {
		case lo == 0:
			return cardinal(hi) + " hundred"
		case lo < 10:
			return cardinal(hi) + " oh " + cardinal(lo)
		default:
			return cardinal(hi) + " " + cardinal(lo)
		}
	}
	return cardinal(n)
}
