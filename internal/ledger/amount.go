package ledger

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount reads a ledger cell. Thousands separators and surrounding
// whitespace are ignored; blanks, lone hyphens and anything else that is not
// a number read as zero.
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" || s == "-" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FormatKES renders an amount as "KES 1,234.50".
func FormatKES(d decimal.Decimal) string {
	return "KES " + Thousands(d)
}

// Thousands renders d with two decimals and comma grouping.
func Thousands(d decimal.Decimal) string {
	s := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + "." + frac
}
