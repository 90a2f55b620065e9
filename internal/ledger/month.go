package ledger

import (
	"strings"
	"time"
)

// Month indexes the twelve dues slots, January = 0.
type Month int

const (
	Jan Month = iota
	Feb
	Mar
	Apr
	May
	Jun
	Jul
	Aug
	Sep
	Oct
	Nov
	Dec
)

var monthCodes = [12]string{"JAN", "FEB", "MAR", "APR", "MAY", "JUN", "JUL", "AUG", "SEP", "OCT", "NOV", "DEC"}

// Months returns the twelve month codes in calendar order.
func Months() []string {
	out := make([]string, len(monthCodes))
	copy(out, monthCodes[:])
	return out
}

// ParseMonth maps a 3-letter code to a Month. Anything unrecognised is
// treated as December, i.e. the whole year has elapsed.
func ParseMonth(code string) Month {
	code = strings.ToUpper(strings.TrimSpace(code))
	for i, c := range monthCodes {
		if c == code {
			return Month(i)
		}
	}
	return Dec
}

func CurrentMonth(now time.Time) Month {
	return Month(now.Month() - 1)
}

func (m Month) Valid() bool {
	return m >= Jan && m <= Dec
}

func (m Month) String() string {
	if !m.Valid() {
		return monthCodes[Dec]
	}
	return monthCodes[m]
}

// Elapsed lists the months from January through m inclusive.
func (m Month) Elapsed() []Month {
	if !m.Valid() {
		m = Dec
	}
	out := make([]Month, 0, int(m)+1)
	for i := Jan; i <= m; i++ {
		out = append(out, i)
	}
	return out
}
