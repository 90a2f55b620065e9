// Package ledger derives each household's year-to-date payments, current
// debt and payment status from its raw monthly ledger.
//
// Every function here is total: malformed input degrades to zero amounts,
// the default rate, or December, and nothing returns an error.
package ledger

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/suyash01/zawadi/internal/models"
)

type Status string

const (
	UpToDate  Status = "Up-to-date"
	Behind    Status = "1-2 months behind"
	FarBehind Status = "more than 2 months behind"
)

// behindAllowed is the most zero months a household can have and still be
// "1-2 months behind".
const behindAllowed = 2

// Statuses lists the payment statuses in severity order.
var Statuses = []Status{UpToDate, Behind, FarBehind}

var defaultRate = decimal.NewFromInt(2000)

// RateTable maps a rate category to its monthly amount.
type RateTable map[string]decimal.Decimal

// NewRateTable indexes rates by category. An empty list yields the default
// categories.
func NewRateTable(rates []models.Rate) RateTable {
	if len(rates) == 0 {
		rates = models.DefaultRates
	}
	t := make(RateTable, len(rates))
	for _, r := range rates {
		t[r.Category] = r.Amount
	}
	return t
}

// Categories returns the categories in the order given by rates, or the
// defaults when rates is empty.
func Categories(rates []models.Rate) []string {
	if len(rates) == 0 {
		rates = models.DefaultRates
	}
	out := make([]string, 0, len(rates))
	for _, r := range rates {
		out = append(out, r.Category)
	}
	return out
}

// MonthlyRate is the household's monthly due. A missing or unknown category
// silently falls back to the Resident rate of 2000.
func (t RateTable) MonthlyRate(h models.Household) decimal.Decimal {
	cat := strings.TrimSpace(h.RateCategory)
	if cat == "" {
		return defaultRate
	}
	if amt, ok := t[cat]; ok {
		return amt
	}
	return defaultRate
}

func monthAmount(h models.Household, m Month) decimal.Decimal {
	v := h.Months[m]
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}

// YearToDate sums the household's payments from January through m.
func YearToDate(h models.Household, m Month) decimal.Decimal {
	total := decimal.Zero
	for _, mm := range m.Elapsed() {
		total = total.Add(monthAmount(h, mm))
	}
	return total
}

// Liability is what the household should have paid from January through m.
func Liability(h models.Household, m Month, rates RateTable) decimal.Decimal {
	if !m.Valid() {
		m = Dec
	}
	return decimal.NewFromInt(int64(m) + 1).Mul(rates.MonthlyRate(h))
}

// CurrentDebt is prior-year debt plus liability minus payments. Positive
// means the household owes.
func CurrentDebt(h models.Household, m Month, rates RateTable) decimal.Decimal {
	return h.PriorDebt.Add(Liability(h, m, rates)).Sub(YearToDate(h, m))
}

// MonthsOwed counts the zero-valued months from January through m.
func MonthsOwed(h models.Household, m Month) int {
	n := 0
	for _, mm := range m.Elapsed() {
		if monthAmount(h, mm).IsZero() {
			n++
		}
	}
	return n
}

// PaymentStatus classifies the household. The debt check runs first, so a
// household in credit is up to date even if some months are zero.
func PaymentStatus(h models.Household, m Month, rates RateTable) Status {
	if !CurrentDebt(h, m, rates).IsPositive() {
		return UpToDate
	}
	if MonthsOwed(h, m) <= behindAllowed {
		return Behind
	}
	return FarBehind
}

// Figures are the derived values shown next to a household row.
type Figures struct {
	YTD        decimal.Decimal
	Liability  decimal.Decimal
	Debt       decimal.Decimal
	MonthsOwed int
	Status     Status
}

func Derive(h models.Household, m Month, rates RateTable) Figures {
	f := Figures{
		YTD:        YearToDate(h, m),
		Liability:  Liability(h, m, rates),
		Debt:       CurrentDebt(h, m, rates),
		MonthsOwed: MonthsOwed(h, m),
	}
	f.Status = PaymentStatus(h, m, rates)
	return f
}

// Row pairs a household with its derived figures.
type Row struct {
	models.Household
	Figures
}

func DeriveAll(hs []models.Household, m Month, rates RateTable) []Row {
	out := make([]Row, 0, len(hs))
	for _, h := range hs {
		out = append(out, Row{Household: h, Figures: Derive(h, m, rates)})
	}
	return out
}
