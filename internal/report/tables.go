package report

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/suyash01/zawadi/internal/ledger"
	"github.com/suyash01/zawadi/internal/models"
)

type Kind string

const (
	LaneWise          Kind = "lane"
	ExpenseCategories Kind = "expense-category"
	StatusBreakdown   Kind = "status"
	RateAnalysis      Kind = "rate"
	SpecialByType     Kind = "special"
	MonthlyTrend      Kind = "trend"
	MonthlyDetail     Kind = "monthly"
	ExpenseDetail     Kind = "expenses"
)

var Kinds = []Kind{LaneWise, ExpenseCategories, StatusBreakdown, RateAnalysis, SpecialByType, MonthlyTrend, MonthlyDetail, ExpenseDetail}

var titles = map[Kind]string{
	LaneWise:          "Lane-wise Contributions",
	ExpenseCategories: "Expense Category Breakdown",
	StatusBreakdown:   "Payment Status Distribution",
	RateAnalysis:      "Rate Category Analysis",
	SpecialByType:     "Special Contributions by Type",
	MonthlyTrend:      "Monthly Contributions vs Expenses",
	MonthlyDetail:     "Detailed Monthly Contributions",
	ExpenseDetail:     "Detailed Expense Records",
}

func (k Kind) Title() string { return titles[k] }

// ParseKind falls back to the lane-wise report for unknown values.
func ParseKind(s string) Kind {
	k := Kind(s)
	if _, ok := titles[k]; ok {
		return k
	}
	return LaneWise
}

// Bar is one bar of a report's chart. Percent is relative to the largest
// value in the chart.
type Bar struct {
	Label   string
	Value   decimal.Decimal
	Percent int
}

// Table is a rendered report. Cells hold a string, an int or a
// decimal.Decimal.
type Table struct {
	Kind    Kind
	Title   string
	Headers []string
	Rows    [][]any
	Chart   []Bar
}

func (s *Snapshot) Report(k Kind) Table {
	var t Table
	switch k {
	case ExpenseCategories:
		t = s.expenseCategories()
	case StatusBreakdown:
		t = s.statusBreakdown()
	case RateAnalysis:
		t = s.rateAnalysis()
	case SpecialByType:
		t = s.specialByType()
	case MonthlyTrend:
		t = s.monthlyTrend()
	case MonthlyDetail:
		t = s.monthlyDetail()
	case ExpenseDetail:
		t = s.expenseDetail()
	default:
		k = LaneWise
		t = s.laneWise()
	}
	t.Kind = k
	t.Title = k.Title()
	scale(t.Chart)
	return t
}

func scale(bars []Bar) {
	top := decimal.Zero
	for _, b := range bars {
		if b.Value.GreaterThan(top) {
			top = b.Value
		}
	}
	if !top.IsPositive() {
		return
	}
	for i := range bars {
		if !bars[i].Value.IsPositive() {
			continue
		}
		bars[i].Percent = int(bars[i].Value.Mul(decimal.NewFromInt(100)).Div(top).IntPart())
	}
}

// groupOrder returns known labels first, in their canonical order, then any
// others sorted.
func groupOrder(known []string, seen map[string]bool) []string {
	out := make([]string, 0, len(seen))
	for _, k := range known {
		if seen[k] {
			out = append(out, k)
			delete(seen, k)
		}
	}
	rest := make([]string, 0, len(seen))
	for k := range seen {
		rest = append(rest, k)
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func (s *Snapshot) laneWise() Table {
	type agg struct {
		ytd, debt decimal.Decimal
		count     int
	}
	lanes := make(map[string]*agg)
	seen := make(map[string]bool)
	for _, r := range s.Rows {
		a, ok := lanes[r.Lane]
		if !ok {
			a = &agg{}
			lanes[r.Lane] = a
			seen[r.Lane] = true
		}
		a.ytd = a.ytd.Add(r.YTD)
		a.debt = a.debt.Add(r.Debt)
		a.count++
	}

	t := Table{Headers: []string{"Lane", "Households", "YTD", "Current Debt"}}
	for _, lane := range groupOrder(models.Lanes, seen) {
		a := lanes[lane]
		label := lane
		if label == "" {
			label = "(none)"
		}
		t.Rows = append(t.Rows, []any{label, a.count, a.ytd, a.debt})
		t.Chart = append(t.Chart, Bar{Label: label, Value: a.ytd})
	}
	return t
}

func (s *Snapshot) expenseCategories() Table {
	totals := make(map[string]decimal.Decimal)
	seen := make(map[string]bool)
	for _, e := range s.Expenses {
		totals[e.Category] = totals[e.Category].Add(e.Amount)
		seen[e.Category] = true
	}

	t := Table{Headers: []string{"Category", "Total Amount"}}
	for _, c := range groupOrder(models.ExpenseCategories, seen) {
		t.Rows = append(t.Rows, []any{c, totals[c]})
		t.Chart = append(t.Chart, Bar{Label: c, Value: totals[c]})
	}
	return t
}

func (s *Snapshot) statusBreakdown() Table {
	counts := make(map[ledger.Status]int)
	for _, r := range s.Rows {
		counts[r.Status]++
	}

	t := Table{Headers: []string{"Status", "Households"}}
	for _, st := range ledger.Statuses {
		n := counts[st]
		t.Rows = append(t.Rows, []any{string(st), n})
		t.Chart = append(t.Chart, Bar{Label: string(st), Value: decimal.NewFromInt(int64(n))})
	}
	return t
}

// rateAnalysis only lists categories present in the rate table.
func (s *Snapshot) rateAnalysis() Table {
	type agg struct {
		ytd   decimal.Decimal
		count int
	}
	byRate := make(map[string]*agg)
	for _, r := range s.Rows {
		a, ok := byRate[r.RateCategory]
		if !ok {
			a = &agg{}
			byRate[r.RateCategory] = a
		}
		a.ytd = a.ytd.Add(r.YTD)
		a.count++
	}

	t := Table{Headers: []string{"Rate Category", "Households", "YTD", "Monthly Rate"}}
	for _, c := range ledger.Categories(s.RateList) {
		a, ok := byRate[c]
		if !ok {
			continue
		}
		t.Rows = append(t.Rows, []any{c, a.count, a.ytd, s.Rates[c]})
		t.Chart = append(t.Chart, Bar{Label: c, Value: decimal.NewFromInt(int64(a.count))})
	}
	return t
}

func (s *Snapshot) specialByType() Table {
	totals := make(map[string]decimal.Decimal)
	seen := make(map[string]bool)
	for _, sc := range s.Special {
		totals[sc.Type] = totals[sc.Type].Add(sc.Amount)
		seen[sc.Type] = true
	}

	t := Table{Headers: []string{"Type", "Total Amount"}}
	for _, typ := range groupOrder(models.SpecialTypes, seen) {
		t.Rows = append(t.Rows, []any{typ, totals[typ]})
		t.Chart = append(t.Chart, Bar{Label: typ, Value: totals[typ]})
	}
	return t
}

// MonthTotals sums household payments and expenses per calendar month.
func (s *Snapshot) MonthTotals() (contributions, expenses [12]decimal.Decimal) {
	for _, h := range s.Households {
		for m := range h.Months {
			contributions[m] = contributions[m].Add(h.Months[m])
		}
	}
	for _, e := range s.Expenses {
		if e.Date.IsZero() {
			continue
		}
		m := ledger.CurrentMonth(e.Date)
		expenses[m] = expenses[m].Add(e.Amount)
	}
	return contributions, expenses
}

func (s *Snapshot) monthlyTrend() Table {
	contrib, spent := s.MonthTotals()

	t := Table{Headers: []string{"Month", "Contributions", "Expenses", "Net"}}
	for m := ledger.Jan; m <= ledger.Dec; m++ {
		t.Rows = append(t.Rows, []any{m.String(), contrib[m], spent[m], contrib[m].Sub(spent[m])})
		t.Chart = append(t.Chart, Bar{Label: m.String(), Value: contrib[m]})
	}
	return t
}

func (s *Snapshot) monthlyDetail() Table {
	headers := []string{"House No", "Family Name", "Lane", "Rate Category"}
	headers = append(headers, ledger.Months()...)
	headers = append(headers, "YTD", "Current Debt", "Status")

	t := Table{Headers: headers}
	for _, r := range s.Rows {
		row := []any{r.HouseNo, r.FamilyName, r.Lane, r.RateCategory}
		for _, v := range r.Months {
			row = append(row, v)
		}
		row = append(row, r.YTD, r.Debt, string(r.Status))
		t.Rows = append(t.Rows, row)
	}
	return t
}

func (s *Snapshot) expenseDetail() Table {
	t := Table{Headers: []string{"Date", "Description", "Category", "Vendor", "Phone", "Amount", "Mode", "Remarks"}}
	for _, e := range s.Expenses {
		t.Rows = append(t.Rows, []any{formatDate(e.Date), e.Description, e.Category, e.Vendor, e.Phone, e.Amount, e.Mode, e.Remarks})
	}
	return t
}
