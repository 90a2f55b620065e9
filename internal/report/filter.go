package report

import (
	"sort"
	"strings"
	"time"

	"github.com/suyash01/zawadi/internal/ledger"
	"github.com/suyash01/zawadi/internal/models"
)

// All is the filter value that matches everything.
const All = "All"

type HouseholdFilter struct {
	Family string
	Lane   string
	Status string
	Rate   string
}

func matches(want, got string) bool {
	return want == "" || want == All || strings.EqualFold(strings.TrimSpace(want), strings.TrimSpace(got))
}

func FilterRows(rows []ledger.Row, f HouseholdFilter) []ledger.Row {
	out := make([]ledger.Row, 0, len(rows))
	for _, r := range rows {
		if matches(f.Family, r.FamilyName) && matches(f.Lane, r.Lane) &&
			matches(f.Status, string(r.Status)) && matches(f.Rate, r.RateCategory) {
			out = append(out, r)
		}
	}
	return out
}

// Families lists the distinct family names, sorted.
func Families(hs []models.Household) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(hs))
	for _, h := range hs {
		name := strings.TrimSpace(h.FamilyName)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

type ExpenseFilter struct {
	Month    string
	Category string
}

// FilterExpenses keeps expenses dated in the given month code and category.
// Undated expenses only match when no month is selected.
func FilterExpenses(es []models.Expense, f ExpenseFilter) []models.Expense {
	out := make([]models.Expense, 0, len(es))
	for _, e := range es {
		if f.Month != "" && f.Month != All {
			if e.Date.IsZero() || ledger.CurrentMonth(e.Date) != ledger.ParseMonth(f.Month) {
				continue
			}
		}
		if matches(f.Category, e.Category) {
			out = append(out, e)
		}
	}
	return out
}

func FilterSpecial(ss []models.SpecialContribution, kind string) []models.SpecialContribution {
	out := make([]models.SpecialContribution, 0, len(ss))
	for _, s := range ss {
		if matches(kind, s.Type) {
			out = append(out, s)
		}
	}
	return out
}

// Upcoming lists special events dated today or later, soonest first.
func Upcoming(ss []models.SpecialContribution, today time.Time) []models.SpecialContribution {
	y, m, d := today.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, today.Location())

	out := make([]models.SpecialContribution, 0)
	for _, s := range ss {
		if !s.Date.Before(start) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
