// Package report turns the ledgers into dashboard tables, summary reports,
// the Excel workbook and household PDF statements.
package report

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/suyash01/zawadi/internal/ledger"
	"github.com/suyash01/zawadi/internal/models"
	"github.com/suyash01/zawadi/internal/store"
)

// Snapshot is every ledger as read at one point, with household figures
// derived for Month.
type Snapshot struct {
	Month ledger.Month
	Rates ledger.RateTable

	Households           []models.Household
	RateList             []models.Rate
	Expenses             []models.Expense
	ExpenseRequests      []models.ExpenseRequest
	Special              []models.SpecialContribution
	SpecialRequests      []models.SpecialRequest
	ContributionRequests []models.ContributionRequest
	Cash                 models.CashSnapshot

	Rows []ledger.Row
}

// Load reads all ledgers concurrently.
func Load(ctx context.Context, s store.Store, now time.Time) (*Snapshot, error) {
	snap := &Snapshot{Month: ledger.CurrentMonth(now)}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snap.Households, err = s.ListHouseholds(ctx)
		return err
	})
	g.Go(func() (err error) {
		snap.RateList, err = s.ListRates(ctx)
		return err
	})
	g.Go(func() (err error) {
		snap.Expenses, err = s.ListExpenses(ctx)
		return err
	})
	g.Go(func() (err error) {
		snap.ExpenseRequests, err = s.ListExpenseRequests(ctx)
		return err
	})
	g.Go(func() (err error) {
		snap.Special, err = s.ListSpecial(ctx)
		return err
	})
	g.Go(func() (err error) {
		snap.SpecialRequests, err = s.ListSpecialRequests(ctx)
		return err
	})
	g.Go(func() (err error) {
		snap.ContributionRequests, err = s.ListContributionRequests(ctx)
		return err
	})
	g.Go(func() (err error) {
		snap.Cash, err = s.LatestCash(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap.Rates = ledger.NewRateTable(snap.RateList)
	snap.Rows = ledger.DeriveAll(snap.Households, snap.Month, snap.Rates)
	return snap, nil
}

type Totals struct {
	Contributions decimal.Decimal
	Debt          decimal.Decimal
	Expenses      decimal.Decimal
	Special       decimal.Decimal
	BroughtFwd    decimal.Decimal
	Households    int
}

func (s *Snapshot) Totals() Totals {
	t := Totals{Households: len(s.Rows)}
	for _, r := range s.Rows {
		t.Contributions = t.Contributions.Add(r.YTD)
		t.Debt = t.Debt.Add(r.Debt)
	}
	for _, e := range s.Expenses {
		t.Expenses = t.Expenses.Add(e.Amount)
	}
	for _, sc := range s.Special {
		t.Special = t.Special.Add(sc.Amount)
	}
	t.BroughtFwd = s.Cash.BroughtForward(t.Expenses)
	return t
}

// Row finds the derived row for a house number.
func (s *Snapshot) Row(houseNo string) (ledger.Row, bool) {
	for _, r := range s.Rows {
		if r.HouseNo == houseNo {
			return r, true
		}
	}
	return ledger.Row{}, false
}

func PendingContributions(reqs []models.ContributionRequest) []models.ContributionRequest {
	out := make([]models.ContributionRequest, 0)
	for _, r := range reqs {
		if r.Status == models.StatusPending {
			out = append(out, r)
		}
	}
	return out
}

func PendingExpenses(reqs []models.ExpenseRequest) []models.ExpenseRequest {
	out := make([]models.ExpenseRequest, 0)
	for _, r := range reqs {
		if r.Status == models.StatusPending {
			out = append(out, r)
		}
	}
	return out
}

func PendingSpecials(reqs []models.SpecialRequest) []models.SpecialRequest {
	out := make([]models.SpecialRequest, 0)
	for _, r := range reqs {
		if r.Status == models.StatusPending {
			out = append(out, r)
		}
	}
	return out
}
