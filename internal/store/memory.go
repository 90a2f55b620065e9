package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/suyash01/zawadi/internal/ledger"
	"github.com/suyash01/zawadi/internal/models"
)

// Memory is an in-process Store. It backs the tests and STORE_DRIVER=memory.
type Memory struct {
	mu sync.RWMutex

	households  map[string]models.Household
	rates       map[string]models.Rate
	expenses    []models.Expense
	expenseReqs []models.ExpenseRequest
	special     []models.SpecialContribution
	specialReqs []models.SpecialRequest
	contribReqs []models.ContributionRequest
	cash        []models.CashSnapshot
	nextID      int64
	Now         func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		households: make(map[string]models.Household),
		rates:      make(map[string]models.Rate),
		Now:        time.Now,
	}
}

func (m *Memory) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *Memory) date(t time.Time) time.Time {
	if t.IsZero() {
		return m.Now()
	}
	return t
}

func (m *Memory) ListHouseholds(context.Context) ([]models.Household, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Household, 0, len(m.households))
	for _, h := range m.households {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HouseNo < out[j].HouseNo })
	return out, nil
}

func (m *Memory) UpsertHousehold(_ context.Context, h models.Household) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	h.UpdatedAt = m.Now()
	m.households[h.HouseNo] = h
	return nil
}

func (m *Memory) DeleteHousehold(_ context.Context, houseNo string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.households[houseNo]; !ok {
		return ErrNotFound
	}
	delete(m.households, houseNo)

	kept := m.contribReqs[:0]
	for _, r := range m.contribReqs {
		if r.HouseNo == houseNo && r.Status == models.StatusPending {
			continue
		}
		kept = append(kept, r)
	}
	m.contribReqs = kept
	return nil
}

func (m *Memory) SetHouseholdMonth(_ context.Context, houseNo string, month ledger.Month, amount decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.households[houseNo]
	if !ok {
		return fmt.Errorf("household %s: %w", houseNo, ErrNotFound)
	}
	if !month.Valid() {
		month = ledger.Dec
	}
	h.Months[month] = amount
	h.UpdatedAt = m.Now()
	m.households[houseNo] = h
	return nil
}

func (m *Memory) UpdateHouseholdRateEmail(_ context.Context, houseNo, category, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.households[houseNo]
	if !ok {
		return fmt.Errorf("household %s: %w", houseNo, ErrNotFound)
	}
	h.RateCategory = category
	h.Email = email
	h.UpdatedAt = m.Now()
	m.households[houseNo] = h
	return nil
}

func (m *Memory) ListRates(context.Context) ([]models.Rate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Rate, 0, len(m.rates))
	for _, r := range m.rates {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

func (m *Memory) UpsertRate(_ context.Context, r models.Rate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rates[r.Category] = r
	return nil
}

func (m *Memory) ListExpenses(context.Context) ([]models.Expense, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append(make([]models.Expense, 0, len(m.expenses)), m.expenses...), nil
}

func (m *Memory) InsertExpense(_ context.Context, e models.Expense) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e.ID = m.id()
	e.Date = m.date(e.Date)
	m.expenses = append(m.expenses, e)
	return e.ID, nil
}

func (m *Memory) ListExpenseRequests(context.Context) ([]models.ExpenseRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append(make([]models.ExpenseRequest, 0, len(m.expenseReqs)), m.expenseReqs...), nil
}

func (m *Memory) InsertExpenseRequest(_ context.Context, r models.ExpenseRequest) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r.ID = m.id()
	r.Date = m.date(r.Date)
	r.Status = models.StatusPending
	m.expenseReqs = append(m.expenseReqs, r)
	return r.ID, nil
}

func (m *Memory) UpdateExpenseRequestStatus(_ context.Context, id int64, status, remark string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.expenseReqs {
		r := &m.expenseReqs[i]
		if r.ID != id {
			continue
		}
		if r.Status != models.StatusPending {
			return fmt.Errorf("expense request %d is %q: %w", id, r.Status, ErrAlreadyDecided)
		}
		r.Status = status
		r.Remarks = AppendRemark(remark, r.Remarks)
		return nil
	}
	return fmt.Errorf("expense request %d: %w", id, ErrNotFound)
}

func (m *Memory) ReopenExpenseRequest(_ context.Context, id int64, remarks string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.expenseReqs {
		r := &m.expenseReqs[i]
		if r.ID == id && r.Status == models.StatusApprove {
			r.Status = models.StatusPending
			r.Remarks = remarks
			return nil
		}
	}
	return fmt.Errorf("reopen expense request %d: %w", id, ErrNotFound)
}

func (m *Memory) ListSpecial(context.Context) ([]models.SpecialContribution, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append(make([]models.SpecialContribution, 0, len(m.special)), m.special...), nil
}

func (m *Memory) InsertSpecial(_ context.Context, s models.SpecialContribution) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s.ID = m.id()
	s.Date = m.date(s.Date)
	m.special = append(m.special, s)
	return s.ID, nil
}

func (m *Memory) ListSpecialRequests(context.Context) ([]models.SpecialRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append(make([]models.SpecialRequest, 0, len(m.specialReqs)), m.specialReqs...), nil
}

func (m *Memory) InsertSpecialRequest(_ context.Context, r models.SpecialRequest) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r.ID = m.id()
	r.Date = m.date(r.Date)
	r.Status = models.StatusPending
	m.specialReqs = append(m.specialReqs, r)
	return r.ID, nil
}

func (m *Memory) UpdateSpecialRequestStatus(_ context.Context, id int64, status, remark string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.specialReqs {
		r := &m.specialReqs[i]
		if r.ID != id {
			continue
		}
		if r.Status != models.StatusPending {
			return fmt.Errorf("special request %d is %q: %w", id, r.Status, ErrAlreadyDecided)
		}
		r.Status = status
		r.Remarks = AppendRemark(remark, r.Remarks)
		return nil
	}
	return fmt.Errorf("special request %d: %w", id, ErrNotFound)
}

func (m *Memory) ReopenSpecialRequest(_ context.Context, id int64, remarks string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.specialReqs {
		r := &m.specialReqs[i]
		if r.ID == id && r.Status == models.StatusApprove {
			r.Status = models.StatusPending
			r.Remarks = remarks
			return nil
		}
	}
	return fmt.Errorf("reopen special request %d: %w", id, ErrNotFound)
}

func (m *Memory) ListContributionRequests(context.Context) ([]models.ContributionRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append(make([]models.ContributionRequest, 0, len(m.contribReqs)), m.contribReqs...), nil
}

func (m *Memory) InsertContributionRequest(_ context.Context, r models.ContributionRequest) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r.ID = m.id()
	r.Date = m.date(r.Date)
	r.Status = models.StatusPending
	m.contribReqs = append(m.contribReqs, r)
	return r.ID, nil
}

func (m *Memory) UpdateContributionRequestStatus(_ context.Context, id int64, status, remark string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.contribReqs {
		r := &m.contribReqs[i]
		if r.ID != id {
			continue
		}
		if r.Status != models.StatusPending {
			return fmt.Errorf("contribution request %d is %q: %w", id, r.Status, ErrAlreadyDecided)
		}
		r.Status = status
		r.Remarks = AppendRemark(remark, r.Remarks)
		return nil
	}
	return fmt.Errorf("contribution request %d: %w", id, ErrNotFound)
}

func (m *Memory) ReopenContributionRequest(_ context.Context, id int64, remarks string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.contribReqs {
		r := &m.contribReqs[i]
		if r.ID == id && r.Status == models.StatusApprove {
			r.Status = models.StatusPending
			r.Remarks = remarks
			return nil
		}
	}
	return fmt.Errorf("reopen contribution request %d: %w", id, ErrNotFound)
}

func (m *Memory) LatestCash(context.Context) (models.CashSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.cash) == 0 {
		return models.CashSnapshot{BalanceCD: decimal.Zero, Withdrawal: decimal.Zero}, nil
	}
	return m.cash[len(m.cash)-1], nil
}

func (m *Memory) SaveCash(_ context.Context, c models.CashSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c.UpdatedAt = m.Now()
	m.cash = append(m.cash, c)
	return nil
}
