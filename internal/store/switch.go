package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"sync"
	"syscall"

	"github.com/shopspring/decimal"

	"github.com/suyash01/zawadi/internal/ledger"
	"github.com/suyash01/zawadi/internal/models"
)

// ConnectFunc opens a fresh live store.
type ConnectFunc func(ctx context.Context) (Store, error)

// Switch routes calls to the live store while it answers and to Offline
// otherwise. A failed live read flips it offline until Retry succeeds.
type Switch struct {
	mu      sync.RWMutex
	live    Store
	lastErr error
	connect ConnectFunc
	offline Offline
}

// NewSwitch starts online when live is non-nil.
func NewSwitch(live Store, connect ConnectFunc) *Switch {
	return &Switch{live: live, connect: connect}
}

func (s *Switch) Online() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.live != nil
}

// LastError is the failure that put the switch offline, if any.
func (s *Switch) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Retry attempts a reconnect. It returns nil when the switch is online
// afterwards.
func (s *Switch) Retry(ctx context.Context) error {
	if s.connect == nil {
		return errors.New("no reconnect configured")
	}
	live, err := s.connect(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastErr = err
		return err
	}
	closeStore(s.live)
	s.live = live
	s.lastErr = nil
	log.Println("database connection restored")
	return nil
}

// GoOffline drops the live store, for instance when the startup connect
// failed after the switch was built.
func (s *Switch) GoOffline(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.live != nil {
		log.Printf("switching to offline mode: %v", err)
		closeStore(s.live)
	}
	s.live = nil
	s.lastErr = err
}

// closeStore releases a dropped live store's connections.
func closeStore(st Store) {
	c, ok := st.(io.Closer)
	if !ok {
		return
	}
	if err := c.Close(); err != nil {
		log.Printf("close store: %v", err)
	}
}

func (s *Switch) backend() Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.live
}

func read[T any](ctx context.Context, s *Switch, live func(Store) (T, error), offline func() (T, error)) (T, error) {
	st := s.backend()
	if st == nil {
		return offline()
	}
	out, err := live(st)
	if err != nil {
		if ctx.Err() != nil {
			return out, err
		}
		s.GoOffline(err)
		return offline()
	}
	return out, nil
}

func (s *Switch) write(ctx context.Context, fn func(Store) error) error {
	st := s.backend()
	if st == nil {
		return ErrUnavailable
	}
	return s.writeFailed(ctx, fn(st))
}

func (s *Switch) insert(ctx context.Context, fn func(Store) (int64, error)) (int64, error) {
	st := s.backend()
	if st == nil {
		return 0, ErrUnavailable
	}
	id, err := fn(st)
	return id, s.writeFailed(ctx, err)
}

// writeFailed flips the switch offline when a write lost the connection.
// Other errors, such as a conflict or a missing row, pass through.
func (s *Switch) writeFailed(ctx context.Context, err error) error {
	if err == nil || ctx.Err() != nil || !connectionLost(err) {
		return err
	}
	s.GoOffline(err)
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

func connectionLost(err error) bool {
	var netErr *net.OpError
	return errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.As(err, &netErr)
}

func (s *Switch) ListHouseholds(ctx context.Context) ([]models.Household, error) {
	return read(ctx, s, func(st Store) ([]models.Household, error) { return st.ListHouseholds(ctx) },
		func() ([]models.Household, error) { return s.offline.ListHouseholds(ctx) })
}

func (s *Switch) UpsertHousehold(ctx context.Context, h models.Household) error {
	return s.write(ctx, func(st Store) error { return st.UpsertHousehold(ctx, h) })
}

func (s *Switch) DeleteHousehold(ctx context.Context, houseNo string) error {
	return s.write(ctx, func(st Store) error { return st.DeleteHousehold(ctx, houseNo) })
}

func (s *Switch) SetHouseholdMonth(ctx context.Context, houseNo string, m ledger.Month, amount decimal.Decimal) error {
	return s.write(ctx, func(st Store) error { return st.SetHouseholdMonth(ctx, houseNo, m, amount) })
}

func (s *Switch) UpdateHouseholdRateEmail(ctx context.Context, houseNo, category, email string) error {
	return s.write(ctx, func(st Store) error { return st.UpdateHouseholdRateEmail(ctx, houseNo, category, email) })
}

func (s *Switch) ListRates(ctx context.Context) ([]models.Rate, error) {
	return read(ctx, s, func(st Store) ([]models.Rate, error) { return st.ListRates(ctx) },
		func() ([]models.Rate, error) { return s.offline.ListRates(ctx) })
}

func (s *Switch) UpsertRate(ctx context.Context, r models.Rate) error {
	return s.write(ctx, func(st Store) error { return st.UpsertRate(ctx, r) })
}

func (s *Switch) ListExpenses(ctx context.Context) ([]models.Expense, error) {
	return read(ctx, s, func(st Store) ([]models.Expense, error) { return st.ListExpenses(ctx) },
		func() ([]models.Expense, error) { return s.offline.ListExpenses(ctx) })
}

func (s *Switch) InsertExpense(ctx context.Context, e models.Expense) (int64, error) {
	return s.insert(ctx, func(st Store) (int64, error) { return st.InsertExpense(ctx, e) })
}

func (s *Switch) ListExpenseRequests(ctx context.Context) ([]models.ExpenseRequest, error) {
	return read(ctx, s, func(st Store) ([]models.ExpenseRequest, error) { return st.ListExpenseRequests(ctx) },
		func() ([]models.ExpenseRequest, error) { return s.offline.ListExpenseRequests(ctx) })
}

func (s *Switch) InsertExpenseRequest(ctx context.Context, r models.ExpenseRequest) (int64, error) {
	return s.insert(ctx, func(st Store) (int64, error) { return st.InsertExpenseRequest(ctx, r) })
}

func (s *Switch) UpdateExpenseRequestStatus(ctx context.Context, id int64, status, remark string) error {
	return s.write(ctx, func(st Store) error { return st.UpdateExpenseRequestStatus(ctx, id, status, remark) })
}

func (s *Switch) ReopenExpenseRequest(ctx context.Context, id int64, remarks string) error {
	return s.write(ctx, func(st Store) error { return st.ReopenExpenseRequest(ctx, id, remarks) })
}

func (s *Switch) ListSpecial(ctx context.Context) ([]models.SpecialContribution, error) {
	return read(ctx, s, func(st Store) ([]models.SpecialContribution, error) { return st.ListSpecial(ctx) },
		func() ([]models.SpecialContribution, error) { return s.offline.ListSpecial(ctx) })
}

func (s *Switch) InsertSpecial(ctx context.Context, sc models.SpecialContribution) (int64, error) {
	return s.insert(ctx, func(st Store) (int64, error) { return st.InsertSpecial(ctx, sc) })
}

func (s *Switch) ListSpecialRequests(ctx context.Context) ([]models.SpecialRequest, error) {
	return read(ctx, s, func(st Store) ([]models.SpecialRequest, error) { return st.ListSpecialRequests(ctx) },
		func() ([]models.SpecialRequest, error) { return s.offline.ListSpecialRequests(ctx) })
}

func (s *Switch) InsertSpecialRequest(ctx context.Context, r models.SpecialRequest) (int64, error) {
	return s.insert(ctx, func(st Store) (int64, error) { return st.InsertSpecialRequest(ctx, r) })
}

func (s *Switch) UpdateSpecialRequestStatus(ctx context.Context, id int64, status, remark string) error {
	return s.write(ctx, func(st Store) error { return st.UpdateSpecialRequestStatus(ctx, id, status, remark) })
}

func (s *Switch) ReopenSpecialRequest(ctx context.Context, id int64, remarks string) error {
	return s.write(ctx, func(st Store) error { return st.ReopenSpecialRequest(ctx, id, remarks) })
}

func (s *Switch) ListContributionRequests(ctx context.Context) ([]models.ContributionRequest, error) {
	return read(ctx, s, func(st Store) ([]models.ContributionRequest, error) { return st.ListContributionRequests(ctx) },
		func() ([]models.ContributionRequest, error) { return s.offline.ListContributionRequests(ctx) })
}

func (s *Switch) InsertContributionRequest(ctx context.Context, r models.ContributionRequest) (int64, error) {
	return s.insert(ctx, func(st Store) (int64, error) { return st.InsertContributionRequest(ctx, r) })
}

func (s *Switch) UpdateContributionRequestStatus(ctx context.Context, id int64, status, remark string) error {
	return s.write(ctx, func(st Store) error { return st.UpdateContributionRequestStatus(ctx, id, status, remark) })
}

func (s *Switch) ReopenContributionRequest(ctx context.Context, id int64, remarks string) error {
	return s.write(ctx, func(st Store) error { return st.ReopenContributionRequest(ctx, id, remarks) })
}

func (s *Switch) LatestCash(ctx context.Context) (models.CashSnapshot, error) {
	return read(ctx, s, func(st Store) (models.CashSnapshot, error) { return st.LatestCash(ctx) },
		func() (models.CashSnapshot, error) { return s.offline.LatestCash(ctx) })
}

func (s *Switch) SaveCash(ctx context.Context, c models.CashSnapshot) error {
	return s.write(ctx, func(st Store) error { return st.SaveCash(ctx, c) })
}
