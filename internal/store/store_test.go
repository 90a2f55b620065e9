package store

import (
	"context"
	"errors"
	"net"
	"os"
	"syscall"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/suyash01/zawadi/internal/ledger"
	"github.com/suyash01/zawadi/internal/models"
)

func TestOfflineReadsEmptyWritesRefused(t *testing.T) {
	ctx := context.Background()
	var s Offline

	hs, err := s.ListHouseholds(ctx)
	if err != nil || hs == nil || len(hs) != 0 {
		t.Fatalf("ListHouseholds = %v, %v; want empty slice", hs, err)
	}
	rates, err := s.ListRates(ctx)
	if err != nil || rates == nil || len(rates) != 0 {
		t.Fatalf("ListRates = %v, %v; want empty slice", rates, err)
	}
	cash, err := s.LatestCash(ctx)
	if err != nil || !cash.BalanceCD.IsZero() || !cash.Withdrawal.IsZero() {
		t.Fatalf("LatestCash = %+v, %v; want zero", cash, err)
	}

	if _, err := s.InsertExpense(ctx, models.Expense{}); !errors.Is(err, ErrUnavailable) {
		t.Errorf("InsertExpense err = %v, want ErrUnavailable", err)
	}
	if err := s.UpsertRate(ctx, models.Rate{}); !errors.Is(err, ErrUnavailable) {
		t.Errorf("UpsertRate err = %v, want ErrUnavailable", err)
	}
	if err := s.UpdateExpenseRequestStatus(ctx, 1, models.StatusApprove, "ok"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("UpdateExpenseRequestStatus err = %v, want ErrUnavailable", err)
	}
}

func TestMemoryStatusUpdateIsSingleShot(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	id, err := m.InsertExpenseRequest(ctx, models.ExpenseRequest{
		Description: "Gate repair",
		Amount:      decimal.NewFromInt(1500),
		Status:      models.StatusApprove,
		Remarks:     "urgent",
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	reqs, _ := m.ListExpenseRequests(ctx)
	if reqs[0].Status != models.StatusPending {
		t.Fatalf("inserted status = %q, want pending", reqs[0].Status)
	}

	if err := m.UpdateExpenseRequestStatus(ctx, id, models.StatusApprove, "paid"); err != nil {
		t.Fatalf("first decision: %v", err)
	}
	err = m.UpdateExpenseRequestStatus(ctx, id, models.StatusReject, "again")
	if !errors.Is(err, ErrAlreadyDecided) {
		t.Fatalf("second decision err = %v, want ErrAlreadyDecided", err)
	}

	reqs, _ = m.ListExpenseRequests(ctx)
	if got, want := reqs[0].Remarks, "paid | urgent"; got != want {
		t.Errorf("remarks = %q, want %q", got, want)
	}
	if reqs[0].Status != models.StatusApprove {
		t.Errorf("status = %q, want Approve", reqs[0].Status)
	}

	if err := m.UpdateExpenseRequestStatus(ctx, 999, models.StatusApprove, ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown id err = %v, want ErrNotFound", err)
	}
}

func TestMemoryDeleteHouseholdDropsPendingRequests(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	m.UpsertHousehold(ctx, models.Household{HouseNo: "A1", FamilyName: "Otieno"})
	m.UpsertHousehold(ctx, models.Household{HouseNo: "B2", FamilyName: "Wanjiku"})
	pending, _ := m.InsertContributionRequest(ctx, models.ContributionRequest{HouseNo: "A1", Month: "JAN"})
	decided, _ := m.InsertContributionRequest(ctx, models.ContributionRequest{HouseNo: "A1", Month: "FEB"})
	m.UpdateContributionRequestStatus(ctx, decided, models.StatusApprove, "ok")
	m.InsertContributionRequest(ctx, models.ContributionRequest{HouseNo: "B2", Month: "JAN"})

	if err := m.DeleteHousehold(ctx, "A1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	hs, _ := m.ListHouseholds(ctx)
	if len(hs) != 1 || hs[0].HouseNo != "B2" {
		t.Fatalf("households = %+v, want only B2", hs)
	}
	reqs, _ := m.ListContributionRequests(ctx)
	if len(reqs) != 2 {
		t.Fatalf("requests = %d, want 2", len(reqs))
	}
	for _, r := range reqs {
		if r.ID == pending {
			t.Errorf("pending request for deleted house was kept")
		}
	}

	if err := m.DeleteHousehold(ctx, "A1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestMemorySetHouseholdMonthReplaces(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	h := models.Household{HouseNo: "C3"}
	h.Months[ledger.Mar] = decimal.NewFromInt(500)
	m.UpsertHousehold(ctx, h)

	if err := m.SetHouseholdMonth(ctx, "C3", ledger.Mar, decimal.NewFromInt(2000)); err != nil {
		t.Fatalf("set month: %v", err)
	}
	hs, _ := m.ListHouseholds(ctx)
	if got := hs[0].Months[ledger.Mar]; !got.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("MAR = %s, want 2000", got)
	}

	if err := m.SetHouseholdMonth(ctx, "ZZ", ledger.Mar, decimal.NewFromInt(1)); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown house err = %v, want ErrNotFound", err)
	}
}

func TestMemoryLatestCashWins(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	m.SaveCash(ctx, models.CashSnapshot{BalanceCD: decimal.NewFromInt(100), Withdrawal: decimal.NewFromInt(10)})
	m.SaveCash(ctx, models.CashSnapshot{BalanceCD: decimal.NewFromInt(300), Withdrawal: decimal.NewFromInt(50)})

	c, err := m.LatestCash(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !c.BalanceCD.Equal(decimal.NewFromInt(300)) || !c.Withdrawal.Equal(decimal.NewFromInt(50)) {
		t.Errorf("latest = %+v, want 300/50", c)
	}
}

type brokenStore struct {
	Offline
}

func (brokenStore) ListHouseholds(context.Context) ([]models.Household, error) {
	return nil, errors.New("connection reset by peer")
}

func TestSwitchFallsBackOnReadFailure(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	mem.UpsertHousehold(ctx, models.Household{HouseNo: "A1"})

	s := NewSwitch(brokenStore{}, func(context.Context) (Store, error) { return mem, nil })
	if !s.Online() {
		t.Fatal("switch should start online")
	}

	hs, err := s.ListHouseholds(ctx)
	if err != nil {
		t.Fatalf("read should degrade, got %v", err)
	}
	if len(hs) != 0 {
		t.Errorf("households = %d, want empty offline view", len(hs))
	}
	if s.Online() {
		t.Error("switch should be offline after a failed read")
	}
	if s.LastError() == nil {
		t.Error("LastError should record the failure")
	}
	if err := s.UpsertRate(ctx, models.Rate{Category: "Resident"}); !errors.Is(err, ErrUnavailable) {
		t.Errorf("offline write err = %v, want ErrUnavailable", err)
	}

	if err := s.Retry(ctx); err != nil {
		t.Fatalf("retry: %v", err)
	}
	hs, _ = s.ListHouseholds(ctx)
	if len(hs) != 1 {
		t.Errorf("households after retry = %d, want 1", len(hs))
	}
}

func TestSwitchRetryFailureStaysOffline(t *testing.T) {
	boom := errors.New("dial tcp: i/o timeout")
	s := NewSwitch(nil, func(context.Context) (Store, error) { return nil, boom })

	if err := s.Retry(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("retry err = %v, want %v", err, boom)
	}
	if s.Online() {
		t.Error("switch should stay offline")
	}
}

// droppedStore refuses rate writes as a dead connection would and counts
// how often it is closed.
type droppedStore struct {
	Offline
	closed int
}

func (*droppedStore) UpsertRate(context.Context, models.Rate) error {
	return &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}
}

func (*droppedStore) SaveCash(context.Context, models.CashSnapshot) error {
	return ErrNotFound
}

func (d *droppedStore) Close() error {
	d.closed++
	return nil
}

func TestSwitchWriteOnLostConnectionGoesOffline(t *testing.T) {
	ctx := context.Background()
	live := &droppedStore{}
	s := NewSwitch(live, nil)

	if err := s.SaveCash(ctx, models.CashSnapshot{}); !errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnavailable) {
		t.Fatalf("SaveCash err = %v, want plain ErrNotFound", err)
	}
	if !s.Online() {
		t.Fatal("an ordinary write error should not drop the connection")
	}

	err := s.UpsertRate(ctx, models.Rate{Category: "Resident"})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("UpsertRate err = %v, want ErrUnavailable", err)
	}
	if !errors.Is(err, syscall.ECONNREFUSED) {
		t.Errorf("err = %v, should keep the driver cause", err)
	}
	if s.Online() {
		t.Error("switch should be offline after a lost connection")
	}
	if s.LastError() == nil {
		t.Error("LastError should record the failure")
	}
	if live.closed != 1 {
		t.Errorf("closed = %d, want 1", live.closed)
	}
}

func TestSwitchRetryClosesReplacedStore(t *testing.T) {
	ctx := context.Background()
	old := &droppedStore{}
	fresh := &droppedStore{}
	s := NewSwitch(old, func(context.Context) (Store, error) { return fresh, nil })

	if err := s.Retry(ctx); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if old.closed != 1 {
		t.Errorf("old closed = %d, want 1", old.closed)
	}
	if fresh.closed != 0 {
		t.Errorf("fresh closed = %d, want 0", fresh.closed)
	}

	s.GoOffline(errors.New("maintenance"))
	s.GoOffline(errors.New("maintenance"))
	if fresh.closed != 1 {
		t.Errorf("fresh closed = %d after going offline twice, want 1", fresh.closed)
	}
}
