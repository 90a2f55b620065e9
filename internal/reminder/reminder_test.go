package reminder

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/suyash01/zawadi/internal/ledger"
	"github.com/suyash01/zawadi/internal/models"
	"github.com/suyash01/zawadi/internal/store"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []Message
	fail map[string]bool
}

func (f *fakeSender) Send(_ context.Context, msg Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[msg.To] {
		return errors.New("550 mailbox unavailable")
	}
	f.sent = append(f.sent, msg)
	return nil
}

func seed(t *testing.T) *store.Memory {
	t.Helper()
	ctx := context.Background()
	mem := store.NewMemory()

	owing := models.Household{HouseNo: "A1", FamilyName: "Otieno", RateCategory: "Resident", Email: "otieno@example.com"}
	paid := models.Household{HouseNo: "A2", FamilyName: "Wanjiku", RateCategory: "Resident", Email: "wanjiku@example.com"}
	paid.Months[ledger.Jan] = decimal.NewFromInt(2000)
	paid.Months[ledger.Feb] = decimal.NewFromInt(2000)
	noEmail := models.Household{HouseNo: "A3", FamilyName: "Kamau", RateCategory: "Resident"}
	broken := models.Household{HouseNo: "A4", FamilyName: "Njoroge", RateCategory: "Resident", Email: "bounce@example.com"}

	for _, h := range []models.Household{owing, paid, noEmail, broken} {
		if err := mem.UpsertHousehold(ctx, h); err != nil {
			t.Fatal(err)
		}
	}
	return mem
}

func TestRunMonthlyOnlyOnFirstDay(t *testing.T) {
	sender := &fakeSender{}
	n := NewNotifier(seed(t), sender)
	n.Now = func() time.Time { return time.Date(2025, time.February, 2, 8, 0, 0, 0, time.UTC) }

	sum, err := n.RunMonthly(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if sum.Ran || len(sender.sent) != 0 {
		t.Errorf("sent %d reminders on day 2", len(sender.sent))
	}
}

func TestRunMonthlyOncePerMonth(t *testing.T) {
	sender := &fakeSender{fail: map[string]bool{"bounce@example.com": true}}
	n := NewNotifier(seed(t), sender)
	now := time.Date(2025, time.February, 1, 8, 0, 0, 0, time.UTC)
	n.Now = func() time.Time { return now }
	ctx := context.Background()

	sum, err := n.RunMonthly(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !sum.Ran || sum.Sent != 1 || sum.Failed != 1 {
		t.Fatalf("summary = %+v, want 1 sent 1 failed", sum)
	}
	if sender.sent[0].To != "otieno@example.com" {
		t.Errorf("sent to %q", sender.sent[0].To)
	}
	// FEB liability for Resident is 4000 with nothing paid.
	if !strings.Contains(sender.sent[0].Body, "KES 4,000.00") {
		t.Errorf("body missing debt: %q", sender.sent[0].Body)
	}
	if n.LastSent() != "2025-02" {
		t.Errorf("marker = %q", n.LastSent())
	}

	now = now.Add(2 * time.Hour)
	sum, _ = n.RunMonthly(ctx)
	if sum.Ran || len(sender.sent) != 1 {
		t.Errorf("second run on the same day sent again: %+v", sum)
	}

	now = time.Date(2025, time.March, 1, 8, 0, 0, 0, time.UTC)
	sum, _ = n.RunMonthly(ctx)
	if !sum.Ran {
		t.Error("next month should run again")
	}
}

// heldSender blocks every send until release is closed.
type heldSender struct {
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (h *heldSender) Send(ctx context.Context, _ Message) error {
	h.once.Do(func() { close(h.started) })
	select {
	case <-h.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestRunMonthlyDoesNotHoldLockWhileSending(t *testing.T) {
	sender := &heldSender{started: make(chan struct{}), release: make(chan struct{})}
	n := NewNotifier(seed(t), sender)
	n.Now = func() time.Time { return time.Date(2025, time.February, 1, 8, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	done := make(chan Summary)
	go func() {
		sum, _ := n.RunMonthly(ctx)
		done <- sum
	}()

	select {
	case <-sender.started:
	case <-time.After(2 * time.Second):
		t.Fatal("send never started")
	}

	marker := make(chan string)
	go func() { marker <- n.LastSent() }()
	select {
	case m := <-marker:
		if m != "2025-02" {
			t.Errorf("marker during send = %q, want 2025-02", m)
		}
	case <-time.After(time.Second):
		t.Fatal("LastSent blocked while a reminder was being sent")
	}

	if sum, _ := n.RunMonthly(ctx); sum.Ran {
		t.Error("a concurrent run should skip a claimed month")
	}

	close(sender.release)
	select {
	case sum := <-done:
		if !sum.Ran {
			t.Errorf("first run summary = %+v", sum)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("run did not finish after release")
	}
}

func TestRunMonthlyWaitsForData(t *testing.T) {
	sender := &fakeSender{}
	n := NewNotifier(store.Offline{}, sender)
	n.Now = func() time.Time { return time.Date(2025, time.May, 1, 8, 0, 0, 0, time.UTC) }

	sum, err := n.RunMonthly(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if sum.Ran || n.LastSent() != "" {
		t.Errorf("empty store consumed the month: %+v marker %q", sum, n.LastSent())
	}
}

func TestCompose(t *testing.T) {
	msg := Compose("a@example.com", "Otieno", decimal.RequireFromString("12500.5"))
	if msg.Subject != Subject {
		t.Errorf("subject = %q", msg.Subject)
	}
	for _, want := range []string{"Dear Otieno,", "Zawadi Court Welfare is KES 12,500.50."} {
		if !strings.Contains(msg.Body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestSendTest(t *testing.T) {
	sender := &fakeSender{}
	n := NewNotifier(store.Offline{}, sender)
	if err := n.SendTest(context.Background(), "treasurer@example.com"); err != nil {
		t.Fatal(err)
	}
	if len(sender.sent) != 1 || !strings.Contains(sender.sent[0].Body, "KES 1,234.56") {
		t.Errorf("sent = %+v", sender.sent)
	}
}
