// Package reminder emails households that owe dues. Reminders go out on the
// first day of the month and at most once per month per process.
package reminder

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/suyash01/zawadi/internal/ledger"
	"github.com/suyash01/zawadi/internal/models"
)

const Subject = "Zawadi Court Welfare: Payment Reminder"

// Source is the part of the store the notifier reads.
type Source interface {
	ListHouseholds(ctx context.Context) ([]models.Household, error)
	ListRates(ctx context.Context) ([]models.Rate, error)
}

func Compose(to, family string, debt decimal.Decimal) Message {
	body := fmt.Sprintf(`Dear %s,

This is a friendly reminder that your current outstanding balance with Zawadi Court Welfare is KES %s.

Please make your payment at your earliest convenience to avoid service interruptions.

Thank you,
Zawadi Court Welfare Committee
`, family, ledger.Thousands(debt))
	return Message{To: to, Subject: Subject, Body: body}
}

type Summary struct {
	Sent   int
	Failed int
	// Ran is false when the run was skipped: not the first of the month, or
	// reminders already went out this month.
	Ran bool
}

type Notifier struct {
	source Source
	sender Sender

	mu       sync.Mutex
	lastSent string

	Now func() time.Time
}

func NewNotifier(source Source, sender Sender) *Notifier {
	return &Notifier{source: source, sender: sender, Now: time.Now}
}

func (n *Notifier) LastSent() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.lastSent
}

// RunMonthly sends this month's reminders if today is the first and they
// have not been sent yet. The month is claimed before any mail goes out, so
// a concurrent run skips it. A failed send is logged and the run continues.
func (n *Notifier) RunMonthly(ctx context.Context) (Summary, error) {
	now := n.Now()
	if now.Day() != 1 {
		return Summary{}, nil
	}
	marker := now.Format("2006-01")
	if n.LastSent() == marker {
		return Summary{}, nil
	}

	households, err := n.source.ListHouseholds(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("load households: %w", err)
	}
	if len(households) == 0 {
		// Nothing to remind, most likely because the store is offline. Try
		// again on the next tick.
		return Summary{}, nil
	}
	rates, err := n.source.ListRates(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("load rates: %w", err)
	}
	if !n.claim(marker) {
		return Summary{}, nil
	}

	table := ledger.NewRateTable(rates)
	month := ledger.CurrentMonth(now)
	sum := Summary{Ran: true}
	for _, h := range households {
		email := strings.TrimSpace(h.Email)
		debt := ledger.CurrentDebt(h, month, table)
		if email == "" || !debt.IsPositive() {
			continue
		}
		if err := n.sender.Send(ctx, Compose(email, h.FamilyName, debt)); err != nil {
			log.Printf("reminder to %s (%s) failed: %v", h.FamilyName, h.HouseNo, err)
			sum.Failed++
			continue
		}
		log.Printf("reminder sent to %s", h.FamilyName)
		sum.Sent++
	}
	return sum, nil
}

// claim records marker as sent. It reports false if another run got there
// first.
func (n *Notifier) claim(marker string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.lastSent == marker {
		return false
	}
	n.lastSent = marker
	return true
}

// SendTest mails a sample reminder to the given address.
func (n *Notifier) SendTest(ctx context.Context, to string) error {
	return n.sender.Send(ctx, Compose(to, "Zawadi Court (Test)", decimal.RequireFromString("1234.56")))
}

// Start checks for due reminders every interval until ctx is cancelled.
func (n *Notifier) Start(ctx context.Context, interval time.Duration) {
	go func() {
		log.Println("reminder scheduler started")
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sum, err := n.RunMonthly(ctx)
				if err != nil {
					log.Printf("monthly reminders: %v", err)
					continue
				}
				if sum.Ran {
					log.Printf("monthly reminders: %d sent, %d failed", sum.Sent, sum.Failed)
				}
			}
		}
	}()
}
