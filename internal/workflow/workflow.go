// Package workflow accepts member requests and applies the treasurer's
// decisions on them.
//
// A request is decided once. The store's conditional status update is the
// claim; the ledger side effect of an approval runs only after the claim
// succeeds, so a request approved twice still writes one ledger record.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/suyash01/zawadi/internal/ledger"
	"github.com/suyash01/zawadi/internal/models"
	"github.com/suyash01/zawadi/internal/store"
)

var (
	ErrNotTreasurer  = errors.New("treasurer access required")
	ErrInvalidAction = errors.New("action must be Approve or Reject")
)

type Service struct {
	store    store.Store
	validate *validator.Validate

	// Now is the clock used for default dates and the current month.
	Now func() time.Time
}

func New(s store.Store) *Service {
	return &Service{store: s, validate: newValidator(), Now: time.Now}
}

type ContributionSubmission struct {
	Date         time.Time
	Month        string          `form:"month" validate:"month"`
	FamilyName   string          `form:"family_name" validate:"required"`
	HouseNo      string          `form:"house_no" validate:"required"`
	Lane         string          `form:"lane"`
	RateCategory string          `form:"rate_category"`
	Amount       decimal.Decimal `form:"amount" validate:"gt=0"`
	PaymentRef   string          `form:"payment_ref"`
	Remarks      string          `form:"remarks"`
}

type ExpenseSubmission struct {
	Date        time.Time
	Description string          `form:"description" validate:"required"`
	Category    string          `form:"category" validate:"oneof=Personnel Utilities Maintenance Miscellaneous"`
	RequestedBy string          `form:"requested_by" validate:"required"`
	Amount      decimal.Decimal `form:"amount" validate:"gt=0"`
	Phone       string          `form:"phone"`
	Remarks     string          `form:"remarks"`
}

type SpecialSubmission struct {
	Date        time.Time
	Event       string          `form:"event" validate:"required"`
	Type        string          `form:"type" validate:"oneof=Celebration Emergency Welfare"`
	RequestedBy string          `form:"requested_by" validate:"required"`
	Amount      decimal.Decimal `form:"amount" validate:"gt=0"`
	Remarks     string          `form:"remarks"`
}

func (s *Service) date(t time.Time) time.Time {
	if t.IsZero() {
		return s.Now()
	}
	return t
}

func (s *Service) SubmitContribution(ctx context.Context, in ContributionSubmission) (int64, error) {
	in.FamilyName = strings.TrimSpace(in.FamilyName)
	in.HouseNo = strings.TrimSpace(in.HouseNo)
	in.Month = strings.ToUpper(strings.TrimSpace(in.Month))
	if in.Month == "" {
		in.Month = ledger.CurrentMonth(s.Now()).String()
	}
	if err := s.check(in); err != nil {
		return 0, err
	}

	return s.store.InsertContributionRequest(ctx, models.ContributionRequest{
		Date:         s.date(in.Date),
		Month:        in.Month,
		FamilyName:   in.FamilyName,
		HouseNo:      in.HouseNo,
		Lane:         strings.TrimSpace(in.Lane),
		RateCategory: strings.TrimSpace(in.RateCategory),
		Amount:       in.Amount,
		Status:       models.StatusPending,
		Remarks:      fmt.Sprintf("Payment Ref: %s. %s", strings.TrimSpace(in.PaymentRef), strings.TrimSpace(in.Remarks)),
	})
}

func (s *Service) SubmitExpense(ctx context.Context, in ExpenseSubmission) (int64, error) {
	in.Description = strings.TrimSpace(in.Description)
	in.RequestedBy = strings.TrimSpace(in.RequestedBy)
	if err := s.check(in); err != nil {
		return 0, err
	}

	return s.store.InsertExpenseRequest(ctx, models.ExpenseRequest{
		Date:        s.date(in.Date),
		Description: in.Description,
		Category:    in.Category,
		RequestedBy: in.RequestedBy,
		Amount:      in.Amount,
		Status:      models.StatusPending,
		Remarks:     fmt.Sprintf("Phone: %s. %s", strings.TrimSpace(in.Phone), strings.TrimSpace(in.Remarks)),
	})
}

func (s *Service) SubmitSpecial(ctx context.Context, in SpecialSubmission) (int64, error) {
	in.Event = strings.TrimSpace(in.Event)
	in.RequestedBy = strings.TrimSpace(in.RequestedBy)
	if err := s.check(in); err != nil {
		return 0, err
	}

	return s.store.InsertSpecialRequest(ctx, models.SpecialRequest{
		Date:        s.date(in.Date),
		Event:       in.Event,
		Type:        in.Type,
		RequestedBy: in.RequestedBy,
		Amount:      in.Amount,
		Status:      models.StatusPending,
		Remarks:     strings.TrimSpace(in.Remarks),
	})
}
