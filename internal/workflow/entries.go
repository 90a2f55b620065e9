package workflow

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/suyash01/zawadi/internal/models"
)

// ExpenseEntry is an expense the treasurer records directly.
type ExpenseEntry struct {
	Date        time.Time
	Description string          `form:"description" validate:"required"`
	Category    string          `form:"category" validate:"oneof=Personnel Utilities Maintenance Miscellaneous"`
	Vendor      string          `form:"vendor" validate:"required"`
	Phone       string          `form:"phone"`
	Amount      decimal.Decimal `form:"amount" validate:"gt=0"`
	Mode        string          `form:"mode" validate:"oneof=Cash MPesa 'Bank Transfer'"`
	Remarks     string          `form:"remarks"`
	Receipt     string          `form:"receipt"`
}

// SpecialEntry is a special contribution the treasurer records directly.
type SpecialEntry struct {
	Date         time.Time
	Event        string          `form:"event" validate:"required"`
	Type         string          `form:"type" validate:"oneof=Celebration Emergency Welfare"`
	Contributors []string        `form:"contributors"`
	Amount       decimal.Decimal `form:"amount" validate:"gt=0"`
	Remarks      string          `form:"remarks"`
}

func (s *Service) RecordExpense(ctx context.Context, treasurer bool, in ExpenseEntry) (int64, error) {
	if !treasurer {
		return 0, ErrNotTreasurer
	}
	in.Description = strings.TrimSpace(in.Description)
	in.Vendor = strings.TrimSpace(in.Vendor)
	if err := s.check(in); err != nil {
		return 0, err
	}
	return s.store.InsertExpense(ctx, models.Expense{
		Date:        s.date(in.Date),
		Description: in.Description,
		Category:    in.Category,
		Vendor:      in.Vendor,
		Phone:       strings.TrimSpace(in.Phone),
		Amount:      in.Amount,
		Mode:        in.Mode,
		Remarks:     strings.TrimSpace(in.Remarks),
		Receipt:     strings.TrimSpace(in.Receipt),
	})
}

func (s *Service) RecordSpecial(ctx context.Context, treasurer bool, in SpecialEntry) (int64, error) {
	if !treasurer {
		return 0, ErrNotTreasurer
	}
	in.Event = strings.TrimSpace(in.Event)
	if err := s.check(in); err != nil {
		return 0, err
	}
	contributors := make([]string, 0, len(in.Contributors))
	for _, c := range in.Contributors {
		if c = strings.TrimSpace(c); c != "" {
			contributors = append(contributors, c)
		}
	}
	return s.store.InsertSpecial(ctx, models.SpecialContribution{
		Date:         s.date(in.Date),
		Event:        in.Event,
		Type:         in.Type,
		Contributors: strings.Join(contributors, ", "),
		Amount:       in.Amount,
		Remarks:      strings.TrimSpace(in.Remarks),
	})
}
