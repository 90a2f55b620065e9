package workflow

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/suyash01/zawadi/internal/ledger"
	"github.com/suyash01/zawadi/internal/models"
)

// HouseholdEntry replaces a household's whole ledger row.
type HouseholdEntry struct {
	HouseNo      string          `form:"house_no" validate:"required"`
	FamilyName   string          `form:"family_name" validate:"required"`
	Lane         string          `form:"lane"`
	RateCategory string          `form:"rate_category"`
	Email        string          `form:"email" validate:"omitempty,email"`
	PriorDebt    decimal.Decimal `form:"prior_debt"`
	Months       [12]decimal.Decimal
	Remarks      string `form:"remarks"`
}

type RateEntry struct {
	Category string          `form:"category" validate:"required"`
	Amount   decimal.Decimal `form:"amount" validate:"gte=0"`
}

// RateAssignment moves a household to another rate category and updates
// its reminder address.
type RateAssignment struct {
	HouseNo      string `form:"house_no" validate:"required"`
	RateCategory string `form:"rate_category" validate:"required"`
	Email        string `form:"email" validate:"omitempty,email"`
}

type CashEntry struct {
	BalanceCD  decimal.Decimal `form:"balance_cd" validate:"gte=0"`
	Withdrawal decimal.Decimal `form:"withdrawal" validate:"gte=0"`
}

func (s *Service) SaveHousehold(ctx context.Context, treasurer bool, in HouseholdEntry) error {
	if !treasurer {
		return ErrNotTreasurer
	}
	in.HouseNo = strings.TrimSpace(in.HouseNo)
	in.FamilyName = strings.TrimSpace(in.FamilyName)
	in.Email = strings.TrimSpace(in.Email)
	if err := s.check(in); err != nil {
		return err
	}
	if in.RateCategory == "" {
		in.RateCategory = models.DefaultRateCategory
	}
	return s.store.UpsertHousehold(ctx, models.Household{
		HouseNo:      in.HouseNo,
		FamilyName:   in.FamilyName,
		Lane:         strings.ToUpper(strings.TrimSpace(in.Lane)),
		RateCategory: in.RateCategory,
		Email:        in.Email,
		PriorDebt:    in.PriorDebt,
		Months:       in.Months,
		Remarks:      strings.TrimSpace(in.Remarks),
	})
}

// DeleteHousehold removes the household together with its pending
// contribution requests.
func (s *Service) DeleteHousehold(ctx context.Context, treasurer bool, houseNo string) error {
	if !treasurer {
		return ErrNotTreasurer
	}
	houseNo = strings.TrimSpace(houseNo)
	if houseNo == "" {
		return &ValidationError{Fields: map[string]string{"house_no": "is required"}}
	}
	return s.store.DeleteHousehold(ctx, houseNo)
}

func (s *Service) SaveRate(ctx context.Context, treasurer bool, in RateEntry) error {
	if !treasurer {
		return ErrNotTreasurer
	}
	in.Category = strings.TrimSpace(in.Category)
	if err := s.check(in); err != nil {
		return err
	}
	return s.store.UpsertRate(ctx, models.Rate{Category: in.Category, Amount: in.Amount})
}

func (s *Service) AssignRate(ctx context.Context, treasurer bool, in RateAssignment) error {
	if !treasurer {
		return ErrNotTreasurer
	}
	in.HouseNo = strings.TrimSpace(in.HouseNo)
	in.Email = strings.TrimSpace(in.Email)
	if err := s.check(in); err != nil {
		return err
	}

	rates, err := s.store.ListRates(ctx)
	if err != nil {
		return err
	}
	if _, ok := ledger.NewRateTable(rates)[in.RateCategory]; !ok {
		return &ValidationError{Fields: map[string]string{"rate_category": "is not a known rate category"}}
	}
	return s.store.UpdateHouseholdRateEmail(ctx, in.HouseNo, in.RateCategory, in.Email)
}

func (s *Service) SaveCash(ctx context.Context, treasurer bool, in CashEntry) error {
	if !treasurer {
		return ErrNotTreasurer
	}
	if err := s.check(in); err != nil {
		return err
	}
	return s.store.SaveCash(ctx, models.CashSnapshot{BalanceCD: in.BalanceCD, Withdrawal: in.Withdrawal})
}
