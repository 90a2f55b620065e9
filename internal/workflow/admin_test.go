package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/suyash01/zawadi/internal/models"
	"github.com/suyash01/zawadi/internal/store"
)

func TestSaveHousehold(t *testing.T) {
	svc, mem := newService(t)
	ctx := context.Background()

	in := HouseholdEntry{HouseNo: " C3 ", FamilyName: "Njeri", Lane: "kings", PriorDebt: kes(500)}
	in.Months[0] = kes(2000)
	if err := svc.SaveHousehold(ctx, false, in); !errors.Is(err, ErrNotTreasurer) {
		t.Fatalf("member save err = %v, want ErrNotTreasurer", err)
	}
	if err := svc.SaveHousehold(ctx, true, in); err != nil {
		t.Fatalf("SaveHousehold: %v", err)
	}

	hs, _ := mem.ListHouseholds(ctx)
	if len(hs) != 1 {
		t.Fatalf("households = %d", len(hs))
	}
	h := hs[0]
	if h.HouseNo != "C3" || h.Lane != "KINGS" || h.RateCategory != models.DefaultRateCategory {
		t.Errorf("saved = %+v", h)
	}
	if !h.Months[0].Equal(kes(2000)) || !h.PriorDebt.Equal(kes(500)) {
		t.Errorf("amounts = %v, %v", h.Months[0], h.PriorDebt)
	}

	err := svc.SaveHousehold(ctx, true, HouseholdEntry{HouseNo: "C4", FamilyName: "X", Email: "not-an-email"})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Fields["email"] == "" {
		t.Errorf("bad email err = %v", err)
	}
}

func TestDeleteHousehold(t *testing.T) {
	svc, mem := newService(t)
	ctx := context.Background()
	mem.UpsertHousehold(ctx, models.Household{HouseNo: "A2", FamilyName: "Mwangi"})

	if err := svc.DeleteHousehold(ctx, true, ""); err == nil {
		t.Fatal("expected validation error for blank house number")
	}
	if err := svc.DeleteHousehold(ctx, true, "A2"); err != nil {
		t.Fatalf("DeleteHousehold: %v", err)
	}
	if err := svc.DeleteHousehold(ctx, true, "A2"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestAssignRateNeedsKnownCategory(t *testing.T) {
	svc, mem := newService(t)
	ctx := context.Background()
	mem.UpsertHousehold(ctx, models.Household{HouseNo: "A2", FamilyName: "Mwangi", RateCategory: "Resident"})

	err := svc.AssignRate(ctx, true, RateAssignment{HouseNo: "A2", RateCategory: "Gold"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("unknown category err = %v, want ValidationError", err)
	}

	// The rate table is empty, so the default categories apply.
	if err := svc.AssignRate(ctx, true, RateAssignment{HouseNo: "A2", RateCategory: "Special Rate", Email: "a2@example.com"}); err != nil {
		t.Fatalf("AssignRate: %v", err)
	}
	hs, _ := mem.ListHouseholds(ctx)
	if hs[0].RateCategory != "Special Rate" || hs[0].Email != "a2@example.com" {
		t.Errorf("household = %+v", hs[0])
	}
}

func TestSaveRateAndCash(t *testing.T) {
	svc, mem := newService(t)
	ctx := context.Background()

	if err := svc.SaveRate(ctx, true, RateEntry{Category: "Pensioner", Amount: kes(-5)}); err == nil {
		t.Error("expected negative rate to be rejected")
	}
	if err := svc.SaveRate(ctx, true, RateEntry{Category: " Pensioner ", Amount: kes(750)}); err != nil {
		t.Fatalf("SaveRate: %v", err)
	}
	rates, _ := mem.ListRates(ctx)
	if len(rates) != 1 || rates[0].Category != "Pensioner" {
		t.Errorf("rates = %+v", rates)
	}

	if err := svc.SaveCash(ctx, false, CashEntry{}); !errors.Is(err, ErrNotTreasurer) {
		t.Errorf("member cash err = %v", err)
	}
	if err := svc.SaveCash(ctx, true, CashEntry{BalanceCD: kes(9000), Withdrawal: kes(1000)}); err != nil {
		t.Fatalf("SaveCash: %v", err)
	}
	cash, _ := mem.LatestCash(ctx)
	if !cash.BalanceCD.Equal(kes(9000)) {
		t.Errorf("cash = %+v", cash)
	}
}
