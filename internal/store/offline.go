package store

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/suyash01/zawadi/internal/ledger"
	"github.com/suyash01/zawadi/internal/models"
)

// Offline serves empty ledgers and refuses every write. It stands in for
// the database while it cannot be reached so pages still render.
type Offline struct{}

func (Offline) ListHouseholds(context.Context) ([]models.Household, error) {
	return []models.Household{}, nil
}

func (Offline) UpsertHousehold(context.Context, models.Household) error { return ErrUnavailable }

func (Offline) DeleteHousehold(context.Context, string) error { return ErrUnavailable }

func (Offline) SetHouseholdMonth(context.Context, string, ledger.Month, decimal.Decimal) error {
	return ErrUnavailable
}

func (Offline) UpdateHouseholdRateEmail(context.Context, string, string, string) error {
	return ErrUnavailable
}

func (Offline) ListRates(context.Context) ([]models.Rate, error) { return []models.Rate{}, nil }

func (Offline) UpsertRate(context.Context, models.Rate) error { return ErrUnavailable }

func (Offline) ListExpenses(context.Context) ([]models.Expense, error) {
	return []models.Expense{}, nil
}

func (Offline) InsertExpense(context.Context, models.Expense) (int64, error) {
	return 0, ErrUnavailable
}

func (Offline) ListExpenseRequests(context.Context) ([]models.ExpenseRequest, error) {
	return []models.ExpenseRequest{}, nil
}

func (Offline) InsertExpenseRequest(context.Context, models.ExpenseRequest) (int64, error) {
	return 0, ErrUnavailable
}

func (Offline) UpdateExpenseRequestStatus(context.Context, int64, string, string) error {
	return ErrUnavailable
}

func (Offline) ListSpecial(context.Context) ([]models.SpecialContribution, error) {
	return []models.SpecialContribution{}, nil
}

func (Offline) InsertSpecial(context.Context, models.SpecialContribution) (int64, error) {
	return 0, ErrUnavailable
}

func (Offline) ListSpecialRequests(context.Context) ([]models.SpecialRequest, error) {
	return []models.SpecialRequest{}, nil
}

func (Offline) InsertSpecialRequest(context.Context, models.SpecialRequest) (int64, error) {
	return 0, ErrUnavailable
}

func (Offline) UpdateSpecialRequestStatus(context.Context, int64, string, string) error {
	return ErrUnavailable
}

func (Offline) ListContributionRequests(context.Context) ([]models.ContributionRequest, error) {
	return []models.ContributionRequest{}, nil
}

func (Offline) InsertContributionRequest(context.Context, models.ContributionRequest) (int64, error) {
	return 0, ErrUnavailable
}

func (Offline) UpdateContributionRequestStatus(context.Context, int64, string, string) error {
	return ErrUnavailable
}

func (Offline) LatestCash(context.Context) (models.CashSnapshot, error) {
	return models.CashSnapshot{BalanceCD: decimal.Zero, Withdrawal: decimal.Zero}, nil
}

func (Offline) SaveCash(context.Context, models.CashSnapshot) error { return ErrUnavailable }

func (Offline) ReopenExpenseRequest(context.Context, int64, string) error { return ErrUnavailable }

func (Offline) ReopenSpecialRequest(context.Context, int64, string) error { return ErrUnavailable }

func (Offline) ReopenContributionRequest(context.Context, int64, string) error { return ErrUnavailable }
