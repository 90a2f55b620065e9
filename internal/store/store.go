// Package store persists the welfare ledgers. It holds no business logic:
// derived figures are computed by package ledger and request decisions by
// package workflow.
package store

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/suyash01/zawadi/internal/ledger"
	"github.com/suyash01/zawadi/internal/models"
)

var (
	// ErrUnavailable is returned by writes while the database is unreachable.
	ErrUnavailable = errors.New("write disabled in offline mode")
	// ErrAlreadyDecided is returned when a request has already left
	// Pending Approval.
	ErrAlreadyDecided = errors.New("request already decided")
	ErrNotFound       = errors.New("not found")
)

// Store is the read/write contract over every ledger. List methods return
// the full set, never nil, and an empty set when the table does not exist.
//
// Reopen* returns an approved request to Pending Approval with its remarks
// replaced by remarks. It undoes a claim whose ledger write failed.
type Store interface {
	ListHouseholds(ctx context.Context) ([]models.Household, error)
	UpsertHousehold(ctx context.Context, h models.Household) error
	DeleteHousehold(ctx context.Context, houseNo string) error
	SetHouseholdMonth(ctx context.Context, houseNo string, m ledger.Month, amount decimal.Decimal) error
	UpdateHouseholdRateEmail(ctx context.Context, houseNo, category, email string) error

	ListRates(ctx context.Context) ([]models.Rate, error)
	UpsertRate(ctx context.Context, r models.Rate) error

	ListExpenses(ctx context.Context) ([]models.Expense, error)
	InsertExpense(ctx context.Context, e models.Expense) (int64, error)
	ListExpenseRequests(ctx context.Context) ([]models.ExpenseRequest, error)
	InsertExpenseRequest(ctx context.Context, r models.ExpenseRequest) (int64, error)
	UpdateExpenseRequestStatus(ctx context.Context, id int64, status, remark string) error
	ReopenExpenseRequest(ctx context.Context, id int64, remarks string) error

	ListSpecial(ctx context.Context) ([]models.SpecialContribution, error)
	InsertSpecial(ctx context.Context, s models.SpecialContribution) (int64, error)
	ListSpecialRequests(ctx context.Context) ([]models.SpecialRequest, error)
	InsertSpecialRequest(ctx context.Context, r models.SpecialRequest) (int64, error)
	UpdateSpecialRequestStatus(ctx context.Context, id int64, status, remark string) error
	ReopenSpecialRequest(ctx context.Context, id int64, remarks string) error

	ListContributionRequests(ctx context.Context) ([]models.ContributionRequest, error)
	InsertContributionRequest(ctx context.Context, r models.ContributionRequest) (int64, error)
	UpdateContributionRequestStatus(ctx context.Context, id int64, status, remark string) error
	ReopenContributionRequest(ctx context.Context, id int64, remarks string) error

	LatestCash(ctx context.Context) (models.CashSnapshot, error)
	SaveCash(ctx context.Context, c models.CashSnapshot) error
}

// AppendRemark is how a decision note is recorded against a request. The
// original remark is kept after the separator.
func AppendRemark(note, original string) string {
	return note + " | " + original
}
