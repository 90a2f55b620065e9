package models

import (
	"time"

	"github.com/shopspring/decimal"
)

var ExpenseCategories = []string{"Personnel", "Utilities", "Maintenance", "Miscellaneous"}

var PaymentModes = []string{"Cash", "MPesa", "Bank Transfer"}

type Expense struct {
	ID          int64
	Date        time.Time
	Description string
	Category    string
	Vendor      string
	Phone       string
	Amount      decimal.Decimal
	Mode        string
	Remarks     string
	Receipt     string
}

// ExpenseRequest is a member's requisition waiting for the treasurer.
type ExpenseRequest struct {
	ID          int64
	Date        time.Time
	Description string
	Category    string
	RequestedBy string
	Amount      decimal.Decimal
	Status      string
	Remarks     string
}

// CashSnapshot is the latest saved cash position. The brought-forward
// balance is derived from it and the expense ledger.
type CashSnapshot struct {
	BalanceCD  decimal.Decimal
	Withdrawal decimal.Decimal
	UpdatedAt  time.Time
}

func (c CashSnapshot) BroughtForward(totalExpenses decimal.Decimal) decimal.Decimal {
	return c.BalanceCD.Add(c.Withdrawal).Sub(totalExpenses)
}
