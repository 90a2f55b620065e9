package models

import (
	"time"

	"github.com/shopspring/decimal"
)

var Lanes = []string{"ROYAL", "SHUJAA", "WEMA", "KINGS"}

// Household is one residence's dues ledger for the year. Months is indexed
// JAN=0 through DEC=11.
type Household struct {
	HouseNo      string
	FamilyName   string
	Lane         string
	RateCategory string
	Email        string
	PriorDebt    decimal.Decimal
	Months       [12]decimal.Decimal
	Remarks      string
	UpdatedAt    time.Time
}

type Rate struct {
	Category string
	Amount   decimal.Decimal
}

const DefaultRateCategory = "Resident"

// DefaultRates are used whenever the rate table is empty.
var DefaultRates = []Rate{
	{Category: "Resident", Amount: decimal.NewFromInt(2000)},
	{Category: "Non-Resident", Amount: decimal.NewFromInt(1000)},
	{Category: "Special Rate", Amount: decimal.NewFromInt(500)},
}
