package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Request statuses. A request leaves StatusPending exactly once.
const (
	StatusPending = "Pending Approval"
	StatusApprove = "Approve"
	StatusReject  = "Reject"
)

type ContributionRequest struct {
	ID           int64
	Date         time.Time
	Month        string
	FamilyName   string
	HouseNo      string
	Lane         string
	RateCategory string
	Amount       decimal.Decimal
	Status       string
	Remarks      string
}

var SpecialTypes = []string{"Celebration", "Emergency", "Welfare"}

type SpecialContribution struct {
	ID           int64
	Date         time.Time
	Event        string
	Type         string
	Contributors string
	Amount       decimal.Decimal
	Remarks      string
}

type SpecialRequest struct {
	ID          int64
	Date        time.Time
	Event       string
	Type        string
	RequestedBy string
	Amount      decimal.Decimal
	Status      string
	Remarks     string
}
