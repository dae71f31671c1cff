package model

import (
	"time"

	"github.com/google/uuid"
)

type UnpaidReason string

const (
	UnpaidReasonUnemployment UnpaidReason = "unemployment"
	UnpaidReasonHealth       UnpaidReason = "health"
	UnpaidReasonSeparation   UnpaidReason = "separation"
	UnpaidReasonFinancial    UnpaidReason = "financial"
	UnpaidReasonOther        UnpaidReason = "other"
)

type UnpaidAmount struct {
	ID              uuid.UUID
	DossierID       uuid.UUID
	Amount          float64
	Months          int
	Since           time.Time
	Reason          UnpaidReason
	PreviousActions *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type UnpaidAmountDraft struct {
	Amount          float64
	Months          int
	Since           time.Time
	Reason          UnpaidReason
	PreviousActions *string
}

type UnpaidAmountPatch struct {
	Amount          Optional[float64]
	Months          Optional[int]
	Since           Optional[time.Time]
	Reason          Optional[UnpaidReason]
	PreviousActions Optional[string]
}
