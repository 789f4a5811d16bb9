package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PenaltyStatus string

const (
	PenaltyStatusPending PenaltyStatus = "PENDING"
	PenaltyStatusPaid    PenaltyStatus = "PAID"
)

// Penalty applies a Backoffice sanction to a user. The amount is never stored
// here; it is looked up from the sanction parameter when presented.
type Penalty struct {
	ID         uuid.UUID     `json:"id" db:"id"`
	SanctionID string        `json:"sanction_id" db:"sanction_id"`
	UserID     string        `json:"user_id" db:"user_id"`
	LoanID     uuid.NullUUID `json:"loan_id" db:"loan_id"`
	Status     PenaltyStatus `json:"status" db:"status"`
	ExpiresIn  *time.Time    `json:"expires_in,omitempty" db:"expires_in"`
	CreatedAt  time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at" db:"updated_at"`
}

// NewPenalty builds a PENDING penalty for the given sanction.
func NewPenalty(sanction *Parameter, userID string, loanID *uuid.UUID, now time.Time) *Penalty {
	p := &Penalty{
		ID:         uuid.New(),
		SanctionID: sanction.ID,
		UserID:     userID,
		Status:     PenaltyStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if loanID != nil {
		p.LoanID = uuid.NullUUID{UUID: *loanID, Valid: true}
	}
	return p
}

// PenaltyDetail is a penalty enriched with its sanction definition.
type PenaltyDetail struct {
	Penalty
	SanctionName string              `json:"sanction_name,omitempty"`
	Amount       decimal.NullDecimal `json:"amount"`
}

type PenaltyFilter struct {
	UserID string
	Status PenaltyStatus
}

type CreatePenaltyRequest struct {
	UserID       string     `json:"user_id" validate:"required,max=64"`
	SanctionName string     `json:"sanction_name" validate:"required"`
	LoanID       string     `json:"loan_id" validate:"omitempty,uuid"`
	ExpiresIn    *time.Time `json:"expires_in"`
}
