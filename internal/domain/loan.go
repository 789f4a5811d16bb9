package domain

import (
	"time"

	"github.com/google/uuid"
)

type LoanStatus string

const (
	LoanStatusReserved  LoanStatus = "RESERVED"
	LoanStatusActive    LoanStatus = "ACTIVE"
	LoanStatusFinished  LoanStatus = "FINISHED"
	LoanStatusExpired   LoanStatus = "EXPIRED"
	LoanStatusCancelled LoanStatus = "CANCELLED"
)

// AllLoanStatuses lists every status a loan can hold.
var AllLoanStatuses = []LoanStatus{
	LoanStatusReserved,
	LoanStatusActive,
	LoanStatusFinished,
	LoanStatusExpired,
	LoanStatusCancelled,
}

var loanTransitions = map[LoanStatus][]LoanStatus{
	LoanStatusReserved: {LoanStatusActive, LoanStatusCancelled, LoanStatusExpired},
	LoanStatusActive:   {LoanStatusFinished, LoanStatusExpired},
}

// CanTransitionTo reports whether a loan in status s may move to next.
func (s LoanStatus) CanTransitionTo(next LoanStatus) bool {
	for _, allowed := range loanTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s LoanStatus) IsTerminal() bool {
	return len(loanTransitions[s]) == 0
}

// HoldsBook reports whether a loan in status s keeps its book out of circulation.
func (s LoanStatus) HoldsBook() bool {
	return s == LoanStatusReserved || s == LoanStatusActive
}

func (s LoanStatus) IsValid() bool {
	for _, status := range AllLoanStatuses {
		if status == s {
			return true
		}
	}
	return false
}

// Loan is a user's claim on a book. For a RESERVED loan EndDate is the pickup
// deadline, for an ACTIVE loan it is the return deadline.
type Loan struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	BookID    uuid.UUID  `json:"book_id" db:"book_id"`
	UserID    string     `json:"user_id" db:"user_id"`
	Status    LoanStatus `json:"status" db:"status"`
	EndDate   time.Time  `json:"end_date" db:"end_date"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// LoanWithBook is a loan joined with the title it refers to, used by listings.
type LoanWithBook struct {
	Loan
	BookTitle  string `json:"book_title" db:"book_title"`
	BookAuthor string `json:"book_author" db:"book_author"`
}

type LoanFilter struct {
	UserID string
	Status LoanStatus
}

// DTOs for requests and responses

type CreateReservationRequest struct {
	BookID string `json:"book_id" validate:"required,uuid"`
}

type CreateStudentLoanRequest struct {
	BookID    string `json:"book_id" validate:"required,uuid"`
	StudentID string `json:"student_id" validate:"required,max=64"`
}

type FinishLoanRequest struct {
	Damaged bool `json:"damaged"`
}

type LoanResponse struct {
	Loan    *Loan    `json:"loan"`
	Penalty *Penalty `json:"penalty,omitempty"`
}
