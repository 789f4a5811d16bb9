package domain

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationLoanDeadline    NotificationType = "LOAN_DEADLINE"
	NotificationLoanExpired     NotificationType = "LOAN_EXPIRED"
	NotificationPenaltyApplied  NotificationType = "PENALTY_APPLIED"
	NotificationPenaltyDeadline NotificationType = "PENALTY_DEADLINE"
	NotificationPenaltyExpired  NotificationType = "PENALTY_EXPIRED"
)

type Notification struct {
	ID        uuid.UUID        `json:"id" db:"id"`
	UserID    string           `json:"user_id" db:"user_id"`
	Type      NotificationType `json:"type" db:"type"`
	Title     string           `json:"title" db:"title"`
	Message   string           `json:"message" db:"message"`
	Read      bool             `json:"read" db:"read"`
	LoanID    uuid.NullUUID    `json:"loan_id" db:"loan_id"`
	PenaltyID uuid.NullUUID    `json:"penalty_id" db:"penalty_id"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}

func NewNotification(userID string, typ NotificationType, title, message string, now time.Time) *Notification {
	return &Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      typ,
		Title:     title,
		Message:   message,
		CreatedAt: now,
	}
}

// ForLoan links the notification to a loan.
func (n *Notification) ForLoan(loanID uuid.UUID) *Notification {
	n.LoanID = uuid.NullUUID{UUID: loanID, Valid: true}
	return n
}

// ForPenalty links the notification to a penalty.
func (n *Notification) ForPenalty(penaltyID uuid.UUID) *Notification {
	n.PenaltyID = uuid.NullUUID{UUID: penaltyID, Valid: true}
	return n
}

type UnreadCountResponse struct {
	Unread int64 `json:"unread"`
}

type CleanupResponse struct {
	Deleted int64     `json:"deleted"`
	Cutoff  time.Time `json:"cutoff"`
}
