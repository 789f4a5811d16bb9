package domain

import "time"

// SweepReport summarizes one deadline sweep pass.
type SweepReport struct {
	Now                 time.Time `json:"now"`
	DeadlineNotices     int       `json:"deadline_notices"`
	ExpiredLoans        int       `json:"expired_loans"`
	ExpiredReservations int       `json:"expired_reservations"`
	PenaltiesCreated    int       `json:"penalties_created"`
	PublishFailures     int       `json:"publish_failures"`
	ItemErrors          int       `json:"item_errors"`
	SanctionError       string    `json:"sanction_error,omitempty"`
	Duration            string    `json:"duration"`
}
