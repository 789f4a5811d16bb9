package service

import (
	"fmt"
	"time"

	"github.com/facundomartinezvidal/biblioteca-uade/internal/domain"
	"github.com/facundomartinezvidal/biblioteca-uade/pkg/utils"
)

func deadlineNotification(loan domain.Loan, now time.Time, loc *time.Location) *domain.Notification {
	days := utils.DaysUntil(now, loan.EndDate)
	message := fmt.Sprintf("Tu préstamo vence el %s. Devolvé el libro a tiempo para evitar sanciones.",
		utils.FormatDeadline(loan.EndDate, loc))
	if days <= 1 {
		message = fmt.Sprintf("Tu préstamo vence mañana (%s). Devolvé el libro a tiempo para evitar sanciones.",
			utils.FormatDeadline(loan.EndDate, loc))
	}

	return domain.NewNotification(loan.UserID, domain.NotificationLoanDeadline,
		"Tu préstamo está por vencer", message, now).ForLoan(loan.ID)
}

func penaltyNotification(penalty *domain.Penalty, sanction *domain.Parameter, now time.Time) *domain.Notification {
	message := fmt.Sprintf("Se te aplicó la sanción %q.", sanction.Name)
	if sanction.NumericValue.Valid {
		message = fmt.Sprintf("Se te aplicó la sanción %q por $%s.", sanction.Name, sanction.Amount().StringFixed(2))
	}

	n := domain.NewNotification(penalty.UserID, domain.NotificationPenaltyApplied,
		"Se aplicó una sanción", message, now).ForPenalty(penalty.ID)
	if penalty.LoanID.Valid {
		n.ForLoan(penalty.LoanID.UUID)
	}
	return n
}

func reservationExpiredNotification(loan domain.Loan, now time.Time) *domain.Notification {
	return domain.NewNotification(loan.UserID, domain.NotificationLoanExpired,
		"Tu reserva expiró",
		"No retiraste el libro dentro del plazo de retiro y la reserva fue liberada.",
		now).ForLoan(loan.ID)
}
