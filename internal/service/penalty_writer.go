package service

import (
	"context"
	"time"

	"github.com/facundomartinezvidal/biblioteca-uade/internal/domain"
	"github.com/facundomartinezvidal/biblioteca-uade/internal/repository"
	customError "github.com/facundomartinezvidal/biblioteca-uade/pkg/errors"
)

// penaltyWriter persists a new penalty together with its PENALTY_APPLIED
// notification and the sanctions.created outbox row. It must run inside the
// caller's transaction.
type penaltyWriter struct {
	penalties     repository.PenaltyRepository
	notifications repository.NotificationRepository
	outbox        repository.OutboxRepository
}

func (w penaltyWriter) write(ctx context.Context, q repository.Querier, penalty *domain.Penalty, sanction *domain.Parameter, now time.Time) (*domain.OutboxEvent, error) {
	if err := w.penalties.Create(ctx, q, penalty); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	if err := w.notifications.Create(ctx, q, penaltyNotification(penalty, sanction, now)); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	event, err := domain.NewPenaltyOutboxEvent(penalty, domain.RoutingSanctionCreated, now)
	if err != nil {
		return nil, err
	}
	if err := w.outbox.Create(ctx, q, event); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return event, nil
}
