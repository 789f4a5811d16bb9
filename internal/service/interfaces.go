package service

import (
	"context"

	"github.com/facundomartinezvidal/biblioteca-uade/internal/domain"
)

// ParameterDirectory resolves Backoffice sanction and fine definitions.
type ParameterDirectory interface {
	GetAll(ctx context.Context) ([]domain.Parameter, error)
	GetByName(ctx context.Context, name string) (*domain.Parameter, error)
	GetByType(ctx context.Context, typ string) ([]domain.Parameter, error)
}

// Publisher delivers one envelope to the broker.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, envelope domain.Envelope) error
}

// EventDispatcher makes a single delivery attempt for a stored outbox event.
type EventDispatcher interface {
	Dispatch(ctx context.Context, event *domain.OutboxEvent) error
}
