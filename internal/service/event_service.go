package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/facundomartinezvidal/biblioteca-uade/internal/domain"
	"github.com/facundomartinezvidal/biblioteca-uade/internal/repository"
	customError "github.com/facundomartinezvidal/biblioteca-uade/pkg/errors"

	"github.com/google/uuid"
)

// RelayReport summarizes one outbox relay run.
type RelayReport struct {
	Delivered int `json:"delivered"`
	Failed    int `json:"failed"`
}

type EventService struct {
	OutboxRepo  repository.OutboxRepository
	publisher   Publisher
	maxAttempts int
	now         func() time.Time
}

func NewEventService(outboxRepo repository.OutboxRepository, publisher Publisher, maxAttempts int) *EventService {
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	return &EventService{
		OutboxRepo:  outboxRepo,
		publisher:   publisher,
		maxAttempts: maxAttempts,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// NewEnvelope wraps payload for publishing. Every call gets a fresh event id.
func (s *EventService) NewEnvelope(eventType string, occurredAt time.Time, payload json.RawMessage) domain.Envelope {
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}
	return domain.Envelope{
		EventID:      uuid.NewString(),
		EventType:    eventType,
		OccurredAt:   occurredAt.UTC(),
		EmittedAt:    s.now(),
		SourceModule: domain.SourceModule,
		Payload:      payload,
	}
}

// Dispatch makes one delivery attempt for a stored event and records the
// outcome on its outbox row.
func (s *EventService) Dispatch(ctx context.Context, event *domain.OutboxEvent) error {
	envelope := s.NewEnvelope(event.EventType, event.OccurredAt, event.Payload)

	if err := s.publisher.Publish(ctx, event.EventType, envelope); err != nil {
		if recErr := s.OutboxRepo.RecordFailure(ctx, event.ID, err.Error()); recErr != nil {
			slog.ErrorContext(ctx, "failed to record outbox failure",
				"event_id", event.ID, "error", recErr)
		}
		return err
	}

	if err := s.OutboxRepo.MarkProcessed(ctx, event.ID, s.now()); err != nil {
		// the event went out; the relay may deliver it once more
		slog.ErrorContext(ctx, "failed to mark outbox event processed",
			"event_id", event.ID, "error", err)
	}

	return nil
}

// RelayPending delivers undelivered outbox events, oldest first.
func (s *EventService) RelayPending(ctx context.Context, batchSize int) (*RelayReport, error) {
	events, err := s.OutboxRepo.ListPending(ctx, batchSize, s.maxAttempts)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	report := &RelayReport{}
	for i := range events {
		if err := s.Dispatch(ctx, &events[i]); err != nil {
			report.Failed++
			slog.WarnContext(ctx, "outbox relay delivery failed",
				"event_id", events[i].ID,
				"event_type", events[i].EventType,
				"attempts", events[i].Attempts+1,
				"error", err)
			continue
		}
		report.Delivered++
	}

	return report, nil
}

// PublishWebhook re-publishes an event received on the inbound webhook.
func (s *EventService) PublishWebhook(ctx context.Context, eventType string, data json.RawMessage) error {
	routingKey, ok := domain.RoutingKeyFor(eventType)
	if !ok {
		return customError.WrapUnknownEventType(eventType)
	}

	now := s.now()
	return s.publisher.Publish(ctx, routingKey, s.NewEnvelope(routingKey, now, data))
}

// dispatchAfterCommit publishes an event that was just committed, logging a
// failure. The outbox row stays pending for the relay.
func dispatchAfterCommit(ctx context.Context, events EventDispatcher, event *domain.OutboxEvent) bool {
	if event == nil || events == nil {
		return true
	}
	if err := events.Dispatch(ctx, event); err != nil {
		slog.WarnContext(ctx, "event publish failed, left for relay",
			"event_id", event.ID,
			"event_type", event.EventType,
			"aggregate_id", event.AggregateID,
			"error", err)
		return false
	}
	return true
}
