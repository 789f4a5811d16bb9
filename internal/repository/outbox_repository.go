package repository

import (
	"context"
	"time"

	"github.com/facundomartinezvidal/biblioteca-uade/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type outboxRepository struct {
	db *sqlx.DB
}

func NewOutboxRepository(db *sqlx.DB) OutboxRepository {
	return &outboxRepository{db: db}
}

func (r *outboxRepository) Create(ctx context.Context, q Querier, event *domain.OutboxEvent) error {
	query := `
		INSERT INTO outbox_events (id, aggregate_type, aggregate_id, event_type, payload, occurred_at, attempts)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6, 0)
	`

	// payload goes over the wire as text; a []byte argument would be sent as bytea
	_, err := conn(r.db, q).ExecContext(ctx, query,
		event.ID,
		event.AggregateType,
		event.AggregateID,
		event.EventType,
		string(event.Payload),
		event.OccurredAt,
	)

	return err
}

func (r *outboxRepository) ListPending(ctx context.Context, limit, maxAttempts int) ([]domain.OutboxEvent, error) {
	query := `
		SELECT id, aggregate_type, aggregate_id, event_type, payload, occurred_at, attempts, last_error, processed_at
		FROM outbox_events
		WHERE processed_at IS NULL AND attempts < $2
		ORDER BY occurred_at
		LIMIT $1
	`

	var events []domain.OutboxEvent
	if err := r.db.SelectContext(ctx, &events, query, limit, maxAttempts); err != nil {
		return nil, err
	}

	return events, nil
}

func (r *outboxRepository) MarkProcessed(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE outbox_events
		SET processed_at = $2, attempts = attempts + 1, last_error = NULL
		WHERE id = $1 AND processed_at IS NULL
	`

	_, err := r.db.ExecContext(ctx, query, id, at)
	return err
}

func (r *outboxRepository) RecordFailure(ctx context.Context, id uuid.UUID, reason string) error {
	query := `UPDATE outbox_events SET attempts = attempts + 1, last_error = $2 WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id, reason)
	return err
}
