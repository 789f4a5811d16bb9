package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SourceModule identifies this system on every outbound envelope.
const SourceModule = "biblioteca"

// Routing keys on the sanctions exchange.
const (
	RoutingSanctionCreated = "sanctions.created"
	RoutingSanctionUpdated = "sanctions.updated"
)

// Inbound webhook event types.
const (
	WebhookPenaltyCreated = "PENALTY_CREATED"
	WebhookPenaltyUpdated = "PENALTY_UPDATED"
)

// RoutingKeyFor maps an inbound webhook type to its routing key.
func RoutingKeyFor(webhookType string) (string, bool) {
	switch webhookType {
	case WebhookPenaltyCreated:
		return RoutingSanctionCreated, true
	case WebhookPenaltyUpdated:
		return RoutingSanctionUpdated, true
	default:
		return "", false
	}
}

const AggregatePenalty = "penalty"

// Envelope wraps every event published to the broker.
type Envelope struct {
	EventID      string          `json:"eventId"`
	EventType    string          `json:"eventType"`
	OccurredAt   time.Time       `json:"occurredAt"`
	EmittedAt    time.Time       `json:"emittedAt"`
	SourceModule string          `json:"sourceModule"`
	Payload      json.RawMessage `json:"payload"`
}

// OutboxEvent is an integration event persisted in the same transaction as
// the change it describes, delivered later by the relay.
type OutboxEvent struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	AggregateType string          `json:"aggregate_type" db:"aggregate_type"`
	AggregateID   uuid.UUID       `json:"aggregate_id" db:"aggregate_id"`
	EventType     string          `json:"event_type" db:"event_type"`
	Payload       json.RawMessage `json:"payload" db:"payload"`
	OccurredAt    time.Time       `json:"occurred_at" db:"occurred_at"`
	Attempts      int             `json:"attempts" db:"attempts"`
	LastError     *string         `json:"last_error,omitempty" db:"last_error"`
	ProcessedAt   *time.Time      `json:"processed_at,omitempty" db:"processed_at"`
}

// PenaltyEventPayload is the payload of sanctions.* events.
type PenaltyEventPayload struct {
	PenaltyID  uuid.UUID     `json:"penaltyId"`
	SanctionID string        `json:"sanctionId"`
	UserID     string        `json:"userId"`
	LoanID     uuid.NullUUID `json:"loanId"`
	Status     PenaltyStatus `json:"status"`
	ExpiresIn  *time.Time    `json:"expiresIn,omitempty"`
	CreatedAt  time.Time     `json:"createdAt"`
}

// NewPenaltyOutboxEvent builds the outbox row announcing a penalty change.
func NewPenaltyOutboxEvent(p *Penalty, eventType string, occurredAt time.Time) (*OutboxEvent, error) {
	payload, err := json.Marshal(PenaltyEventPayload{
		PenaltyID:  p.ID,
		SanctionID: p.SanctionID,
		UserID:     p.UserID,
		LoanID:     p.LoanID,
		Status:     p.Status,
		ExpiresIn:  p.ExpiresIn,
		CreatedAt:  p.CreatedAt,
	})
	if err != nil {
		return nil, err
	}

	return &OutboxEvent{
		ID:            uuid.New(),
		AggregateType: AggregatePenalty,
		AggregateID:   p.ID,
		EventType:     eventType,
		Payload:       payload,
		OccurredAt:    occurredAt,
	}, nil
}

type WebhookRequest struct {
	Type string          `json:"type" validate:"required"`
	Data json.RawMessage `json:"data"`
}
