package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/tranche/internal/domain"
)

// Envelope is the JSON body published to the message bus.
type Envelope struct {
	ID         string           `json:"id"`
	Type       domain.EventType `json:"type"`
	ProjectID  int64            `json:"project_id"`
	OccurredAt time.Time        `json:"occurred_at"`
	Payload    json.RawMessage  `json:"payload"`
}

// NewOutboxMessage wraps e in an Envelope with a fresh message ID, ready to be
// inserted into the outbox.
func NewOutboxMessage(e domain.Event) (domain.OutboxMessage, error) {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return domain.OutboxMessage{}, fmt.Errorf("encoding %s payload: %w", e.Type, err)
	}
	id := uuid.NewString()
	body, err := json.Marshal(Envelope{
		ID:         id,
		Type:       e.Type,
		ProjectID:  e.ProjectID,
		OccurredAt: e.OccurredAt.UTC(),
		Payload:    payload,
	})
	if err != nil {
		return domain.OutboxMessage{}, fmt.Errorf("encoding %s envelope: %w", e.Type, err)
	}
	return domain.OutboxMessage{
		ID:            id,
		ProjectID:     e.ProjectID,
		EventType:     e.Type,
		RoutingKey:    e.RoutingKey(),
		Payload:       body,
		Status:        domain.OutboxPending,
		OccurredAt:    e.OccurredAt,
		NextAttemptAt: e.OccurredAt,
	}, nil
}

// NewOutboxMessages converts a batch, failing on the first encoding error.
func NewOutboxMessages(events []domain.Event) ([]domain.OutboxMessage, error) {
	msgs := make([]domain.OutboxMessage, 0, len(events))
	for _, e := range events {
		m, err := NewOutboxMessage(e)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}
