package models

import (
	"time"

	"github.com/goccy/go-json"
)

// DomainEvent is the envelope published to rabbitmq when a screening
// completes or a code is issued or redeemed. The same envelope rides the
// internal archive queue, where Payload holds the outcome snapshot.
type DomainEvent struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	TenantID    string          `json:"tenant_id"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Payload     json.RawMessage `json:"payload"`
	FailedCount int             `json:"failed_count"`
}

// QueuedEvent is a fetched delivery with its decoded envelope. The
// delivery tag acknowledges the message once processing succeeds.
type QueuedEvent struct {
	DeliveryTag uint64
	Event       DomainEvent
}
