package contracts

import (
	"context"

	"aegis-service/internal/app/models"
)

// EventQueueService is a durable queue with a paired dead-letter queue.
// One instance backs the outward domain-event stream, another the
// internal outcome-archive work queue.
type EventQueueService interface {
	Publish(ctx context.Context, event models.DomainEvent) error
	Reenqueue(ctx context.Context, event models.DomainEvent) error
	EnqueueToDeadQueue(ctx context.Context, event models.DomainEvent) error
	FetchN(ctx context.Context, max int) ([]models.QueuedEvent, error)
	AckMessage(ctx context.Context, deliveryTag uint64) error
}
