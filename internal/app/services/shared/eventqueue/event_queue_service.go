// Package eventqueue wraps one durable rabbitmq queue and its dead-letter
// companion. Publishes use publisher confirms, so a returned nil error
// means the broker has the message.
package eventqueue

import (
	"context"
	"fmt"
	"sync"

	"aegis-service/internal/app/contracts"
	"aegis-service/internal/app/models"
	"aegis-service/internal/pkg/constvars"
	"aegis-service/internal/pkg/exceptions"
	"aegis-service/internal/pkg/utils"

	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	DomainEventQueueName = "aegis_domain_events"
	DomainEventDLQName   = "aegis_domain_events_dlq"
	ArchiveQueueName     = "aegis_outcome_archive"
	ArchiveDLQName       = "aegis_outcome_archive_dlq"
)

type Service struct {
	ch        *amqp.Channel
	log       *zap.Logger
	queueName string
	dlqName   string
	confirms  chan amqp.Confirmation
	mu        sync.Mutex
}

// NewService opens a channel, declares the queue pair durable, sets QoS
// and enables publisher confirms.
func NewService(conn *amqp.Connection, log *zap.Logger, prefetch int, queueName, dlqName string) (contracts.EventQueueService, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}

	for _, name := range []string{queueName, dlqName} {
		_, err = ch.QueueDeclare(
			name,
			true,  // durable
			false, // autoDelete
			false, // exclusive
			false, // noWait
			nil,   // args
		)
		if err != nil {
			return nil, err
		}
	}

	if prefetch <= 0 {
		prefetch = 1
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		return nil, err
	}

	if err := ch.Confirm(false); err != nil {
		return nil, err
	}

	return &Service{
		ch:        ch,
		log:       log,
		queueName: queueName,
		dlqName:   dlqName,
		confirms:  ch.NotifyPublish(make(chan amqp.Confirmation, 1)),
	}, nil
}

// Publish appends the event to the queue tail and waits for the broker
// confirm.
func (s *Service) Publish(ctx context.Context, event models.DomainEvent) error {
	s.log.Info("EventQueue.Publish called",
		zap.String(constvars.LoggingRequestIDKey, utils.GetRequestID(ctx)),
		zap.String("event_type", event.Type),
		zap.String(constvars.LoggingTenantIDKey, event.TenantID),
	)
	return s.publishEvent(ctx, s.queueName, event)
}

// Reenqueue puts a fetched event back on the queue tail, typically after
// a processing failure with the failed count already bumped.
func (s *Service) Reenqueue(ctx context.Context, event models.DomainEvent) error {
	s.log.Info("EventQueue.Reenqueue called",
		zap.String(constvars.LoggingRequestIDKey, utils.GetRequestID(ctx)),
		zap.String("event_type", event.Type),
		zap.Int("failed_count", event.FailedCount),
	)
	return s.publishEvent(ctx, s.queueName, event)
}

// EnqueueToDeadQueue parks an event on the dead-letter queue for manual
// inspection once retries are exhausted.
func (s *Service) EnqueueToDeadQueue(ctx context.Context, event models.DomainEvent) error {
	s.log.Warn("EventQueue.EnqueueToDeadQueue called",
		zap.String(constvars.LoggingRequestIDKey, utils.GetRequestID(ctx)),
		zap.String("event_type", event.Type),
		zap.Int("failed_count", event.FailedCount),
	)
	return s.publishEvent(ctx, s.dlqName, event)
}

// FetchN retrieves up to max events with basic.get and no auto-ack.
// Undecodable bodies are acked and moved straight to the dead-letter
// queue so a poison message cannot wedge the worker.
func (s *Service) FetchN(ctx context.Context, max int) ([]models.QueuedEvent, error) {
	s.log.Info("EventQueue.FetchN called",
		zap.String(constvars.LoggingRequestIDKey, utils.GetRequestID(ctx)),
		zap.Int("max", max),
	)

	if max <= 0 {
		max = 1
	}
	items := make([]models.QueuedEvent, 0, max)

	for i := 0; i < max; i++ {
		delivery, ok, err := s.ch.Get(s.queueName, false)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		var event models.DomainEvent
		if err := json.Unmarshal(delivery.Body, &event); err != nil {
			_ = delivery.Ack(false)
			_ = s.publishRaw(ctx, s.dlqName, delivery.Body)
			continue
		}
		items = append(items, models.QueuedEvent{DeliveryTag: delivery.DeliveryTag, Event: event})
	}

	return items, nil
}

func (s *Service) AckMessage(ctx context.Context, deliveryTag uint64) error {
	return s.ch.Ack(deliveryTag, false)
}

func (s *Service) publishEvent(ctx context.Context, queue string, event models.DomainEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return exceptions.ErrCannotMarshalJSON(err)
	}
	return s.publishRaw(ctx, queue, body)
}

// publishRaw holds the channel mutex across publish and confirm-wait so
// confirmations cannot interleave between publishers.
func (s *Service) publishRaw(ctx context.Context, queue string, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := amqp.Publishing{
		ContentType:  constvars.MIMEApplicationJSON,
		Body:         body,
		DeliveryMode: amqp.Persistent,
	}
	if err := s.ch.PublishWithContext(ctx, "", queue, false, false, msg); err != nil {
		return exceptions.ErrRabbitMQPublishMessage(err, queue)
	}

	select {
	case confirmed := <-s.confirms:
		if !confirmed.Ack {
			return exceptions.ErrRabbitMQPublishMessage(fmt.Errorf("message not confirmed"), queue)
		}
	case <-ctx.Done():
		return exceptions.ErrRabbitMQPublishMessage(ctx.Err(), queue)
	}
	return nil
}
