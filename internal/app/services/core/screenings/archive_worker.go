package screenings

import (
	"context"
	"time"

	"aegis-service/internal/app/config"
	"aegis-service/internal/app/contracts"
	"aegis-service/internal/app/models"
	"aegis-service/internal/pkg/constvars"
	"aegis-service/internal/pkg/metrics"
	"aegis-service/internal/pkg/utils"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// ArchiveWorker drains the outcome-archive queue into object storage with
// at-least-once semantics. Object names are deterministic per session, so
// a redelivered job overwrites the same document instead of duplicating it.
type ArchiveWorker struct {
	log     *zap.Logger
	cfg     *config.InternalConfig
	locker  contracts.LockerService
	queue   contracts.EventQueueService
	storage contracts.Storage
	stop    chan struct{}
}

func NewArchiveWorker(log *zap.Logger, cfg *config.InternalConfig, lockerSvc contracts.LockerService, queue contracts.EventQueueService, storage contracts.Storage) *ArchiveWorker {
	return &ArchiveWorker{
		log:     log,
		cfg:     cfg,
		locker:  lockerSvc,
		queue:   queue,
		storage: storage,
		stop:    make(chan struct{}),
	}
}

// Start begins the ticker loop. It returns a stop function to halt execution.
func (w *ArchiveWorker) Start(ctx context.Context) (stop func()) {
	interval := time.Duration(w.cfg.Archive.WorkerIntervalInSeconds) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	stopped := make(chan struct{})

	w.log.Info("archive worker started",
		zap.Duration("interval", interval))

	go func() {
		defer close(stopped)
		for {
			select {
			case <-ctx.Done():
				ticker.Stop()
				return
			case <-w.stop:
				ticker.Stop()
				return
			case <-ticker.C:
				w.runOnce(ctx, interval)
			}
		}
	}()

	return func() {
		close(w.stop)
	}
}

func (w *ArchiveWorker) runOnce(ctx context.Context, interval time.Duration) {
	ttl := interval - time.Second
	if ttl < time.Second {
		ttl = time.Second
	}
	acquired, lockVal, err := w.locker.TryLock(ctx, constvars.RedisKeyArchiveWorkerLock, ttl)
	if err != nil {
		w.log.Info("archive worker lock attempt failed", zap.Error(err))
		return
	}
	if !acquired {
		return
	}
	defer func() {
		if err := w.locker.Unlock(ctx, constvars.RedisKeyArchiveWorkerLock, lockVal); err != nil {
			w.log.Error("archive worker unlock failed", zap.Error(err))
		}
	}()

	max := w.cfg.Archive.BatchSize
	if max <= 0 {
		max = 1
	}
	items, err := w.queue.FetchN(ctx, max)
	if err != nil {
		w.log.Info("archive worker fetch failed", zap.Error(err))
		return
	}
	if len(items) == 0 {
		return
	}

	w.log.Info("archive worker fetched jobs", zap.Int("fetched_count", len(items)))
	for _, item := range items {
		w.processItem(ctx, item)
	}
}

func (w *ArchiveWorker) processItem(ctx context.Context, item models.QueuedEvent) {
	event := item.Event

	var snapshot outcomeSnapshot
	if err := json.Unmarshal(event.Payload, &snapshot); err != nil || snapshot.SessionID == "" {
		// Undecodable jobs never succeed; park them for inspection
		// instead of cycling forever.
		w.log.Error("archive worker dropping unreadable job to dead queue",
			zap.String("event_id", event.ID),
			zap.Error(err),
		)
		if dlqErr := w.queue.EnqueueToDeadQueue(ctx, event); dlqErr != nil {
			w.log.Error("archive worker dead queue enqueue failed",
				zap.String("event_id", event.ID),
				zap.Error(dlqErr),
			)
			return
		}
		_ = w.queue.AckMessage(ctx, item.DeliveryTag)
		return
	}

	objectName := utils.GenerateArchiveObjectName(snapshot.TenantID, snapshot.SessionID, snapshot.CompletedAt)
	_, err := w.storage.UploadJSONObject(ctx, w.cfg.Minio.ArchiveBucketName, objectName, event.Payload)
	if err != nil {
		w.log.Info("archive worker upload failed",
			zap.String("event_id", event.ID),
			zap.String(constvars.LoggingSessionIDKey, snapshot.SessionID),
			zap.Int("failed_count", event.FailedCount),
			zap.Error(err),
		)
		w.requeueOnError(ctx, item, event)
		return
	}

	if err := w.queue.AckMessage(ctx, item.DeliveryTag); err != nil {
		w.log.Info("archive worker ack failed after upload",
			zap.String("event_id", event.ID),
			zap.Error(err),
		)
		return
	}

	metrics.OutcomesArchived.Inc()
	w.log.Info("archive worker stored outcome snapshot",
		zap.String("event_id", event.ID),
		zap.String(constvars.LoggingSessionIDKey, snapshot.SessionID),
		zap.String("object_name", objectName),
	)
}

func (w *ArchiveWorker) requeueOnError(ctx context.Context, item models.QueuedEvent, event models.DomainEvent) {
	event.FailedCount++
	if event.FailedCount >= w.cfg.Archive.MaxRetryCount {
		if err := w.queue.EnqueueToDeadQueue(ctx, event); err != nil {
			w.log.Error("archive worker dead queue enqueue failed",
				zap.String("event_id", event.ID),
				zap.Int("failed_count", event.FailedCount),
				zap.Error(err),
			)
			return
		}
		_ = w.queue.AckMessage(ctx, item.DeliveryTag)
		w.log.Warn("archive worker exhausted retries; job moved to dead queue",
			zap.String("event_id", event.ID),
			zap.Int("failed_count", event.FailedCount),
		)
		return
	}

	if err := w.queue.Reenqueue(ctx, event); err != nil {
		w.log.Info("archive worker reenqueue failed",
			zap.String("event_id", event.ID),
			zap.Error(err),
		)
		return
	}
	_ = w.queue.AckMessage(ctx, item.DeliveryTag)
}
