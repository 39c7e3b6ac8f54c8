package screenings

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"aegis-service/internal/app/config"
	"aegis-service/internal/app/models"
	"aegis-service/internal/pkg/constvars"
	"aegis-service/internal/pkg/eligibility"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeWorkerLocker struct {
	mu       sync.Mutex
	acquired bool
	tryErr   error
	tryKeys  []string
	unlocked []string
}

func (f *fakeWorkerLocker) TryLock(ctx context.Context, key string, expiration time.Duration) (bool, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tryKeys = append(f.tryKeys, key)
	if f.tryErr != nil {
		return false, "", f.tryErr
	}
	if !f.acquired {
		return false, "", nil
	}
	return true, "archive-lock-token", nil
}

func (f *fakeWorkerLocker) Unlock(ctx context.Context, key, lockValue string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unlocked = append(f.unlocked, key)
	return nil
}

type fakeArchiveQueue struct {
	mu sync.Mutex

	items      []models.QueuedEvent
	fetchErr   error
	fetchCalls int
	fetchMax   int

	acked    []uint64
	ackCalls int
	ackErr   error

	reenqueued   []models.DomainEvent
	reenqueueErr error

	deadLettered []models.DomainEvent
	dlqErr       error
}

func (f *fakeArchiveQueue) Publish(ctx context.Context, event models.DomainEvent) error {
	return errors.New("not used in this test")
}

func (f *fakeArchiveQueue) Reenqueue(ctx context.Context, event models.DomainEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reenqueueErr != nil {
		return f.reenqueueErr
	}
	f.reenqueued = append(f.reenqueued, event)
	return nil
}

func (f *fakeArchiveQueue) EnqueueToDeadQueue(ctx context.Context, event models.DomainEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dlqErr != nil {
		return f.dlqErr
	}
	f.deadLettered = append(f.deadLettered, event)
	return nil
}

func (f *fakeArchiveQueue) FetchN(ctx context.Context, max int) ([]models.QueuedEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	f.fetchMax = max
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.items, nil
}

func (f *fakeArchiveQueue) AckMessage(ctx context.Context, deliveryTag uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ackCalls++
	if f.ackErr != nil {
		return f.ackErr
	}
	f.acked = append(f.acked, deliveryTag)
	return nil
}

type fakeObjectStorage struct {
	mu        sync.Mutex
	uploadErr error
	buckets   []string
	objects   []string
	payloads  [][]byte
}

func (f *fakeObjectStorage) UploadJSONObject(ctx context.Context, bucketName, objectName string, payload []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.buckets = append(f.buckets, bucketName)
	f.objects = append(f.objects, objectName)
	f.payloads = append(f.payloads, payload)
	return objectName, nil
}

func (f *fakeObjectStorage) GetObjectUrlWithExpiryTime(ctx context.Context, bucketName, objectName string, expiryTime time.Duration) (string, error) {
	return "", errors.New("not used in this test")
}

const archiveTestBucket = "aegis-outcome-archive"

func newArchiveWorkerForTest(lock *fakeWorkerLocker, queue *fakeArchiveQueue, storage *fakeObjectStorage) *ArchiveWorker {
	cfg := &config.InternalConfig{
		Archive: config.AppArchive{WorkerIntervalInSeconds: 30, BatchSize: 10, MaxRetryCount: 3},
		Minio:   config.AppMinio{ArchiveBucketName: archiveTestBucket},
	}
	return NewArchiveWorker(zap.NewNop(), cfg, lock, queue, storage)
}

func archiveJob(t *testing.T, deliveryTag uint64, failedCount int) models.QueuedEvent {
	t.Helper()
	snapshot := outcomeSnapshot{
		SessionID:   screeningTestSessionID,
		TenantID:    screeningTestTenantID,
		ProgramID:   screeningTestProgramID,
		VersionID:   screeningTestVersionID,
		Version:     2,
		Answers:     eligibility.Answers{"diagnosis_confirmed": true, "age": 44},
		Outcome:     string(eligibility.OutcomeEligible),
		CompletedAt: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	}
	payload, err := json.Marshal(snapshot)
	assert.NoError(t, err)
	return models.QueuedEvent{
		DeliveryTag: deliveryTag,
		Event: models.DomainEvent{
			ID:          "3d1f2b9c-8a7e-4f6d-9c5b-2e1a0f9d8c7b",
			Type:        constvars.EventTypeOutcomeArchiveRequested,
			TenantID:    screeningTestTenantID,
			OccurredAt:  time.Date(2026, 3, 14, 9, 30, 1, 0, time.UTC),
			Payload:     payload,
			FailedCount: failedCount,
		},
	}
}

func TestArchiveWorkerRunOnce(t *testing.T) {
	t.Run("ShouldUploadSnapshotAndAckUnderLock", func(t *testing.T) {
		lock := &fakeWorkerLocker{acquired: true}
		job := archiveJob(t, 7, 0)
		queue := &fakeArchiveQueue{items: []models.QueuedEvent{job}}
		storage := &fakeObjectStorage{}

		worker := newArchiveWorkerForTest(lock, queue, storage)
		worker.runOnce(context.Background(), 30*time.Second)

		assert.Equal(t, []string{constvars.RedisKeyArchiveWorkerLock}, lock.tryKeys)
		assert.Equal(t, []string{archiveTestBucket}, storage.buckets)
		wantObject := "outcomes/" + screeningTestTenantID + "/" + screeningTestSessionID + "_20260314_093000.json"
		assert.Equal(t, []string{wantObject}, storage.objects)
		assert.Equal(t, []byte(job.Event.Payload), storage.payloads[0])
		assert.Equal(t, []uint64{7}, queue.acked)
		assert.Empty(t, queue.reenqueued)
		assert.Empty(t, queue.deadLettered)
		assert.Equal(t, []string{constvars.RedisKeyArchiveWorkerLock}, lock.unlocked)
	})

	t.Run("ShouldStandDownWhenAnotherInstanceHoldsLock", func(t *testing.T) {
		lock := &fakeWorkerLocker{acquired: false}
		queue := &fakeArchiveQueue{items: []models.QueuedEvent{archiveJob(t, 1, 0)}}

		worker := newArchiveWorkerForTest(lock, queue, &fakeObjectStorage{})
		worker.runOnce(context.Background(), 30*time.Second)

		assert.Equal(t, 0, queue.fetchCalls)
		assert.Empty(t, lock.unlocked)
	})

	t.Run("ShouldReleaseLockWhenFetchFails", func(t *testing.T) {
		lock := &fakeWorkerLocker{acquired: true}
		queue := &fakeArchiveQueue{fetchErr: errors.New("amqp channel closed")}
		storage := &fakeObjectStorage{}

		worker := newArchiveWorkerForTest(lock, queue, storage)
		worker.runOnce(context.Background(), 30*time.Second)

		assert.Empty(t, storage.objects)
		assert.Len(t, lock.unlocked, 1)
	})

	t.Run("ShouldDoNothingWhenQueueIsEmpty", func(t *testing.T) {
		lock := &fakeWorkerLocker{acquired: true}
		queue := &fakeArchiveQueue{}
		storage := &fakeObjectStorage{}

		worker := newArchiveWorkerForTest(lock, queue, storage)
		worker.runOnce(context.Background(), 30*time.Second)

		assert.Equal(t, 1, queue.fetchCalls)
		assert.Empty(t, storage.objects)
		assert.Empty(t, queue.acked)
		assert.Len(t, lock.unlocked, 1)
	})

	t.Run("ShouldFetchAtLeastOneJobWhenBatchSizeUnset", func(t *testing.T) {
		lock := &fakeWorkerLocker{acquired: true}
		queue := &fakeArchiveQueue{}
		worker := NewArchiveWorker(zap.NewNop(), &config.InternalConfig{
			Minio: config.AppMinio{ArchiveBucketName: archiveTestBucket},
		}, lock, queue, &fakeObjectStorage{})

		worker.runOnce(context.Background(), 30*time.Second)

		assert.Equal(t, 1, queue.fetchMax)
	})
}

func TestArchiveWorkerProcessItem(t *testing.T) {
	t.Run("ShouldParkUndecodableJobOnDeadQueue", func(t *testing.T) {
		queue := &fakeArchiveQueue{}
		storage := &fakeObjectStorage{}
		worker := newArchiveWorkerForTest(&fakeWorkerLocker{}, queue, storage)

		job := archiveJob(t, 11, 0)
		job.Event.Payload = json.RawMessage(`{"answers":`)
		worker.processItem(context.Background(), job)

		assert.Empty(t, storage.objects)
		assert.Len(t, queue.deadLettered, 1)
		assert.Equal(t, []uint64{11}, queue.acked)
	})

	t.Run("ShouldParkJobMissingSessionIDOnDeadQueue", func(t *testing.T) {
		queue := &fakeArchiveQueue{}
		storage := &fakeObjectStorage{}
		worker := newArchiveWorkerForTest(&fakeWorkerLocker{}, queue, storage)

		job := archiveJob(t, 12, 0)
		job.Event.Payload = json.RawMessage(`{"tenant_id":"` + screeningTestTenantID + `"}`)
		worker.processItem(context.Background(), job)

		assert.Empty(t, storage.objects)
		assert.Len(t, queue.deadLettered, 1)
		assert.Equal(t, []uint64{12}, queue.acked)
	})

	t.Run("ShouldKeepDeliveryWhenDeadQueueIsUnavailable", func(t *testing.T) {
		queue := &fakeArchiveQueue{dlqErr: errors.New("dead queue unavailable")}
		worker := newArchiveWorkerForTest(&fakeWorkerLocker{}, queue, &fakeObjectStorage{})

		job := archiveJob(t, 13, 0)
		job.Event.Payload = json.RawMessage(`{"answers":`)
		worker.processItem(context.Background(), job)

		assert.Empty(t, queue.acked)
	})

	t.Run("ShouldRedeliverFailedUploadWithBumpedFailureCount", func(t *testing.T) {
		queue := &fakeArchiveQueue{}
		storage := &fakeObjectStorage{uploadErr: errors.New("minio unavailable")}
		worker := newArchiveWorkerForTest(&fakeWorkerLocker{}, queue, storage)

		worker.processItem(context.Background(), archiveJob(t, 21, 0))

		assert.Len(t, queue.reenqueued, 1)
		assert.Equal(t, 1, queue.reenqueued[0].FailedCount)
		assert.Equal(t, []uint64{21}, queue.acked)
		assert.Empty(t, queue.deadLettered)
	})

	t.Run("ShouldParkJobOnceRetryBudgetIsSpent", func(t *testing.T) {
		queue := &fakeArchiveQueue{}
		storage := &fakeObjectStorage{uploadErr: errors.New("minio unavailable")}
		worker := newArchiveWorkerForTest(&fakeWorkerLocker{}, queue, storage)

		worker.processItem(context.Background(), archiveJob(t, 22, 2))

		assert.Empty(t, queue.reenqueued)
		assert.Len(t, queue.deadLettered, 1)
		assert.Equal(t, 3, queue.deadLettered[0].FailedCount)
		assert.Equal(t, []uint64{22}, queue.acked)
	})

	t.Run("ShouldNotAckWhenRedeliveryFails", func(t *testing.T) {
		queue := &fakeArchiveQueue{reenqueueErr: errors.New("amqp channel closed")}
		storage := &fakeObjectStorage{uploadErr: errors.New("minio unavailable")}
		worker := newArchiveWorkerForTest(&fakeWorkerLocker{}, queue, storage)

		worker.processItem(context.Background(), archiveJob(t, 23, 0))

		assert.Empty(t, queue.acked)
	})

	t.Run("ShouldLeaveDeliveryUnackedWhenAckFailsAfterUpload", func(t *testing.T) {
		queue := &fakeArchiveQueue{ackErr: errors.New("connection reset")}
		storage := &fakeObjectStorage{}
		worker := newArchiveWorkerForTest(&fakeWorkerLocker{}, queue, storage)

		worker.processItem(context.Background(), archiveJob(t, 24, 0))

		// The upload landed; redelivery will overwrite the same object.
		assert.Len(t, storage.objects, 1)
		assert.Equal(t, 1, queue.ackCalls)
		assert.Empty(t, queue.acked)
		assert.Empty(t, queue.reenqueued)
		assert.Empty(t, queue.deadLettered)
	})
}
