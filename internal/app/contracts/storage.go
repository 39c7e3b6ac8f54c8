package contracts

import (
	"context"
	"time"
)

type Storage interface {
	// UploadJSONObject writes an immutable JSON document and returns the
	// object name. Used for the retention archive of completed screenings.
	UploadJSONObject(ctx context.Context, bucketName, objectName string, payload []byte) (string, error)
	GetObjectUrlWithExpiryTime(ctx context.Context, bucketName, objectName string, expiryTime time.Duration) (string, error)
}
