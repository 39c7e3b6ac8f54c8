package verificationCodes

import (
	"context"
	"errors"
	"strings"
	"time"

	"aegis-service/internal/app/contracts"
	"aegis-service/internal/app/models"
	"aegis-service/internal/pkg/constvars"
	"aegis-service/internal/pkg/exceptions"
	"aegis-service/internal/pkg/tenant"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Duplicate-key inserts are classified by unique index so the issue flow
// can tell a retryable code collision from a second code for one session.
var (
	ErrCodeValueTaken     = errors.New("verification code value already exists for tenant")
	ErrSessionCodeExists  = errors.New("screening session already has a verification code")
	ErrDuplicateUnknown   = errors.New("verification code insert hit an unrecognized unique index")
)

type VerificationCodeMongoRepository struct {
	Collection *mongo.Collection
}

func NewVerificationCodeMongoRepository(db *mongo.Client, dbName string) contracts.VerificationCodeRepository {
	return &VerificationCodeMongoRepository{
		Collection: db.Database(dbName).Collection(constvars.MongoCollectionVerificationCodes),
	}
}

func (r *VerificationCodeMongoRepository) CreateVerificationCode(ctx context.Context, tc tenant.Context, code *models.VerificationCode) (string, error) {
	if tc.IsZero() {
		return "", exceptions.ErrTenantMissing(errors.New(constvars.ErrDevTenantMissing))
	}
	code.TenantID = tc.ID()

	result, err := r.Collection.InsertOne(ctx, code)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", classifyDuplicate(err)
		}
		return "", exceptions.ErrMongoDBInsertDocument(err)
	}
	return result.InsertedID.(string), nil
}

func (r *VerificationCodeMongoRepository) FindByCode(ctx context.Context, tc tenant.Context, code string) (*models.VerificationCode, error) {
	if tc.IsZero() {
		return nil, exceptions.ErrTenantMissing(errors.New(constvars.ErrDevTenantMissing))
	}

	var found models.VerificationCode
	err := r.Collection.FindOne(ctx, bson.M{"tenantId": tc.ID(), "code": code}).Decode(&found)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, exceptions.ErrMongoDBFindDocument(err)
	}
	return &found, nil
}

func (r *VerificationCodeMongoRepository) FindBySessionID(ctx context.Context, tc tenant.Context, sessionID string) (*models.VerificationCode, error) {
	if tc.IsZero() {
		return nil, exceptions.ErrTenantMissing(errors.New(constvars.ErrDevTenantMissing))
	}

	var found models.VerificationCode
	err := r.Collection.FindOne(ctx, bson.M{"tenantId": tc.ID(), "sessionId": sessionID}).Decode(&found)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, exceptions.ErrMongoDBFindDocument(err)
	}
	return &found, nil
}

// RedeemOne is the redemption primitive. Filter and mutation travel to
// the server as one findAndModify, so of any number of concurrent
// attempts on the same code, exactly one gets the document back; the
// rest match nothing and receive nil. The expiry is checked against the
// given clock reading here, never against the sweeper's status label.
func (r *VerificationCodeMongoRepository) RedeemOne(ctx context.Context, tc tenant.Context, code string, now time.Time, redeemedBy, transactionID string) (*models.VerificationCode, error) {
	if tc.IsZero() {
		return nil, exceptions.ErrTenantMissing(errors.New(constvars.ErrDevTenantMissing))
	}

	filter := bson.M{
		"tenantId":  tc.ID(),
		"code":      code,
		"status":    models.CodeUnused,
		"expiresAt": bson.M{"$gt": now},
	}
	update := bson.M{
		"$set": bson.M{
			"status":        models.CodeUsed,
			"usedAt":        now,
			"redeemedBy":    redeemedBy,
			"transactionId": transactionID,
			"updatedAt":     now,
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var redeemed models.VerificationCode
	err := r.Collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&redeemed)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, exceptions.ErrMongoDBUpdateDocument(err)
	}
	return &redeemed, nil
}

// MarkExpired relabels unused codes past their expiry. Running it twice,
// or concurrently with redemption, changes nothing it should not: the
// unused filter skips codes another writer already moved on.
func (r *VerificationCodeMongoRepository) MarkExpired(ctx context.Context, tc tenant.Context, now time.Time) (int64, error) {
	if tc.IsZero() {
		return 0, exceptions.ErrTenantMissing(errors.New(constvars.ErrDevTenantMissing))
	}

	filter := bson.M{
		"tenantId":  tc.ID(),
		"status":    models.CodeUnused,
		"expiresAt": bson.M{"$lte": now},
	}
	update := bson.M{
		"$set": bson.M{
			"status":    models.CodeExpired,
			"updatedAt": now,
		},
	}

	result, err := r.Collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, exceptions.ErrMongoDBUpdateDocument(err)
	}
	return result.ModifiedCount, nil
}

func (r *VerificationCodeMongoRepository) ListTenantIDs(ctx context.Context) ([]string, error) {
	values, err := r.Collection.Distinct(ctx, "tenantId", bson.M{})
	if err != nil {
		return nil, exceptions.ErrMongoDBFindDocument(err)
	}

	tenantIDs := make([]string, 0, len(values))
	for _, value := range values {
		if id, ok := value.(string); ok {
			tenantIDs = append(tenantIDs, id)
		}
	}
	return tenantIDs, nil
}

func classifyDuplicate(err error) error {
	message := err.Error()
	switch {
	case strings.Contains(message, constvars.MongoIndexUniqueTenantCode):
		return ErrCodeValueTaken
	case strings.Contains(message, constvars.MongoIndexUniqueSessionCode):
		return ErrSessionCodeExists
	default:
		return ErrDuplicateUnknown
	}
}
