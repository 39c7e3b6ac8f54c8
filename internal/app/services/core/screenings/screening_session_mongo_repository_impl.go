package screenings

import (
	"context"
	"errors"
	"time"

	"aegis-service/internal/app/contracts"
	"aegis-service/internal/app/models"
	"aegis-service/internal/pkg/constvars"
	"aegis-service/internal/pkg/eligibility"
	"aegis-service/internal/pkg/exceptions"
	"aegis-service/internal/pkg/tenant"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ScreeningSessionMongoRepository struct {
	Collection *mongo.Collection
}

func NewScreeningSessionMongoRepository(db *mongo.Client, dbName string) contracts.ScreeningSessionRepository {
	return &ScreeningSessionMongoRepository{
		Collection: db.Database(dbName).Collection(constvars.MongoCollectionScreeningSessions),
	}
}

func (r *ScreeningSessionMongoRepository) CreateScreeningSession(ctx context.Context, tc tenant.Context, session *models.ScreeningSession) (string, error) {
	if tc.IsZero() {
		return "", exceptions.ErrTenantMissing(errors.New(constvars.ErrDevTenantMissing))
	}
	session.TenantID = tc.ID()

	result, err := r.Collection.InsertOne(ctx, session)
	if err != nil {
		return "", exceptions.ErrMongoDBInsertDocument(err)
	}
	return result.InsertedID.(string), nil
}

func (r *ScreeningSessionMongoRepository) FindByID(ctx context.Context, tc tenant.Context, sessionID string) (*models.ScreeningSession, error) {
	if tc.IsZero() {
		return nil, exceptions.ErrTenantMissing(errors.New(constvars.ErrDevTenantMissing))
	}

	var session models.ScreeningSession
	err := r.Collection.FindOne(ctx, bson.M{"_id": sessionID, "tenantId": tc.ID()}).Decode(&session)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, exceptions.ErrMongoDBFindDocument(err)
	}
	return &session, nil
}

// CompleteSession transitions started -> completed in one conditional
// update. The status filter is what makes completion one-shot: a second
// submission matches nothing regardless of interleaving.
func (r *ScreeningSessionMongoRepository) CompleteSession(ctx context.Context, tc tenant.Context, sessionID string, answers eligibility.Answers, outcome eligibility.Outcome, completedAt time.Time) (bool, error) {
	if tc.IsZero() {
		return false, exceptions.ErrTenantMissing(errors.New(constvars.ErrDevTenantMissing))
	}

	filter := bson.M{
		"_id":      sessionID,
		"tenantId": tc.ID(),
		"status":   models.ScreeningStarted,
	}
	update := bson.M{
		"$set": bson.M{
			"status":      models.ScreeningCompleted,
			"answers":     answers,
			"outcome":     outcome,
			"completedAt": completedAt,
			"updatedAt":   completedAt,
		},
	}

	result, err := r.Collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(false))
	if err != nil {
		return false, exceptions.ErrMongoDBUpdateDocument(err)
	}
	return result.MatchedCount == 1, nil
}
