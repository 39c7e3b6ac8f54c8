package questionnaires

import (
	"context"
	"errors"

	"aegis-service/internal/app/contracts"
	"aegis-service/internal/app/models"
	"aegis-service/internal/pkg/constvars"
	"aegis-service/internal/pkg/exceptions"
	"aegis-service/internal/pkg/tenant"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type QuestionnaireVersionMongoRepository struct {
	Collection *mongo.Collection
}

func NewQuestionnaireVersionMongoRepository(db *mongo.Client, dbName string) contracts.QuestionnaireVersionRepository {
	return &QuestionnaireVersionMongoRepository{
		Collection: db.Database(dbName).Collection(constvars.MongoCollectionQuestionnaireVersions),
	}
}

func (r *QuestionnaireVersionMongoRepository) CreateQuestionnaireVersion(ctx context.Context, tc tenant.Context, version *models.QuestionnaireVersion) (string, error) {
	if tc.IsZero() {
		return "", exceptions.ErrTenantMissing(errors.New(constvars.ErrDevTenantMissing))
	}
	version.TenantID = tc.ID()

	result, err := r.Collection.InsertOne(ctx, version)
	if err != nil {
		return "", exceptions.ErrMongoDBInsertDocument(err)
	}
	return result.InsertedID.(string), nil
}

func (r *QuestionnaireVersionMongoRepository) FindByID(ctx context.Context, tc tenant.Context, versionID string) (*models.QuestionnaireVersion, error) {
	if tc.IsZero() {
		return nil, exceptions.ErrTenantMissing(errors.New(constvars.ErrDevTenantMissing))
	}

	var version models.QuestionnaireVersion
	err := r.Collection.FindOne(ctx, bson.M{"_id": versionID, "tenantId": tc.ID()}).Decode(&version)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, exceptions.ErrMongoDBFindDocument(err)
	}
	return &version, nil
}

func (r *QuestionnaireVersionMongoRepository) FindByProgramID(ctx context.Context, tc tenant.Context, programID string) ([]models.QuestionnaireVersion, error) {
	if tc.IsZero() {
		return nil, exceptions.ErrTenantMissing(errors.New(constvars.ErrDevTenantMissing))
	}

	filter := bson.M{"tenantId": tc.ID(), "programId": programID}
	findOptions := options.Find().SetSort(bson.D{{Key: "version", Value: -1}})

	cursor, err := r.Collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, exceptions.ErrMongoDBFindDocument(err)
	}
	defer cursor.Close(ctx)

	versions := make([]models.QuestionnaireVersion, 0)
	if err := cursor.All(ctx, &versions); err != nil {
		return nil, exceptions.ErrMongoDBIterateDocuments(err)
	}
	return versions, nil
}

// FindLatestVersionNumber returns 0 when the program has no versions yet,
// so the first publish becomes version 1.
func (r *QuestionnaireVersionMongoRepository) FindLatestVersionNumber(ctx context.Context, tc tenant.Context, programID string) (int, error) {
	if tc.IsZero() {
		return 0, exceptions.ErrTenantMissing(errors.New(constvars.ErrDevTenantMissing))
	}

	filter := bson.M{"tenantId": tc.ID(), "programId": programID}
	findOptions := options.FindOne().SetSort(bson.D{{Key: "version", Value: -1}})

	var latest models.QuestionnaireVersion
	err := r.Collection.FindOne(ctx, filter, findOptions).Decode(&latest)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, nil
		}
		return 0, exceptions.ErrMongoDBFindDocument(err)
	}
	return latest.Version, nil
}

func (r *QuestionnaireVersionMongoRepository) UpdateStatus(ctx context.Context, tc tenant.Context, versionID string, status models.QuestionnaireVersionStatus) error {
	if tc.IsZero() {
		return exceptions.ErrTenantMissing(errors.New(constvars.ErrDevTenantMissing))
	}

	filter := bson.M{"_id": versionID, "tenantId": tc.ID()}
	currentDate := bson.M{"updatedAt": true}
	if status == models.VersionRetired {
		currentDate["retiredAt"] = true
	}
	update := bson.M{
		"$set":         bson.M{"status": status},
		"$currentDate": currentDate,
	}

	_, err := r.Collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(false))
	if err != nil {
		return exceptions.ErrMongoDBUpdateDocument(err)
	}
	return nil
}
