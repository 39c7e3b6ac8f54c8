package programs

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

type ProgramMongoRepository struct {
	Collection *mongo.Collection
}

func NewProgramMongoRepository(db *mongo.Client, dbName string) contracts.ProgramRepository {
	return &ProgramMongoRepository{
		Collection: db.Database(dbName).Collection(constvars.MongoCollectionPrograms),
	}
}

func (r *ProgramMongoRepository) CreateProgram(ctx context.Context, tc tenant.Context, program *models.Program) (string, error) {
	if tc.IsZero() {
		return "", exceptions.ErrTenantMissing(errors.New(constvars.ErrDevTenantMissing))
	}
	program.TenantID = tc.ID()

	result, err := r.Collection.InsertOne(ctx, program)
	if err != nil {
		return "", exceptions.ErrMongoDBInsertDocument(err)
	}
	return result.InsertedID.(string), nil
}

func (r *ProgramMongoRepository) FindByID(ctx context.Context, tc tenant.Context, programID string) (*models.Program, error) {
	if tc.IsZero() {
		return nil, exceptions.ErrTenantMissing(errors.New(constvars.ErrDevTenantMissing))
	}

	var program models.Program
	err := r.Collection.FindOne(ctx, bson.M{"_id": programID, "tenantId": tc.ID()}).Decode(&program)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, exceptions.ErrMongoDBFindDocument(err)
	}
	return &program, nil
}

func (r *ProgramMongoRepository) FindAll(ctx context.Context, tc tenant.Context, page, pageSize int) ([]models.Program, int, error) {
	if tc.IsZero() {
		return nil, 0, exceptions.ErrTenantMissing(errors.New(constvars.ErrDevTenantMissing))
	}

	filter := bson.M{"tenantId": tc.ID()}

	total, err := r.Collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, exceptions.ErrMongoDBFindDocument(err)
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((page - 1) * pageSize)).
		SetLimit(int64(pageSize))

	cursor, err := r.Collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, exceptions.ErrMongoDBFindDocument(err)
	}
	defer cursor.Close(ctx)

	programs := make([]models.Program, 0, pageSize)
	if err := cursor.All(ctx, &programs); err != nil {
		return nil, 0, exceptions.ErrMongoDBIterateDocuments(err)
	}
	return programs, int(total), nil
}

func (r *ProgramMongoRepository) UpdateActiveVersion(ctx context.Context, tc tenant.Context, programID, versionID string) error {
	if tc.IsZero() {
		return exceptions.ErrTenantMissing(errors.New(constvars.ErrDevTenantMissing))
	}

	filter := bson.M{"_id": programID, "tenantId": tc.ID()}
	update := bson.M{
		"$set": bson.M{"activeVersionId": versionID},
		"$currentDate": bson.M{
			"updatedAt": true,
		},
	}

	result, err := r.Collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(false))
	if err != nil {
		return exceptions.ErrMongoDBUpdateDocument(err)
	}
	if result.MatchedCount == 0 {
		return exceptions.ErrProgramNotFound(mongo.ErrNoDocuments)
	}
	return nil
}
