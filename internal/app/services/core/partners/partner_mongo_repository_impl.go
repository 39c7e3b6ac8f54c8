package partners

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

type PartnerMongoRepository struct {
	Collection *mongo.Collection
}

func NewPartnerMongoRepository(db *mongo.Client, dbName string) contracts.PartnerRepository {
	return &PartnerMongoRepository{
		Collection: db.Database(dbName).Collection(constvars.MongoCollectionPartners),
	}
}

func (r *PartnerMongoRepository) CreatePartner(ctx context.Context, tc tenant.Context, partner *models.Partner) (string, error) {
	if tc.IsZero() {
		return "", exceptions.ErrTenantMissing(errors.New(constvars.ErrDevTenantMissing))
	}
	partner.TenantID = tc.ID()

	result, err := r.Collection.InsertOne(ctx, partner)
	if err != nil {
		return "", exceptions.ErrMongoDBInsertDocument(err)
	}
	return result.InsertedID.(string), nil
}

func (r *PartnerMongoRepository) FindByID(ctx context.Context, tc tenant.Context, partnerID string) (*models.Partner, error) {
	if tc.IsZero() {
		return nil, exceptions.ErrTenantMissing(errors.New(constvars.ErrDevTenantMissing))
	}

	var partner models.Partner
	err := r.Collection.FindOne(ctx, bson.M{"_id": partnerID, "tenantId": tc.ID()}).Decode(&partner)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, exceptions.ErrMongoDBFindDocument(err)
	}
	return &partner, nil
}

func (r *PartnerMongoRepository) FindAll(ctx context.Context, tc tenant.Context, page, pageSize int) ([]models.Partner, int, error) {
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

	result := make([]models.Partner, 0, pageSize)
	if err := cursor.All(ctx, &result); err != nil {
		return nil, 0, exceptions.ErrMongoDBIterateDocuments(err)
	}
	return result, int(total), nil
}

// FindByAPIKeyID runs before any tenant is established; the key id is
// globally unique, so this is the one partner read without a tenant
// filter.
func (r *PartnerMongoRepository) FindByAPIKeyID(ctx context.Context, apiKeyID string) (*models.Partner, error) {
	var partner models.Partner
	err := r.Collection.FindOne(ctx, bson.M{"apiKeyId": apiKeyID}).Decode(&partner)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, exceptions.ErrMongoDBFindDocument(err)
	}
	return &partner, nil
}

func (r *PartnerMongoRepository) UpdateStatus(ctx context.Context, tc tenant.Context, partnerID string, status models.PartnerStatus) error {
	if tc.IsZero() {
		return exceptions.ErrTenantMissing(errors.New(constvars.ErrDevTenantMissing))
	}

	filter := bson.M{"_id": partnerID, "tenantId": tc.ID()}
	update := bson.M{
		"$set": bson.M{"status": status},
		"$currentDate": bson.M{
			"updatedAt": true,
		},
	}

	result, err := r.Collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(false))
	if err != nil {
		return exceptions.ErrMongoDBUpdateDocument(err)
	}
	if result.MatchedCount == 0 {
		return exceptions.ErrPartnerNotFound(mongo.ErrNoDocuments)
	}
	return nil
}
