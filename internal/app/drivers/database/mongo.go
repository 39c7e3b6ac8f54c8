package database

import (
	"context"
	"fmt"
	"log"

	"aegis-service/internal/app/config"
	"aegis-service/internal/pkg/constvars"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func NewMongoDB(driverConfig *config.DriverConfig) *mongo.Client {
	connectionString := fmt.Sprintf(
		"mongodb://%s:%s@%s:%s",
		driverConfig.MongoDB.Username,
		driverConfig.MongoDB.Password,
		driverConfig.MongoDB.Host,
		driverConfig.MongoDB.Port,
	)
	dbOptions := options.Client().ApplyURI(connectionString)
	client, err := mongo.Connect(context.TODO(), dbOptions)
	if err != nil {
		log.Fatalf("Failed to connect to mongo database: %s", err.Error())
	}
	err = client.Ping(context.TODO(), nil)
	if err != nil {
		log.Fatalf("Failed to ping or test the connection to mongo database: %s", err.Error())
	}
	log.Println("Successfully connected to mongo database")
	return client
}

// EnsureAegisIndexes creates the indexes the service's correctness rests
// on. The unique {tenantId, code} index backs bounded-retry code
// generation and the unique sessionId index enforces one code per
// screening; both must exist before traffic is served.
func EnsureAegisIndexes(ctx context.Context, client *mongo.Client, dbName string) error {
	db := client.Database(dbName)

	codeIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "tenantId", Value: 1}, {Key: "code", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(constvars.MongoIndexUniqueTenantCode),
		},
		{
			Keys:    bson.D{{Key: "sessionId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(constvars.MongoIndexUniqueSessionCode),
		},
		{
			Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "status", Value: 1}, {Key: "expiresAt", Value: 1}},
		},
	}
	_, err := db.Collection(constvars.MongoCollectionVerificationCodes).Indexes().CreateMany(ctx, codeIndexes)
	if err != nil {
		return err
	}

	versionIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "tenantId", Value: 1}, {Key: "programId", Value: 1}, {Key: "version", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, err = db.Collection(constvars.MongoCollectionQuestionnaireVersions).Indexes().CreateMany(ctx, versionIndexes)
	if err != nil {
		return err
	}

	sessionIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "programId", Value: 1}},
		},
	}
	_, err = db.Collection(constvars.MongoCollectionScreeningSessions).Indexes().CreateMany(ctx, sessionIndexes)
	if err != nil {
		return err
	}

	partnerIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "apiKeyId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "tenantId", Value: 1}},
		},
	}
	_, err = db.Collection(constvars.MongoCollectionPartners).Indexes().CreateMany(ctx, partnerIndexes)
	if err != nil {
		return err
	}

	programIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "tenantId", Value: 1}},
		},
	}
	_, err = db.Collection(constvars.MongoCollectionPrograms).Indexes().CreateMany(ctx, programIndexes)
	return err
}
