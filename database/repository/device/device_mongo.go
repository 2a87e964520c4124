package deviceRepo

import (
	"context"
	"fmt"

	"joservice/models"
	"joservice/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type MongoDeviceRepo struct {
	coll *mongo.Collection
}

func NewMongoDeviceRepo(db *mongo.Database) DeviceRepository {
	repo := &MongoDeviceRepo{coll: db.Collection("devices")}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Warn("device indexes not created", zap.Error(err))
	}
	return repo
}

func (r *MongoDeviceRepo) Upsert(ctx context.Context, device *models.Device) error {
	ctx, cancel := context.WithTimeout(ctx, utils.StorageTimeout)
	defer cancel()

	update := bson.M{"$set": device}
	_, err := r.coll.UpdateOne(ctx, bson.M{"fcmToken": device.FCMToken}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert device token: %w", err)
	}
	return nil
}

func (r *MongoDeviceRepo) ListTokens(ctx context.Context, principal models.Principal) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.StorageTimeout)
	defer cancel()

	filter := bson.M{"principalId": principal.ID, "principalRole": principal.Role.String()}
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetProjection(bson.M{"fcmToken": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to list device tokens: %w", err)
	}
	defer cursor.Close(ctx)

	var devices []models.Device
	if err := cursor.All(ctx, &devices); err != nil {
		return nil, fmt.Errorf("failed to decode device tokens: %w", err)
	}
	tokens := make([]string, 0, len(devices))
	for _, d := range devices {
		tokens = append(tokens, d.FCMToken)
	}
	return tokens, nil
}

func (r *MongoDeviceRepo) Remove(ctx context.Context, token string) error {
	ctx, cancel := context.WithTimeout(ctx, utils.StorageTimeout)
	defer cancel()

	if _, err := r.coll.DeleteOne(ctx, bson.M{"fcmToken": token}); err != nil {
		return fmt.Errorf("failed to remove device token: %w", err)
	}
	return nil
}
