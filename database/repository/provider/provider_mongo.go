package providerRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"joservice/database"
	"joservice/models"
	"joservice/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// MongoProviderRepo implements ProviderRepository using MongoDB.
type MongoProviderRepo struct {
	coll *mongo.Collection
}

// NewMongoProviderRepo creates a new instance of ProviderRepository using MongoDB.
func NewMongoProviderRepo(db *mongo.Database) ProviderRepository {
	repo := &MongoProviderRepo{coll: db.Collection("providers")}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Warn("provider indexes not created", zap.Error(err))
	}
	return repo
}

func (r *MongoProviderRepo) GetByID(ctx context.Context, id string) (*models.Provider, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.StorageTimeout)
	defer cancel()

	var provider models.Provider
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&provider); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("provider %s: %w", id, database.ErrNotFound)
		}
		return nil, fmt.Errorf("error fetching provider with id %s: %w", id, err)
	}
	return &provider, nil
}

func (r *MongoProviderRepo) UpdateRatingAggregate(ctx context.Context, id string, average float64, total int) error {
	ctx, cancel := context.WithTimeout(ctx, utils.StorageTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"averageRating": average,
		"totalRatings":  total,
		"updatedAt":     time.Now().UTC(),
	}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return fmt.Errorf("error updating rating aggregate for provider %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("provider %s: %w", id, database.ErrNotFound)
	}
	return nil
}
