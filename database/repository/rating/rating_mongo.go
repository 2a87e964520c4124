package ratingRepo

import (
	"context"
	"errors"
	"fmt"

	"joservice/database"
	"joservice/models"
	"joservice/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type MongoRatingRepo struct {
	coll *mongo.Collection
}

func NewMongoRatingRepo(db *mongo.Database) RatingRepository {
	repo := &MongoRatingRepo{coll: db.Collection("ratings")}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Warn("rating indexes not created", zap.Error(err))
	}
	return repo
}

func (r *MongoRatingRepo) Create(ctx context.Context, rating *models.Rating) error {
	ctx, cancel := context.WithTimeout(ctx, utils.StorageTimeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, rating); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("rating for booking %s: %w", rating.BookingID, database.ErrDuplicate)
		}
		return fmt.Errorf("failed to insert rating: %w", err)
	}
	return nil
}

func (r *MongoRatingRepo) GetByBookingID(ctx context.Context, bookingID string) (*models.Rating, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.StorageTimeout)
	defer cancel()

	var rating models.Rating
	if err := r.coll.FindOne(ctx, bson.M{"bookingId": bookingID}).Decode(&rating); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("rating for booking %s: %w", bookingID, database.ErrNotFound)
		}
		return nil, fmt.Errorf("error fetching rating for booking %s: %w", bookingID, err)
	}
	return &rating, nil
}

func (r *MongoRatingRepo) DeleteByBookingID(ctx context.Context, bookingID string) (*models.Rating, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.StorageTimeout)
	defer cancel()

	var rating models.Rating
	if err := r.coll.FindOneAndDelete(ctx, bson.M{"bookingId": bookingID}).Decode(&rating); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("rating for booking %s: %w", bookingID, database.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to delete rating for booking %s: %w", bookingID, err)
	}
	return &rating, nil
}

func (r *MongoRatingRepo) AggregateByProvider(ctx context.Context, providerID string) (models.RatingStats, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.StorageTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"providerId": providerID}}},
		{{Key: "$group", Value: bson.M{
			"_id":     "$providerId",
			"average": bson.M{"$avg": "$stars"},
			"count":   bson.M{"$sum": 1},
		}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return models.RatingStats{}, fmt.Errorf("failed to aggregate ratings for provider %s: %w", providerID, err)
	}
	defer cursor.Close(ctx)

	var stats models.RatingStats
	if cursor.Next(ctx) {
		if err := cursor.Decode(&stats); err != nil {
			return models.RatingStats{}, fmt.Errorf("failed to decode rating aggregate: %w", err)
		}
	}
	if err := cursor.Err(); err != nil {
		return models.RatingStats{}, fmt.Errorf("rating aggregate cursor: %w", err)
	}
	return stats, nil
}

func (r *MongoRatingRepo) ListByProvider(ctx context.Context, providerID string, limit int) ([]models.Rating, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.StorageTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(int64(limit))
	cursor, err := r.coll.Find(ctx, bson.M{"providerId": providerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings for provider %s: %w", providerID, err)
	}
	defer cursor.Close(ctx)

	ratings := make([]models.Rating, 0, limit)
	if err := cursor.All(ctx, &ratings); err != nil {
		return nil, fmt.Errorf("failed to decode ratings: %w", err)
	}
	return ratings, nil
}
