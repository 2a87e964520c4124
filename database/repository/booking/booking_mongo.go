package bookingRepo

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
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoBookingRepo implements BookingRepository using MongoDB.
type MongoBookingRepo struct {
	coll *mongo.Collection
}

func NewMongoBookingRepo(db *mongo.Database) BookingRepository {
	repo := &MongoBookingRepo{coll: db.Collection("bookings")}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Warn("booking indexes not created", zap.Error(err))
	}
	return repo
}

func (r *MongoBookingRepo) Create(ctx context.Context, booking *models.Booking) error {
	ctx, cancel := context.WithTimeout(ctx, utils.StorageTimeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, booking); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("booking %s: %w", booking.ID, database.ErrDuplicate)
		}
		return fmt.Errorf("failed to insert booking: %w", err)
	}
	return nil
}

func (r *MongoBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.StorageTimeout)
	defer cancel()

	var booking models.Booking
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&booking); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("booking %s: %w", id, database.ErrNotFound)
		}
		return nil, fmt.Errorf("error fetching booking with id %s: %w", id, err)
	}
	return &booking, nil
}

func (r *MongoBookingRepo) UpdateStatus(ctx context.Context, id string, from, to models.BookingStatus) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.StorageTimeout)
	defer cancel()

	filter := bson.M{"id": id, "status": from}
	update := bson.M{"$set": bson.M{"status": to, "updatedAt": time.Now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Booking
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err == nil {
		return &updated, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to update booking %s status: %w", id, err)
	}

	// Either the booking is gone or another writer moved it first.
	n, countErr := r.coll.CountDocuments(ctx, bson.M{"id": id})
	if countErr != nil {
		return nil, fmt.Errorf("failed to check booking %s: %w", id, countErr)
	}
	if n == 0 {
		return nil, fmt.Errorf("booking %s: %w", id, database.ErrNotFound)
	}
	return nil, fmt.Errorf("booking %s no longer %s: %w", id, from, database.ErrConflict)
}

func (r *MongoBookingRepo) ListByRequester(ctx context.Context, requesterID string, opts models.BookingListOptions) ([]models.Booking, int64, error) {
	return r.listByParty(ctx, "requesterId", requesterID, opts)
}

func (r *MongoBookingRepo) ListByProvider(ctx context.Context, providerID string, opts models.BookingListOptions) ([]models.Booking, int64, error) {
	return r.listByParty(ctx, "providerId", providerID, opts)
}

func (r *MongoBookingRepo) listByParty(ctx context.Context, field, partyID string, opts models.BookingListOptions) ([]models.Booking, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.StorageTimeout)
	defer cancel()

	filter := bson.M{field: partyID}
	if opts.Status != "" {
		filter["status"] = opts.Status
	}

	findOpts := options.Find().
		SetSort(bson.D{{Key: "serviceDateTime", Value: -1}, {Key: "createdAt", Value: -1}}).
		SetSkip(int64((opts.Page - 1) * opts.Limit)).
		SetLimit(int64(opts.Limit))

	cursor, err := r.coll.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings by %s: %w", field, err)
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, 0, fmt.Errorf("failed to decode bookings: %w", err)
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings by %s: %w", field, err)
	}
	return bookings, total, nil
}
