package notificationRepo

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

type MongoNotificationRepo struct {
	coll *mongo.Collection
}

func NewMongoNotificationRepo(db *mongo.Database) NotificationRepository {
	repo := &MongoNotificationRepo{coll: db.Collection("notifications")}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Warn("notification indexes not created", zap.Error(err))
	}
	return repo
}

func recipientFilter(recipient models.Principal) bson.M {
	return bson.M{"recipientId": recipient.ID, "recipientRole": recipient.Role.String()}
}

func (r *MongoNotificationRepo) Insert(ctx context.Context, n *models.Notification) error {
	ctx, cancel := context.WithTimeout(ctx, utils.StorageTimeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, n); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("notification %s: %w", n.ID, database.ErrDuplicate)
		}
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

func (r *MongoNotificationRepo) List(ctx context.Context, recipient models.Principal, opts models.NotificationListOptions) ([]models.Notification, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.StorageTimeout)
	defer cancel()

	filter := recipientFilter(recipient)
	if opts.UnreadOnly {
		filter["isRead"] = false
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	findOpts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((opts.Page - 1) * opts.Limit)).
		SetLimit(int64(opts.Limit))
	cursor, err := r.coll.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer cursor.Close(ctx)

	notifications := make([]models.Notification, 0, opts.Limit)
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, 0, fmt.Errorf("failed to decode notifications: %w", err)
	}
	return notifications, total, nil
}

func (r *MongoNotificationRepo) CountUnread(ctx context.Context, recipient models.Principal) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.StorageTimeout)
	defer cancel()

	filter := recipientFilter(recipient)
	filter["isRead"] = false
	n, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return n, nil
}

func (r *MongoNotificationRepo) MarkRead(ctx context.Context, recipient models.Principal, id string) (*models.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.StorageTimeout)
	defer cancel()

	filter := recipientFilter(recipient)
	filter["id"] = id
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var n models.Notification
	err := r.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": bson.M{"isRead": true}}, opts).Decode(&n)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("notification %s: %w", id, database.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to mark notification %s read: %w", id, err)
	}
	return &n, nil
}

func (r *MongoNotificationRepo) MarkAllRead(ctx context.Context, recipient models.Principal) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.StorageTimeout)
	defer cancel()

	filter := recipientFilter(recipient)
	filter["isRead"] = false
	res, err := r.coll.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"isRead": true}})
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return res.ModifiedCount, nil
}
