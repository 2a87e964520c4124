package cron

import (
	"context"
	"fmt"
	"time"

	"joservice/config"
	"joservice/models"
	"joservice/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// NotificationPersister stores a notification handed back by the queue.
type NotificationPersister interface {
	Persist(ctx context.Context, n *models.Notification) error
}

// RatingRecomputer rebuilds a provider's aggregate rating.
type RatingRecomputer interface {
	Recompute(ctx context.Context, providerID string) error
}

// QueueRedisOpt is the asynq connection shared by the client and the worker.
func QueueRedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// NewMux routes retry tasks to their handlers.
func NewMux(notifications NotificationPersister, ratings RatingRecomputer, logger *zap.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypePersistNotification, handlePersistNotification(notifications, logger))
	mux.HandleFunc(tasks.TypeRecomputeRating, handleRecomputeRating(ratings, logger))
	return mux
}

// StartRetryWorker runs the asynq worker in the background and returns it so
// the caller can shut it down.
func StartRetryWorker(notifications NotificationPersister, ratings RatingRecomputer, logger *zap.Logger) (*asynq.Server, error) {
	srv := asynq.NewServer(
		QueueRedisOpt(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
			Logger:          logger.Sugar(),
			ShutdownTimeout: config.AppConfig.ShutdownTimeout,
		},
	)

	mux := NewMux(notifications, ratings, logger)

	const maxAttempts = 5
	var err error
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		if err = srv.Start(mux); err == nil {
			logger.Info("retry worker started")
			return srv, nil
		}
		logger.Warn("retry worker failed to start",
			zap.Int("attempt", attempts),
			zap.Int("maxAttempts", maxAttempts),
			zap.Error(err))
		time.Sleep(time.Duration(attempts*2) * time.Second)
	}
	return nil, fmt.Errorf("retry worker: %w", err)
}

func handlePersistNotification(svc NotificationPersister, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		n, err := tasks.ParsePersistNotification(task)
		if err != nil {
			logger.Error("invalid notification task payload", zap.Error(err))
			return fmt.Errorf("decode notification: %v: %w", err, asynq.SkipRetry)
		}
		if err := svc.Persist(ctx, n); err != nil {
			logger.Warn("notification retry failed", zap.String("notificationId", n.ID), zap.Error(err))
			return err
		}
		logger.Info("notification persisted by retry worker", zap.String("notificationId", n.ID))
		return nil
	}
}

func handleRecomputeRating(svc RatingRecomputer, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		p, err := tasks.ParseRecomputeRating(task)
		if err != nil || p.ProviderID == "" {
			logger.Error("invalid rating task payload", zap.Error(err))
			return fmt.Errorf("decode rating task: %w", asynq.SkipRetry)
		}
		if err := svc.Recompute(ctx, p.ProviderID); err != nil {
			logger.Warn("rating recompute failed", zap.String("providerId", p.ProviderID), zap.Error(err))
			return err
		}
		return nil
	}
}
