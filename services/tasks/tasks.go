package tasks

import (
	"context"
	"encoding/json"
	"time"

	"joservice/models"

	"github.com/hibiken/asynq"
)

const (
	TypePersistNotification = "notification:persist"
	TypeRecomputeRating     = "rating:recompute"
)

// Enqueuer is the part of *asynq.Client the services use.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// RecomputeRatingPayload names the provider whose aggregate must be rebuilt.
type RecomputeRatingPayload struct {
	ProviderID string `json:"providerId"`
}

// NewPersistNotificationTask wraps a notification whose insert kept failing.
// The ID is reused as the task ID so a notification is queued at most once.
func NewPersistNotificationTask(n *models.Notification) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(n)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypePersistNotification, b)
	opts := []asynq.Option{
		asynq.TaskID(TypePersistNotification + ":" + n.ID),
		asynq.MaxRetry(10),
		asynq.Retention(24 * time.Hour),
	}
	return task, opts, nil
}

func NewRecomputeRatingTask(providerID string) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(RecomputeRatingPayload{ProviderID: providerID})
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeRecomputeRating, b)
	opts := []asynq.Option{
		asynq.MaxRetry(10),
		asynq.Timeout(30 * time.Second),
	}
	return task, opts, nil
}

func ParsePersistNotification(task *asynq.Task) (*models.Notification, error) {
	var n models.Notification
	if err := json.Unmarshal(task.Payload(), &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func ParseRecomputeRating(task *asynq.Task) (RecomputeRatingPayload, error) {
	var p RecomputeRatingPayload
	err := json.Unmarshal(task.Payload(), &p)
	return p, err
}
