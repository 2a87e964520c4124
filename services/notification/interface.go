package notification

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"joservice/database/repository"
	"joservice/models"
	"joservice/services/push"
	"joservice/services/tasks"
	"joservice/utils"

	"go.uber.org/zap"
)

// NotificationService persists notifications for booking events, pushes them to
// live channels and serves each recipient's feed.
type NotificationService interface {
	// Dispatch handles a committed transition in the background and never blocks.
	Dispatch(event models.TransitionEvent)
	// CreateDirect persists n synchronously, then pushes it in the background.
	// It serves callers outside the booking lifecycle; booking creation goes
	// through Dispatch so it shares the deterministic ID and the retry queue.
	CreateDirect(ctx context.Context, n *models.Notification) (*models.Notification, error)
	// Persist stores a notification handed back by the retry worker and pushes it.
	Persist(ctx context.Context, n *models.Notification) error

	List(ctx context.Context, recipient models.Principal, opts models.NotificationListOptions) (*models.NotificationPage, error)
	UnreadCount(ctx context.Context, recipient models.Principal) (int64, error)
	MarkAsRead(ctx context.Context, recipient models.Principal, id string) (*models.Notification, error)
	MarkAllAsRead(ctx context.Context, recipient models.Principal) (int64, error)

	// Shutdown abandons pending pushes and waits for in-flight persistence.
	Shutdown(ctx context.Context) error
}

// RealtimeSender pushes a payload to every live channel of a principal and
// reports how many accepted it.
type RealtimeSender interface {
	Send(ctx context.Context, p models.Principal, payload []byte) int
}

// Config wires the dispatcher's collaborators. Providers, Devices, Pusher and
// Queue are optional.
type Config struct {
	Notifications   repository.NotificationRepository
	Providers       repository.ProviderRepository
	Devices         repository.DeviceRepository
	Realtime        RealtimeSender
	Pusher          push.Pusher
	Queue           tasks.Enqueuer
	Logger          *zap.Logger
	PersistAttempts int
	PersistBackoff  time.Duration
}

// DefaultNotificationService implements NotificationService.
type DefaultNotificationService struct {
	repo            repository.NotificationRepository
	providers       repository.ProviderRepository
	devices         repository.DeviceRepository
	realtime        RealtimeSender
	pusher          push.Pusher
	queue           tasks.Enqueuer
	logger          *zap.Logger
	persistAttempts int
	persistBackoff  time.Duration

	inflight   sync.WaitGroup
	mu         sync.RWMutex
	closed     atomic.Bool
	pushCtx    context.Context
	cancelPush context.CancelFunc
}

func NewDefaultNotificationService(cfg Config) (*DefaultNotificationService, error) {
	if cfg.Notifications == nil || cfg.Realtime == nil {
		return nil, fmt.Errorf("notification service initialization error: repository or realtime sender is nil")
	}
	if cfg.Logger == nil {
		cfg.Logger = utils.GetLogger()
	}
	if cfg.PersistAttempts <= 0 {
		cfg.PersistAttempts = 3
	}
	if cfg.PersistBackoff <= 0 {
		cfg.PersistBackoff = 200 * time.Millisecond
	}
	pushCtx, cancel := context.WithCancel(context.Background())
	return &DefaultNotificationService{
		repo:            cfg.Notifications,
		providers:       cfg.Providers,
		devices:         cfg.Devices,
		realtime:        cfg.Realtime,
		pusher:          cfg.Pusher,
		queue:           cfg.Queue,
		logger:          cfg.Logger,
		persistAttempts: cfg.PersistAttempts,
		persistBackoff:  cfg.PersistBackoff,
		pushCtx:         pushCtx,
		cancelPush:      cancel,
	}, nil
}
