package notification

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"joservice/database"
	"joservice/models"
	"joservice/services/tasks"
	"joservice/utils"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// notificationNamespace seeds deterministic notification IDs so a retried
// persist of the same event collides with the first insert.
var notificationNamespace = uuid.MustParse("6f1c2a7e-4b0d-5d8e-9a51-3c7f0e2b9d41")

const (
	defaultRequesterName = "A customer"
	defaultProviderName  = "Your provider"
	defaultServiceName   = "service"
	lookupTimeout        = 2 * time.Second
	enqueueTimeout       = 5 * time.Second
)

// EventNotificationID is the notification ID produced for a booking reaching status.
func EventNotificationID(bookingID string, status models.BookingStatus) string {
	return uuid.NewSHA1(notificationNamespace, []byte(bookingID+":"+string(status))).String()
}

func (s *DefaultNotificationService) Dispatch(event models.TransitionEvent) {
	if !s.track() {
		// Shutting down: keep the durable half, skip the push.
		s.logger.Warn("dispatch after shutdown, persisting synchronously", zap.String("bookingId", event.BookingID))
		if n, ok := s.buildForEvent(context.Background(), event); ok {
			s.persistOrEnqueue(context.Background(), n)
		}
		return
	}
	go func() {
		defer s.inflight.Done()
		defer s.recoverPanic("dispatch", event.BookingID)

		n, ok := s.buildForEvent(context.Background(), event)
		if !ok {
			return
		}
		if !s.persistOrEnqueue(context.Background(), n) {
			return
		}
		s.push(s.pushCtx, n)
	}()
}

func (s *DefaultNotificationService) CreateDirect(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	if n == nil || n.RecipientID == "" || !n.RecipientRole.Valid() {
		return nil, utils.NewError(utils.CodeValidation, "notification recipient is required")
	}
	if n.Type == "" || n.Title == "" {
		return nil, utils.NewError(utils.CodeValidation, "notification type and title are required")
	}
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	if err := s.persist(ctx, n); err != nil {
		return nil, err
	}
	s.pushAsync(n)
	return n, nil
}

func (s *DefaultNotificationService) Persist(ctx context.Context, n *models.Notification) error {
	if err := s.insert(ctx, n); err != nil {
		return utils.WrapError(err, utils.CodePersistence, "failed to persist notification")
	}
	s.push(ctx, n)
	return nil
}

func (s *DefaultNotificationService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed.Store(true)
	s.mu.Unlock()
	s.cancelPush()

	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.logger.Error("notification shutdown timed out with persistence in flight")
		return ctx.Err()
	}
}

// track registers one background task unless the service is shutting down.
func (s *DefaultNotificationService) track() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed.Load() {
		return false
	}
	s.inflight.Add(1)
	return true
}

func (s *DefaultNotificationService) pushAsync(n *models.Notification) {
	if !s.track() {
		return
	}
	go func() {
		defer s.inflight.Done()
		defer s.recoverPanic("push", n.RelatedBookingID)
		s.push(s.pushCtx, n)
	}()
}

func (s *DefaultNotificationService) recoverPanic(stage, bookingID string) {
	if r := recover(); r != nil {
		s.logger.Error("notification goroutine panicked",
			zap.String("stage", stage),
			zap.String("bookingId", bookingID),
			zap.Any("panic", r))
	}
}

// buildForEvent renders the notification for event. It refuses events whose
// recipient would be the actor.
func (s *DefaultNotificationService) buildForEvent(ctx context.Context, event models.TransitionEvent) (*models.Notification, bool) {
	tmpl, ok := templates[event.NewStatus]
	if !ok {
		s.logger.Error("no notification template for status",
			zap.String("bookingId", event.BookingID), zap.String("status", string(event.NewStatus)))
		return nil, false
	}
	if tmpl.recipient == event.ActorRole {
		s.logger.Error("notification recipient equals actor, dropping",
			zap.String("bookingId", event.BookingID),
			zap.String("status", string(event.NewStatus)),
			zap.String("actorRole", event.ActorRole.String()))
		return nil, false
	}

	recipientID := event.RequesterID
	if tmpl.recipient == models.RoleProvider {
		recipientID = event.ProviderID
	}
	return &models.Notification{
		ID:               EventNotificationID(event.BookingID, event.NewStatus),
		RecipientID:      recipientID,
		RecipientRole:    tmpl.recipient,
		Type:             tmpl.kind,
		Title:            tmpl.title,
		Message:          tmpl.message(s.messageParts(ctx, event)),
		RelatedBookingID: event.BookingID,
		CreatedAt:        event.OccurredAt,
	}, true
}

func (s *DefaultNotificationService) messageParts(ctx context.Context, event models.TransitionEvent) messageParts {
	parts := messageParts{
		requester: defaultRequesterName,
		provider:  defaultProviderName,
		service:   defaultServiceName,
		when:      event.ServiceDateTime.UTC().Format(serviceTimeLayout),
	}
	if s.providers == nil {
		return parts
	}
	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()
	p, err := s.providers.GetByID(ctx, event.ProviderID)
	if err != nil {
		s.logger.Debug("provider lookup for notification text failed", zap.String("providerId", event.ProviderID), zap.Error(err))
		return parts
	}
	if p.FullName != "" {
		parts.provider = p.FullName
	}
	if p.ServiceType != "" {
		parts.service = p.ServiceType
	}
	return parts
}

// persistOrEnqueue runs the durable phase and hands the notification to the
// retry queue if every attempt failed. It reports whether n is stored.
func (s *DefaultNotificationService) persistOrEnqueue(ctx context.Context, n *models.Notification) bool {
	err := s.persist(ctx, n)
	if err == nil {
		return true
	}
	s.logger.Error("notification persistence failed",
		zap.String("notificationId", n.ID),
		zap.String("bookingId", n.RelatedBookingID),
		zap.String("recipient", n.Recipient().String()),
		zap.Error(err))
	s.enqueueRetry(n)
	return false
}

// persist inserts n with bounded exponential backoff. A duplicate ID means an
// earlier attempt already succeeded.
func (s *DefaultNotificationService) persist(ctx context.Context, n *models.Notification) error {
	var lastErr error
	delay := s.persistBackoff
	for attempt := 1; attempt <= s.persistAttempts; attempt++ {
		lastErr = s.insert(ctx, n)
		if lastErr == nil {
			return nil
		}
		s.logger.Warn("notification insert failed",
			zap.String("notificationId", n.ID),
			zap.Int("attempt", attempt),
			zap.Error(lastErr))
		if attempt == s.persistAttempts {
			break
		}
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return utils.WrapError(ctx.Err(), utils.CodePersistence, "notification persistence cancelled")
		}
		delay *= 2
	}
	return utils.WrapError(lastErr, utils.CodePersistence, "failed to persist notification after %d attempts", s.persistAttempts)
}

func (s *DefaultNotificationService) insert(ctx context.Context, n *models.Notification) error {
	err := s.repo.Insert(ctx, n)
	if errors.Is(err, database.ErrDuplicate) {
		return nil
	}
	return err
}

func (s *DefaultNotificationService) enqueueRetry(n *models.Notification) {
	if s.queue == nil {
		s.logger.Error("no retry queue configured, notification lost", zap.String("notificationId", n.ID))
		return
	}
	task, opts, err := tasks.NewPersistNotificationTask(n)
	if err != nil {
		s.logger.Error("failed to build persist task", zap.String("notificationId", n.ID), zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), enqueueTimeout)
	defer cancel()
	if _, err := s.queue.EnqueueContext(ctx, task, opts...); err != nil && !errors.Is(err, asynq.ErrTaskIDConflict) {
		s.logger.Error("failed to enqueue notification retry", zap.String("notificationId", n.ID), zap.Error(err))
		return
	}
	s.logger.Info("notification queued for retry", zap.String("notificationId", n.ID))
}

// push delivers n to live channels, then falls back to device push when no
// channel accepted it. Failures are logged and swallowed.
func (s *DefaultNotificationService) push(ctx context.Context, n *models.Notification) {
	if ctx.Err() != nil {
		return
	}
	payload, err := json.Marshal(models.RealtimeMessage{Type: "notification", Data: n})
	if err != nil {
		s.logger.Error("failed to encode realtime payload", zap.String("notificationId", n.ID), zap.Error(err))
		return
	}

	recipient := n.Recipient()
	delivered := s.realtime.Send(ctx, recipient, payload)
	s.logger.Debug("realtime notification pushed",
		zap.String("notificationId", n.ID),
		zap.String("recipient", recipient.String()),
		zap.Int("channels", delivered))
	if delivered > 0 || s.pusher == nil || s.devices == nil {
		return
	}

	tokens, err := s.devices.ListTokens(ctx, recipient)
	if err != nil {
		s.logger.Warn("failed to load device tokens", zap.String("recipient", recipient.String()), zap.Error(err))
		return
	}
	if len(tokens) == 0 {
		return
	}
	stale, err := s.pusher.Push(ctx, tokens, n)
	if err != nil {
		s.logger.Warn("device push failed", zap.String("notificationId", n.ID), zap.Error(err))
		return
	}
	for _, token := range stale {
		if err := s.devices.Remove(ctx, token); err != nil {
			s.logger.Warn("failed to remove stale device token", zap.Error(err))
		}
	}
}
