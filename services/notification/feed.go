package notification

import (
	"context"
	"errors"

	"joservice/database"
	"joservice/models"
	"joservice/utils"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func normalizeListOptions(opts models.NotificationListOptions) models.NotificationListOptions {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit < 1 {
		opts.Limit = defaultPageSize
	}
	if opts.Limit > maxPageSize {
		opts.Limit = maxPageSize
	}
	return opts
}

func (s *DefaultNotificationService) List(ctx context.Context, recipient models.Principal, opts models.NotificationListOptions) (*models.NotificationPage, error) {
	if !recipient.Valid() {
		return nil, utils.NewError(utils.CodeValidation, "invalid recipient")
	}
	opts = normalizeListOptions(opts)

	items, total, err := s.repo.List(ctx, recipient, opts)
	if err != nil {
		return nil, utils.WrapError(err, utils.CodePersistence, "failed to list notifications")
	}
	unread, err := s.repo.CountUnread(ctx, recipient)
	if err != nil {
		return nil, utils.WrapError(err, utils.CodePersistence, "failed to count unread notifications")
	}
	if items == nil {
		items = []models.Notification{}
	}
	return &models.NotificationPage{
		Notifications: items,
		Total:         total,
		UnreadCount:   unread,
		Page:          opts.Page,
		TotalPages:    int((total + int64(opts.Limit) - 1) / int64(opts.Limit)),
	}, nil
}

func (s *DefaultNotificationService) UnreadCount(ctx context.Context, recipient models.Principal) (int64, error) {
	n, err := s.repo.CountUnread(ctx, recipient)
	if err != nil {
		return 0, utils.WrapError(err, utils.CodePersistence, "failed to count unread notifications")
	}
	return n, nil
}

// MarkAsRead only matches notifications addressed to recipient; anything else is NotFound.
func (s *DefaultNotificationService) MarkAsRead(ctx context.Context, recipient models.Principal, id string) (*models.Notification, error) {
	n, err := s.repo.MarkRead(ctx, recipient, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, utils.WrapError(err, utils.CodeNotFound, "notification not found")
		}
		return nil, utils.WrapError(err, utils.CodePersistence, "failed to mark notification read")
	}
	return n, nil
}

func (s *DefaultNotificationService) MarkAllAsRead(ctx context.Context, recipient models.Principal) (int64, error) {
	changed, err := s.repo.MarkAllRead(ctx, recipient)
	if err != nil {
		return 0, utils.WrapError(err, utils.CodePersistence, "failed to mark notifications read")
	}
	return changed, nil
}
