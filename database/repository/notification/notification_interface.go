package notificationRepo

import (
	"context"

	"joservice/models"
)

// NotificationRepository stores a recipient's notification feed.
type NotificationRepository interface {
	// Insert stores n. Re-inserting an existing ID yields database.ErrDuplicate.
	Insert(ctx context.Context, n *models.Notification) error
	// List returns one page, newest first, and the total matching the filter.
	// opts.Page and opts.Limit must already be normalised.
	List(ctx context.Context, recipient models.Principal, opts models.NotificationListOptions) ([]models.Notification, int64, error)
	CountUnread(ctx context.Context, recipient models.Principal) (int64, error)
	// MarkRead flags one notification as read. It only matches notifications
	// owned by recipient.
	MarkRead(ctx context.Context, recipient models.Principal, id string) (*models.Notification, error)
	// MarkAllRead flags every unread notification of recipient and returns how many changed.
	MarkAllRead(ctx context.Context, recipient models.Principal) (int64, error)
}
