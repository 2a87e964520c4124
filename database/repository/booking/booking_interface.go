package bookingRepo

import (
	"context"

	"joservice/models"
)

// BookingRepository persists bookings and guards status changes.
type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	// UpdateStatus moves the booking from one status to another only when the
	// stored status still equals from. A mismatch yields database.ErrConflict.
	UpdateStatus(ctx context.Context, id string, from, to models.BookingStatus) (*models.Booking, error)
	// ListByRequester and ListByProvider return one page of a party's bookings,
	// newest serviceDateTime first, plus the total matching opts.Status.
	// opts is expected to be normalized by the caller.
	ListByRequester(ctx context.Context, requesterID string, opts models.BookingListOptions) ([]models.Booking, int64, error)
	ListByProvider(ctx context.Context, providerID string, opts models.BookingListOptions) ([]models.Booking, int64, error)
}
