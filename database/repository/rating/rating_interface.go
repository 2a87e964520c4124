package ratingRepo

import (
	"context"

	"joservice/models"
)

// RatingRepository stores at most one rating per booking.
type RatingRepository interface {
	// Create inserts a rating. A second rating for the same booking yields database.ErrDuplicate.
	Create(ctx context.Context, rating *models.Rating) error
	GetByBookingID(ctx context.Context, bookingID string) (*models.Rating, error)
	// DeleteByBookingID removes and returns the rating of a booking.
	DeleteByBookingID(ctx context.Context, bookingID string) (*models.Rating, error)
	// AggregateByProvider computes the unrounded mean and count over every
	// stored rating of the provider. No ratings gives a zero RatingStats.
	AggregateByProvider(ctx context.Context, providerID string) (models.RatingStats, error)
	// ListByProvider returns the newest ratings of a provider.
	ListByProvider(ctx context.Context, providerID string, limit int) ([]models.Rating, error)
}
