package rating

import (
	"context"
	"fmt"

	"joservice/database/repository"
	"joservice/models"
	"joservice/services/tasks"
	"joservice/utils"

	"go.uber.org/zap"
)

// RatingService lets a requester rate a completed booking and exposes each
// provider's derived reputation.
type RatingService interface {
	SubmitRating(ctx context.Context, actor models.Principal, bookingID string, req models.SubmitRatingRequest) (*models.Rating, error)
	RemoveRating(ctx context.Context, actor models.Principal, bookingID string) error
	GetProviderRating(ctx context.Context, providerID string) (*models.ProviderRatingSummary, error)
}

// DefaultRatingService implements RatingService. Queue is optional.
type DefaultRatingService struct {
	Bookings   repository.BookingRepository
	Ratings    repository.RatingRepository
	Providers  repository.ProviderRepository
	Aggregator *Aggregator
	Queue      tasks.Enqueuer
	Logger     *zap.Logger
}

func NewDefaultRatingService(
	bookings repository.BookingRepository,
	ratings repository.RatingRepository,
	providers repository.ProviderRepository,
	aggregator *Aggregator,
	queue tasks.Enqueuer,
	logger *zap.Logger,
) (*DefaultRatingService, error) {
	if bookings == nil || ratings == nil || providers == nil || aggregator == nil {
		return nil, fmt.Errorf("rating service initialization error: repository or aggregator is nil")
	}
	if logger == nil {
		logger = utils.GetLogger()
	}
	return &DefaultRatingService{
		Bookings:   bookings,
		Ratings:    ratings,
		Providers:  providers,
		Aggregator: aggregator,
		Queue:      queue,
		Logger:     logger,
	}, nil
}
