package booking

import (
	"context"
	"fmt"

	"joservice/database/repository"
	"joservice/models"
	"joservice/utils"

	"go.uber.org/zap"
)

// BookingService owns the booking lifecycle. Status only changes through RequestTransition.
type BookingService interface {
	CreateBooking(ctx context.Context, actor models.Principal, req models.CreateBookingRequest) (*models.Booking, error)
	GetBooking(ctx context.Context, actor models.Principal, bookingID string) (*models.BookingView, error)
	// ListForParty pages the actor's own bookings: requesters see what they
	// booked, providers what was booked with them.
	ListForParty(ctx context.Context, actor models.Principal, opts models.BookingListOptions) (*models.BookingPage, error)
	RequestTransition(ctx context.Context, bookingID string, actor models.Principal, target models.BookingStatus) (*models.Booking, error)
}

// EventSink receives committed transitions. Dispatch must not block.
type EventSink interface {
	Dispatch(event models.TransitionEvent)
}

// DefaultBookingService implements BookingService.
type DefaultBookingService struct {
	Repo      repository.BookingRepository
	Providers repository.ProviderRepository
	Events    EventSink
	Locker    utils.Locker
	Logger    *zap.Logger
}

func NewDefaultBookingService(
	repo repository.BookingRepository,
	providers repository.ProviderRepository,
	events EventSink,
	locker utils.Locker,
	logger *zap.Logger,
) (*DefaultBookingService, error) {
	if repo == nil || providers == nil || events == nil || locker == nil {
		return nil, fmt.Errorf("booking service initialization error: repository, event sink or locker is nil")
	}
	if logger == nil {
		logger = utils.GetLogger()
	}
	return &DefaultBookingService{
		Repo:      repo,
		Providers: providers,
		Events:    events,
		Locker:    locker,
		Logger:    logger,
	}, nil
}
