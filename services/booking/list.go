package booking

import (
	"context"

	"joservice/models"
	"joservice/utils"
)

const (
	defaultListLimit = 10
	maxListLimit     = 100
)

func normalizeListOptions(opts models.BookingListOptions) models.BookingListOptions {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit < 1 {
		opts.Limit = defaultListLimit
	}
	if opts.Limit > maxListLimit {
		opts.Limit = maxListLimit
	}
	return opts
}

func (s *DefaultBookingService) ListForParty(ctx context.Context, actor models.Principal, opts models.BookingListOptions) (*models.BookingPage, error) {
	if !actor.Valid() {
		return nil, utils.NewError(utils.CodeValidation, "invalid actor")
	}
	if opts.Status != "" && !opts.Status.Valid() {
		return nil, utils.NewError(utils.CodeValidation, "unknown booking status %q", opts.Status)
	}
	opts = normalizeListOptions(opts)

	var (
		bookings []models.Booking
		total    int64
		err      error
	)
	if actor.Role == models.RoleProvider {
		bookings, total, err = s.Repo.ListByProvider(ctx, actor.ID, opts)
	} else {
		bookings, total, err = s.Repo.ListByRequester(ctx, actor.ID, opts)
	}
	if err != nil {
		return nil, utils.WrapError(err, utils.CodePersistence, "failed to list bookings")
	}

	views := make([]models.BookingView, 0, len(bookings))
	for i := range bookings {
		b := &bookings[i]
		views = append(views, models.BookingView{
			Booking:            b,
			AllowedTransitions: AllowedTransitions(b.Status, actor.Role),
		})
	}
	return &models.BookingPage{
		Bookings:      views,
		CurrentPage:   opts.Page,
		TotalPages:    int((total + int64(opts.Limit) - 1) / int64(opts.Limit)),
		TotalBookings: total,
	}, nil
}
