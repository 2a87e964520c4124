package booking

import (
	"context"
	"errors"
	"time"

	"joservice/database"
	"joservice/models"
	"joservice/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxNotesLength = 2000

func (s *DefaultBookingService) CreateBooking(ctx context.Context, actor models.Principal, req models.CreateBookingRequest) (*models.Booking, error) {
	if !actor.Valid() {
		return nil, utils.NewError(utils.CodeValidation, "invalid actor")
	}
	if actor.Role != models.RoleRequester {
		return nil, utils.NewError(utils.CodeForbidden, "only requesters can create bookings")
	}
	if req.ProviderID == "" {
		return nil, utils.NewError(utils.CodeValidation, "providerId is required")
	}
	if req.ServiceDateTime.IsZero() {
		return nil, utils.NewError(utils.CodeValidation, "serviceDateTime is required")
	}
	if len(req.Notes) > maxNotesLength {
		return nil, utils.NewError(utils.CodeValidation, "notes must be at most %d characters", maxNotesLength)
	}

	if _, err := s.Providers.GetByID(ctx, req.ProviderID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, utils.WrapError(err, utils.CodeNotFound, "provider not found")
		}
		return nil, utils.WrapError(err, utils.CodePersistence, "failed to load provider")
	}

	now := time.Now().UTC()
	b := &models.Booking{
		ID:              uuid.New().String(),
		RequesterID:     actor.ID,
		ProviderID:      req.ProviderID,
		ServiceDateTime: req.ServiceDateTime.UTC(),
		ServiceLocation: req.ServiceLocation,
		Notes:           req.Notes,
		Status:          models.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.Repo.Create(ctx, b); err != nil {
		return nil, utils.WrapError(err, utils.CodePersistence, "failed to create booking")
	}

	s.Logger.Info("booking created",
		zap.String("bookingId", b.ID),
		zap.String("requesterId", b.RequesterID),
		zap.String("providerId", b.ProviderID))
	s.emit(models.NewTransitionEvent(b, "", models.RoleRequester))
	return b, nil
}

func (s *DefaultBookingService) GetBooking(ctx context.Context, actor models.Principal, bookingID string) (*models.BookingView, error) {
	b, err := s.loadForParty(ctx, bookingID, actor)
	if err != nil {
		return nil, err
	}
	return &models.BookingView{
		Booking:            b,
		AllowedTransitions: AllowedTransitions(b.Status, actor.Role),
	}, nil
}

// RequestTransition moves a booking to target on behalf of actor. Attempts on the
// same booking are serialised; the store write is a compare-and-set on the status
// read under the lock, so a concurrent winner elsewhere still surfaces as
// InvalidTransition here.
func (s *DefaultBookingService) RequestTransition(ctx context.Context, bookingID string, actor models.Principal, target models.BookingStatus) (*models.Booking, error) {
	if !actor.Valid() {
		return nil, utils.NewError(utils.CodeNotFound, "booking not found")
	}

	unlock, err := s.Locker.Lock(ctx, utils.BookingLockPrefix+bookingID)
	if err != nil {
		return nil, utils.WrapError(err, utils.CodePersistence, "failed to lock booking")
	}
	defer unlock()

	current, err := s.loadForParty(ctx, bookingID, actor)
	if err != nil {
		return nil, err
	}

	rule, ok := lookupRule(current.Status, target)
	if !ok {
		return nil, utils.NewError(utils.CodeInvalidTransition, "cannot move booking from %s to %s", current.Status, target)
	}
	if rule.actor != actor.Role {
		return nil, utils.NewError(utils.CodeForbidden, "%s cannot move booking to %s", actor.Role, target)
	}

	updated, err := s.Repo.UpdateStatus(ctx, bookingID, current.Status, target)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrConflict):
			return nil, utils.WrapError(err, utils.CodeInvalidTransition, "booking is no longer %s", current.Status)
		case errors.Is(err, database.ErrNotFound):
			return nil, utils.WrapError(err, utils.CodeNotFound, "booking not found")
		}
		return nil, utils.WrapError(err, utils.CodePersistence, "failed to update booking status")
	}

	s.Logger.Info("booking transitioned",
		zap.String("bookingId", bookingID),
		zap.String("from", string(current.Status)),
		zap.String("to", string(target)),
		zap.String("actor", actor.String()))
	s.emit(models.NewTransitionEvent(updated, current.Status, actor.Role))
	return updated, nil
}

// loadForParty hides bookings from anyone who is not their requester or assigned provider.
func (s *DefaultBookingService) loadForParty(ctx context.Context, bookingID string, actor models.Principal) (*models.Booking, error) {
	b, err := s.Repo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, utils.WrapError(err, utils.CodeNotFound, "booking not found")
		}
		return nil, utils.WrapError(err, utils.CodePersistence, "failed to load booking")
	}
	if !b.IsParty(actor) {
		return nil, utils.NewError(utils.CodeNotFound, "booking not found")
	}
	return b, nil
}

func (s *DefaultBookingService) emit(event models.TransitionEvent) {
	defer func() {
		if r := recover(); r != nil {
			s.Logger.Error("event sink panicked", zap.String("bookingId", event.BookingID), zap.Any("panic", r))
		}
	}()
	s.Events.Dispatch(event)
}
