package rating

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"joservice/database"
	"joservice/models"
	"joservice/services/tasks"
	"joservice/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const recentRatingsLimit = 10

func (s *DefaultRatingService) SubmitRating(ctx context.Context, actor models.Principal, bookingID string, req models.SubmitRatingRequest) (*models.Rating, error) {
	b, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, utils.WrapError(err, utils.CodeNotFound, "booking not found")
		}
		return nil, utils.WrapError(err, utils.CodePersistence, "failed to load booking")
	}
	if !b.IsParty(actor) {
		return nil, utils.NewError(utils.CodeNotFound, "booking not found")
	}
	if actor.Role != models.RoleRequester {
		return nil, utils.NewError(utils.CodeForbidden, "only the requester can rate a booking")
	}

	comment := strings.TrimSpace(req.Comment)
	if req.Stars < models.MinRatingStars || req.Stars > models.MaxRatingStars {
		return nil, utils.NewError(utils.CodeValidation, "stars must be between %d and %d", models.MinRatingStars, models.MaxRatingStars)
	}
	if utf8.RuneCountInString(comment) > models.MaxRatingComment {
		return nil, utils.NewError(utils.CodeValidation, "comment must be at most %d characters", models.MaxRatingComment)
	}
	if b.Status != models.StatusCompleted {
		return nil, utils.NewError(utils.CodeBookingNotCompleted, "only completed bookings can be rated")
	}

	r := &models.Rating{
		ID:          uuid.New().String(),
		BookingID:   b.ID,
		RequesterID: b.RequesterID,
		ProviderID:  b.ProviderID,
		Stars:       req.Stars,
		Comment:     comment,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.Ratings.Create(ctx, r); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, utils.WrapError(err, utils.CodeDuplicateRating, "booking already rated")
		}
		return nil, utils.WrapError(err, utils.CodePersistence, "failed to store rating")
	}

	s.Logger.Info("rating submitted",
		zap.String("bookingId", b.ID),
		zap.String("providerId", b.ProviderID),
		zap.Int("stars", r.Stars))
	s.aggregate(ctx, r, s.Aggregator.OnRatingCreated)
	return r, nil
}

func (s *DefaultRatingService) RemoveRating(ctx context.Context, actor models.Principal, bookingID string) error {
	existing, err := s.Ratings.GetByBookingID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return utils.WrapError(err, utils.CodeNotFound, "rating not found")
		}
		return utils.WrapError(err, utils.CodePersistence, "failed to load rating")
	}
	if actor.Role != models.RoleRequester || existing.RequesterID != actor.ID {
		return utils.NewError(utils.CodeNotFound, "rating not found")
	}

	removed, err := s.Ratings.DeleteByBookingID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return utils.WrapError(err, utils.CodeNotFound, "rating not found")
		}
		return utils.WrapError(err, utils.CodePersistence, "failed to delete rating")
	}

	s.Logger.Info("rating removed", zap.String("bookingId", bookingID), zap.String("providerId", removed.ProviderID))
	s.aggregate(ctx, removed, s.Aggregator.OnRatingRemoved)
	return nil
}

func (s *DefaultRatingService) GetProviderRating(ctx context.Context, providerID string) (*models.ProviderRatingSummary, error) {
	p, err := s.Providers.GetByID(ctx, providerID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, utils.WrapError(err, utils.CodeNotFound, "provider not found")
		}
		return nil, utils.WrapError(err, utils.CodePersistence, "failed to load provider")
	}
	recent, err := s.Ratings.ListByProvider(ctx, providerID, recentRatingsLimit)
	if err != nil {
		return nil, utils.WrapError(err, utils.CodePersistence, "failed to list ratings")
	}
	return &models.ProviderRatingSummary{
		ProviderID:    p.ID,
		AverageRating: p.AverageRating,
		TotalRatings:  p.TotalRatings,
		Recent:        recent,
	}, nil
}

// aggregate runs the aggregator after the rating write has committed. A
// failure never undoes the write; the recompute goes to the retry queue.
func (s *DefaultRatingService) aggregate(ctx context.Context, r *models.Rating, hook func(context.Context, *models.Rating) error) {
	err := hook(context.WithoutCancel(ctx), r)
	if err == nil {
		return
	}
	s.Logger.Error("provider rating aggregation failed",
		zap.String("providerId", r.ProviderID),
		zap.String("bookingId", r.BookingID),
		zap.Error(err))
	if s.Queue == nil {
		return
	}
	task, opts, err := tasks.NewRecomputeRatingTask(r.ProviderID)
	if err != nil {
		s.Logger.Error("failed to build recompute task", zap.Error(err))
		return
	}
	if _, err := s.Queue.EnqueueContext(context.WithoutCancel(ctx), task, opts...); err != nil {
		s.Logger.Error("failed to enqueue rating recompute", zap.String("providerId", r.ProviderID), zap.Error(err))
	}
}
