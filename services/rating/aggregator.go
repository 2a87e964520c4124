package rating

import (
	"context"
	"fmt"
	"math"

	"joservice/database/repository"
	"joservice/models"
	"joservice/utils"

	"go.uber.org/zap"
)

// Aggregator keeps a provider's averageRating and totalRatings equal to the
// mean and count of its stored ratings. Every update re-aggregates from
// scratch so a repeated call can never double-apply.
type Aggregator struct {
	Ratings   repository.RatingRepository
	Providers repository.ProviderRepository
	Locker    utils.Locker
	Logger    *zap.Logger
}

func NewAggregator(ratings repository.RatingRepository, providers repository.ProviderRepository, locker utils.Locker, logger *zap.Logger) (*Aggregator, error) {
	if ratings == nil || providers == nil || locker == nil {
		return nil, fmt.Errorf("rating aggregator initialization error: repository or locker is nil")
	}
	if logger == nil {
		logger = utils.GetLogger()
	}
	return &Aggregator{Ratings: ratings, Providers: providers, Locker: locker, Logger: logger}, nil
}

func (a *Aggregator) OnRatingCreated(ctx context.Context, r *models.Rating) error {
	return a.Recompute(ctx, r.ProviderID)
}

func (a *Aggregator) OnRatingRemoved(ctx context.Context, r *models.Rating) error {
	return a.Recompute(ctx, r.ProviderID)
}

// Recompute rewrites the provider's aggregate under a per-provider lock.
func (a *Aggregator) Recompute(ctx context.Context, providerID string) error {
	unlock, err := a.Locker.Lock(ctx, utils.ProviderLockPrefix+providerID)
	if err != nil {
		return utils.WrapError(err, utils.CodePersistence, "failed to lock provider rating")
	}
	defer unlock()

	stats, err := a.Ratings.AggregateByProvider(ctx, providerID)
	if err != nil {
		return utils.WrapError(err, utils.CodePersistence, "failed to aggregate ratings")
	}
	average := roundRating(stats.Average)
	if stats.Count == 0 {
		average = 0
	}
	if err := a.Providers.UpdateRatingAggregate(ctx, providerID, average, stats.Count); err != nil {
		return utils.WrapError(err, utils.CodePersistence, "failed to store provider rating")
	}

	a.Logger.Debug("provider rating recomputed",
		zap.String("providerId", providerID),
		zap.Float64("averageRating", average),
		zap.Int("totalRatings", stats.Count))
	return nil
}

// roundRating rounds to two decimal places.
func roundRating(v float64) float64 {
	return math.Round(v*100) / 100
}
