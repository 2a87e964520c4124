package providerRepo

import (
	"context"

	"joservice/models"
)

// ProviderRepository reads providers and writes their derived rating fields.
type ProviderRepository interface {
	// GetByID retrieves a provider by its unique ID.
	GetByID(ctx context.Context, id string) (*models.Provider, error)
	// UpdateRatingAggregate overwrites averageRating and totalRatings.
	UpdateRatingAggregate(ctx context.Context, id string, average float64, total int) error
}
