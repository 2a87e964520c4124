package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"joservice/database"
	"joservice/models"
)

type Ratings struct {
	mu        sync.RWMutex
	byBooking map[string]models.Rating
	ids       map[string]struct{}
}

func NewRatings() *Ratings {
	return &Ratings{
		byBooking: make(map[string]models.Rating),
		ids:       make(map[string]struct{}),
	}
}

func (s *Ratings) Create(_ context.Context, rating *models.Rating) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byBooking[rating.BookingID]; ok {
		return fmt.Errorf("rating for booking %s: %w", rating.BookingID, database.ErrDuplicate)
	}
	if _, ok := s.ids[rating.ID]; ok {
		return fmt.Errorf("rating %s: %w", rating.ID, database.ErrDuplicate)
	}
	s.byBooking[rating.BookingID] = *rating
	s.ids[rating.ID] = struct{}{}
	return nil
}

func (s *Ratings) GetByBookingID(_ context.Context, bookingID string) (*models.Rating, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.byBooking[bookingID]
	if !ok {
		return nil, fmt.Errorf("rating for booking %s: %w", bookingID, database.ErrNotFound)
	}
	return &r, nil
}

func (s *Ratings) DeleteByBookingID(_ context.Context, bookingID string) (*models.Rating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byBooking[bookingID]
	if !ok {
		return nil, fmt.Errorf("rating for booking %s: %w", bookingID, database.ErrNotFound)
	}
	delete(s.byBooking, bookingID)
	delete(s.ids, r.ID)
	return &r, nil
}

func (s *Ratings) AggregateByProvider(_ context.Context, providerID string) (models.RatingStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sum, count int
	for _, r := range s.byBooking {
		if r.ProviderID == providerID {
			sum += r.Stars
			count++
		}
	}
	if count == 0 {
		return models.RatingStats{}, nil
	}
	return models.RatingStats{Average: float64(sum) / float64(count), Count: count}, nil
}

func (s *Ratings) ListByProvider(_ context.Context, providerID string, limit int) ([]models.Rating, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Rating, 0)
	for _, r := range s.byBooking {
		if r.ProviderID == providerID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
