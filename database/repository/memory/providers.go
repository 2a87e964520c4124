package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"joservice/database"
	"joservice/models"
)

type Providers struct {
	mu   sync.RWMutex
	byID map[string]models.Provider
}

func NewProviders() *Providers {
	return &Providers{byID: make(map[string]models.Provider)}
}

// Put seeds or replaces a provider profile.
func (s *Providers) Put(p models.Provider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[p.ID] = p
}

func (s *Providers) GetByID(_ context.Context, id string) (*models.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("provider %s: %w", id, database.ErrNotFound)
	}
	return &p, nil
}

func (s *Providers) UpdateRatingAggregate(_ context.Context, id string, average float64, total int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("provider %s: %w", id, database.ErrNotFound)
	}
	p.AverageRating = average
	p.TotalRatings = total
	p.UpdatedAt = time.Now().UTC()
	s.byID[id] = p
	return nil
}
