package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"joservice/database"
	"joservice/models"
)

type Bookings struct {
	mu   sync.RWMutex
	byID map[string]models.Booking
}

func NewBookings() *Bookings {
	return &Bookings{byID: make(map[string]models.Booking)}
}

func (s *Bookings) Create(_ context.Context, booking *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[booking.ID]; ok {
		return fmt.Errorf("booking %s: %w", booking.ID, database.ErrDuplicate)
	}
	s.byID[booking.ID] = *booking
	return nil
}

func (s *Bookings) GetByID(_ context.Context, id string) (*models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("booking %s: %w", id, database.ErrNotFound)
	}
	return &b, nil
}

func (s *Bookings) UpdateStatus(_ context.Context, id string, from, to models.BookingStatus) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("booking %s: %w", id, database.ErrNotFound)
	}
	if b.Status != from {
		return nil, fmt.Errorf("booking %s no longer %s: %w", id, from, database.ErrConflict)
	}
	b.Status = to
	b.UpdatedAt = time.Now().UTC()
	s.byID[id] = b
	return &b, nil
}

func (s *Bookings) ListByRequester(_ context.Context, requesterID string, opts models.BookingListOptions) ([]models.Booking, int64, error) {
	page, total := s.listByParty(func(b *models.Booking) bool { return b.RequesterID == requesterID }, opts)
	return page, total, nil
}

func (s *Bookings) ListByProvider(_ context.Context, providerID string, opts models.BookingListOptions) ([]models.Booking, int64, error) {
	page, total := s.listByParty(func(b *models.Booking) bool { return b.ProviderID == providerID }, opts)
	return page, total, nil
}

// listByParty orders matches by serviceDateTime, then createdAt, then id, all descending.
func (s *Bookings) listByParty(owns func(*models.Booking) bool, opts models.BookingListOptions) ([]models.Booking, int64) {
	s.mu.RLock()
	var matched []models.Booking
	for _, b := range s.byID {
		if !owns(&b) || (opts.Status != "" && b.Status != opts.Status) {
			continue
		}
		matched = append(matched, b)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.ServiceDateTime.Equal(b.ServiceDateTime) {
			return a.ServiceDateTime.After(b.ServiceDateTime)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})

	total := int64(len(matched))
	start := (opts.Page - 1) * opts.Limit
	if start >= len(matched) {
		return nil, total
	}
	end := min(start+opts.Limit, len(matched))
	return matched[start:end], total
}
