package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"joservice/database"
	"joservice/models"
)

type Notifications struct {
	mu    sync.RWMutex
	byID  map[string]*models.Notification
	order []string
}

func NewNotifications() *Notifications {
	return &Notifications{byID: make(map[string]*models.Notification)}
}

func (s *Notifications) Insert(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[n.ID]; ok {
		return fmt.Errorf("notification %s: %w", n.ID, database.ErrDuplicate)
	}
	stored := *n
	s.byID[n.ID] = &stored
	s.order = append(s.order, n.ID)
	return nil
}

// matching returns the recipient's notifications, newest first. Later
// inserts win ties between equal timestamps.
func (s *Notifications) matching(recipient models.Principal, unreadOnly bool) []models.Notification {
	var out []models.Notification
	for i := len(s.order) - 1; i >= 0; i-- {
		n := s.byID[s.order[i]]
		if n.Recipient() != recipient || (unreadOnly && n.IsRead) {
			continue
		}
		out = append(out, *n)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *Notifications) List(_ context.Context, recipient models.Principal, opts models.NotificationListOptions) ([]models.Notification, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.matching(recipient, opts.UnreadOnly)
	total := int64(len(all))

	start := (opts.Page - 1) * opts.Limit
	if start < 0 || start >= len(all) {
		return []models.Notification{}, total, nil
	}
	end := min(start+opts.Limit, len(all))
	return all[start:end], total, nil
}

func (s *Notifications) CountUnread(_ context.Context, recipient models.Principal) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.matching(recipient, true))), nil
}

func (s *Notifications) MarkRead(_ context.Context, recipient models.Principal, id string) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.byID[id]
	if !ok || n.Recipient() != recipient {
		return nil, fmt.Errorf("notification %s: %w", id, database.ErrNotFound)
	}
	n.IsRead = true
	out := *n
	return &out, nil
}

func (s *Notifications) MarkAllRead(_ context.Context, recipient models.Principal) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var changed int64
	for _, n := range s.byID {
		if n.Recipient() == recipient && !n.IsRead {
			n.IsRead = true
			changed++
		}
	}
	return changed, nil
}
