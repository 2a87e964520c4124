package memory

import (
	"context"
	"sort"
	"sync"

	"joservice/models"
)

type Devices struct {
	mu      sync.RWMutex
	byToken map[string]models.Device
}

func NewDevices() *Devices {
	return &Devices{byToken: make(map[string]models.Device)}
}

func (s *Devices) Upsert(_ context.Context, device *models.Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byToken[device.FCMToken] = *device
	return nil
}

func (s *Devices) ListTokens(_ context.Context, principal models.Principal) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tokens := make([]string, 0)
	for token, d := range s.byToken {
		if d.PrincipalID == principal.ID && d.PrincipalRole == principal.Role {
			tokens = append(tokens, token)
		}
	}
	sort.Strings(tokens)
	return tokens, nil
}

func (s *Devices) Remove(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byToken, token)
	return nil
}
