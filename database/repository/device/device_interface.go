package deviceRepo

import (
	"context"

	"joservice/models"
)

// DeviceRepository keeps the FCM tokens registered per principal.
type DeviceRepository interface {
	// Upsert binds a token to a principal, moving it if another principal held it.
	Upsert(ctx context.Context, device *models.Device) error
	ListTokens(ctx context.Context, principal models.Principal) ([]string, error)
	Remove(ctx context.Context, token string) error
}
