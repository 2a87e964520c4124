// Package memory holds map-backed repositories used when STORAGE_DRIVER is
// "memory" and in tests. They honour the same uniqueness and compare-and-set
// rules as the MongoDB repositories.
package memory

import (
	"joservice/database/repository"
)

// DB groups the in-memory repositories so callers can seed them directly.
type DB struct {
	Bookings      *Bookings
	Notifications *Notifications
	Ratings       *Ratings
	Providers     *Providers
	Devices       *Devices
}

func New() *DB {
	return &DB{
		Bookings:      NewBookings(),
		Notifications: NewNotifications(),
		Ratings:       NewRatings(),
		Providers:     NewProviders(),
		Devices:       NewDevices(),
	}
}

// Store exposes the repositories through the shared repository bundle.
func (db *DB) Store() *repository.Store {
	return &repository.Store{
		Bookings:      db.Bookings,
		Notifications: db.Notifications,
		Ratings:       db.Ratings,
		Providers:     db.Providers,
		Devices:       db.Devices,
	}
}
