package repository

import (
	bookingRepo "joservice/database/repository/booking"
	deviceRepo "joservice/database/repository/device"
	notificationRepo "joservice/database/repository/notification"
	providerRepo "joservice/database/repository/provider"
	ratingRepo "joservice/database/repository/rating"

	"go.mongodb.org/mongo-driver/mongo"
)

// Re-export the repository interfaces so services depend on one package.
type (
	BookingRepository      = bookingRepo.BookingRepository
	NotificationRepository = notificationRepo.NotificationRepository
	RatingRepository       = ratingRepo.RatingRepository
	ProviderRepository     = providerRepo.ProviderRepository
	DeviceRepository       = deviceRepo.DeviceRepository
)

var (
	NewMongoBookingRepo      = bookingRepo.NewMongoBookingRepo
	NewMongoNotificationRepo = notificationRepo.NewMongoNotificationRepo
	NewMongoRatingRepo       = ratingRepo.NewMongoRatingRepo
	NewMongoProviderRepo     = providerRepo.NewMongoProviderRepo
	NewMongoDeviceRepo       = deviceRepo.NewMongoDeviceRepo
)

// Store bundles every repository the services need.
type Store struct {
	Bookings      BookingRepository
	Notifications NotificationRepository
	Ratings       RatingRepository
	Providers     ProviderRepository
	Devices       DeviceRepository
}

// NewMongoStore builds a Store whose repositories all share db.
func NewMongoStore(db *mongo.Database) *Store {
	return &Store{
		Bookings:      NewMongoBookingRepo(db),
		Notifications: NewMongoNotificationRepo(db),
		Ratings:       NewMongoRatingRepo(db),
		Providers:     NewMongoProviderRepo(db),
		Devices:       NewMongoDeviceRepo(db),
	}
}
