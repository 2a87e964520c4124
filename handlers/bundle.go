package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Booking endpoints
	CreateBookingHandler     gin.HandlerFunc
	GetBookingHandler        gin.HandlerFunc
	ListBookingsHandler      gin.HandlerFunc
	TransitionBookingHandler gin.HandlerFunc

	// Rating endpoints
	SubmitRatingHandler      gin.HandlerFunc
	RemoveRatingHandler      gin.HandlerFunc
	GetProviderRatingHandler gin.HandlerFunc

	// Notification endpoints
	ListNotificationsHandler gin.HandlerFunc
	UnreadCountHandler       gin.HandlerFunc
	MarkAsReadHandler        gin.HandlerFunc
	MarkAllAsReadHandler     gin.HandlerFunc

	// Device endpoints
	RegisterDeviceHandler   gin.HandlerFunc
	UnregisterDeviceHandler gin.HandlerFunc

	// Realtime and ops
	WebSocketHandler gin.HandlerFunc
	HealthHandler    gin.HandlerFunc
}
