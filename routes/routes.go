package routes

import (
	"time"

	"joservice/handlers"
	"joservice/middleware"
	"joservice/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterBookingRoutes sets up booking lifecycle, party listing and rating submission endpoints.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/bookings")
	{
		api.Use(middleware.JWTAuthMiddleware())
		api.POST("", middleware.RequireRole(models.RoleRequester), hb.CreateBookingHandler)
		api.GET("/user", middleware.RequireRole(models.RoleRequester), hb.ListBookingsHandler)
		api.GET("/provider", middleware.RequireRole(models.RoleProvider), hb.ListBookingsHandler)
		api.GET("/:id", hb.GetBookingHandler)
		api.PATCH("/:id/status", hb.TransitionBookingHandler)

		api.POST("/:id/rating", hb.SubmitRatingHandler)
		api.DELETE("/:id/rating", hb.RemoveRatingHandler)
	}
}

// RegisterProviderRoutes exposes the public provider reputation endpoint.
func RegisterProviderRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/providers")
	{
		api.GET("/:id/rating", hb.GetProviderRatingHandler)
	}
}

// RegisterNotificationRoutes sets up the recipient's notification feed.
func RegisterNotificationRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/notifications")
	{
		api.Use(middleware.JWTAuthMiddleware())
		api.GET("", hb.ListNotificationsHandler)
		api.GET("/unread-count", hb.UnreadCountHandler)
		api.PATCH("/read-all", hb.MarkAllAsReadHandler)
		api.PATCH("/:id/read", hb.MarkAsReadHandler)
	}
}

// RegisterDeviceRoutes manages push tokens for offline delivery.
func RegisterDeviceRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/devices")
	{
		api.Use(middleware.JWTAuthMiddleware())
		api.PUT("/fcm-token", hb.RegisterDeviceHandler)
		api.DELETE("/fcm-token", hb.UnregisterDeviceHandler)
	}
}

// RegisterRealtimeRoutes registers the websocket upgrade. Browsers cannot set
// headers on upgrade, so the token may come as ?token=.
func RegisterRealtimeRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/ws", middleware.JWTAuthMiddleware(), hb.WebSocketHandler)
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.HealthHandler)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:   []string{"Content-Length"},
		MaxAge:          12 * time.Hour,
	}))

	RegisterBookingRoutes(r, hb)
	RegisterProviderRoutes(r, hb)
	RegisterNotificationRoutes(r, hb)
	RegisterDeviceRoutes(r, hb)
	RegisterRealtimeRoutes(r, hb)
	RegisterHealthRoute(r, hb)
}
