package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"joservice/config"
	"joservice/cron"
	"joservice/database"
	"joservice/database/repository"
	"joservice/database/repository/memory"
	"joservice/handlers"
	"joservice/middleware"
	"joservice/routes"
	"joservice/services/booking"
	"joservice/services/notification"
	"joservice/services/push"
	"joservice/services/rating"
	"joservice/services/realtime"
	"joservice/services/tasks"
	"joservice/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	utils.InitializeLogger()
	logger := utils.GetLogger()
	defer logger.Sync()

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// storage.
	store, mongoClient := openStore(logger)

	// locks: in-process always, Redis on top when several instances share the store.
	var locker utils.Locker = utils.NewKeyedMutex()
	var redisClients []*redis.Client
	if config.AppConfig.DistributedLocks {
		lockClient, err := utils.NewRedisClient(config.AppConfig.RedisLockDB)
		if err != nil {
			logger.Fatal("main: distributed locks enabled but Redis is unreachable", zap.Error(err))
		}
		redisClients = append(redisClients, lockClient)
		locker = utils.ChainLocker{locker, utils.NewRedisLocker(lockClient, utils.DistributedLockTTL)}
	}

	// retry queue.
	var queue tasks.Enqueuer
	var queueClient *asynq.Client
	if config.AppConfig.TaskQueueEnabled {
		queueClient = asynq.NewClient(cron.QueueRedisOpt())
		queue = queueClient
		if healthClient, err := utils.NewRedisClient(config.AppConfig.RedisQueueDB); err == nil {
			redisClients = append(redisClients, healthClient)
		} else {
			logger.Warn("main: task queue Redis unreachable at startup", zap.Error(err))
		}
	}

	// push fallback.
	var pusher push.Pusher
	if config.AppConfig.FirebaseCredentialsFile != "" {
		fcm, err := push.NewFCMPusher(context.Background(), config.AppConfig.FirebaseCredentialsFile, logger)
		if err != nil {
			logger.Warn("main: FCM disabled", zap.Error(err))
		} else {
			pusher = fcm
		}
	}

	// services.
	registry := realtime.NewRegistry(config.AppConfig.RealtimeSendTimeout, logger)

	notificationService, err := notification.NewDefaultNotificationService(notification.Config{
		Notifications:   store.Notifications,
		Providers:       store.Providers,
		Devices:         store.Devices,
		Realtime:        registry,
		Pusher:          pusher,
		Queue:           queue,
		Logger:          logger,
		PersistAttempts: config.AppConfig.NotificationPersistAttempts,
	})
	if err != nil {
		logger.Fatal("main: notification service", zap.Error(err))
	}

	bookingService, err := booking.NewDefaultBookingService(store.Bookings, store.Providers, notificationService, locker, logger)
	if err != nil {
		logger.Fatal("main: booking service", zap.Error(err))
	}

	aggregator, err := rating.NewAggregator(store.Ratings, store.Providers, locker, logger)
	if err != nil {
		logger.Fatal("main: rating aggregator", zap.Error(err))
	}
	ratingService, err := rating.NewDefaultRatingService(store.Bookings, store.Ratings, store.Providers, aggregator, queue, logger)
	if err != nil {
		logger.Fatal("main: rating service", zap.Error(err))
	}

	var worker *asynq.Server
	if config.AppConfig.TaskQueueEnabled {
		worker, err = cron.StartRetryWorker(notificationService, aggregator, logger)
		if err != nil {
			logger.Error("main: retry worker not running", zap.Error(err))
		}
	}

	healthCtx, stopHealth := context.WithCancel(context.Background())
	defer stopHealth()
	utils.StartHealthMonitor(healthCtx, 15*time.Second, redisClients, mongoClient)

	// handlers.
	bookingHandler := handlers.NewBookingHandler(bookingService)
	ratingHandler := handlers.NewRatingHandler(ratingService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	deviceHandler := handlers.NewDeviceHandler(store.Devices)
	wsHandler := handlers.NewWebSocketHandler(registry, nil)

	handlerBundle := &handlers.HandlerBundle{
		CreateBookingHandler:     bookingHandler.CreateBookingHandler,
		GetBookingHandler:        bookingHandler.GetBookingHandler,
		ListBookingsHandler:      bookingHandler.ListBookingsHandler,
		TransitionBookingHandler: bookingHandler.TransitionBookingHandler,

		SubmitRatingHandler:      ratingHandler.SubmitRatingHandler,
		RemoveRatingHandler:      ratingHandler.RemoveRatingHandler,
		GetProviderRatingHandler: ratingHandler.GetProviderRatingHandler,

		ListNotificationsHandler: notificationHandler.ListNotificationsHandler,
		UnreadCountHandler:       notificationHandler.UnreadCountHandler,
		MarkAsReadHandler:        notificationHandler.MarkAsReadHandler,
		MarkAllAsReadHandler:     notificationHandler.MarkAllAsReadHandler,

		RegisterDeviceHandler:   deviceHandler.RegisterDeviceHandler,
		UnregisterDeviceHandler: deviceHandler.UnregisterDeviceHandler,

		WebSocketHandler: wsHandler.ServeWS,
		HealthHandler:    handlers.HealthHandler,
	}

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware(config.AppConfig.MaxRequestsPerMin, logger))
	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), config.AppConfig.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("main: server forced to shutdown", zap.Error(err))
	}
	// Pending notifications must be stored before the process exits.
	if err := notificationService.Shutdown(ctx); err != nil {
		logger.Error("main: notification dispatch did not drain", zap.Error(err))
	}
	if worker != nil {
		worker.Shutdown()
	}
	if queueClient != nil {
		_ = queueClient.Close()
	}
	for _, c := range redisClients {
		_ = c.Close()
	}
	if err := database.Close(ctx); err != nil {
		logger.Warn("main: mongo disconnect failed", zap.Error(err))
	}

	logger.Info("main: server stopped gracefully")
}

// openStore connects the configured storage driver.
func openStore(logger *zap.Logger) (*repository.Store, *mongo.Client) {
	if config.UsesMemoryStore() {
		logger.Warn("main: using in-memory storage, data is lost on restart")
		return memory.New().Store(), nil
	}
	client, err := database.InitDB(config.AppConfig.DatabaseURL)
	if err != nil {
		logger.Fatal("main: database unavailable", zap.Error(err))
	}
	return repository.NewMongoStore(client.Database(config.AppConfig.DatabaseName)), client
}
