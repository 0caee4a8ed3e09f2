// File: cleanly/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"cleanly/config"
	"cleanly/cron"
	"cleanly/database"
	penaltyRepo "cleanly/database/repository/penalty"
	requestRepo "cleanly/database/repository/request"
	"cleanly/handlers"
	"cleanly/middleware"
	"cleanly/routes"
	"cleanly/services/activation"
	"cleanly/services/lifecycle"
	"cleanly/services/notification"
	"cleanly/services/penalty"
	"cleanly/services/rebooking"
	"cleanly/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	defer logger.Sync() //nolint:errcheck

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	policy := config.AppConfig.Policy()
	clock := utils.SystemClock{}

	// storage.
	var (
		reqRepo   requestRepo.RequestRepository
		penRepo   penaltyRepo.PenaltyRepository
		activator activation.Activator
		db        *mongo.Database
	)
	switch config.AppConfig.StorageDriver {
	case "memory":
		logger.Warn("main: using in-memory storage, data is lost on restart")
		reqRepo = requestRepo.NewMemoryRequestRepo()
		penRepo = penaltyRepo.NewMemoryPenaltyRepo()
		activator = activation.NoopActivator{}
	default:
		if err := database.InitDB(ctx); err != nil {
			logger.Fatal("main: failed to connect to MongoDB", zap.Error(err))
		}
		db = database.DB()
		mongoRequests, err := requestRepo.NewMongoRequestRepo(db)
		if err != nil {
			logger.Fatal("main: failed to initialize booking request store", zap.Error(err))
		}
		mongoPenalties, err := penaltyRepo.NewMongoPenaltyRepo(db)
		if err != nil {
			logger.Fatal("main: failed to initialize penalty ledger store", zap.Error(err))
		}
		reqRepo, penRepo = mongoRequests, mongoPenalties
		activator = activation.NewMongoActivator(db, clock)
	}

	// notifications.
	var (
		notifier    notification.Notifier = &notification.LogNotifier{Logger: logger}
		queueClient *asynq.Client
		worker      *asynq.Server
	)
	if config.AppConfig.Notifier == "queue" {
		if db == nil {
			logger.Warn("main: queue notifier needs MongoDB for device tokens, falling back to log notifier")
		} else {
			fcm, err := utils.NewFCMClient(ctx)
			if err != nil {
				logger.Fatal("main: failed to initialize Firebase messaging", zap.Error(err))
			}
			queueClient = asynq.NewClient(cron.QueueRedisOpt())
			notifier = &notification.QueueNotifier{Client: queueClient, Clock: clock, Logger: logger}
			worker = cron.InitNotifyWorker(&notification.PushSender{
				FCM:    fcm,
				Tokens: notification.NewMongoTokenDirectory(db),
				Logger: logger,
			}, logger)
		}
	}

	// services.
	lifecycleService := &lifecycle.DefaultLifecycleService{
		Repo:      reqRepo,
		Activator: activator,
		Notifier:  notifier,
		Clock:     clock,
		Policy:    policy,
		Logger:    logger,
	}
	rebookingService := &rebooking.DefaultRebookingCoordinator{
		Repo:      reqRepo,
		Lifecycle: lifecycleService,
		Policy:    policy,
		Logger:    logger,
	}
	penaltyLedger := &penalty.DefaultPenaltyLedger{
		Repo:     penRepo,
		Notifier: notifier,
		Clock:    clock,
		Policy:   policy,
		Logger:   logger,
	}

	// background jobs.
	var (
		lock        cron.Locker
		redisClient *redis.Client
	)
	if db != nil {
		redisClient = utils.GetLockClient()
		lock = cron.NewRedisLease(redisClient, "cleanly:expiry-sweep", config.AppConfig.ExpirySweepInterval)
	}
	go cron.StartExpirySweeper(ctx, lifecycleService, lock, config.AppConfig.ExpirySweepInterval, logger)
	utils.StartHealthMonitor(ctx, config.AppConfig.StorageDriver, redisClient, database.MongoClient, 30*time.Second)

	// Create the Gin router.
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.RateLimitMiddleware(config.AppConfig.MaxRequestsPerMin))

	handlerBundle := handlers.NewHandlerBundle(
		handlers.NewBookingRequestHandler(lifecycleService, rebookingService, clock, policy),
		handlers.NewCleanerHandler(penaltyLedger, policy),
	)
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
	logger.Sugar().Info("main: server is shutting down...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}
	if worker != nil {
		worker.Shutdown()
	}
	if queueClient != nil {
		if err := queueClient.Close(); err != nil {
			logger.Warn("main: failed to close queue client", zap.Error(err))
		}
	}
	if err := database.Disconnect(shutdownCtx); err != nil {
		logger.Warn("main: failed to disconnect from MongoDB", zap.Error(err))
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
