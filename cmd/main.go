package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KidOfCoding/TripManagement/internal/auth"
	"github.com/KidOfCoding/TripManagement/internal/cache"
	"github.com/KidOfCoding/TripManagement/internal/config"
	"github.com/KidOfCoding/TripManagement/internal/db"
	"github.com/KidOfCoding/TripManagement/internal/events"
	"github.com/KidOfCoding/TripManagement/internal/handlers"
	"github.com/KidOfCoding/TripManagement/internal/logger"
	"github.com/KidOfCoding/TripManagement/internal/middleware"
	"github.com/KidOfCoding/TripManagement/internal/reports"
	"github.com/KidOfCoding/TripManagement/internal/trips"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const shutdownTimeout = 30 * time.Second

// healthChecker is satisfied by *mongo.Client.
type healthChecker interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
}

type routerDeps struct {
	cfg     *config.Config
	log     logrus.FieldLogger
	tokens  middleware.TokenValidator
	trips   *handlers.TripHandler
	health  healthChecker
	limiter *middleware.RateLimitMiddleware
}

func setupRouter(deps routerDeps) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(deps.log),
		middleware.CORS(deps.cfg.App.CORSAllowedOrigins),
	)

	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := deps.health.Ping(ctx, readpref.Primary()); err != nil {
			deps.log.WithError(err).Warn("Health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "up"})
	})

	api := router.Group("/api")
	api.Use(
		middleware.NewAuthMiddleware(deps.tokens).Authenticate(),
		deps.limiter.RateLimit(deps.cfg.RateLimit.Requests, deps.cfg.RateLimit.WindowSeconds),
	)
	deps.trips.RegisterRoutes(api.Group("/trips"))

	if dir := deps.cfg.App.StaticDir; dir != "" {
		router.NoRoute(func(c *gin.Context) {
			if c.Request.Method != http.MethodGet {
				c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Route not found"})
				return
			}
			c.File(dir + "/index.html")
		})
		router.Static("/assets", dir+"/assets")
	}

	return router
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App)
	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("Server stopped")
	}
}

func run(cfg *config.Config, log *logrus.Logger) error {
	if cfg.App.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	authService, err := auth.NewService(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to create auth service: %w", err)
	}

	ctx := context.Background()
	client, err := db.ConnectMongo(ctx, cfg.Mongo)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			log.WithError(err).Warn("Failed to disconnect from MongoDB")
		}
	}()
	log.WithField("database", cfg.Mongo.Database).Info("Connected to MongoDB")

	database := client.Database(cfg.Mongo.Database)
	if err := db.EnsureIndexes(ctx, database); err != nil {
		return fmt.Errorf("failed to ensure indexes: %w", err)
	}
	store := db.NewStore(database)

	var statsCache cache.StatsCache = cache.Noop{}
	var limitCounter middleware.WindowCounter
	if cfg.Redis.Addr != "" {
		redisCache, err := cache.NewRedisCache(ctx, cfg.Redis)
		if err != nil {
			log.WithError(err).Warn("Redis unavailable, stats caching disabled")
		} else {
			defer redisCache.Close()
			statsCache = redisCache
			limitCounter = redisCache
			log.WithField("addr", cfg.Redis.Addr).Info("Connected to Redis")
		}
	}

	var publisher events.Publisher = events.Noop{}
	if cfg.MQTT.Broker != "" {
		mqttPublisher, err := events.NewMQTTPublisher(cfg.MQTT, log)
		if err != nil {
			log.WithError(err).Warn("MQTT broker unavailable, trip events disabled")
		} else {
			publisher = mqttPublisher
		}
	}
	defer publisher.Close()

	resolver := trips.NewResolver(store.Drivers, store.Customers, log)
	tripService := trips.NewService(resolver, store.Trips, store.Counters, publisher, statsCache, log)
	reportService := reports.NewService(store.Trips, store.Drivers, store.Customers, statsCache, cfg.App.Location(), log)

	tripHandler, err := handlers.NewTripHandler(tripService, reportService, log)
	if err != nil {
		return err
	}

	router := setupRouter(routerDeps{
		cfg:     cfg,
		log:     log,
		tokens:  authService,
		trips:   tripHandler,
		health:  client,
		limiter: middleware.NewRateLimitMiddleware(limitCounter),
	})

	srv := &http.Server{
		Addr:    ":" + cfg.App.Port,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.App.Port).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("Shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info("Server exited")
	return nil
}
