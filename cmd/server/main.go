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

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/steemit/tweetstore/internal/api"
	"github.com/steemit/tweetstore/internal/cache"
	"github.com/steemit/tweetstore/internal/db"
	"github.com/steemit/tweetstore/internal/models"
	"github.com/steemit/tweetstore/internal/reply"
	"github.com/steemit/tweetstore/internal/store"
	"github.com/steemit/tweetstore/pkg/config"
	"github.com/steemit/tweetstore/pkg/logging"
	"github.com/steemit/tweetstore/pkg/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logging.InitLogger(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.GetLogger().Sync()

	logger := logging.GetLogger()
	logger.Info("Starting Tweetstore API Server")

	// Initialize telemetry
	telemetryShutdown, err := telemetry.Init(&cfg.Telemetry)
	if err != nil {
		logger.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer telemetryShutdown()

	ctx := context.Background()

	// Load the settings container from the database or the seed file
	settings := &models.Settings{}
	var saver api.Saver
	var database *db.DB

	switch {
	case cfg.Database.Enabled:
		database, err = db.New(ctx, &cfg.Database, cfg.Logging.Level)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer database.Close()

		repo := db.NewSettingsRepository(database.DB)
		settings, err = repo.Load(ctx)
		if err != nil {
			logger.Fatal("Failed to load tweets", zap.Error(err))
		}
		saver = repo
	case cfg.Store.SeedFile != "":
		settings, err = models.ReadSettingsFile(cfg.Store.SeedFile)
		if err != nil {
			logger.Fatal("Failed to load seed file", zap.Error(err))
		}
		saver = newFileSaver(cfg.Store.SeedFile, settings)
	default:
		logger.Warn("No database or seed file configured, tweets are kept in memory only")
	}
	logger.Info("Settings loaded", zap.Int("tweets", len(settings.Tweets)))

	posts := store.NewGuarded(store.New(settings))

	// Initialize Redis cache
	redisCache, err := cache.New(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisCache.Close()

	replies := reply.NewService(reply.NewReplier(nil), redisCache, cfg.Redis.ReplyTTL)

	defaults := api.ReplyDefaults{
		APIKey:  cfg.Reply.APIKey,
		Model:   cfg.Reply.Model,
		Timeout: cfg.Reply.Timeout,
	}
	if settings.APIKey != "" {
		defaults.APIKey = settings.APIKey
	}
	if settings.Model != "" {
		defaults.Model = settings.Model
	}

	opts := []api.RouterOption{api.WithReplyDefaults(defaults)}
	if saver != nil {
		opts = append(opts, api.WithSaver(saver))
	}
	if database != nil {
		opts = append(opts, api.WithHealthCheck("database", database))
	}
	if redisCache != nil {
		opts = append(opts, api.WithHealthCheck("redis", redisCache))
	}

	// Create Gin router
	if cfg.Logging.Level == "DEBUG" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	api.NewRouter(posts, replies, opts...).SetupRoutes(engine)

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: engine,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Server starting", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	if cfg.Store.SaveOnShutdown && saver != nil {
		snapshot := posts.Posts()
		if err := saver.Save(shutdownCtx, snapshot); err != nil {
			logger.Error("Failed to save tweets", zap.Error(err))
		} else {
			logger.Info("Tweets saved", zap.Int("count", len(snapshot)))
		}
	}

	logger.Info("Server exited")
}
