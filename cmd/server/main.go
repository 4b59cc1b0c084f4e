package main

import (
	"context"   // Startup and shutdown deadlines
	"errors"    // Error matching
	"net/http"  // HTTP server
	"os"        // Signals
	"os/signal" // Signal handling
	"syscall"   // SIGTERM
	"time"      // Timeouts

	"artisanhub/internal/ai"        // Gemini client
	"artisanhub/internal/api"       // Custom package for API handlers
	"artisanhub/internal/config"    // Custom package for configuration
	"artisanhub/internal/db"        // Database connection and migration
	"artisanhub/internal/notify"    // Event delivery
	"artisanhub/internal/storage"   // Image storage
	"artisanhub/internal/translate" // Translation service

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/nats-io/nats.go"   // NATS client
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

const (
	shutdownTimeout = 10 * time.Second
	eventTimeout    = 15 * time.Second
	devJWTSecret    = "artisanhub-dev-secret"
)

// setupLogger configures logrus from the environment
func setupLogger(cfg *config.Config) {
	if cfg.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

// connectRedis returns nil when Redis is not configured or unreachable
func connectRedis(cfg *config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		logrus.Info("Redis not configured, caching in memory only")
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logrus.WithFields(logrus.Fields{"addr": cfg.RedisAddr, "error": err.Error()}).Warn("Redis unreachable, caching disabled")
		_ = rdb.Close()
		return nil
	}
	logrus.WithField("addr", cfg.RedisAddr).Info("Redis connected")
	return rdb
}

// setupStore prefers Cloudinary and falls back to the local upload directory
func setupStore(cfg *config.Config) (storage.ImageStore, string) {
	if cfg.CloudinaryEnabled() {
		store, err := storage.NewCloudinaryStore(cfg.CloudinaryURL, cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
		if err == nil {
			logrus.WithField("folder", cfg.CloudinaryFolder).Info("Storing images on Cloudinary")
			return store, ""
		}
		logrus.WithField("error", err.Error()).Warn("Cloudinary setup failed, storing images locally")
	}
	store, err := storage.NewLocalStore(cfg.UploadDir)
	if err != nil {
		logrus.Fatalf("failed to prepare upload dir: %v", err)
	}
	logrus.WithField("dir", store.Dir()).Info("Storing images locally")
	return store, store.Dir()
}

// setupEvents wires the Zapier and NATS sinks that are configured
func setupEvents(cfg *config.Config) (*notify.Dispatcher, *nats.Conn) {
	var sinks []notify.Sink
	if cfg.ZapierWebhookURL != "" {
		sinks = append(sinks, notify.NewWebhookSink(cfg.ZapierWebhookURL, nil, 3, time.Second))
	}
	var nc *nats.Conn
	if cfg.NATSURL != "" {
		conn, err := notify.ConnectNATS(cfg.NATSURL)
		if err != nil {
			logrus.WithFields(logrus.Fields{"url": cfg.NATSURL, "error": err.Error()}).Warn("NATS unreachable, events not published")
		} else {
			nc = conn
			sinks = append(sinks, notify.NewNATSSink(nc))
		}
	}
	logrus.WithField("sinks", len(sinks)).Info("Event delivery configured")
	return notify.NewDispatcher(eventTimeout, sinks...), nc
}

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration
	setupLogger(cfg)

	if cfg.JWTSecret == "" {
		if cfg.IsProd {
			logrus.Fatal("JWT_SECRET is required in production")
		}
		logrus.Warn("JWT_SECRET not set, using development secret")
		cfg.JWTSecret = devJWTSecret
	}

	gdb, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}
	if err := db.Migrate(gdb); err != nil {
		logrus.Fatalf("failed to migrate DB: %v", err)
	}

	rdb := connectRedis(cfg)
	store, uploadDir := setupStore(cfg)
	events, nc := setupEvents(cfg)

	var cache translate.Cache = translate.NewMemoryCache(cfg.TranslationCacheSize, cfg.TranslationCacheTTL)
	if rdb != nil {
		cache = translate.NewRedisCache(rdb, cfg.TranslationCacheTTL)
	}

	deps := api.Deps{
		DB:             gdb,
		Redis:          rdb,
		Store:          store,
		Events:         events,
		JWTSecret:      cfg.JWTSecret,
		JWTTTL:         cfg.JWTTTL,
		UploadDir:      uploadDir,
		CORSOrigins:    cfg.CORSOrigins,
		TrustedProxies: []string{"127.0.0.1"},
	}
	var gen translate.TextGenerator
	if cfg.GeminiAPIKey != "" {
		client, err := ai.NewClient(context.Background(), cfg.GeminiAPIKey, cfg.GeminiTextModel, cfg.GeminiImageModel)
		if err != nil {
			logrus.WithField("error", err.Error()).Warn("Gemini unavailable, AI features disabled")
		} else {
			gen = client
			deps.Enhancer = client
		}
	} else {
		logrus.Warn("GOOGLE_AI_API_KEY not set, AI features disabled")
	}
	deps.Translator = translate.NewService(gen, cache)

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}
	r, err := api.SetupRouter(deps)
	if err != nil {
		logrus.Fatalf("failed to set up router: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logrus.WithField("port", cfg.AppPort).Info("Server running") // Log server start
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server failed: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logrus.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithField("error", err.Error()).Error("Graceful shutdown failed")
	}
	if err := events.Wait(shutdownCtx); err != nil {
		logrus.WithField("error", err.Error()).Warn("Pending events dropped at shutdown") // Deliveries still running
	}
	if nc != nil {
		_ = nc.Drain() // Flush pending events
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
