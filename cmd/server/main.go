package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vecinet/backend/internal/auth"
	"github.com/vecinet/backend/internal/cache"
	"github.com/vecinet/backend/internal/config"
	"github.com/vecinet/backend/internal/database"
	"github.com/vecinet/backend/internal/feed"
	"github.com/vecinet/backend/internal/handlers"
	"github.com/vecinet/backend/internal/logger"
	"github.com/vecinet/backend/internal/metrics"
	"github.com/vecinet/backend/internal/middleware"
	"github.com/vecinet/backend/internal/moderation"
	"github.com/vecinet/backend/internal/posts"
	"github.com/vecinet/backend/internal/storage"
	"github.com/vecinet/backend/internal/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	logger.Log.Info("=== VeciNet server starting ===",
		zap.String("environment", cfg.Environment),
		zap.String("port", cfg.Port))

	// Tracing (no-op unless OTEL_ENABLED=true)
	tp, err := telemetry.InitTracer(telemetry.Config{
		ServiceName:  "vecinet-backend",
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTLPEndpoint,
		Enabled:      cfg.TracingEnabled,
		SamplingRate: cfg.SamplingRate,
	})
	if err != nil {
		logger.Log.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	if tp != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = tp.Shutdown(ctx)
		}()
	}

	// Initialize database and run migrations
	if err := database.Initialize(); err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}
	if err := database.Migrate(); err != nil {
		logger.Log.Fatal("Failed to run migrations", zap.Error(err))
	}

	metrics.Initialize()

	// Redis is optional: the feed falls back to uncached queries and rate
	// limiting is disabled when it is unreachable.
	redisClient, err := cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
	if err != nil {
		logger.Log.Warn("Redis unavailable, continuing without caching", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	// Image storage backend
	var images storage.ImageStore
	switch cfg.StorageBackend {
	case "s3":
		s3Store, err := storage.NewS3Store(cfg.AWSRegion, cfg.AWSBucket, cfg.CDNBaseURL)
		if err != nil {
			logger.Log.Fatal("Failed to initialize S3 storage", zap.Error(err))
		}
		if err := s3Store.CheckBucketAccess(context.Background()); err != nil {
			logger.Log.Warn("S3 bucket access check failed", zap.Error(err))
		}
		images = s3Store
	default:
		images = storage.NewInlineStore()
	}

	// Core services
	authService := auth.NewService(database.DB, cfg.JWTSecret, cfg.TokenTTL)
	postService := posts.NewService(database.DB, posts.Options{
		PostTTL:        cfg.PostTTL,
		ExpiringWindow: cfg.ExpiringWindow,
		MaxImages:      cfg.MaxImagesPerPost,
	})
	moderationService := moderation.NewService(database.DB, cfg.ReportThreshold)
	feedEngine := feed.NewEngine(database.DB, redisClient, feed.Options{
		DefaultRadiusKm: cfg.DefaultRadiusKm,
		MaxRadiusKm:     cfg.MaxRadiusKm,
		ReportThreshold: cfg.ReportThreshold,
		CacheTTL:        cfg.FeedCacheTTL,
	})

	// Background expiry sweep keeps the is_expired flag fresh; the feed
	// predicate never trusts the flag alone.
	sweeper := posts.NewSweeper(postService, cfg.SweepInterval)
	sweeper.Start()
	defer sweeper.Stop()

	h := handlers.NewHandlers(postService, moderationService, feedEngine, images)
	h.SetMaxImageBytes(cfg.MaxImageBytes)
	authHandlers := handlers.NewAuthHandlers(authService)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	if cfg.TracingEnabled {
		r.Use(otelgin.Middleware("vecinet-backend"))
	}

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"} // Configure properly for production
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   "vecinet-backend",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		// Authentication routes (public, rate limited against brute force)
		authGroup := api.Group("/auth")
		{
			authLimit := middleware.RedisRateLimitMiddleware("auth", 10, time.Minute)
			authGroup.POST("/register", authLimit, authHandlers.Register)
			authGroup.POST("/login", authLimit, authHandlers.Login)
			authGroup.GET("/me", authHandlers.AuthMiddleware(), authHandlers.Me)
		}

		// Feed is public: browsing the neighborhood does not require an account
		api.GET("/feed", h.GetFeed)

		// Postal code lookup (public)
		api.GET("/geo/postal-codes/:code", h.LookupPostalCode)

		// Post routes
		postsGroup := api.Group("/posts")
		{
			postsGroup.GET("/:id", h.GetPost)

			authed := postsGroup.Group("")
			authed.Use(authHandlers.AuthMiddleware())
			authed.POST("", h.CreatePost)
			authed.PUT("/:id", h.UpdatePost)
			authed.DELETE("/:id", h.DeletePost)
			authed.POST("/:id/extend", h.ExtendPost)
			authed.POST("/:id/report",
				middleware.RedisRateLimitMiddleware("report", 20, time.Minute),
				h.ReportPost)
			authed.GET("/expiring", h.GetExpiringPosts)
		}

		// User routes
		users := api.Group("/users")
		{
			users.GET("/:id/profile", h.GetUserProfile)
			users.GET("/:id/posts", h.GetUserPosts)

			users.GET("/me", authHandlers.AuthMiddleware(), h.GetProfile)
			users.PUT("/me", authHandlers.AuthMiddleware(), h.UpdateProfile)
		}

		// Image upload
		api.POST("/images",
			authHandlers.AuthMiddleware(),
			middleware.RedisRateLimitMiddleware("upload", 30, time.Minute),
			h.UploadImage)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Log.Info("VeciNet backend listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Log.Info("Server exited")
}
