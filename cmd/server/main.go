// @title           Stamp Match Backend API
// @version         1.0.0
// @description     Backend API for matching stamp photos to sales orders. Photos are uploaded in bulk, correlated against each order's design files through an external visual-similarity service, and bound to orders after human confirmation; everything unresolved lands in a durable pending queue.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stamp-match-backend/internal/config"
	"stamp-match-backend/internal/database"
	"stamp-match-backend/internal/handlers"
	"stamp-match-backend/internal/logging"
	"stamp-match-backend/internal/matching"
	"stamp-match-backend/internal/middleware"
	"stamp-match-backend/internal/services"
	"stamp-match-backend/internal/supabase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	logger := logging.New(cfg.Environment)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	supabaseClient, err := supabase.NewClient(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize supabase client")
	}

	photoStorage, err := supabase.NewStorageClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, cfg.PhotoBucket)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize photo storage client")
	}

	designStorage, err := supabase.NewStorageClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, cfg.DesignBucket)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize design storage client")
	}

	realtimeClient := supabase.NewRealtimeClient(supabaseClient.Supabase)

	if cfg.DatabaseURL == "" {
		logger.Fatal().Msg("DATABASE_URL is required")
	}

	dbClient, err := supabase.NewDatabaseClient(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize database client")
	}
	defer dbClient.Close()

	migrator, err := database.NewMigrator(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize migrator")
	} else {
		defer migrator.Close()
		if err := migrator.Run(); err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
	}

	matchingClient := matching.NewClient(
		cfg.MatchingServiceURL,
		cfg.MatchingHealthTimeout,
		cfg.MatchingCallTimeout,
		logger,
	)
	corpusBuilder := matching.NewCorpusBuilder(designStorage, logger)

	uploader := services.NewBatchUploader(
		photoStorage,
		cfg.MaxUploadBytes(),
		cfg.ConstrainedUploads,
		cfg.UploadDelay,
		logger,
	)

	pipeline := services.NewMatchPipeline(
		uploader,
		corpusBuilder,
		matchingClient,
		dbClient,
		dbClient,
		photoStorage,
		realtimeClient,
		cfg.MatchingEnabled,
		logger,
	)

	confirmService := services.NewConfirmationService(
		dbClient,
		dbClient,
		photoStorage,
		realtimeClient,
		logger,
	)

	photosHandler := handlers.NewPhotosHandler(pipeline, confirmService)
	pendingHandler := handlers.NewPendingHandler(confirmService, pipeline)
	ordersHandler := handlers.NewOrdersHandler(dbClient)
	matchingHandler := handlers.NewMatchingHandler(pipeline)

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Health check (no auth)
	router.GET("/health", handlers.HealthHandler)

	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg))

	api.POST("/photos/match", photosHandler.Match)
	api.POST("/photos/confirm", photosHandler.Confirm)
	api.POST("/photos/reject", photosHandler.Reject)

	api.GET("/pending", pendingHandler.List)
	api.DELETE("/pending", pendingHandler.Delete)
	api.POST("/pending/assign", pendingHandler.Assign)
	api.POST("/pending/rematch", pendingHandler.Rematch)
	api.POST("/pending/signed-url", pendingHandler.SignedURL)

	api.GET("/orders/matchable", ordersHandler.ListMatchable)
	api.GET("/matching/health", matchingHandler.Health)

	logger.Info().Str("port", cfg.Port).Msg("server starting")
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		logger.Fatal().Err(err).Msg("failed to start server")
	}
}
