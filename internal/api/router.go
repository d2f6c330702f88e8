package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/razberry-fun/razberry-api/internal/api/handlers"
	apimiddleware "github.com/razberry-fun/razberry-api/internal/api/middleware"
	"github.com/razberry-fun/razberry-api/internal/config"
	"github.com/razberry-fun/razberry-api/internal/gate"
	"github.com/razberry-fun/razberry-api/internal/logger"
	"github.com/razberry-fun/razberry-api/internal/metrics"
	"github.com/razberry-fun/razberry-api/internal/middleware"
	"github.com/razberry-fun/razberry-api/internal/services"
	"github.com/razberry-fun/razberry-api/internal/storage"
	"github.com/razberry-fun/razberry-api/internal/storygen"
	"github.com/razberry-fun/razberry-api/internal/tts"
	"gorm.io/gorm"
)

func SetupRouter(db *gorm.DB, cfg *config.Config) *gin.Engine {
	router := gin.New()

	// Recovery middleware (must be first)
	router.Use(apimiddleware.RecoverWithSentry())

	// Sentry middleware for error tracking
	router.Use(apimiddleware.SentryMiddleware())

	// Request tracking and structured logging
	router.Use(apimiddleware.RequestTracking())

	// CORS middleware
	router.Use(apimiddleware.CORS())

	// Health check
	healthHandler := handlers.NewHealthHandler(db)
	router.GET("/health", healthHandler.HealthCheck)

	// Shared services
	cloudwatchClient, err := metrics.NewClient(context.Background(), cfg.Environment)
	if err != nil {
		logger.Error("Failed to create CloudWatch client", err, nil)
	}
	sentryMetrics := metrics.NewSentryMetrics()

	uploader, err := storage.NewS3(context.Background(), cfg.AudioBucket, cfg.AWSRegion)
	if err != nil {
		logger.Error("Failed to create S3 uploader", err, nil)
	}

	factory := storygen.NewFactory(storygen.OpenRouterConfig{
		APIKey:  cfg.OpenRouterAPIKey,
		BaseURL: cfg.OpenRouterBaseURL,
		AppName: cfg.OpenRouterAppName,
		SiteURL: cfg.OpenRouterSiteURL,
	}, cfg.GeminiAPIKey)

	synthesizer := tts.NewElevenLabs(tts.ElevenLabsConfig{
		APIKey:      cfg.ElevenLabsAPIKey,
		ModelID:     cfg.ElevenLabsModelID,
		MaleVoice:   cfg.ElevenLabsVoiceMale,
		FemaleVoice: cfg.ElevenLabsVoiceFemale,
	})

	usageService := services.NewUsageService(db)
	generationService := services.NewGenerationService(
		factory, synthesizer, cfg.OpenRouterModel,
		usageService, cloudwatchClient, sentryMetrics,
	)

	gateStore := gate.NewSessionStore(cfg.SessionSecret, cfg.Environment == "production")

	// Auth routes (public)
	auth := router.Group("/api/auth")
	{
		authHandler := handlers.NewAuthHandler(db, cfg)
		auth.POST("/logout", authHandler.Logout)
		auth.POST("/refresh", authHandler.Refresh)

		oauthHandler := handlers.NewOAuthHandler(db, cfg)
		auth.GET("/:provider", oauthHandler.BeginAuth)         // /api/auth/google or /api/auth/github
		auth.GET("/:provider/callback", oauthHandler.Callback) // OAuth callback
	}

	// Story generation (optional auth: anonymous visitors get one free
	// teaser). Cross-origin preflight is answered by the CORS middleware.
	storyHandler := handlers.NewStoryHandler(generationService, usageService, gateStore)
	router.POST("/api/story", middleware.OptionalJWTAuth(db, cfg), storyHandler.Generate)

	// Gate state (optional auth)
	gateHandler := handlers.NewGateHandler(gateStore)
	gateRoutes := router.Group("/api/gate", middleware.OptionalJWTAuth(db, cfg))
	{
		gateRoutes.GET("", gateHandler.Status)
		gateRoutes.POST("/continue", gateHandler.Continue)
		gateRoutes.POST("/dismiss", gateHandler.Dismiss)
	}

	// Story library (require JWT)
	libraryHandler := handlers.NewLibraryHandler(db, uploader)
	library := router.Group("/api/story", middleware.JWTAuth(db, cfg))
	{
		library.POST("/save", libraryHandler.Save)
		library.GET("/list", libraryHandler.List)
	}

	// Billing
	billingHandler := handlers.NewBillingHandler(db, cfg, usageService)
	stripeRoutes := router.Group("/api/stripe")
	{
		stripeRoutes.POST("/checkout", middleware.JWTAuth(db, cfg), billingHandler.Checkout)
		stripeRoutes.POST("/portal", middleware.JWTAuth(db, cfg), billingHandler.Portal)
		stripeRoutes.POST("/webhook", billingHandler.Webhook) // Verified by signature, not JWT
	}

	// User sync (require JWT)
	authHandler := handlers.NewAuthHandler(db, cfg)
	router.POST("/api/user/sync", middleware.JWTAuth(db, cfg), authHandler.SyncUser)

	// Profile API v1 (require JWT)
	profileHandler := handlers.NewProfileHandler(db, uploader)
	v1 := router.Group("/api/v1")
	v1.Use(middleware.JWTAuth(db, cfg))
	{
		v1.GET("/me", profileHandler.Me)
		v1.PUT("/profile", profileHandler.Update)
		v1.POST("/profile/avatar", profileHandler.UploadAvatar)
	}

	return router
}
