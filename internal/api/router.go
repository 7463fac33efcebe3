package api

import (
	"github.com/Conceptual-Machines/lyricist-api/internal/api/handlers"
	apimiddleware "github.com/Conceptual-Machines/lyricist-api/internal/api/middleware"
	"github.com/Conceptual-Machines/lyricist-api/internal/config"
	"github.com/Conceptual-Machines/lyricist-api/internal/history"
	"github.com/Conceptual-Machines/lyricist-api/internal/metrics"
	"github.com/Conceptual-Machines/lyricist-api/internal/middleware"
	"github.com/Conceptual-Machines/lyricist-api/internal/pipeline"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRouter wires the HTTP surface. db may be nil; run history is then
// disabled. cloudwatch may be nil.
func SetupRouter(
	db *gorm.DB,
	cfg *config.Config,
	orchestrator *pipeline.Orchestrator,
	cloudwatch *metrics.Client,
	version string,
) *gin.Engine {
	router := gin.New()

	// Recovery middleware (must be first)
	router.Use(apimiddleware.RecoverWithSentry())

	// Sentry middleware for error tracking
	router.Use(apimiddleware.SentryMiddleware())

	// Request tracking and structured logging
	var recorders []apimiddleware.APIRecorder
	if cloudwatch != nil {
		recorders = append(recorders, cloudwatch)
	}
	router.Use(apimiddleware.RequestTracking(recorders...))

	router.Use(apimiddleware.CORS())

	// Health check
	healthHandler := handlers.NewHealthHandler(db)
	router.GET("/health", healthHandler.HealthCheck)

	// Metrics endpoint
	metricsHandler := handlers.NewMetricsHandler(version, orchestrator.Registry())
	router.GET("/api/metrics", metricsHandler.GetMetrics)

	var store handlers.RunStore
	if db != nil {
		store = history.NewStore(db)
	}
	lyricist := handlers.NewLyricistHandler(orchestrator, store)

	v1 := router.Group("/api/v1")
	v1.Use(authMiddleware(cfg))
	{
		v1.POST("/skills/activate", lyricist.ActivateSkills)

		v1.POST("/strategy", lyricist.Strategy)
		v1.POST("/lyrics", lyricist.Lyrics)
		v1.POST("/strategy-lyrics", lyricist.StrategyAndLyrics)
		v1.POST("/critics", lyricist.Critics)
		v1.POST("/review", lyricist.Review)
		v1.POST("/post-process", lyricist.PostProcess)

		v1.POST("/pipeline", lyricist.Pipeline)
		v1.GET("/history", lyricist.History)
	}

	return router
}

func authMiddleware(cfg *config.Config) gin.HandlerFunc {
	switch {
	case cfg.IsGatewayMode():
		return apimiddleware.GatewayAuth()
	case cfg.IsJWTMode():
		return middleware.JWTAuth(cfg)
	default:
		return apimiddleware.NoAuth()
	}
}
