package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/macrolens/allergenscan/config"
)

// SetupRouter creates and configures the Gin router. metrics may be nil,
// in which case /metrics is not served.
func SetupRouter(cfg *config.Config, handler *Handler, logger *slog.Logger, metrics http.Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "http")

	router := gin.New()
	// ClientIP uses the socket address only
	if err := router.SetTrustedProxies(nil); err != nil {
		logger.Warn("failed to disable trusted proxies", "error", err)
	}
	router.SetHTMLTemplate(loadTemplates())

	// Global middleware
	router.Use(RequestIDMiddleware())
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Operational endpoints are not rate limited
	router.GET("/health", handler.HealthCheck)
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}

	limited := router.Group("/")
	limited.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		// Search form
		limited.GET("/", handler.SearchForm)
		limited.POST("/", handler.SubmitSearch)

		// API v1 routes
		v1 := limited.Group("/api/v1")
		{
			v1.GET("/report", handler.GetReport)
		}
	}

	return router
}
