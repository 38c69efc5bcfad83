package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/beatforge-backend/internal/handlers"
	"github.com/yungbote/beatforge-backend/internal/middleware"
)

type RouterConfig struct {
	ServiceName           string
	AuthHandler           *handlers.AuthHandler
	AuthMiddleware        *middleware.AuthMiddleware
	SearchHandler         *handlers.SearchHandler
	RecommendationHandler *handlers.RecommendationHandler
	BeatHandler           *handlers.BeatHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware(cfg.ServiceName))

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	api.POST("/register", cfg.AuthHandler.Register)
	api.POST("/login", cfg.AuthHandler.Login)

	// Search works anonymously; a valid token personalizes analytics.
	search := api.Group("/")
	search.Use(cfg.AuthMiddleware.OptionalAuth())
	search.GET("/search", cfg.SearchHandler.Search)
	search.GET("/search/suggestions", cfg.SearchHandler.Suggestions)
	search.GET("/search/autocomplete", cfg.SearchHandler.Autocomplete)
	search.GET("/search/trending", cfg.SearchHandler.TrendingSearches)
	search.GET("/beats/trending", cfg.RecommendationHandler.Trending)
	search.GET("/beats/:id", cfg.BeatHandler.GetByID)
	search.GET("/beats/:id/similar", cfg.RecommendationHandler.Similar)

	// ===============
	// || Protected ||
	// ===============
	protected := api.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	protected.GET("/recommendations", cfg.RecommendationHandler.Personalized)
	protected.POST("/interactions", cfg.RecommendationHandler.TrackInteraction)

	return router
}
