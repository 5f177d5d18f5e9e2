package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yungbote/adpilot-backend/internal/handlers"
	"github.com/yungbote/adpilot-backend/internal/middleware"
	"github.com/yungbote/adpilot-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log               *logger.Logger
	AuthMiddleware    *middleware.AuthMiddleware
	AccountHandler    *handlers.AccountHandler
	AdHandler         *handlers.AdHandler
	SuggestionHandler *handlers.SuggestionHandler
	AllowOrigins      []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(cfg.Log))

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5174"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)

	// ===============
	// || Protected ||
	// ===============
	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())
	// Accounts
	api.POST("/accounts", cfg.AccountHandler.RegisterAccount)
	api.GET("/accounts", cfg.AccountHandler.ListAccounts)
	api.GET("/accounts/:id", cfg.AccountHandler.GetAccount)
	api.POST("/accounts/:id/sync", cfg.AccountHandler.SyncAccount)
	// Scoring
	api.POST("/accounts/:id/classify", cfg.AdHandler.ClassifyAccount)
	api.GET("/accounts/:id/score-runs", cfg.AdHandler.ListScoreRuns)
	api.GET("/accounts/:id/ads", cfg.AdHandler.ListAds)
	api.GET("/ads/:id", cfg.AdHandler.GetAd)
	// Suggestions
	api.POST("/ads/:id/suggestions", cfg.SuggestionHandler.GenerateForAd)
	api.GET("/ads/:id/suggestions", cfg.SuggestionHandler.ListForAd)
	api.POST("/accounts/:id/generate", cfg.SuggestionHandler.GenerateForWorst)
	api.GET("/accounts/:id/suggestions", cfg.SuggestionHandler.ListForAccount)

	return router
}
