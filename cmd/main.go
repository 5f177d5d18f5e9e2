package main

import (
	"fmt"
	"os"

	"github.com/yungbote/adpilot-backend/internal/clients/redis"
	"github.com/yungbote/adpilot-backend/internal/db"
	"github.com/yungbote/adpilot-backend/internal/googleads"
	"github.com/yungbote/adpilot-backend/internal/handlers"
	"github.com/yungbote/adpilot-backend/internal/middleware"
	"github.com/yungbote/adpilot-backend/internal/modules/optimization"
	"github.com/yungbote/adpilot-backend/internal/platform/envutil"
	"github.com/yungbote/adpilot-backend/internal/platform/logger"
	"github.com/yungbote/adpilot-backend/internal/platform/openai"
	"github.com/yungbote/adpilot-backend/internal/repos"
	"github.com/yungbote/adpilot-backend/internal/server"
	"github.com/yungbote/adpilot-backend/internal/services"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := envutil.Str("JWT_SECRET_KEY", "defaultsecret")
	windowDays := envutil.Int("METRICS_WINDOW_DAYS", 90)
	maxConcurrency := envutil.Int("GENERATION_MAX_CONCURRENCY", 3)
	gaqlMaxRetries := envutil.Int("GAQL_MAX_RETRIES", 3)

	cfg := optimization.ConfigFromEnv()
	if profilePath := envutil.Str("SCORING_PROFILE_PATH", ""); profilePath != "" {
		cfg, err = cfg.WithProfile(profilePath)
		if err != nil {
			log.Fatal("Scoring profile invalid", "path", profilePath, "error", err)
		}
		log.Info("Scoring profile loaded", "path", profilePath)
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Fatal("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	accountRepo := repos.NewAdAccountRepo(thePG, log)
	adRepo := repos.NewAdRepo(thePG, log)
	metricsRepo := repos.NewAdMetricsRepo(thePG, log)
	embeddingRepo := repos.NewAdEmbeddingRepo(thePG, log)
	suggestionRepo := repos.NewSuggestionRepo(thePG, log)
	scoreRunRepo := repos.NewScoreRunRepo(thePG, log)
	aiCallLogRepo := repos.NewAICallLogRepo(thePG, log)

	// AI client
	aiClient, err := openai.NewClient(log)
	if err != nil {
		log.Fatal("OpenAI client init failed", "error", err)
	}

	// Embedding cache: postgres always, redis in front when reachable.
	embeddingCache := services.NewDBEmbeddingCache(embeddingRepo, log, aiClient.EmbedModel())
	if redisClient, redisErr := redis.NewClient(log); redisErr != nil {
		log.Warn("Redis unavailable, embedding cache runs on postgres only", "error", redisErr)
	} else {
		embeddingCache = services.NewLayeredEmbeddingCache(redis.NewEmbeddingCache(redisClient, log), embeddingCache)
	}

	// Google Ads
	adsClient := googleads.NewRESTClient(log)
	executor := googleads.NewExecutor(adsClient, log, gaqlMaxRetries)

	// Services
	log.Info("Setting up Services from main...")
	authService := services.NewAuthService(log, jwtSecretKey)
	syncService := services.NewSyncService(thePG, log, executor, adRepo, metricsRepo, accountRepo, windowDays)
	optimizationService := services.NewOptimizationService(
		thePG, log, cfg, aiClient, embeddingCache,
		adRepo, metricsRepo, suggestionRepo, aiCallLogRepo, scoreRunRepo,
		maxConcurrency,
	)

	// Handlers
	log.Info("Setting up Handlers from main...")
	accountHandler := handlers.NewAccountHandler(log, accountRepo, syncService)
	adHandler := handlers.NewAdHandler(log, adRepo, scoreRunRepo, optimizationService)
	suggestionHandler := handlers.NewSuggestionHandler(log, suggestionRepo, optimizationService)

	// Router
	router := server.NewRouter(server.RouterConfig{
		Log:               log,
		AuthMiddleware:    middleware.NewAuthMiddleware(log, authService),
		AccountHandler:    accountHandler,
		AdHandler:         adHandler,
		SuggestionHandler: suggestionHandler,
	})

	port := envutil.Str("PORT", "8080")
	log.Info("Starting server", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Server exited", "error", err)
	}
}
