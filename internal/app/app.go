package app

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/beatforge-backend/internal/cache"
	"github.com/yungbote/beatforge-backend/internal/db"
	"github.com/yungbote/beatforge-backend/internal/handlers"
	"github.com/yungbote/beatforge-backend/internal/logger"
	"github.com/yungbote/beatforge-backend/internal/middleware"
	"github.com/yungbote/beatforge-backend/internal/observability"
	"github.com/yungbote/beatforge-backend/internal/repos"
	"github.com/yungbote/beatforge-backend/internal/server"
	"github.com/yungbote/beatforge-backend/internal/services"
)

const serviceName = "beatforge"

type Repos struct {
	User        repos.UserRepo
	Beat        repos.BeatRepo
	Interaction repos.InteractionRepo
	Suggestion  repos.SuggestionRepo
	Analytics   repos.AnalyticsRepo
}

type Services struct {
	Auth           services.AuthService
	Analytics      services.AnalyticsService
	Profile        services.ProfileService
	Collaborative  services.CollaborativeService
	Scoring        services.ScoringService
	Recommendation services.RecommendationService
	Search         services.SearchService
	Suggestion     services.SuggestionService
}

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cache    cache.Store
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Services Services

	otelShutdown func(context.Context) error
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: serviceName,
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	cacheStore := buildCacheStore(cfg, log)

	rankingCfg, err := services.LoadRankingConfig(cfg.RankingConfigPath, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("load ranking config: %w", err)
	}

	reposet := wireRepos(theDB, log)
	serviceset := wireServices(theDB, log, cfg, rankingCfg, cacheStore, reposet)
	router := wireRouter(log, reposet, serviceset)

	return &App{
		Log:          log,
		DB:           theDB,
		Cache:        cacheStore,
		Router:       router,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		otelShutdown: otelShutdown,
	}, nil
}

// buildCacheStore prefers Redis and degrades to the no-op store, which turns
// every lookup into a miss. The service stays correct without a cache, just
// slower.
func buildCacheStore(cfg Config, log *logger.Logger) cache.Store {
	if cfg.CacheBackend == "none" {
		log.Info("Cache disabled by configuration")
		return cache.NewNoopStore()
	}
	store, err := cache.NewRedisStore(log)
	if err != nil {
		log.Warn("Redis init failed, running without cache", "error", err)
		return cache.NewNoopStore()
	}
	return store
}

func wireRepos(theDB *gorm.DB, log *logger.Logger) Repos {
	return Repos{
		User:        repos.NewUserRepo(theDB, log),
		Beat:        repos.NewBeatRepo(theDB, log),
		Interaction: repos.NewInteractionRepo(theDB, log),
		Suggestion:  repos.NewSuggestionRepo(theDB, log),
		Analytics:   repos.NewAnalyticsRepo(theDB, log),
	}
}

func wireServices(theDB *gorm.DB, log *logger.Logger, cfg Config, rankingCfg services.RankingConfig, cacheStore cache.Store, r Repos) Services {
	auth := services.NewAuthService(theDB, log, r.User, cfg.JWTSecretKey, cfg.AccessTokenTTL)
	analytics := services.NewAnalyticsService(theDB, log, r.Analytics)
	profile := services.NewProfileService(theDB, log, rankingCfg, cacheStore, r.Interaction, r.Beat)
	collaborative := services.NewCollaborativeService(theDB, log, rankingCfg, cacheStore, r.Interaction)
	scoring := services.NewScoringService(log, rankingCfg, collaborative, r.Interaction)
	recommendation := services.NewRecommendationService(theDB, log, rankingCfg, cacheStore, r.Beat, r.Interaction, profile, scoring, analytics)
	suggestion := services.NewSuggestionService(theDB, log, rankingCfg, cacheStore, r.Suggestion, r.Beat, r.User)
	search := services.NewSearchService(theDB, log, rankingCfg, cacheStore, r.Beat, suggestion, analytics)
	return Services{
		Auth:           auth,
		Analytics:      analytics,
		Profile:        profile,
		Collaborative:  collaborative,
		Scoring:        scoring,
		Recommendation: recommendation,
		Search:         search,
		Suggestion:     suggestion,
	}
}

func wireRouter(log *logger.Logger, r Repos, s Services) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		ServiceName:           serviceName,
		AuthHandler:           handlers.NewAuthHandler(s.Auth),
		AuthMiddleware:        middleware.NewAuthMiddleware(log, s.Auth),
		SearchHandler:         handlers.NewSearchHandler(s.Search, s.Suggestion),
		RecommendationHandler: handlers.NewRecommendationHandler(s.Recommendation),
		BeatHandler:           handlers.NewBeatHandler(r.Beat),
	})
}

func (a *App) Run() error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Router.Run(":" + a.Cfg.Port)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(context.Background()); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		a.otelShutdown = nil
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
