package app

import (
	"time"

	"github.com/yungbote/beatforge-backend/internal/logger"
	"github.com/yungbote/beatforge-backend/internal/utils"
)

type Config struct {
	Port              string
	JWTSecretKey      string
	AccessTokenTTL    time.Duration
	CacheBackend      string
	RankingConfigPath string
	Environment       string
	Version           string
}

func LoadConfig(log *logger.Logger) Config {
	port := utils.GetEnv("PORT", "8080", log)
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTLSeconds := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	cacheBackend := utils.GetEnv("CACHE_BACKEND", "redis", log)
	rankingConfigPath := utils.GetEnv("RANKING_CONFIG_PATH", "", log)
	environment := utils.GetEnv("ENVIRONMENT", "development", log)
	version := utils.GetEnv("SERVICE_VERSION", "dev", log)
	return Config{
		Port:              port,
		JWTSecretKey:      jwtSecretKey,
		AccessTokenTTL:    time.Duration(accessTokenTTLSeconds) * time.Second,
		CacheBackend:      cacheBackend,
		RankingConfigPath: rankingConfigPath,
		Environment:       environment,
		Version:           version,
	}
}
