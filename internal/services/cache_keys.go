package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Cache key builders. Versioned so a format change invalidates old entries
// instead of mis-decoding them.

func profileCacheKey(userID uuid.UUID) string {
	return "profile:v1:" + userID.String()
}

func similarUsersCacheKey(userID uuid.UUID) string {
	return "simusers:v1:" + userID.String()
}

func recommendationsCacheKey(userID uuid.UUID, limit int) string {
	return fmt.Sprintf("recs:v1:%s:%d", userID, limit)
}

func recommendationsCachePattern(userID uuid.UUID) string {
	return "recs:v1:" + userID.String() + ":*"
}

func trendingCacheKey(limit int) string {
	return fmt.Sprintf("trending:v1:%d", limit)
}

func similarBeatsCacheKey(beatID uuid.UUID, limit int) string {
	return fmt.Sprintf("simbeats:v1:%s:%d", beatID, limit)
}

func searchCacheKey(filterHash string) string {
	return "search:v1:" + filterHash
}

func suggestionsCacheKey(normalized string, limit int) string {
	return fmt.Sprintf("suggest:v1:%s:%d", normalized, limit)
}

func autocompleteCacheKey(normalized string, categories []string) string {
	return "autocomplete:v1:" + normalized + ":" + strings.Join(categories, ",")
}

func trendingSearchesCacheKey(limit int) string {
	return fmt.Sprintf("trendsearch:v1:%d", limit)
}
