package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/beatforge-backend/internal/cache"
	"github.com/yungbote/beatforge-backend/internal/logger"
	"github.com/yungbote/beatforge-backend/internal/repos"
	"github.com/yungbote/beatforge-backend/internal/types"
)

const (
	SuggestionCategoryGeneral = "general"

	defaultSuggestionLimit = 10
	maxSuggestionLimit     = 25
)

// SuggestionService serves the search box: typed-prefix suggestions from the
// recorded query log, multi-source autocomplete, and trending queries. The
// read operations degrade to empty sequences when the store is unreachable;
// an empty search box beats a broken one.
type SuggestionService interface {
	GetSuggestions(ctx context.Context, prefix string, limit int) []string
	GetAutocomplete(ctx context.Context, prefix string, limit int) *types.AutocompleteResult
	// RecordQuery bumps the popularity counter for a normalized query. Called
	// off the request path; errors are the caller's to log.
	RecordQuery(ctx context.Context, query string, resultCount int) error
	GetTrendingSearches(ctx context.Context, limit int) []string
}

type suggestionService struct {
	db             *gorm.DB
	log            *logger.Logger
	cfg            RankingConfig
	cacheStore     cache.Store
	suggestionRepo repos.SuggestionRepo
	beatRepo       repos.BeatRepo
	userRepo       repos.UserRepo
}

func NewSuggestionService(
	db *gorm.DB,
	log *logger.Logger,
	cfg RankingConfig,
	cacheStore cache.Store,
	suggestionRepo repos.SuggestionRepo,
	beatRepo repos.BeatRepo,
	userRepo repos.UserRepo,
) SuggestionService {
	serviceLog := log.With("service", "SuggestionService")
	return &suggestionService{
		db:             db,
		log:            serviceLog,
		cfg:            cfg,
		cacheStore:     cacheStore,
		suggestionRepo: suggestionRepo,
		beatRepo:       beatRepo,
		userRepo:       userRepo,
	}
}

func normalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

func clampSuggestionLimit(limit int) int {
	if limit <= 0 {
		return defaultSuggestionLimit
	}
	if limit > maxSuggestionLimit {
		return maxSuggestionLimit
	}
	return limit
}

func (ss *suggestionService) GetSuggestions(ctx context.Context, prefix string, limit int) []string {
	normalized := normalizeQuery(prefix)
	if normalized == "" {
		return []string{}
	}
	limit = clampSuggestionLimit(limit)

	key := suggestionsCacheKey(normalized, limit)
	if raw, ok, err := ss.cacheStore.Get(ctx, key); err == nil && ok {
		var cached []string
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			return cached
		}
	}

	rows, err := ss.suggestionRepo.Prefix(ctx, nil, normalized, limit)
	if err != nil {
		ss.log.Warn("Suggestion lookup failed, degrading to empty", "prefix", normalized, "error", err)
		return []string{}
	}
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Query)
	}

	ss.cacheStrings(ctx, key, out, ss.cfg.SuggestionTTL)
	return out
}

// GetAutocomplete fans out to the four suggestion sources concurrently; one
// slow source bounds latency instead of four in sequence.
func (ss *suggestionService) GetAutocomplete(ctx context.Context, prefix string, limit int) *types.AutocompleteResult {
	normalized := normalizeQuery(prefix)
	result := &types.AutocompleteResult{
		Beats:     []string{},
		Producers: []string{},
		Genres:    []string{},
		Tags:      []string{},
	}
	if normalized == "" {
		return result
	}
	limit = clampSuggestionLimit(limit)

	key := autocompleteCacheKey(normalized, []string{"beats", "producers", "genres", "tags"})
	if raw, ok, err := ss.cacheStore.Get(ctx, key); err == nil && ok {
		var cached types.AutocompleteResult
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			return &cached
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		titles, err := ss.beatRepo.TitlePrefix(gctx, nil, normalized, limit)
		if err != nil {
			return err
		}
		result.Beats = titles
		return nil
	})
	g.Go(func() error {
		producers, err := ss.userRepo.ProducerNamePrefix(gctx, nil, normalized, limit)
		if err != nil {
			return err
		}
		result.Producers = producers
		return nil
	})
	g.Go(func() error {
		genres, err := ss.beatRepo.GenrePrefix(gctx, nil, normalized, limit)
		if err != nil {
			return err
		}
		result.Genres = genres
		return nil
	})
	g.Go(func() error {
		tags, err := ss.beatRepo.TagPrefix(gctx, nil, normalized, limit)
		if err != nil {
			return err
		}
		result.Tags = tags
		return nil
	})
	if err := g.Wait(); err != nil {
		ss.log.Warn("Autocomplete lookup failed, degrading to empty", "prefix", normalized, "error", err)
		return &types.AutocompleteResult{
			Beats:     []string{},
			Producers: []string{},
			Genres:    []string{},
			Tags:      []string{},
		}
	}

	if raw, err := json.Marshal(result); err == nil {
		if err := ss.cacheStore.Set(ctx, key, string(raw), ss.cfg.SuggestionTTL); err != nil {
			ss.log.Debug("Autocomplete cache write failed", "error", err)
		}
	}
	return result
}

func (ss *suggestionService) RecordQuery(ctx context.Context, query string, resultCount int) error {
	normalized := normalizeQuery(query)
	if normalized == "" {
		return nil
	}
	return ss.suggestionRepo.Upsert(ctx, nil, normalized, SuggestionCategoryGeneral, resultCount)
}

func (ss *suggestionService) GetTrendingSearches(ctx context.Context, limit int) []string {
	limit = clampSuggestionLimit(limit)

	key := trendingSearchesCacheKey(limit)
	if raw, ok, err := ss.cacheStore.Get(ctx, key); err == nil && ok {
		var cached []string
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			return cached
		}
	}

	rows, err := ss.suggestionRepo.Trending(ctx, nil, limit)
	if err != nil {
		ss.log.Warn("Trending searches lookup failed, degrading to empty", "error", err)
		return []string{}
	}
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Query)
	}

	ss.cacheStrings(ctx, key, out, ss.cfg.SuggestionTTL)
	return out
}

func (ss *suggestionService) cacheStrings(ctx context.Context, key string, values []string, ttl time.Duration) {
	raw, err := json.Marshal(values)
	if err != nil {
		return
	}
	if err := ss.cacheStore.Set(ctx, key, string(raw), ttl); err != nil {
		ss.log.Debug("Suggestion cache write failed", "key", key, "error", err)
	}
}
