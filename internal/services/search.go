package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/beatforge-backend/internal/cache"
	"github.com/yungbote/beatforge-backend/internal/logger"
	"github.com/yungbote/beatforge-backend/internal/observability"
	"github.com/yungbote/beatforge-backend/internal/repos"
	"github.com/yungbote/beatforge-backend/internal/types"
)

// Below this many hits the response carries "did you mean" style suggestions
// from the recorded query log.
const sparseResultThreshold = 5

// SearchService executes filtered, faceted, paginated beat search. Identical
// filter sets share one cached result; every search feeds the suggestion
// index and the analytics log off the request path. A store failure degrades
// to an empty result rather than failing the page.
type SearchService interface {
	Search(ctx context.Context, userID *uuid.UUID, filters types.SearchFilters) *types.SearchResult
}

type searchService struct {
	db          *gorm.DB
	log         *logger.Logger
	cfg         RankingConfig
	cacheStore  cache.Store
	beatRepo    repos.BeatRepo
	suggestions SuggestionService
	analytics   AnalyticsService
	now         func() time.Time
}

func NewSearchService(
	db *gorm.DB,
	log *logger.Logger,
	cfg RankingConfig,
	cacheStore cache.Store,
	beatRepo repos.BeatRepo,
	suggestions SuggestionService,
	analytics AnalyticsService,
) SearchService {
	serviceLog := log.With("service", "SearchService")
	return &searchService{
		db:          db,
		log:         serviceLog,
		cfg:         cfg,
		cacheStore:  cacheStore,
		beatRepo:    beatRepo,
		suggestions: suggestions,
		analytics:   analytics,
		now:         time.Now,
	}
}

func (ss *searchService) normalize(filters types.SearchFilters) types.SearchFilters {
	filters.Query = strings.TrimSpace(filters.Query)
	if filters.Sort == "" {
		filters.Sort = types.SortRelevance
	}
	if filters.Limit <= 0 {
		filters.Limit = ss.cfg.DefaultSearchLimit
	}
	if filters.Limit > ss.cfg.MaxSearchLimit {
		filters.Limit = ss.cfg.MaxSearchLimit
	}
	if filters.Offset < 0 {
		filters.Offset = 0
	}
	return filters
}

func (ss *searchService) Search(ctx context.Context, userID *uuid.UUID, filters types.SearchFilters) *types.SearchResult {
	ctx, span := observability.Tracer().Start(ctx, "search.beats")
	defer span.End()

	filters = ss.normalize(filters)
	span.SetAttributes(
		attribute.String("search.query", filters.Query),
		attribute.Int("search.limit", filters.Limit),
		attribute.Int("search.offset", filters.Offset),
	)
	started := ss.now()

	key := searchCacheKey(filters.CacheKey())
	if raw, ok, err := ss.cacheStore.Get(ctx, key); err == nil && ok {
		var cached types.SearchResult
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			ss.recordSearch(userID, filters, cached.TotalCount)
			return &cached
		}
	}

	result := &types.SearchResult{
		Beats:       []*types.Beat{},
		Suggestions: []string{},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		beats, total, err := ss.beatRepo.Search(gctx, nil, filters)
		if err != nil {
			return err
		}
		if beats != nil {
			result.Beats = beats
		}
		result.TotalCount = total
		return nil
	})
	g.Go(func() error {
		facets, err := ss.beatRepo.FacetCounts(gctx, nil, filters)
		if err != nil {
			return err
		}
		result.Facets = facets
		return nil
	})
	if err := g.Wait(); err != nil {
		ss.log.Warn("Search query failed, degrading to empty result", "query", filters.Query, "error", err)
		return ss.emptyResult(started)
	}

	if result.TotalCount < sparseResultThreshold && filters.Query != "" {
		result.Suggestions = ss.suggestions.GetSuggestions(ctx, filters.Query, ss.cfg.DefaultSearchLimit)
	}

	result.TookMS = ss.now().Sub(started).Milliseconds()
	span.SetAttributes(attribute.Int64("search.total", result.TotalCount))

	if raw, err := json.Marshal(result); err == nil {
		if err := ss.cacheStore.Set(ctx, key, string(raw), ss.cfg.SearchTTL); err != nil {
			ss.log.Debug("Search cache write failed", "error", err)
		}
	}

	ss.recordSearch(userID, filters, result.TotalCount)
	return result
}

// emptyResult is the degraded shape served when the store is unreachable.
// Nothing is cached or recorded: the outage should not pollute the suggestion
// index, and the next request should retry the store.
func (ss *searchService) emptyResult(started time.Time) *types.SearchResult {
	return &types.SearchResult{
		Beats: []*types.Beat{},
		Facets: types.SearchFacets{
			Genres:       map[string]int64{},
			Moods:        map[string]int64{},
			Keys:         map[string]int64{},
			BPMBuckets:   map[string]int64{},
			PriceBuckets: map[string]int64{},
		},
		Suggestions: []string{},
		TookMS:      ss.now().Sub(started).Milliseconds(),
	}
}

// recordSearch feeds the suggestion index and the analytics log without
// blocking the response.
func (ss *searchService) recordSearch(userID *uuid.UUID, filters types.SearchFilters, total int64) {
	if filters.Query != "" {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := ss.suggestions.RecordQuery(ctx, filters.Query, int(total)); err != nil {
				ss.log.Warn("Search query record failed", "query", filters.Query, "error", err)
			}
		}()
	}

	payload, err := json.Marshal(map[string]any{
		"query":  filters.Query,
		"genre":  filters.Genre,
		"mood":   filters.Mood,
		"sort":   filters.Sort,
		"total":  total,
		"offset": filters.Offset,
	})
	if err != nil {
		return
	}
	ss.analytics.Track(types.AnalyticsEvent{
		UserID:    userID,
		EventType: "search",
		Payload:   datatypes.JSON(payload),
	})
}
