package services

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/yungbote/beatforge-backend/internal/cache"
	"github.com/yungbote/beatforge-backend/internal/logger"
	"github.com/yungbote/beatforge-backend/internal/observability"
	"github.com/yungbote/beatforge-backend/internal/repos"
	"github.com/yungbote/beatforge-backend/internal/types"
)

// RecommendationService is the orchestrator over the profiler, scorer and
// collaborative filter. Its read operations never fail a page render: any
// internal error degrades to a popularity-ordered fallback or an empty list.
type RecommendationService interface {
	GetPersonalizedRecommendations(ctx context.Context, userID uuid.UUID, limit int, excludeIDs []uuid.UUID) []*types.Beat
	GetTrendingBeats(ctx context.Context, limit int) []*types.Beat
	FindSimilarBeats(ctx context.Context, beatID uuid.UUID, limit int) []*types.Beat
	TrackUserInteraction(ctx context.Context, userID, beatID uuid.UUID, action string, duration *int) error
}

type recommendationService struct {
	db              *gorm.DB
	log             *logger.Logger
	cfg             RankingConfig
	cacheStore      cache.Store
	beatRepo        repos.BeatRepo
	interactionRepo repos.InteractionRepo
	profiles        ProfileService
	scoring         ScoringService
	analytics       AnalyticsService
	now             func() time.Time
}

func NewRecommendationService(
	db *gorm.DB,
	log *logger.Logger,
	cfg RankingConfig,
	cacheStore cache.Store,
	beatRepo repos.BeatRepo,
	interactionRepo repos.InteractionRepo,
	profiles ProfileService,
	scoring ScoringService,
	analytics AnalyticsService,
) RecommendationService {
	serviceLog := log.With("service", "RecommendationService")
	return &recommendationService{
		db:              db,
		log:             serviceLog,
		cfg:             cfg,
		cacheStore:      cacheStore,
		beatRepo:        beatRepo,
		interactionRepo: interactionRepo,
		profiles:        profiles,
		scoring:         scoring,
		analytics:       analytics,
		now:             time.Now,
	}
}

func (rs *recommendationService) GetPersonalizedRecommendations(ctx context.Context, userID uuid.UUID, limit int, excludeIDs []uuid.UUID) []*types.Beat {
	ctx, span := observability.Tracer().Start(ctx, "recommendation.personalized")
	defer span.End()
	span.SetAttributes(attribute.Int("limit", limit))

	if limit <= 0 {
		return []*types.Beat{}
	}

	key := recommendationsCacheKey(userID, limit)
	if beats, ok := rs.cachedBeats(ctx, key); ok {
		return beats
	}

	beats, err := rs.computePersonalized(ctx, userID, limit, excludeIDs)
	if err != nil {
		rs.log.Warn("Personalized recommendation pipeline failed, falling back to popularity", "user_id", userID, "error", err)
		return rs.popularityFallback(ctx, limit, excludeIDs)
	}

	rs.cacheBeatIDs(ctx, key, beats, rs.cfg.RecommendationTTL)
	return beats
}

func (rs *recommendationService) computePersonalized(ctx context.Context, userID uuid.UUID, limit int, excludeIDs []uuid.UUID) ([]*types.Beat, error) {
	profile := rs.profiles.GetProfile(ctx, userID)

	likedIDs, err := rs.interactionRepo.LikedBeatIDs(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	exclude := make([]uuid.UUID, 0, len(likedIDs)+len(excludeIDs))
	exclude = append(exclude, likedIDs...)
	exclude = append(exclude, excludeIDs...)

	candidates, err := rs.beatRepo.GetActiveCandidates(ctx, nil, exclude, rs.cfg.CandidatePoolSize)
	if err != nil {
		return nil, err
	}

	scores := rs.scoring.ScoreAll(ctx, candidates, profile, userID)

	// Stable sort keeps the candidate retrieval order on equal scores, so the
	// result is reproducible for a fixed cache state.
	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return scores[order[i]].Total > scores[order[j]].Total
	})

	if limit > len(order) {
		limit = len(order)
	}
	out := make([]*types.Beat, 0, limit)
	for _, idx := range order[:limit] {
		out = append(out, candidates[idx])
	}
	return out, nil
}

func (rs *recommendationService) GetTrendingBeats(ctx context.Context, limit int) []*types.Beat {
	ctx, span := observability.Tracer().Start(ctx, "recommendation.trending")
	defer span.End()

	if limit <= 0 {
		return []*types.Beat{}
	}

	key := trendingCacheKey(limit)
	if beats, ok := rs.cachedBeats(ctx, key); ok {
		return beats
	}

	beats, err := rs.computeTrending(ctx, limit)
	if err != nil {
		rs.log.Warn("Trending computation failed, falling back to popularity", "error", err)
		return rs.popularityFallback(ctx, limit, nil)
	}
	if len(beats) == 0 {
		return rs.popularityFallback(ctx, limit, nil)
	}

	rs.cacheBeatIDs(ctx, key, beats, rs.cfg.TrendingTTL)
	return beats
}

// computeTrending blends a 7-day momentum window with lifetime popularity:
// 2*(window likes) + (window plays) + 0.1*(lifetime plays). A single day's
// spike cannot fully dominate an established hit.
func (rs *recommendationService) computeTrending(ctx context.Context, limit int) ([]*types.Beat, error) {
	since := rs.now().Add(-rs.cfg.TrendingWindow)
	rows, err := rs.interactionRepo.WindowCounts(ctx, nil, since)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []*types.Beat{}, nil
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.BeatID)
	}
	beats, err := rs.beatRepo.GetByIDs(ctx, nil, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*types.Beat, len(beats))
	for _, beat := range beats {
		byID[beat.ID] = beat
	}

	type scored struct {
		beat  *types.Beat
		score float64
	}
	ranked := make([]scored, 0, len(rows))
	for _, row := range rows {
		beat, ok := byID[row.BeatID]
		if !ok || !beat.IsActive {
			continue
		}
		score := 2*float64(row.Likes) + float64(row.Plays) + 0.1*float64(beat.PlayCount)
		ranked = append(ranked, scored{beat: beat, score: score})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if limit > len(ranked) {
		limit = len(ranked)
	}
	out := make([]*types.Beat, 0, limit)
	for _, entry := range ranked[:limit] {
		out = append(out, entry.beat)
	}
	return out, nil
}

func (rs *recommendationService) FindSimilarBeats(ctx context.Context, beatID uuid.UUID, limit int) []*types.Beat {
	ctx, span := observability.Tracer().Start(ctx, "recommendation.similar_beats")
	defer span.End()

	if limit <= 0 {
		return []*types.Beat{}
	}

	key := similarBeatsCacheKey(beatID, limit)
	if beats, ok := rs.cachedBeats(ctx, key); ok {
		return beats
	}

	sources, err := rs.beatRepo.GetByIDs(ctx, nil, []uuid.UUID{beatID})
	if err != nil || len(sources) == 0 {
		if err != nil {
			rs.log.Warn("Similar beats source lookup failed", "beat_id", beatID, "error", err)
		}
		return []*types.Beat{}
	}
	source := sources[0]

	candidates, err := rs.beatRepo.GetActiveCandidates(ctx, nil, []uuid.UUID{beatID}, rs.cfg.CandidatePoolSize)
	if err != nil {
		rs.log.Warn("Similar beats candidate lookup failed", "beat_id", beatID, "error", err)
		return []*types.Beat{}
	}

	type scored struct {
		beat  *types.Beat
		score float64
	}
	ranked := make([]scored, 0, len(candidates))
	for _, candidate := range candidates {
		ranked = append(ranked, scored{beat: candidate, score: contentSimilarity(source, candidate)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if limit > len(ranked) {
		limit = len(ranked)
	}
	out := make([]*types.Beat, 0, limit)
	for _, entry := range ranked[:limit] {
		out = append(out, entry.beat)
	}

	rs.cacheBeatIDs(ctx, key, out, rs.cfg.SimilarBeatsTTL)
	return out
}

// contentSimilarity is a coarse, explainable content metric: exact attribute
// matches plus BPM and price proximity. Not statistically learned.
func contentSimilarity(a, b *types.Beat) float64 {
	score := 0.0
	if a.Genre != "" && a.Genre == b.Genre {
		score += 40
	}
	if a.Mood != "" && a.Mood == b.Mood {
		score += 30
	}
	if a.Key != "" && a.Key == b.Key {
		score += 20
	}
	score += 0.1 * (100 - math.Abs(float64(a.BPM-b.BPM)))
	score += 0.05 * (100 - math.Abs(a.Price-b.Price))
	return score
}

func (rs *recommendationService) TrackUserInteraction(ctx context.Context, userID, beatID uuid.UUID, action string, duration *int) error {
	if !types.ValidAction(action) {
		return errInvalidAction(action)
	}
	if userID == uuid.Nil || beatID == uuid.Nil {
		return errInvalidInteraction()
	}

	interaction := &types.UserInteraction{
		ID:        uuid.New(),
		UserID:    userID,
		BeatID:    beatID,
		Action:    action,
		Duration:  duration,
		CreatedAt: rs.now().UTC(),
	}
	if err := rs.interactionRepo.Create(ctx, nil, interaction); err != nil {
		// Fire-and-forget write: a lost interaction costs a little signal,
		// never a failed response. Caches stay as they were since nothing
		// changed.
		rs.log.Warn("Interaction write failed", "user_id", userID, "beat_id", beatID, "action", action, "error", err)
		return nil
	}

	// Behavior changed, so the cached taste summary and recommendation lists
	// for this user are stale.
	rs.profiles.Invalidate(ctx, userID)
	if err := rs.cacheStore.DeleteByPattern(ctx, recommendationsCachePattern(userID)); err != nil {
		rs.log.Debug("Recommendation cache invalidation failed", "user_id", userID, "error", err)
	}
	if action == types.ActionLike {
		if err := rs.cacheStore.Delete(ctx, similarUsersCacheKey(userID)); err != nil {
			rs.log.Debug("Similar users cache invalidation failed", "user_id", userID, "error", err)
		}
	}

	rs.analytics.Track(types.AnalyticsEvent{
		UserID:    &userID,
		EventType: "interaction_" + action,
		Payload:   interactionPayload(beatID, duration),
	})
	return nil
}

func (rs *recommendationService) popularityFallback(ctx context.Context, limit int, excludeIDs []uuid.UUID) []*types.Beat {
	beats, err := rs.beatRepo.PopularityOrdered(ctx, nil, excludeIDs, limit)
	if err != nil {
		rs.log.Error("Popularity fallback failed", "error", err)
		return []*types.Beat{}
	}
	return beats
}

func (rs *recommendationService) cachedBeats(ctx context.Context, key string) ([]*types.Beat, bool) {
	raw, ok, err := rs.cacheStore.Get(ctx, key)
	if err != nil || !ok {
		return nil, false
	}
	var ids []uuid.UUID
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, false
	}
	beats, err := rs.beatRepo.GetByIDs(ctx, nil, ids)
	if err != nil {
		return nil, false
	}
	byID := make(map[uuid.UUID]*types.Beat, len(beats))
	for _, beat := range beats {
		byID[beat.ID] = beat
	}
	out := make([]*types.Beat, 0, len(ids))
	for _, id := range ids {
		if beat, ok := byID[id]; ok {
			out = append(out, beat)
		}
	}
	return out, true
}

func (rs *recommendationService) cacheBeatIDs(ctx context.Context, key string, beats []*types.Beat, ttl time.Duration) {
	ids := make([]uuid.UUID, 0, len(beats))
	for _, beat := range beats {
		ids = append(ids, beat.ID)
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return
	}
	if err := rs.cacheStore.Set(ctx, key, string(raw), ttl); err != nil {
		rs.log.Debug("Recommendation cache write failed", "key", key, "error", err)
	}
}
