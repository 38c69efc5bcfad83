package services

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/beatforge-backend/internal/cache"
	"github.com/yungbote/beatforge-backend/internal/logger"
	"github.com/yungbote/beatforge-backend/internal/repos"
	"github.com/yungbote/beatforge-backend/internal/types"
)

// ProfileService builds a statistical summary of a user's taste from the
// interaction log. GetProfile never fails: any data-access problem degrades to
// the default empty profile, since profiles only feed ranking.
type ProfileService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) *types.UserBehaviorProfile
	Invalidate(ctx context.Context, userID uuid.UUID)
}

type profileService struct {
	db              *gorm.DB
	log             *logger.Logger
	cfg             RankingConfig
	cacheStore      cache.Store
	interactionRepo repos.InteractionRepo
	beatRepo        repos.BeatRepo
}

func NewProfileService(db *gorm.DB, log *logger.Logger, cfg RankingConfig, cacheStore cache.Store, interactionRepo repos.InteractionRepo, beatRepo repos.BeatRepo) ProfileService {
	serviceLog := log.With("service", "ProfileService")
	return &profileService{
		db:              db,
		log:             serviceLog,
		cfg:             cfg,
		cacheStore:      cacheStore,
		interactionRepo: interactionRepo,
		beatRepo:        beatRepo,
	}
}

func (ps *profileService) defaultProfile(userID uuid.UUID) *types.UserBehaviorProfile {
	return &types.UserBehaviorProfile{
		UserID:            userID,
		TopGenres:         []types.GenreAffinity{},
		TopMoods:          []types.MoodAffinity{},
		PreferredBPMMin:   ps.cfg.DefaultBPMMin,
		PreferredBPMMax:   ps.cfg.DefaultBPMMax,
		AvgSessionSeconds: ps.cfg.DefaultSessionSeconds,
	}
}

func (ps *profileService) GetProfile(ctx context.Context, userID uuid.UUID) *types.UserBehaviorProfile {
	key := profileCacheKey(userID)
	if raw, ok, err := ps.cacheStore.Get(ctx, key); err == nil && ok {
		var cached types.UserBehaviorProfile
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			return &cached
		}
	}

	profile, err := ps.compute(ctx, userID)
	if err != nil {
		ps.log.Warn("Profile computation failed, using default", "user_id", userID, "error", err)
		return ps.defaultProfile(userID)
	}

	if raw, err := json.Marshal(profile); err == nil {
		if err := ps.cacheStore.Set(ctx, key, string(raw), ps.cfg.ProfileTTL); err != nil {
			ps.log.Debug("Profile cache write failed", "user_id", userID, "error", err)
		}
	}
	return profile
}

func (ps *profileService) compute(ctx context.Context, userID uuid.UUID) (*types.UserBehaviorProfile, error) {
	profile := ps.defaultProfile(userID)

	counts, err := ps.interactionRepo.CountsByAction(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	profile.TotalPlays = counts[types.ActionPlay]
	profile.TotalLikes = counts[types.ActionLike]
	profile.TotalPurchases = counts[types.ActionPurchase]
	profile.TotalSkips = counts[types.ActionSkip]

	likedIDs, err := ps.interactionRepo.LikedBeatIDs(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	likedBeats, err := ps.beatRepo.GetByIDs(ctx, nil, likedIDs)
	if err != nil {
		return nil, err
	}

	totalLiked := len(likedBeats)
	genreCounts := map[string]int{}
	moodCounts := map[string]int{}
	bpmMin, bpmMax := 0, 0
	for _, beat := range likedBeats {
		if beat.Genre != "" {
			genreCounts[beat.Genre]++
		}
		if beat.Mood != "" {
			moodCounts[beat.Mood]++
		}
		if beat.BPM > 0 {
			if bpmMin == 0 || beat.BPM < bpmMin {
				bpmMin = beat.BPM
			}
			if beat.BPM > bpmMax {
				bpmMax = beat.BPM
			}
		}
	}

	profile.TopGenres = topGenres(genreCounts, totalLiked, ps.cfg.TopAffinities)
	profile.TopMoods = topMoods(moodCounts, totalLiked, ps.cfg.TopAffinities)
	if bpmMin > 0 && bpmMax > 0 {
		profile.PreferredBPMMin = bpmMin
		profile.PreferredBPMMax = bpmMax
	}

	avg, err := ps.interactionRepo.AvgPlaySeconds(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	if avg > 0 {
		profile.AvgSessionSeconds = avg
	}

	lastActive, err := ps.interactionRepo.LastActiveAt(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	profile.LastActiveAt = lastActive

	return profile, nil
}

// Invalidate drops the cached profile after a new interaction so the next
// read recomputes. A stale read during the recompute window is acceptable.
func (ps *profileService) Invalidate(ctx context.Context, userID uuid.UUID) {
	if err := ps.cacheStore.Delete(ctx, profileCacheKey(userID)); err != nil {
		ps.log.Debug("Profile cache invalidation failed", "user_id", userID, "error", err)
	}
}

func topGenres(counts map[string]int, totalLiked, keep int) []types.GenreAffinity {
	ranked := make([]types.GenreAffinity, 0, len(counts))
	for genre, count := range counts {
		share := 0.0
		if totalLiked > 0 {
			share = float64(count) / float64(totalLiked)
		}
		ranked = append(ranked, types.GenreAffinity{Genre: genre, Count: count, Share: share})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Genre < ranked[j].Genre
	})
	if len(ranked) > keep {
		ranked = ranked[:keep]
	}
	return ranked
}

func topMoods(counts map[string]int, totalLiked, keep int) []types.MoodAffinity {
	ranked := make([]types.MoodAffinity, 0, len(counts))
	for mood, count := range counts {
		share := 0.0
		if totalLiked > 0 {
			share = float64(count) / float64(totalLiked)
		}
		ranked = append(ranked, types.MoodAffinity{Mood: mood, Count: count, Share: share})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Mood < ranked[j].Mood
	})
	if len(ranked) > keep {
		ranked = ranked[:keep]
	}
	return ranked
}
