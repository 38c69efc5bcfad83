package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/beatforge-backend/internal/logger"
	"github.com/yungbote/beatforge-backend/internal/repos"
	"github.com/yungbote/beatforge-backend/internal/types"
)

// ScoringService combines seven independent factors, each normalized to
// 0-100, into one weighted relevance score. Scoring is deterministic: no
// randomness, and recency is measured in whole days.
type ScoringService interface {
	Score(ctx context.Context, beat *types.Beat, profile *types.UserBehaviorProfile, userID uuid.UUID) types.RecommendationScore
	ScoreAll(ctx context.Context, beats []*types.Beat, profile *types.UserBehaviorProfile, userID uuid.UUID) []types.RecommendationScore
}

type scoringService struct {
	log             *logger.Logger
	cfg             RankingConfig
	collaborative   CollaborativeService
	interactionRepo repos.InteractionRepo
	now             func() time.Time
}

func NewScoringService(log *logger.Logger, cfg RankingConfig, collaborative CollaborativeService, interactionRepo repos.InteractionRepo) ScoringService {
	serviceLog := log.With("service", "ScoringService")
	return &scoringService{
		log:             serviceLog,
		cfg:             cfg,
		collaborative:   collaborative,
		interactionRepo: interactionRepo,
		now:             time.Now,
	}
}

// collabContext resolves the top similar users and which beats they liked.
// Any failure degrades to "no similar users" rather than aborting scoring.
func (ss *scoringService) collabContext(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int, int) {
	similar, err := ss.collaborative.FindSimilarUsers(ctx, userID, ss.cfg.TopSimilarUsers)
	if err != nil {
		ss.log.Debug("Similar user lookup failed, scoring without collaborative factor", "user_id", userID, "error", err)
		return nil, 0
	}
	if len(similar) == 0 {
		return nil, 0
	}

	ids := make([]uuid.UUID, 0, len(similar))
	for _, su := range similar {
		ids = append(ids, su.UserID)
	}
	rows, err := ss.interactionRepo.LikesOfUsers(ctx, nil, ids)
	if err != nil {
		ss.log.Debug("Similar user likes lookup failed", "user_id", userID, "error", err)
		return nil, 0
	}

	likedBy := make(map[uuid.UUID]int)
	for _, row := range rows {
		likedBy[row.BeatID]++
	}
	return likedBy, len(similar)
}

func (ss *scoringService) Score(ctx context.Context, beat *types.Beat, profile *types.UserBehaviorProfile, userID uuid.UUID) types.RecommendationScore {
	likedBy, similarCount := ss.collabContext(ctx, userID)
	return ss.scoreOne(beat, profile, likedBy, similarCount)
}

func (ss *scoringService) ScoreAll(ctx context.Context, beats []*types.Beat, profile *types.UserBehaviorProfile, userID uuid.UUID) []types.RecommendationScore {
	likedBy, similarCount := ss.collabContext(ctx, userID)
	scores := make([]types.RecommendationScore, 0, len(beats))
	for _, beat := range beats {
		scores = append(scores, ss.scoreOne(beat, profile, likedBy, similarCount))
	}
	return scores
}

func (ss *scoringService) scoreOne(beat *types.Beat, profile *types.UserBehaviorProfile, likedBy map[uuid.UUID]int, similarCount int) types.RecommendationScore {
	factors := types.ScoreBreakdown{
		GenreMatch:             genreMatch(beat, profile),
		MoodMatch:              moodMatch(beat, profile),
		BPMMatch:               bpmMatch(beat, profile),
		PopularityBoost:        popularityBoost(beat),
		RecencyBoost:           recencyBoost(beat, ss.now()),
		CollaborativeFiltering: collaborativeFactor(beat, likedBy, similarCount),
		NoveltyScore:           noveltyScore(beat, profile),
	}

	w := ss.cfg.Weights
	total := factors.GenreMatch*w.Genre +
		factors.MoodMatch*w.Mood +
		factors.BPMMatch*w.BPM +
		factors.PopularityBoost*w.Popularity +
		factors.RecencyBoost*w.Recency +
		factors.CollaborativeFiltering*w.Collaborative +
		factors.NoveltyScore*w.Novelty

	return types.RecommendationScore{
		BeatID:  beat.ID,
		Total:   total,
		Factors: factors,
	}
}

// genreMatch scores the genre's share of the user's likes; unknown genres get
// a small baseline so exploration is never zeroed out.
func genreMatch(beat *types.Beat, profile *types.UserBehaviorProfile) float64 {
	if share, ok := profile.GenreShare(beat.Genre); ok {
		if share > 1 {
			share = 1
		}
		return share * 100
	}
	return 10
}

func moodMatch(beat *types.Beat, profile *types.UserBehaviorProfile) float64 {
	if share, ok := profile.MoodShare(beat.Mood); ok {
		if share > 1 {
			share = 1
		}
		return share * 100
	}
	return 10
}

// bpmMatch is 100 inside the preferred range, with a linear 1 point/BPM
// falloff outside, floored at 0. Beats with no BPM are neutral.
func bpmMatch(beat *types.Beat, profile *types.UserBehaviorProfile) float64 {
	if beat.BPM <= 0 {
		return 50
	}
	if beat.BPM >= profile.PreferredBPMMin && beat.BPM <= profile.PreferredBPMMax {
		return 100
	}
	var distance int
	if beat.BPM < profile.PreferredBPMMin {
		distance = profile.PreferredBPMMin - beat.BPM
	} else {
		distance = beat.BPM - profile.PreferredBPMMax
	}
	score := 100 - float64(distance)
	if score < 0 {
		return 0
	}
	return score
}

// popularityBoost is linear up to 1000 plays and 100 likes, 50 points each.
func popularityBoost(beat *types.Beat) float64 {
	plays := float64(beat.PlayCount) / 1000 * 50
	if plays > 50 {
		plays = 50
	}
	likes := float64(beat.LikeCount) / 100 * 50
	if likes > 50 {
		likes = 50
	}
	total := plays + likes
	if total > 100 {
		total = 100
	}
	return total
}

// recencyBoost decays 2 points per whole day since creation, reaching zero
// after roughly 50 days.
func recencyBoost(beat *types.Beat, now time.Time) float64 {
	days := int(now.Sub(beat.CreatedAt).Hours() / 24)
	if days < 0 {
		days = 0
	}
	score := 100 - float64(2*days)
	if score < 0 {
		return 0
	}
	return score
}

func collaborativeFactor(beat *types.Beat, likedBy map[uuid.UUID]int, similarCount int) float64 {
	if similarCount == 0 {
		return 0
	}
	return float64(likedBy[beat.ID]) / float64(similarCount) * 100
}

// noveltyScore rewards beats outside the user's established taste to counter
// over-narrow personalization.
func noveltyScore(beat *types.Beat, profile *types.UserBehaviorProfile) float64 {
	score := 0.0
	if !profile.HasGenre(beat.Genre) {
		score += 50
	}
	if !profile.HasMood(beat.Mood) {
		score += 50
	}
	return score
}
