package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/beatforge-backend/internal/cache"
	"github.com/yungbote/beatforge-backend/internal/logger"
	"github.com/yungbote/beatforge-backend/internal/repos"
	"github.com/yungbote/beatforge-backend/internal/types"
)

// CollaborativeService finds users with overlapping taste. A user with zero
// likes yields an empty sequence, and a user is never similar to itself.
type CollaborativeService interface {
	FindSimilarUsers(ctx context.Context, userID uuid.UUID, limit int) ([]types.SimilarUser, error)
}

type collaborativeService struct {
	db              *gorm.DB
	log             *logger.Logger
	cfg             RankingConfig
	cacheStore      cache.Store
	interactionRepo repos.InteractionRepo
}

func NewCollaborativeService(db *gorm.DB, log *logger.Logger, cfg RankingConfig, cacheStore cache.Store, interactionRepo repos.InteractionRepo) CollaborativeService {
	serviceLog := log.With("service", "CollaborativeService")
	return &collaborativeService{
		db:              db,
		log:             serviceLog,
		cfg:             cfg,
		cacheStore:      cacheStore,
		interactionRepo: interactionRepo,
	}
}

func (cs *collaborativeService) FindSimilarUsers(ctx context.Context, userID uuid.UUID, limit int) ([]types.SimilarUser, error) {
	if limit <= 0 {
		return []types.SimilarUser{}, nil
	}

	key := similarUsersCacheKey(userID)
	if raw, ok, err := cs.cacheStore.Get(ctx, key); err == nil && ok {
		var cached []types.SimilarUser
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			if len(cached) > limit {
				cached = cached[:limit]
			}
			return cached, nil
		}
	}

	likedIDs, err := cs.interactionRepo.LikedBeatIDs(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	if len(likedIDs) == 0 {
		return []types.SimilarUser{}, nil
	}

	rows, err := cs.interactionRepo.CoLikeCounts(ctx, nil, likedIDs, userID, cs.cfg.SimilarUserMinOverlap)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []types.SimilarUser{}, nil
	}

	otherIDs := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		otherIDs = append(otherIDs, row.UserID)
	}
	totals, err := cs.interactionRepo.DistinctLikeCounts(ctx, nil, otherIDs)
	if err != nil {
		return nil, err
	}

	similar := make([]types.SimilarUser, 0, len(rows))
	for _, row := range rows {
		similar = append(similar, types.SimilarUser{
			UserID:       row.UserID,
			Similarity:   cs.similarityOf(row.CoLikes, len(likedIDs), totals[row.UserID]),
			CoLikedCount: row.CoLikes,
		})
	}
	// rows arrive ordered by raw co-like count descending; keep that order.
	// The full ranked list is cached and sliced per caller, so one entry
	// serves every limit for the TTL.
	if raw, err := json.Marshal(similar); err == nil {
		if err := cs.cacheStore.Set(ctx, key, string(raw), cs.cfg.SimilarUsersTTL); err != nil {
			cs.log.Debug("Similar users cache write failed", "user_id", userID, "error", err)
		}
	}
	if len(similar) > limit {
		similar = similar[:limit]
	}
	return similar, nil
}

// similarityOf is Jaccard over the two users' like sets:
// coLikes / |A ∪ B| = coLikes / (|A| + |B| - coLikes). Symmetric and always
// in [0,1].
func (cs *collaborativeService) similarityOf(coLikes, myLikes, theirLikes int) float64 {
	union := myLikes + theirLikes - coLikes
	if union <= 0 {
		return 0
	}
	sim := float64(coLikes) / float64(union)
	if sim > 1 {
		sim = 1
	}
	return sim
}
