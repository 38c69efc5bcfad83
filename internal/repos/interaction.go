package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/beatforge-backend/internal/logger"
	"github.com/yungbote/beatforge-backend/internal/types"
)

// CoLikeRow is one other user sharing liked beats with the requesting user.
type CoLikeRow struct {
	UserID  uuid.UUID
	CoLikes int
}

// UserLikeRow is one (user, beat) like pair.
type UserLikeRow struct {
	UserID uuid.UUID
	BeatID uuid.UUID
}

// BeatWindowRow holds like/play counts for one beat inside a trailing window.
type BeatWindowRow struct {
	BeatID uuid.UUID
	Likes  int
	Plays  int
}

type InteractionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, interaction *types.UserInteraction) error
	CountsByAction(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (map[string]int, error)
	LikedBeatIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error)
	// AvgPlaySeconds averages the measured durations of play interactions;
	// returns 0 when nothing was measured.
	AvgPlaySeconds(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (float64, error)
	LastActiveAt(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*time.Time, error)
	// CoLikeCounts finds every other user who liked at least minOverlap of the
	// given beats, with their overlap count, largest overlap first.
	CoLikeCounts(ctx context.Context, tx *gorm.DB, beatIDs []uuid.UUID, excludeUserID uuid.UUID, minOverlap int) ([]CoLikeRow, error)
	DistinctLikeCounts(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) (map[uuid.UUID]int, error)
	LikesOfUsers(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]UserLikeRow, error)
	WindowCounts(ctx context.Context, tx *gorm.DB, since time.Time) ([]BeatWindowRow, error)
}

type interactionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewInteractionRepo(db *gorm.DB, baseLog *logger.Logger) InteractionRepo {
	repoLog := baseLog.With("repo", "InteractionRepo")
	return &interactionRepo{db: db, log: repoLog}
}

func (ir *interactionRepo) Create(ctx context.Context, tx *gorm.DB, interaction *types.UserInteraction) error {
	transaction := tx
	if transaction == nil {
		transaction = ir.db
	}

	if interaction.ID == uuid.Nil {
		interaction.ID = uuid.New()
	}
	return transaction.WithContext(ctx).Create(interaction).Error
}

func (ir *interactionRepo) CountsByAction(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (map[string]int, error) {
	transaction := tx
	if transaction == nil {
		transaction = ir.db
	}

	var rows []struct {
		Action string
		Count  int
	}
	if err := transaction.WithContext(ctx).Model(&types.UserInteraction{}).
		Select("action, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Group("action").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Action] = row.Count
	}
	return counts, nil
}

func (ir *interactionRepo) LikedBeatIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = ir.db
	}

	var ids []uuid.UUID
	if err := transaction.WithContext(ctx).Model(&types.UserInteraction{}).
		Distinct("beat_id").
		Where("user_id = ? AND action = ?", userID, types.ActionLike).
		Pluck("beat_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (ir *interactionRepo) AvgPlaySeconds(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (float64, error) {
	transaction := tx
	if transaction == nil {
		transaction = ir.db
	}

	var avg *float64
	if err := transaction.WithContext(ctx).Model(&types.UserInteraction{}).
		Select("AVG(duration)").
		Where("user_id = ? AND action = ? AND duration IS NOT NULL", userID, types.ActionPlay).
		Scan(&avg).Error; err != nil {
		return 0, err
	}
	if avg == nil {
		return 0, nil
	}
	return *avg, nil
}

func (ir *interactionRepo) LastActiveAt(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*time.Time, error) {
	transaction := tx
	if transaction == nil {
		transaction = ir.db
	}

	var last *time.Time
	if err := transaction.WithContext(ctx).Model(&types.UserInteraction{}).
		Select("MAX(created_at)").
		Where("user_id = ?", userID).
		Scan(&last).Error; err != nil {
		return nil, err
	}
	return last, nil
}

func (ir *interactionRepo) CoLikeCounts(ctx context.Context, tx *gorm.DB, beatIDs []uuid.UUID, excludeUserID uuid.UUID, minOverlap int) ([]CoLikeRow, error) {
	transaction := tx
	if transaction == nil {
		transaction = ir.db
	}

	var rows []CoLikeRow
	if len(beatIDs) == 0 {
		return rows, nil
	}

	if err := transaction.WithContext(ctx).Model(&types.UserInteraction{}).
		Select("user_id, COUNT(DISTINCT beat_id) AS co_likes").
		Where("action = ? AND beat_id IN ? AND user_id <> ?", types.ActionLike, beatIDs, excludeUserID).
		Group("user_id").
		Having("COUNT(DISTINCT beat_id) >= ?", minOverlap).
		Order("co_likes DESC").
		Order("user_id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (ir *interactionRepo) DistinctLikeCounts(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	transaction := tx
	if transaction == nil {
		transaction = ir.db
	}

	counts := make(map[uuid.UUID]int, len(userIDs))
	if len(userIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		UserID uuid.UUID
		Count  int
	}
	if err := transaction.WithContext(ctx).Model(&types.UserInteraction{}).
		Select("user_id, COUNT(DISTINCT beat_id) AS count").
		Where("action = ? AND user_id IN ?", types.ActionLike, userIDs).
		Group("user_id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.UserID] = row.Count
	}
	return counts, nil
}

func (ir *interactionRepo) LikesOfUsers(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]UserLikeRow, error) {
	transaction := tx
	if transaction == nil {
		transaction = ir.db
	}

	var rows []UserLikeRow
	if len(userIDs) == 0 {
		return rows, nil
	}

	if err := transaction.WithContext(ctx).Model(&types.UserInteraction{}).
		Distinct("user_id, beat_id").
		Where("action = ? AND user_id IN ?", types.ActionLike, userIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (ir *interactionRepo) WindowCounts(ctx context.Context, tx *gorm.DB, since time.Time) ([]BeatWindowRow, error) {
	transaction := tx
	if transaction == nil {
		transaction = ir.db
	}

	var rows []BeatWindowRow
	if err := transaction.WithContext(ctx).Model(&types.UserInteraction{}).
		Select("beat_id, SUM(CASE WHEN action = 'like' THEN 1 ELSE 0 END) AS likes, SUM(CASE WHEN action = 'play' THEN 1 ELSE 0 END) AS plays").
		Where("created_at >= ? AND action IN ?", since, []string{types.ActionLike, types.ActionPlay}).
		Group("beat_id").
		Order("likes DESC").
		Order("plays DESC").
		Order("beat_id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
