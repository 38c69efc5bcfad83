package repos

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/beatforge-backend/internal/logger"
	"github.com/yungbote/beatforge-backend/internal/types"
)

type SuggestionRepo interface {
	// Upsert inserts the (query, category) pair or increments its popularity
	// in place. Popularity only ever increases.
	Upsert(ctx context.Context, tx *gorm.DB, query, category string, resultCount int) error
	Prefix(ctx context.Context, tx *gorm.DB, prefix string, limit int) ([]*types.SearchSuggestion, error)
	Trending(ctx context.Context, tx *gorm.DB, limit int) ([]*types.SearchSuggestion, error)
}

type suggestionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSuggestionRepo(db *gorm.DB, baseLog *logger.Logger) SuggestionRepo {
	repoLog := baseLog.With("repo", "SuggestionRepo")
	return &suggestionRepo{db: db, log: repoLog}
}

func (sr *suggestionRepo) Upsert(ctx context.Context, tx *gorm.DB, query, category string, resultCount int) error {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	normalized := strings.ToLower(strings.TrimSpace(query))
	if normalized == "" {
		return nil
	}

	now := time.Now().UTC()
	row := &types.SearchSuggestion{
		ID:              uuid.New(),
		Query:           normalized,
		Category:        category,
		Popularity:      1,
		LastResultCount: resultCount,
		LastUsedAt:      now,
		CreatedAt:       now,
	}
	return transaction.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "query"}, {Name: "category"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"popularity":        gorm.Expr("popularity + 1"),
			"last_result_count": resultCount,
			"last_used_at":      now,
		}),
	}).Create(row).Error
}

func (sr *suggestionRepo) Prefix(ctx context.Context, tx *gorm.DB, prefix string, limit int) ([]*types.SearchSuggestion, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	normalized := strings.ToLower(strings.TrimSpace(prefix))
	var results []*types.SearchSuggestion
	if normalized == "" {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("query LIKE ?", normalized+"%").
		Order("popularity DESC").
		Order("last_used_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (sr *suggestionRepo) Trending(ctx context.Context, tx *gorm.DB, limit int) ([]*types.SearchSuggestion, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	var results []*types.SearchSuggestion
	if err := transaction.WithContext(ctx).
		Order("popularity DESC").
		Order("last_used_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
