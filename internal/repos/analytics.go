package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/beatforge-backend/internal/logger"
	"github.com/yungbote/beatforge-backend/internal/types"
)

type AnalyticsRepo interface {
	Create(ctx context.Context, tx *gorm.DB, event *types.AnalyticsEvent) error
}

type analyticsRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAnalyticsRepo(db *gorm.DB, baseLog *logger.Logger) AnalyticsRepo {
	repoLog := baseLog.With("repo", "AnalyticsRepo")
	return &analyticsRepo{db: db, log: repoLog}
}

func (ar *analyticsRepo) Create(ctx context.Context, tx *gorm.DB, event *types.AnalyticsEvent) error {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	return transaction.WithContext(ctx).Create(event).Error
}
