package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/beatforge-backend/internal/logger"
	"github.com/yungbote/beatforge-backend/internal/repos"
	"github.com/yungbote/beatforge-backend/internal/types"
)

// AnalyticsService records events off the request path. Track returns
// immediately; the insert runs on its own goroutine with a detached context so
// a canceled request cannot drop the event, and a slow insert cannot slow the
// response. Failures are logged and otherwise swallowed.
type AnalyticsService interface {
	Track(event types.AnalyticsEvent)
}

type analyticsService struct {
	db            *gorm.DB
	log           *logger.Logger
	analyticsRepo repos.AnalyticsRepo
	writeTimeout  time.Duration
}

func NewAnalyticsService(db *gorm.DB, log *logger.Logger, analyticsRepo repos.AnalyticsRepo) AnalyticsService {
	serviceLog := log.With("service", "AnalyticsService")
	return &analyticsService{
		db:            db,
		log:           serviceLog,
		analyticsRepo: analyticsRepo,
		writeTimeout:  5 * time.Second,
	}
}

func (as *analyticsService) Track(event types.AnalyticsEvent) {
	if event.EventType == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), as.writeTimeout)
		defer cancel()
		if err := as.analyticsRepo.Create(ctx, nil, &event); err != nil {
			as.log.Warn("Analytics event write failed", "event_type", event.EventType, "error", err)
		}
	}()
}
