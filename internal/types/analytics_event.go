package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AnalyticsEvent struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID    *uuid.UUID     `gorm:"type:uuid;index;column:user_id" json:"user_id,omitempty"`
	EventType string         `gorm:"not null;index;column:event_type" json:"event_type"`
	Payload   datatypes.JSON `gorm:"column:payload" json:"payload"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (AnalyticsEvent) TableName() string {
	return "analytics_event"
}
