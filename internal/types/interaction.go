package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionPlay     = "play"
	ActionLike     = "like"
	ActionPurchase = "purchase"
	ActionSkip     = "skip"
)

// UserInteraction rows are append-only; they are never updated or deleted.
type UserInteraction struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index;column:user_id" json:"user_id"`
	BeatID    uuid.UUID `gorm:"type:uuid;not null;index;column:beat_id" json:"beat_id"`
	Action    string    `gorm:"not null;index;column:action" json:"action"`
	Duration  *int      `gorm:"column:duration" json:"duration,omitempty"`
	CreatedAt time.Time `gorm:"not null;default:now();index" json:"created_at"`
}

func (UserInteraction) TableName() string {
	return "user_interaction"
}

func ValidAction(action string) bool {
	switch action {
	case ActionPlay, ActionLike, ActionPurchase, ActionSkip:
		return true
	default:
		return false
	}
}
