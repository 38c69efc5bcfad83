package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Beat struct {
	ID          uuid.UUID                   `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProducerID  uuid.UUID                   `gorm:"type:uuid;not null;index;column:producer_id" json:"producer_id"`
	Title       string                      `gorm:"not null;column:title" json:"title"`
	Description string                      `gorm:"column:description" json:"description"`
	Genre       string                      `gorm:"index;column:genre" json:"genre"`
	Mood        string                      `gorm:"index;column:mood" json:"mood"`
	Key         string                      `gorm:"column:key" json:"key"`
	BPM         int                         `gorm:"column:bpm" json:"bpm"`
	Price       float64                     `gorm:"column:price" json:"price"`
	Duration    int                         `gorm:"column:duration" json:"duration"`
	IsFree      bool                        `gorm:"column:is_free" json:"is_free"`
	IsExclusive bool                        `gorm:"column:is_exclusive" json:"is_exclusive"`
	IsActive    bool                        `gorm:"default:true;column:is_active" json:"is_active"`
	PlayCount   int                         `gorm:"default:0;column:play_count" json:"play_count"`
	LikeCount   int                         `gorm:"default:0;column:like_count" json:"like_count"`
	Tags        datatypes.JSONSlice[string] `gorm:"column:tags" json:"tags"`
	CreatedAt   time.Time                   `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time                   `gorm:"not null;default:now()" json:"updated_at"`
}

func (Beat) TableName() string {
	return "beat"
}
