package types

import (
	"time"

	"github.com/google/uuid"
)

// SearchSuggestion is the incrementally learned autocomplete index.
// (query, category) is unique; popularity only ever increases.
type SearchSuggestion struct {
	ID              uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Query           string    `gorm:"not null;uniqueIndex:idx_suggestion_query_category;column:query" json:"query"`
	Category        string    `gorm:"not null;uniqueIndex:idx_suggestion_query_category;column:category" json:"category"`
	Popularity      int       `gorm:"default:1;column:popularity" json:"popularity"`
	LastResultCount int       `gorm:"default:0;column:last_result_count" json:"last_result_count"`
	LastUsedAt      time.Time `gorm:"not null;default:now();column:last_used_at" json:"last_used_at"`
	CreatedAt       time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (SearchSuggestion) TableName() string {
	return "search_suggestion"
}
