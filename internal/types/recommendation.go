package types

import (
	"github.com/google/uuid"
)

// ScoreBreakdown holds the seven named factors, each on a 0-100 scale.
type ScoreBreakdown struct {
	GenreMatch             float64 `json:"genre_match"`
	MoodMatch              float64 `json:"mood_match"`
	BPMMatch               float64 `json:"bpm_match"`
	PopularityBoost        float64 `json:"popularity_boost"`
	RecencyBoost           float64 `json:"recency_boost"`
	CollaborativeFiltering float64 `json:"collaborative_filtering"`
	NoveltyScore           float64 `json:"novelty_score"`
}

// RecommendationScore is ephemeral, computed per request and never persisted.
type RecommendationScore struct {
	BeatID  uuid.UUID      `json:"beat_id"`
	Total   float64        `json:"total"`
	Factors ScoreBreakdown `json:"factors"`
}

// SimilarUser never refers to the requesting user itself; Similarity is in [0,1].
type SimilarUser struct {
	UserID       uuid.UUID `json:"user_id"`
	Similarity   float64   `json:"similarity"`
	CoLikedCount int       `json:"co_liked_count"`
}
