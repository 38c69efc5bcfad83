package types

import (
	"time"

	"github.com/google/uuid"
)

// GenreAffinity is one ranked entry in a user's taste summary. Share is the
// genre's fraction of the user's total likes, in [0,1].
type GenreAffinity struct {
	Genre string  `json:"genre"`
	Count int     `json:"count"`
	Share float64 `json:"share"`
}

type MoodAffinity struct {
	Mood  string  `json:"mood"`
	Count int     `json:"count"`
	Share float64 `json:"share"`
}

// UserBehaviorProfile is derived from the interaction log and cached; it is
// never the source of truth.
type UserBehaviorProfile struct {
	UserID            uuid.UUID       `json:"user_id"`
	TotalPlays        int             `json:"total_plays"`
	TotalLikes        int             `json:"total_likes"`
	TotalPurchases    int             `json:"total_purchases"`
	TotalSkips        int             `json:"total_skips"`
	TopGenres         []GenreAffinity `json:"top_genres"`
	TopMoods          []MoodAffinity  `json:"top_moods"`
	PreferredBPMMin   int             `json:"preferred_bpm_min"`
	PreferredBPMMax   int             `json:"preferred_bpm_max"`
	AvgSessionSeconds float64         `json:"avg_session_seconds"`
	LastActiveAt      *time.Time      `json:"last_active_at,omitempty"`
}

func (p *UserBehaviorProfile) HasGenre(genre string) bool {
	for _, g := range p.TopGenres {
		if g.Genre == genre {
			return true
		}
	}
	return false
}

func (p *UserBehaviorProfile) HasMood(mood string) bool {
	for _, m := range p.TopMoods {
		if m.Mood == mood {
			return true
		}
	}
	return false
}

func (p *UserBehaviorProfile) GenreShare(genre string) (float64, bool) {
	for _, g := range p.TopGenres {
		if g.Genre == genre {
			return g.Share, true
		}
	}
	return 0, false
}

func (p *UserBehaviorProfile) MoodShare(mood string) (float64, bool) {
	for _, m := range p.TopMoods {
		if m.Mood == mood {
			return m.Share, true
		}
	}
	return 0, false
}
