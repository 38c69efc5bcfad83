package services

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/beatforge-backend/internal/repos"
	"github.com/yungbote/beatforge-backend/internal/types"
)

func testProfile() *types.UserBehaviorProfile {
	return &types.UserBehaviorProfile{
		UserID: uuid.New(),
		TopGenres: []types.GenreAffinity{
			{Genre: "trap", Count: 6, Share: 0.6},
			{Genre: "lofi", Count: 4, Share: 0.4},
		},
		TopMoods: []types.MoodAffinity{
			{Mood: "dark", Count: 5, Share: 0.5},
		},
		PreferredBPMMin: 90,
		PreferredBPMMax: 130,
	}
}

func TestDefaultWeightsSumToOne(t *testing.T) {
	sum := DefaultRankingConfig().Weights.Sum()
	if math.Abs(sum-1.0) > 1e-9 {
		t.Fatalf("expected weight sum 1.0, got %v", sum)
	}
}

func TestGenreMatch(t *testing.T) {
	profile := testProfile()

	if got := genreMatch(&types.Beat{Genre: "trap"}, profile); got != 60 {
		t.Fatalf("expected 60 for known genre, got %v", got)
	}
	if got := genreMatch(&types.Beat{Genre: "country"}, profile); got != 10 {
		t.Fatalf("expected baseline 10 for unknown genre, got %v", got)
	}
}

func TestBPMMatchBoundaries(t *testing.T) {
	profile := testProfile()

	cases := []struct {
		bpm  int
		want float64
	}{
		{90, 100},
		{130, 100},
		{110, 100},
		{80, 90},
		{140, 90},
		{200, 30},
		{300, 0},
		{0, 50},
	}
	for _, tc := range cases {
		got := bpmMatch(&types.Beat{BPM: tc.bpm}, profile)
		if got != tc.want {
			t.Fatalf("bpm %d: expected %v, got %v", tc.bpm, tc.want, got)
		}
	}
}

func TestPopularityBoost(t *testing.T) {
	if got := popularityBoost(&types.Beat{PlayCount: 1000, LikeCount: 100}); got != 100 {
		t.Fatalf("expected saturated boost 100, got %v", got)
	}
	if got := popularityBoost(&types.Beat{PlayCount: 500}); got != 25 {
		t.Fatalf("expected 25 for 500 plays, got %v", got)
	}
	if got := popularityBoost(&types.Beat{PlayCount: 1000000, LikeCount: 1000000}); got != 100 {
		t.Fatalf("expected cap at 100, got %v", got)
	}
}

func TestRecencyBoost(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	if got := recencyBoost(&types.Beat{CreatedAt: now}, now); got != 100 {
		t.Fatalf("expected 100 for a new beat, got %v", got)
	}
	tenDays := now.AddDate(0, 0, -10)
	if got := recencyBoost(&types.Beat{CreatedAt: tenDays}, now); got != 80 {
		t.Fatalf("expected 80 after 10 days, got %v", got)
	}
	old := now.AddDate(0, 0, -100)
	if got := recencyBoost(&types.Beat{CreatedAt: old}, now); got != 0 {
		t.Fatalf("expected floor 0 for old beat, got %v", got)
	}
}

func TestNoveltyScore(t *testing.T) {
	profile := testProfile()

	if got := noveltyScore(&types.Beat{Genre: "country", Mood: "happy"}, profile); got != 100 {
		t.Fatalf("expected 100 for fully unfamiliar beat, got %v", got)
	}
	if got := noveltyScore(&types.Beat{Genre: "trap", Mood: "happy"}, profile); got != 50 {
		t.Fatalf("expected 50 for unfamiliar mood only, got %v", got)
	}
	if got := noveltyScore(&types.Beat{Genre: "trap", Mood: "dark"}, profile); got != 0 {
		t.Fatalf("expected 0 for familiar beat, got %v", got)
	}
}

func TestCollaborativeFactor(t *testing.T) {
	beatID := uuid.New()
	likedBy := map[uuid.UUID]int{beatID: 4}

	if got := collaborativeFactor(&types.Beat{ID: beatID}, likedBy, 10); got != 40 {
		t.Fatalf("expected 40 when 4 of 10 similar users liked, got %v", got)
	}
	if got := collaborativeFactor(&types.Beat{ID: uuid.New()}, likedBy, 10); got != 0 {
		t.Fatalf("expected 0 for unliked beat, got %v", got)
	}
	if got := collaborativeFactor(&types.Beat{ID: beatID}, nil, 0); got != 0 {
		t.Fatalf("expected 0 with no similar users, got %v", got)
	}
}

func TestScoreDeterministic(t *testing.T) {
	log := testLogger(t)
	cfg := DefaultRankingConfig()
	interactions := &fakeInteractionRepo{}
	collab := &fakeCollaborative{}

	svc := NewScoringService(log, cfg, collab, interactions).(*scoringService)
	fixed := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	beat := &types.Beat{
		ID:        uuid.New(),
		Genre:     "trap",
		Mood:      "dark",
		BPM:       120,
		PlayCount: 400,
		LikeCount: 20,
		CreatedAt: fixed.AddDate(0, 0, -5),
	}
	profile := testProfile()

	first := svc.Score(context.Background(), beat, profile, profile.UserID)
	second := svc.Score(context.Background(), beat, profile, profile.UserID)
	if first.Total != second.Total {
		t.Fatalf("expected deterministic totals, got %v and %v", first.Total, second.Total)
	}
	if first.Factors != second.Factors {
		t.Fatalf("expected identical factor breakdowns")
	}

	// Spot check the weighted sum against the breakdown.
	w := cfg.Weights
	want := first.Factors.GenreMatch*w.Genre +
		first.Factors.MoodMatch*w.Mood +
		first.Factors.BPMMatch*w.BPM +
		first.Factors.PopularityBoost*w.Popularity +
		first.Factors.RecencyBoost*w.Recency +
		first.Factors.CollaborativeFiltering*w.Collaborative +
		first.Factors.NoveltyScore*w.Novelty
	if math.Abs(first.Total-want) > 1e-9 {
		t.Fatalf("total %v does not match weighted factors %v", first.Total, want)
	}
}

func TestScoreAllUsesCollaborativeContext(t *testing.T) {
	log := testLogger(t)
	cfg := DefaultRankingConfig()

	liked := &types.Beat{ID: uuid.New(), Genre: "trap", Mood: "dark", BPM: 100}
	other := &types.Beat{ID: uuid.New(), Genre: "trap", Mood: "dark", BPM: 100}

	similarA := uuid.New()
	similarB := uuid.New()
	collab := &fakeCollaborative{similar: []types.SimilarUser{
		{UserID: similarA, Similarity: 0.5, CoLikedCount: 3},
		{UserID: similarB, Similarity: 0.4, CoLikedCount: 2},
	}}
	interactions := &fakeInteractionRepo{
		userLikes: []repos.UserLikeRow{
			{UserID: similarA, BeatID: liked.ID},
			{UserID: similarB, BeatID: liked.ID},
		},
	}

	svc := NewScoringService(log, cfg, collab, interactions).(*scoringService)
	fixed := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	profile := testProfile()
	scores := svc.ScoreAll(context.Background(), []*types.Beat{liked, other}, profile, profile.UserID)
	if len(scores) != 2 {
		t.Fatalf("expected 2 scores, got %d", len(scores))
	}
	if scores[0].Factors.CollaborativeFiltering != 100 {
		t.Fatalf("expected collaborative 100 for beat liked by both similar users, got %v", scores[0].Factors.CollaborativeFiltering)
	}
	if scores[1].Factors.CollaborativeFiltering != 0 {
		t.Fatalf("expected collaborative 0 for unliked beat, got %v", scores[1].Factors.CollaborativeFiltering)
	}
	if scores[0].Total <= scores[1].Total {
		t.Fatalf("expected collaboratively liked beat to outrank its twin")
	}
}
