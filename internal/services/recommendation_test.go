package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/beatforge-backend/internal/repos"
	"github.com/yungbote/beatforge-backend/internal/types"
)

type fixedProfile struct {
	profile     *types.UserBehaviorProfile
	invalidated []uuid.UUID
}

func (f *fixedProfile) GetProfile(ctx context.Context, userID uuid.UUID) *types.UserBehaviorProfile {
	p := *f.profile
	p.UserID = userID
	return &p
}

func (f *fixedProfile) Invalidate(ctx context.Context, userID uuid.UUID) {
	f.invalidated = append(f.invalidated, userID)
}

func newRecService(t *testing.T, store *memStore, beats *fakeBeatRepo, interactions *fakeInteractionRepo, profile *types.UserBehaviorProfile) (RecommendationService, *fixedProfile) {
	t.Helper()
	log := testLogger(t)
	cfg := DefaultRankingConfig()
	profiles := &fixedProfile{profile: profile}
	scoring := NewScoringService(log, cfg, &fakeCollaborative{}, interactions)
	svc := NewRecommendationService(nil, log, cfg, store, beats, interactions, profiles, scoring, nullAnalytics{})
	return svc, profiles
}

func trapProfile() *types.UserBehaviorProfile {
	return &types.UserBehaviorProfile{
		TopGenres:       []types.GenreAffinity{{Genre: "trap", Count: 10, Share: 1.0}},
		TopMoods:        []types.MoodAffinity{{Mood: "dark", Count: 10, Share: 1.0}},
		PreferredBPMMin: 130,
		PreferredBPMMax: 150,
	}
}

func TestPersonalizedRanksByProfileFit(t *testing.T) {
	now := time.Now()
	trap := &types.Beat{ID: uuid.New(), Genre: "trap", Mood: "dark", BPM: 140, IsActive: true, CreatedAt: now}
	country := &types.Beat{ID: uuid.New(), Genre: "country", Mood: "happy", BPM: 95, IsActive: true, CreatedAt: now}

	beats := &fakeBeatRepo{
		beats:      map[uuid.UUID]*types.Beat{trap.ID: trap, country.ID: country},
		candidates: []*types.Beat{country, trap},
	}
	interactions := &fakeInteractionRepo{likedIDs: []uuid.UUID{}}
	svc, _ := newRecService(t, newMemStore(), beats, interactions, trapProfile())

	got := svc.GetPersonalizedRecommendations(context.Background(), uuid.New(), 10, nil)
	if len(got) != 2 {
		t.Fatalf("expected 2 recommendations, got %d", len(got))
	}
	if got[0].ID != trap.ID {
		t.Fatalf("expected the profile-matching trap beat first, got %s", got[0].Title)
	}
}

func TestPersonalizedExcludesLikedBeats(t *testing.T) {
	now := time.Now()
	liked := &types.Beat{ID: uuid.New(), Genre: "trap", Mood: "dark", BPM: 140, IsActive: true, CreatedAt: now}
	fresh := &types.Beat{ID: uuid.New(), Genre: "trap", Mood: "dark", BPM: 140, IsActive: true, CreatedAt: now}

	beats := &fakeBeatRepo{
		beats:      map[uuid.UUID]*types.Beat{liked.ID: liked, fresh.ID: fresh},
		candidates: []*types.Beat{liked, fresh},
	}
	interactions := &fakeInteractionRepo{likedIDs: []uuid.UUID{liked.ID}}
	svc, _ := newRecService(t, newMemStore(), beats, interactions, trapProfile())

	got := svc.GetPersonalizedRecommendations(context.Background(), uuid.New(), 10, nil)
	for _, beat := range got {
		if beat.ID == liked.ID {
			t.Fatalf("already-liked beat must not be recommended")
		}
	}
	if len(got) != 1 || got[0].ID != fresh.ID {
		t.Fatalf("expected only the unliked beat, got %d results", len(got))
	}
}

func TestPersonalizedFallsBackToPopularity(t *testing.T) {
	popular := &types.Beat{ID: uuid.New(), Title: "chart topper", IsActive: true, PlayCount: 9000}
	beats := &fakeBeatRepo{
		beats:   map[uuid.UUID]*types.Beat{popular.ID: popular},
		popular: []*types.Beat{popular},
	}
	// Interaction log unavailable: the pipeline cannot personalize.
	interactions := &fakeInteractionRepo{err: errors.New("db down")}
	svc, _ := newRecService(t, newMemStore(), beats, interactions, trapProfile())

	got := svc.GetPersonalizedRecommendations(context.Background(), uuid.New(), 10, nil)
	if len(got) != 1 || got[0].ID != popular.ID {
		t.Fatalf("expected popularity fallback, got %d results", len(got))
	}
}

func TestPersonalizedServedFromCache(t *testing.T) {
	now := time.Now()
	beat := &types.Beat{ID: uuid.New(), Genre: "trap", Mood: "dark", BPM: 140, IsActive: true, CreatedAt: now}
	beats := &fakeBeatRepo{
		beats:      map[uuid.UUID]*types.Beat{beat.ID: beat},
		candidates: []*types.Beat{beat},
	}
	interactions := &fakeInteractionRepo{likedIDs: []uuid.UUID{}}
	store := newMemStore()
	svc, _ := newRecService(t, store, beats, interactions, trapProfile())

	userID := uuid.New()
	first := svc.GetPersonalizedRecommendations(context.Background(), userID, 5, nil)
	calls := beats.candidateCalls
	second := svc.GetPersonalizedRecommendations(context.Background(), userID, 5, nil)

	if beats.candidateCalls != calls {
		t.Fatalf("expected cached read to skip candidate retrieval")
	}
	if len(first) != len(second) || first[0].ID != second[0].ID {
		t.Fatalf("cached result differs from computed result")
	}
}

func TestPersonalizedZeroLimit(t *testing.T) {
	svc, _ := newRecService(t, newMemStore(), &fakeBeatRepo{}, &fakeInteractionRepo{}, trapProfile())
	if got := svc.GetPersonalizedRecommendations(context.Background(), uuid.New(), 0, nil); len(got) != 0 {
		t.Fatalf("expected empty result for zero limit")
	}
}

func TestTrendingBlendsWindowAndLifetime(t *testing.T) {
	spike := &types.Beat{ID: uuid.New(), Title: "spike", IsActive: true, PlayCount: 0}
	steady := &types.Beat{ID: uuid.New(), Title: "steady", IsActive: true, PlayCount: 5000}
	inactive := &types.Beat{ID: uuid.New(), Title: "delisted", IsActive: false}

	beats := &fakeBeatRepo{beats: map[uuid.UUID]*types.Beat{spike.ID: spike, steady.ID: steady, inactive.ID: inactive}}
	interactions := &fakeInteractionRepo{
		windowRows: []repos.BeatWindowRow{
			{BeatID: spike.ID, Likes: 10, Plays: 50},  // 2*10+50 = 70
			{BeatID: steady.ID, Likes: 2, Plays: 20},  // 2*2+20+0.1*5000 = 524
			{BeatID: inactive.ID, Likes: 99, Plays: 99},
		},
	}
	svc, _ := newRecService(t, newMemStore(), beats, interactions, trapProfile())

	got := svc.GetTrendingBeats(context.Background(), 10)
	if len(got) != 2 {
		t.Fatalf("expected 2 trending beats, got %d", len(got))
	}
	if got[0].ID != steady.ID {
		t.Fatalf("expected lifetime popularity to outweigh the spike, got %q first", got[0].Title)
	}
	for _, beat := range got {
		if !beat.IsActive {
			t.Fatalf("inactive beat leaked into trending")
		}
	}
}

func TestTrendingFallsBackWhenWindowEmpty(t *testing.T) {
	popular := &types.Beat{ID: uuid.New(), IsActive: true, PlayCount: 100}
	beats := &fakeBeatRepo{
		beats:   map[uuid.UUID]*types.Beat{popular.ID: popular},
		popular: []*types.Beat{popular},
	}
	interactions := &fakeInteractionRepo{windowRows: nil}
	svc, _ := newRecService(t, newMemStore(), beats, interactions, trapProfile())

	got := svc.GetTrendingBeats(context.Background(), 10)
	if len(got) != 1 || got[0].ID != popular.ID {
		t.Fatalf("expected popularity fallback for an empty window")
	}
}

func TestSimilarBeatsRanksByContent(t *testing.T) {
	source := &types.Beat{ID: uuid.New(), Genre: "trap", Mood: "dark", Key: "Am", BPM: 140, Price: 30, IsActive: true}
	twin := &types.Beat{ID: uuid.New(), Genre: "trap", Mood: "dark", Key: "Am", BPM: 142, Price: 28, IsActive: true}
	distant := &types.Beat{ID: uuid.New(), Genre: "country", Mood: "happy", Key: "G", BPM: 90, Price: 200, IsActive: true}

	beats := &fakeBeatRepo{
		beats:      map[uuid.UUID]*types.Beat{source.ID: source, twin.ID: twin, distant.ID: distant},
		candidates: []*types.Beat{distant, twin},
	}
	svc, _ := newRecService(t, newMemStore(), beats, &fakeInteractionRepo{}, trapProfile())

	got := svc.FindSimilarBeats(context.Background(), source.ID, 10)
	if len(got) != 2 {
		t.Fatalf("expected 2 similar beats, got %d", len(got))
	}
	if got[0].ID != twin.ID {
		t.Fatalf("expected the near-identical beat first")
	}
	for _, beat := range got {
		if beat.ID == source.ID {
			t.Fatalf("source beat must not appear in its own similar list")
		}
	}
}

func TestSimilarBeatsUnknownID(t *testing.T) {
	svc, _ := newRecService(t, newMemStore(), &fakeBeatRepo{beats: map[uuid.UUID]*types.Beat{}}, &fakeInteractionRepo{}, trapProfile())
	if got := svc.FindSimilarBeats(context.Background(), uuid.New(), 10); len(got) != 0 {
		t.Fatalf("expected empty result for unknown beat id")
	}
}

func TestTrackInteractionRejectsUnknownAction(t *testing.T) {
	svc, _ := newRecService(t, newMemStore(), &fakeBeatRepo{}, &fakeInteractionRepo{}, trapProfile())
	err := svc.TrackUserInteraction(context.Background(), uuid.New(), uuid.New(), "share", nil)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown action, got %v", err)
	}
}

func TestTrackInteractionSwallowsWriteFailure(t *testing.T) {
	interactions := &fakeInteractionRepo{err: errors.New("insert failed")}
	svc, profiles := newRecService(t, newMemStore(), &fakeBeatRepo{}, interactions, trapProfile())

	if err := svc.TrackUserInteraction(context.Background(), uuid.New(), uuid.New(), types.ActionPlay, nil); err != nil {
		t.Fatalf("a store failure must not surface to the caller: %v", err)
	}
	if interactions.createCalls != 1 {
		t.Fatalf("expected the write attempted once, got %d", interactions.createCalls)
	}
	// Nothing was recorded, so the cached profile stays valid.
	if len(profiles.invalidated) != 0 {
		t.Fatalf("failed write must not invalidate the profile")
	}
}

func TestTrackInteractionAppendsAndInvalidates(t *testing.T) {
	interactions := &fakeInteractionRepo{likedIDs: []uuid.UUID{}}
	store := newMemStore()
	svc, profiles := newRecService(t, store, &fakeBeatRepo{}, interactions, trapProfile())

	userID := uuid.New()
	beatID := uuid.New()

	// Prime a recommendation cache entry that the write must clear.
	store.Set(context.Background(), recommendationsCacheKey(userID, 20), "[]", time.Minute)

	duration := 42
	if err := svc.TrackUserInteraction(context.Background(), userID, beatID, types.ActionPlay, &duration); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(interactions.created) != 1 {
		t.Fatalf("expected one appended interaction, got %d", len(interactions.created))
	}
	row := interactions.created[0]
	if row.UserID != userID || row.BeatID != beatID || row.Action != types.ActionPlay {
		t.Fatalf("interaction row mismatch: %+v", row)
	}
	if row.Duration == nil || *row.Duration != 42 {
		t.Fatalf("expected duration 42, got %v", row.Duration)
	}
	if len(profiles.invalidated) != 1 || profiles.invalidated[0] != userID {
		t.Fatalf("expected profile invalidation for %v", userID)
	}
	if store.has(recommendationsCacheKey(userID, 20)) {
		t.Fatalf("expected recommendation cache cleared after interaction")
	}
}
