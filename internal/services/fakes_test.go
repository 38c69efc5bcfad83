package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/beatforge-backend/internal/logger"
	"github.com/yungbote/beatforge-backend/internal/repos"
	"github.com/yungbote/beatforge-backend/internal/types"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init test logger: %v", err)
	}
	return log
}

// memStore is an in-memory cache.Store for tests. Pattern deletion supports
// the trailing-star form the services use.
type memStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemStore() *memStore {
	return &memStore{data: map[string]string{}}
}

func (m *memStore) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memStore) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *memStore) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.data {
		if strings.HasPrefix(key, prefix) {
			delete(m.data, key)
		}
	}
	return nil
}

func (m *memStore) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

type fakeInteractionRepo struct {
	counts       map[string]int
	likedIDs     []uuid.UUID
	avgPlay      float64
	lastActive   *time.Time
	coLikes      []repos.CoLikeRow
	likeTotals   map[uuid.UUID]int
	userLikes    []repos.UserLikeRow
	windowRows   []repos.BeatWindowRow
	created      []*types.UserInteraction
	err          error
	createCalls  int
	likedIDCalls int
}

func (f *fakeInteractionRepo) Create(ctx context.Context, tx *gorm.DB, interaction *types.UserInteraction) error {
	f.createCalls++
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, interaction)
	return nil
}

func (f *fakeInteractionRepo) CountsByAction(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (map[string]int, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.counts, nil
}

func (f *fakeInteractionRepo) LikedBeatIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error) {
	f.likedIDCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.likedIDs, nil
}

func (f *fakeInteractionRepo) AvgPlaySeconds(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (float64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.avgPlay, nil
}

func (f *fakeInteractionRepo) LastActiveAt(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*time.Time, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.lastActive, nil
}

func (f *fakeInteractionRepo) CoLikeCounts(ctx context.Context, tx *gorm.DB, beatIDs []uuid.UUID, excludeUserID uuid.UUID, minOverlap int) ([]repos.CoLikeRow, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.coLikes, nil
}

func (f *fakeInteractionRepo) DistinctLikeCounts(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.likeTotals, nil
}

func (f *fakeInteractionRepo) LikesOfUsers(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]repos.UserLikeRow, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.userLikes, nil
}

func (f *fakeInteractionRepo) WindowCounts(ctx context.Context, tx *gorm.DB, since time.Time) ([]repos.BeatWindowRow, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.windowRows, nil
}

type fakeBeatRepo struct {
	beats          map[uuid.UUID]*types.Beat
	candidates     []*types.Beat
	popular        []*types.Beat
	searchBeats    []*types.Beat
	searchTotal    int64
	facets         types.SearchFacets
	titles         []string
	genres         []string
	tags           []string
	err            error
	searchCalls    int
	candidateCalls int
}

func (f *fakeBeatRepo) GetByIDs(ctx context.Context, tx *gorm.DB, beatIDs []uuid.UUID) ([]*types.Beat, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*types.Beat
	for _, id := range beatIDs {
		if beat, ok := f.beats[id]; ok {
			out = append(out, beat)
		}
	}
	return out, nil
}

func (f *fakeBeatRepo) GetActiveCandidates(ctx context.Context, tx *gorm.DB, excludeIDs []uuid.UUID, limit int) ([]*types.Beat, error) {
	f.candidateCalls++
	if f.err != nil {
		return nil, f.err
	}
	excluded := map[uuid.UUID]bool{}
	for _, id := range excludeIDs {
		excluded[id] = true
	}
	var out []*types.Beat
	for _, beat := range f.candidates {
		if !excluded[beat.ID] {
			out = append(out, beat)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeBeatRepo) PopularityOrdered(ctx context.Context, tx *gorm.DB, excludeIDs []uuid.UUID, limit int) ([]*types.Beat, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := f.popular
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeBeatRepo) Search(ctx context.Context, tx *gorm.DB, filters types.SearchFilters) ([]*types.Beat, int64, error) {
	f.searchCalls++
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.searchBeats, f.searchTotal, nil
}

func (f *fakeBeatRepo) FacetCounts(ctx context.Context, tx *gorm.DB, filters types.SearchFilters) (types.SearchFacets, error) {
	if f.err != nil {
		return types.SearchFacets{}, f.err
	}
	return f.facets, nil
}

func (f *fakeBeatRepo) TitlePrefix(ctx context.Context, tx *gorm.DB, prefix string, limit int) ([]string, error) {
	return f.titles, f.err
}

func (f *fakeBeatRepo) GenrePrefix(ctx context.Context, tx *gorm.DB, prefix string, limit int) ([]string, error) {
	return f.genres, f.err
}

func (f *fakeBeatRepo) TagPrefix(ctx context.Context, tx *gorm.DB, prefix string, limit int) ([]string, error) {
	return f.tags, f.err
}

type fakeCollaborative struct {
	similar []types.SimilarUser
	err     error
}

func (f *fakeCollaborative) FindSimilarUsers(ctx context.Context, userID uuid.UUID, limit int) ([]types.SimilarUser, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.similar) > limit {
		return f.similar[:limit], nil
	}
	return f.similar, nil
}

type nullAnalytics struct{}

func (nullAnalytics) Track(event types.AnalyticsEvent) {}

type fakeSuggestionRepo struct {
	mu          sync.Mutex
	rows        []*types.SearchSuggestion
	trending    []*types.SearchSuggestion
	upserts     map[string]int
	lastCount   int
	err         error
	prefixCalls int
}

func (f *fakeSuggestionRepo) Upsert(ctx context.Context, tx *gorm.DB, query, category string, resultCount int) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upserts == nil {
		f.upserts = map[string]int{}
	}
	f.upserts[query+"|"+category]++
	f.lastCount = resultCount
	return nil
}

func (f *fakeSuggestionRepo) upsertCount(query, category string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.upserts[query+"|"+category]
}

func (f *fakeSuggestionRepo) upsertTotal() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.upserts)
}

func (f *fakeSuggestionRepo) lastResultCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastCount
}

func (f *fakeSuggestionRepo) Prefix(ctx context.Context, tx *gorm.DB, prefix string, limit int) ([]*types.SearchSuggestion, error) {
	f.prefixCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func (f *fakeSuggestionRepo) Trending(ctx context.Context, tx *gorm.DB, limit int) ([]*types.SearchSuggestion, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.trending, nil
}

type fakeUserRepo struct {
	producers []string
	byEmail   map[string]*types.User
	err       error
}

func (f *fakeUserRepo) Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.byEmail == nil {
		f.byEmail = map[string]*types.User{}
	}
	for _, user := range users {
		f.byEmail[user.Email] = user
	}
	return users, nil
}

func (f *fakeUserRepo) GetByIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.User, error) {
	return nil, f.err
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byEmail[email], nil
}

func (f *fakeUserRepo) EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.byEmail[email]
	return ok, nil
}

func (f *fakeUserRepo) ProducerNamePrefix(ctx context.Context, tx *gorm.DB, prefix string, limit int) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.producers, nil
}
