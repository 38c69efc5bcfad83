package repos

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/beatforge-backend/internal/logger"
	"github.com/yungbote/beatforge-backend/internal/types"
)

type BeatRepo interface {
	GetByIDs(ctx context.Context, tx *gorm.DB, beatIDs []uuid.UUID) ([]*types.Beat, error)
	// GetActiveCandidates returns active beats excluding the given ids, newest
	// first, capped at limit. Retrieval order is deterministic so downstream
	// stable sorts are reproducible.
	GetActiveCandidates(ctx context.Context, tx *gorm.DB, excludeIDs []uuid.UUID, limit int) ([]*types.Beat, error)
	PopularityOrdered(ctx context.Context, tx *gorm.DB, excludeIDs []uuid.UUID, limit int) ([]*types.Beat, error)
	Search(ctx context.Context, tx *gorm.DB, filters types.SearchFilters) ([]*types.Beat, int64, error)
	FacetCounts(ctx context.Context, tx *gorm.DB, filters types.SearchFilters) (types.SearchFacets, error)
	TitlePrefix(ctx context.Context, tx *gorm.DB, prefix string, limit int) ([]string, error)
	GenrePrefix(ctx context.Context, tx *gorm.DB, prefix string, limit int) ([]string, error)
	TagPrefix(ctx context.Context, tx *gorm.DB, prefix string, limit int) ([]string, error)
}

type beatRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBeatRepo(db *gorm.DB, baseLog *logger.Logger) BeatRepo {
	repoLog := baseLog.With("repo", "BeatRepo")
	return &beatRepo{db: db, log: repoLog}
}

func (br *beatRepo) GetByIDs(ctx context.Context, tx *gorm.DB, beatIDs []uuid.UUID) ([]*types.Beat, error) {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}

	var results []*types.Beat
	if len(beatIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", beatIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (br *beatRepo) GetActiveCandidates(ctx context.Context, tx *gorm.DB, excludeIDs []uuid.UUID, limit int) ([]*types.Beat, error) {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}

	q := transaction.WithContext(ctx).
		Where("is_active = ?", true)
	if len(excludeIDs) > 0 {
		q = q.Where("id NOT IN ?", excludeIDs)
	}

	var results []*types.Beat
	if err := q.Order("created_at DESC").Order("id").Limit(limit).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (br *beatRepo) PopularityOrdered(ctx context.Context, tx *gorm.DB, excludeIDs []uuid.UUID, limit int) ([]*types.Beat, error) {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}

	q := transaction.WithContext(ctx).
		Where("is_active = ?", true)
	if len(excludeIDs) > 0 {
		q = q.Where("id NOT IN ?", excludeIDs)
	}

	var results []*types.Beat
	if err := q.Order("play_count DESC").Order("like_count DESC").Order("id").Limit(limit).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// filter dimensions that can be skipped so facet counts can honor every
// other active filter while excluding their own dimension.
const (
	dimNone  = ""
	dimGenre = "genre"
	dimMood  = "mood"
	dimKey   = "key"
	dimBPM   = "bpm"
	dimPrice = "price"
)

func likePattern(s string) string {
	return "%" + strings.ToLower(strings.TrimSpace(s)) + "%"
}

func (br *beatRepo) applyFilters(q *gorm.DB, f types.SearchFilters, skip string) *gorm.DB {
	q = q.Where("beat.is_active = ?", true)

	if query := strings.TrimSpace(f.Query); query != "" {
		pat := likePattern(query)
		q = q.Joins(`JOIN "user" producer ON producer.id = beat.producer_id`).
			Where(`LOWER(beat.title) LIKE ? OR LOWER(beat.description) LIKE ? OR LOWER(CAST(beat.tags AS TEXT)) LIKE ? OR LOWER(producer.display_name) LIKE ? OR LOWER(producer.username) LIKE ?`,
				pat, pat, pat, pat, pat)
	}
	if f.Genre != "" && skip != dimGenre {
		q = q.Where("beat.genre = ?", f.Genre)
	}
	if f.Mood != "" && skip != dimMood {
		q = q.Where("beat.mood = ?", f.Mood)
	}
	if f.Key != "" && skip != dimKey {
		q = q.Where(`beat."key" = ?`, f.Key)
	}
	if skip != dimBPM {
		if f.BPMMin != nil {
			q = q.Where("beat.bpm >= ?", *f.BPMMin)
		}
		if f.BPMMax != nil {
			q = q.Where("beat.bpm <= ?", *f.BPMMax)
		}
	}
	if skip != dimPrice {
		if f.PriceMin != nil {
			q = q.Where("beat.price >= ?", *f.PriceMin)
		}
		if f.PriceMax != nil {
			q = q.Where("beat.price <= ?", *f.PriceMax)
		}
	}
	if f.DurationMin != nil {
		q = q.Where("beat.duration >= ?", *f.DurationMin)
	}
	if f.DurationMax != nil {
		q = q.Where("beat.duration <= ?", *f.DurationMax)
	}
	for _, tag := range f.Tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		q = q.Where("LOWER(CAST(beat.tags AS TEXT)) LIKE ?", `%"`+tag+`"%`)
	}
	if f.IsFree != nil {
		q = q.Where("beat.is_free = ?", *f.IsFree)
	}
	if f.IsExclusive != nil {
		q = q.Where("beat.is_exclusive = ?", *f.IsExclusive)
	}
	if f.ProducerID != nil {
		q = q.Where("beat.producer_id = ?", *f.ProducerID)
	}
	return q
}

func (br *beatRepo) applySort(q *gorm.DB, f types.SearchFilters) *gorm.DB {
	sortMode := f.Sort
	if sortMode == types.SortRelevance && strings.TrimSpace(f.Query) == "" {
		sortMode = types.SortPopular
	}
	switch sortMode {
	case types.SortRelevance:
		// Exact title substring matches bucket ahead of everything else,
		// then plays, then likes.
		q = q.Clauses(clause.OrderBy{
			Expression: clause.Expr{
				SQL:                "CASE WHEN LOWER(beat.title) LIKE ? THEN 0 ELSE 1 END, beat.play_count DESC, beat.like_count DESC",
				Vars:               []interface{}{likePattern(f.Query)},
				WithoutParentheses: true,
			},
		})
	case types.SortNewest:
		q = q.Order("beat.created_at DESC")
	case types.SortPriceAsc:
		q = q.Order("beat.price ASC")
	case types.SortPriceDesc:
		q = q.Order("beat.price DESC")
	case types.SortBPM:
		q = q.Order("beat.bpm ASC")
	case types.SortDuration:
		q = q.Order("beat.duration ASC")
	default:
		q = q.Order("beat.play_count DESC").Order("beat.like_count DESC")
	}
	return q.Order("beat.id")
}

func (br *beatRepo) Search(ctx context.Context, tx *gorm.DB, filters types.SearchFilters) ([]*types.Beat, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}

	var total int64
	countQ := br.applyFilters(transaction.WithContext(ctx).Model(&types.Beat{}), filters, dimNone)
	if err := countQ.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := br.applyFilters(transaction.WithContext(ctx).Model(&types.Beat{}), filters, dimNone)
	q = br.applySort(q, filters)
	q = q.Select("beat.*").Offset(filters.Offset).Limit(filters.Limit)

	var results []*types.Beat
	if err := q.Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

type facetRow struct {
	Value string
	Count int64
}

type rangeBucket struct {
	name string
	cond string
	args []interface{}
}

var bpmBuckets = []rangeBucket{
	{name: "unknown", cond: "beat.bpm <= 0"},
	{name: "under_80", cond: "beat.bpm > 0 AND beat.bpm < 80"},
	{name: "80_99", cond: "beat.bpm >= 80 AND beat.bpm < 100"},
	{name: "100_119", cond: "beat.bpm >= 100 AND beat.bpm < 120"},
	{name: "120_139", cond: "beat.bpm >= 120 AND beat.bpm < 140"},
	{name: "140_159", cond: "beat.bpm >= 140 AND beat.bpm < 160"},
	{name: "160_plus", cond: "beat.bpm >= 160"},
}

var priceBuckets = []rangeBucket{
	{name: "under_10", cond: "beat.price < 10"},
	{name: "10_25", cond: "beat.price >= 10 AND beat.price < 25"},
	{name: "25_50", cond: "beat.price >= 25 AND beat.price < 50"},
	{name: "50_100", cond: "beat.price >= 50 AND beat.price < 100"},
	{name: "100_plus", cond: "beat.price >= 100"},
}

func (br *beatRepo) FacetCounts(ctx context.Context, tx *gorm.DB, filters types.SearchFilters) (types.SearchFacets, error) {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}

	facets := types.SearchFacets{
		Genres:       map[string]int64{},
		Moods:        map[string]int64{},
		Keys:         map[string]int64{},
		BPMBuckets:   map[string]int64{},
		PriceBuckets: map[string]int64{},
	}

	groupDims := []struct {
		column string
		skip   string
		out    map[string]int64
	}{
		{column: "beat.genre", skip: dimGenre, out: facets.Genres},
		{column: "beat.mood", skip: dimMood, out: facets.Moods},
		{column: `beat."key"`, skip: dimKey, out: facets.Keys},
	}
	for _, dim := range groupDims {
		var rows []facetRow
		q := br.applyFilters(transaction.WithContext(ctx).Model(&types.Beat{}), filters, dim.skip)
		if err := q.Select(dim.column + " AS value, COUNT(*) AS count").
			Group(dim.column).
			Find(&rows).Error; err != nil {
			return facets, err
		}
		// Empty values bucket under "unknown" so per-dimension counts sum to
		// the search total.
		for _, row := range rows {
			value := row.Value
			if value == "" {
				value = "unknown"
			}
			dim.out[value] += row.Count
		}
	}

	for _, bucket := range bpmBuckets {
		var count int64
		q := br.applyFilters(transaction.WithContext(ctx).Model(&types.Beat{}), filters, dimBPM)
		if err := q.Where(bucket.cond, bucket.args...).Count(&count).Error; err != nil {
			return facets, err
		}
		if count > 0 {
			facets.BPMBuckets[bucket.name] = count
		}
	}
	for _, bucket := range priceBuckets {
		var count int64
		q := br.applyFilters(transaction.WithContext(ctx).Model(&types.Beat{}), filters, dimPrice)
		if err := q.Where(bucket.cond, bucket.args...).Count(&count).Error; err != nil {
			return facets, err
		}
		if count > 0 {
			facets.PriceBuckets[bucket.name] = count
		}
	}

	return facets, nil
}

func (br *beatRepo) TitlePrefix(ctx context.Context, tx *gorm.DB, prefix string, limit int) ([]string, error) {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}

	var titles []string
	if err := transaction.WithContext(ctx).Model(&types.Beat{}).
		Where("is_active = ?", true).
		Where("LOWER(title) LIKE ?", strings.ToLower(strings.TrimSpace(prefix))+"%").
		Order("play_count DESC").
		Limit(limit).
		Pluck("title", &titles).Error; err != nil {
		return nil, err
	}
	return titles, nil
}

func (br *beatRepo) GenrePrefix(ctx context.Context, tx *gorm.DB, prefix string, limit int) ([]string, error) {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}

	var genres []string
	if err := transaction.WithContext(ctx).Model(&types.Beat{}).
		Distinct("genre").
		Where("is_active = ?", true).
		Where("genre <> ''").
		Where("LOWER(genre) LIKE ?", strings.ToLower(strings.TrimSpace(prefix))+"%").
		Order("genre").
		Limit(limit).
		Pluck("genre", &genres).Error; err != nil {
		return nil, err
	}
	return genres, nil
}

// TagPrefix collects distinct tags matching the prefix. Tags live inside a
// JSON column, so candidate rows are filtered coarsely in SQL and the exact
// prefix match happens here.
func (br *beatRepo) TagPrefix(ctx context.Context, tx *gorm.DB, prefix string, limit int) ([]string, error) {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}

	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" || limit <= 0 {
		return []string{}, nil
	}

	var rawRows []string
	if err := transaction.WithContext(ctx).Model(&types.Beat{}).
		Where("is_active = ?", true).
		Where("LOWER(CAST(tags AS TEXT)) LIKE ?", "%"+prefix+"%").
		Limit(200).
		Pluck("CAST(tags AS TEXT)", &rawRows).Error; err != nil {
		return nil, err
	}

	seen := map[string]struct{}{}
	var out []string
	for _, raw := range rawRows {
		var tags []string
		if err := json.Unmarshal([]byte(raw), &tags); err != nil {
			continue
		}
		for _, tag := range tags {
			lowered := strings.ToLower(strings.TrimSpace(tag))
			if !strings.HasPrefix(lowered, prefix) {
				continue
			}
			if _, ok := seen[lowered]; ok {
				continue
			}
			seen[lowered] = struct{}{}
			out = append(out, lowered)
			if len(out) >= limit {
				return out, nil
			}
		}
	}
	return out, nil
}
