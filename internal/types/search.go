package types

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

const (
	SortRelevance = "relevance"
	SortNewest    = "newest"
	SortPopular   = "popular"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortBPM       = "bpm"
	SortDuration  = "duration"
)

// SearchFilters is the request-scoped filter set. All supplied dimensions are
// conjunctive; zero values mean "not filtered".
type SearchFilters struct {
	Query       string     `json:"query" form:"query"`
	Genre       string     `json:"genre" form:"genre"`
	Mood        string     `json:"mood" form:"mood"`
	Key         string     `json:"key" form:"key"`
	BPMMin      *int       `json:"bpm_min" form:"bpm_min"`
	BPMMax      *int       `json:"bpm_max" form:"bpm_max"`
	PriceMin    *float64   `json:"price_min" form:"price_min"`
	PriceMax    *float64   `json:"price_max" form:"price_max"`
	DurationMin *int       `json:"duration_min" form:"duration_min"`
	DurationMax *int       `json:"duration_max" form:"duration_max"`
	Tags        []string   `json:"tags" form:"tags"`
	IsFree      *bool      `json:"is_free" form:"is_free"`
	IsExclusive *bool      `json:"is_exclusive" form:"is_exclusive"`
	ProducerID  *uuid.UUID `json:"producer_id" form:"producer_id"`
	Sort        string     `json:"sort" form:"sort"`
	Limit       int        `json:"limit" form:"limit"`
	Offset      int        `json:"offset" form:"offset"`
}

// CacheKey serializes the full filter set so identical searches share one
// cached result.
func (f SearchFilters) CacheKey() string {
	f.Query = strings.ToLower(strings.TrimSpace(f.Query))
	raw, err := json.Marshal(f)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:16])
}

// SearchFacets holds per-dimension counts for the current filter set (minus
// pagination). Each dimension's counts honor every other active filter.
type SearchFacets struct {
	Genres       map[string]int64 `json:"genres"`
	Moods        map[string]int64 `json:"moods"`
	Keys         map[string]int64 `json:"keys"`
	BPMBuckets   map[string]int64 `json:"bpm_buckets"`
	PriceBuckets map[string]int64 `json:"price_buckets"`
}

type SearchResult struct {
	Beats       []*Beat      `json:"beats"`
	TotalCount  int64        `json:"total_count"`
	Facets      SearchFacets `json:"facets"`
	Suggestions []string     `json:"suggestions"`
	TookMS      int64        `json:"took_ms"`
}

type AutocompleteResult struct {
	Beats     []string `json:"beats"`
	Producers []string `json:"producers"`
	Genres    []string `json:"genres"`
	Tags      []string `json:"tags"`
}
