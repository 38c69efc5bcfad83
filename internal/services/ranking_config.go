package services

import (
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/beatforge-backend/internal/logger"
)

// RankingWeights are the seven scoring factor weights. They must sum to 1.0;
// Validate enforces this so retuning cannot silently skew the composite scale.
type RankingWeights struct {
	Genre         float64 `yaml:"genre"`
	Mood          float64 `yaml:"mood"`
	BPM           float64 `yaml:"bpm"`
	Popularity    float64 `yaml:"popularity"`
	Recency       float64 `yaml:"recency"`
	Collaborative float64 `yaml:"collaborative"`
	Novelty       float64 `yaml:"novelty"`
}

func (w RankingWeights) Sum() float64 {
	return w.Genre + w.Mood + w.BPM + w.Popularity + w.Recency + w.Collaborative + w.Novelty
}

// RankingConfig gathers every tunable of the recommendation and search
// pipelines in one place.
type RankingConfig struct {
	Weights RankingWeights

	ProfileTTL        time.Duration
	SimilarUsersTTL   time.Duration
	RecommendationTTL time.Duration
	TrendingTTL       time.Duration
	SimilarBeatsTTL   time.Duration
	SearchTTL         time.Duration
	SuggestionTTL     time.Duration

	CandidatePoolSize  int
	MaxSearchLimit     int
	DefaultSearchLimit int

	DefaultBPMMin         int
	DefaultBPMMax         int
	DefaultSessionSeconds float64
	TopAffinities         int

	TrendingWindow        time.Duration
	SimilarUserMinOverlap int
	TopSimilarUsers       int
}

func DefaultRankingConfig() RankingConfig {
	return RankingConfig{
		Weights: RankingWeights{
			Genre:         0.25,
			Mood:          0.20,
			BPM:           0.15,
			Popularity:    0.15,
			Recency:       0.10,
			Collaborative: 0.10,
			Novelty:       0.05,
		},
		ProfileTTL:        2 * time.Hour,
		SimilarUsersTTL:   4 * time.Hour,
		RecommendationTTL: time.Hour,
		TrendingTTL:       30 * time.Minute,
		SimilarBeatsTTL:   2 * time.Hour,
		SearchTTL:         5 * time.Minute,
		SuggestionTTL:     60 * time.Second,

		CandidatePoolSize:  200,
		MaxSearchLimit:     100,
		DefaultSearchLimit: 20,

		DefaultBPMMin:         80,
		DefaultBPMMax:         140,
		DefaultSessionSeconds: 180,
		TopAffinities:         5,

		TrendingWindow:        7 * 24 * time.Hour,
		SimilarUserMinOverlap: 2,
		TopSimilarUsers:       10,
	}
}

func (c RankingConfig) Validate() error {
	sum := c.Weights.Sum()
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("ranking weights must sum to 1.0, got %v", sum)
	}
	if c.CandidatePoolSize <= 0 {
		return fmt.Errorf("candidate pool size must be positive")
	}
	if c.MaxSearchLimit <= 0 {
		return fmt.Errorf("max search limit must be positive")
	}
	return nil
}

type rankingOverrides struct {
	Weights *RankingWeights `yaml:"weights"`
}

// LoadRankingConfig starts from the defaults and applies weight overrides from
// the YAML file at path, when one is given.
func LoadRankingConfig(path string, log *logger.Logger) (RankingConfig, error) {
	cfg := DefaultRankingConfig()
	if path == "" {
		return cfg, cfg.Validate()
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read ranking config: %w", err)
	}
	var overrides rankingOverrides
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return cfg, fmt.Errorf("parse ranking config: %w", err)
	}
	if overrides.Weights != nil {
		cfg.Weights = *overrides.Weights
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	if log != nil {
		log.Info("Ranking config loaded", "path", path)
	}
	return cfg, nil
}
