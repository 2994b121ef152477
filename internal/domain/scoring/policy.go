package scoring

import (
	"time"

	"github.com/okian/scout/internal/domain/model"
)

// Policy is the per-category scoring and acceptance configuration.
type Policy struct {
	Weight       float64
	MinUpvotes   int
	MinSentiment float64
	// Inverted applies the sentiment stages to -sentiment, for categories
	// where negative text is the signal.
	Inverted bool
}

// Stage is one step of the sentiment bonus: polarity strictly above Above earns Bonus.
type Stage struct {
	Above float64
	Bonus float64
}

// Recency sets the age bands of the recency bonus.
type Recency struct {
	FreshAge    time.Duration
	FreshBonus  float64
	RecentAge   time.Duration
	RecentBonus float64
}

const day = 24 * time.Hour

// DefaultPolicies returns the built-in category policies.
func DefaultPolicies() map[model.Category]Policy {
	return map[model.Category]Policy{
		model.Testimonial:          {Weight: 5, MinUpvotes: 3, MinSentiment: 0.05},
		model.PainPoint:            {Weight: 3, MinUpvotes: 20, MinSentiment: -0.5, Inverted: true},
		model.CourseRecommendation: {Weight: 2, MinUpvotes: 5, MinSentiment: 0.0},
		model.Motivation:           {Weight: 1, MinUpvotes: 10, MinSentiment: -0.2},
		model.Doubt:                {Weight: 1, MinUpvotes: 15, MinSentiment: -0.8, Inverted: true},
	}
}

// DefaultStages returns the sentiment bonus stages, highest first.
func DefaultStages() []Stage {
	return []Stage{
		{Above: 0.5, Bonus: 1.8},
		{Above: 0.3, Bonus: 1.4},
	}
}

// DefaultRecency returns the built-in recency bands.
func DefaultRecency() Recency {
	return Recency{
		FreshAge:    7 * day,
		FreshBonus:  1.3,
		RecentAge:   30 * day,
		RecentBonus: 1.1,
	}
}
