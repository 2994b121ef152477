// Package scoring computes relevance scores for classified candidates and
// applies per-category acceptance thresholds.
package scoring

import (
	"sort"
	"time"

	"github.com/okian/scout/internal/domain/model"
)

// Rejection reasons reported by Accept.
const (
	ReasonMinUpvotes   = "min_upvotes"
	ReasonMinSentiment = "min_sentiment"
)

// fallbackWeight is used for a category without a policy.
const fallbackWeight = 1.0

// Scorer computes score = upvotes * confidence * weight * sentiment bonus * recency bonus.
type Scorer struct {
	policies map[model.Category]Policy
	stages   []Stage
	recency  Recency
	now      func() time.Time
}

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithPolicies overrides policies per category; categories not present keep their default.
func WithPolicies(policies map[model.Category]Policy) Option {
	return func(s *Scorer) {
		for cat, p := range policies {
			s.policies[cat] = p
		}
	}
}

// WithStages replaces the sentiment bonus stages.
func WithStages(stages []Stage) Option {
	return func(s *Scorer) {
		if len(stages) > 0 {
			s.stages = stages
		}
	}
}

// WithRecency replaces the recency bands. Zero ages are ignored.
func WithRecency(r Recency) Option {
	return func(s *Scorer) {
		if r.FreshAge > 0 && r.RecentAge >= r.FreshAge {
			s.recency = r
		}
	}
}

// WithClock sets the time source used for recency.
func WithClock(now func() time.Time) Option {
	return func(s *Scorer) {
		if now != nil {
			s.now = now
		}
	}
}

// NewScorer creates a scorer with the built-in tables.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{
		policies: DefaultPolicies(),
		stages:   DefaultStages(),
		recency:  DefaultRecency(),
		now:      time.Now,
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	// Stages are evaluated highest threshold first.
	stages := make([]Stage, len(s.stages))
	copy(stages, s.stages)
	sort.SliceStable(stages, func(i, j int) bool { return stages[i].Above > stages[j].Above })
	s.stages = stages

	return s
}

// Policy returns the policy for cat, or a neutral one when unknown.
func (s *Scorer) Policy(cat model.Category) Policy {
	if p, ok := s.policies[cat]; ok {
		return p
	}
	return Policy{Weight: fallbackWeight}
}

// Accept applies the category thresholds. A rejected candidate must not be scored.
func (s *Scorer) Accept(c model.Candidate, cat model.Category, sentiment float64) (bool, string) {
	p := s.Policy(cat)
	if c.Upvotes < p.MinUpvotes {
		return false, ReasonMinUpvotes
	}
	if sentiment < p.MinSentiment {
		return false, ReasonMinSentiment
	}
	return true, ""
}

// Score returns the relevance score. The category weight is applied exactly once,
// and every factor is non-negative so the result never decreases with upvotes or confidence.
func (s *Scorer) Score(c model.Candidate, cat model.Category, confidence, sentiment float64) float64 {
	p := s.Policy(cat)

	upvotes := float64(c.Upvotes)
	if upvotes < 0 {
		upvotes = 0
	}
	if confidence < 0 {
		confidence = 0
	}
	weight := p.Weight
	if weight < 0 {
		weight = 0
	}

	polarity := sentiment
	if p.Inverted {
		polarity = -sentiment
	}

	return upvotes * confidence * weight * s.SentimentBonus(polarity) * s.RecencyBonus(c.CreatedAt)
}

// SentimentBonus returns the multiplier of the first stage polarity exceeds.
func (s *Scorer) SentimentBonus(polarity float64) float64 {
	for _, st := range s.stages {
		if polarity > st.Above {
			return st.Bonus
		}
	}
	return 1
}

// RecencyBonus returns the multiplier for an item created at t.
// Unknown creation times earn no bonus.
func (s *Scorer) RecencyBonus(t time.Time) float64 {
	if t.IsZero() {
		return 1
	}
	age := s.now().Sub(t)
	switch {
	case age < s.recency.FreshAge:
		return s.recency.FreshBonus
	case age < s.recency.RecentAge:
		return s.recency.RecentBonus
	}
	return 1
}
