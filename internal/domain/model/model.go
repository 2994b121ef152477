// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"time"
)

// Source identifies where a candidate came from.
type Source string

// Known sources.
const (
	SourceAd   Source = "ad"
	SourcePost Source = "post"
)

// Category is the heuristic bucket assigned to a candidate.
type Category string

// Known categories.
const (
	Testimonial          Category = "testimonial"
	PainPoint            Category = "pain_point"
	Motivation           Category = "motivation"
	CourseRecommendation Category = "course_recommendation"
	Doubt                Category = "doubt"
)

// Categories lists every known category in a fixed order.
func Categories() []Category {
	return []Category{Testimonial, PainPoint, Motivation, CourseRecommendation, Doubt}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case Testimonial, PainPoint, Motivation, CourseRecommendation, Doubt:
		return true
	}
	return false
}

// Title is the human heading used in digests.
func (c Category) Title() string {
	switch c {
	case Testimonial:
		return "Learner Story"
	case PainPoint:
		return "Pain Point"
	case Motivation:
		return "Motivation"
	case CourseRecommendation:
		return "Course Progress"
	case Doubt:
		return "Doubt"
	}
	return string(c)
}

// ParseCategory maps a config string to a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

// Candidate is a single fetched item under consideration for a digest.
// It is built fresh per fetch and never persisted.
type Candidate struct {
	Title     string
	Body      string
	Upvotes   int // upvotes for posts, lower-bound impressions for ads
	CreatedAt time.Time
	Source    Source
	Origin    string // subreddit or page name
	URL       string // permalink or snapshot URL
	NativeID  string // source-native id, may be empty
	Search    string // name of the search that found it
}

// ScoredCandidate is a Candidate after classification and scoring.
type ScoredCandidate struct {
	Candidate
	ID         string
	Category   Category
	Confidence float64 // [0,1]
	Sentiment  float64 // [-1,1]
	Score      float64
	Rule       string // rule that assigned the category
}
