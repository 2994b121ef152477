// Package sentiment scores text polarity in [-1, 1].
package sentiment

import (
	"github.com/jonreiter/govader"
)

// Analyzer returns the polarity of text in [-1, 1].
type Analyzer interface {
	Polarity(text string) float64
}

// Vader scores text with the VADER lexicon; Polarity is the compound score.
type Vader struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewVader builds a Vader analyzer. The lexicon is loaded once here.
func NewVader() *Vader {
	return &Vader{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Polarity implements Analyzer.
func (v *Vader) Polarity(text string) float64 {
	if text == "" {
		return 0
	}
	return clamp(v.analyzer.PolarityScores(text).Compound)
}

// Fixed always returns the same polarity.
type Fixed float64

// Polarity implements Analyzer.
func (f Fixed) Polarity(string) float64 { return clamp(float64(f)) }

// Func adapts a plain function to Analyzer.
type Func func(text string) float64

// Polarity implements Analyzer.
func (f Func) Polarity(text string) float64 { return clamp(f(text)) }

func clamp(v float64) float64 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	}
	return v
}
