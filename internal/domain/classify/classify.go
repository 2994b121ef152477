// Package classify assigns a category and confidence to a short text using an
// ordered keyword rule table.
package classify

import (
	"errors"
	"fmt"
	"strings"

	"github.com/okian/scout/internal/domain/model"
)

// ErrInvalidRule is returned by New for a malformed rule table.
var ErrInvalidRule = errors.New("invalid classifier rule")

// DefaultRuleName is reported when no rule matched.
const DefaultRuleName = "default"

// Rule is one entry of the priority table. A rule matches when any keyword is a
// substring of the lowercased text, or, with TitleQuestion, when the title ends in "?".
type Rule struct {
	Name          string
	Category      model.Category
	Keywords      []string
	Confidence    float64
	TitleQuestion bool
}

// Result is the outcome of Classify.
type Result struct {
	Category   model.Category
	Confidence float64
	Rule       string
}

// Classifier evaluates rules in order; the first match wins.
type Classifier struct {
	rules    []Rule
	fallback Result
}

// Option applies a configuration option to the Classifier.
type Option func(*Classifier)

// WithRules replaces the built-in rule table.
func WithRules(rules []Rule) Option {
	return func(c *Classifier) {
		if len(rules) > 0 {
			c.rules = rules
		}
	}
}

// WithDefault sets the result returned when no rule matches.
func WithDefault(category model.Category, confidence float64) Option {
	return func(c *Classifier) {
		if category != "" {
			c.fallback.Category = category
		}
		c.fallback.Confidence = confidence
	}
}

// New builds a Classifier, validating the rule table.
func New(opts ...Option) (*Classifier, error) {
	c := &Classifier{
		rules: DefaultRules(),
		fallback: Result{
			Category:   DefaultCategory,
			Confidence: DefaultConfidence,
			Rule:       DefaultRuleName,
		},
	}

	// Apply all options
	for _, opt := range opts {
		opt(c)
	}

	if !c.fallback.Category.Valid() {
		return nil, fmt.Errorf("%w: default category %q", ErrInvalidRule, c.fallback.Category)
	}
	if !validConfidence(c.fallback.Confidence) {
		return nil, fmt.Errorf("%w: default confidence %v", ErrInvalidRule, c.fallback.Confidence)
	}

	// Normalise keywords once so Classify only lowercases the text.
	normalised := make([]Rule, 0, len(c.rules))
	for i, r := range c.rules {
		if r.Name == "" {
			r.Name = fmt.Sprintf("rule_%d", i+1)
		}
		if !r.Category.Valid() {
			return nil, fmt.Errorf("%w: %s: category %q", ErrInvalidRule, r.Name, r.Category)
		}
		if !validConfidence(r.Confidence) {
			return nil, fmt.Errorf("%w: %s: confidence %v", ErrInvalidRule, r.Name, r.Confidence)
		}
		kws := make([]string, 0, len(r.Keywords))
		for _, kw := range r.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				kws = append(kws, kw)
			}
		}
		if len(kws) == 0 && !r.TitleQuestion {
			return nil, fmt.Errorf("%w: %s: no keywords", ErrInvalidRule, r.Name)
		}
		r.Keywords = kws
		normalised = append(normalised, r)
	}
	c.rules = normalised

	return c, nil
}

// Classify returns the category of the first matching rule, or the default.
func (c *Classifier) Classify(title, body string) Result {
	text := strings.ToLower(title + " " + body)
	question := strings.HasSuffix(strings.TrimSpace(title), "?")

	for _, r := range c.rules {
		if r.TitleQuestion && question {
			return Result{Category: r.Category, Confidence: r.Confidence, Rule: r.Name}
		}
		for _, kw := range r.Keywords {
			if strings.Contains(text, kw) {
				return Result{Category: r.Category, Confidence: r.Confidence, Rule: r.Name}
			}
		}
	}
	return c.fallback
}

// Rules returns a copy of the active rule table.
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

func validConfidence(v float64) bool {
	return v >= 0 && v <= 1
}
