package scoring

import (
	"context"
	"strings"

	"github.com/okian/scout/internal/domain/classify"
	"github.com/okian/scout/internal/domain/model"
	"github.com/okian/scout/internal/domain/sentiment"
	"github.com/okian/scout/pkg/logger"
)

// Evaluator runs classify, sentiment, thresholds and score for one candidate.
type Evaluator struct {
	classifier *classify.Classifier
	analyzer   sentiment.Analyzer
	scorer     *Scorer
	log        logger.Logger
	onReject   func(reason string)
}

// EvaluatorOption applies a configuration option to the Evaluator.
type EvaluatorOption func(*Evaluator)

// WithLogger sets the logger used for rejection records.
func WithLogger(l logger.Logger) EvaluatorOption {
	return func(e *Evaluator) {
		if l != nil {
			e.log = l
		}
	}
}

// WithRejectHook registers a callback invoked with the reason of every rejection.
func WithRejectHook(fn func(reason string)) EvaluatorOption {
	return func(e *Evaluator) {
		e.onReject = fn
	}
}

// NewEvaluator wires the collaborators together.
func NewEvaluator(cl *classify.Classifier, an sentiment.Analyzer, sc *Scorer, opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{
		classifier: cl,
		analyzer:   an,
		scorer:     sc,
		log:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate classifies and scores c. The boolean is false when c fails its
// category thresholds; the returned value is then only informative.
func (e *Evaluator) Evaluate(ctx context.Context, c model.Candidate) (model.ScoredCandidate, bool) {
	res := e.classifier.Classify(c.Title, c.Body)
	polarity := e.analyzer.Polarity(strings.TrimSpace(c.Title + " " + c.Body))

	sc := model.ScoredCandidate{
		Candidate:  c,
		Category:   res.Category,
		Confidence: res.Confidence,
		Sentiment:  polarity,
		Rule:       res.Rule,
	}

	if ok, reason := e.scorer.Accept(c, res.Category, polarity); !ok {
		e.log.Debug(ctx, "candidate rejected",
			logger.String("reason", reason),
			logger.String("category", string(res.Category)),
			logger.Int("upvotes", c.Upvotes),
			logger.Float64("sentiment", polarity),
			logger.String("url", c.URL),
		)
		if e.onReject != nil {
			e.onReject(reason)
		}
		return sc, false
	}

	sc.Score = e.scorer.Score(c, res.Category, res.Confidence, polarity)
	return sc, true
}
