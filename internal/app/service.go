// Package service runs the digest and alerts jobs over the domain packages.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/okian/scout/internal/adapters/notify"
	"github.com/okian/scout/internal/adapters/source"
	"github.com/okian/scout/internal/domain/dedupe"
	"github.com/okian/scout/internal/domain/digest"
	"github.com/okian/scout/internal/domain/model"
	"github.com/okian/scout/internal/domain/scoring"
	"github.com/okian/scout/internal/domain/selection"
	"github.com/okian/scout/pkg/logger"
	"github.com/okian/scout/pkg/metrics"
)

// DefaultMaxItems caps the candidates selected per run.
const DefaultMaxItems = 5

// ErrNoEvaluator is returned by Run when no evaluator was configured.
var ErrNoEvaluator = errors.New("no evaluator configured")

// Search binds a query to the fetcher that serves it.
type Search struct {
	// Kind labels the source in logs and metrics, e.g. "reddit".
	Kind    string
	Query   source.Query
	Fetcher source.Fetcher
}

// Result summarises one digest run.
type Result struct {
	RunID     string
	Message   string
	HasItems  bool
	Delivered bool
	Sink      string
	Fetched   int
	Fresh     int
	Accepted  int
	Pruned    int
	Selected  []model.ScoredCandidate
}

// Service runs one digest: fetch, dedupe, score, select, format, deliver, persist.
type Service struct {
	searches  []Search
	evaluator *scoring.Evaluator
	formatter *digest.Formatter
	chain     *notify.Chain
	store     dedupe.Store
	retention time.Duration
	maxItems  int
	delay     time.Duration
	dryRun    bool
	now       func() time.Time

	logger  logger.Logger
	metrics *metrics.Manager
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSearches sets the searches, run in order.
func WithSearches(searches ...Search) Option {
	return func(s *Service) {
		s.searches = append(s.searches, searches...)
	}
}

// WithEvaluator sets the candidate evaluator.
func WithEvaluator(e *scoring.Evaluator) Option {
	return func(s *Service) {
		s.evaluator = e
	}
}

// WithFormatter sets the digest formatter.
func WithFormatter(f *digest.Formatter) Option {
	return func(s *Service) {
		if f != nil {
			s.formatter = f
		}
	}
}

// WithChain sets the delivery chain.
func WithChain(c *notify.Chain) Option {
	return func(s *Service) {
		if c != nil {
			s.chain = c
		}
	}
}

// WithStore sets where the seen-item registry lives.
func WithStore(st dedupe.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithRetention sets how long seen items are remembered.
func WithRetention(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.retention = d
		}
	}
}

// WithMaxItems caps the number of selected candidates.
func WithMaxItems(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxItems = n
		}
	}
}

// WithFetchDelay sets the pause before each fetch.
func WithFetchDelay(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.delay = d
		}
	}
}

// WithDryRun builds the message without delivering it or saving the registry.
func WithDryRun(dry bool) Option {
	return func(s *Service) {
		s.dryRun = dry
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the metrics manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		formatter: digest.New(),
		chain:     notify.NewChain(nil),
		store:     dedupe.NewMemoryStore(nil),
		retention: dedupe.DefaultRetention,
		maxItems:  DefaultMaxItems,
		now:       time.Now,
		logger:    logger.Nop(),
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Run executes one digest. Source and delivery failures are logged and do not fail
// the run; only registry load or save errors are returned.
func (s *Service) Run(ctx context.Context) (Result, error) {
	if s.evaluator == nil {
		return Result{}, ErrNoEvaluator
	}

	res := Result{RunID: uuid.NewString()}
	log := s.logger.With(logger.String("run_id", res.RunID))
	started := s.now()
	log.Info(ctx, "digest run started", logger.Int("searches", len(s.searches)), logger.Bool("dry_run", s.dryRun))

	reg, pruned, err := dedupe.Load(ctx, s.store, started, dedupe.WithRetention(s.retention))
	if err != nil {
		return res, err
	}
	res.Pruned = pruned

	pool, err := s.collect(ctx, log, reg, &res)
	if err != nil {
		return res, err
	}

	res.Selected = selection.Select(pool, s.maxItems)
	for _, sc := range res.Selected {
		s.metrics.RecordSelected(string(sc.Source), 1)
	}

	body, ok := s.formatter.Format(s.sections(res.Selected)...)
	res.HasItems = ok
	res.Message = s.formatter.Message(started, body, ok)
	log.Info(ctx, "digest built",
		logger.Int("fetched", res.Fetched),
		logger.Int("fresh", res.Fresh),
		logger.Int("accepted", res.Accepted),
		logger.Int("selected", len(res.Selected)),
		logger.Bool("fallback", !ok),
	)

	if s.dryRun {
		return res, nil
	}

	sink, err := s.chain.Deliver(ctx, res.Message)
	if err != nil {
		log.Error(ctx, "digest delivery failed", logger.Error(err))
	} else {
		res.Delivered = true
		res.Sink = sink
	}

	for _, sc := range res.Selected {
		reg.MarkSeen(sc.ID, started)
	}
	if err := reg.Save(ctx); err != nil {
		return res, err
	}
	s.metrics.UpdateRegistrySize(reg.Len())
	s.metrics.ObserveRun(s.now().Sub(started), res.Delivered, s.now())

	if s.metrics.PushEnabled() {
		if err := s.metrics.Push(ctx); err != nil {
			log.Warn(ctx, "metrics push failed", logger.Error(err))
		}
	}

	log.Info(ctx, "digest run finished",
		logger.Bool("delivered", res.Delivered),
		logger.String("sink", res.Sink),
		logger.Int("registry_size", reg.Len()),
	)
	return res, nil
}

// collect fetches every search in order and returns the accepted, unseen candidates.
func (s *Service) collect(ctx context.Context, log logger.Logger, reg *dedupe.Registry, res *Result) ([]model.ScoredCandidate, error) {
	var pool []model.ScoredCandidate
	batch := make(map[string]struct{})

	for _, search := range s.searches {
		if err := sleep(ctx, s.delay); err != nil {
			return nil, err
		}

		flog := log.With(logger.String("search", search.Query.Name), logger.String("source", search.Kind))
		cands, err := search.Fetcher.Fetch(ctx, search.Query)
		switch {
		case errors.Is(err, source.ErrNotConfigured):
			flog.Info(ctx, "source not configured, skipping")
			continue
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.metrics.RecordFetchError(search.Kind)
			flog.Warn(ctx, "fetch failed, skipping source", logger.Error(err))
			continue
		}
		s.metrics.RecordFetched(search.Kind, len(cands))
		res.Fetched += len(cands)

		for _, c := range cands {
			if c.Search == "" {
				c.Search = search.Query.Name
			}
			id := dedupe.DeriveID(c)
			if _, dup := batch[id]; dup || !reg.IsNew(id) {
				s.metrics.RecordDuplicate()
				continue
			}
			batch[id] = struct{}{}
			res.Fresh++

			sc, ok := s.evaluator.Evaluate(ctx, c)
			if !ok {
				continue
			}
			sc.ID = id
			res.Accepted++
			pool = append(pool, sc)
		}
	}
	return pool, nil
}

// sections renders the selected candidates grouped per search, in search order.
func (s *Service) sections(selected []model.ScoredCandidate) []string {
	bySearch := selection.BySearch(selected)
	out := make([]string, 0, len(s.searches))
	for _, search := range s.searches {
		group := bySearch[search.Query.Name]
		blocks := make([]string, 0, len(group))
		for _, sc := range group {
			blocks = append(blocks, digest.Block(sc))
		}
		out = append(out, digest.Section(blocks...))
	}
	return out
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
