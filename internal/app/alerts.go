package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/scout/internal/adapters/notify"
	"github.com/okian/scout/internal/adapters/source/alerts"
	"github.com/okian/scout/internal/domain/story"
	"github.com/okian/scout/pkg/logger"
	"github.com/okian/scout/pkg/metrics"
)

// Scan outcomes.
const (
	StatusSuccess       = "success"
	StatusSetupRequired = "setup_required"
)

// SetupMessage accompanies StatusSetupRequired.
const SetupMessage = "Gmail credentials not configured. See setup instructions above."

// Inbox yields alert emails.
type Inbox interface {
	Configured() bool
	Fetch(ctx context.Context) ([]alerts.Alert, error)
}

// StoryStore persists the story database.
type StoryStore interface {
	Load(ctx context.Context) (story.Database, error)
	Save(ctx context.Context, db story.Database) error
}

// ScanResult summarises one alerts scan.
type ScanResult struct {
	Status       string
	Message      string
	Report       string
	Sink         string
	NewStories   []story.Story
	TotalStories int
	Links        int
}

// AlertsMonitor turns Google Alerts emails into scored success stories.
type AlertsMonitor struct {
	inbox    Inbox
	store    StoryStore
	analyzer *story.Analyzer
	chain    *notify.Chain
	report   story.ReportOptions
	dryRun   bool
	now      func() time.Time

	logger  logger.Logger
	metrics *metrics.Manager
}

// AlertsOption applies a configuration option to the AlertsMonitor.
type AlertsOption func(*AlertsMonitor)

// WithAlertsChain sets the report delivery chain.
func WithAlertsChain(c *notify.Chain) AlertsOption {
	return func(m *AlertsMonitor) {
		if c != nil {
			m.chain = c
		}
	}
}

// WithReportOptions sets the score thresholds and report size.
func WithReportOptions(o story.ReportOptions) AlertsOption {
	return func(m *AlertsMonitor) {
		if o.MinScore > 0 {
			m.report.MinScore = o.MinScore
		}
		if o.HighValueScore > 0 {
			m.report.HighValueScore = o.HighValueScore
		}
		if o.Limit > 0 {
			m.report.Limit = o.Limit
		}
	}
}

// WithAnalyzer sets the story analyzer.
func WithAnalyzer(a *story.Analyzer) AlertsOption {
	return func(m *AlertsMonitor) {
		if a != nil {
			m.analyzer = a
		}
	}
}

// WithAlertsDryRun builds the report without saving or delivering it.
func WithAlertsDryRun(dry bool) AlertsOption {
	return func(m *AlertsMonitor) { m.dryRun = dry }
}

// WithAlertsClock sets the time source.
func WithAlertsClock(now func() time.Time) AlertsOption {
	return func(m *AlertsMonitor) {
		if now != nil {
			m.now = now
		}
	}
}

// WithAlertsLogger sets the logger.
func WithAlertsLogger(l logger.Logger) AlertsOption {
	return func(m *AlertsMonitor) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithAlertsMetrics sets the metrics manager.
func WithAlertsMetrics(mm *metrics.Manager) AlertsOption {
	return func(m *AlertsMonitor) { m.metrics = mm }
}

// NewAlertsMonitor constructs a monitor reading inbox and persisting to store.
func NewAlertsMonitor(inbox Inbox, store StoryStore, opts ...AlertsOption) *AlertsMonitor {
	m := &AlertsMonitor{
		inbox:    inbox,
		store:    store,
		analyzer: story.NewAnalyzer(),
		chain:    notify.NewChain(nil),
		report:   story.DefaultReportOptions(),
		now:      time.Now,
		logger:   logger.Nop(),
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Scan processes new alert emails, stores high-potential stories and sends the report.
// Missing inbox credentials yield StatusSetupRequired rather than an error.
func (m *AlertsMonitor) Scan(ctx context.Context) (ScanResult, error) {
	log := m.logger.With(logger.String("run_id", uuid.NewString()))
	if !m.inbox.Configured() {
		log.Warn(ctx, "inbox credentials missing")
		return ScanResult{Status: StatusSetupRequired, Message: SetupMessage}, nil
	}
	log.Info(ctx, "alerts scan started")

	db, err := m.store.Load(ctx)
	if err != nil {
		return ScanResult{}, fmt.Errorf("load stories: %w", err)
	}
	known := db.Index()

	emails, err := m.inbox.Fetch(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ScanResult{}, ctx.Err()
		}
		// A broken inbox still produces a report from the stored stories.
		log.Error(ctx, "fetching alert emails failed", logger.Error(err))
		emails = nil
	}
	m.metrics.RecordAlertsScanned(len(emails))

	now := m.now()
	res := ScanResult{Status: StatusSuccess}
	for _, email := range emails {
		for _, link := range email.Links {
			res.Links++
			id := story.ID(link)
			if _, ok := known[id]; ok {
				continue
			}
			score, signals := m.analyzer.Analyze(link)
			if score < m.report.MinScore {
				continue
			}
			s := story.Story{
				ID:             id,
				URL:            link.URL,
				Text:           link.Text,
				StoryScore:     score,
				Signals:        signals,
				FoundDate:      story.At(now),
				AlertSubject:   email.Subject,
				AlertDate:      email.Date,
				OutreachStatus: story.OutreachPending,
			}
			known[id] = s
			db.Stories = append(db.Stories, s)
			res.NewStories = append(res.NewStories, s)
			m.metrics.RecordAlertsStory(m.tier(score))
			log.Info(ctx, "high-value story found", logger.Int("score", score), logger.String("url", link.URL))
		}
	}
	processed := story.At(now)
	db.LastProcessed = &processed
	db.TotalLinksProcessed = res.Links
	res.TotalStories = len(db.Stories)
	res.Report = story.Report(db, now, m.report)

	log.Info(ctx, "alerts processed",
		logger.Int("links", res.Links),
		logger.Int("new_stories", len(res.NewStories)),
		logger.Int("total_stories", res.TotalStories),
	)
	if m.dryRun {
		return res, nil
	}

	if err := m.store.Save(ctx, db); err != nil {
		return res, fmt.Errorf("save stories: %w", err)
	}

	sink, err := m.chain.Deliver(ctx, res.Report)
	switch {
	case err == nil:
		res.Sink = sink
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return res, err
	default:
		log.Error(ctx, "report delivery failed", logger.Error(err))
	}

	if m.metrics.PushEnabled() {
		if err := m.metrics.Push(ctx); err != nil {
			log.Warn(ctx, "metrics push failed", logger.Error(err))
		}
	}
	return res, nil
}

func (m *AlertsMonitor) tier(score int) string {
	if score >= m.report.HighValueScore {
		return "high"
	}
	return "medium"
}
